// Package openai implements wire.Translator for the OpenAI chat-completions
// wire format. Because the descriptor declares every endpoint, parameter
// name, and response path, this translator is not OpenAI-specific in
// practice - any backend whose descriptor is shaped this way (DeepSeek,
// Qwen, compatible gateways) works through it unmodified.
package openai

import (
	"github.com/loomcode/loomcode/descriptor"
	"github.com/loomcode/loomcode/wire"
)

// Translator is the OpenAI-family Canonical <-> Wire translator.
type Translator struct {
	d *descriptor.Descriptor
}

// New builds a Translator bound to the given descriptor.
func New(d *descriptor.Descriptor) *Translator {
	return &Translator{d: d}
}

var _ wire.Translator = (*Translator)(nil)

const embeddingModel = "text-embedding-ada-002"
