// Package anthropic is a structural-only translator for the Anthropic
// Messages wire format. It handles single-turn and multi-turn plain-text
// and image chat, the response shape, and streaming text deltas;
// tool-call translation is left unimplemented until a second round of
// work completes it.
package anthropic

import (
	"github.com/loomcode/loomcode/descriptor"
	"github.com/loomcode/loomcode/wire"
)

// Translator speaks the Anthropic Messages API shape described by d.
type Translator struct {
	d *descriptor.Descriptor
}

// New builds a Translator bound to an Anthropic-shaped descriptor.
func New(d *descriptor.Descriptor) *Translator {
	return &Translator{d: d}
}

var _ wire.Translator = (*Translator)(nil)
