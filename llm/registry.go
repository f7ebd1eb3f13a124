package llm

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/loomcode/loomcode/config"
	"github.com/loomcode/loomcode/descriptor"
	"github.com/loomcode/loomcode/providererr"
	"github.com/loomcode/loomcode/transport"
	"github.com/loomcode/loomcode/wire"
	"github.com/loomcode/loomcode/wire/anthropic"
	"github.com/loomcode/loomcode/wire/openai"
)

const defaultTimeoutMS = 60_000

// translatorConstructors is the registry keyed by adapterType. Adding a
// new wire family means adding one entry here and one wire/<family>
// package; it never touches Adapter itself.
var translatorConstructors = map[string]func(*descriptor.Descriptor) wire.Translator{
	"openai": func(d *descriptor.Descriptor) wire.Translator {
		return openai.New(d)
	},
	"anthropic": func(d *descriptor.Descriptor) wire.Translator {
		return anthropic.New(d)
	},
}

// MakeAdapter validates the registry key, loads the descriptor, resolves
// configuration, and wires it all into one Adapter. Two calls with an
// equal record yield equivalent instances - nothing here is cached or
// mutated across calls.
func MakeAdapter(loader *descriptor.Loader, record *config.UserProviderRecord, logger zerolog.Logger) (Generator, error) {
	newTranslator, ok := translatorConstructors[record.AdapterType]
	if !ok {
		return nil, &providererr.UnknownAdapterType{AdapterType: record.AdapterType}
	}

	d, err := loader.Load(record.AdapterType)
	if err != nil {
		return nil, err
	}

	translator := newTranslator(d)
	headers := config.ResolveHeaders(d, record, logger)
	timeoutMS := config.ResolveTimeout(record, defaultTimeoutMS)
	maxRetries := config.ResolveMaxRetries(record, 0)

	adapterLogger := logger.With().
		Str("provider", record.ID).
		Str("adapterType", record.AdapterType).
		Int("maxRetries", maxRetries).
		Logger()
	tr := transport.New(d, translator, record.BaseURL, headers, time.Duration(timeoutMS)*time.Millisecond, adapterLogger)

	return &Adapter{
		descriptor: d,
		record:     record,
		transport:  tr,
		logger:     adapterLogger,
	}, nil
}
