// Package adapters embeds the descriptor files this repository ships, so
// the binary works even when no adapters/ directory is installed alongside
// it. The descriptor package treats this as the last-resort search
// location, after any filesystem-relative overrides.
package adapters

import "embed"

//go:embed openai/config.json anthropic/config.json
var Shipped embed.FS
