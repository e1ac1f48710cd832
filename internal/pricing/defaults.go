// Package pricing holds the built-in model price catalog and loads
// operator overrides.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/davidbz/tokenmeter/internal/domain"
)

// Prices are currency units per 1M tokens. Entries suffixed "-gf" are the
// marked-up resale variants of the same models.
//
//nolint:gochecknoglobals // Read-only seed table
var builtin = []struct {
	model         string
	input, output string
}{
	// OpenAI
	{"gpt-4o-mini", "0.1875", "0.75"},
	{"gpt-4o", "0", "0"},
	{"chatgpt-4o-latest", "10", "30"},
	{"o1-mini", "3", "15"},
	{"o1-preview", "15", "75"},

	// OpenAI resale
	{"gpt-4o-mini-gf", "0.1875", "0.75"},
	{"gpt-4o-gf", "1.08", "4.32"},
	{"chatgpt-4o-latest-gf", "36", "144"},

	// Anthropic
	{"claude-3-5-sonnet-20240620", "9", "45"},
	{"claude-3-5-sonnet-20241022", "9", "45"},
	{"claude-3-5-haiku-20241022", "3", "15"},

	// Anthropic resale
	{"claude-3-5-sonnet-20240620-gf", "21.6", "108"},
	{"claude-3-5-sonnet-20241022-gf", "21.6", "108"},
	{"claude-3-5-haiku-20241022-gf", "7.2", "36"},

	// Google
	{"gemini-1.5-flash-002", "0", "0"},
	{"gemini-1.5-pro-002", "0", "0"},
	{"gemini-1.5-flash-002-gf", "0.54", "2.16"},
	{"gemini-1.5-pro-002-gf", "9", "36"},

	// Others
	{"grok-beta", "0", "0"},
	{"meta-llama/llama-3.1-405b-instruct:free", "0", "0"},
	{"meta-llama/llama-3.2-90b-vision-instruct:free", "0", "0"},
	{"yi-lightning", "0", "0"},
	{"qwen-max-latest", "0", "0"},
	{"glm-4-plus", "0", "0"},
	{"stable-diffusion-35-large", "0", "0"},
	{"deepseek-chat", "1", "2"},
}

// Defaults returns a fresh copy of the built-in catalog.
func Defaults() []domain.PriceEntry {
	entries := make([]domain.PriceEntry, 0, len(builtin))
	for _, b := range builtin {
		entries = append(entries, domain.PriceEntry{
			Model:       b.model,
			InputPrice:  decimal.RequireFromString(b.input),
			OutputPrice: decimal.RequireFromString(b.output),
		})
	}
	return entries
}
