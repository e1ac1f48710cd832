package pricing

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/davidbz/tokenmeter/internal/domain"
	"github.com/davidbz/tokenmeter/internal/observability"
)

// File is the layout of a catalog override file:
//
//	models:
//	  - name: gpt-4o
//	    input: "2.5"
//	    output: "10"
type File struct {
	Models []FileEntry `yaml:"models"`
}

// FileEntry is one priced model. Prices are strings to keep them exact.
type FileEntry struct {
	Name   string `yaml:"name"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// LoadFile reads and validates the override file at path.
func LoadFile(path string) ([]domain.PriceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var file File
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}

	entries := make([]domain.PriceEntry, 0, len(file.Models))
	for i, m := range file.Models {
		entry, err := m.entry()
		if err != nil {
			return nil, fmt.Errorf("models[%d]: %w", i, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (f FileEntry) entry() (domain.PriceEntry, error) {
	input, err := decimal.NewFromString(f.Input)
	if err != nil {
		return domain.PriceEntry{}, fmt.Errorf("%w: input price of %q: %w", domain.ErrInvalidPrice, f.Name, err)
	}

	output, err := decimal.NewFromString(f.Output)
	if err != nil {
		return domain.PriceEntry{}, fmt.Errorf("%w: output price of %q: %w", domain.ErrInvalidPrice, f.Name, err)
	}

	entry := domain.PriceEntry{Model: f.Name, InputPrice: input, OutputPrice: output}
	if err := entry.Validate(); err != nil {
		return domain.PriceEntry{}, err
	}

	return entry, nil
}

// Seed loads the stored catalog into c and upserts the built-in entries,
// followed by the entries of overridePath when it is set.
func Seed(ctx context.Context, c *domain.PriceCatalog, overridePath string) error {
	if err := c.Refresh(ctx); err != nil {
		return err
	}

	entries := Defaults()
	if overridePath != "" {
		overrides, err := LoadFile(overridePath)
		if err != nil {
			return err
		}
		entries = append(entries, overrides...)
	}

	if err := c.Seed(ctx, entries); err != nil {
		return err
	}

	observability.FromContext(ctx).Info("price catalog seeded",
		zap.Int("entries", len(entries)),
		zap.String("override_file", overridePath),
	)

	return nil
}
