// Package tokenizer provides tiktoken-backed encoders for token counting.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Encoding names.
const (
	// WideEncoding serves the o1 and 4o model families.
	WideEncoding = "o200k_base"

	// LegacyEncoding serves every other model.
	LegacyEncoding = "cl100k_base"
)

// loadFunc resolves an encoding by name.
type loadFunc func(name string) (*tiktoken.Tiktoken, error)

// Encoder counts tokens with one tiktoken encoding. The BPE ranks are
// loaded on first use and kept for the lifetime of the encoder.
type Encoder struct {
	name string
	load loadFunc

	mu  sync.RWMutex
	enc *tiktoken.Tiktoken
}

// NewEncoder creates an encoder for the named tiktoken encoding.
func NewEncoder(name string) *Encoder {
	return &Encoder{
		name: name,
		load: tiktoken.GetEncoding,
	}
}

// NewWideEncoder returns the o200k_base encoder.
func NewWideEncoder() *Encoder {
	return NewEncoder(WideEncoding)
}

// NewLegacyEncoder returns the cl100k_base encoder.
func NewLegacyEncoder() *Encoder {
	return NewEncoder(LegacyEncoding)
}

// Name returns the encoding name.
func (e *Encoder) Name() string {
	return e.name
}

// Count returns the number of tokens in text.
func (e *Encoder) Count(text string) (int, error) {
	enc, err := e.encoding()
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// Warm loads the encoding ahead of the first request.
func (e *Encoder) Warm() error {
	_, err := e.encoding()
	return err
}

func (e *Encoder) encoding() (*tiktoken.Tiktoken, error) {
	e.mu.RLock()
	enc := e.enc
	e.mu.RUnlock()
	if enc != nil {
		return enc, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if e.enc != nil {
		return e.enc, nil
	}

	enc, err := e.load(e.name)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", e.name, err)
	}
	e.enc = enc

	return enc, nil
}
