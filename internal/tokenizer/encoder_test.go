package tokenizer //nolint:testpackage // Swaps the unexported loader

import (
	"errors"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/require"
)

func TestEncoderNames(t *testing.T) {
	require.Equal(t, "o200k_base", NewWideEncoder().Name())
	require.Equal(t, "cl100k_base", NewLegacyEncoder().Name())
}

func TestEncoder_LoadFailureIsNotCached(t *testing.T) {
	calls := 0
	enc := NewEncoder(LegacyEncoding)
	enc.load = func(name string) (*tiktoken.Tiktoken, error) {
		calls++
		require.Equal(t, LegacyEncoding, name)
		return nil, errors.New("network unreachable")
	}

	_, err := enc.Count("hello")
	require.ErrorContains(t, err, "cl100k_base")

	require.Error(t, enc.Warm())
	require.Equal(t, 2, calls)
}
