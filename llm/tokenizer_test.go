package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTokenizerEncodingSelection(t *testing.T) {
	tests := []struct {
		model    string
		encoding string
	}{
		{"gpt-4o", "o200k_base"},
		{"gpt-4o-mini", "o200k_base"},
		{"gpt-4", "cl100k_base"},
		{"gpt-3.5-turbo", "cl100k_base"},
		// Prefix match covers dated variants.
		{"gpt-4o-2024-08-06", "o200k_base"},
		{"gpt-3.5-turbo-0125", "cl100k_base"},
		// Unknown models fall back to cl100k_base.
		{"llama-3-70b", "cl100k_base"},
		{"", "cl100k_base"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			tok := NewTokenizer(tt.model)
			assert.Equal(t, tt.encoding, tok.encoding)
		})
	}
}
