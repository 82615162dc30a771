package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sekharnc/multi-agent-sk/types"
)

func TestSummarizer(t *testing.T) {
	t.Run("summarize returns the model summary", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("Completion", mock.Anything, mock.Anything).
			Return(textResponse("short summary"), nil)

		s := NewSummarizer(provider, SummarizerConfig{}, nil)
		got, err := s.Summarize(context.Background(), "a very long reply")
		require.NoError(t, err)
		assert.Equal(t, "short summary", got)
	})

	t.Run("summarize rejects empty input", func(t *testing.T) {
		s := NewSummarizer(new(MockProvider), SummarizerConfig{}, nil)
		_, err := s.Summarize(context.Background(), "  ")
		require.Error(t, err)
		assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
	})

	t.Run("condense passes short replies through", func(t *testing.T) {
		provider := new(MockProvider)
		s := NewSummarizer(provider, SummarizerConfig{Threshold: 100}, nil)

		got := s.Condense(context.Background(), "short reply")
		assert.Equal(t, "short reply", got)
		provider.AssertNotCalled(t, "Completion", mock.Anything, mock.Anything)
	})

	t.Run("condense summarizes long replies", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("Completion", mock.Anything, mock.Anything).
			Return(textResponse("condensed"), nil)

		s := NewSummarizer(provider, SummarizerConfig{Threshold: 10}, nil)
		got := s.Condense(context.Background(), strings.Repeat("x", 50))
		assert.Equal(t, "condensed", got)
	})

	t.Run("condense keeps the original on failure", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("Completion", mock.Anything, mock.Anything).
			Return(nil, errors.New("upstream down"))

		s := NewSummarizer(provider, SummarizerConfig{Threshold: 10}, nil)
		long := strings.Repeat("x", 50)
		got := s.Condense(context.Background(), long)
		assert.Equal(t, long, got)
	})
}
