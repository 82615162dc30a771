package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/llm"
	"github.com/sekharnc/multi-agent-sk/types"
)

// SummarizerConfig tunes the reply summarizer.
type SummarizerConfig struct {
	// Model overrides the provider default model when non-empty.
	Model string `json:"model" yaml:"model"`

	// Threshold is the reply length in characters above which
	// summarization kicks in. Zero means DefaultSummarizeThreshold.
	Threshold int `json:"threshold" yaml:"threshold"`

	// MaxTokens caps the summary length.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// DefaultSummarizeThreshold is the reply length above which replies are
// summarized when no threshold is configured.
const DefaultSummarizeThreshold = 4000

const summarizerSystemMessage = "You are an assistant that summarizes the given text. " +
	"Produce a concise summary that preserves every concrete fact, number, and decision. " +
	"Do not answer questions or add information that is not in the text."

// Summarizer condenses long agent replies before they are stored and
// shown to the user.
type Summarizer struct {
	provider  llm.Provider
	model     string
	threshold int
	maxTokens int
	logger    *zap.Logger
}

// NewSummarizer builds a summarizer over the given provider.
func NewSummarizer(provider llm.Provider, cfg SummarizerConfig, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultSummarizeThreshold
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1200
	}
	return &Summarizer{
		provider:  provider,
		model:     cfg.Model,
		threshold: cfg.Threshold,
		maxTokens: cfg.MaxTokens,
		logger:    logger.With(zap.String("component", "summarizer")),
	}
}

// Threshold returns the length above which replies are summarized.
func (s *Summarizer) Threshold() int { return s.threshold }

// Summarize condenses text regardless of length.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", types.NewError(types.ErrInvalidRequest, "nothing to summarize")
	}

	resp, err := s.provider.Completion(ctx, &llm.ChatRequest{
		Model: s.model,
		Messages: []types.ChatMessage{
			types.NewSystemMessage(summarizerSystemMessage),
			types.NewUserMessage(text),
		},
		Temperature: 0.7,
		TopP:        0.95,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(resp.Text())
	if summary == "" {
		return "", types.NewError(types.ErrUpstreamError, "model returned an empty summary")
	}
	return summary, nil
}

// Condense returns a summary of text when it exceeds the threshold, and
// text unchanged otherwise. Summarization failures fall back to the
// original text; a long reply is better than a lost one.
func (s *Summarizer) Condense(ctx context.Context, text string) string {
	if len(text) <= s.threshold {
		return text
	}
	summary, err := s.Summarize(ctx, text)
	if err != nil {
		s.logger.Warn("summarization failed, keeping full reply",
			zap.Int("length", len(text)),
			zap.Error(err))
		return text
	}
	s.logger.Debug("reply summarized",
		zap.Int("original_length", len(text)),
		zap.Int("summary_length", len(summary)))
	return summary
}
