package llm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sekharnc/multi-agent-sk/types"
)

// Tokenizer counts tokens for OpenAI-family models. Used to estimate
// usage when the upstream response omits it (common on streaming
// responses).
type Tokenizer struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// modelEncodings maps model names to their tiktoken encoding.
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// NewTokenizer creates a tokenizer for the given model. Unknown models
// fall back to cl100k_base.
func NewTokenizer(model string) *Tokenizer {
	encoding, ok := modelEncodings[model]
	if !ok {
		// Longest prefix wins so "gpt-4o-..." resolves to gpt-4o, not gpt-4.
		best := 0
		for prefix, e := range modelEncodings {
			if len(prefix) > best && strings.HasPrefix(model, prefix) {
				encoding = e
				best = len(prefix)
			}
		}
		ok = best > 0
	}
	if !ok {
		encoding = "cl100k_base"
	}
	return &Tokenizer{model: model, encoding: encoding}
}

// init lazily initializes the tiktoken encoding (may download data on
// first use).
func (t *Tokenizer) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// CountTokens returns the token count of text.
func (t *Tokenizer) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

// CountMessages estimates the token count of a conversation, including
// the per-message framing overhead used by OpenAI chat models.
func (t *Tokenizer) CountMessages(messages []types.ChatMessage) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}

	const perMessageOverhead = 4
	total := 3 // reply priming
	for _, msg := range messages {
		total += perMessageOverhead
		total += len(t.enc.Encode(msg.Content, nil, nil))
		total += len(t.enc.Encode(string(msg.Role), nil, nil))
		if msg.Name != "" {
			total += len(t.enc.Encode(msg.Name, nil, nil))
		}
	}
	return total, nil
}
