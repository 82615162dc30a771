// Package router classifies incoming requests to an agent role. Routing
// is hybrid: an explicit hint from the caller always wins; otherwise a
// keyword classifier scores the request text, and a request that matches
// no role is marked unknown so callers can fall back to the generic
// agent.
package router

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/types"
)

// Method records how a routing decision was made.
type Method string

const (
	MethodHint     Method = "hint"
	MethodKeyword  Method = "keyword"
	MethodFallback Method = "fallback"
)

// Decision is the result of routing one request.
type Decision struct {
	Agent      types.AgentType `json:"agent"`
	Method     Method          `json:"method"`
	Confidence float64         `json:"confidence"`
	Matched    []string        `json:"matched,omitempty"`
}

// Rule maps keywords to one role. A request scores one point per
// matched keyword; the highest-scoring role wins.
type Rule struct {
	Agent    types.AgentType
	Keywords []string
}

// DefaultRules covers the built-in role set.
func DefaultRules() []Rule {
	return []Rule{
		{
			Agent: types.AgentHR,
			Keywords: []string{
				"hr", "onboard", "onboarding", "offboard", "offboarding",
				"employee", "hire", "hiring", "benefits", "leave", "vacation",
				"payroll", "salary", "timesheet", "performance review",
			},
		},
		{
			Agent: types.AgentProcurement,
			Keywords: []string{
				"procure", "procurement", "purchase", "buy", "order",
				"vendor", "supplier", "invoice", "quote", "requisition",
				"asset", "equipment",
			},
		},
		{
			Agent: types.AgentTech,
			Keywords: []string{
				"tech", "technical", "laptop", "computer", "software",
				"install", "password", "account", "login", "access", "network",
				"vpn", "email setup", "server", "bug", "error",
			},
		},
	}
}

// Router classifies request text to an agent role.
type Router struct {
	rules  []Rule
	logger *zap.Logger
}

// New builds a router. A nil rules slice uses DefaultRules.
func New(rules []Rule, logger *zap.Logger) *Router {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		rules:  rules,
		logger: logger.With(zap.String("component", "router")),
	}
}

// Route decides which role should handle a request. hint is the
// caller's explicit routing hint, empty when absent.
func (r *Router) Route(hint, input string) Decision {
	if hint != "" {
		if t, ok := types.ParseAgentType(hint); ok && t.Invokable() {
			return Decision{Agent: t, Method: MethodHint, Confidence: 1.0}
		}
		r.logger.Debug("ignoring unusable routing hint", zap.String("hint", hint))
	}

	if d, ok := r.classify(input); ok {
		return d
	}
	return Decision{Agent: types.AgentUnknown, Method: MethodFallback}
}

// classify scores input against every rule and returns the best match.
// Ties are broken by rule order.
func (r *Router) classify(input string) (Decision, bool) {
	text := " " + strings.ToLower(input) + " "

	best := Decision{}
	bestScore := 0
	for _, rule := range r.rules {
		var matched []string
		for _, kw := range rule.Keywords {
			if containsWord(text, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > bestScore {
			bestScore = len(matched)
			sort.Strings(matched)
			best = Decision{
				Agent:      rule.Agent,
				Method:     MethodKeyword,
				Confidence: confidence(len(matched)),
				Matched:    matched,
			}
		}
	}
	if bestScore == 0 {
		return Decision{}, false
	}
	return best, true
}

// containsWord reports whether text contains kw on word boundaries.
// Multi-word keywords match as a phrase. text must be lowercase and
// padded with spaces.
func containsWord(text, kw string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], kw)
		if i < 0 {
			return false
		}
		i += idx
		if i > 0 && i+len(kw) < len(text) &&
			!isWordByte(text[i-1]) && !isWordByte(text[i+len(kw)]) {
			return true
		}
		idx = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

func confidence(matches int) float64 {
	c := 0.5 + 0.1*float64(matches)
	if c > 0.9 {
		c = 0.9
	}
	return c
}
