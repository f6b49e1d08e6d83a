package analyzer

import (
	"context"
	"strings"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

// KeywordOverride wraps another analyzer and forces the escalation flag when
// the raw message contains any of the configured keywords. A parent who types
// "speak to someone" gets escalated no matter what the model decides.
type KeywordOverride struct {
	inner    Analyzer
	keywords []string
}

func NewKeywordOverride(inner Analyzer, keywords []string) *KeywordOverride {
	return &KeywordOverride{inner: inner, keywords: keywords}
}

func (a *KeywordOverride) Analyze(ctx context.Context, message string, history []memory.Entry) Analysis {
	analysis := a.inner.Analyze(ctx, message, history)
	if !analysis.EscalationRequired && containsKeyword(message, a.keywords) {
		analysis.EscalationRequired = true
	}
	return analysis
}

func containsKeyword(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
