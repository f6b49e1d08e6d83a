// Package analyzer turns a free-text parent message into a structured
// analysis: intent, extracted entities, sentiment and an escalation flag.
package analyzer

import (
	"context"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

// Intent labels form a closed but extensible set.
const (
	IntentSchedule         = "schedule"
	IntentPricing          = "pricing"
	IntentProgramInfo      = "program_info"
	IntentTeacherInfo      = "teacher_info"
	IntentGeneralInquiry   = "general_inquiry"
	IntentScheduleComplete = "schedule_complete"
	IntentEndConversation  = "end_conversation"
	IntentUnknown          = "unknown"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Entity kinds used as Analysis.Entities keys.
const (
	EntityDates    = "dates"
	EntityTimes    = "times"
	EntitySubjects = "subjects"
	EntityGrades   = "grades"
)

// Analysis is derived per inbound message and consumed immediately by the
// context assembler and responder; it is never persisted.
type Analysis struct {
	Intent             string              `json:"intent"`
	Entities           map[string][]string `json:"entities"`
	Sentiment          string              `json:"sentiment"`
	EscalationRequired bool                `json:"escalation_required"`
}

// Analyzer is the shared contract for the rule-based and LLM-backed variants.
// Implementations never surface analysis failures: they return FailSafe()
// instead, which forces escalation rather than silently guessing.
type Analyzer interface {
	Analyze(ctx context.Context, message string, history []memory.Entry) Analysis
}

// FailSafe is the analysis returned when classification fails outright.
func FailSafe() Analysis {
	return Analysis{
		Intent:             IntentUnknown,
		Entities:           map[string][]string{},
		Sentiment:          SentimentNeutral,
		EscalationRequired: true,
	}
}

// Terminal reports whether the analysis ends the conversation, triggering
// durable logging and a history clear.
func Terminal(a Analysis) bool {
	return a.Intent == IntentScheduleComplete || a.Intent == IntentEndConversation || a.EscalationRequired
}
