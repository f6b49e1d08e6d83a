// Package responder produces the outward-facing reply from the analysis,
// assembled context and conversation history. The template and LLM variants
// are interchangeable at this boundary.
package responder

import (
	"context"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/assembler"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

// Apology is the fixed fallback when generation fails. Users never see raw
// errors.
const Apology = "I apologize, but I'm having trouble processing your request right now. Please try again later."

type Responder interface {
	Respond(ctx context.Context, message string, history []memory.Entry, actx assembler.Context) string
}
