package responder

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/assembler"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/knowledge"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/llm"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

// LLMResponder builds a bounded prompt (persona, recent history window,
// structured context) and asks the model for a reply. Any failure returns
// the fixed apology instead of an error.
type LLMResponder struct {
	client  llm.Client
	persona string
	window  int
}

func NewLLMResponder(client llm.Client, persona string, window int) *LLMResponder {
	if window <= 0 {
		window = 5
	}
	return &LLMResponder{client: client, persona: persona, window: window}
}

func (r *LLMResponder) Respond(ctx context.Context, message string, history []memory.Entry, actx assembler.Context) string {
	msgs := []llm.Message{{Role: "system", Content: r.persona}}
	start := len(history) - r.window
	if start < 0 {
		start = 0
	}
	for _, e := range history[start:] {
		msgs = append(msgs, llm.Message{Role: e.Role, Content: e.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: buildPrompt(message, actx)})

	resp, err := r.client.Generate(ctx, msgs)
	if err != nil {
		log.Printf("response generation failed: %v", err)
		return Apology
	}
	if strings.TrimSpace(resp.Content) == "" {
		return Apology
	}
	return resp.Content
}

func buildPrompt(message string, actx assembler.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message: %s\n\nContext:\n", message)
	fmt.Fprintf(&b, "- Intent: %s\n", orUnknown(actx.Intent))
	fmt.Fprintf(&b, "- Entities: %s\n", renderEntities(actx.Entities))
	fmt.Fprintf(&b, "- Documentation: %s\n", renderDocs(actx.Documents))
	fmt.Fprintf(&b, "- Records: %s\n", renderRows(actx.Records))
	fmt.Fprintf(&b, "- Availability: %s\n", renderAvailability(actx))
	fmt.Fprintf(&b, "- Escalation Required: %t\n", actx.EscalationRequired)
	b.WriteString("\nPlease provide a helpful response based on the above information.")
	return b.String()
}

func renderEntities(entities map[string][]string) string {
	var parts []string
	for _, el := range entityLabels {
		if vals := entities[el.kind]; len(vals) > 0 {
			parts = append(parts, fmt.Sprintf("%s=%s", el.kind, strings.Join(vals, ",")))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "; ")
}

func renderDocs(docs []knowledge.Document) string {
	if len(docs) == 0 {
		return "none"
	}
	return knowledge.RelevantContext(docs)
}

func renderRows(rows [][]string) string {
	if len(rows) == 0 {
		return "none"
	}
	var parts []string
	for _, row := range rows {
		parts = append(parts, strings.Join(row, " "))
	}
	return strings.Join(parts, "; ")
}

func renderAvailability(actx assembler.Context) string {
	var parts []string
	for _, row := range actx.Availability {
		parts = append(parts, strings.Join(row, " "))
	}
	for _, slot := range actx.Slots {
		parts = append(parts, fmt.Sprintf("%s - %s", slot.Start.Format("Mon Jan 2 15:04"), slot.End.Format("15:04")))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "; ")
}

// ConfirmSchedule asks the model for a warm confirmation message; the fixed
// template text is the fallback.
func (r *LLMResponder) ConfirmSchedule(ctx context.Context, subject, date, timeOfDay, teacher string) string {
	prompt := fmt.Sprintf(
		"Generate a friendly and professional confirmation message for a scheduled tutoring session with these details:\n- Subject: %s\n- Date: %s\n- Time: %s\n- Tutor: %s\n\nThe message should be warm and professional, confirming all details.",
		subject, date, timeOfDay, teacher)
	resp, err := r.client.Generate(ctx, []llm.Message{
		{Role: "system", Content: r.persona},
		{Role: "user", Content: prompt},
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		return ScheduleConfirmation(subject, date, timeOfDay, teacher)
	}
	return resp.Content
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
