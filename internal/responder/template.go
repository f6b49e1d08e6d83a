package responder

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/analyzer"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/assembler"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

var templates = map[string][]string{
	"greeting": {
		"Hello! I'm the TeachPro assistant. How can I help you today?",
		"Welcome to TeachPro! How may I assist you?",
		"Hi there! I'm here to help with your TeachPro questions.",
	},
	analyzer.IntentSchedule: {
		"I can help you schedule a session. What subject and grade level are you interested in?",
		"Let's find a suitable time for your tutoring session. What's your preferred subject?",
		"I'll help you book a session. Could you tell me which subject you're interested in?",
	},
	analyzer.IntentPricing: {
		"Our pricing varies by subject and grade level. Which program are you interested in?",
		"I'd be happy to provide pricing information. Could you specify the subject and grade level?",
		"Let me get the pricing details for you. What type of program are you looking for?",
	},
	analyzer.IntentProgramInfo: {
		"Our programs are designed to help students excel. What specific information would you like to know?",
		"I can provide detailed information about our programs. What aspects are you most interested in?",
		"Let me tell you about our programs. What would you like to know specifically?",
	},
	analyzer.IntentTeacherInfo: {
		"Our teachers are highly qualified professionals. What subject are you interested in?",
		"I can provide information about our teachers. Which subject area are you looking for?",
		"Let me tell you about our teaching staff. What subject are you interested in?",
	},
	"escalation": {
		"I understand you'd like to speak with a human representative. I'll connect you with our team right away.",
		"I'll escalate your request to our support team. They'll be in touch with you shortly.",
		"Let me connect you with our human support team. They'll be able to assist you better.",
	},
	"fallback": {
		"I'm not sure I understand. Could you please rephrase your question?",
		"I want to make sure I help you correctly. Could you provide more details?",
		"I'm having trouble understanding. Could you please clarify your question?",
	},
}

var entityLabels = []struct {
	kind  string
	label string
}{
	{analyzer.EntityDates, "Available dates"},
	{analyzer.EntityTimes, "Preferred times"},
	{analyzer.EntitySubjects, "Subjects"},
	{analyzer.EntityGrades, "Grade levels"},
}

// TemplateResponder picks a canned phrasing per intent and appends at most
// one supporting fact of each kind, in a fixed order. The random source is
// injected so tests can pin the selection.
type TemplateResponder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewTemplateResponder(rng *rand.Rand) *TemplateResponder {
	return &TemplateResponder{rng: rng}
}

func (r *TemplateResponder) Respond(_ context.Context, _ string, _ []memory.Entry, actx assembler.Context) string {
	if actx.EscalationRequired {
		return r.pick("escalation")
	}

	response := r.pick(actx.Intent)

	if len(actx.Documents) > 0 {
		response = response + "\n\n" + actx.Documents[0].Content
	}
	if len(actx.Availability) > 0 {
		rows := actx.Availability
		if len(rows) > 2 {
			rows = rows[:2]
		}
		var lines []string
		for _, row := range rows {
			lines = append(lines, strings.Join(row, " "))
		}
		response = response + "\n\nAdditional information:\n" + strings.Join(lines, "\n")
	}
	if recap := entityRecap(actx.Entities); recap != "" {
		response = response + "\n\nI noticed you mentioned: " + recap
	}
	return response
}

func (r *TemplateResponder) pick(intent string) string {
	set, ok := templates[intent]
	if !ok {
		set = templates["fallback"]
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return set[r.rng.Intn(len(set))]
}

// Greeting returns a randomized welcome phrasing.
func (r *TemplateResponder) Greeting() string {
	return r.pick("greeting")
}

func entityRecap(entities map[string][]string) string {
	var parts []string
	for _, el := range entityLabels {
		if vals := entities[el.kind]; len(vals) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", el.label, strings.Join(vals, ", ")))
		}
	}
	return strings.Join(parts, "; ")
}

// ScheduleConfirmation renders a fixed confirmation for a booked session.
func ScheduleConfirmation(subject, date, timeOfDay, teacher string) string {
	return fmt.Sprintf(`I've scheduled your session:

Subject: %s
Date: %s
Time: %s
Teacher: %s

You'll receive a confirmation email shortly. Is there anything else you'd like to know?`,
		orNotSpecified(subject), orNotSpecified(date), orNotSpecified(timeOfDay), orDefault(teacher, "To be assigned"))
}

func orNotSpecified(s string) string { return orDefault(s, "Not specified") }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
