// Package escalation decides when a conversation is handed to a human and
// performs the notification side effect.
package escalation

import (
	"context"
	"fmt"
	"log"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/analyzer"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

// Acknowledgement is always sent to the parent the moment escalation
// triggers, independent of whether the downstream notification lands.
const Acknowledgement = "I'll connect you with our support team who will assist you shortly."

// State tracks the per-message escalation progression.
type State int

const (
	StateNormal State = iota
	StateEscalating
	StateNotified
)

// Payload carries everything the human team needs to pick up the thread.
type Payload struct {
	ParentName  string
	Username    string
	UserID      int64
	LastMessage string
	Analysis    analyzer.Analysis
	History     []memory.Entry
}

// Notifier delivers the payload to the human channel.
type Notifier interface {
	SendEscalation(ctx context.Context, p Payload) error
}

type Gate struct {
	notifier Notifier
}

func NewGate(notifier Notifier) *Gate {
	return &Gate{notifier: notifier}
}

// Evaluate maps an analysis onto the gate's entry state.
func (g *Gate) Evaluate(a analyzer.Analysis) State {
	if a.EscalationRequired {
		return StateEscalating
	}
	return StateNormal
}

// Trigger hands the payload to the notifier and returns the acknowledgement
// text for the parent. Notification failure is logged, never surfaced: the
// parent has already been told their issue is being escalated, and delivery
// is best-effort.
func (g *Gate) Trigger(ctx context.Context, p Payload) (string, State) {
	if g.notifier == nil {
		log.Printf("escalation for user %d has no notifier configured", p.UserID)
		return Acknowledgement, StateEscalating
	}
	if err := g.notifier.SendEscalation(ctx, p); err != nil {
		log.Printf("failed to notify support team for user %d: %v", p.UserID, err)
		return Acknowledgement, StateEscalating
	}
	log.Printf("escalation for user %d handed to support team", p.UserID)
	return Acknowledgement, StateNotified
}

// ContextText renders the analysis snapshot included in the notification.
func ContextText(p Payload) string {
	return fmt.Sprintf(
		"Last Message: %s\n\nAnalysis:\n- Intent: %s\n- Entities: %v\n- Requires Escalation: %t",
		p.LastMessage, p.Analysis.Intent, p.Analysis.Entities, p.Analysis.EscalationRequired)
}
