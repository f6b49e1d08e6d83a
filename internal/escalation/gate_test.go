package escalation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/analyzer"
)

type fakeNotifier struct {
	payloads []Payload
	err      error
}

func (f *fakeNotifier) SendEscalation(_ context.Context, p Payload) error {
	f.payloads = append(f.payloads, p)
	return f.err
}

func TestEvaluate(t *testing.T) {
	g := NewGate(nil)
	if got := g.Evaluate(analyzer.Analysis{EscalationRequired: true}); got != StateEscalating {
		t.Fatalf("want escalating, got %v", got)
	}
	if got := g.Evaluate(analyzer.Analysis{}); got != StateNormal {
		t.Fatalf("want normal, got %v", got)
	}
}

func TestTriggerNotifiesAndAcknowledges(t *testing.T) {
	n := &fakeNotifier{}
	g := NewGate(n)

	p := Payload{
		ParentName:  "Jordan Lee",
		UserID:      42,
		LastMessage: "I need to speak to a human agent urgently",
		Analysis:    analyzer.Analysis{Intent: analyzer.IntentGeneralInquiry, EscalationRequired: true},
	}
	ack, state := g.Trigger(context.Background(), p)
	if ack != Acknowledgement {
		t.Fatalf("unexpected acknowledgement: %q", ack)
	}
	if state != StateNotified {
		t.Fatalf("want notified, got %v", state)
	}
	if len(n.payloads) != 1 {
		t.Fatalf("notifier not called")
	}
	if n.payloads[0].LastMessage != p.LastMessage {
		t.Fatalf("payload must carry the verbatim message, got %q", n.payloads[0].LastMessage)
	}
}

func TestTriggerAcknowledgesDespiteNotifierFailure(t *testing.T) {
	g := NewGate(&fakeNotifier{err: errors.New("smtp down")})

	ack, state := g.Trigger(context.Background(), Payload{UserID: 42})
	if ack != Acknowledgement {
		t.Fatalf("acknowledgement must not depend on delivery, got %q", ack)
	}
	if state == StateNotified {
		t.Fatalf("failed delivery must not report notified")
	}
}

func TestContextTextIncludesMessage(t *testing.T) {
	txt := ContextText(Payload{
		LastMessage: "please call me",
		Analysis:    analyzer.Analysis{Intent: analyzer.IntentSchedule, EscalationRequired: true},
	})
	if !strings.Contains(txt, "please call me") || !strings.Contains(txt, analyzer.IntentSchedule) {
		t.Fatalf("context text incomplete: %q", txt)
	}
}
