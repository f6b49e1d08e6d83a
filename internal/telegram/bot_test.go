package telegram

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/analyzer"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/assembler"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/convlog"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/escalation"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/identity"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/responder"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/session"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []string
	failures int
	attempts int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return tgbotapi.Message{}, errors.New("telegram unreachable")
	}
	mc := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, mc.Text)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fixedAnalyzer struct{ a analyzer.Analysis }

func (f fixedAnalyzer) Analyze(_ context.Context, _ string, _ []memory.Entry) analyzer.Analysis {
	return f.a
}

type fixedResponder struct{ reply string }

func (f fixedResponder) Respond(_ context.Context, _ string, _ []memory.Entry, _ assembler.Context) string {
	return f.reply
}

type recordingNotifier struct {
	payloads []escalation.Payload
	err      error
}

func (n *recordingNotifier) SendEscalation(_ context.Context, p escalation.Payload) error {
	n.payloads = append(n.payloads, p)
	return n.err
}

type recordingSink struct {
	rows [][]any
}

func (s *recordingSink) AppendRow(_ context.Context, _ string, row []any) error {
	s.rows = append(s.rows, row)
	return nil
}

func newTestBot(t *testing.T, a analyzer.Analysis, reply string) (*Bot, *fakeSender, *recordingNotifier, *recordingSink) {
	t.Helper()
	store, err := memory.Open(filepath.Join(t.TempDir(), "mem.db"), 20)
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	fs := &fakeSender{}
	notifier := &recordingNotifier{}
	sink := &recordingSink{}
	b := newWithSender(fs, Deps{
		Sessions:  session.NewManager(session.NewMemoryStore(), time.Hour),
		Memory:    store,
		Analyzer:  fixedAnalyzer{a: a},
		Assembler: assembler.New(nil, nil, nil),
		Responder: fixedResponder{reply: reply},
		Gate:      escalation.NewGate(notifier),
		Logger:    convlog.NewLogger(sink),
	})
	b.retryBackoff = 0
	b.typingTick = time.Minute
	return b, fs, notifier, sink
}

func userMsg(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42, FirstName: "Ada", LastName: "Perez", UserName: "ada"},
		Chat: &tgbotapi.Chat{ID: 100},
		Text: text,
	}
}

func commandMsg(text string) *tgbotapi.Message {
	m := userMsg(text)
	m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	return m
}

func TestHandleMessagePersistsBothTurns(t *testing.T) {
	a := analyzer.Analysis{Intent: analyzer.IntentPricing, Entities: map[string][]string{}, Sentiment: analyzer.SentimentNeutral}
	b, fs, notifier, sink := newTestBot(t, a, "Our pricing starts at...")

	b.dispatch(context.Background(), userMsg("how much is math tutoring"))

	got := fs.texts()
	if len(got) != 1 || got[0] != "Our pricing starts at..." {
		t.Fatalf("unexpected sends: %+v", got)
	}
	if len(notifier.payloads) != 0 {
		t.Fatalf("no escalation expected")
	}
	if len(sink.rows) != 0 {
		t.Fatalf("non-terminal conversation must not be logged")
	}

	key := identity.FromTelegramID(42)
	history, err := b.deps.Memory.Recent(context.Background(), key, 20)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(history) != 2 || history[0].Role != memory.RoleUser || history[1].Role != memory.RoleAssistant {
		t.Fatalf("history not persisted in order: %+v", history)
	}
	if !b.deps.Sessions.IsActive(42) {
		t.Fatalf("session should be live after first message")
	}
}

func TestEscalationNotifiesAndEndsConversation(t *testing.T) {
	a := analyzer.Analysis{
		Intent:             analyzer.IntentGeneralInquiry,
		Entities:           map[string][]string{},
		Sentiment:          analyzer.SentimentNegative,
		EscalationRequired: true,
	}
	b, fs, notifier, sink := newTestBot(t, a, "I understand your concern.")

	b.dispatch(context.Background(), userMsg("I need to speak to a human, this is urgent"))

	got := fs.texts()
	if len(got) != 2 {
		t.Fatalf("want reply plus acknowledgement, got %+v", got)
	}
	if got[1] != escalation.Acknowledgement {
		t.Fatalf("second send must be the acknowledgement, got %q", got[1])
	}

	if len(notifier.payloads) != 1 {
		t.Fatalf("support team not notified")
	}
	p := notifier.payloads[0]
	if p.ParentName != "Ada Perez" || p.UserID != 42 || len(p.History) != 2 {
		t.Fatalf("payload incomplete: %+v", p)
	}

	if len(sink.rows) != 1 {
		t.Fatalf("escalated conversation must be logged")
	}
	key := identity.FromTelegramID(42)
	history, _ := b.deps.Memory.Recent(context.Background(), key, 20)
	if len(history) != 0 {
		t.Fatalf("history must be cleared after logging, got %+v", history)
	}
}

func TestScheduleCompleteLogsTaskCompleted(t *testing.T) {
	a := analyzer.Analysis{Intent: analyzer.IntentScheduleComplete, Entities: map[string][]string{}, Sentiment: analyzer.SentimentPositive}
	b, _, _, sink := newTestBot(t, a, "You're all set!")

	b.dispatch(context.Background(), userMsg("great, thanks, that works"))

	if len(sink.rows) != 1 {
		t.Fatalf("completed schedule must be logged")
	}
	row := sink.rows[0]
	if row[len(row)-1] != "Yes" {
		t.Fatalf("task completed column must be Yes, got %v", row)
	}
}

func TestSendRetriesTransientFailure(t *testing.T) {
	a := analyzer.Analysis{Intent: analyzer.IntentGeneralInquiry, Entities: map[string][]string{}}
	b, fs, _, _ := newTestBot(t, a, "hello")
	fs.failures = 2

	if err := b.send(100, "hello"); err != nil {
		t.Fatalf("send should succeed within the retry budget: %v", err)
	}
	if fs.attempts != 3 {
		t.Fatalf("want 3 attempts, got %d", fs.attempts)
	}
	if got := fs.texts(); len(got) != 1 || got[0] != "hello" {
		t.Fatalf("message not delivered after retries: %+v", got)
	}
}

func TestExhaustedRetriesReportFailureToUser(t *testing.T) {
	a := analyzer.Analysis{Intent: analyzer.IntentGeneralInquiry, Entities: map[string][]string{}}
	b, fs, _, _ := newTestBot(t, a, "the real reply")
	fs.failures = 3

	b.dispatch(context.Background(), userMsg("hello"))

	// 3 failed reply attempts, then the single failure report.
	if fs.attempts != 4 {
		t.Fatalf("want 3 reply attempts plus 1 failure report, got %d", fs.attempts)
	}
	got := fs.texts()
	if len(got) != 1 || got[0] != responder.Apology {
		t.Fatalf("user must be told delivery failed, got %+v", got)
	}
}

func TestSendReturnsErrorWhenRetriesExhausted(t *testing.T) {
	a := analyzer.Analysis{Intent: analyzer.IntentGeneralInquiry, Entities: map[string][]string{}}
	b, fs, _, _ := newTestBot(t, a, "")
	fs.failures = 3

	if err := b.send(100, "hello"); err == nil {
		t.Fatalf("exhausted retries must surface an error")
	}
	if fs.attempts != 3 {
		t.Fatalf("want exactly 3 attempts, got %d", fs.attempts)
	}
}

func TestEscalationNotifierFailureStillAcknowledges(t *testing.T) {
	a := analyzer.Analysis{
		Intent:             analyzer.IntentGeneralInquiry,
		Entities:           map[string][]string{},
		EscalationRequired: true,
	}
	b, fs, notifier, sink := newTestBot(t, a, "I understand.")
	notifier.err = errors.New("smtp down")

	b.dispatch(context.Background(), userMsg("I need a human now"))

	got := fs.texts()
	if len(got) != 2 || got[1] != escalation.Acknowledgement {
		t.Fatalf("acknowledgement must be sent even when notification fails: %+v", got)
	}
	if len(sink.rows) != 1 {
		t.Fatalf("conversation must still be logged")
	}
}

func TestStartCommandCreatesSessionAndDefaults(t *testing.T) {
	a := analyzer.Analysis{Intent: analyzer.IntentGeneralInquiry, Entities: map[string][]string{}}
	b, fs, _, _ := newTestBot(t, a, "")

	b.dispatch(context.Background(), commandMsg("/start"))

	if got := fs.texts(); len(got) != 1 || got[0] != welcomeMessage {
		t.Fatalf("welcome not sent: %+v", got)
	}
	if !b.deps.Sessions.IsActive(42) {
		t.Fatalf("session not created")
	}

	key := identity.FromTelegramID(42)
	prefs, ok, err := b.deps.Memory.Preferences(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("default preferences missing: %v", err)
	}
	if prefs[memory.PrefName] != "Ada Perez" || prefs[memory.PrefLanguage] != "en" {
		t.Fatalf("unexpected defaults: %+v", prefs)
	}
}

func TestStartCommandKeepsExistingPreferences(t *testing.T) {
	a := analyzer.Analysis{Intent: analyzer.IntentGeneralInquiry, Entities: map[string][]string{}}
	b, _, _, _ := newTestBot(t, a, "")
	key := identity.FromTelegramID(42)
	if err := b.deps.Memory.SavePreferences(context.Background(), key, memory.Preferences{memory.PrefLanguage: "fr"}); err != nil {
		t.Fatalf("seed prefs: %v", err)
	}

	b.dispatch(context.Background(), commandMsg("/start"))

	prefs, _, _ := b.deps.Memory.Preferences(context.Background(), key)
	if prefs[memory.PrefLanguage] != "fr" {
		t.Fatalf("existing preferences must not be overwritten: %+v", prefs)
	}
}

func TestEndCommandLogsAndClears(t *testing.T) {
	a := analyzer.Analysis{Intent: analyzer.IntentGeneralInquiry, Entities: map[string][]string{}}
	b, fs, _, sink := newTestBot(t, a, "sure")
	key := identity.FromTelegramID(42)

	b.dispatch(context.Background(), userMsg("tell me about your programs"))
	b.dispatch(context.Background(), commandMsg("/end"))

	if len(sink.rows) != 1 {
		t.Fatalf("conversation must be logged on /end")
	}
	history, _ := b.deps.Memory.Recent(context.Background(), key, 20)
	if len(history) != 0 {
		t.Fatalf("history must be cleared on /end")
	}
	if b.deps.Sessions.IsActive(42) {
		t.Fatalf("session must be ended")
	}
	got := fs.texts()
	if got[len(got)-1] != goodbyeMessage {
		t.Fatalf("goodbye not sent: %+v", got)
	}
}
