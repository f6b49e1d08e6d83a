// Package telegram is the front-end: it receives updates, serializes them
// per user, and drives the analyze/assemble/respond pipeline.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
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

const welcomeMessage = "Hello! I'm your TeachPro assistant. I can help you with:\n" +
	"• Information about our tutoring services\n" +
	"• Scheduling sessions\n" +
	"• Answering questions about our programs\n" +
	"• Connecting you with our support team when needed\n\n" +
	"How can I help you today?"

const goodbyeMessage = "Thank you for chatting with TeachPro! Feel free to message me anytime you need help."

// The typing indicator Telegram shows expires after roughly five seconds, so
// it has to be refreshed while the pipeline runs.
const typingRefresh = 4 * time.Second

// Deps are the collaborators the bot drives. All of them are required except
// Logger, which may be nil when durable logging is disabled.
type Deps struct {
	Sessions  *session.Manager
	Memory    *memory.Store
	Analyzer  analyzer.Analyzer
	Assembler *assembler.Assembler
	Responder responder.Responder
	Gate      *escalation.Gate
	Logger    *convlog.Logger

	HistoryLimit int
}

type Bot struct {
	api *tgbotapi.BotAPI
	s   sender

	deps Deps

	sendRetries  int
	retryBackoff time.Duration
	typingTick   time.Duration

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func New(botToken string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := newWithSender(botAPISender{api: api}, deps)
	b.api = api
	return b, nil
}

func newWithSender(s sender, deps Deps) *Bot {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = memory.DefaultHistoryLimit
	}
	return &Bot{
		s:            s,
		deps:         deps,
		sendRetries:  3,
		retryBackoff: time.Second,
		typingTick:   typingRefresh,
		locks:        make(map[int64]*sync.Mutex),
	}
}

// Start runs long polling until ctx is cancelled. Messages from different
// users are handled concurrently; messages from the same user are serialized
// so history appends keep their order.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	var wg sync.WaitGroup
	for update := range updates {
		msg := update.Message
		if msg == nil || msg.From == nil || msg.Text == "" {
			continue
		}
		wg.Add(1)
		go func(m *tgbotapi.Message) {
			defer wg.Done()
			b.withUserLock(m.From.ID, func() { b.dispatch(ctx, m) })
		}(msg)
	}
	wg.Wait()
}

func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic handling message from %d: %v", msg.From.ID, r)
			b.sendBestEffort(msg.Chat.ID, responder.Apology)
		}
	}()

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleMessage(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "end":
		b.handleEnd(ctx, msg)
	default:
		b.sendBestEffort(msg.Chat.ID, "I don't recognize that command. Just send me a message and I'll do my best to help!")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	b.deps.Sessions.Create(userID)

	userKey := identity.FromTelegramID(userID)
	if _, ok, err := b.deps.Memory.Preferences(ctx, userKey); err != nil {
		log.Printf("failed to load preferences for %d: %v", userID, err)
	} else if !ok {
		prefs := memory.Preferences{
			memory.PrefName:          displayName(msg.From),
			memory.PrefUsername:      msg.From.UserName,
			memory.PrefLanguage:      "en",
			memory.PrefNotifications: true,
		}
		if err := b.deps.Memory.SavePreferences(ctx, userKey, prefs); err != nil {
			log.Printf("failed to save preferences for %d: %v", userID, err)
		}
	}

	b.sendBestEffort(msg.Chat.ID, welcomeMessage)
}

func (b *Bot) handleEnd(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	userKey := identity.FromTelegramID(userID)

	history, err := b.deps.Memory.Recent(ctx, userKey, b.deps.HistoryLimit)
	if err != nil {
		log.Printf("failed to read history for %d: %v", userID, err)
	}
	if len(history) > 0 {
		b.finishConversation(ctx, msg.From, history, false)
	}
	b.deps.Sessions.End(userID)
	b.sendBestEffort(msg.Chat.ID, goodbyeMessage)
}

func (b *Bot) withUserLock(userID int64, fn func()) {
	b.mu.Lock()
	lock, ok := b.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[userID] = lock
	}
	b.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	fn()
}

// send delivers text with bounded retries and returns the final error once
// the retries are exhausted. The caller decides how to surface it.
func (b *Bot) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	var lastErr error
	for attempt := 0; attempt < b.sendRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(b.retryBackoff)
		}
		if _, lastErr = b.s.Send(msg); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("send to chat %d failed after %d attempts: %w", chatID, b.sendRetries, lastErr)
}

// sendBestEffort is for side messages (welcome, goodbye, acknowledgements)
// where a delivery failure has no further recourse beyond the log.
func (b *Bot) sendBestEffort(chatID int64, text string) {
	if err := b.send(chatID, text); err != nil {
		log.Printf("failed to deliver message: %v", err)
	}
}

// reportSendFailure tells the user their reply could not be delivered. One
// attempt only: retrying already failed, and a second retry loop on the same
// transport would just double the delay.
func (b *Bot) reportSendFailure(chatID int64) {
	if _, err := b.s.Send(tgbotapi.NewMessage(chatID, responder.Apology)); err != nil {
		log.Printf("failed to report delivery failure to chat %d: %v", chatID, err)
	}
}

// startTyping keeps the typing indicator alive until the returned stop
// function is called. Stop is safe to call more than once.
func (b *Bot) startTyping(chatID int64) func() {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(b.typingTick)
		defer ticker.Stop()
		b.sendTyping(chatID)
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				b.sendTyping(chatID)
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

func (b *Bot) sendTyping(chatID int64) {
	if _, err := b.s.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("failed to send typing indicator to chat %d: %v", chatID, err)
	}
}

func displayName(u *tgbotapi.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
