package telegram

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/analyzer"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/escalation"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/identity"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

// handleMessage runs the full pipeline for one inbound text message:
// session upkeep, history append, analysis, context assembly, response,
// delivery, then escalation and end-of-conversation side effects.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := msg.Text
	userKey := identity.FromTelegramID(userID)

	if b.deps.Sessions.IsActive(userID) {
		b.deps.Sessions.Touch(userID)
	} else {
		b.deps.Sessions.Create(userID)
	}

	stopTyping := b.startTyping(chatID)
	defer stopTyping()

	if err := b.deps.Memory.Append(ctx, userKey, memory.Entry{Role: memory.RoleUser, Content: text}); err != nil {
		log.Printf("failed to append user message for %d: %v", userID, err)
	}

	history, err := b.deps.Memory.Recent(ctx, userKey, b.deps.HistoryLimit)
	if err != nil {
		log.Printf("failed to read history for %d: %v", userID, err)
	}

	analysis := b.deps.Analyzer.Analyze(ctx, text, history)

	prefs, _, err := b.deps.Memory.Preferences(ctx, userKey)
	if err != nil {
		log.Printf("failed to load preferences for %d: %v", userID, err)
	}

	actx := b.deps.Assembler.Assemble(ctx, analysis, text, prefs)
	reply := b.deps.Responder.Respond(ctx, text, history, actx)

	if err := b.deps.Memory.Append(ctx, userKey, memory.Entry{Role: memory.RoleAssistant, Content: reply}); err != nil {
		log.Printf("failed to append assistant message for %d: %v", userID, err)
	}

	stopTyping()
	if err := b.send(chatID, reply); err != nil {
		log.Printf("reply delivery failed for user %d: %v", userID, err)
		b.reportSendFailure(chatID)
	}

	if b.deps.Gate.Evaluate(analysis) == escalation.StateEscalating {
		full := b.fullHistory(ctx, userKey, history)
		ack, state := b.deps.Gate.Trigger(ctx, escalation.Payload{
			ParentName:  displayName(msg.From),
			Username:    msg.From.UserName,
			UserID:      userID,
			LastMessage: text,
			Analysis:    analysis,
			History:     full,
		})
		if state != escalation.StateNotified {
			log.Printf("escalation for user %d needs manual follow-up", userID)
		}
		b.sendBestEffort(chatID, ack)
	}

	if analyzer.Terminal(analysis) {
		full := b.fullHistory(ctx, userKey, history)
		b.finishConversation(ctx, msg.From, full, analysis.Intent == analyzer.IntentScheduleComplete)
	}
}

// finishConversation logs the transcript durably, then clears the working
// history. Logging failure keeps the history so the next terminal message
// retries with the full transcript.
func (b *Bot) finishConversation(ctx context.Context, from *tgbotapi.User, history []memory.Entry, taskCompleted bool) {
	userKey := identity.FromTelegramID(from.ID)

	if b.deps.Logger != nil {
		if err := b.deps.Logger.Log(ctx, displayName(from), history, taskCompleted); err != nil {
			log.Printf("failed to log conversation for %d: %v", from.ID, err)
			return
		}
	}
	if err := b.deps.Memory.Clear(ctx, userKey); err != nil {
		log.Printf("failed to clear history for %d: %v", from.ID, err)
	}
}

// fullHistory re-reads the transcript so it includes the entries appended
// during this turn; the passed slice is the fallback when the read fails.
func (b *Bot) fullHistory(ctx context.Context, userKey string, fallback []memory.Entry) []memory.Entry {
	full, err := b.deps.Memory.Recent(ctx, userKey, b.deps.HistoryLimit)
	if err != nil {
		log.Printf("failed to re-read history: %v", err)
		return fallback
	}
	return full
}
