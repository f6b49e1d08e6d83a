package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/analyzer"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/assembler"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/calendar"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/config"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/convlog"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/escalation"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/knowledge"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/llm"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/mailer"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/responder"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/session"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/sheets"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseClient, err := llm.NewClient(cfg)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}
	client := llm.NewResilient(baseClient)

	systemPrompt := readSystemPrompt(cfg.SystemPromptPath)

	mem, err := memory.Open(cfg.MemoryPath, cfg.HistoryLimit)
	if err != nil {
		log.Fatalf("failed to open conversation memory: %v", err)
	}
	defer func() { _ = mem.Close() }()

	// The Google-backed and retrieval collaborators degrade to nil when
	// unavailable; the assembler and logger tolerate missing backends.
	var retriever assembler.Retriever
	kb, err := knowledge.Open(cfg.KnowledgeDSN, client, cfg.ConfidenceThreshold)
	if err != nil {
		log.Printf("knowledge base unavailable: %v", err)
	} else {
		retriever = kb
		defer func() { _ = kb.Close() }()
	}

	var tabular assembler.Tabular
	var sink convlog.RowSink
	sheetsSvc, err := sheets.New(ctx, cfg.GoogleCredentialsPath, cfg.GoogleSheetsID)
	if err != nil {
		log.Printf("sheets unavailable, logging conversations to %s: %v", cfg.ConversationLogPath, err)
		fs, ferr := convlog.NewFileSink(cfg.ConversationLogPath)
		if ferr != nil {
			log.Fatalf("failed to init conversation log file: %v", ferr)
		}
		sink = fs
	} else {
		tabular = sheetsSvc
		sink = sheetsSvc
	}

	var slots assembler.SlotProvider
	calSvc, err := calendar.New(ctx, cfg.GoogleCredentialsPath, cfg.CalendarID, cfg.Timezone)
	if err != nil {
		log.Printf("calendar unavailable: %v", err)
	} else {
		slots = calSvc
	}

	mail := mailer.New(cfg.GmailAddress, cfg.GmailAppPassword, cfg.EscalationRecipient)

	sessions := session.NewManager(session.NewMemoryStore(), cfg.SessionTimeout())
	sweeper := session.NewSweeper(sessions)
	if err := sweeper.Start(cfg.SweepInterval); err != nil {
		log.Fatalf("failed to start session sweeper: %v", err)
	}
	defer sweeper.Stop()

	messageAnalyzer := analyzer.NewKeywordOverride(
		analyzer.NewLLMAnalyzer(client, systemPrompt, cfg.PromptHistoryWindow),
		cfg.EscalationKeywords,
	)

	bot, err := telegram.New(cfg.TelegramBotToken, telegram.Deps{
		Sessions:     sessions,
		Memory:       mem,
		Analyzer:     messageAnalyzer,
		Assembler:    assembler.New(retriever, tabular, slots),
		Responder:    responder.NewLLMResponder(client, systemPrompt, cfg.PromptHistoryWindow),
		Gate:         escalation.NewGate(mail),
		Logger:       convlog.NewLogger(sink),
		HistoryLimit: cfg.HistoryLimit,
	})
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	log.Printf("bot started (provider=%s, session timeout=%s)", cfg.LLMProvider, cfg.SessionTimeout())
	bot.Start(ctx)
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return string(data)
}
