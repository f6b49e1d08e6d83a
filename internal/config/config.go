package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY,required"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel   string      `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// Knowledge base (Postgres + pgvector)
	KnowledgeDSN string `env:"KNOWLEDGE_DSN,required"`

	// Conversation memory (SQLite)
	MemoryPath string `env:"MEMORY_PATH" envDefault:"data/memory.db"`

	// Google services
	GoogleCredentialsPath string `env:"GOOGLE_CREDENTIALS_PATH,required"`
	GoogleSheetsID        string `env:"GOOGLE_SHEETS_ID,required"`
	CalendarID            string `env:"CALENDAR_ID,required"`
	Timezone              string `env:"TIMEZONE" envDefault:"UTC"`

	// Escalation email
	GmailAddress        string   `env:"GMAIL_EMAIL,required"`
	GmailAppPassword    string   `env:"GMAIL_APP_PASSWORD,required"`
	EscalationRecipient string   `env:"HUMAN_ESCALATION_EMAIL,required"`
	EscalationKeywords  []string `env:"ESCALATION_KEYWORDS" envSeparator:"," envDefault:"human,representative,agent,speak to someone,help me,urgent"`

	// Session lifecycle
	SessionTimeoutSeconds int           `env:"SESSION_TIMEOUT_SECONDS" envDefault:"3600"`
	SweepInterval         time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`

	// Conversation limits
	HistoryLimit        int `env:"HISTORY_LIMIT" envDefault:"20"`
	PromptHistoryWindow int `env:"PROMPT_HISTORY_WINDOW" envDefault:"5"`

	// Response tuning. ConfidenceThreshold is the minimum similarity a
	// knowledge-base result needs to be used as response context.
	MaxResponseTokens   int     `env:"MAX_RESPONSE_TOKENS" envDefault:"300"`
	ConfidenceThreshold float64 `env:"CONFIDENCE_THRESHOLD" envDefault:"0.7"`
	SystemPromptPath    string  `env:"SYSTEM_PROMPT_PATH" envDefault:"prompts/system_prompt.txt"`

	// Fallback durable log used when Sheets is not configured
	ConversationLogPath string `env:"CONVERSATION_LOG_PATH" envDefault:"logs/conversations.jsonl"`
}

// SessionTimeout returns the configured session inactivity timeout.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutSeconds) * time.Second
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
