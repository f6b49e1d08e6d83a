// Package convlog records closed conversations (topic, help summary,
// completion flag) to a durable row sink for audit and reporting.
package convlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

const conversationSheet = "Conversations"

// RowSink is the durable destination for log rows. The Sheets service
// satisfies it; FileSink is the local fallback.
type RowSink interface {
	AppendRow(ctx context.Context, sheetName string, row []any) error
}

// topicKeywords maps a display topic to the words that signal it. The first
// three messages decide the topic.
var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"Schedule", []string{"schedule", "booking", "appointment", "session"}},
	{"Pricing", []string{"price", "cost", "fee", "payment"}},
	{"Curriculum", []string{"curriculum", "syllabus", "course", "subject"}},
	{"Support", []string{"help", "support", "assist", "issue"}},
}

type Logger struct {
	sink RowSink
	now  func() time.Time
}

func NewLogger(sink RowSink) *Logger {
	return &Logger{sink: sink, now: time.Now}
}

// Log appends one conversation row: timestamp, parent name, detected topic,
// help summary and completion flag.
func (l *Logger) Log(ctx context.Context, parentName string, history []memory.Entry, taskCompleted bool) error {
	completed := "No"
	if taskCompleted {
		completed = "Yes"
	}
	row := []any{
		l.now().Format("2006-01-02 15:04:05"),
		orUnknown(parentName),
		ExtractTopic(history),
		SummarizeHelp(history),
		completed,
	}
	if err := l.sink.AppendRow(ctx, conversationSheet, row); err != nil {
		return fmt.Errorf("failed to log conversation: %w", err)
	}
	return nil
}

// ExtractTopic scans the first three messages for topic keywords.
func ExtractTopic(history []memory.Entry) string {
	if len(history) == 0 {
		return "Unknown"
	}
	head := history
	if len(head) > 3 {
		head = head[:3]
	}
	for _, e := range head {
		content := strings.ToLower(e.Content)
		for _, tk := range topicKeywords {
			for _, kw := range tk.keywords {
				if strings.Contains(content, kw) {
					return tk.topic
				}
			}
		}
	}
	return "General Inquiry"
}

// SummarizeHelp joins the substantial assistant replies, truncated, so the
// log row stays readable.
func SummarizeHelp(history []memory.Entry) string {
	if len(history) == 0 {
		return "No conversation recorded"
	}
	var parts []string
	for _, e := range history {
		if e.Role != memory.RoleAssistant {
			continue
		}
		if len(e.Content) > 50 {
			parts = append(parts, truncate(e.Content, 100)+"...")
		}
	}
	if len(parts) == 0 {
		return "No substantial help provided"
	}
	return strings.Join(parts, " | ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
