package convlog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

type captureSink struct {
	sheet string
	rows  [][]any
}

func (c *captureSink) AppendRow(_ context.Context, sheetName string, row []any) error {
	c.sheet = sheetName
	c.rows = append(c.rows, row)
	return nil
}

func TestLogRowShape(t *testing.T) {
	sink := &captureSink{}
	l := NewLogger(sink)
	l.now = func() time.Time { return time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC) }

	history := []memory.Entry{
		{Role: memory.RoleUser, Content: "I want to book a session for math"},
		{Role: memory.RoleAssistant, Content: "I can help you schedule a session. What grade level is your child in right now?"},
	}
	if err := l.Log(context.Background(), "Jordan Lee", history, true); err != nil {
		t.Fatalf("log: %v", err)
	}

	if sink.sheet != "Conversations" {
		t.Fatalf("wrong sheet: %s", sink.sheet)
	}
	if len(sink.rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(sink.rows))
	}
	row := sink.rows[0]
	if row[0] != "2025-06-01 10:30:00" || row[1] != "Jordan Lee" || row[2] != "Schedule" || row[4] != "Yes" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestExtractTopic(t *testing.T) {
	cases := []struct {
		content string
		topic   string
	}{
		{"how much is the fee?", "Pricing"},
		{"tell me about the syllabus", "Curriculum"},
		{"I have an issue", "Support"},
		{"hello", "General Inquiry"},
	}
	for _, tc := range cases {
		got := ExtractTopic([]memory.Entry{{Role: memory.RoleUser, Content: tc.content}})
		if got != tc.topic {
			t.Fatalf("%q: want %s, got %s", tc.content, tc.topic, got)
		}
	}
	if got := ExtractTopic(nil); got != "Unknown" {
		t.Fatalf("empty history: want Unknown, got %s", got)
	}
}

func TestExtractTopicOnlyFirstThreeMessages(t *testing.T) {
	history := []memory.Entry{
		{Role: memory.RoleUser, Content: "hi"},
		{Role: memory.RoleAssistant, Content: "hello"},
		{Role: memory.RoleUser, Content: "ok"},
		{Role: memory.RoleUser, Content: "what is the price?"},
	}
	if got := ExtractTopic(history); got != "General Inquiry" {
		t.Fatalf("topic must come from first three messages, got %s", got)
	}
}

func TestSummarizeHelpSkipsShortReplies(t *testing.T) {
	long := strings.Repeat("We offer one-on-one tutoring sessions. ", 4)
	history := []memory.Entry{
		{Role: memory.RoleAssistant, Content: "ok"},
		{Role: memory.RoleAssistant, Content: long},
	}
	got := SummarizeHelp(history)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("long reply should be truncated: %q", got)
	}
	if strings.Contains(got, " | ") {
		t.Fatalf("short reply should be excluded: %q", got)
	}
}

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.jsonl")
	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.AppendRow(context.Background(), "Conversations", []any{"ts", "name", "Schedule", "help", "Yes"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()
	s := bufio.NewScanner(f)
	if !s.Scan() {
		t.Fatalf("no rows written")
	}
	var row fileRow
	if err := json.Unmarshal(s.Bytes(), &row); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if row.Sheet != "Conversations" || len(row.Row) != 5 {
		t.Fatalf("unexpected row: %+v", row)
	}
}
