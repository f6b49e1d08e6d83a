package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/llm"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

const analyzePromptFmt = `Analyze this message and provide a JSON response with:
1. intent: The main purpose of the message
2. entities: Any important information extracted
3. escalation_required: Whether this needs human attention
4. sentiment: The emotional tone of the message

Message: %s`

// LLMAnalyzer delegates classification to a chat model with a structured
// JSON output contract. On any failure (transport, parse, empty output) it
// degrades to FailSafe(), which escalates instead of guessing.
type LLMAnalyzer struct {
	client       llm.Client
	systemPrompt string
	window       int
}

func NewLLMAnalyzer(client llm.Client, systemPrompt string, window int) *LLMAnalyzer {
	if window <= 0 {
		window = 5
	}
	return &LLMAnalyzer{client: client, systemPrompt: systemPrompt, window: window}
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, message string, history []memory.Entry) Analysis {
	msgs := []llm.Message{{Role: "system", Content: a.systemPrompt}}
	start := len(history) - a.window
	if start < 0 {
		start = 0
	}
	for _, e := range history[start:] {
		msgs = append(msgs, llm.Message{Role: e.Role, Content: e.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: fmt.Sprintf(analyzePromptFmt, message)})

	resp, err := a.client.GenerateJSON(ctx, msgs)
	if err != nil {
		log.Printf("message analysis failed: %v", err)
		return FailSafe()
	}

	analysis, err := parseAnalysis(resp.Content)
	if err != nil {
		log.Printf("failed to parse analysis output: %v", err)
		return FailSafe()
	}
	return analysis
}

// parseAnalysis tolerates entity values arriving as a string, a list, or an
// arbitrary JSON value; everything is normalized to string lists.
func parseAnalysis(raw string) (Analysis, error) {
	var wire struct {
		Intent             string                     `json:"intent"`
		Entities           map[string]json.RawMessage `json:"entities"`
		EscalationRequired bool                       `json:"escalation_required"`
		Sentiment          string                     `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Analysis{}, fmt.Errorf("invalid analysis JSON: %w", err)
	}
	if wire.Intent == "" {
		return Analysis{}, fmt.Errorf("analysis JSON missing intent")
	}

	entities := make(map[string][]string, len(wire.Entities))
	for kind, rawVal := range wire.Entities {
		entities[kind] = normalizeEntityValues(rawVal)
	}
	sentiment := wire.Sentiment
	switch sentiment {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
	default:
		sentiment = SentimentNeutral
	}
	return Analysis{
		Intent:             wire.Intent,
		Entities:           entities,
		Sentiment:          sentiment,
		EscalationRequired: wire.EscalationRequired,
	}, nil
}

func normalizeEntityValues(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var anyList []any
	if err := json.Unmarshal(raw, &anyList); err == nil {
		out := make([]string, 0, len(anyList))
		for _, v := range anyList {
			out = append(out, fmt.Sprint(v))
		}
		return out
	}
	return []string{string(raw)}
}
