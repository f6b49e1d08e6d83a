package llm

import "context"

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is the chat completion contract. Generate produces free text with
// sampling tuned for conversational replies; GenerateJSON requests a single
// structured JSON object with lower temperature.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
	GenerateJSON(ctx context.Context, messages []Message) (Response, error)
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
