// Package llm provides chat completion clients for the model providers the
// advisor engine supports.
package llm

import "context"

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest describes one model invocation.
type ChatRequest struct {
	Model    string
	Messages []Message
}

// Completer performs a blocking chat completion and returns the full text.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Streamer performs a streaming chat completion, sending text chunks to
// chunks as they arrive. The channel is not closed by the implementation;
// a nil error return means the model signalled completion.
type Streamer interface {
	Stream(ctx context.Context, req ChatRequest, chunks chan<- string) error
}

// Client combines both invocation styles.
type Client interface {
	Completer
	Streamer
}
