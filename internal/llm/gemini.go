package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiClient implements Client using the Gemini API directly, for
// deployments that bypass OpenRouter.
type GeminiClient struct {
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiClient creates a Gemini-backed client. Each call is bounded by
// requestTimeout; zero means the caller's context alone governs cancellation.
func NewGeminiClient(ctx context.Context, apiKey string, requestTimeout time.Duration) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiClient{client: client, timeout: requestTimeout}, nil
}

// boundContext caps ctx with the client timeout when one is configured.
func boundContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// Complete performs a blocking chat completion.
func (c *GeminiClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	ctx, cancel := boundContext(ctx, c.timeout)
	defer cancel()
	model, parts := c.prepare(req)

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return collectText(resp), nil
}

// Stream performs a streaming chat completion.
func (c *GeminiClient) Stream(ctx context.Context, req ChatRequest, chunks chan<- string) error {
	ctx, cancel := boundContext(ctx, c.timeout)
	defer cancel()
	model, parts := c.prepare(req)

	iter := model.GenerateContentStream(ctx, parts...)
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gemini stream: %w", err)
		}

		text := collectText(resp)
		if text == "" {
			continue
		}
		select {
		case chunks <- text:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// prepare maps a chat request onto a Gemini model invocation. Gemini takes
// the system prompt separately and the conversation as ordered text parts.
func (c *GeminiClient) prepare(req ChatRequest) (*genai.GenerativeModel, []genai.Part) {
	model := c.client.GenerativeModel(req.Model)

	var parts []genai.Part
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(msg.Content)}}
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	return model, parts
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}
