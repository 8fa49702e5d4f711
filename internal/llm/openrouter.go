package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phonepilot/advisor-engine/internal/observability"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenRouterClient handles communication with the OpenRouter API.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
	log        *observability.Logger
}

// OpenRouterOptions configures an OpenRouterClient.
type OpenRouterOptions struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(opts OpenRouterOptions, log *observability.Logger) *OpenRouterClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultOpenRouterURL
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	return &OpenRouterClient{
		apiKey:     opts.APIKey,
		baseURL:    opts.BaseURL,
		maxRetries: opts.MaxRetries,
		backoff:    opts.RetryBackoff,
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		log:        log.WithComponent("openrouter"),
	}
}

// apiRequest is the chat completions request body.
type apiRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// apiResponse is the chat completions response body.
type apiResponse struct {
	ID      string      `json:"id"`
	Choices []apiChoice `json:"choices"`
}

type apiChoice struct {
	Delta        apiDelta `json:"delta"`
	Message      apiDelta `json:"message"`
	FinishReason string   `json:"finish_reason"`
}

type apiDelta struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete performs a blocking chat completion.
func (c *OpenRouterClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	resp, err := c.send(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading completion response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", fmt.Errorf("parsing completion response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}

	content := apiResp.Choices[0].Message.Content
	if content == "" {
		content = apiResp.Choices[0].Delta.Content
	}
	return content, nil
}

// Stream performs a streaming chat completion, forwarding chunks as they
// arrive.
func (c *OpenRouterClient) Stream(ctx context.Context, req ChatRequest, chunks chan<- string) error {
	resp, err := c.send(ctx, req, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	parser := NewStreamParser(resp.Body)
	return parser.ParseAll(ctx, chunks)
}

func (c *OpenRouterClient) send(ctx context.Context, req ChatRequest, stream bool) (*http.Response, error) {
	body, err := json.Marshal(apiRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		// Fresh body reader per attempt.
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("X-Title", "Phone Advisor Engine")

		return c.httpClient.Do(httpReq)
	})
	if err != nil {
		return nil, fmt.Errorf("sending chat request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return resp, nil
}

// retryWithBackoff retries the request on transport errors and retryable
// status codes with exponential backoff.
func (c *OpenRouterClient) retryWithBackoff(ctx context.Context, do func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<(attempt-1))
			c.log.Warn().Int("attempt", attempt).Dur("delay", delay).Err(lastErr).Msg("retrying chat request")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := do()
		if err != nil {
			lastErr = err
			continue
		}
		if isRetryableStatus(resp.StatusCode) {
			resp.Body.Close()
			lastErr = fmt.Errorf("chat API returned status %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
