package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// StreamParser parses Server-Sent Events from a chat completions stream.
type StreamParser struct {
	scanner *bufio.Scanner
}

// NewStreamParser creates a parser over the response body.
func NewStreamParser(reader io.Reader) *StreamParser {
	return &StreamParser{scanner: bufio.NewScanner(reader)}
}

// ParseAll reads the stream and forwards non-empty delta content to chunks,
// stopping on the [DONE] sentinel, a terminal finish reason, end of input,
// read error, or context cancellation.
func (p *StreamParser) ParseAll(ctx context.Context, chunks chan<- string) error {
	for p.scanner.Scan() {
		content, done, ok := decodeEvent(p.scanner.Text())
		if !ok {
			continue
		}

		if content != "" {
			select {
			case chunks <- content:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if done {
			return nil
		}
	}
	return p.scanner.Err()
}

// decodeEvent extracts the delta content of one SSE line. Lines that are not
// data events, malformed JSON, and responses without choices report ok=false
// and are skipped rather than killing the stream.
func decodeEvent(line string) (content string, done bool, ok bool) {
	data, found := strings.CutPrefix(line, "data: ")
	if !found {
		return "", false, false
	}
	if data == "[DONE]" {
		return "", true, true
	}

	var resp apiResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		return "", false, false
	}
	if len(resp.Choices) == 0 {
		return "", false, false
	}
	choice := resp.Choices[0]
	return choice.Delta.Content, choice.FinishReason != "", true
}
