package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectChunks(t *testing.T, raw string) []string {
	t.Helper()

	parser := NewStreamParser(strings.NewReader(raw))
	chunks := make(chan string, 16)
	err := parser.ParseAll(context.Background(), chunks)
	require.NoError(t, err)
	close(chunks)

	var out []string
	for c := range chunks {
		out = append(out, c)
	}
	return out
}

func TestStreamParserBasicFlow(t *testing.T) {
	raw := `data: {"choices":[{"delta":{"content":"Hello"}}]}

data: {"choices":[{"delta":{"content":" world"}}]}

data: [DONE]
`
	assert.Equal(t, []string{"Hello", " world"}, collectChunks(t, raw))
}

func TestStreamParserSkipsNonDataLines(t *testing.T) {
	raw := `: keep-alive

event: ping
data: {"choices":[{"delta":{"content":"ok"}}]}

data: [DONE]
`
	assert.Equal(t, []string{"ok"}, collectChunks(t, raw))
}

func TestStreamParserSkipsMalformedJSON(t *testing.T) {
	raw := `data: {not json}

data: {"choices":[{"delta":{"content":"good"}}]}

data: [DONE]
`
	assert.Equal(t, []string{"good"}, collectChunks(t, raw))
}

func TestStreamParserStopsOnFinishReason(t *testing.T) {
	raw := `data: {"choices":[{"delta":{"content":"last"},"finish_reason":"stop"}]}

data: {"choices":[{"delta":{"content":"never seen"}}]}
`
	assert.Equal(t, []string{"last"}, collectChunks(t, raw))
}

func TestStreamParserEndOfInputWithoutDone(t *testing.T) {
	raw := `data: {"choices":[{"delta":{"content":"partial"}}]}
`
	assert.Equal(t, []string{"partial"}, collectChunks(t, raw))
}

func TestStreamParserContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	parser := NewStreamParser(strings.NewReader(`data: {"choices":[{"delta":{"content":"x"}}]}
`))
	// Unbuffered channel with no reader: the send must yield to ctx.
	err := parser.ParseAll(ctx, make(chan string))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounded by prose", `Here is the plan: {"a":1} hope that helps!`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ExtractJSON("no json here")
	assert.Error(t, err)
}
