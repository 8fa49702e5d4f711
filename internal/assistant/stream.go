package assistant

import "strings"

// Meta describes how a response was produced. It accompanies the stream as
// trailer data for callers that surface diagnostics.
type Meta struct {
	Plans         []PlanSummary `json:"plans"`
	TotalPhones   int           `json:"totalPhones"`
	IsVague       bool          `json:"isVague"`
	IsAdversarial bool          `json:"isAdversarial"`
	IsIrrelevant  bool          `json:"isIrrelevant"`
}

// PlanSummary reports one plan's contribution before deduplication.
type PlanSummary struct {
	Description string `json:"description,omitempty"`
	Found       int    `json:"found"`
}

// Stream is the consumer side of a response in progress. Chunks arrive on
// Chunks; once it closes, Err reports whether generation completed cleanly.
// Errors are out of band on purpose: text already streamed stays valid even
// when generation fails partway.
type Stream struct {
	ch   chan string
	err  error
	meta Meta
}

func newStream() *Stream {
	return &Stream{ch: make(chan string, 16)}
}

// Chunks returns the channel of response text chunks. It is closed when the
// response is complete or failed.
func (s *Stream) Chunks() <-chan string {
	return s.ch
}

// Err returns the generation error, if any. Only valid after Chunks has
// closed.
func (s *Stream) Err() error {
	return s.err
}

// Meta returns the response diagnostics. Only valid after Chunks has closed.
func (s *Stream) Meta() Meta {
	return s.meta
}

// Text drains the stream and returns the concatenated response along with
// the generation error, for non-streaming callers.
func (s *Stream) Text() (string, error) {
	var b strings.Builder
	for c := range s.ch {
		b.WriteString(c)
	}
	return b.String(), s.err
}
