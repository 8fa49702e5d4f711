// Package convo manages conversation history: ordering, merging and
// windowed summarization of prior turns.
package convo

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// History is an ordered list of conversation messages.
type History []Message

// Sort orders messages by timestamp, breaking ties by ID so the order is
// stable for messages created within the same instant.
func (h History) Sort() {
	sort.SliceStable(h, func(i, j int) bool {
		if !h[i].Timestamp.Equal(h[j].Timestamp) {
			return h[i].Timestamp.Before(h[j].Timestamp)
		}
		return h[i].ID < h[j].ID
	})
}

// Merge combines h with incoming, dropping messages whose ID is already
// present. Merging the same messages twice yields the same history.
func (h History) Merge(incoming History) History {
	seen := make(map[string]struct{}, len(h))
	out := make(History, 0, len(h)+len(incoming))

	for _, m := range h {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	for _, m := range incoming {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}

	out.Sort()
	return out
}

// Texts returns the content of every message in order, both roles.
// Assistant turns often restate constraints the user only implied, so
// signal mining reads them too.
func (h History) Texts() []string {
	out := make([]string, 0, len(h))
	for _, m := range h {
		out = append(out, m.Content)
	}
	return out
}

// Window is the trimmed view of a history handed to response synthesis:
// the most recent turns verbatim, plus a compact summary of everything
// older.
type Window struct {
	Summary string
	Recent  History
}

// TrimOptions bounds the window size.
type TrimOptions struct {
	// VerbatimWindow is how many recent messages survive untrimmed.
	VerbatimWindow int
	// SummaryUserMax caps how many early user queries the summary quotes.
	SummaryUserMax int
	// SummaryAssistMax caps how many early assistant excerpts the summary
	// quotes.
	SummaryAssistMax int
}

const assistantExcerptLen = 100

// Trim sorts the history and produces the synthesis window. Histories at or
// under the verbatim window pass through whole with no summary.
func Trim(h History, opts TrimOptions) Window {
	sorted := make(History, len(h))
	copy(sorted, h)
	sorted.Sort()

	if len(sorted) <= opts.VerbatimWindow {
		return Window{Recent: sorted}
	}

	cut := len(sorted) - opts.VerbatimWindow
	older := sorted[:cut]
	recent := sorted[cut:]

	return Window{
		Summary: summarize(older, opts),
		Recent:  recent,
	}
}

// summarize compacts older turns into a short brief: the earliest user
// queries, the earliest assistant excerpts, and overall counts.
func summarize(older History, opts TrimOptions) string {
	var userQueries, assistantNotes []string
	userTotal, assistantTotal := 0, 0

	for _, m := range older {
		switch m.Role {
		case RoleUser:
			userTotal++
			if len(userQueries) < opts.SummaryUserMax {
				userQueries = append(userQueries, m.Content)
			}
		case RoleAssistant:
			assistantTotal++
			if len(assistantNotes) < opts.SummaryAssistMax {
				assistantNotes = append(assistantNotes, excerpt(m.Content, assistantExcerptLen))
			}
		}
	}

	var b strings.Builder
	b.WriteString("Earlier in this conversation:\n")
	if len(userQueries) > 0 {
		b.WriteString(fmt.Sprintf("The user asked about: %s.\n", strings.Join(userQueries, "; ")))
	}
	if len(assistantNotes) > 0 {
		b.WriteString(fmt.Sprintf("The assistant discussed: %s.\n", strings.Join(assistantNotes, " | ")))
	}
	b.WriteString(fmt.Sprintf("(%d earlier user messages and %d earlier assistant replies omitted.)", userTotal, assistantTotal))
	return b.String()
}

func excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
