// Package synthesis turns retrieved catalog records into a grounded,
// streaming natural-language response.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/phonepilot/advisor-engine/internal/catalog"
	"github.com/phonepilot/advisor-engine/internal/convo"
	"github.com/phonepilot/advisor-engine/internal/llm"
	"github.com/phonepilot/advisor-engine/internal/observability"
)

// Canned responses for failure and refusal paths.
const (
	// FallbackMessage is streamed as the only chunk when the model call
	// fails mid-response.
	FallbackMessage = "I'm having trouble processing your request right now. Please try again or rephrase your question."

	// RefusalMessage is the graceful redirect for adversarial or off-topic
	// requests.
	RefusalMessage = "I'm here to help you find the perfect mobile phone! Could you tell me what you're looking for in a phone?"
)

// StreamError wraps a model failure that interrupted response generation.
// The fallback chunk has already been sent when callers see it.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("response stream: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// Request carries everything synthesis needs to ground a response.
type Request struct {
	UserText        string
	Phones          []catalog.Phone
	IsVague         bool
	IsAdversarial   bool
	IsIrrelevant    bool
	ExtractedValues []string
	Window          convo.Window
}

// Synthesizer streams grounded responses.
type Synthesizer struct {
	streamer llm.Streamer
	model    string
	log      *observability.Logger
}

// New creates a Synthesizer.
func New(streamer llm.Streamer, model string, log *observability.Logger) *Synthesizer {
	return &Synthesizer{
		streamer: streamer,
		model:    model,
		log:      log.WithComponent("synthesis"),
	}
}

// Stream generates the response, sending chunks as they arrive. When the
// model call fails, the fallback message is sent as a final chunk and the
// underlying error is returned so callers can surface it out of band.
func (s *Synthesizer) Stream(ctx context.Context, req Request, chunks chan<- string) error {
	err := s.streamer.Stream(ctx, llm.ChatRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: buildPrompt(req)},
		},
	}, chunks)
	if err == nil {
		return nil
	}

	s.log.Error().Err(err).Msg("response stream failed")
	select {
	case chunks <- FallbackMessage:
	case <-ctx.Done():
	}
	return &StreamError{Err: err}
}

// buildPrompt assembles the grounding prompt: catalog data, the request,
// the deterministic query analysis, and the trimmed conversation.
func buildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("## AVAILABLE PHONES\n")
	b.WriteString(formatPhoneData(req.Phones))
	b.WriteString("\n## USER QUERY\n")
	fmt.Fprintf(&b, "%q\n", req.UserText)

	b.WriteString("\n## QUERY ANALYSIS\n")
	if req.IsVague {
		b.WriteString("- **Is Vague**: Yes (1 value extracted - needs more specificity)\n")
	} else {
		b.WriteString("- **Is Vague**: No (0 or 2+ values extracted)\n")
	}
	extracted := "None"
	if len(req.ExtractedValues) > 0 {
		extracted = strings.Join(req.ExtractedValues, ", ")
	}
	fmt.Fprintf(&b, "- **Extracted Values**: %s\n", extracted)
	fmt.Fprintf(&b, "- **Total Phones**: %d\n", len(req.Phones))
	fmt.Fprintf(&b, "- **Is Adversarial**: %s\n", yesNo(req.IsAdversarial))
	fmt.Fprintf(&b, "- **Is Irrelevant**: %s\n", yesNo(req.IsIrrelevant))

	b.WriteString("\n## CONVERSATION CONTEXT\n")
	b.WriteString(formatWindow(req.Window))

	b.WriteString("\n## INSTRUCTIONS\n")
	b.WriteString(`- Provide helpful recommendations based on the available phones above.
- Use the exact phone names and prices from the list.
- Consider the conversation context to provide relevant follow-ups.
- If no phones match the criteria, suggest alternative search criteria.
- End with a clear recommendation if the user is asking for suggestions.
- If **Vague**: explain that you found many options, show the top-rated phones, and ask for more specific criteria.
- If **Adversarial**: politely redirect to phone-related topics.
- If **Irrelevant**: explain you're a phone assistant and ask what phone they're looking for.`)

	return b.String()
}

func formatPhoneData(phones []catalog.Phone) string {
	if len(phones) == 0 {
		return "No phones found matching your criteria.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Total Phones Found**: %d (top-rated from each query)\n", len(phones))
	b.WriteString("**Your Task**: Select the 5 most relevant phones based on the user query and chat history\n\n")

	for i, p := range phones {
		fmt.Fprintf(&b, "**%d. %s** - %s, rated %.1f/5\n", i+1, p.DisplayName(), FormatRupees(p.Price), p.Rating)
		b.WriteString("**Key Specs**:\n")
		fmt.Fprintf(&b, "  - **OS**: %s\n", orNA(p.OS))
		fmt.Fprintf(&b, "  - **RAM**: %s\n", orNA(gbOrEmpty(p.RAM)))
		fmt.Fprintf(&b, "  - **Storage**: %s\n", orNA(gbOrEmpty(p.Storage)))
		fmt.Fprintf(&b, "  - **Display**: %s\n", orNA(displaySpec(p)))
		fmt.Fprintf(&b, "  - **Camera**: %s\n", orNA(mpOrEmpty(p.CameraMain)))
		fmt.Fprintf(&b, "  - **Battery**: %s\n", orNA(mahOrEmpty(p.Battery)))
		fmt.Fprintf(&b, "  - **Processor**: %s\n", orNA(p.Processor))
		fmt.Fprintf(&b, "**Available**: %s - **Stock**: %s\n\n", orNA(strings.Join(p.Colours, ", ")), orNA(p.StockStatus))
	}
	return b.String()
}

func formatWindow(w convo.Window) string {
	if w.Summary == "" && len(w.Recent) == 0 {
		return "No previous conversation context.\n"
	}

	var b strings.Builder
	if w.Summary != "" {
		b.WriteString(w.Summary)
		b.WriteString("\n\n## Recent Conversation:\n")
	}
	for _, m := range w.Recent {
		role := "User"
		if m.Role == convo.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", role, m.Content)
	}
	return b.String()
}

// FormatRupees renders a price with the rupee symbol and Indian digit
// grouping (1,23,456).
func FormatRupees(price float64) string {
	whole := fmt.Sprintf("%.0f", price)

	neg := strings.HasPrefix(whole, "-")
	if neg {
		whole = whole[1:]
	}

	var grouped string
	if len(whole) <= 3 {
		grouped = whole
	} else {
		grouped = whole[len(whole)-3:]
		rest := whole[:len(whole)-3]
		for len(rest) > 2 {
			grouped = rest[len(rest)-2:] + "," + grouped
			rest = rest[:len(rest)-2]
		}
		grouped = rest + "," + grouped
	}

	if neg {
		return "-₹" + grouped
	}
	return "₹" + grouped
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func gbOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%dGB", n)
}

func mpOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%dMP", n)
}

func mahOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%dmAh", n)
}

func displaySpec(p catalog.Phone) string {
	if p.DisplaySize == 0 && p.DisplayType == "" {
		return ""
	}
	if p.DisplaySize == 0 {
		return p.DisplayType
	}
	return strings.TrimSpace(fmt.Sprintf("%.1f\" %s", p.DisplaySize, p.DisplayType))
}
