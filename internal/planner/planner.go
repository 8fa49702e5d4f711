// Package planner turns a user request into a bounded batch of structured
// catalog query plans via a single model call.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phonepilot/advisor-engine/internal/catalog"
	"github.com/phonepilot/advisor-engine/internal/convo"
	"github.com/phonepilot/advisor-engine/internal/llm"
	"github.com/phonepilot/advisor-engine/internal/observability"
	"github.com/phonepilot/advisor-engine/internal/signals"
)

// Batch is the planner's output: classification flags plus up to MaxPlans
// executable plans.
type Batch struct {
	IsPhoneQuery  bool           `json:"isPhoneQuery"`
	IsAdversarial bool           `json:"isAdversarial"`
	Plans         []catalog.Plan `json:"queries"`
}

// PlanGenerationError reports that the model call failed or returned an
// unusable structure.
type PlanGenerationError struct {
	Reason string
	Err    error
}

func (e *PlanGenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan generation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("plan generation failed: %s", e.Reason)
}

func (e *PlanGenerationError) Unwrap() error {
	return e.Err
}

// Planner generates query batches.
type Planner struct {
	completer llm.Completer
	model     string
	maxPlans  int
	log       *observability.Logger
}

// New creates a Planner.
func New(completer llm.Completer, model string, maxPlans int, log *observability.Logger) *Planner {
	return &Planner{
		completer: completer,
		model:     model,
		maxPlans:  maxPlans,
		log:       log.WithComponent("planner"),
	}
}

// Generate produces a query batch for the user's request. Exactly one model
// call is made. Invalid plans from the model are dropped rather than
// failing the batch; a batch whose structure cannot be parsed at all, or a
// phone query left with no usable plans, yields a PlanGenerationError.
func (p *Planner) Generate(ctx context.Context, userText string, history convo.History) (Batch, error) {
	prompt := buildPlannerPrompt(userText, history)

	raw, err := p.completer.Complete(ctx, llm.ChatRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: plannerSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return Batch{}, &PlanGenerationError{Reason: "model call failed", Err: err}
	}

	batch, err := parseBatch(raw)
	if err != nil {
		p.log.Warn().Err(err).Str("response", excerpt(raw, 200)).Msg("unparsable planner response")
		return Batch{}, &PlanGenerationError{Reason: "unparsable response", Err: err}
	}

	batch.Plans = p.sanitizePlans(batch.Plans)
	if batch.IsPhoneQuery && !batch.IsAdversarial && len(batch.Plans) == 0 {
		return Batch{}, &PlanGenerationError{Reason: "no usable plans in response"}
	}
	return batch, nil
}

// sanitizePlans drops invalid plans and clamps the batch to the plan cap.
func (p *Planner) sanitizePlans(plans []catalog.Plan) []catalog.Plan {
	var valid []catalog.Plan
	for _, plan := range plans {
		if err := plan.Validate(); err != nil {
			p.log.Warn().Err(err).Str("plan", plan.Description).Msg("dropping invalid plan")
			continue
		}
		valid = append(valid, plan)
	}
	if len(valid) > p.maxPlans {
		valid = valid[:p.maxPlans]
	}
	return valid
}

// FallbackBatch builds a single minimal plan from extracted signals, used
// when model-driven planning fails. With no signals there is nothing to
// query and the batch is empty.
func FallbackBatch(sigs signals.Set) Batch {
	if sigs.Count() == 0 {
		return Batch{IsPhoneQuery: true}
	}
	return Batch{
		IsPhoneQuery: true,
		Plans: []catalog.Plan{{
			Description: "fallback from extracted signals",
			Conditions:  sigs.Conditions(),
		}},
	}
}

func parseBatch(raw string) (Batch, error) {
	jsonText, err := llm.ExtractJSON(raw)
	if err != nil {
		return Batch{}, err
	}

	var batch Batch
	if err := json.Unmarshal([]byte(jsonText), &batch); err != nil {
		return Batch{}, fmt.Errorf("decoding plan batch: %w", err)
	}
	return batch, nil
}

func buildPlannerPrompt(userText string, history convo.History) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Previous conversation context:\n")
		for _, m := range history {
			b.WriteString("- ")
			b.WriteString(m.Role)
			b.WriteString(": ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
		b.WriteString("\nUse this context to understand what the user is looking for.\n\n")
	}
	b.WriteString("User request: \"")
	b.WriteString(userText)
	b.WriteString("\"")
	return b.String()
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
