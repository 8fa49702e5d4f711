// Package assistant orchestrates the full conversational pipeline: signal
// extraction, query planning, catalog execution and response synthesis.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phonepilot/advisor-engine/internal/cache"
	"github.com/phonepilot/advisor-engine/internal/catalog"
	"github.com/phonepilot/advisor-engine/internal/convo"
	"github.com/phonepilot/advisor-engine/internal/executor"
	"github.com/phonepilot/advisor-engine/internal/observability"
	"github.com/phonepilot/advisor-engine/internal/planner"
	"github.com/phonepilot/advisor-engine/internal/signals"
	"github.com/phonepilot/advisor-engine/internal/synthesis"
)

// TryRephraseMessage is streamed when planning fails and no signals exist
// to build a fallback plan from.
const TryRephraseMessage = "I couldn't work out what to search for. Could you rephrase your question with a bit more detail about the phone you want?"

// Planner generates query batches.
type Planner interface {
	Generate(ctx context.Context, userText string, history convo.History) (planner.Batch, error)
}

// Executor runs plan batches.
type Executor interface {
	Execute(ctx context.Context, plans []catalog.Plan) executor.Result
}

// Synthesizer streams grounded responses.
type Synthesizer interface {
	Stream(ctx context.Context, req synthesis.Request, chunks chan<- string) error
}

// Options configures a Service.
type Options struct {
	TrimOptions convo.TrimOptions
	CacheTTL    time.Duration
}

// Service is the conversational assistant.
type Service struct {
	planner Planner
	exec    Executor
	synth   Synthesizer
	cache   cache.Client
	opts    Options
	log     *observability.Logger
}

// New creates a Service.
func New(p Planner, e Executor, s Synthesizer, c cache.Client, opts Options, log *observability.Logger) *Service {
	return &Service{
		planner: p,
		exec:    e,
		synth:   s,
		cache:   c,
		opts:    opts,
		log:     log.WithComponent("assistant"),
	}
}

// ErrEmptyQuery is returned when the user message is blank.
var ErrEmptyQuery = errors.New("assistant: empty user query")

// HandleUserQuery runs the pipeline for one user turn and returns the
// response stream immediately; generation continues in the background until
// the stream's channel closes or ctx is cancelled.
func (s *Service) HandleUserQuery(ctx context.Context, userText string, history convo.History) (*Stream, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, ErrEmptyQuery
	}
	st := newStream()
	go func() {
		defer close(st.ch)
		st.err = s.respond(ctx, userText, history, st)
	}()
	return st, nil
}

func (s *Service) respond(ctx context.Context, userText string, history convo.History, st *Stream) error {
	started := time.Now()

	sigs := signals.Extract(userText, history.Texts())

	batch, err := s.planner.Generate(ctx, userText, history)
	if err != nil {
		var planErr *planner.PlanGenerationError
		if !errors.As(err, &planErr) {
			return err
		}
		s.log.Warn().Err(err).Msg("planning failed, falling back to extracted signals")
		batch = planner.FallbackBatch(sigs)
		if len(batch.Plans) == 0 {
			st.meta = Meta{IsVague: sigs.IsVague()}
			return s.send(ctx, st, TryRephraseMessage)
		}
	}

	// Adversarial requests never touch the catalog or the synthesis model.
	if batch.IsAdversarial {
		s.log.Info().Msg("adversarial request refused")
		st.meta = Meta{IsAdversarial: true, IsVague: sigs.IsVague()}
		return s.send(ctx, st, synthesis.RefusalMessage)
	}

	var result executor.Result
	if batch.IsPhoneQuery {
		result = s.executeWithCache(ctx, batch.Plans)
	}
	st.meta = planMeta(batch, result, sigs)

	req := synthesis.Request{
		UserText:        userText,
		Phones:          result.Phones,
		IsVague:         sigs.IsVague(),
		IsAdversarial:   false,
		IsIrrelevant:    !batch.IsPhoneQuery,
		ExtractedValues: describeSignals(sigs),
		Window:          convo.Trim(history, s.opts.TrimOptions),
	}

	err = s.synth.Stream(ctx, req, st.ch)

	s.log.Info().
		Int("signals", sigs.Count()).
		Int("plans", len(batch.Plans)).
		Int("phones", len(result.Phones)).
		Bool("vague", sigs.IsVague()).
		Dur("elapsed", time.Since(started)).
		Err(err).
		Msg("handled user query")
	return err
}

// executeWithCache serves identical plan batches from the cache, preserving
// result order. Cache failures degrade to direct execution.
func (s *Service) executeWithCache(ctx context.Context, plans []catalog.Plan) executor.Result {
	if len(plans) == 0 {
		return executor.Result{}
	}

	key, ok := s.batchKey(plans)
	if ok {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var cached executor.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				s.log.Debug().Str("key", key).Msg("result cache hit")
				return cached
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn().Err(err).Msg("result cache read failed")
		}
	}

	result := s.exec.Execute(ctx, plans)

	if ok {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("result cache write failed")
			}
		}
	}
	return result
}

func (s *Service) batchKey(plans []catalog.Plan) (string, bool) {
	payload, err := json.Marshal(plans)
	if err != nil {
		return "", false
	}
	return cache.HashKey("results", payload), true
}

func (s *Service) send(ctx context.Context, st *Stream, msg string) error {
	select {
	case st.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func planMeta(batch planner.Batch, result executor.Result, sigs signals.Set) Meta {
	meta := Meta{
		TotalPhones:  len(result.Phones),
		IsVague:      sigs.IsVague(),
		IsIrrelevant: !batch.IsPhoneQuery,
	}
	for i, plan := range batch.Plans {
		found := 0
		if i < len(result.PerPlanCounts) {
			found = result.PerPlanCounts[i]
		}
		meta.Plans = append(meta.Plans, PlanSummary{Description: plan.Description, Found: found})
	}
	return meta
}

func describeSignals(sigs signals.Set) []string {
	var out []string
	for _, sig := range sigs.Signals() {
		out = append(out, fmt.Sprintf("%s %s %s", sig.Field, sig.Operator, sig.Value.String()))
	}
	return out
}
