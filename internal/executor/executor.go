// Package executor runs query plan batches against the catalog
// concurrently and merges their results.
package executor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phonepilot/advisor-engine/internal/catalog"
	"github.com/phonepilot/advisor-engine/internal/observability"
)

// Store is the catalog surface the executor needs.
type Store interface {
	ExecutePlan(ctx context.Context, plan catalog.Plan, limit int) ([]catalog.Phone, error)
}

// QueryExecutionError records a single plan's failure within a batch.
type QueryExecutionError struct {
	Plan int
	Err  error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("plan %d: %v", e.Plan, e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// Result is the merged outcome of a batch execution.
type Result struct {
	// Phones is the deduplicated union of all plan results, in plan order
	// with first occurrence winning.
	Phones []catalog.Phone
	// PerPlanCounts records how many rows each plan contributed before
	// deduplication, indexed like the input plans.
	PerPlanCounts []int
}

// Executor fans plans out against the store.
type Executor struct {
	store        Store
	perPlanLimit int
	log          *observability.Logger
}

// New creates an Executor.
func New(store Store, perPlanLimit int, log *observability.Logger) *Executor {
	return &Executor{
		store:        store,
		perPlanLimit: perPlanLimit,
		log:          log.WithComponent("executor"),
	}
}

// Execute runs every plan concurrently. A failing plan contributes nothing
// rather than failing the batch; partial results beat no results. Regex
// conditions are rewritten to ILIKE patterns before execution. Duplicate
// phones across plans collapse to their first occurrence, ordered by plan
// index then row order within the plan.
func (e *Executor) Execute(ctx context.Context, plans []catalog.Plan) Result {
	if len(plans) == 0 {
		return Result{}
	}

	perPlan := make([][]catalog.Phone, len(plans))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for i, plan := range plans {
		i, plan := i, rewriteRegexConditions(plan)
		g.Go(func() error {
			phones, err := e.store.ExecutePlan(gctx, plan, e.perPlanLimit)
			if err != nil {
				e.log.Warn().Err(&QueryExecutionError{Plan: i, Err: err}).Msg("plan execution failed, contributing no results")
				return nil
			}
			mu.Lock()
			perPlan[i] = phones
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	result := Result{PerPlanCounts: make([]int, len(plans))}
	seen := make(map[string]struct{})
	for i, phones := range perPlan {
		result.PerPlanCounts[i] = len(phones)
		for _, p := range phones {
			key := p.DedupKey()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result.Phones = append(result.Phones, p)
		}
	}

	e.log.Debug().
		Int("plans", len(plans)).
		Int("merged", len(result.Phones)).
		Msg("batch executed")
	return result
}

// rewriteRegexConditions returns a copy of the plan with every regex
// condition converted to an ILIKE pattern.
func rewriteRegexConditions(plan catalog.Plan) catalog.Plan {
	needsRewrite := false
	for _, c := range plan.Conditions {
		if c.Operator == catalog.OpRegex {
			needsRewrite = true
			break
		}
	}
	if !needsRewrite {
		return plan
	}

	out := plan
	out.Conditions = make([]catalog.Condition, len(plan.Conditions))
	copy(out.Conditions, plan.Conditions)
	for i, c := range out.Conditions {
		if c.Operator == catalog.OpRegex {
			out.Conditions[i] = catalog.Condition{
				Field:    c.Field,
				Operator: catalog.OpILike,
				Value:    catalog.StringValue(regexToILike(c.Value.String())),
			}
		}
	}
	return out
}
