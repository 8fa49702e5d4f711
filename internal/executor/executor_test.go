package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonepilot/advisor-engine/internal/catalog"
	"github.com/phonepilot/advisor-engine/internal/observability"
)

// fakeStore returns canned results keyed by the first condition's value.
type fakeStore struct {
	mu      sync.Mutex
	results map[string][]catalog.Phone
	errs    map[string]error
	calls   []catalog.Plan
}

func (f *fakeStore) ExecutePlan(_ context.Context, plan catalog.Plan, _ int) ([]catalog.Phone, error) {
	f.mu.Lock()
	f.calls = append(f.calls, plan)
	f.mu.Unlock()

	key := plan.Conditions[0].Value.String()
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.results[key], nil
}

func brandPlan(pattern string) catalog.Plan {
	return catalog.Plan{Conditions: []catalog.Condition{
		{Field: "brand", Operator: catalog.OpILike, Value: catalog.StringValue(pattern)},
	}}
}

func TestExecuteMergesAndDedups(t *testing.T) {
	shared := catalog.Phone{Brand: "Samsung", Model: "Galaxy S24", Price: 74999, Rating: 4.6}
	store := &fakeStore{results: map[string][]catalog.Phone{
		"%samsung%": {shared, {Brand: "Samsung", Model: "Galaxy M34", Price: 16999}},
		"%flagship%": {
			{Brand: "Apple", Model: "iPhone 15", Price: 79900},
			shared, // duplicate across plans
		},
	}}

	res := New(store, 10, observability.Nop()).Execute(context.Background(),
		[]catalog.Plan{brandPlan("%samsung%"), brandPlan("%flagship%")})

	require.Len(t, res.Phones, 3, "duplicate collapses")
	assert.Equal(t, []int{2, 2}, res.PerPlanCounts, "counts are pre-dedup")

	// First occurrence wins: plan 0's rows come first.
	assert.Equal(t, "Galaxy S24", res.Phones[0].Model)
	assert.Equal(t, "Galaxy M34", res.Phones[1].Model)
	assert.Equal(t, "iPhone 15", res.Phones[2].Model)
}

func TestExecuteFailedPlanContributesNothing(t *testing.T) {
	store := &fakeStore{
		results: map[string][]catalog.Phone{
			"%apple%": {{Brand: "Apple", Model: "iPhone 15", Price: 79900}},
		},
		errs: map[string]error{"%broken%": errors.New("db down")},
	}

	res := New(store, 10, observability.Nop()).Execute(context.Background(),
		[]catalog.Plan{brandPlan("%broken%"), brandPlan("%apple%")})

	require.Len(t, res.Phones, 1)
	assert.Equal(t, []int{0, 1}, res.PerPlanCounts)
}

func TestExecuteEmptyBatch(t *testing.T) {
	store := &fakeStore{}
	res := New(store, 10, observability.Nop()).Execute(context.Background(), nil)
	assert.Empty(t, res.Phones)
	assert.Empty(t, store.calls)
}

func TestExecuteRewritesRegexConditions(t *testing.T) {
	store := &fakeStore{results: map[string][]catalog.Phone{}}

	plan := catalog.Plan{Conditions: []catalog.Condition{
		{Field: "model", Operator: catalog.OpRegex, Value: catalog.StringValue("S[0-9]+")},
	}}
	New(store, 10, observability.Nop()).Execute(context.Background(), []catalog.Plan{plan})

	require.Len(t, store.calls, 1)
	got := store.calls[0].Conditions[0]
	assert.Equal(t, catalog.OpILike, got.Operator)
	assert.Equal(t, "%S%", got.Value.String())

	// The caller's plan is untouched.
	assert.Equal(t, catalog.OpRegex, plan.Conditions[0].Operator)
}

func TestRegexToILike(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"S[0-9]+", "%S%"},
		{"iPhone.*Pro", "%Pro%"},
		{"Redmi.*Note", "%Note%"},
		{"Pixel.*a", "%a%"},
		{"Nord", "%Nord%"},
		{"Ultra", "%Ultra%"},
		// Unrecognized patterns strip regex syntax into wildcards.
		{"Fold\\d", "%Fold%d"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, regexToILike(tt.pattern))
		})
	}
}
