package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonepilot/advisor-engine/internal/catalog"
	"github.com/phonepilot/advisor-engine/internal/convo"
	"github.com/phonepilot/advisor-engine/internal/llm"
	"github.com/phonepilot/advisor-engine/internal/observability"
	"github.com/phonepilot/advisor-engine/internal/signals"
)

type fakeCompleter struct {
	response string
	err      error
	calls    int
	lastReq  llm.ChatRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.ChatRequest) (string, error) {
	f.calls++
	f.lastReq = req
	return f.response, f.err
}

func newTestPlanner(c llm.Completer) *Planner {
	return New(c, "test-model", 3, observability.Nop())
}

func TestGenerateParsesBatch(t *testing.T) {
	fake := &fakeCompleter{response: `{
		"isPhoneQuery": true,
		"isAdversarial": false,
		"queries": [{
			"description": "Samsung within budget",
			"queryConditions": [
				{"field": "brand", "operator": "ilike", "value": "%Samsung%"},
				{"field": "price", "operator": "lte", "value": 25000}
			]
		}]
	}`}

	batch, err := newTestPlanner(fake).Generate(context.Background(), "samsung under 25000", nil)
	require.NoError(t, err)

	assert.True(t, batch.IsPhoneQuery)
	assert.False(t, batch.IsAdversarial)
	require.Len(t, batch.Plans, 1)
	require.Len(t, batch.Plans[0].Conditions, 2)
	assert.Equal(t, catalog.OpILike, batch.Plans[0].Conditions[0].Operator)
	assert.Equal(t, 1, fake.calls, "exactly one model call")
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	fake := &fakeCompleter{response: "```json\n{\"isPhoneQuery\":true,\"isAdversarial\":false,\"queries\":[{\"queryConditions\":[{\"field\":\"brand\",\"operator\":\"ilike\",\"value\":\"%Samsung%\"}]}]}\n```"}

	batch, err := newTestPlanner(fake).Generate(context.Background(), "samsung", nil)
	require.NoError(t, err)
	assert.True(t, batch.IsPhoneQuery)
	require.Len(t, batch.Plans, 1)
}

func TestGenerateDropsInvalidPlans(t *testing.T) {
	fake := &fakeCompleter{response: `{
		"isPhoneQuery": true,
		"isAdversarial": false,
		"queries": [
			{"queryConditions": [{"field": "warp_drive", "operator": "eq", "value": "x"}]},
			{"queryConditions": [{"field": "brand", "operator": "ilike", "value": "%Apple%"}]}
		]
	}`}

	batch, err := newTestPlanner(fake).Generate(context.Background(), "apple", nil)
	require.NoError(t, err)
	require.Len(t, batch.Plans, 1)
	assert.Equal(t, "brand", batch.Plans[0].Conditions[0].Field)
}

func TestGenerateClampsToPlanCap(t *testing.T) {
	fake := &fakeCompleter{response: `{
		"isPhoneQuery": true,
		"isAdversarial": false,
		"queries": [
			{"queryConditions": [{"field": "brand", "operator": "ilike", "value": "%a%"}]},
			{"queryConditions": [{"field": "brand", "operator": "ilike", "value": "%b%"}]},
			{"queryConditions": [{"field": "brand", "operator": "ilike", "value": "%c%"}]},
			{"queryConditions": [{"field": "brand", "operator": "ilike", "value": "%d%"}]},
			{"queryConditions": [{"field": "brand", "operator": "ilike", "value": "%e%"}]}
		]
	}`}

	batch, err := newTestPlanner(fake).Generate(context.Background(), "everything", nil)
	require.NoError(t, err)
	assert.Len(t, batch.Plans, 3)
}

func TestGenerateFailsWhenAllPlansInvalid(t *testing.T) {
	fake := &fakeCompleter{response: `{
		"isPhoneQuery": true,
		"isAdversarial": false,
		"queries": [
			{"queryConditions": [{"field": "warp_drive", "operator": "eq", "value": "x"}]}
		]
	}`}

	_, err := newTestPlanner(fake).Generate(context.Background(), "weird request", nil)

	var planErr *PlanGenerationError
	require.ErrorAs(t, err, &planErr)
}

func TestGenerateAllowsEmptyNonPhoneBatch(t *testing.T) {
	fake := &fakeCompleter{response: `{"isPhoneQuery":false,"isAdversarial":false,"queries":[]}`}

	batch, err := newTestPlanner(fake).Generate(context.Background(), "what is the weather?", nil)
	require.NoError(t, err)
	assert.False(t, batch.IsPhoneQuery)
	assert.Empty(t, batch.Plans)
}

func TestGenerateModelFailure(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("upstream down")}

	_, err := newTestPlanner(fake).Generate(context.Background(), "samsung", nil)

	var planErr *PlanGenerationError
	require.ErrorAs(t, err, &planErr)
}

func TestGenerateUnparsableResponse(t *testing.T) {
	fake := &fakeCompleter{response: "I cannot help with that."}

	_, err := newTestPlanner(fake).Generate(context.Background(), "samsung", nil)

	var planErr *PlanGenerationError
	require.ErrorAs(t, err, &planErr)
}

func TestGenerateIncludesHistoryInPrompt(t *testing.T) {
	fake := &fakeCompleter{response: `{"isPhoneQuery":true,"isAdversarial":false,"queries":[{"queryConditions":[{"field":"brand","operator":"ilike","value":"%Samsung%"}]}]}`}

	history := convo.History{
		convo.NewMessage(convo.RoleUser, "show me samsung phones"),
	}
	_, err := newTestPlanner(fake).Generate(context.Background(), "cheaper ones?", history)
	require.NoError(t, err)

	require.Len(t, fake.lastReq.Messages, 2)
	assert.Contains(t, fake.lastReq.Messages[1].Content, "show me samsung phones")
	assert.Contains(t, fake.lastReq.Messages[1].Content, "cheaper ones?")
}

func TestFallbackBatch(t *testing.T) {
	sigs := signals.Extract("samsung phones under 20000", nil)
	batch := FallbackBatch(sigs)

	assert.True(t, batch.IsPhoneQuery)
	require.Len(t, batch.Plans, 1)
	assert.Len(t, batch.Plans[0].Conditions, 2)
	assert.NoError(t, batch.Plans[0].Validate())

	empty := FallbackBatch(signals.Extract("good phone", nil))
	assert.Empty(t, empty.Plans)
}
