package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionValidate(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr error
	}{
		{"eq on text", Condition{Field: "brand", Operator: OpEq, Value: StringValue("Samsung")}, nil},
		{"ilike on text", Condition{Field: "model", Operator: OpILike, Value: StringValue("%Pro%")}, nil},
		{"lte on numeric", Condition{Field: "price", Operator: OpLte, Value: NumberValue(30000)}, nil},
		{"gte on numeric", Condition{Field: "battery", Operator: OpGte, Value: NumberValue(5000)}, nil},
		{"cs on array", Condition{Field: "features", Operator: OpContains, Value: ListValue("5G")}, nil},
		{"overlaps on array", Condition{Field: "colours", Operator: OpOverlaps, Value: ListValue("Black", "Blue")}, nil},
		{"regex on text", Condition{Field: "model", Operator: OpRegex, Value: StringValue("Galaxy S.*")}, nil},
		{"unknown field", Condition{Field: "antenna", Operator: OpEq, Value: StringValue("x")}, ErrUnknownField},
		{"ilike on numeric", Condition{Field: "price", Operator: OpILike, Value: StringValue("%3%")}, ErrInvalidOperator},
		{"lte on text", Condition{Field: "brand", Operator: OpLte, Value: NumberValue(1)}, ErrInvalidOperator},
		{"lte with text value", Condition{Field: "price", Operator: OpLte, Value: StringValue("cheap")}, ErrInvalidValue},
		{"cs on text", Condition{Field: "brand", Operator: OpContains, Value: ListValue("Samsung")}, ErrInvalidOperator},
		{"bogus operator", Condition{Field: "brand", Operator: "like", Value: StringValue("x")}, ErrInvalidOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPlanValidate(t *testing.T) {
	assert.ErrorIs(t, Plan{}.Validate(), ErrEmptyPlan)

	plan := Plan{Conditions: []Condition{
		{Field: "brand", Operator: OpILike, Value: StringValue("%samsung%")},
		{Field: "price", Operator: OpLte, Value: NumberValue(30000)},
	}}
	assert.NoError(t, plan.Validate())
}

func TestValueJSONRoundTrip(t *testing.T) {
	var c Condition
	require.NoError(t, json.Unmarshal([]byte(`{"field":"price","operator":"lte","value":30000}`), &c))
	n, ok := c.Value.Number()
	require.True(t, ok)
	assert.Equal(t, 30000.0, n)

	require.NoError(t, json.Unmarshal([]byte(`{"field":"brand","operator":"ilike","value":"%samsung%"}`), &c))
	assert.Equal(t, "%samsung%", c.Value.String())

	require.NoError(t, json.Unmarshal([]byte(`{"field":"colours","operator":"overlaps","value":["Black","Blue"]}`), &c))
	assert.Equal(t, []string{"Black", "Blue"}, c.Value.List())

	assert.Error(t, json.Unmarshal([]byte(`{"field":"colours","operator":"cs","value":[1,2]}`), &c))
}

func TestValueConversions(t *testing.T) {
	n, ok := StringValue("42").Number()
	require.True(t, ok)
	assert.Equal(t, 42.0, n)

	_, ok = StringValue("forty two").Number()
	assert.False(t, ok)

	assert.Equal(t, []string{"solo"}, StringValue("solo").List())
	assert.Equal(t, "5", NumberValue(5).String())
	assert.True(t, Value{}.IsEmpty())
}

func TestPhoneDedupKey(t *testing.T) {
	a := Phone{Brand: "Samsung", Model: "Galaxy S24", Price: 74999}
	b := Phone{Brand: "samsung", Model: "GALAXY S24", Price: 74999}
	c := Phone{Brand: "Samsung", Model: "Galaxy S24", Price: 69999}

	assert.Equal(t, a.DedupKey(), b.DedupKey())
	assert.NotEqual(t, a.DedupKey(), c.DedupKey())
}
