package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundContextAppliesTimeout(t *testing.T) {
	ctx, cancel := boundContext(context.Background(), 50*time.Millisecond)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok, "configured timeout must set a deadline")
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 20*time.Millisecond)
}

func TestBoundContextZeroPassesThrough(t *testing.T) {
	parent := context.Background()
	ctx, cancel := boundContext(parent, 0)
	defer cancel()

	_, ok := ctx.Deadline()
	assert.False(t, ok, "no timeout means no deadline")
	assert.Equal(t, parent, ctx)
}

func TestBoundContextKeepsTighterParentDeadline(t *testing.T) {
	parent, parentCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer parentCancel()

	ctx, cancel := boundContext(parent, time.Minute)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 20*time.Millisecond)
}
