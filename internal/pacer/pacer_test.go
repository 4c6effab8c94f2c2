package pacer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitEnforcesDelay(t *testing.T) {
	p := New(50 * time.Millisecond)
	ctx := context.Background()

	// First permit may be immediate (burst of one); the next two must each
	// wait out the interval.
	require.NoError(t, p.Wait(ctx))

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
}

func TestZeroDelayIsNoop(t *testing.T) {
	p := New(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestNilPacerIsSafe(t *testing.T) {
	var p *Pacer
	assert.NoError(t, p.Wait(context.Background()))
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	p := New(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, p.Wait(ctx)) // burst permit

	cancel()
	assert.Error(t, p.Wait(ctx))
}
