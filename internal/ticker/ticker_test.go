package ticker

import (
	"context"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdown(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "1d 2h 3m 4s", Countdown(now.Add(26*time.Hour+3*time.Minute+4*time.Second), now))
	assert.Equal(t, "0d 0h 0m 0s", Countdown(now.Add(500*time.Millisecond), now))
	assert.Equal(t, "Departed", Countdown(now, now))
	assert.Equal(t, "Departed", Countdown(now.Add(-time.Hour), now))
}

func TestTicker_SharedTimer(t *testing.T) {
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	clk := testclock.NewClock(start)
	tk := New(clk, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tk.Run(ctx) }()

	a, cancelA := tk.Subscribe()
	b, cancelB := tk.Subscribe()
	assert.Equal(t, 2, tk.Subscribers())

	// One waiter regardless of subscriber count.
	require.NoError(t, clk.WaitAdvance(time.Second, time.Second, 1))
	assert.Equal(t, start.Add(time.Second), <-a)
	assert.Equal(t, start.Add(time.Second), <-b)

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, tk.Subscribers())

	cancel()
	require.NoError(t, <-done)
	_, open = <-b
	assert.False(t, open)
	cancelB()
	assert.Equal(t, 0, tk.Subscribers())
}
