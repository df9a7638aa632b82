// Package ticker runs one shared once-a-second clock that every live
// countdown subscribes to.
package ticker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"
)

type Ticker struct {
	clock    clock.Clock
	interval time.Duration

	mu   sync.Mutex
	next uint64
	subs map[uint64]chan time.Time
}

func New(clk clock.Clock, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		clock:    clk,
		interval: interval,
		subs:     make(map[uint64]chan time.Time),
	}
}

// Run ticks until ctx is done.
func (t *Ticker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			t.closeAll()
			return nil
		case now := <-t.clock.After(t.interval):
			t.broadcast(now)
		}
	}
}

// Subscribe returns a channel receiving every tick and a cancel func that
// must be called once the subscriber goes away. A slow subscriber misses
// ticks rather than delaying others.
func (t *Ticker) Subscribe() (<-chan time.Time, func()) {
	ch := make(chan time.Time, 1)

	t.mu.Lock()
	t.next++
	id := t.next
	t.subs[id] = ch
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if _, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(ch)
			}
		})
	}
}

func (t *Ticker) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

func (t *Ticker) Now() time.Time {
	return t.clock.Now()
}

func (t *Ticker) broadcast(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.subs {
		select {
		case ch <- now:
		default:
		}
	}
}

func (t *Ticker) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}
}

// Countdown formats the time left until departure as "1d 2h 3m 4s", or
// "Departed" once it has passed.
func Countdown(departure, now time.Time) string {
	d := departure.Sub(now)
	if d <= 0 {
		return "Departed"
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%dd %dh %dm %ds", secs/86400, secs/3600%24, secs/60%60, secs%60)
}
