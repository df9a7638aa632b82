package browser

import (
	"sync"

	"github.com/Domenick1991/ticketbari/internal/metrics"
)

// Ticket identifies one list request issued for a view.
type Ticket struct {
	view string
	seq  uint64
}

// Loader applies only the newest request per view. A response for a
// request superseded by a later Begin on the same view is discarded.
type Loader struct {
	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
}

func NewLoader() *Loader {
	return &Loader{latest: make(map[string]uint64)}
}

func (l *Loader) Begin(view string) Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.latest[view] = l.seq
	return Ticket{view: view, seq: l.seq}
}

// Finish reports whether t is still the newest request for its view.
func (l *Loader) Finish(t Ticket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.latest[t.view] != t.seq {
		metrics.StaleResult()
		return false
	}
	delete(l.latest, t.view)
	return true
}

// Pending returns the number of views with a request in flight.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.latest)
}
