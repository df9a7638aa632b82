// Package query models the state of an asynchronous remote read so callers
// can branch on it deterministically.
package query

type Status int

const (
	// Idle means the query is disabled, typically because an input it
	// depends on is not known yet.
	Idle Status = iota
	Loading
	Failed
	Ready
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Failed:
		return "failed"
	case Ready:
		return "ready"
	}
	return "unknown"
}

type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

func Disabled[T any]() Result[T] {
	return Result[T]{Status: Idle}
}

func Pending[T any]() Result[T] {
	return Result[T]{Status: Loading}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{Status: Failed, Err: err}
}

func Done[T any](v T) Result[T] {
	return Result[T]{Status: Ready, Value: v}
}

// Settled reports whether the query has a value or an error.
func (r Result[T]) Settled() bool {
	return r.Status == Ready || r.Status == Failed
}

// Of converts a (value, error) pair into a settled Result.
func Of[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Done(v)
}
