package refresh

import (
	"errors"
	"fmt"
)

// ErrReset is returned by Run if the reset primitive returns
var ErrReset = errors.New("refresh: device reset requested")

// Kind classifies the step a cycle failed in
type Kind int

const (
	KindSync Kind = iota + 1
	KindFetch
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindFetch:
		return "fetch"
	case KindRender:
		return "render"
	default:
		return "unknown"
	}
}

// CycleError is one failed refresh cycle. Every kind is handled the same
// way by the loop; Kind only feeds diagnostics.
type CycleError struct {
	Kind Kind
	Err  error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Kind, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

// asCycleError folds any error from a cycle step into a *CycleError
func asCycleError(kind Kind, err error) *CycleError {
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce
	}
	return &CycleError{Kind: kind, Err: err}
}
