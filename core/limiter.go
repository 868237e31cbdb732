package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCallBudgetExhausted is returned by CallLimiter.Increment once a game's
// budget is spent.
var ErrCallBudgetExhausted = errors.New("call budget exhausted")

// CallLimiter caps the expensive decisions (model calls) a strategy may make
// in one game. Refused calls are tallied separately and do not count
// against the budget.
type CallLimiter struct {
	max     int
	used    int
	refused int
	mu      sync.Mutex
}

// NewCallLimiter creates a limiter allowing max calls per game.
// If max == 0, unlimited calls are allowed.
func NewCallLimiter(max int) *CallLimiter {
	return &CallLimiter{max: max}
}

// Increment reserves one call, or returns ErrCallBudgetExhausted.
func (cl *CallLimiter) Increment() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.max > 0 && cl.used >= cl.max {
		cl.refused++
		return fmt.Errorf("%w: %d calls per game", ErrCallBudgetExhausted, cl.max)
	}
	cl.used++
	return nil
}

// Count returns the number of calls granted this game.
func (cl *CallLimiter) Count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.used
}

// Refused returns the number of calls denied this game.
func (cl *CallLimiter) Refused() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.refused
}

// Remaining returns how many calls are left, or -1 when unlimited.
func (cl *CallLimiter) Remaining() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.max == 0 {
		return -1
	}
	return cl.max - cl.used
}

// Reset starts a new game's budget; strategies call it from NewGame.
func (cl *CallLimiter) Reset() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.used, cl.refused = 0, 0
}
