package workflow

import (
	"errors"
	"fmt"
	"sync"
)

// BudgetExceededError is returned by Budget.CheckAndIncrement once the
// tool-call budget is spent. Its message is the forcing signal handed back to
// the investigation collaborator: stop gathering context and submit a plan.
type BudgetExceededError struct {
	Max  int
	Used int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf(
		"investigation tool budget of %d exhausted (%d calls made): stop investigating and submit a remediation plan",
		e.Max, e.Used)
}

// IsBudgetExceeded checks if an error is a budget exhaustion signal.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}

// Budget bounds how many investigation tool calls one workflow run may make
// before a plan must be produced. Every investigation-style call shares the
// one counter; it is not a per-tool limit.
//
// One Budget instance belongs to exactly one run. Sharing an instance across
// concurrent runs would let one alert's investigation starve another's.
type Budget struct {
	mu   sync.Mutex
	max  int
	used int
}

// NewBudget creates a budget allowing max tool calls per run.
func NewBudget(max int) *Budget {
	if max < 0 {
		max = 0
	}
	return &Budget{max: max}
}

// CheckAndIncrement consumes one budget slot. The check happens strictly
// before the caller's operation runs: on exhaustion it returns
// *BudgetExceededError and the counter is left untouched, so the rejected
// operation must never execute.
func (b *Budget) CheckAndIncrement() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used >= b.max {
		return &BudgetExceededError{Max: b.max, Used: b.used}
	}
	b.used++
	return nil
}

// Reset returns the counter to zero. Called when a new run begins and again
// whenever a plan is accepted, renewing the budget for any replanning.
func (b *Budget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used = 0
}

// Used returns the number of consumed slots.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Remaining returns how many calls are still allowed.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used >= b.max {
		return 0
	}
	return b.max - b.used
}
