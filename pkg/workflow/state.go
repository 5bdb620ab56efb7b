package workflow

import (
	"sync"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

// Store holds the shared workflow state for one run and serializes writes.
//
// Edits run one at a time and commit atomically when the edit function
// returns; a panic inside the edit function leaves the last committed state
// in place. Reads never observe a half-applied edit. Like the budget, a
// Store belongs to exactly one run.
type Store struct {
	mu    sync.Mutex
	state models.WorkflowState
}

// NewStore creates an empty store for a fresh run.
func NewStore() *Store {
	return &Store{}
}

// Edit applies fn to a draft of the state and commits the draft when fn
// returns. Concurrent editors block until the current edit commits.
func (s *Store) Edit(fn func(*models.WorkflowState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft := s.state.Clone()
	fn(&draft)
	s.state = draft
}

// Snapshot returns a deep copy of the last committed state.
func (s *Store) Snapshot() models.WorkflowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Reset discards all accumulated state. Used between retry passes when the
// run is configured for clean-slate retries.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = models.WorkflowState{}
}
