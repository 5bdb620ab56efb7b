package oc

import (
	"context"
	"sync"
	"time"
)

// StubRunner returns scripted results keyed by the rendered command string
// and records every invocation in order. The real process-backed
// implementation is ExecRunner.
type StubRunner struct {
	mu        sync.Mutex
	responses map[string]stubResponse
	calls     []string

	// DefaultResult is returned for commands with no scripted response.
	// When nil, unscripted commands succeed with exit code 0 and no output.
	DefaultResult *Result
	// DefaultErr, when set, is returned for commands with no scripted response.
	DefaultErr error
}

type stubResponse struct {
	result *Result
	err    error
}

// NewStubRunner creates a stub with no scripted responses.
func NewStubRunner() *StubRunner {
	return &StubRunner{responses: make(map[string]stubResponse)}
}

// Script registers the result returned when the given command runs.
func (s *StubRunner) Script(command string, result *Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[command] = stubResponse{result: result, err: err}
}

// Run returns the scripted response for argv, or the default.
func (s *StubRunner) Run(_ context.Context, argv []string, _ time.Duration) (*Result, error) {
	command := CommandString(argv)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, command)

	if resp, ok := s.responses[command]; ok {
		return resp.result, resp.err
	}
	if s.DefaultErr != nil {
		return nil, s.DefaultErr
	}
	if s.DefaultResult != nil {
		res := *s.DefaultResult
		return &res, nil
	}
	return &Result{ExitCode: 0}, nil
}

// Calls returns the commands run so far, in order.
func (s *StubRunner) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
