package oc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_Run(t *testing.T) {
	ctx := context.Background()
	runner := ExecRunner{}

	t.Run("successful command captures stdout", func(t *testing.T) {
		result, err := runner.Run(ctx, []string{"echo", "hello"}, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 0, result.ExitCode)
		assert.Equal(t, "hello\n", result.Stdout)
		assert.Empty(t, result.Stderr)
	})

	t.Run("non-zero exit is data not an error", func(t *testing.T) {
		result, err := runner.Run(ctx, []string{"sh", "-c", "echo out; echo err >&2; exit 3"}, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 3, result.ExitCode)
		assert.Equal(t, "out\n", result.Stdout)
		assert.Equal(t, "err\n", result.Stderr)
	})

	t.Run("timeout returns ErrTimedOut", func(t *testing.T) {
		start := time.Now()
		result, err := runner.Run(ctx, []string{"sleep", "10"}, 100*time.Millisecond)
		require.ErrorIs(t, err, ErrTimedOut)
		assert.Nil(t, result)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("missing binary is an error but not a timeout", func(t *testing.T) {
		result, err := runner.Run(ctx, []string{"definitely-not-a-real-binary-xyz"}, time.Second)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrTimedOut)
		assert.Nil(t, result)
	})

	t.Run("empty argv is rejected", func(t *testing.T) {
		result, err := runner.Run(ctx, nil, time.Second)
		require.Error(t, err)
		assert.Nil(t, result)
	})
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "oc get pods -n prod", CommandString([]string{"oc", "get", "pods", "-n", "prod"}))
	assert.Equal(t, "", CommandString(nil))
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		expected []string
	}{
		{
			name:     "simple command",
			command:  "oc get pods",
			expected: []string{"oc", "get", "pods"},
		},
		{
			name:     "collapses repeated whitespace",
			command:  "oc   get \t pods",
			expected: []string{"oc", "get", "pods"},
		},
		{
			name:     "leading and trailing whitespace",
			command:  "  oc get pods  ",
			expected: []string{"oc", "get", "pods"},
		},
		{
			name:    "single-quoted JSON payload stays one argument",
			command: `oc patch deployment payments -n prod -p '{"spec": {"replicas": 3}}'`,
			expected: []string{
				"oc", "patch", "deployment", "payments", "-n", "prod",
				"-p", `{"spec": {"replicas": 3}}`,
			},
		},
		{
			name:     "double-quoted argument with spaces",
			command:  `oc annotate pod web-abc note="restarted by remedy"`,
			expected: []string{"oc", "annotate", "pod", "web-abc", "note=restarted by remedy"},
		},
		{
			name:     "unbalanced quote falls back to whitespace fields",
			command:  `oc patch deployment payments -p '{"spec":`,
			expected: []string{"oc", "patch", "deployment", "payments", "-p", `'{"spec":`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitCommand(tt.command))
		})
	}

	assert.Empty(t, SplitCommand(""))
	assert.Empty(t, SplitCommand("   "))
}

func TestCompactOutput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "squeezes column padding per line",
			input:    "NAME        READY   STATUS\nweb-abc     1/1     Running",
			expected: "NAME READY STATUS\nweb-abc 1/1 Running",
		},
		{
			name:     "preserves line structure and trims outer whitespace",
			input:    "a  b\nc  d\n",
			expected: "a b\nc d",
		},
		{
			name:     "trims per-line edges",
			input:    "  a b  ",
			expected: "a b",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompactOutput(tt.input))
		})
	}
}
