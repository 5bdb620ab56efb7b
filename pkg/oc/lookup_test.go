package oc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listPodsCommand = "oc get pods -n prod -o jsonpath={.items[*].metadata.name}"

func TestResolvePodName(t *testing.T) {
	ctx := context.Background()

	t.Run("exact match wins over prefix match", func(t *testing.T) {
		runner := NewStubRunner()
		runner.Script(listPodsCommand, &Result{ExitCode: 0, Stdout: "web-abc123 web"}, nil)

		name, toolErr := ResolvePodName(ctx, runner, "web", "prod", time.Second)
		require.Nil(t, toolErr)
		assert.Equal(t, "web", name)
	})

	t.Run("prefix match returns first in listing order", func(t *testing.T) {
		runner := NewStubRunner()
		runner.Script(listPodsCommand, &Result{ExitCode: 0, Stdout: "api-1 web-zzz web-aaa"}, nil)

		name, toolErr := ResolvePodName(ctx, runner, "web", "prod", time.Second)
		require.Nil(t, toolErr)
		assert.Equal(t, "web-zzz", name, "listing order decides, not lexicographic order")
	})

	t.Run("no match is a not-found error naming pod and namespace", func(t *testing.T) {
		runner := NewStubRunner()
		runner.Script(listPodsCommand, &Result{ExitCode: 0, Stdout: "api-1 api-2"}, nil)

		name, toolErr := ResolvePodName(ctx, runner, "web", "prod", time.Second)
		require.NotNil(t, toolErr)
		assert.Empty(t, name)
		assert.Equal(t, models.ErrorKindNotFound, toolErr.Kind)
		assert.Contains(t, toolErr.Message, "'web'")
		assert.Contains(t, toolErr.Message, "'prod'")
	})

	t.Run("listing failure falls back to partial name", func(t *testing.T) {
		runner := NewStubRunner()
		runner.Script(listPodsCommand, &Result{ExitCode: 1, Stderr: "some transient failure"}, nil)

		name, toolErr := ResolvePodName(ctx, runner, "web", "prod", time.Second)
		require.Nil(t, toolErr)
		assert.Equal(t, "web", name)
	})

	t.Run("listing timeout is a distinct timeout error", func(t *testing.T) {
		runner := NewStubRunner()
		runner.Script(listPodsCommand, nil, ErrTimedOut)

		name, toolErr := ResolvePodName(ctx, runner, "web", "prod", time.Second)
		require.NotNil(t, toolErr)
		assert.Empty(t, name)
		assert.Equal(t, models.ErrorKindTimeout, toolErr.Kind)
		assert.Equal(t, "Timeout finding pod web", toolErr.Message)
		assert.True(t, toolErr.Recoverable)
	})

	t.Run("spawn failure is an unknown error", func(t *testing.T) {
		runner := NewStubRunner()
		runner.Script(listPodsCommand, nil, errors.New("exec: oc: not found"))

		name, toolErr := ResolvePodName(ctx, runner, "web", "prod", time.Second)
		require.NotNil(t, toolErr)
		assert.Empty(t, name)
		assert.Equal(t, models.ErrorKindUnknown, toolErr.Kind)
		assert.Contains(t, toolErr.Message, "Error finding pod")
	})
}
