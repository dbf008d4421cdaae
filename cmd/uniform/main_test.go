package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artpar/uniform/internal/core/domain"
	"github.com/artpar/uniform/internal/shell/store"
)

func TestExitCode(t *testing.T) {
	ioErr := domain.NewIOError("read", "/x", errors.New("denied"))

	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitFailure, exitCode(errors.New("boom")))
	assert.Equal(t, ExitConfigError, exitCode(domain.NewConfigError("/x", "cannot read", ioErr)))
	assert.Equal(t, ExitReferenceError, exitCode(domain.NewReferenceError("lookup", "service", "web", nil)))
	assert.Equal(t, ExitStateError, exitCode(domain.NewStateError("exec", "php", "is a template", nil)))
	assert.Equal(t, ExitExternalToolError, exitCode(domain.NewExternalToolError([]string{"docker"}, 1, "", nil)))
	assert.Equal(t, ExitIOError, exitCode(ioErr))
	assert.Equal(t, ExitCycleError, exitCode(&domain.CycleError{Path: []string{"a", "a"}}))
	assert.Equal(t, ExitIOError, exitCode(store.NewStoreError("NewSQLiteStore", "", "", "failed to ping database", store.ErrConnectionFailed)))
}

func TestExitCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("start web: %w", domain.NewStateError("exec", "web", "no user", nil))
	assert.Equal(t, ExitStateError, exitCode(err))
}
