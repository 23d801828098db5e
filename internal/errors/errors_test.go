package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "grammar", err: &GrammarError{Header: "bad"}, sentinel: ErrGrammar},
		{name: "length", err: &LengthError{Limit: 10, Actual: 12}, sentinel: ErrLength},
		{name: "precondition", err: NewPreconditionError("brew", "GITHUB_TOKEN is not set"), sentinel: ErrPrecondition},
		{name: "io", err: &IOError{Op: "fetch", Path: "https://example.com", Status: 404}, sentinel: ErrIO},
		{name: "remote", err: &RemoteAPIError{Service: "github", Op: "create release", Status: 422}, sentinel: ErrRemoteAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("context: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.sentinel))

			phased := &PhaseError{Phase: "publish", Target: "github", Err: wrapped}
			assert.True(t, errors.Is(phased, tt.sentinel))
		})
	}
}

func TestLengthErrorMessage(t *testing.T) {
	err := &LengthError{Limit: 120, Actual: 131}

	assert.Equal(t, 11, err.Overflow())
	assert.Equal(t, "header must not be longer than 120 characters, current length is 131 (11 over)", err.Error())
}

func TestIOErrorMessage(t *testing.T) {
	err := &IOError{Op: "fetch", Path: "https://example.com/a.tar.gz", Status: 500}
	assert.Equal(t, "fetch https://example.com/a.tar.gz: status code 500", err.Error())

	inner := errors.New("no such file")
	err = &IOError{Op: "read", Path: "formula.rb", Err: inner}
	assert.Equal(t, "read formula.rb: no such file", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestPhaseErrorMessage(t *testing.T) {
	err := &PhaseError{Phase: "prepare", Target: "brew", Err: errors.New("boom")}
	assert.Equal(t, "prepare [brew]: boom", err.Error())

	err = &PhaseError{Phase: "analyzeCommits", Err: errors.New("boom")}
	assert.Equal(t, "analyzeCommits: boom", err.Error())
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, Wrapf(nil, "ignored %d", 1))

	err := Wrapf(ErrConfig, "key %s", "release.targets")
	assert.EqualError(t, err, "key release.targets: invalid configuration")
	assert.ErrorIs(t, err, ErrConfig)
}
