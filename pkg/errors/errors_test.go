package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefinitionMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("gate: %w", NoActiveSession)

	assert.True(t, stderrors.Is(err, NoActiveSession))
	assert.False(t, stderrors.Is(err, VerificationCheckFailed))

	var def Definition
	assert.True(t, stderrors.As(err, &def))
	assert.Equal(t, "NO_ACTIVE_SESSION", def.Code)
}

func TestValidationErrorIsValidationFailed(t *testing.T) {
	err := fmt.Errorf("submit: %w", NewValidationError("wages", "hours12", "hours24"))

	assert.True(t, stderrors.Is(err, ValidationFailed))
	assert.False(t, stderrors.Is(err, NoActiveSession))

	var verr *ValidationError
	assert.True(t, stderrors.As(err, &verr))
	assert.Equal(t, []string{"hours12", "hours24"}, verr.Missing)
	assert.Contains(t, verr.Error(), "wages")
}

func TestGetUnknownCode(t *testing.T) {
	assert.Equal(t, SessionNotFound, Get("SESSION_NOT_FOUND"))
	assert.Equal(t, "Unexpected error", Get("NOPE").Message)
}
