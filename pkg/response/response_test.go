package response

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"CareOnboard/pkg/errors"
)

func TestResolveStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errors.OnboardingStepLocked, http.StatusLocked, "STEP_LOCKED"},
		{errors.SessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{errors.Unauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{errors.CaptchaRateLimited, http.StatusTooManyRequests, "CAPTCHA_RATE_LIMITED"},
		{errors.VerificationInFlight, http.StatusConflict, "VERIFICATION_IN_FLIGHT"},
		{errors.WizardCompleted, http.StatusConflict, "WIZARD_COMPLETED"},
		{fmt.Errorf("%w: %w", errors.VerificationRequestFailed, stderrors.New("timeout")), http.StatusBadGateway, "VERIFICATION_REQUEST_FAILED"},
		{fmt.Errorf("%w: %w", errors.VerificationRequestFailed, fmt.Errorf("send code: %w", errors.CaptchaRateLimited)), http.StatusTooManyRequests, "CAPTCHA_RATE_LIMITED"},
		{fmt.Errorf("advance: %w", errors.FieldCollision), http.StatusConflict, "FIELD_COLLISION"},
		{stderrors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			status, detail := resolve(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, detail.Code)
		})
	}
}

func TestResolveValidationDetails(t *testing.T) {
	err := fmt.Errorf("advance: %w", errors.NewValidationError("details", "fullName", "agency"))

	status, detail := resolve(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", detail.Code)
	assert.Equal(t, "details", detail.Details["step"])
	assert.Equal(t, []string{"fullName", "agency"}, detail.Details["missing"])
}

func TestInternalErrorHidesMessage(t *testing.T) {
	_, detail := resolve(stderrors.New("dial tcp 10.0.0.1:5432: refused"))
	assert.NotContains(t, detail.Message, "10.0.0.1")
}
