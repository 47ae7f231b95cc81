package errors

import (
	"fmt"
	"strings"
)

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 认证相关错误。
var (
	AuthCodeInvalid    = Definition{Code: "AUTH_CODE_INVALID", Message: "Auth code invalid"}
	Unauthorized       = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidUserID      = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	CaptchaRateLimited = Definition{Code: "CAPTCHA_RATE_LIMITED", Message: "Captcha rate limited"}
	TooManyRequests    = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
)

// 手机验证错误。
var (
	VerificationRequestFailed = Definition{Code: "VERIFICATION_REQUEST_FAILED", Message: "Failed to send verification code"}
	VerificationCheckFailed   = Definition{Code: "VERIFICATION_CHECK_FAILED", Message: "Verification code invalid or expired"}
	NoActiveSession           = Definition{Code: "NO_ACTIVE_SESSION", Message: "No active verification session"}
	VerificationInFlight      = Definition{Code: "VERIFICATION_IN_FLIGHT", Message: "A verification request is already in progress"}
	AlreadyVerified           = Definition{Code: "ALREADY_VERIFIED", Message: "Phone number already verified"}
)

// 引导流程错误。
var (
	ValidationFailed      = Definition{Code: "VALIDATION_FAILED", Message: "Required fields missing or invalid"}
	OnboardingStepInvalid = Definition{Code: "STEP_INVALID", Message: "Onboarding step invalid"}
	OnboardingStepLocked  = Definition{Code: "STEP_LOCKED", Message: "Onboarding step locked"}
	WizardCompleted       = Definition{Code: "WIZARD_COMPLETED", Message: "Onboarding already completed"}
	FieldCollision        = Definition{Code: "FIELD_COLLISION", Message: "Field owned by another step"}
	SessionNotFound       = Definition{Code: "SESSION_NOT_FOUND", Message: "Onboarding session not found"}
	SessionBusy           = Definition{Code: "SESSION_BUSY", Message: "Onboarding session is busy"}
	AttachmentInvalid     = Definition{Code: "ATTACHMENT_INVALID", Message: "Attachment invalid"}
	InvalidRequest        = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
)

// 工作台错误。
var (
	AlreadyClockedIn = Definition{Code: "ALREADY_CLOCKED_IN", Message: "Already clocked in"}
	NotClockedIn     = Definition{Code: "NOT_CLOCKED_IN", Message: "Not clocked in"}
	UserNotFound     = Definition{Code: "USER_NOT_FOUND", Message: "User not found"}
)

// 内部错误。
var (
	ErrTokenGeneratorNotInitialized = Definition{Code: "TOKEN_GENERATOR_NOT_INITIALIZED", Message: "Token generator not initialized"}
	ErrInvalidToken                 = Definition{Code: "INVALID_TOKEN", Message: "Invalid token"}
	ErrInvalidTokenClaims           = Definition{Code: "INVALID_TOKEN_CLAIMS", Message: "Invalid token claims"}
	ErrInvalidTokenType             = Definition{Code: "INVALID_TOKEN_TYPE", Message: "Invalid token type"}
	ErrUserIDNotFound               = Definition{Code: "USER_ID_NOT_FOUND", Message: "User ID not found in token"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	AuthCodeInvalid.Code:           AuthCodeInvalid,
	Unauthorized.Code:              Unauthorized,
	InvalidUserID.Code:             InvalidUserID,
	CaptchaRateLimited.Code:        CaptchaRateLimited,
	TooManyRequests.Code:           TooManyRequests,
	VerificationRequestFailed.Code: VerificationRequestFailed,
	VerificationCheckFailed.Code:   VerificationCheckFailed,
	NoActiveSession.Code:           NoActiveSession,
	VerificationInFlight.Code:      VerificationInFlight,
	AlreadyVerified.Code:           AlreadyVerified,
	ValidationFailed.Code:          ValidationFailed,
	OnboardingStepInvalid.Code:     OnboardingStepInvalid,
	OnboardingStepLocked.Code:      OnboardingStepLocked,
	WizardCompleted.Code:           WizardCompleted,
	FieldCollision.Code:            FieldCollision,
	SessionNotFound.Code:           SessionNotFound,
	SessionBusy.Code:               SessionBusy,
	AttachmentInvalid.Code:         AttachmentInvalid,
	InvalidRequest.Code:            InvalidRequest,
	AlreadyClockedIn.Code:          AlreadyClockedIn,
	NotClockedIn.Code:              NotClockedIn,
	UserNotFound.Code:              UserNotFound,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// ValidationError 某一步必填字段缺失或非法，Missing 按字段声明顺序
type ValidationError struct {
	Step    string
	Missing []string
}

func NewValidationError(step string, missing ...string) *ValidationError {
	return &ValidationError{Step: step, Missing: missing}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ValidationFailed.Message, e.Step, strings.Join(e.Missing, ", "))
}

// Is 让 errors.Is(err, ValidationFailed) 成立
func (e *ValidationError) Is(target error) bool {
	def, ok := target.(Definition)
	return ok && def.Code == ValidationFailed.Code
}

// Definition 返回对外暴露的错误码
func (e *ValidationError) Definition() Definition {
	return ValidationFailed
}
