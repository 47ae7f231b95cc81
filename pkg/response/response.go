package response

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"CareOnboard/pkg/errors"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

var statusByCode = map[string]int{
	errors.ValidationFailed.Code:        http.StatusBadRequest,
	errors.OnboardingStepInvalid.Code:   http.StatusBadRequest,
	errors.AttachmentInvalid.Code:       http.StatusBadRequest,
	errors.AuthCodeInvalid.Code:         http.StatusBadRequest,
	errors.VerificationCheckFailed.Code: http.StatusBadRequest,
	errors.InvalidUserID.Code:           http.StatusBadRequest,
	errors.InvalidRequest.Code:          http.StatusBadRequest,

	errors.Unauthorized.Code:          http.StatusUnauthorized,
	errors.ErrInvalidToken.Code:       http.StatusUnauthorized,
	errors.ErrInvalidTokenClaims.Code: http.StatusUnauthorized,
	errors.ErrInvalidTokenType.Code:   http.StatusUnauthorized,
	errors.ErrUserIDNotFound.Code:     http.StatusUnauthorized,

	errors.SessionNotFound.Code: http.StatusNotFound,
	errors.UserNotFound.Code:    http.StatusNotFound,

	errors.NoActiveSession.Code:      http.StatusConflict,
	errors.VerificationInFlight.Code: http.StatusConflict,
	errors.AlreadyVerified.Code:      http.StatusConflict,
	errors.WizardCompleted.Code:      http.StatusConflict,
	errors.FieldCollision.Code:       http.StatusConflict,
	errors.SessionBusy.Code:          http.StatusConflict,
	errors.AlreadyClockedIn.Code:     http.StatusConflict,
	errors.NotClockedIn.Code:         http.StatusConflict,

	errors.OnboardingStepLocked.Code: http.StatusLocked,

	errors.CaptchaRateLimited.Code: http.StatusTooManyRequests,
	errors.TooManyRequests.Code:    http.StatusTooManyRequests,

	errors.VerificationRequestFailed.Code: http.StatusBadGateway,
}

// 限流错误即使被外层包装也按 429 返回，客户端据此退避
var throttled = []errors.Definition{errors.CaptchaRateLimited, errors.TooManyRequests}

// resolve 从错误链里找出对外的错误码，找不到按内部错误处理
func resolve(err error) (int, ErrorDetail) {
	var verr *errors.ValidationError
	if stderrors.As(err, &verr) {
		def := verr.Definition()
		return http.StatusBadRequest, ErrorDetail{
			Code:    def.Code,
			Message: def.Message,
			Details: map[string]interface{}{
				"step":    verr.Step,
				"missing": verr.Missing,
			},
		}
	}

	for _, d := range throttled {
		if stderrors.Is(err, d) {
			return http.StatusTooManyRequests, ErrorDetail{Code: d.Code, Message: d.Message}
		}
	}

	var def errors.Definition
	if stderrors.As(err, &def) {
		status, ok := statusByCode[def.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		return status, ErrorDetail{Code: def.Code, Message: def.Message}
	}

	return http.StatusInternalServerError, ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
	}
}

// Error 返回错误响应
func Error(ctx context.Context, c *app.RequestContext, err error) {
	status, detail := resolve(err)
	c.JSON(status, ErrorResponse{Error: detail})
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	status, detail := resolve(err)
	if detail.Details == nil {
		detail.Details = details
	} else {
		for k, v := range details {
			detail.Details[k] = v
		}
	}
	c.JSON(status, ErrorResponse{Error: detail})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

func Created(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data: data,
	})
}

func SuccessWithMeta(ctx context.Context, c *app.RequestContext, data interface{}, meta map[string]interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}

// NoContent 返回 204 No Content
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
