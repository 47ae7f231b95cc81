package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CareOnboard/internal/model"
	"CareOnboard/internal/service"
	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/pkg/response"
)

// CreateOnboardingSession 新建引导会话
// POST /v1/onboarding/sessions
func CreateOnboardingSession(ctx context.Context, c *app.RequestContext) {
	result, err := service.Onboarding().Create(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, result)
}

// GetOnboardingSession 会话当前状态
// GET /v1/onboarding/sessions/:session_id
func GetOnboardingSession(ctx context.Context, c *app.RequestContext) {
	result, err := service.Onboarding().Get(ctx, c.Param("session_id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// SubmitPhone 提交手机号并下发验证码
// POST /v1/onboarding/sessions/:session_id/phone
func SubmitPhone(ctx context.Context, c *app.RequestContext) {
	var req model.SubmitPhoneRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Onboarding().SubmitPhone(ctx, c.Param("session_id"), req.PhoneNumber)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// SubmitCode 校验验证码，成功后返回令牌
// POST /v1/onboarding/sessions/:session_id/code
func SubmitCode(ctx context.Context, c *app.RequestContext) {
	var req model.SubmitCodeRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Onboarding().SubmitCode(ctx, c.Param("session_id"), req.Code)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// ReplaceStep 整体替换某一步的表单
// PUT /v1/onboarding/sessions/:session_id/steps/:step
func ReplaceStep(ctx context.Context, c *app.RequestContext) {
	body := c.Request.Body()
	if len(body) == 0 {
		response.Error(ctx, c, pkgerrors.InvalidRequest)
		return
	}

	result, err := service.Onboarding().ReplaceStep(ctx, c.Param("session_id"), c.Param("step"), body)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// NextStep 校验并前进
// POST /v1/onboarding/sessions/:session_id/next
func NextStep(ctx context.Context, c *app.RequestContext) {
	result, err := service.Onboarding().Next(ctx, c.Param("session_id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// PreviousStep POST /v1/onboarding/sessions/:session_id/back
func PreviousStep(ctx context.Context, c *app.RequestContext) {
	result, err := service.Onboarding().Back(ctx, c.Param("session_id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// GetOnboardingSummary 完成页汇总
// GET /v1/onboarding/sessions/:session_id/summary
func GetOnboardingSummary(ctx context.Context, c *app.RequestContext) {
	result, err := service.Onboarding().Summary(ctx, c.Param("session_id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// UploadAttachment multipart 上传，字段名 file
// POST /v1/onboarding/sessions/:session_id/attachments
func UploadAttachment(ctx context.Context, c *app.RequestContext) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	defer f.Close()

	result, err := service.Attachments().Save(ctx, c.Param("session_id"), fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, result)
}
