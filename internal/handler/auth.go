package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CareOnboard/internal/auth"
	"CareOnboard/internal/middleware"
	"CareOnboard/internal/model"
	"CareOnboard/internal/service"
	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/pkg/response"
)

// RefreshToken 刷新访问令牌
// POST /v1/auth/token/refresh
func RefreshToken(ctx context.Context, c *app.RequestContext) {
	var req model.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Auth().Refresh(ctx, req.RefreshToken)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// SignOut 登出，refresh token 失效
// POST /v1/auth/sign-out
func SignOut(ctx context.Context, c *app.RequestContext) {
	sess, ok := currentSession(ctx, c)
	if !ok {
		return
	}

	if err := service.Auth().SignOut(ctx, sess); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// currentSession 用 JWT 里的 uid 恢复登录态，失败时已写响应
func currentSession(ctx context.Context, c *app.RequestContext) (*auth.Session, bool) {
	uid, exists := middleware.GetUserID(ctx, c)
	if !exists {
		response.Error(ctx, c, pkgerrors.Unauthorized)
		return nil, false
	}

	sess, err := service.Auth().SessionFor(ctx, uid)
	if err != nil {
		response.Error(ctx, c, err)
		return nil, false
	}
	return sess, true
}
