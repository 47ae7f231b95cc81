package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"

	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/pkg/response"
	"CareOnboard/pkg/token"
)

const IdentityKey = token.IdentityKey

var authMiddleware *jwt.HertzJWTMiddleware

func initAuthMiddleware() error {
	// 签发和校验共用 token 包里的密钥与时长
	gen := token.GetGenerator()
	if gen == nil {
		return fmt.Errorf("token generator not initialized, call token.Init() first")
	}

	mw, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "CareOnboard API",
		Key:         gen.Key,
		Timeout:     gen.Timeout,
		MaxRefresh:  gen.MaxRefresh,
		IdentityKey: gen.IdentityKey,
		TimeFunc:    gen.TimeFunc,

		IdentityHandler: identityFromClaims,
		// refresh token 只能换新令牌，不能直接访问接口
		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			uid, ok := data.(string)
			return ok && uid != ""
		},
		Unauthorized: unauthorized,

		TokenLookup:   "header: Authorization, query: token",
		TokenHeadName: "Bearer",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize auth middleware: %w", err)
	}

	authMiddleware = mw
	return nil
}

func identityFromClaims(ctx context.Context, c *app.RequestContext) interface{} {
	claims := jwt.ExtractClaims(ctx, c)
	if typ, _ := claims["type"].(string); typ == "refresh" {
		return nil
	}
	uid, ok := claims[IdentityKey].(string)
	if !ok || uid == "" {
		return nil
	}
	return uid
}

// 中间件给的 403 也统一成 401，前端只需要处理一种重新登录
func unauthorized(ctx context.Context, c *app.RequestContext, code int, message string) {
	def := pkgerrors.Unauthorized
	if code == http.StatusForbidden {
		def = pkgerrors.ErrInvalidTokenType
	}
	c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: response.ErrorDetail{
		Code:    def.Code,
		Message: message,
	}})
}

func AuthMiddleware() app.HandlerFunc {
	if authMiddleware == nil {
		panic("AuthMiddleware not initialized, call Init() first")
	}
	return authMiddleware.MiddlewareFunc()
}

// GetUserID 取 jwt 中间件写入的 uid（手机号哈希）
func GetUserID(ctx context.Context, c *app.RequestContext) (string, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
