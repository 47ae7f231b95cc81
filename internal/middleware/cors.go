package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const (
	corsAllowMethods   = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders   = "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID"
	corsExposeHeaders  = "Content-Length, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset"
	corsPreflightCache = "86400"
)

// CORSMiddleware 引导页是独立前端；allowed 为空时回显任意 Origin
func CORSMiddleware(allowed []string) app.HandlerFunc {
	allow := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allow[o] = struct{}{}
		}
	}

	return func(ctx context.Context, c *app.RequestContext) {
		origin := string(c.Request.Header.Peek("Origin"))
		preflight := string(c.Method()) == consts.MethodOptions

		if origin != "" && originAllowed(allow, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Expose-Headers", corsExposeHeaders)
			if preflight {
				c.Header("Access-Control-Allow-Methods", corsAllowMethods)
				c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
				c.Header("Access-Control-Max-Age", corsPreflightCache)
			}
		}
		c.Header("Vary", "Origin")

		if preflight {
			c.AbortWithStatus(consts.StatusNoContent)
			return
		}
		c.Next(ctx)
	}
}

func originAllowed(allow map[string]struct{}, origin string) bool {
	if len(allow) == 0 {
		return true
	}
	_, ok := allow[origin]
	return ok
}
