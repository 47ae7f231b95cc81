package middleware

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"CareOnboard/pkg/errors"
	"CareOnboard/pkg/logger"
	"CareOnboard/pkg/response"
)

// RecoverConfig recover 中间件配置
type RecoverConfig struct {
	// 堆栈追踪级别（full, simple, none）
	StackTraceLevel string
	// 是否记录请求头和小请求体
	LogRequestDetails bool
	// 是否在 span 中记录异常
	RecordInSpan bool
	// 生产环境不向客户端暴露 panic 内容
	IsProduction bool
}

func NewRecoverConfig(isProduction bool) RecoverConfig {
	return RecoverConfig{
		StackTraceLevel:   "simple",
		LogRequestDetails: !isProduction,
		RecordInSpan:      true,
		IsProduction:      isProduction,
	}
}

// DefaultRecoverConfig 由 Init 按环境重建
var DefaultRecoverConfig = NewRecoverConfig(true)

func RecoverMiddleware() app.HandlerFunc {
	return RecoverMiddlewareWithConfig(DefaultRecoverConfig)
}

func RecoverMiddlewareWithConfig(cfg RecoverConfig) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				handlePanic(ctx, c, err, cfg)
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, err interface{}, cfg RecoverConfig) {
	stack := getStackTrace(cfg.StackTraceLevel)

	logPanicWithRequest(ctx, c, err, stack, cfg)

	if cfg.RecordInSpan {
		span := trace.SpanFromContext(ctx)
		span.RecordError(fmt.Errorf("panic: %v", err), trace.WithStackTrace(false))
		span.SetStatus(codes.Error, "panic recovered")
	}

	writeErrorResponse(ctx, c, err, stack, cfg)
}

func writeErrorResponse(ctx context.Context, c *app.RequestContext, err interface{}, stack []byte, cfg RecoverConfig) {
	errDef := errors.Definition{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "Internal server error, please retry later",
	}
	if cfg.IsProduction {
		response.Error(ctx, c, errDef)
		c.Abort()
		return
	}

	errDef.Message = fmt.Sprintf("Internal error: %v", err)
	response.ErrorWithDetails(ctx, c, errDef, map[string]interface{}{
		"panic":     fmt.Sprintf("%v", err),
		"timestamp": time.Now().Format(time.RFC3339),
		"stack":     string(stack),
	})
	c.Abort()
}

func getStackTrace(level string) []byte {
	var buf bytes.Buffer

	switch level {
	case "full":
		buf.Write(debug.Stack())
	case "simple":
		buf.WriteString("goroutine panic:\n")
		// 跳过 runtime 和 recover 自身的栈帧
		for i := 3; ; i++ {
			pc, file, line, ok := runtime.Caller(i)
			if !ok {
				break
			}
			fn := runtime.FuncForPC(pc)
			if fn == nil {
				continue
			}
			if strings.Contains(file, "/runtime/") {
				continue
			}
			fmt.Fprintf(&buf, "  %s:%d\n    %s\n", file, line, fn.Name())
		}
	}

	return buf.Bytes()
}

func logPanicWithRequest(ctx context.Context, c *app.RequestContext, err interface{}, stack []byte, cfg RecoverConfig) {
	fields := []zap.Field{
		zap.String("panic", fmt.Sprintf("%v", err)),
		zap.String("path", string(c.Path())),
		zap.String("method", string(c.Method())),
		zap.String("client_ip", c.ClientIP()),
		zap.String("user_agent", string(c.UserAgent())),
	}

	requestID := string(c.GetHeader("X-Request-ID"))
	if requestID == "" {
		requestID = string(c.GetHeader("X-Trace-ID"))
	}
	fields = append(fields, zap.String("request_id", requestID))

	if userID, exists := GetUserID(ctx, c); exists {
		fields = append(fields, zap.String("user_id", userID))
	}

	if cfg.LogRequestDetails {
		headers := make(map[string]string)
		c.Request.Header.VisitAll(func(key, value []byte) {
			// 令牌不落日志
			if strings.EqualFold(string(key), "Authorization") {
				return
			}
			headers[string(key)] = string(value)
		})
		fields = append(fields, zap.Any("headers", headers))

		body := c.Request.Body()
		if len(body) > 0 && len(body) < 1024 && !strings.Contains(string(c.ContentType()), "multipart") {
			fields = append(fields, zap.ByteString("body", body))
		}
	}

	if len(stack) > 0 {
		fields = append(fields, zap.ByteString("stack", stack))
	}

	logger.Logger.Error("[PANIC RECOVERED]", fields...)
}
