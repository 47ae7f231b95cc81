package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

type httpInstruments struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	reqSize  metric.Int64Histogram
	respSize metric.Int64Histogram
	active   metric.Int64UpDownCounter
}

// 未 InitMetrics 时用 noop，测试里可以直接挂中间件
var httpMetrics = mustInstruments(noop.NewMeterProvider().Meter("noop"))

// InitMetrics 在 otel MeterProvider 就绪后调用
func InitMetrics(meter metric.Meter) error {
	m, err := newInstruments(meter)
	if err != nil {
		return err
	}
	httpMetrics = m
	return nil
}

func newInstruments(meter metric.Meter) (httpInstruments, error) {
	var (
		m   httpInstruments
		err error
	)
	if m.requests, err = meter.Int64Counter("http.server.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}")); err != nil {
		return m, err
	}
	if m.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15)); err != nil {
		return m, err
	}
	if m.reqSize, err = meter.Int64Histogram("http.server.request.size",
		metric.WithDescription("HTTP request body size"),
		metric.WithUnit("By")); err != nil {
		return m, err
	}
	if m.respSize, err = meter.Int64Histogram("http.server.response.size",
		metric.WithDescription("HTTP response body size"),
		metric.WithUnit("By")); err != nil {
		return m, err
	}
	m.active, err = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"))
	return m, err
}

func mustInstruments(meter metric.Meter) httpInstruments {
	m, err := newInstruments(meter)
	if err != nil {
		panic(err)
	}
	return m
}

// clean 清洗用户可控字符串，非法 UTF-8 会让导出失败
func clean(val string) string {
	return strings.ToValidUTF8(val, "")
}

// routeLabel 用注册时的模板（如 /v1/onboarding/sessions/:session_id），会话 id 不进指标
func routeLabel(c *app.RequestContext) string {
	if r := c.FullPath(); r != "" {
		return clean(r)
	}
	return "unmatched"
}

// OpenTelemetryMiddleware 请求级 span 和 HTTP 指标
func OpenTelemetryMiddleware() app.HandlerFunc {
	tracer := otel.Tracer("careonboard-http")

	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		m := httpMetrics

		m.active.Add(ctx, 1)
		defer m.active.Add(ctx, -1)

		method := clean(string(c.Method()))
		route := routeLabel(c)

		spanCtx, span := tracer.Start(ctx, method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(method),
				semconv.HTTPRoute(route),
				semconv.HTTPScheme(clean(string(c.Request.URI().Scheme()))),
				attribute.String("http.host", clean(string(c.Host()))),
				attribute.String("http.user_agent", clean(string(c.UserAgent()))),
			))
		defer span.End()

		if rid := c.GetHeader("X-Request-Id"); len(rid) > 0 {
			span.SetAttributes(attribute.String("http.request_id", clean(string(rid))))
		}
		// 会话 id 只进 span，方便按会话查链路
		if sid := c.Param("session_id"); sid != "" {
			span.SetAttributes(attribute.String("onboarding.session_id", clean(sid)))
		}

		c.Next(spanCtx)

		// 鉴权中间件在后面执行，结束后才能拿到用户
		if uid, ok := GetUserID(spanCtx, c); ok {
			span.SetAttributes(attribute.String("enduser.id", clean(uid)))
		}

		status := c.Response.StatusCode()
		elapsed := time.Since(start).Seconds()
		span.SetAttributes(semconv.HTTPStatusCode(status))

		switch {
		case status >= 500:
			span.SetStatus(codes.Error, "server error")
			if last := c.Errors.Last(); last != nil {
				span.RecordError(last)
			}
		case status >= 400:
			span.SetStatus(codes.Error, "client error")
		default:
			span.SetStatus(codes.Ok, "")
		}

		labels := metric.WithAttributes(
			semconv.HTTPMethod(method),
			semconv.HTTPRoute(route),
			semconv.HTTPStatusCode(status),
		)
		m.requests.Add(ctx, 1, labels)
		m.duration.Record(ctx, elapsed, labels)
		if n := int64(c.Request.Header.ContentLength()); n > 0 {
			m.reqSize.Record(ctx, n, labels)
		}
		if n := int64(len(c.Response.Body())); n > 0 {
			m.respSize.Record(ctx, n, labels)
		}
	}
}

// NewServerTracerConfig hertz 自带的 server tracer，返回 server 选项和配套中间件
func NewServerTracerConfig(opts ...hertztracing.Option) (config.Option, app.HandlerFunc) {
	tracer, cfg := hertztracing.NewServerTracer(opts...)
	return tracer, hertztracing.ServerMiddleware(cfg)
}
