package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics 引导流程相关指标
type Metrics struct {
	VerificationRequests metric.Int64Counter
	VerificationChecks   metric.Int64Counter
	VerificationDuration metric.Float64Histogram
	StepAdvances         metric.Int64Counter
	StepRejections       metric.Int64Counter
	Submissions          metric.Int64Counter
	SMSSent              metric.Int64Counter
}

var (
	metrics *Metrics
	once    sync.Once
	initErr error
)

// Init 在全局 MeterProvider 设置后调用；未设置时得到 noop 指标
func Init() error {
	once.Do(func() {
		metrics, initErr = newMetrics(otel.Meter("careonboard"))
	})
	return initErr
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.VerificationRequests, err = meter.Int64Counter("verification_requests_total",
		metric.WithDescription("Verification code requests by result"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.VerificationChecks, err = meter.Int64Counter("verification_checks_total",
		metric.WithDescription("Verification code checks by result"),
		metric.WithUnit("{check}"),
	); err != nil {
		return nil, err
	}
	if m.VerificationDuration, err = meter.Float64Histogram("verification_duration_seconds",
		metric.WithDescription("Time spent in the identity provider"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.StepAdvances, err = meter.Int64Counter("onboarding_step_advances_total",
		metric.WithDescription("Completed onboarding steps"),
		metric.WithUnit("{step}"),
	); err != nil {
		return nil, err
	}
	if m.StepRejections, err = meter.Int64Counter("onboarding_step_rejections_total",
		metric.WithDescription("Step submissions rejected by validation or gating"),
		metric.WithUnit("{step}"),
	); err != nil {
		return nil, err
	}
	if m.Submissions, err = meter.Int64Counter("onboarding_submissions_total",
		metric.WithDescription("Applications handed to the submission queue"),
		metric.WithUnit("{application}"),
	); err != nil {
		return nil, err
	}
	if m.SMSSent, err = meter.Int64Counter("sms_sent_total",
		metric.WithDescription("SMS sent by provider and result"),
		metric.WithUnit("{sms}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func get() *Metrics {
	_ = Init()
	return metrics
}

func result(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("result", "error")
	}
	return attribute.String("result", "ok")
}

func RecordVerificationRequest(ctx context.Context, seconds float64, err error) {
	m := get()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("op", "request"), result(err))
	m.VerificationRequests.Add(ctx, 1, attrs)
	m.VerificationDuration.Record(ctx, seconds, attrs)
}

func RecordVerificationCheck(ctx context.Context, seconds float64, err error) {
	m := get()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("op", "check"), result(err))
	m.VerificationChecks.Add(ctx, 1, attrs)
	m.VerificationDuration.Record(ctx, seconds, attrs)
}

func RecordStepAdvance(ctx context.Context, step string) {
	if m := get(); m != nil {
		m.StepAdvances.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
	}
}

func RecordStepRejected(ctx context.Context, step, code string) {
	if m := get(); m != nil {
		m.StepRejections.Add(ctx, 1, metric.WithAttributes(
			attribute.String("step", step),
			attribute.String("code", code),
		))
	}
}

func RecordSubmission(ctx context.Context, err error) {
	if m := get(); m != nil {
		m.Submissions.Add(ctx, 1, metric.WithAttributes(result(err)))
	}
}

func RecordSMSSent(ctx context.Context, provider string, err error) {
	if m := get(); m != nil {
		m.SMSSent.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider), result(err)))
	}
}
