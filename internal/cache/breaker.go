package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"CareOnboard/pkg/logger"
	"CareOnboard/pkg/sms"
)

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 正常放行
	StateOpen                  // 熔断中
	StateHalfOpen              // 放少量请求试探
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen 熔断中直接拒绝
var ErrBreakerOpen = errors.New("circuit breaker is open")

// CircuitBreaker 保护短信网关这类外部调用。
// 只有 countsAsFailure 认定的错误才累计，调用方自身的问题不触发熔断。
type CircuitBreaker struct {
	name            string
	maxFailures     int
	resetTimeout    time.Duration
	halfOpenLimit   int
	countsAsFailure func(error) bool
	now             func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probes   int
}

func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:            name,
		maxFailures:     maxFailures,
		resetTimeout:    resetTimeout,
		halfOpenLimit:   3,
		countsAsFailure: func(err error) bool { return err != nil },
		now:             time.Now,
	}
}

// IgnoreErrors 这些错误不计入失败次数
func (cb *CircuitBreaker) IgnoreErrors(targets ...error) *CircuitBreaker {
	cb.countsAsFailure = func(err error) bool {
		if err == nil {
			return false
		}
		for _, t := range targets {
			if errors.Is(err, t) {
				return false
			}
		}
		return true
	}
	return cb
}

// Call 执行带熔断保护的操作
func (cb *CircuitBreaker) Call(ctx context.Context, operation func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !cb.acquire() {
		return fmt.Errorf("%w: %s", ErrBreakerOpen, cb.name)
	}

	err := operation()
	cb.release(err)
	return err
}

func (cb *CircuitBreaker) acquire() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.resetTimeout {
			return false
		}
		cb.setState(StateHalfOpen)
	}
	if cb.state == StateHalfOpen {
		if cb.probes >= cb.halfOpenLimit {
			return false
		}
		cb.probes++
	}
	return true
}

func (cb *CircuitBreaker) release(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.countsAsFailure(err) {
		if cb.state == StateHalfOpen {
			cb.setState(StateClosed)
		}
		cb.failures = 0
		return
	}

	cb.failures++
	logger.Logger.Warn("Guarded operation failed",
		zap.String("breaker", cb.name),
		zap.Int("failures", cb.failures),
		zap.Stringer("state", cb.state),
		zap.Error(err),
	)
	if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
		cb.setState(StateOpen)
	}
}

// setState 调用方持有锁
func (cb *CircuitBreaker) setState(to State) {
	from := cb.state
	cb.state = to
	cb.probes = 0
	switch to {
	case StateOpen:
		cb.openedAt = cb.now()
	case StateClosed:
		cb.failures = 0
	}
	logger.Logger.Info("Circuit breaker state changed",
		zap.String("breaker", cb.name),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
}

func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// SMSBreaker 短信通道连续失败 5 次熔断 30 秒；号码被拒、请求取消不算通道故障
var SMSBreaker = NewCircuitBreaker("sms_gateway", 5, 30*time.Second).
	IgnoreErrors(sms.ErrRecipientRejected, context.Canceled)
