package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/pkg/logger"
	"CareOnboard/utils"
)

// State 闸门状态
type State string

const (
	AwaitingPhone State = "awaiting_phone"
	AwaitingCode  State = "awaiting_code"
	Verified      State = "verified"
)

const (
	DefaultTimeout = 15 * time.Second

	stepName = "phone"
)

// VerificationState 手机验证步骤的本地状态。
// ShowCodeEntry 为 true 时必有事务 id；IsVerified 为 true 时该事务已校验通过。
type VerificationState struct {
	TransactionID string `json:"verification_transaction_id,omitempty"`
	PhoneNumber   string `json:"phone_number"`
	ShowCodeEntry bool   `json:"show_code_entry"`
	Code          string `json:"code"`
	IsVerified    bool   `json:"is_verified"`
}

// Options 闸门参数，零值使用默认
type Options struct {
	CountryPrefix string
	Timeout       time.Duration
}

func (o Options) withDefaults() Options {
	if o.CountryPrefix == "" {
		o.CountryPrefix = utils.DefaultCountryPrefix
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// OnVerifiedFunc 验证成功后的回调
type OnVerifiedFunc func(ctx context.Context, id Identity) error

// Gate 手机号验证状态机：awaiting_phone -> awaiting_code -> verified。
// 同一时刻只允许一个请求在途，后到的请求直接拒绝。
type Gate struct {
	provider Provider
	opts     Options

	inFlight atomic.Bool

	mu         sync.Mutex
	st         VerificationState
	identity   Identity
	onVerified OnVerifiedFunc
}

func NewGate(provider Provider, opts Options) *Gate {
	return &Gate{
		provider: provider,
		opts:     opts.withDefaults(),
	}
}

// OnVerified 设置验证成功回调
func (g *Gate) OnVerified(fn OnVerifiedFunc) {
	g.mu.Lock()
	g.onVerified = fn
	g.mu.Unlock()
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

func (g *Gate) stateLocked() State {
	switch {
	case g.st.IsVerified:
		return Verified
	case g.st.ShowCodeEntry:
		return AwaitingCode
	default:
		return AwaitingPhone
	}
}

// View 返回状态副本，不含已输入的验证码
func (g *Gate) View() VerificationState {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.st
	v.Code = ""
	return v
}

func (g *Gate) Verified() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.IsVerified
}

func (g *Gate) PhoneNumber() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.PhoneNumber
}

// Identity 未验证时返回 false
func (g *Gate) Identity() (Identity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identity, g.st.IsVerified
}

// SubmitPhone 提交手机号并请求下发验证码。
// 在 awaiting_code 状态下重新提交会先作废旧事务。
func (g *Gate) SubmitPhone(ctx context.Context, raw string) error {
	if !g.inFlight.CompareAndSwap(false, true) {
		return pkgerrors.VerificationInFlight
	}
	defer g.inFlight.Store(false)

	if g.Verified() {
		return pkgerrors.AlreadyVerified
	}

	if strings.TrimSpace(raw) == "" {
		return pkgerrors.NewValidationError(stepName, "phoneNumber")
	}
	phone, err := utils.NormalizePhone(raw, g.opts.CountryPrefix)
	if err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.NewValidationError(stepName, "phoneNumber"), err)
	}

	g.mu.Lock()
	if g.st.TransactionID != "" {
		logger.Ctx(ctx).Info("Discarding previous verification transaction",
			zap.String("phone", utils.MaskPhone(g.st.PhoneNumber)),
		)
	}
	g.st = VerificationState{PhoneNumber: phone}
	g.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	txn, err := g.provider.RequestCode(cctx, phone)
	if err == nil && txn == "" {
		err = errors.New("provider returned empty transaction id")
	}
	if err != nil {
		logger.Ctx(ctx).Warn("Verification code request failed",
			zap.String("phone", utils.MaskPhone(phone)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", pkgerrors.VerificationRequestFailed, err)
	}

	g.mu.Lock()
	g.st = VerificationState{
		TransactionID: txn,
		PhoneNumber:   phone,
		ShowCodeEntry: true,
	}
	g.mu.Unlock()

	return nil
}

// SubmitCode 用当前事务校验验证码，成功后触发 OnVerified。
// 回调出错不会撤销验证结果。
func (g *Gate) SubmitCode(ctx context.Context, code string) error {
	if !g.inFlight.CompareAndSwap(false, true) {
		return pkgerrors.VerificationInFlight
	}
	defer g.inFlight.Store(false)

	g.mu.Lock()
	if g.st.IsVerified {
		g.mu.Unlock()
		return pkgerrors.AlreadyVerified
	}
	txn := g.st.TransactionID
	if txn == "" {
		g.mu.Unlock()
		return pkgerrors.NoActiveSession
	}
	code = strings.TrimSpace(code)
	if code == "" {
		g.mu.Unlock()
		return pkgerrors.NewValidationError(stepName, "code")
	}
	g.st.Code = code
	g.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	id, err := g.provider.CheckCode(cctx, txn, code)
	if err != nil {
		logger.Ctx(ctx).Warn("Verification code check failed",
			zap.String("transaction_id", txn),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", pkgerrors.VerificationCheckFailed, err)
	}

	g.mu.Lock()
	if id.PhoneNumber == "" {
		id.PhoneNumber = g.st.PhoneNumber
	}
	g.st.IsVerified = true
	g.identity = id
	cb := g.onVerified
	g.mu.Unlock()

	if cb != nil {
		if err := cb(ctx, id); err != nil {
			return fmt.Errorf("on verified: %w", err)
		}
	}
	return nil
}

// Snapshot 可持久化的闸门状态
type Snapshot struct {
	State    VerificationState `json:"state"`
	Identity Identity          `json:"identity"`
}

func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{State: g.st, Identity: g.identity}
}

// RestoreGate 从快照重建闸门，快照不满足状态不变量时报错
func RestoreGate(provider Provider, opts Options, snap Snapshot) (*Gate, error) {
	st := snap.State
	if (st.ShowCodeEntry || st.IsVerified) && st.TransactionID == "" {
		return nil, errors.New("verification snapshot: missing transaction id")
	}
	if st.IsVerified && snap.Identity.UID == "" {
		return nil, errors.New("verification snapshot: verified without identity")
	}

	g := NewGate(provider, opts)
	g.st = st
	g.identity = snap.Identity
	return g, nil
}
