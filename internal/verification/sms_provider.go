package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"go.uber.org/zap"

	"CareOnboard/internal/model"
	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/pkg/logger"
	"CareOnboard/utils"
)

var (
	ErrCodeExpired      = errors.New("verification code expired")
	ErrCodeMismatch     = errors.New("verification code mismatch")
	ErrTooManyAttempts  = errors.New("too many verification attempts")
	errTransactionIDGen = errors.New("transaction id generator not configured")
)

// CodeStore 验证事务存储，GetTransaction 不存在时返回 nil, nil
type CodeStore interface {
	SaveTransaction(ctx context.Context, txn *model.OTPTransaction, ttl time.Duration) error
	GetTransaction(ctx context.Context, id string) (*model.OTPTransaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	IncrAttempts(ctx context.Context, id string) (int, error)
	// SwapLatest 记录手机号最新事务，返回被替换的旧事务 id
	SwapLatest(ctx context.Context, phoneHash, id string, ttl time.Duration) (string, error)
	IncrDailyCount(ctx context.Context, phoneHash string) (int, error)
}

// CodeSender 把验证码发到手机
type CodeSender interface {
	SendCode(ctx context.Context, phoneE164, code string) error
}

// Breaker 熔断保护
type Breaker interface {
	Call(ctx context.Context, operation func() error) error
}

type SMSOptions struct {
	Salt        string
	Expire      time.Duration
	MaxDaily    int
	MaxAttempts int
	CodeLength  int
	NewID       func() (string, error)
	Now         func() time.Time
	// Rand 验证码随机源，默认 crypto/rand
	Rand io.Reader
}

// SMSProvider 通过短信下发一次性验证码的 Provider 实现
type SMSProvider struct {
	store   CodeStore
	sender  CodeSender
	breaker Breaker
	opts    SMSOptions
}

func NewSMSProvider(store CodeStore, sender CodeSender, breaker Breaker, opts SMSOptions) *SMSProvider {
	if opts.Expire <= 0 {
		opts.Expire = 5 * time.Minute
	}
	if opts.MaxDaily <= 0 {
		opts.MaxDaily = 10
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = 6
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.Reader
	}
	return &SMSProvider{store: store, sender: sender, breaker: breaker, opts: opts}
}

func (p *SMSProvider) RequestCode(ctx context.Context, phone string) (string, error) {
	if p.opts.NewID == nil {
		return "", errTransactionIDGen
	}
	phoneHash := utils.HashPhone(p.opts.Salt, phone)

	count, err := p.store.IncrDailyCount(ctx, phoneHash)
	if err != nil {
		return "", fmt.Errorf("failed to check code count: %w", err)
	}
	if count > p.opts.MaxDaily {
		return "", pkgerrors.CaptchaRateLimited
	}

	id, err := p.opts.NewID()
	if err != nil {
		return "", fmt.Errorf("failed to generate transaction id: %w", err)
	}
	code, err := generateCode(p.opts.Rand, p.opts.CodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	now := p.opts.Now()

	txn := &model.OTPTransaction{
		ID:          id,
		PhoneHash:   phoneHash,
		PhoneNumber: phone,
		CodeHash:    utils.HashSecret(id, code),
		CreatedAt:   now,
		ExpiresAt:   now.Add(p.opts.Expire),
	}
	if err := p.store.SaveTransaction(ctx, txn, p.opts.Expire); err != nil {
		return "", fmt.Errorf("failed to store transaction: %w", err)
	}

	prev, err := p.store.SwapLatest(ctx, phoneHash, id, p.opts.Expire)
	if err != nil {
		_ = p.store.DeleteTransaction(ctx, id)
		return "", fmt.Errorf("failed to index transaction: %w", err)
	}
	if prev != "" && prev != id {
		if err := p.store.DeleteTransaction(ctx, prev); err != nil {
			logger.Ctx(ctx).Warn("Failed to delete superseded transaction",
				zap.String("transaction_id", prev),
				zap.Error(err),
			)
		}
	}

	send := func() error { return p.sender.SendCode(ctx, phone, code) }
	if p.breaker != nil {
		err = p.breaker.Call(ctx, send)
	} else {
		err = send()
	}
	if err != nil {
		// 发送失败，验证码作废
		_ = p.store.DeleteTransaction(ctx, id)
		return "", fmt.Errorf("failed to send code: %w", err)
	}

	logger.Ctx(ctx).Info("Verification code sent",
		zap.String("transaction_id", id),
		zap.String("phone", utils.MaskPhone(phone)),
	)
	return id, nil
}

func (p *SMSProvider) CheckCode(ctx context.Context, transactionID, code string) (Identity, error) {
	txn, err := p.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn == nil {
		return Identity{}, pkgerrors.NoActiveSession
	}
	if txn.Expired(p.opts.Now()) {
		_ = p.store.DeleteTransaction(ctx, transactionID)
		return Identity{}, ErrCodeExpired
	}

	attempts, err := p.store.IncrAttempts(ctx, transactionID)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to count attempts: %w", err)
	}
	if attempts > p.opts.MaxAttempts {
		_ = p.store.DeleteTransaction(ctx, transactionID)
		return Identity{}, ErrTooManyAttempts
	}

	want := []byte(txn.CodeHash)
	got := []byte(utils.HashSecret(transactionID, code))
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return Identity{}, ErrCodeMismatch
	}

	// 验证成功后删除
	_ = p.store.DeleteTransaction(ctx, transactionID)

	return Identity{
		UID:         utils.HashPhone(p.opts.Salt, txn.PhoneNumber),
		PhoneNumber: txn.PhoneNumber,
	}, nil
}

// generateCode 随机源出错时返回错误
func generateCode(r io.Reader, length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(r, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}
