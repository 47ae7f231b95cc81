package verification

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CareOnboard/internal/model"
	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/utils"
)

type memStore struct {
	mu     sync.Mutex
	txns   map[string]model.OTPTransaction
	latest map[string]string
	daily  map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		txns:   make(map[string]model.OTPTransaction),
		latest: make(map[string]string),
		daily:  make(map[string]int),
	}
}

func (s *memStore) SaveTransaction(_ context.Context, txn *model.OTPTransaction, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns[txn.ID] = *txn
	return nil
}

func (s *memStore) GetTransaction(_ context.Context, id string) (*model.OTPTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.txns[id]
	if !ok {
		return nil, nil
	}
	return &txn, nil
}

func (s *memStore) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.txns, id)
	return nil
}

func (s *memStore) IncrAttempts(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn := s.txns[id]
	txn.Attempts++
	s.txns[id] = txn
	return txn.Attempts, nil
}

func (s *memStore) SwapLatest(_ context.Context, phoneHash, id string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.latest[phoneHash]
	s.latest[phoneHash] = id
	return prev, nil
}

func (s *memStore) IncrDailyCount(_ context.Context, phoneHash string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.daily[phoneHash]++
	return s.daily[phoneHash], nil
}

type captureSender struct {
	codes map[string]string
	err   error
}

func (c *captureSender) SendCode(_ context.Context, phone, code string) error {
	if c.err != nil {
		return c.err
	}
	c.codes[phone] = code
	return nil
}

func newTestProvider(store *memStore, sender *captureSender, now func() time.Time) *SMSProvider {
	seq := 0
	return NewSMSProvider(store, sender, nil, SMSOptions{
		Salt:        "salt",
		Expire:      time.Minute,
		MaxDaily:    3,
		MaxAttempts: 2,
		NewID: func() (string, error) {
			seq++
			return fmt.Sprintf("txn-%d", seq), nil
		},
		Now: now,
	})
}

func TestSMSProviderRoundTrip(t *testing.T) {
	store := newMemStore()
	sender := &captureSender{codes: map[string]string{}}
	p := newTestProvider(store, sender, time.Now)
	ctx := context.Background()

	txn, err := p.RequestCode(ctx, "+919876543210")
	require.NoError(t, err)
	code := sender.codes["+919876543210"]
	require.Len(t, code, 6)

	stored, _ := store.GetTransaction(ctx, txn)
	require.NotNil(t, stored)
	assert.NotEqual(t, code, stored.CodeHash)

	id, err := p.CheckCode(ctx, txn, code)
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", id.PhoneNumber)
	assert.Equal(t, utils.HashPhone("salt", "+919876543210"), id.UID)

	// 用过即删
	_, err = p.CheckCode(ctx, txn, code)
	assert.ErrorIs(t, err, pkgerrors.NoActiveSession)
}

func TestSMSProviderInvalidatesPreviousTransaction(t *testing.T) {
	store := newMemStore()
	sender := &captureSender{codes: map[string]string{}}
	p := newTestProvider(store, sender, time.Now)
	ctx := context.Background()

	first, err := p.RequestCode(ctx, "+919876543210")
	require.NoError(t, err)
	firstCode := sender.codes["+919876543210"]

	second, err := p.RequestCode(ctx, "+919876543210")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = p.CheckCode(ctx, first, firstCode)
	assert.ErrorIs(t, err, pkgerrors.NoActiveSession)
}

func TestSMSProviderMismatchAndAttempts(t *testing.T) {
	store := newMemStore()
	sender := &captureSender{codes: map[string]string{}}
	p := newTestProvider(store, sender, time.Now)
	ctx := context.Background()

	txn, err := p.RequestCode(ctx, "+919876543210")
	require.NoError(t, err)

	_, err = p.CheckCode(ctx, txn, "bad")
	assert.ErrorIs(t, err, ErrCodeMismatch)
	_, err = p.CheckCode(ctx, txn, "bad")
	assert.ErrorIs(t, err, ErrCodeMismatch)
	_, err = p.CheckCode(ctx, txn, sender.codes["+919876543210"])
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestSMSProviderExpiry(t *testing.T) {
	store := newMemStore()
	sender := &captureSender{codes: map[string]string{}}
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	p := newTestProvider(store, sender, func() time.Time { return now })
	ctx := context.Background()

	txn, err := p.RequestCode(ctx, "+919876543210")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = p.CheckCode(ctx, txn, sender.codes["+919876543210"])
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestSMSProviderDailyLimit(t *testing.T) {
	store := newMemStore()
	sender := &captureSender{codes: map[string]string{}}
	p := newTestProvider(store, sender, time.Now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := p.RequestCode(ctx, "+919876543210")
		require.NoError(t, err)
	}
	_, err := p.RequestCode(ctx, "+919876543210")
	assert.ErrorIs(t, err, pkgerrors.CaptchaRateLimited)
}

func TestSMSProviderSendFailureDropsTransaction(t *testing.T) {
	store := newMemStore()
	sender := &captureSender{codes: map[string]string{}, err: stderrors.New("gateway down")}
	p := newTestProvider(store, sender, time.Now)

	_, err := p.RequestCode(context.Background(), "+919876543210")
	require.Error(t, err)
	assert.Empty(t, store.txns)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, stderrors.New("entropy exhausted") }

func TestSMSProviderRandFailureSendsNothing(t *testing.T) {
	store := newMemStore()
	sender := &captureSender{codes: map[string]string{}}
	p := newTestProvider(store, sender, time.Now)
	p.opts.Rand = failingReader{}

	_, err := p.RequestCode(context.Background(), "+919876543210")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
	assert.Empty(t, sender.codes)
	assert.Empty(t, store.txns)
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider("123456", "salt")
	ctx := context.Background()

	t1, err := p.RequestCode(ctx, "+919999999999")
	require.NoError(t, err)
	t2, err := p.RequestCode(ctx, "+919999999999")
	require.NoError(t, err)

	_, err = p.CheckCode(ctx, t1, "123456")
	assert.ErrorIs(t, err, pkgerrors.NoActiveSession)
	_, err = p.CheckCode(ctx, t2, "000000")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	id, err := p.CheckCode(ctx, t2, "123456")
	require.NoError(t, err)
	assert.Equal(t, "+919999999999", id.PhoneNumber)
}

// 闸门 + 模拟 provider 走完整流程
func TestGateWithMockProvider(t *testing.T) {
	g := NewGate(NewMockProvider("123456", "salt"), Options{})
	ctx := context.Background()

	require.NoError(t, g.SubmitPhone(ctx, "9999999999"))
	old := g.View().TransactionID
	require.NoError(t, g.SubmitPhone(ctx, "9999999999"))
	assert.NotEqual(t, old, g.View().TransactionID)

	require.NoError(t, g.SubmitCode(ctx, "123456"))
	assert.Equal(t, Verified, g.State())
	assert.Equal(t, "+919999999999", g.PhoneNumber())
}

// 超出每日次数时闸门仍报请求失败，但错误链里保留限流原因
func TestGateDailyLimitKeepsRateLimitCause(t *testing.T) {
	store := newMemStore()
	sender := &captureSender{codes: map[string]string{}}
	g := NewGate(newTestProvider(store, sender, time.Now), Options{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, g.SubmitPhone(ctx, "9876543210"))
	}
	err := g.SubmitPhone(ctx, "9876543210")
	assert.ErrorIs(t, err, pkgerrors.VerificationRequestFailed)
	assert.ErrorIs(t, err, pkgerrors.CaptchaRateLimited)
	assert.Equal(t, AwaitingPhone, g.State())
}
