package verification

import (
	"context"
	"sync"

	"github.com/google/uuid"

	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/utils"
)

// MockProvider 开发环境用，固定验证码，不发短信
type MockProvider struct {
	code string
	salt string

	mu     sync.Mutex
	txns   map[string]string // txn id -> phone
	latest map[string]string // phone -> txn id
}

func NewMockProvider(code, salt string) *MockProvider {
	return &MockProvider{
		code:   code,
		salt:   salt,
		txns:   make(map[string]string),
		latest: make(map[string]string),
	}
}

func (m *MockProvider) RequestCode(_ context.Context, phone string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.latest[phone]; ok {
		delete(m.txns, prev)
	}
	id := uuid.NewString()
	m.txns[id] = phone
	m.latest[phone] = id
	return id, nil
}

func (m *MockProvider) CheckCode(_ context.Context, transactionID, code string) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	phone, ok := m.txns[transactionID]
	if !ok {
		return Identity{}, pkgerrors.NoActiveSession
	}
	if code != m.code {
		return Identity{}, ErrCodeMismatch
	}
	delete(m.txns, transactionID)
	delete(m.latest, phone)

	return Identity{UID: utils.HashPhone(m.salt, phone), PhoneNumber: phone}, nil
}
