package service

import (
	"context"
	"sync"
	"time"

	"CareOnboard/internal/auth"
	"CareOnboard/internal/model"
	"CareOnboard/internal/onboarding"
	pkgerrors "CareOnboard/pkg/errors"
)

type memSessions struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemSessions() *memSessions {
	return &memSessions{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memSessions) Save(_ context.Context, id string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = append([]byte(nil), data...)
	m.ttls[id] = ttl
	return nil
}

func (m *memSessions) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[id]
	if !ok {
		return nil, pkgerrors.SessionNotFound
	}
	return d, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type memLocker struct {
	mu    sync.Mutex
	held  map[string]bool
	calls int
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]bool{}}
}

func (l *memLocker) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLocker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]auth.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]auth.User{}}
}

func (m *memUsers) Exists(_ context.Context, uid string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[uid]
	return ok, nil
}

func (m *memUsers) Load(_ context.Context, uid string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) Save(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UID] = *u
	return nil
}

type fakeIssuer struct {
	issued []string
	err    error
}

func (f *fakeIssuer) Issue(_ context.Context, uid string) (model.TokenPair, error) {
	if f.err != nil {
		return model.TokenPair{}, f.err
	}
	f.issued = append(f.issued, uid)
	return model.TokenPair{AccessToken: "access-" + uid, RefreshToken: "refresh-" + uid, ExpiresIn: 900}, nil
}

type submission struct {
	sessionID string
	uid       string
	phoneHash string
	record    onboarding.Record
}

type captureSubmitter struct {
	mu   sync.Mutex
	got  []submission
	fail error
}

func (c *captureSubmitter) factory(sessionID, uid, phoneHash string) onboarding.Submitter {
	return onboarding.SubmitterFunc(func(_ context.Context, rec onboarding.Record) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.fail != nil {
			return c.fail
		}
		c.got = append(c.got, submission{sessionID: sessionID, uid: uid, phoneHash: phoneHash, record: rec})
		return nil
	})
}

type memRefreshTokens struct {
	tokens map[string]string
}

func (m *memRefreshTokens) Set(_ context.Context, uid, token string, _ time.Duration) error {
	m.tokens[uid] = token
	return nil
}

func (m *memRefreshTokens) Matches(_ context.Context, uid, token string) bool {
	return m.tokens[uid] == token
}

func (m *memRefreshTokens) Delete(_ context.Context, uid string) error {
	delete(m.tokens, uid)
	return nil
}

type memClock struct {
	since map[string]time.Time
}

func (m *memClock) ClockIn(_ context.Context, uid string, at time.Time) error {
	if _, ok := m.since[uid]; ok {
		return pkgerrors.AlreadyClockedIn
	}
	m.since[uid] = at
	return nil
}

func (m *memClock) ClockOut(_ context.Context, uid string) (time.Time, error) {
	at, ok := m.since[uid]
	if !ok {
		return time.Time{}, pkgerrors.NotClockedIn
	}
	delete(m.since, uid)
	return at, nil
}

func (m *memClock) Since(_ context.Context, uid string) (time.Time, bool, error) {
	at, ok := m.since[uid]
	return at, ok, nil
}
