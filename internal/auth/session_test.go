package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"CareOnboard/internal/verification"
	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/pkg/logger"
)

type memStore struct {
	users map[string]User
	saves int
}

func newMemStore() *memStore {
	return &memStore{users: map[string]User{}}
}

func (m *memStore) Exists(_ context.Context, uid string) (bool, error) {
	_, ok := m.users[uid]
	return ok, nil
}

func (m *memStore) Load(_ context.Context, uid string) (*User, error) {
	u, ok := m.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) Save(_ context.Context, u *User) error {
	m.saves++
	m.users[u.UID] = *u
	return nil
}

func TestSessionNewUserRegister(t *testing.T) {
	store := newMemStore()
	s := NewSession(store)
	ctx := context.Background()

	assert.False(t, s.IsAuthenticated())
	_, ok := s.CurrentUser()
	assert.False(t, ok)

	require.NoError(t, s.Init(ctx, verification.Identity{UID: "u1", PhoneNumber: "+919999999999"}))
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.IsNewUser())
	assert.Zero(t, store.saves)

	require.NoError(t, s.Register(ctx, User{UID: "spoofed", FullName: "Asha"}))
	assert.False(t, s.IsNewUser())

	saved := store.users["u1"]
	assert.Equal(t, "Asha", saved.FullName)
	assert.Equal(t, "+919999999999", saved.PhoneNumber)
	assert.Equal(t, StatusPending, saved.Status)
	assert.NotContains(t, store.users, "spoofed")
}

func TestSessionExistingUser(t *testing.T) {
	store := newMemStore()
	store.users["u1"] = User{UID: "u1", FullName: "Asha", Status: StatusActive}
	s := NewSession(store)

	require.NoError(t, s.Init(context.Background(), verification.Identity{UID: "u1"}))
	assert.False(t, s.IsNewUser())
	u, ok := s.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, StatusActive, u.Status)
}

func TestSessionTeardown(t *testing.T) {
	s := NewSession(newMemStore())
	require.NoError(t, s.Init(context.Background(), verification.Identity{UID: "u1"}))

	s.Teardown()
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.IsNewUser())
	_, ok := s.CurrentUser()
	assert.False(t, ok)

	assert.ErrorIs(t, s.Register(context.Background(), User{}), pkgerrors.Unauthorized)
}

func TestSessionResume(t *testing.T) {
	store := newMemStore()
	s := NewSession(store)

	assert.ErrorIs(t, s.Resume(context.Background(), "ghost"), pkgerrors.UserNotFound)
	assert.False(t, s.IsAuthenticated())

	store.users["u1"] = User{UID: "u1"}
	require.NoError(t, s.Resume(context.Background(), "u1"))
	assert.True(t, s.IsAuthenticated())
}

func TestSessionInitRequiresUID(t *testing.T) {
	s := NewSession(newMemStore())
	assert.ErrorIs(t, s.Init(context.Background(), verification.Identity{}), pkgerrors.Unauthorized)
}

func TestSessionInitLogCarriesTrace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := logger.Logger
	logger.Logger = zap.New(core)
	defer func() { logger.Logger = prev }()

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{7},
		SpanID:     trace.SpanID{9},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	s := NewSession(newMemStore())
	require.NoError(t, s.Init(ctx, verification.Identity{UID: "u1", PhoneNumber: "+919999999999"}))

	started := logs.FilterMessage("Auth session started").All()
	require.Len(t, started, 1)
	assert.Equal(t, sc.TraceID().String(), started[0].ContextMap()["trace_id"])
	assert.Equal(t, "u1", started[0].ContextMap()["uid"])
}
