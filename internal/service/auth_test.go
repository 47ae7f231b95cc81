package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CareOnboard/internal/auth"
	pkgerrors "CareOnboard/pkg/errors"
)

func newTestAuthService(users *memUsers) (*AuthService, *memRefreshTokens) {
	tokens := &memRefreshTokens{tokens: map[string]string{}}
	svc := NewAuthService(users, tokens)
	seq := 0
	svc.generate = func(uid string) (string, string, int, error) {
		seq++
		return "access", fmt.Sprintf("refresh.%s.%d", uid, seq), 900, nil
	}
	svc.validate = func(refresh string) (string, error) {
		parts := strings.Split(refresh, ".")
		if len(parts) != 3 || parts[0] != "refresh" {
			return "", stderrors.New("malformed")
		}
		return parts[1], nil
	}
	svc.refreshTTL = func() time.Duration { return time.Hour }
	return svc, tokens
}

func TestAuthRefreshRotates(t *testing.T) {
	users := newMemUsers()
	require.NoError(t, users.Save(context.Background(), &auth.User{UID: "u1", FullName: "Asha", Status: auth.StatusActive}))
	svc, tokens := newTestAuthService(users)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.RefreshToken, tokens.tokens["u1"])

	resp, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, resp.RefreshToken)
	assert.Equal(t, "Asha", resp.User.FullName)
	assert.False(t, resp.User.IsNewUser)

	// 旧 token 已轮换
	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, pkgerrors.Unauthorized)
}

func TestAuthRefreshRejects(t *testing.T) {
	svc, _ := newTestAuthService(newMemUsers())
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, pkgerrors.Unauthorized)
	_, err = svc.Refresh(ctx, "bad")
	assert.ErrorIs(t, err, pkgerrors.Unauthorized)
}

func TestAuthSignOut(t *testing.T) {
	users := newMemUsers()
	require.NoError(t, users.Save(context.Background(), &auth.User{UID: "u1", Status: auth.StatusActive}))
	svc, tokens := newTestAuthService(users)
	ctx := context.Background()

	_, err := svc.Issue(ctx, "u1")
	require.NoError(t, err)

	sess, err := svc.SessionFor(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx, sess))
	assert.Empty(t, tokens.tokens)
	assert.False(t, sess.IsAuthenticated())

	assert.ErrorIs(t, svc.SignOut(ctx, sess), pkgerrors.Unauthorized)
}

func TestAuthSessionForUnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(newMemUsers())
	_, err := svc.SessionFor(context.Background(), "ghost")
	assert.ErrorIs(t, err, pkgerrors.UserNotFound)
}
