package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"CareOnboard/internal/auth"
	"CareOnboard/internal/model"
	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/pkg/logger"
	"CareOnboard/pkg/token"
)

// RefreshTokenStore refresh token 的服务端副本，登出即失效
type RefreshTokenStore interface {
	Set(ctx context.Context, uid, token string, ttl time.Duration) error
	Matches(ctx context.Context, uid, token string) bool
	Delete(ctx context.Context, uid string) error
}

type AuthService struct {
	users  auth.UserStore
	tokens RefreshTokenStore

	generate   func(uid string) (string, string, int, error)
	validate   func(refreshToken string) (string, error)
	refreshTTL func() time.Duration
}

func NewAuthService(users auth.UserStore, tokens RefreshTokenStore) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		generate:   token.GenerateTokenPair,
		validate:   token.ValidateRefreshToken,
		refreshTTL: token.RefreshTTL,
	}
}

// NewSession 空的登录态
func (s *AuthService) NewSession() *auth.Session {
	return auth.NewSession(s.users)
}

// SessionFor 用令牌里的 uid 恢复登录态
func (s *AuthService) SessionFor(ctx context.Context, uid string) (*auth.Session, error) {
	sess := auth.NewSession(s.users)
	if err := sess.Resume(ctx, uid); err != nil {
		return nil, err
	}
	return sess, nil
}

// Issue 签发令牌对并保存 refresh token
func (s *AuthService) Issue(ctx context.Context, uid string) (model.TokenPair, error) {
	access, refresh, expiresIn, err := s.generate(uid)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.tokens.Set(ctx, uid, refresh, s.refreshTTL()); err != nil {
		// token 已生成，存储失败只影响后续刷新
		logger.Ctx(ctx).Warn("Failed to store refresh token in Redis",
			zap.String("uid", uid),
			zap.Error(err),
		)
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
	}, nil
}

// Refresh 校验 refresh token 并轮换
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.RefreshTokenResponseData, error) {
	if refreshToken == "" {
		return nil, pkgerrors.Unauthorized
	}

	uid, err := s.validate(refreshToken)
	if err != nil {
		logger.Ctx(ctx).Info("Refresh token rejected", zap.Error(err))
		return nil, pkgerrors.Unauthorized
	}

	if !s.tokens.Matches(ctx, uid, refreshToken) {
		return nil, pkgerrors.Unauthorized
	}

	sess, err := s.SessionFor(ctx, uid)
	if err != nil {
		return nil, err
	}

	pair, err := s.Issue(ctx, uid)
	if err != nil {
		return nil, err
	}

	user, _ := sess.CurrentUser()
	return &model.RefreshTokenResponseData{
		TokenPair: pair,
		User:      UserSnapshot(user, false),
	}, nil
}

// SignOut 删除 refresh token 并清空登录态
func (s *AuthService) SignOut(ctx context.Context, sess *auth.Session) error {
	user, ok := sess.CurrentUser()
	if !ok || !sess.IsAuthenticated() {
		return pkgerrors.Unauthorized
	}

	if err := s.tokens.Delete(ctx, user.UID); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	sess.Teardown()

	logger.Ctx(ctx).Info("User signed out", zap.String("uid", user.UID))
	return nil
}

// UserSnapshot 对外的用户概览
func UserSnapshot(u auth.User, isNew bool) model.AuthUserSnapshot {
	return model.AuthUserSnapshot{
		ID:            u.UID,
		FullName:      u.FullName,
		Status:        u.Status,
		PhoneVerified: u.UID != "",
		IsNewUser:     isNew,
	}
}
