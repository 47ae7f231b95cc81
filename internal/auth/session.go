package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"CareOnboard/internal/verification"
	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/pkg/logger"
)

// ErrUserNotFound UserStore.Load 找不到用户时返回
var ErrUserNotFound = errors.New("user not found")

const (
	StatusPending = "pending"
	StatusActive  = "active"
)

// User 已验证手机号的护工账号
type User struct {
	UID         string `json:"uid"`
	PhoneNumber string `json:"phone_number"`
	FullName    string `json:"full_name"`
	Agency      string `json:"agency"`
	Status      string `json:"status"`
}

// UserStore 账号持久化
type UserStore interface {
	Exists(ctx context.Context, uid string) (bool, error)
	Load(ctx context.Context, uid string) (*User, error)
	Save(ctx context.Context, user *User) error
}

// Session 单次请求链路上的登录态，由调用方显式传给需要鉴权的服务。
// 零值为未登录。
type Session struct {
	store UserStore

	mu            sync.RWMutex
	user          *User
	authenticated bool
	isNew         bool
}

func NewSession(store UserStore) *Session {
	return &Session{store: store}
}

// Init 用验证通过的身份建立登录态；store 里没有该用户时标记为新用户，不落库
func (s *Session) Init(ctx context.Context, id verification.Identity) error {
	if id.UID == "" {
		return pkgerrors.Unauthorized
	}

	exists, err := s.store.Exists(ctx, id.UID)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}

	user := &User{UID: id.UID, PhoneNumber: id.PhoneNumber, Status: StatusPending}
	if exists {
		user, err = s.store.Load(ctx, id.UID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
	}

	s.mu.Lock()
	s.user = user
	s.authenticated = true
	s.isNew = !exists
	s.mu.Unlock()

	logger.Ctx(ctx).Info("Auth session started",
		zap.String("uid", id.UID),
		zap.Bool("is_new_user", !exists),
	)
	return nil
}

// Resume 用令牌里的 uid 恢复登录态，用户必须已存在
func (s *Session) Resume(ctx context.Context, uid string) error {
	if uid == "" {
		return pkgerrors.Unauthorized
	}

	user, err := s.store.Load(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return pkgerrors.UserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.authenticated = true
	s.isNew = false
	s.mu.Unlock()
	return nil
}

// Register 保存新用户资料，UID 与手机号以登录态为准
func (s *Session) Register(ctx context.Context, profile User) error {
	s.mu.RLock()
	current := s.user
	ok := s.authenticated
	s.mu.RUnlock()
	if !ok || current == nil {
		return pkgerrors.Unauthorized
	}

	profile.UID = current.UID
	profile.PhoneNumber = current.PhoneNumber
	if profile.Status == "" {
		profile.Status = current.Status
	}
	if err := s.store.Save(ctx, &profile); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	s.mu.Lock()
	s.user = &profile
	s.isNew = false
	s.mu.Unlock()
	return nil
}

// Teardown 退出登录
func (s *Session) Teardown() {
	s.mu.Lock()
	s.user = nil
	s.authenticated = false
	s.isNew = false
	s.mu.Unlock()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Session) IsNewUser() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isNew
}

// CurrentUser 返回副本
func (s *Session) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}
