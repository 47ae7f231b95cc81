package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"CareOnboard/internal/auth"
	"CareOnboard/internal/model"
	"CareOnboard/internal/model/dto"
	"CareOnboard/internal/onboarding"
	"CareOnboard/internal/verification"
	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/pkg/logger"
	"CareOnboard/pkg/metrics"
	"CareOnboard/utils"
)

// SessionStore 会话快照存储，见 cache.WizardSessionStore
type SessionStore interface {
	Save(ctx context.Context, sessionID string, data []byte, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Delete(ctx context.Context, sessionID string) error
}

// Locker 跨实例的会话互斥
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// TokenIssuer 验证通过后签发令牌
type TokenIssuer interface {
	Issue(ctx context.Context, uid string) (model.TokenPair, error)
}

// SubmitterFactory 为某个会话构造提交器
type SubmitterFactory func(sessionID, uid, phoneHash string) onboarding.Submitter

type OnboardingOptions struct {
	Gate       verification.Options
	SessionTTL time.Duration
	// LockTTL 需大于一次 provider 调用的超时
	LockTTL   time.Duration
	PhoneSalt string
}

type OnboardingService struct {
	sessions  SessionStore
	locker    Locker
	provider  verification.Provider
	users     auth.UserStore
	tokens    TokenIssuer
	submitter SubmitterFactory
	opts      OnboardingOptions
	newID     func() string
	now       func() time.Time
}

type OnboardingDeps struct {
	Sessions  SessionStore
	Locker    Locker
	Provider  verification.Provider
	Users     auth.UserStore
	Tokens    TokenIssuer
	Submitter SubmitterFactory
}

func NewOnboardingService(deps OnboardingDeps, opts OnboardingOptions) *OnboardingService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.Gate.Timeout <= 0 {
		opts.Gate.Timeout = verification.DefaultTimeout
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2*opts.Gate.Timeout + 5*time.Second
	}
	return &OnboardingService{
		sessions:  deps.Sessions,
		locker:    deps.Locker,
		provider:  deps.Provider,
		users:     deps.Users,
		tokens:    deps.Tokens,
		submitter: deps.Submitter,
		opts:      opts,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// storedSession redis 里的会话快照
type storedSession struct {
	CreatedAt time.Time             `json:"created_at"`
	Wizard    onboarding.Snapshot   `json:"wizard"`
	Gate      verification.Snapshot `json:"gate"`
}

// liveSession 单次请求内还原出的会话
type liveSession struct {
	created  time.Time
	gate     *verification.Gate
	wizard   *onboarding.Wizard
	verified *verifiedResult
	id       string
}

type verifiedResult struct {
	tokens model.TokenPair
	user   model.AuthUserSnapshot
}

func lockKey(sessionID string) string {
	return "onboarding:" + sessionID
}

// Create 新建引导会话
func (s *OnboardingService) Create(ctx context.Context) (*dto.CreateSessionResponse, error) {
	ls := &liveSession{id: s.newID(), created: s.now()}
	ls.gate = verification.NewGate(s.provider, s.opts.Gate)
	ls.wizard = onboarding.New(ls.gate, s.submitterFor(ls))
	s.bind(ls)

	if err := s.save(ctx, ls); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info("Onboarding session created", zap.String("session_id", ls.id))
	return &dto.CreateSessionResponse{
		SessionView: s.view(ls),
		ExpiresIn:   int(s.opts.SessionTTL.Seconds()),
	}, nil
}

// Get 读取会话，不加锁
func (s *OnboardingService) Get(ctx context.Context, sessionID string) (*dto.SessionView, error) {
	ls, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	v := s.view(ls)
	return &v, nil
}

// SubmitPhone 提交手机号并下发验证码
func (s *OnboardingService) SubmitPhone(ctx context.Context, sessionID, phone string) (*dto.SessionView, error) {
	var view dto.SessionView
	err := s.withSession(ctx, sessionID, func(ctx context.Context, ls *liveSession) error {
		start := time.Now()
		err := ls.gate.SubmitPhone(ctx, phone)
		metrics.RecordVerificationRequest(ctx, time.Since(start).Seconds(), err)
		view = s.view(ls)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// SubmitCode 校验验证码；通过后向导前进到资料页并签发令牌
func (s *OnboardingService) SubmitCode(ctx context.Context, sessionID, code string) (*dto.VerifyCodeResponse, error) {
	var resp dto.VerifyCodeResponse
	err := s.withSession(ctx, sessionID, func(ctx context.Context, ls *liveSession) error {
		start := time.Now()
		err := ls.gate.SubmitCode(ctx, code)
		metrics.RecordVerificationCheck(ctx, time.Since(start).Seconds(), err)
		if err != nil {
			return err
		}
		if ls.verified == nil {
			return fmt.Errorf("verification finished without session result")
		}
		resp = dto.VerifyCodeResponse{
			Session: s.view(ls),
			Tokens:  ls.verified.tokens,
			User:    ls.verified.user,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReplaceStep 整体替换某一步的表单
func (s *OnboardingService) ReplaceStep(ctx context.Context, sessionID, stepName string, body []byte) (*dto.SessionView, error) {
	step, err := onboarding.ParseStep(stepName)
	if err != nil {
		return nil, err
	}
	st, err := onboarding.DecodeState(step, body)
	if err != nil {
		return nil, err
	}

	var view dto.SessionView
	err = s.withSession(ctx, sessionID, func(ctx context.Context, ls *liveSession) error {
		if err := ls.wizard.Set(st); err != nil {
			return err
		}
		view = s.view(ls)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Next 校验并提交当前步骤。
// 手机号已验证但上次回调没走完时，这里补做登录并签发令牌。
func (s *OnboardingService) Next(ctx context.Context, sessionID string) (*dto.StepResponse, error) {
	var resp dto.StepResponse
	err := s.withSession(ctx, sessionID, func(ctx context.Context, ls *liveSession) error {
		from := ls.wizard.Current()

		if from == onboarding.StepPhone && ls.gate.Verified() {
			id, _ := ls.gate.Identity()
			if err := s.completeVerification(ctx, ls, id); err != nil {
				return err
			}
		} else {
			next, err := ls.wizard.Advance(ctx)
			if err != nil {
				metrics.RecordStepRejected(ctx, string(from), errorCode(err))
				return err
			}
			metrics.RecordStepAdvance(ctx, string(from))
			if next == onboarding.StepCompleted {
				logger.Ctx(ctx).Info("Onboarding completed", zap.String("session_id", ls.id))
			}
		}

		resp.Session = s.view(ls)
		if ls.verified != nil {
			resp.Tokens = &ls.verified.tokens
			resp.User = &ls.verified.user
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Back 回到上一步，不丢弃已填内容
func (s *OnboardingService) Back(ctx context.Context, sessionID string) (*dto.StepResponse, error) {
	var resp dto.StepResponse
	err := s.withSession(ctx, sessionID, func(ctx context.Context, ls *liveSession) error {
		if _, err := ls.wizard.GoBack(); err != nil {
			return err
		}
		resp.Session = s.view(ls)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Summary 完成后的只读汇总
func (s *OnboardingService) Summary(ctx context.Context, sessionID string) (*onboarding.Summary, error) {
	ls, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sum, ok := ls.wizard.Summary()
	if !ok {
		return nil, pkgerrors.OnboardingStepLocked
	}
	return &sum, nil
}

// completeVerification 验证成功后的收尾：建立登录态、签发令牌，最后向导离开手机号步骤。
// 中途失败时向导仍停在 phone，下次 Next 会重做。
func (s *OnboardingService) completeVerification(ctx context.Context, ls *liveSession, id verification.Identity) error {
	sess := auth.NewSession(s.users)
	if err := sess.Init(ctx, id); err != nil {
		return err
	}
	isNew := sess.IsNewUser()
	if isNew {
		if err := sess.Register(ctx, auth.User{Status: auth.StatusPending}); err != nil {
			return err
		}
	}

	pair, err := s.tokens.Issue(ctx, id.UID)
	if err != nil {
		return err
	}

	if ls.wizard.Current() == onboarding.StepPhone {
		if _, err := ls.wizard.Advance(ctx); err != nil {
			return err
		}
		metrics.RecordStepAdvance(ctx, string(onboarding.StepPhone))
	}

	user, _ := sess.CurrentUser()
	ls.verified = &verifiedResult{tokens: pair, user: UserSnapshot(user, isNew)}

	logger.Ctx(ctx).Info("Phone verified",
		zap.String("session_id", ls.id),
		zap.String("uid", id.UID),
		zap.Bool("is_new_user", isNew),
	)
	return nil
}

func (s *OnboardingService) bind(ls *liveSession) {
	ls.gate.OnVerified(func(ctx context.Context, id verification.Identity) error {
		return s.completeVerification(ctx, ls, id)
	})
}

func (s *OnboardingService) submitterFor(ls *liveSession) onboarding.Submitter {
	return onboarding.SubmitterFunc(func(ctx context.Context, rec onboarding.Record) error {
		id, ok := ls.gate.Identity()
		if !ok {
			return pkgerrors.OnboardingStepLocked
		}
		phoneHash := utils.HashPhone(s.opts.PhoneSalt, id.PhoneNumber)
		return s.submitter(ls.id, id.UID, phoneHash).Submit(ctx, rec)
	})
}

// withSession 加锁 -> 还原 -> 执行 -> 保存。fn 出错时也保存，闸门状态变化需要落盘。
func (s *OnboardingService) withSession(ctx context.Context, sessionID string, fn func(context.Context, *liveSession) error) error {
	ok, err := s.locker.TryLock(ctx, lockKey(sessionID), s.opts.LockTTL)
	if err != nil {
		return fmt.Errorf("failed to lock session: %w", err)
	}
	if !ok {
		return pkgerrors.SessionBusy
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey(sessionID)); err != nil {
			logger.Ctx(ctx).Warn("Failed to unlock session", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	ls, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}

	fnErr := fn(ctx, ls)
	if err := s.save(ctx, ls); err != nil {
		logger.Ctx(ctx).Error("Failed to save onboarding session",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		if fnErr == nil {
			return err
		}
	}
	return fnErr
}

func (s *OnboardingService) load(ctx context.Context, sessionID string) (*liveSession, error) {
	if sessionID == "" {
		return nil, pkgerrors.SessionNotFound
	}
	data, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}

	ls := &liveSession{id: sessionID, created: stored.CreatedAt}
	ls.gate, err = verification.RestoreGate(s.provider, s.opts.Gate, stored.Gate)
	if err != nil {
		return nil, fmt.Errorf("failed to restore gate: %w", err)
	}
	ls.wizard, err = onboarding.Restore(ls.gate, s.submitterFor(ls), stored.Wizard)
	if err != nil {
		return nil, fmt.Errorf("failed to restore wizard: %w", err)
	}
	s.bind(ls)
	return ls, nil
}

// save TTL 从创建时间算起，不随操作续期
func (s *OnboardingService) save(ctx context.Context, ls *liveSession) error {
	data, err := json.Marshal(storedSession{
		CreatedAt: ls.created,
		Wizard:    ls.wizard.Snapshot(),
		Gate:      ls.gate.Snapshot(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ttl := s.opts.SessionTTL - s.now().Sub(ls.created)
	if ttl <= 0 {
		return pkgerrors.SessionNotFound
	}
	return s.sessions.Save(ctx, ls.id, data, ttl)
}

func (s *OnboardingService) view(ls *liveSession) dto.SessionView {
	return dto.SessionView{
		States:       ls.wizard.States(),
		SessionID:    ls.id,
		Verification: ls.gate.View(),
		Progress:     ls.wizard.Progress(),
		Completed:    ls.wizard.Completed(),
	}
}

func errorCode(err error) string {
	var verr *pkgerrors.ValidationError
	if stderrors.As(err, &verr) {
		return pkgerrors.ValidationFailed.Code
	}
	var def pkgerrors.Definition
	if stderrors.As(err, &def) {
		return def.Code
	}
	return "INTERNAL_ERROR"
}
