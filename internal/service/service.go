package service

import (
	"sync"

	"CareOnboard/config"
	"CareOnboard/internal/cache"
	"CareOnboard/internal/queue"
	"CareOnboard/internal/repository"
	"CareOnboard/internal/verification"
	"CareOnboard/pkg/sms"
	"CareOnboard/pkg/snowflake"
	"CareOnboard/storage/database"
)

// 进程内单例，依赖 config/storage/token 已初始化

var (
	onboardingService *OnboardingService
	onboardingOnce    sync.Once

	authService *AuthService
	authOnce    sync.Once

	dashboardService *DashboardService
	dashboardOnce    sync.Once

	attachmentService *AttachmentService
	attachmentOnce    sync.Once

	staffStore     *repository.CachedStaffStore
	staffStoreOnce sync.Once
)

// Secrets 从配置读出的落库密钥
func Secrets() repository.Secrets {
	return repository.Secrets{
		PhoneSalt:     config.Cfg.PhoneHashSalt,
		EncryptionKey: []byte(config.Cfg.EncryptionKey),
	}
}

// StaffStore 带缓存的护工账号存储
func StaffStore() *repository.CachedStaffStore {
	staffStoreOnce.Do(func() {
		staffStore = repository.NewCachedStaffStore(
			repository.NewStaffRepository(database.DB(), Secrets()),
			cache.StaffProfileCache,
		)
	})
	return staffStore
}

func Auth() *AuthService {
	authOnce.Do(func() {
		authService = NewAuthService(StaffStore(), cache.NewRefreshTokenStore())
	})
	return authService
}

func Onboarding() *OnboardingService {
	onboardingOnce.Do(func() {
		cfg := config.Cfg
		producer := queue.NewApplicationProducer()
		onboardingService = NewOnboardingService(OnboardingDeps{
			Sessions:  cache.NewWizardSessionStore(),
			Locker:    cache.NewSessionLocker(),
			Provider:  newProvider(cfg),
			Users:     StaffStore(),
			Tokens:    Auth(),
			Submitter: producer.Submitter,
		}, OnboardingOptions{
			Gate: verification.Options{
				CountryPrefix: cfg.DefaultCountryPrefix,
				Timeout:       cfg.VerificationTimeout(),
			},
			SessionTTL: cfg.WizardSessionTTL(),
			PhoneSalt:  cfg.PhoneHashSalt,
		})
	})
	return onboardingService
}

func Dashboard() *DashboardService {
	dashboardOnce.Do(func() {
		dashboardService = NewDashboardService(cache.NewClockStore())
	})
	return dashboardService
}

func Attachments() *AttachmentService {
	attachmentOnce.Do(func() {
		attachmentService = NewAttachmentService(cache.NewWizardSessionStore(), AttachmentOptions{
			Dir:           config.Cfg.UploadDir,
			PublicBaseURL: config.Cfg.PublicBaseURL,
			MaxBytes:      config.Cfg.MaxUploadBytes,
		})
	})
	return attachmentService
}

// newProvider mock 只在非生产环境可选，config 校验过
func newProvider(cfg config.Config) verification.Provider {
	if cfg.VerificationProvider == "mock" {
		return verification.NewMockProvider(cfg.MockOTPCode, cfg.PhoneHashSalt)
	}

	sender := sms.NewOTPSender(sms.GetClient(), cfg.SMSProvider, cfg.SMSSignName, cfg.SMSTemplateCode)
	return verification.NewSMSProvider(cache.NewOTPStore(), sender, cache.SMSBreaker, verification.SMSOptions{
		Salt:     cfg.PhoneHashSalt,
		Expire:   cfg.OTPExpire(),
		MaxDaily: cfg.OTPMaxDaily,
		NewID:    snowflake.Prefixed("otp"),
	})
}
