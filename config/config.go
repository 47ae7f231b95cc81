package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"careonboard"`

	// PostgreSQL 配置
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"careonboard"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"30"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"200"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"cob"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置
	JWTSecret        string `env:"JWT_SECRET"` // 必填，用于签名 JWT
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"30"`
	JWTRefreshDays   int    `env:"JWT_REFRESH_DAYS" envDefault:"7"`

	// 短信服务配置
	// AccessKey 通过阿里云 SDK 的环境变量自动获取：ALIBABA_CLOUD_ACCESS_KEY_ID / ALIBABA_CLOUD_ACCESS_KEY_SECRET
	SMSProvider     string `env:"SMS_PROVIDER" envDefault:"aliyun"`
	SMSSignName     string `env:"SMS_SIGN_NAME"`
	SMSTemplateCode string `env:"SMS_TEMPLATE_CODE"`

	// 手机验证配置
	VerificationProvider       string `env:"VERIFICATION_PROVIDER" envDefault:"sms"` // sms, mock
	VerificationTimeoutSeconds int    `env:"VERIFICATION_TIMEOUT_SECONDS" envDefault:"15"`
	DefaultCountryPrefix       string `env:"DEFAULT_COUNTRY_PREFIX" envDefault:"+91"`
	OTPExpireSeconds           int    `env:"OTP_EXPIRE_SECONDS" envDefault:"300"`
	OTPMaxDaily                int    `env:"OTP_MAX_DAILY" envDefault:"10"`
	MockOTPCode                string `env:"MOCK_OTP_CODE" envDefault:"123456"`

	// 引导会话配置
	WizardSessionTTLHours int    `env:"WIZARD_SESSION_TTL_HOURS" envDefault:"24"`
	UploadDir             string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	PublicBaseURL         string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8888"`
	MaxUploadBytes        int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	// 允许跨域的前端来源，空表示回显任意 Origin（仅开发用）
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// 加密配置
	EncryptionKey string `env:"ENCRYPTION_KEY"` // 用于加密证件号、手机号等敏感数据，32字节 AES-256
	PhoneHashSalt string `env:"PHONEHASH_SALT"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	OTLPEndpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	TracingEnabled   bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingSampler   float64 `env:"TRACING_SAMPLER" envDefault:"0.1"`
	ServiceVersion   string  `env:"SERVICE_VERSION" envDefault:"dev"`
	RateLimitEnabled bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// 验证码接口每分钟每 IP 上限，0 用内置值
	VerifyRateLimitPerMinute int `env:"VERIFY_RATE_LIMIT_PER_MINUTE" envDefault:"0"`
	UploadRateLimitPerMinute int `env:"UPLOAD_RATE_LIMIT_PER_MINUTE" envDefault:"0"`
}

// Init 加载 .env 与环境变量到全局 Cfg，只给 cmd 入口调用
func Init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	Cfg = cfg
}

// Load 解析环境变量并校验
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(c.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	if c.VerificationProvider != "sms" && c.VerificationProvider != "mock" {
		return fmt.Errorf("unsupported VERIFICATION_PROVIDER: %s", c.VerificationProvider)
	}

	if c.VerificationProvider == "mock" && c.IsProduction() {
		return fmt.Errorf("mock verification provider is not allowed in production")
	}

	if c.SMSSignName == "" {
		log.Printf("WARN: SMS_SIGN_NAME is not set, SMS service may not work properly")
	}
	if c.SMSTemplateCode == "" {
		log.Printf("WARN: SMS_TEMPLATE_CODE is not set, SMS service may not work properly")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return "host=" + c.PostgreSQLHost +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) VerificationTimeout() time.Duration {
	return time.Duration(c.VerificationTimeoutSeconds) * time.Second
}

func (c *Config) OTPExpire() time.Duration {
	return time.Duration(c.OTPExpireSeconds) * time.Second
}

func (c *Config) WizardSessionTTL() time.Duration {
	return time.Duration(c.WizardSessionTTLHours) * time.Hour
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
