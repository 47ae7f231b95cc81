package logger

import (
	"io"
	"os"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzap "github.com/hertz-contrib/logger/zap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"CareOnboard/config"
)

// Logger 在 Init 之前为 no-op，测试与未初始化的包可以直接使用
var (
	Logger   = zap.NewNop()
	logClose io.Closer
)

// Init 按配置构建 zap，并接管 hertz 的 hlog；component 区分 api / worker 进程
func Init(component string) {
	level := zap.NewAtomicLevelAt(parseZapLevel(config.Cfg.LoggerLevel))

	hzLogger := hertzzap.NewLogger(
		hertzzap.WithCoreEnc(buildEncoder(config.Cfg.IsDevelopment(), config.Cfg.LoggerFormat)),
		hertzzap.WithCoreWs(buildWriteSyncer(config.Cfg.LoggerOutputPath)),
		hertzzap.WithCoreLevel(level),
		hertzzap.WithZapOptions(
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
			zap.Fields(
				zap.String("service", config.Cfg.ServiceName),
				zap.String("component", component),
			),
		),
	)
	hlog.SetLogger(hzLogger)
	hlog.SetLevel(toHlogLevel(level.Level()))

	Logger = hzLogger.Logger()
	Logger.Info("Logger initialized",
		zap.String("level", level.Level().CapitalString()),
		zap.String("format", config.Cfg.LoggerFormat),
		zap.String("environment", config.Cfg.Environment),
	)
}

func Sync() {
	_ = Logger.Sync()
	if logClose != nil {
		_ = logClose.Close()
		logClose = nil
	}
}

// 开发环境或显式 text 时输出彩色控制台格式，其余 JSON
func buildEncoder(development bool, format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder

	if development || strings.EqualFold(format, "text") {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(ec)
}

func buildWriteSyncer(path string) zapcore.WriteSyncer {
	switch strings.ToLower(path) {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout)
	case "stderr":
		return zapcore.AddSync(os.Stderr)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		panic("failed to open log file: " + err.Error())
	}
	logClose = file
	return zapcore.AddSync(file)
}

func parseZapLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil || l < zapcore.DebugLevel || l > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return l
}

func toHlogLevel(level zapcore.Level) hlog.Level {
	switch level {
	case zapcore.DebugLevel:
		return hlog.LevelDebug
	case zapcore.WarnLevel:
		return hlog.LevelWarn
	case zapcore.ErrorLevel:
		return hlog.LevelError
	default:
		return hlog.LevelInfo
	}
}
