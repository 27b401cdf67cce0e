package cmd

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bootstrapLogger logs before the configured logger exists, and around config reloads
// bootstrapLogger 在配置的日志器创建之前以及配置重载期间记录日志
var (
	bootstrapLogger *zap.Logger
	bootstrapLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func init() {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// DEBUG 环境变量打开调试日志
	if os.Getenv("DEBUG") != "" {
		bootstrapLevel.SetLevel(zapcore.DebugLevel)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), bootstrapLevel)
	bootstrapLogger = zap.New(core, zap.AddCaller()).Named("bootstrap")
}

// setBootstrapLevel follows log.level once the config is loaded; warn and above always pass
// setBootstrapLevel 配置加载后跟随 log.level，warn 及以上级别始终输出
func setBootstrapLevel(level string) {
	if os.Getenv("DEBUG") != "" {
		return
	}
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		bootstrapLogger.Warn("invalid log.level, bootstrap logger unchanged", zap.String("level", level), zap.Error(err))
		return
	}
	bootstrapLevel.SetLevel(min(l, zapcore.WarnLevel))
}
