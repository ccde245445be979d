package zlog

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// Init 初始化全局日志（文件滚动 + 控制台双写）
// logPath 为空时只输出到控制台；重复调用以最后一次为准
// （包 init 阶段的日志先走控制台，主函数拿到配置后再切到文件）
func Init(logPath string) {
	logger = build(logPath)
}

func build(logPath string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(os.Stdout),
		zapcore.InfoLevel,
	)

	if logPath == "" {
		return zap.New(consoleCore, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	fileWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // MB
		MaxBackups: 10,
		MaxAge:     30, // 天
		Compress:   true,
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(fileWriter),
		zapcore.InfoLevel,
	)

	return zap.New(zapcore.NewTee(consoleCore, fileCore), zap.AddCaller(), zap.AddCallerSkip(1))
}

func get() *zap.Logger {
	if logger == nil {
		Init("")
	}
	return logger
}

func Debug(msg string, fields ...zap.Field) {
	get().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	get().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	get().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	get().Error(msg, fields...)
}

// Fatal 记录后退出进程
func Fatal(msg string, fields ...zap.Field) {
	get().Fatal(msg, fields...)
}

// Sync 刷新缓冲区（进程退出前调用）
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
