package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger

// field keys shared across the service
const (
	UserIdKey    = "user_id"
	WalletIdKey  = "wallet_id"
	ReferenceKey = "reference"
	EventKey     = "event"
	ErrorKey     = "error"
)

func init() {
	config := zap.NewProductionConfig()

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	encoderConfig.CallerKey = "caller"
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"

	config.EncoderConfig = encoderConfig
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	if os.Getenv("LOG_LEVEL") == "debug" {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	var err error
	Log, err = config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
}

type Fields map[string]interface{}

func Info(msg string, fields ...Fields) {
	log(zapcore.InfoLevel, msg, fields)
}

func Warn(msg string, fields ...Fields) {
	log(zapcore.WarnLevel, msg, fields)
}

func Error(msg string, fields ...Fields) {
	log(zapcore.ErrorLevel, msg, fields)
}

func Debug(msg string, fields ...Fields) {
	log(zapcore.DebugLevel, msg, fields)
}

func Fatal(msg string, fields ...Fields) {
	log(zapcore.FatalLevel, msg, fields)
}

// WithError adds an error field to the log entry
func WithError(err error) Fields {
	return Fields{ErrorKey: err.Error()}
}

func Merge(fields ...Fields) Fields {
	merged := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	return merged
}

func log(level zapcore.Level, msg string, fields []Fields) {
	var zapFields []zap.Field
	if len(fields) > 0 {
		zapFields = make([]zap.Field, 0, len(fields[0]))
		for k, v := range fields[0] {
			zapFields = append(zapFields, zap.Any(k, v))
		}
	}

	switch level {
	case zapcore.DebugLevel:
		Log.Debug(msg, zapFields...)
	case zapcore.WarnLevel:
		Log.Warn(msg, zapFields...)
	case zapcore.ErrorLevel:
		Log.Error(msg, zapFields...)
	case zapcore.FatalLevel:
		Log.Fatal(msg, zapFields...)
	default:
		Log.Info(msg, zapFields...)
	}
}
