package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger est le logger structuré partagé par l'API et la persistance
type Logger struct {
	zap *zap.Logger
}

// NewLogger crée un nouveau logger JSON sur stdout avec le niveau demandé
func NewLogger(level string) *Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zapLevel,
	)

	return &Logger{
		zap: zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)),
	}
}

// Info enregistre un message de niveau info
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.zap.Info(msg, toZapFields(fields)...)
}

// Debug enregistre un message de niveau debug
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.zap.Debug(msg, toZapFields(fields)...)
}

// Warning enregistre un message de niveau warning
func (l *Logger) Warning(msg string, fields ...map[string]interface{}) {
	l.zap.Warn(msg, toZapFields(fields)...)
}

// Error enregistre un message de niveau error avec l'erreur associée
func (l *Logger) Error(msg string, err error, fields ...map[string]interface{}) {
	zapFields := append([]zap.Field{zap.Error(err)}, toZapFields(fields)...)
	l.zap.Error(msg, zapFields...)
}

// Fatal enregistre un message de niveau fatal puis quitte l'application
func (l *Logger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	zapFields := append([]zap.Field{zap.Error(err)}, toZapFields(fields)...)
	l.zap.Fatal(msg, zapFields...)
}

// TimeTrack journalise le temps d'exécution d'une opération
func (l *Logger) TimeTrack(start time.Time, name string) {
	l.Info("Execution time", map[string]interface{}{
		"operation": name,
		"duration":  time.Since(start).String(),
	})
}

// WithContext retourne un logger enrichi d'un contexte permanent
func (l *Logger) WithContext(context map[string]interface{}) *Logger {
	return &Logger{zap: l.zap.With(toZapFields([]map[string]interface{}{context})...)}
}

// Sync vide les tampons du logger
func (l *Logger) Sync() {
	_ = l.zap.Sync()
}

func toZapFields(fields []map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	zapFields := make([]zap.Field, 0, len(fields[0]))
	for k, v := range fields[0] {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}
