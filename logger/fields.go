package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldSession  = "session_id"
	FieldResume   = "resume_id"
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
	FieldEngine   = "engine"
	FieldBackend  = "backend"
)

// WithFields attaches fields to logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// StringFields converts key/value pairs into zap fields and skips blanks.
func StringFields(pairs ...string) []zap.Field {
	result := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key := strings.TrimSpace(pairs[i])
		value := strings.TrimSpace(pairs[i+1])
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithProvider tags logger with the evaluation provider and model.
func WithProvider(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, StringFields(FieldProvider, provider, FieldModel, model)...)
}
