// Package audit records one entry per orchestrated generation.
package audit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/davidbz/shopscribe/internal/domain"
)

// LogSink writes audit entries as structured log lines.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{
		logger: logger,
	}
}

// Record logs the entry without prompt and response bodies.
func (s *LogSink) Record(_ context.Context, entry *domain.AuditEntry) error {
	if s.logger == nil || entry == nil {
		return nil
	}

	fields := []zap.Field{
		zap.Time("timestamp", entry.Timestamp),
		zap.String("actor", entry.Actor),
		zap.String("kind", string(entry.Kind)),
		zap.String("target_id", entry.TargetID),
		zap.String("provider", entry.Provider),
		zap.String("model", entry.Model),
		zap.String("status", entry.Status),
		zap.Int("prompt_length", len(entry.Prompt)),
		zap.Int("response_length", len(entry.Response)),
		zap.Any("image_context", entry.ImageContext),
	}
	if entry.TotalTokens != nil {
		fields = append(fields, zap.Int("total_tokens", *entry.TotalTokens))
	}
	if entry.ErrorMessage != nil {
		fields = append(fields, zap.String("error_message", *entry.ErrorMessage))
	}

	s.logger.Info("generation audited", fields...)
	return nil
}

// Multi fans an entry out to several sinks.
type Multi struct {
	sinks []domain.AuditLog
}

// NewMulti creates a fan-out sink. Nil sinks are skipped.
func NewMulti(sinks ...domain.AuditLog) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Record writes to every sink and joins their errors.
func (m *Multi) Record(ctx context.Context, entry *domain.AuditEntry) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
