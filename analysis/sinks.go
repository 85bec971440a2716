package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"resume-analyzer/domain"
	"resume-analyzer/logger"
	"resume-analyzer/metrics"
)

// Fanout delivers each status to every non-nil sink in order.
func Fanout(sinks ...StatusFunc) StatusFunc {
	active := make([]StatusFunc, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	return func(s Status) {
		for _, sink := range active {
			sink(s)
		}
	}
}

func LogSink(l *zap.Logger, sessionID string) StatusFunc {
	l = logger.WithFields(l, zap.String(logger.FieldSession, sessionID))
	return func(s Status) {
		fields := []zap.Field{zap.String("at", string(s.Step))}
		if s.ResumeID != "" {
			fields = append(fields, zap.String(logger.FieldResume, s.ResumeID))
		}
		if s.Failed {
			l.Warn(s.Text, fields...)
			return
		}
		l.Info(s.Text, fields...)
	}
}

// MetricsSink times each step from its status to the next one.
func MetricsSink(m *metrics.Manager) StatusFunc {
	var (
		current Step
		since   time.Time
	)
	return func(s Status) {
		now := time.Now()
		switch {
		case s.Failed:
			m.RecordStep(string(s.Step), true, now.Sub(since))
			current = ""
		case s.Step == StepComplete:
			if current != "" {
				m.RecordStep(string(current), false, now.Sub(since))
			}
			m.RecordStep(string(StepComplete), false, 0)
			current = ""
		default:
			if current != "" {
				m.RecordStep(string(current), false, now.Sub(since))
			}
			current = s.Step
			since = now
		}
	}
}

// EventPublisher ships status events to an external queue.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.StatusEvent) error
}

// EventSink publishes every status. Publish failures are logged only.
func EventSink(ctx context.Context, pub EventPublisher, sessionID string, l *zap.Logger) StatusFunc {
	if pub == nil {
		return nil
	}
	l = logger.WithFields(l, zap.String(logger.FieldSession, sessionID))
	return func(s Status) {
		event := domain.StatusEvent{
			SessionID: sessionID,
			Step:      string(s.Step),
			Text:      s.Text,
			Failed:    s.Failed,
			ResumeID:  s.ResumeID,
			Time:      time.Now().UTC(),
		}
		if err := pub.Publish(ctx, event); err != nil {
			l.Warn("publishing status event", zap.Error(err))
		}
	}
}
