package instrument

import (
	"context"
	"log/slog"

	"github.com/vango-dev/observable/pkg/observable"
)

// LogOption configures the logging spy.
type LogOption func(*logSpy)

// WithLevel sets the level events are logged at (default: Debug).
func WithLevel(level slog.Level) LogOption {
	return func(s *logSpy) {
		s.level = level
	}
}

type logSpy struct {
	logger *slog.Logger
	level  slog.Level
}

// Logger returns a Spy that writes cell events to logger.
// A nil logger uses slog.Default().
func Logger(logger *slog.Logger, opts ...LogOption) observable.Spy {
	if logger == nil {
		logger = slog.Default()
	}
	s := &logSpy{logger: logger, level: slog.LevelDebug}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *logSpy) log(msg string, args ...any) {
	s.logger.Log(context.Background(), s.level, msg, args...)
}

func (s *logSpy) Report(ev observable.SpyEvent) {
	if ev.Type == observable.SpyCreate {
		s.log("cell created", "name", ev.Name, "value", ev.NewValue)
		return
	}
	s.log("observable event", "type", ev.Type, "name", ev.Name)
}

func (s *logSpy) ReportStart(ev observable.SpyEvent) {
	switch ev.Type {
	case observable.SpyUpdate:
		s.log("cell updated", "name", ev.Name, "old", ev.OldValue, "new", ev.NewValue)
	case observable.SpyAction:
		s.log("action started", "name", ev.Name)
	case observable.SpyReaction:
		s.log("reaction started", "name", ev.Name)
	}
}

func (s *logSpy) ReportEnd(ev observable.SpyEvent) {
	switch ev.Type {
	case observable.SpyAction:
		s.log("action finished", "name", ev.Name)
	case observable.SpyReaction:
		s.log("reaction finished", "name", ev.Name)
	}
}
