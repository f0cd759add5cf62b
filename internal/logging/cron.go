package logging

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// CronLogger adapts slog to the scheduler's logger interface.
type CronLogger struct {
	logger *slog.Logger
}

var _ cron.Logger = (*CronLogger)(nil)

func NewCronLogger(logger *slog.Logger) *CronLogger {
	return &CronLogger{logger: logger.With("component", "scheduler")}
}

// Info is emitted at debug level; the scheduler reports every wake-up through it.
func (c *CronLogger) Info(msg string, keysAndValues ...any) {
	c.logger.Debug(msg, keysAndValues...)
}

func (c *CronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.logger.Error(msg, append([]any{"err", err}, keysAndValues...)...)
}
