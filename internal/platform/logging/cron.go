package logging

// CronAdapter satisfies robfig/cron's Logger interface.
type CronAdapter struct {
	logger *Logger
}

func CronLogger(l *Logger) CronAdapter {
	if l == nil {
		l = Default()
	}
	return CronAdapter{logger: l}
}

func (a CronAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a CronAdapter) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"error", err}, keysAndValues...)
	a.logger.Error("cron: "+msg, args...)
}
