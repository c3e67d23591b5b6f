package worker

import (
	"fmt"

	"github.com/milkdesk/internal/logger"
)

// asynqLogger 将 asynq 内部日志接入 zap
type asynqLogger struct{}

func newAsynqLogger() asynqLogger {
	return asynqLogger{}
}

func (asynqLogger) Debug(args ...interface{}) {
	logger.Debugw("asynq_debug", "message", fmt.Sprint(args...))
}

func (asynqLogger) Info(args ...interface{}) {
	logger.Infow("asynq_info", "message", fmt.Sprint(args...))
}

func (asynqLogger) Warn(args ...interface{}) {
	logger.Warnw("asynq_warn", "message", fmt.Sprint(args...))
}

func (asynqLogger) Error(args ...interface{}) {
	logger.Errorw("asynq_error", "message", fmt.Sprint(args...))
}

func (asynqLogger) Fatal(args ...interface{}) {
	logger.Errorw("asynq_fatal", "message", fmt.Sprint(args...))
}
