package service

import "time"

const defaultOtpResendInterval = 30 * time.Second

// OtpCountdown 验证码重发倒计时
// 发送时刻 t0 起，t0+0s..t0+(interval-1s) 禁止重发，t0+interval 起允许。
type OtpCountdown struct {
	sentAt   time.Time
	interval time.Duration
}

// NewOtpCountdown 创建倒计时
func NewOtpCountdown(sentAt time.Time, interval time.Duration) OtpCountdown {
	if interval <= 0 {
		interval = defaultOtpResendInterval
	}
	return OtpCountdown{sentAt: sentAt, interval: interval}
}

// Remaining 剩余秒数，向上取整
func (c OtpCountdown) Remaining(now time.Time) int {
	elapsed := now.Sub(c.sentAt)
	if elapsed < 0 {
		elapsed = 0
	}
	left := c.interval - elapsed
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// CanResend 是否允许重发
func (c OtpCountdown) CanResend(now time.Time) bool {
	return c.Remaining(now) == 0
}

// Ticks 从发送时刻起每秒一次的剩余秒数序列，直到归零（含 0）
func (c OtpCountdown) Ticks() []int {
	ticks := make([]int, 0, int(c.interval/time.Second)+1)
	for at := c.sentAt; ; at = at.Add(time.Second) {
		remaining := c.Remaining(at)
		ticks = append(ticks, remaining)
		if remaining == 0 {
			return ticks
		}
	}
}

// ResendTooEarlyError 倒计时未结束时重发
type ResendTooEarlyError struct {
	RemainingSeconds int
}

func (e *ResendTooEarlyError) Error() string {
	return ErrOtpResendTooEarly.Error()
}

// Unwrap 支持 errors.Is(err, ErrOtpResendTooEarly)
func (e *ResendTooEarlyError) Unwrap() error {
	return ErrOtpResendTooEarly
}
