package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/metrics"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const otpIssuer = "milkdesk"

var otpCodePattern = regexp.MustCompile(`^\d{6}$`)

var otpValidateOpts = hotp.ValidateOpts{
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// OtpDispatcher 验证码投递调度
// 只传递会话与计数器，验证码在投递时重新计算，不进入队列载荷。
type OtpDispatcher interface {
	DispatchOtp(ctx context.Context, sessionID string, counter uint64) error
}

// OtpLoginService 手机号 OTP 登录服务
type OtpLoginService struct {
	cfg        config.OtpConfig
	adminRepo  repository.AdminRepository
	otpRepo    repository.LoginOtpRepository
	auth       *AuthService
	loginLog   *LoginLogService
	captcha    *CaptchaService
	sms        SMSSender
	dispatcher OtpDispatcher
	now        func() time.Time
}

// SendOtpInput 发送验证码输入
type SendOtpInput struct {
	Mobile  string
	Captcha CaptchaVerifyPayload
	Meta    LoginContext
}

// VerifyOtpInput 校验验证码输入
type VerifyOtpInput struct {
	SessionID string
	Code      string
	Meta      LoginContext
}

// OtpChallenge 验证码会话下发信息
type OtpChallenge struct {
	SessionID          string `json:"session_id"`
	Mobile             string `json:"mobile"`
	State              string `json:"state"`
	ResendAfterSeconds int    `json:"resend_after_seconds"`
	ExpiresInSeconds   int    `json:"expires_in_seconds"`
	CanResend          bool   `json:"can_resend"`
}

// NewOtpLoginService 创建 OTP 登录服务
func NewOtpLoginService(
	cfg config.OtpConfig,
	adminRepo repository.AdminRepository,
	otpRepo repository.LoginOtpRepository,
	auth *AuthService,
	loginLog *LoginLogService,
	captcha *CaptchaService,
	sms SMSSender,
) *OtpLoginService {
	return &OtpLoginService{
		cfg:       cfg,
		adminRepo: adminRepo,
		otpRepo:   otpRepo,
		auth:      auth,
		loginLog:  loginLog,
		captcha:   captcha,
		sms:       sms,
		now:       time.Now,
	}
}

// SetDispatcher 设置异步投递；为空时同步发送
func (s *OtpLoginService) SetDispatcher(dispatcher OtpDispatcher) {
	s.dispatcher = dispatcher
}

// SendOtp 校验手机号并发送验证码，进入 awaiting_otp
func (s *OtpLoginService) SendOtp(ctx context.Context, input SendOtpInput) (*OtpChallenge, error) {
	mobile, err := NormalizeMobile(input.Mobile)
	if err != nil {
		return nil, err
	}
	if err := s.captcha.Verify(input.Captcha); err != nil {
		return nil, err
	}
	admin, err := s.adminRepo.GetByMobile(mobile)
	if err != nil {
		return nil, err
	}
	if admin == nil || !admin.IsActive {
		metrics.ObserveOtp("send", "unknown_mobile")
		s.recordLogin(ctx, 0, mobile, constants.LoginFailReasonUnknownMobile, input.Meta)
		return nil, ErrOtpMobileUnknown
	}

	key, err := hotp.Generate(hotp.GenerateOpts{
		Issuer:      otpIssuer,
		AccountName: admin.Username,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.LoginOtp{
		SessionID: uuid.NewString(),
		AdminID:   admin.ID,
		Mobile:    mobile,
		Secret:    key.Secret(),
		Counter:   0,
		State:     constants.OtpStateAwaiting,
		SendCount: 1,
		SentAt:    now,
		ExpiresAt: now.Add(s.cfg.ExpireDuration()),
		ClientIP:  strings.TrimSpace(input.Meta.ClientIP),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.otpRepo.Create(session); err != nil {
		return nil, err
	}
	if err := s.dispatch(ctx, session); err != nil {
		metrics.ObserveOtp("send", "failed")
		return nil, err
	}
	metrics.ObserveOtp("send", "ok")
	logger.FromContext(ctx).Infow("otp_session_started",
		"session_id", session.SessionID,
		"admin_id", admin.ID,
	)
	return s.challenge(session, now), nil
}

// ResendOtp 倒计时结束后重发验证码
// 重发不重置校验次数，同一会话的校验机会总数固定。
func (s *OtpLoginService) ResendOtp(ctx context.Context, sessionID string) (*OtpChallenge, error) {
	session, err := s.openSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.AttemptCount >= s.maxAttempts() {
		metrics.ObserveOtp("resend", "too_many_attempts")
		return nil, ErrOtpTooManyAttempts
	}
	now := s.now()
	countdown := NewOtpCountdown(session.SentAt, s.cfg.ResendInterval())
	if !countdown.CanResend(now) {
		metrics.ObserveOtp("resend", "too_early")
		return nil, &ResendTooEarlyError{RemainingSeconds: countdown.Remaining(now)}
	}

	previous := session.Counter
	session.Counter++
	session.SendCount++
	session.SentAt = now
	session.ExpiresAt = now.Add(s.cfg.ExpireDuration())
	session.UpdatedAt = now
	advanced, err := s.otpRepo.Advance(session.ID, previous, map[string]interface{}{
		"counter":    session.Counter,
		"send_count": session.SendCount,
		"sent_at":    session.SentAt,
		"expires_at": session.ExpiresAt,
		"updated_at": session.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	if !advanced {
		return nil, ErrOtpSessionClosed
	}
	if err := s.dispatch(ctx, session); err != nil {
		metrics.ObserveOtp("resend", "failed")
		return nil, err
	}
	metrics.ObserveOtp("resend", "ok")
	return s.challenge(session, now), nil
}

// VerifyOtp 校验验证码并签发登录 Token
// 先原子占用一次校验机会，通过后以条件更新切换为 verified，同一会话只签发一次。
func (s *OtpLoginService) VerifyOtp(ctx context.Context, input VerifyOtpInput) (*LoginSession, error) {
	code := strings.TrimSpace(input.Code)
	if !otpCodePattern.MatchString(code) {
		return nil, ErrOtpCodeFormat
	}
	session, err := s.openSession(input.SessionID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.otpRepo.ReserveAttempt(session.ID, s.maxAttempts())
	if err != nil {
		return nil, err
	}
	if !reserved {
		if _, closedErr := s.openSession(input.SessionID); closedErr != nil {
			return nil, closedErr
		}
		s.recordLogin(ctx, session.AdminID, session.Mobile, constants.LoginFailReasonTooManyAttempts, input.Meta)
		metrics.ObserveOtp("verify", "too_many_attempts")
		return nil, ErrOtpTooManyAttempts
	}
	now := s.now()
	if now.After(session.ExpiresAt) {
		s.recordLogin(ctx, session.AdminID, session.Mobile, constants.LoginFailReasonOtpExpired, input.Meta)
		metrics.ObserveOtp("verify", "expired")
		return nil, ErrOtpExpired
	}
	ok, err := hotp.ValidateCustom(code, session.Counter, session.Secret, otpValidateOpts)
	if err != nil || !ok {
		s.recordLogin(ctx, session.AdminID, session.Mobile, constants.LoginFailReasonInvalidOtp, input.Meta)
		metrics.ObserveOtp("verify", "invalid")
		return nil, ErrOtpInvalid
	}

	admin, err := s.adminRepo.GetByID(session.AdminID)
	if err != nil {
		return nil, err
	}
	if admin == nil || !admin.IsActive {
		s.recordLogin(ctx, session.AdminID, session.Mobile, constants.LoginFailReasonDisabled, input.Meta)
		return nil, ErrAdminDisabled
	}

	verified, err := s.otpRepo.Transition(session.ID, constants.OtpStateAwaiting, map[string]interface{}{
		"state":       constants.OtpStateVerified,
		"verified_at": now,
		"secret":      "",
		"updated_at":  now,
	})
	if err != nil {
		return nil, err
	}
	if !verified {
		metrics.ObserveOtp("verify", "closed")
		return nil, ErrOtpSessionClosed
	}
	loginSession, err := s.auth.IssueSession(ctx, admin)
	if err != nil {
		return nil, err
	}
	s.recordLogin(ctx, admin.ID, session.Mobile, "", input.Meta)
	metrics.ObserveOtp("verify", "ok")
	return loginSession, nil
}

// CancelOtp 放弃当前会话，回到手机号输入
func (s *OtpLoginService) CancelOtp(ctx context.Context, sessionID string) error {
	session, err := s.otpRepo.GetBySessionID(sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrOtpSessionNotFound
	}
	if session.State != constants.OtpStateAwaiting {
		return nil
	}
	if _, err := s.otpRepo.Transition(session.ID, constants.OtpStateAwaiting, map[string]interface{}{
		"state":      constants.OtpStateCancelled,
		"secret":     "",
		"updated_at": s.now(),
	}); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("otp_session_cancelled", "session_id", session.SessionID)
	return nil
}

// Status 查询会话状态与倒计时
func (s *OtpLoginService) Status(sessionID string) (*OtpChallenge, error) {
	session, err := s.otpRepo.GetBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrOtpSessionNotFound
	}
	return s.challenge(session, s.now()), nil
}

// DeliverCode 计算并发送验证码
// counter 与会话当前计数器不一致时说明已被重发覆盖，直接跳过。
func (s *OtpLoginService) DeliverCode(ctx context.Context, sessionID string, counter uint64) error {
	session, err := s.otpRepo.GetBySessionID(sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrOtpSessionNotFound
	}
	if session.State != constants.OtpStateAwaiting || session.Counter != counter {
		logger.FromContext(ctx).Infow("otp_delivery_skipped",
			"session_id", sessionID,
			"counter", counter,
			"state", session.State,
		)
		return nil
	}
	code, err := hotp.GenerateCodeCustom(session.Secret, session.Counter, otpValidateOpts)
	if err != nil {
		return err
	}
	if s.sms == nil {
		return ErrSMSGatewayNotConfig
	}
	return s.sms.SendOtp(ctx, session.Mobile, code, s.cfg.ExpireDuration())
}

// CleanupSessions 清理过期会话
func (s *OtpLoginService) CleanupSessions(ctx context.Context) (int64, error) {
	days := s.cfg.SessionRetainedDays
	if days <= 0 {
		days = 30
	}
	before := s.now().AddDate(0, 0, -days)
	deleted, err := s.otpRepo.DeleteCreatedBefore(before)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.FromContext(ctx).Infow("otp_sessions_cleaned", "deleted", deleted, "before", before)
	}
	return deleted, nil
}

func (s *OtpLoginService) maxAttempts() int {
	if s.cfg.MaxAttempts <= 0 {
		return 5
	}
	return s.cfg.MaxAttempts
}

func (s *OtpLoginService) openSession(sessionID string) (*models.LoginOtp, error) {
	session, err := s.otpRepo.GetBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrOtpSessionNotFound
	}
	if session.State != constants.OtpStateAwaiting {
		return nil, ErrOtpSessionClosed
	}
	return session, nil
}

func (s *OtpLoginService) dispatch(ctx context.Context, session *models.LoginOtp) error {
	if s.dispatcher != nil {
		err := s.dispatcher.DispatchOtp(ctx, session.SessionID, session.Counter)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrQueueUnavailable) {
			return err
		}
		logger.FromContext(ctx).Warnw("otp_dispatch_fallback_inline", "session_id", session.SessionID)
	}
	if err := s.DeliverCode(ctx, session.SessionID, session.Counter); err != nil {
		logger.FromContext(ctx).Errorw("otp_delivery_failed", "session_id", session.SessionID, "error", err)
		if errors.Is(err, ErrOtpSendFailed) || errors.Is(err, ErrSMSGatewayRejected) {
			return err
		}
		return ErrOtpSendFailed
	}
	return nil
}

func (s *OtpLoginService) challenge(session *models.LoginOtp, now time.Time) *OtpChallenge {
	state := session.State
	if state == constants.OtpStateCancelled {
		state = constants.OtpStateIdle
	}
	out := &OtpChallenge{
		SessionID: session.SessionID,
		Mobile:    maskMobile(session.Mobile),
		State:     state,
	}
	if session.State != constants.OtpStateAwaiting {
		return out
	}
	countdown := NewOtpCountdown(session.SentAt, s.cfg.ResendInterval())
	out.ResendAfterSeconds = countdown.Remaining(now)
	out.CanResend = countdown.CanResend(now)
	if left := session.ExpiresAt.Sub(now); left > 0 {
		out.ExpiresInSeconds = int(left / time.Second)
	}
	return out
}

func (s *OtpLoginService) recordLogin(ctx context.Context, adminID uint, mobile, failReason string, meta LoginContext) {
	status := constants.LoginStatusSuccess
	if failReason != "" {
		status = constants.LoginStatusFailed
	}
	s.loginLog.Record(ctx, LoginLogInput{
		AdminID:    adminID,
		Account:    mobile,
		Method:     constants.LoginMethodOtp,
		Status:     status,
		FailReason: failReason,
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
	})
}
