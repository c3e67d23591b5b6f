package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"

	"github.com/stretchr/testify/require"
)

type capturedSMS struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (c *capturedSMS) SendOtp(_ context.Context, _ string, code string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.codes = append(c.codes, code)
	return nil
}

func (c *capturedSMS) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.codes) == 0 {
		return ""
	}
	return c.codes[len(c.codes)-1]
}

type otpFixture struct {
	svc   *OtpLoginService
	auth  *AuthService
	sms   *capturedSMS
	admin *models.Admin
	clock time.Time
}

func setupOtpFixture(t *testing.T) *otpFixture {
	t.Helper()
	db := openServiceTestDB(t, "service_otp_test")
	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1},
		Otp: config.OtpConfig{ResendIntervalSecs: 30, ExpireSeconds: 300, MaxAttempts: 3},
	}
	adminRepo := repository.NewAdminRepository(db)
	loginLog := NewLoginLogService(repository.NewLogRepository(db))
	auth := NewAuthService(cfg, adminRepo, loginLog)
	sms := &capturedSMS{}
	svc := NewOtpLoginService(cfg.Otp, adminRepo, repository.NewLoginOtpRepository(db), auth, loginLog, NewCaptchaService(config.CaptchaConfig{}), sms)

	hash, err := auth.HashPassword("dispatch-pass")
	require.NoError(t, err)
	admin := &models.Admin{Username: "dispatch", Mobile: "9988776655", PasswordHash: hash, IsActive: true}
	require.NoError(t, db.Create(admin).Error)
	inactive := &models.Admin{Username: "retired", Mobile: "9000000001", PasswordHash: hash, IsActive: false}
	require.NoError(t, db.Create(inactive).Error)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	f := &otpFixture{svc: svc, auth: auth, sms: sms, admin: admin, clock: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	svc.now = func() time.Time { return f.clock }
	return f
}

func TestOtpCountdownThirtyTicks(t *testing.T) {
	sentAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	countdown := NewOtpCountdown(sentAt, 30*time.Second)

	for i := 0; i < 30; i++ {
		now := sentAt.Add(time.Duration(i) * time.Second)
		require.False(t, countdown.CanResend(now), "tick %d must be disabled", i)
		require.Equal(t, 30-i, countdown.Remaining(now))
	}
	require.True(t, countdown.CanResend(sentAt.Add(30*time.Second)))
	require.Equal(t, 0, countdown.Remaining(sentAt.Add(30*time.Second)))
	require.False(t, countdown.CanResend(sentAt.Add(29500*time.Millisecond)))

	ticks := countdown.Ticks()
	require.Len(t, ticks, 31)
	require.Equal(t, 30, ticks[0])
	require.Equal(t, 0, ticks[30])
}

func TestOtpSendVerify(t *testing.T) {
	f := setupOtpFixture(t)
	ctx := t.Context()

	challenge, err := f.svc.SendOtp(ctx, SendOtpInput{Mobile: " 9988776655 "})
	require.NoError(t, err)
	require.Equal(t, constants.OtpStateAwaiting, challenge.State)
	require.Equal(t, 30, challenge.ResendAfterSeconds)
	require.False(t, challenge.CanResend)
	require.Equal(t, "******6655", challenge.Mobile)
	require.Len(t, f.sms.last(), 6)

	_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: "12ab56"})
	require.ErrorIs(t, err, ErrOtpCodeFormat)

	wrong := "000000"
	if f.sms.last() == wrong {
		wrong = "111111"
	}
	_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: wrong})
	require.ErrorIs(t, err, ErrOtpInvalid)

	session, err := f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: f.sms.last()})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	claims, err := f.auth.ParseJWT(session.Token)
	require.NoError(t, err)
	require.Equal(t, f.admin.ID, claims.AdminID)

	_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: f.sms.last()})
	require.ErrorIs(t, err, ErrOtpSessionClosed)
}

func TestOtpUnknownMobile(t *testing.T) {
	f := setupOtpFixture(t)
	_, err := f.svc.SendOtp(t.Context(), SendOtpInput{Mobile: "9123456789"})
	require.ErrorIs(t, err, ErrOtpMobileUnknown)
	_, err = f.svc.SendOtp(t.Context(), SendOtpInput{Mobile: "9000000001"})
	require.ErrorIs(t, err, ErrOtpMobileUnknown)
	_, err = f.svc.SendOtp(t.Context(), SendOtpInput{Mobile: "12345"})
	require.ErrorIs(t, err, ErrMobileInvalid)
}

func TestOtpResendCountdown(t *testing.T) {
	f := setupOtpFixture(t)
	ctx := t.Context()

	challenge, err := f.svc.SendOtp(ctx, SendOtpInput{Mobile: "9988776655"})
	require.NoError(t, err)
	firstCode := f.sms.last()

	f.clock = f.clock.Add(29 * time.Second)
	_, err = f.svc.ResendOtp(ctx, challenge.SessionID)
	require.ErrorIs(t, err, ErrOtpResendTooEarly)
	var early *ResendTooEarlyError
	require.True(t, errors.As(err, &early))
	require.Equal(t, 1, early.RemainingSeconds)

	f.clock = f.clock.Add(time.Second)
	resent, err := f.svc.ResendOtp(ctx, challenge.SessionID)
	require.NoError(t, err)
	require.Equal(t, 30, resent.ResendAfterSeconds)
	secondCode := f.sms.last()
	require.Len(t, f.sms.codes, 2)

	if firstCode != secondCode {
		_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: firstCode})
		require.ErrorIs(t, err, ErrOtpInvalid)
	}
	_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: secondCode})
	require.NoError(t, err)
}

func TestOtpExpiryAndAttempts(t *testing.T) {
	f := setupOtpFixture(t)
	ctx := t.Context()

	challenge, err := f.svc.SendOtp(ctx, SendOtpInput{Mobile: "9988776655"})
	require.NoError(t, err)
	code := f.sms.last()
	wrong := "000000"
	if code == wrong {
		wrong = "999999"
	}
	for i := 0; i < 3; i++ {
		_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: wrong})
		require.ErrorIs(t, err, ErrOtpInvalid)
	}
	_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: code})
	require.ErrorIs(t, err, ErrOtpTooManyAttempts)

	other, err := f.svc.SendOtp(ctx, SendOtpInput{Mobile: "9988776655"})
	require.NoError(t, err)
	f.clock = f.clock.Add(301 * time.Second)
	_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: other.SessionID, Code: f.sms.last()})
	require.ErrorIs(t, err, ErrOtpExpired)
}

func TestOtpCancelReturnsToIdle(t *testing.T) {
	f := setupOtpFixture(t)
	ctx := t.Context()

	challenge, err := f.svc.SendOtp(ctx, SendOtpInput{Mobile: "9988776655"})
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelOtp(ctx, challenge.SessionID))
	require.NoError(t, f.svc.CancelOtp(ctx, challenge.SessionID))

	status, err := f.svc.Status(challenge.SessionID)
	require.NoError(t, err)
	require.Equal(t, constants.OtpStateIdle, status.State)

	_, err = f.svc.ResendOtp(ctx, challenge.SessionID)
	require.ErrorIs(t, err, ErrOtpSessionClosed)
	require.ErrorIs(t, f.svc.CancelOtp(ctx, "missing"), ErrOtpSessionNotFound)
}

func TestOtpSendFailureSurfaces(t *testing.T) {
	f := setupOtpFixture(t)
	f.sms.err = ErrSMSGatewayRejected
	_, err := f.svc.SendOtp(t.Context(), SendOtpInput{Mobile: "9988776655"})
	require.ErrorIs(t, err, ErrSMSGatewayRejected)
}

func TestOtpDeliverSkipsStaleCounter(t *testing.T) {
	f := setupOtpFixture(t)
	ctx := t.Context()
	challenge, err := f.svc.SendOtp(ctx, SendOtpInput{Mobile: "9988776655"})
	require.NoError(t, err)
	require.Len(t, f.sms.codes, 1)

	require.NoError(t, f.svc.DeliverCode(ctx, challenge.SessionID, 5))
	require.Len(t, f.sms.codes, 1)
}

func TestPasswordLogin(t *testing.T) {
	f := setupOtpFixture(t)
	ctx := t.Context()

	_, err := f.auth.Login(ctx, "dispatch", "wrong-pass", LoginContext{})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "retired", "dispatch-pass", LoginContext{})
	require.ErrorIs(t, err, ErrAdminDisabled)

	session, err := f.auth.Login(ctx, "dispatch", "dispatch-pass", LoginContext{ClientIP: "10.0.0.1"})
	require.NoError(t, err)
	require.NotNil(t, session.Admin.LastLoginAt)
	before := session.Admin.TokenVersion

	require.NoError(t, f.auth.Logout(ctx, f.admin.ID))
	admin, err := f.auth.GetAdmin(f.admin.ID)
	require.NoError(t, err)
	require.Equal(t, before+1, admin.TokenVersion)
	require.NotNil(t, admin.TokenInvalidBefore)
}

type interleavedOtpRepo struct {
	*repository.GormLoginOtpRepository
	fired  bool
	before func()
}

func (r *interleavedOtpRepo) Transition(id uint, fromState string, updates map[string]interface{}) (bool, error) {
	if !r.fired && r.before != nil {
		r.fired = true
		r.before()
	}
	return r.GormLoginOtpRepository.Transition(id, fromState, updates)
}

func TestOtpVerifyIssuesSingleSession(t *testing.T) {
	f := setupOtpFixture(t)
	ctx := t.Context()

	challenge, err := f.svc.SendOtp(ctx, SendOtpInput{Mobile: "9988776655"})
	require.NoError(t, err)
	code := f.sms.last()

	base, ok := f.svc.otpRepo.(*repository.GormLoginOtpRepository)
	require.True(t, ok)
	var concurrent *LoginSession
	var concurrentErr error
	f.svc.otpRepo = &interleavedOtpRepo{
		GormLoginOtpRepository: base,
		before: func() {
			concurrent, concurrentErr = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: code})
		},
	}

	_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: code})
	require.ErrorIs(t, err, ErrOtpSessionClosed)
	require.NoError(t, concurrentErr)
	require.NotEmpty(t, concurrent.Token)

	stored, err := base.GetBySessionID(challenge.SessionID)
	require.NoError(t, err)
	require.Equal(t, constants.OtpStateVerified, stored.State)
	require.Empty(t, stored.Secret)
}

func TestOtpReserveAttemptStopsAtLimit(t *testing.T) {
	f := setupOtpFixture(t)
	challenge, err := f.svc.SendOtp(t.Context(), SendOtpInput{Mobile: "9988776655"})
	require.NoError(t, err)

	repo := f.svc.otpRepo
	session, err := repo.GetBySessionID(challenge.SessionID)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		reserved, err := repo.ReserveAttempt(session.ID, 3)
		require.NoError(t, err)
		require.True(t, reserved, "attempt %d", i+1)
	}
	reserved, err := repo.ReserveAttempt(session.ID, 3)
	require.NoError(t, err)
	require.False(t, reserved)

	session, err = repo.GetBySessionID(challenge.SessionID)
	require.NoError(t, err)
	require.Equal(t, 3, session.AttemptCount)
}

func TestOtpResendKeepsAttemptBudget(t *testing.T) {
	f := setupOtpFixture(t)
	ctx := t.Context()

	challenge, err := f.svc.SendOtp(ctx, SendOtpInput{Mobile: "9988776655"})
	require.NoError(t, err)
	wrongFor := func(code string) string {
		if code == "000000" {
			return "999999"
		}
		return "000000"
	}

	for i := 0; i < 2; i++ {
		_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: wrongFor(f.sms.last())})
		require.ErrorIs(t, err, ErrOtpInvalid)
	}

	f.clock = f.clock.Add(30 * time.Second)
	_, err = f.svc.ResendOtp(ctx, challenge.SessionID)
	require.NoError(t, err)

	_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: wrongFor(f.sms.last())})
	require.ErrorIs(t, err, ErrOtpInvalid)
	_, err = f.svc.VerifyOtp(ctx, VerifyOtpInput{SessionID: challenge.SessionID, Code: f.sms.last()})
	require.ErrorIs(t, err, ErrOtpTooManyAttempts)

	f.clock = f.clock.Add(30 * time.Second)
	_, err = f.svc.ResendOtp(ctx, challenge.SessionID)
	require.ErrorIs(t, err, ErrOtpTooManyAttempts)
	require.Len(t, f.sms.codes, 2)
}

func TestOtpCancelClearsSecret(t *testing.T) {
	f := setupOtpFixture(t)
	ctx := t.Context()

	challenge, err := f.svc.SendOtp(ctx, SendOtpInput{Mobile: "9988776655"})
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelOtp(ctx, challenge.SessionID))

	stored, err := f.svc.otpRepo.GetBySessionID(challenge.SessionID)
	require.NoError(t, err)
	require.Equal(t, constants.OtpStateCancelled, stored.State)
	require.Empty(t, stored.Secret)
}
