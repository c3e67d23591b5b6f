package service

import (
	"testing"

	"github.com/milkdesk/internal/config"

	"github.com/stretchr/testify/require"
)

func TestCaptchaServiceDisabled(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{})
	require.False(t, svc.Enabled())
	require.NoError(t, svc.Verify(CaptchaVerifyPayload{}))

	_, err := svc.GenerateImageChallenge()
	require.ErrorIs(t, err, ErrCaptchaConfigInvalid)
}

func TestCaptchaServiceEnabled(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Enabled: true})
	require.True(t, svc.Enabled())

	require.ErrorIs(t, svc.Verify(CaptchaVerifyPayload{}), ErrCaptchaRequired)

	challenge, err := svc.GenerateImageChallenge()
	require.NoError(t, err)
	require.NotEmpty(t, challenge.CaptchaID)
	require.NotEmpty(t, challenge.ImageBase64)

	require.ErrorIs(t, svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: "wrong!"}), ErrCaptchaInvalid)
}

func TestNormalizeCaptchaConfigDefaults(t *testing.T) {
	cfg := normalizeCaptchaConfig(config.CaptchaConfig{})
	require.Equal(t, 5, cfg.Image.Length)
	require.Equal(t, 240, cfg.Image.Width)
	require.Equal(t, 80, cfg.Image.Height)
}
