package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/milkdesk/internal/config"

	"github.com/stretchr/testify/require"
)

func TestSMSServiceSendOtp(t *testing.T) {
	var got smsSendRequest
	var apiKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		apiKey = r.Header.Get("X-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message_id":"m-1"}`))
	}))
	defer server.Close()

	svc := NewSMSService(config.SMSConfig{Enabled: true, BaseURL: server.URL + "/", APIKey: "k-1", Sender: "MILKDK"})
	require.NoError(t, svc.SendOtp(t.Context(), "9988776655", "123456", 5*time.Minute))
	require.Equal(t, "k-1", apiKey)
	require.Equal(t, "9988776655", got.To)
	require.Equal(t, "MILKDK", got.Sender)
	require.True(t, strings.Contains(got.Message, "123456"))
	require.True(t, strings.Contains(got.Message, "5 minutes"))
}

func TestSMSServiceGatewayRejects(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"success":false}`},
		{"not accepted", http.StatusOK, `{"success":false,"error":"dnd number"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			svc := NewSMSService(config.SMSConfig{Enabled: true, BaseURL: server.URL})
			err := svc.SendOtp(t.Context(), "9988776655", "123456", time.Minute)
			require.ErrorIs(t, err, ErrSMSGatewayRejected)
		})
	}
}

func TestSMSServiceDisabledAndUnconfigured(t *testing.T) {
	disabled := NewSMSService(config.SMSConfig{})
	require.NoError(t, disabled.SendOtp(t.Context(), "9988776655", "123456", time.Minute))

	unconfigured := NewSMSService(config.SMSConfig{Enabled: true})
	require.ErrorIs(t, unconfigured.SendOtp(t.Context(), "9988776655", "123456", time.Minute), ErrSMSGatewayNotConfig)
}

func TestBuildOtpMessage(t *testing.T) {
	require.Equal(t, "Code 654321 valid 2m", buildOtpMessage("Code %s valid %dm", "654321", 2*time.Minute))
	require.Equal(t, "Your milkdesk login code is 000111. It expires in 1 minutes.", buildOtpMessage("", "000111", 10*time.Second))
	require.Equal(t, "******4321", maskMobile("9876544321"))
}
