package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestResolveLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		header string
		value  string
		want   string
	}{
		{"", "", LocaleEN},
		{"X-Locale", "zh-CN", LocaleZH},
		{"Accept-Language", "fr-FR;q=0.9, zh-TW;q=0.8", LocaleZH},
		{"Accept-Language", "en-IN,en;q=0.9", LocaleEN},
		{"Accept-Language", "hi-IN", LocaleEN},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)
		if tc.header != "" {
			c.Request.Header.Set(tc.header, tc.value)
		}
		if got := ResolveLocale(c); got != tc.want {
			t.Fatalf("%s=%q: want %s, got %s", tc.header, tc.value, tc.want, got)
		}
	}
}

func TestTranslateFallback(t *testing.T) {
	if got := T(LocaleZH, "error.order_not_found"); got != "订单不存在" {
		t.Fatalf("unexpected zh message: %s", got)
	}
	if got := T(LocaleZH, "error.token_audit_failed"); got != "Could not run balance audit" {
		t.Fatalf("expected english fallback, got %s", got)
	}
	if got := T("fr", "error.missing_key"); got != "error.missing_key" {
		t.Fatalf("expected key fallback, got %s", got)
	}
}

func TestSprintf(t *testing.T) {
	if got := Sprintf(LocaleEN, "error.rate_limited", 12); got != "Too many attempts, retry in 12 seconds" {
		t.Fatalf("unexpected message: %s", got)
	}
	if got := Sprintf(LocaleZH, "error.rate_limited", 5); got != "操作过于频繁，请 5 秒后重试" {
		t.Fatalf("unexpected zh message: %s", got)
	}
}
