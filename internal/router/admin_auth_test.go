package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/milkdesk/internal/cache"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testJWTSecret = "router-test-secret"

type stubAdminRepo struct {
	admins map[uint]*models.Admin
}

func (s *stubAdminRepo) GetByUsername(string) (*models.Admin, error) { return nil, nil }
func (s *stubAdminRepo) GetByMobile(string) (*models.Admin, error) { return nil, nil }
func (s *stubAdminRepo) GetByID(id uint) (*models.Admin, error) { return s.admins[id], nil }
func (s *stubAdminRepo) List() ([]models.Admin, error) { return nil, nil }
func (s *stubAdminRepo) Create(*models.Admin) error { return nil }
func (s *stubAdminRepo) Update(*models.Admin) error { return nil }

func signAdminToken(t *testing.T, adminID uint, version uint64, issuedAt time.Time) string {
	t.Helper()
	claims := service.JWTClaims{
		AdminID:      adminID,
		Username:     "desk",
		TokenVersion: version,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func serveAdminPing(t *testing.T, repo *stubAdminRepo, authHeader string) (int, gin.H) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware(testJWTSecret, repo))
	r.GET("/api/v1/admin/auth/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "admin_id": c.GetUint(adminIDContextKey), "super": c.GetBool(adminIsSuperContextKey)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/auth/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)

	var body gin.H
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return int(body["status_code"].(float64)), body
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware("", nil))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestJWTAuthMiddlewareAdminState(t *testing.T) {
	now := time.Now()
	invalidBefore := now.Add(-time.Minute)
	repo := &stubAdminRepo{admins: map[uint]*models.Admin{
		1: {ID: 1, Username: "desk", TokenVersion: 2, IsActive: true, IsSuper: true},
		2: {ID: 2, Username: "rider", TokenVersion: 0, IsActive: false},
		3: {ID: 3, Username: "cashier", TokenVersion: 0, IsActive: true, TokenInvalidBefore: &invalidBefore},
	}}

	code, body := serveAdminPing(t, repo, "Bearer "+signAdminToken(t, 1, 2, now))
	if code != 0 || body["admin_id"].(float64) != 1 || body["super"] != true {
		t.Fatalf("valid token should pass, got %v", body)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token " + signAdminToken(t, 1, 2, now)},
		{"bad signature", "Bearer " + signAdminToken(t, 1, 2, now) + "x"},
		{"version bumped", "Bearer " + signAdminToken(t, 1, 1, now)},
		{"disabled admin", "Bearer " + signAdminToken(t, 2, 0, now)},
		{"issued before cutoff", "Bearer " + signAdminToken(t, 3, 0, now.Add(-time.Hour))},
		{"unknown admin", "Bearer " + signAdminToken(t, 9, 0, now)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code, body := serveAdminPing(t, repo, tc.header); code != 401 {
				t.Fatalf("want 401 got %d %v", code, body)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		key    string
	}{
		{"", "", "error.auth_header_missing"},
		{"Bearer", "", "error.auth_header_invalid"},
		{"Bearer   ", "", "error.auth_header_invalid"},
		{"Basic abc", "", "error.auth_header_invalid"},
		{"Bearer abc.def", "abc.def", ""},
	}
	for _, tc := range cases {
		token, key := bearerToken(tc.header)
		if token != tc.token || key != tc.key {
			t.Fatalf("header %q: want (%q,%q) got (%q,%q)", tc.header, tc.token, tc.key, token, key)
		}
	}
}

func TestCheckAdminSession(t *testing.T) {
	issued := jwt.NewNumericDate(time.Unix(1_700_000_000, 0))
	claims := &service.JWTClaims{AdminID: 1, TokenVersion: 3, RegisteredClaims: jwt.RegisteredClaims{IssuedAt: issued}}

	if key := checkAdminSession(claims, nil); key != "error.token_invalid" {
		t.Fatalf("missing state want token_invalid got %q", key)
	}
	if key := checkAdminSession(claims, &cache.AdminAuthState{TokenVersion: 3}); key != "error.admin_disabled" {
		t.Fatalf("inactive want admin_disabled got %q", key)
	}
	if key := checkAdminSession(claims, &cache.AdminAuthState{IsActive: true, TokenVersion: 3, TokenInvalidBefore: issued.Unix() + 1}); key != "error.token_revoked" {
		t.Fatalf("cutoff after issue want token_revoked got %q", key)
	}
	if key := checkAdminSession(claims, &cache.AdminAuthState{IsActive: true, TokenVersion: 3, TokenInvalidBefore: issued.Unix()}); key != "" {
		t.Fatalf("token issued at cutoff should pass, got %q", key)
	}
}

func TestAdminRBACMiddlewareWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("admin_id", uint(1))
		c.Next()
	})
	r.Use(AdminRBACMiddleware(nil))
	r.GET("/api/v1/admin/customers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/customers", nil)
	r.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"status_code":401`) {
		t.Fatalf("nil authz service should reject, got %s", w.Body.String())
	}
}
