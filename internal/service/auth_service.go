package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/milkdesk/internal/cache"
	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 认证服务
type AuthService struct {
	cfg       *config.Config
	adminRepo repository.AdminRepository
	loginLog  *LoginLogService
}

// LoginSession 登录成功后的会话
type LoginSession struct {
	Admin     *models.Admin `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// LoginContext 登录请求上下文信息
type LoginContext struct {
	ClientIP  string
	UserAgent string
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository, loginLog *LoginLogService) *AuthService {
	return &AuthService{
		cfg:       cfg,
		adminRepo: adminRepo,
		loginLog:  loginLog,
	}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// JWTClaims JWT 声明
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(admin *models.Admin) (string, time.Time, error) {
	hours := s.cfg.JWT.ExpireHours
	if hours <= 0 {
		hours = 12
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := JWTClaims{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("无效的 token")
}

// Login 员工账号密码登录
func (s *AuthService) Login(ctx context.Context, username, password string, meta LoginContext) (*LoginSession, error) {
	username = strings.TrimSpace(username)
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if admin == nil || s.VerifyPassword(admin.PasswordHash, password) != nil {
		s.recordLogin(ctx, 0, username, constants.LoginMethodPassword, constants.LoginFailReasonBadCredentials, meta)
		return nil, ErrInvalidCredentials
	}
	if !admin.IsActive {
		s.recordLogin(ctx, admin.ID, username, constants.LoginMethodPassword, constants.LoginFailReasonDisabled, meta)
		return nil, ErrAdminDisabled
	}

	session, err := s.IssueSession(ctx, admin)
	if err != nil {
		return nil, err
	}
	s.recordLogin(ctx, admin.ID, username, constants.LoginMethodPassword, "", meta)
	return session, nil
}

// IssueSession 为已通过认证的员工签发 Token 并刷新登录态缓存
func (s *AuthService) IssueSession(ctx context.Context, admin *models.Admin) (*LoginSession, error) {
	token, expiresAt, err := s.GenerateJWT(admin)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	admin.LastLoginAt = &now
	if err := s.adminRepo.Update(admin); err != nil {
		return nil, err
	}
	if err := cache.SetAdminAuthState(ctx, cache.BuildAdminAuthState(admin)); err != nil {
		logger.FromContext(ctx).Warnw("admin_auth_state_cache_failed", "admin_id", admin.ID, "error", err)
	}
	return &LoginSession{Admin: admin, Token: token, ExpiresAt: expiresAt}, nil
}

// GetAdmin 获取当前登录员工
func (s *AuthService) GetAdmin(adminID uint) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrAdminNotFound
	}
	return admin, nil
}

// Logout 退出登录，使该员工已签发的所有 Token 失效
func (s *AuthService) Logout(ctx context.Context, adminID uint) error {
	return s.revokeTokens(ctx, adminID)
}

// ChangePassword 修改员工密码
func (s *AuthService) ChangePassword(ctx context.Context, adminID uint, oldPassword, newPassword string) error {
	admin, err := s.GetAdmin(adminID)
	if err != nil {
		return err
	}
	if err := s.VerifyPassword(admin.PasswordHash, oldPassword); err != nil {
		return ErrInvalidPassword
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}
	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	admin.PasswordHash = hashedPassword
	if err := s.adminRepo.Update(admin); err != nil {
		return err
	}
	return s.revokeTokens(ctx, adminID)
}

func (s *AuthService) revokeTokens(ctx context.Context, adminID uint) error {
	admin, err := s.GetAdmin(adminID)
	if err != nil {
		return err
	}
	now := time.Now()
	admin.TokenVersion++
	admin.TokenInvalidBefore = &now
	if err := s.adminRepo.Update(admin); err != nil {
		return err
	}
	if err := cache.SetAdminAuthState(ctx, cache.BuildAdminAuthState(admin)); err != nil {
		logger.FromContext(ctx).Warnw("admin_auth_state_cache_failed", "admin_id", admin.ID, "error", err)
	}
	return nil
}

func (s *AuthService) recordLogin(ctx context.Context, adminID uint, account, method, failReason string, meta LoginContext) {
	status := constants.LoginStatusSuccess
	if failReason != "" {
		status = constants.LoginStatusFailed
	}
	s.loginLog.Record(ctx, LoginLogInput{
		AdminID:    adminID,
		Account:    account,
		Method:     method,
		Status:     status,
		FailReason: failReason,
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
	})
}
