package models

import (
	"strings"

	"github.com/milkdesk/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAdminInput 默认管理员参数
type DefaultAdminInput struct {
	Username string
	Password string
	Mobile   string
}

// InitDefaultAdmin 初始化默认管理员账号
func InitDefaultAdmin(input DefaultAdminInput) error {
	var count int64
	if err := DB.Model(&Admin{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = "admin"
	}
	password := input.Password
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := Admin{
		Username:     username,
		DisplayName:  username,
		Mobile:       strings.TrimSpace(input.Mobile),
		PasswordHash: string(hash),
		IsSuper:      true,
		IsActive:     true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_admin_created_with_default_password", "username", username)
	} else {
		logger.Warnw("default_admin_created", "username", username, "password_hidden", true)
	}
	return nil
}

// SeedCatalog 写入初始片区与牛奶券类型（已存在的名称跳过）
func SeedCatalog(areas []string, tokenTypes map[string]string) error {
	for idx, name := range areas {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		area := Area{Name: name, IsActive: true, SortOrder: idx}
		if err := DB.Where(Area{Name: name}).FirstOrCreate(&area).Error; err != nil {
			return err
		}
	}
	sort := 0
	for name, price := range tokenTypes {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		unitPrice, err := NewMoneyFromString(price)
		if err != nil {
			return err
		}
		tokenType := TokenType{Name: name, UnitPrice: unitPrice, IsActive: true, SortOrder: sort}
		if err := DB.Where(TokenType{Name: name}).FirstOrCreate(&tokenType).Error; err != nil {
			return err
		}
		sort++
	}
	return nil
}
