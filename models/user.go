package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID           int       `gorm:"primary_key" json:"id"`
	BusinessId   string    `gorm:"index;not null" json:"business_id"`
	Username     string    `gorm:"size:100;not null;index:uniq_username,unique" json:"username" binding:"required"`
	Name         string    `gorm:"size:100" json:"name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:30;not null;default:'staff'" json:"role"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns a signed JWT carrying
// {id, role, businessId} for downstream handlers.
func Login(ctx context.Context, tx *gorm.DB, input LoginInput) (string, error) {
	var user User
	err := tx.WithContext(ctx).Where("username = ?", input.Username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", utils.Validationf("invalid username or password")
		}
		return "", utils.Upstream(err)
	}
	if user.IsActive != nil && !*user.IsActive {
		return "", utils.Validationf("account is disabled")
	}
	if err := utils.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return "", utils.Validationf("invalid username or password")
	}
	return utils.JwtGenerate(user.ID, user.Role, user.BusinessId)
}
