package adapters

import (
	"time"

	"user_backend/internal/feature/users/domain/entity"
)

// UserModel is the GORM model for the user_account table.
type UserModel struct {
	ID           uint       `gorm:"primaryKey"`
	Username     string     `gorm:"size:20;not null;uniqueIndex:uk_user_account_username"`
	Email        string     `gorm:"size:255;not null;uniqueIndex:uk_user_account_email"`
	PasswordHash string     `gorm:"column:password_hash;size:255;not null"`
	Role         string     `gorm:"size:16;not null"`
	Status       string     `gorm:"column:user_status;size:16;not null"`
	Created      time.Time  `gorm:"column:created;<-:create;autoCreateTime"`
	Updated      time.Time  `gorm:"column:updated;autoUpdateTime"`
	LastLogin    *time.Time `gorm:"column:last_login"`
}

// TableName returns the table name for GORM.
func (UserModel) TableName() string {
	return "user_account"
}

// ToEntity converts the GORM model to a domain entity.
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         entity.Role(m.Role),
		Status:       entity.Status(m.Status),
		Created:      m.Created,
		Updated:      m.Updated,
		LastLogin:    m.LastLogin,
	}
}

// UserModelFromEntity converts a domain entity to a GORM model.
func UserModelFromEntity(u *entity.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Status:       string(u.Status),
		Created:      u.Created,
		Updated:      u.Updated,
		LastLogin:    u.LastLogin,
	}
}
