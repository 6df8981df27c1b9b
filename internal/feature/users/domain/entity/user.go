// Package entity はusersフィーチャーのドメインモデルを定義します。
package entity

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRole is returned when a role string does not name a known role.
var ErrInvalidRole = errors.New("invalid role")

// Role はユーザーの権限区分です。
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts s into a Role. Matching is exact.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Status はアカウントの状態です。
type Status string

const StatusActive Status = "ACTIVE"

// User はユーザーアカウントを表すドメインエンティティです。
// validateタグはユースケース層で永続化前に検証されます。
type User struct {
	ID           uint
	Username     string `validate:"required,max=20"`
	Email        string `validate:"required,email"`
	PasswordHash string `validate:"required"`
	Role         Role   `validate:"required,oneof=USER ADMIN"`
	Status       Status `validate:"required"`
	Created      time.Time
	Updated      time.Time
	// LastLogin is never written by this service.
	LastLogin *time.Time
}
