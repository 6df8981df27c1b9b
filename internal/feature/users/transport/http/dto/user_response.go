package dto

import (
	"time"

	"user_backend/internal/feature/users/domain/entity"
)

// UserRes is the outward projection of a user. It never carries the ID or the password hash.
type UserRes struct {
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	UserStatus string     `json:"userStatus"`
	Created    time.Time  `json:"created"`
	Updated    time.Time  `json:"updated"`
	LastLogin  *time.Time `json:"lastLogin"`
}

// ErrorRes is the JSON body for non-conflict failures.
type ErrorRes struct {
	Error string `json:"error"`
}

// FromUser converts a domain user into its response shape.
func FromUser(u *entity.User) UserRes {
	return UserRes{
		Username:   u.Username,
		Email:      u.Email,
		Role:       string(u.Role),
		UserStatus: string(u.Status),
		Created:    u.Created,
		Updated:    u.Updated,
		LastLogin:  u.LastLogin,
	}
}

// FromUsers converts a slice of domain users. A nil input yields an empty, non-nil slice.
func FromUsers(users []entity.User) []UserRes {
	out := make([]UserRes, 0, len(users))
	for i := range users {
		out = append(out, FromUser(&users[i]))
	}
	return out
}
