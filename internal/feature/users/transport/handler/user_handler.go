// Package handler はusersフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"user_backend/internal/feature/users/domain/entity"
	"user_backend/internal/feature/users/transport/http/dto"
	"user_backend/internal/feature/users/usecase"
)

// reset-password body errors.
var (
	errEmptyPassword   = errors.New("password must not be empty")
	errPasswordTooLong = fmt.Errorf("password must be at most %d bytes", usecase.MaxPasswordBytes)
)

// UserUsecase はユーザー管理操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type UserUsecase interface {
	CreateUser(ctx context.Context, username, email, password string) (*entity.User, error)
	GetUserByID(ctx context.Context, id uint) (*entity.User, error)
	ListUsers(ctx context.Context) ([]entity.User, error)
	UpdateUser(ctx context.Context, id uint, in usecase.UpdateUserInput) (*entity.User, error)
	DeleteUser(ctx context.Context, id uint) error
	ResetPassword(ctx context.Context, id uint, newPassword string) error
}

// UserHandler は /users 配下のHTTPリクエストを処理します。
type UserHandler struct {
	users UserUsecase
}

// NewUserHandler はUserHandlerの新しいインスタンスを生成します。
func NewUserHandler(users UserUsecase) *UserHandler {
	return &UserHandler{users: users}
}

// Create はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - ユーザー名・メールアドレス重複時は409とプレーンテキストのメッセージを返却
// - 成功時は201とユーザー情報を返却
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Str("remote_addr", c.ClientIP()).Msg("create user validation failed")
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	log.Info().Uint("user_id", user.ID).Str("remote_addr", c.ClientIP()).Msg("user created")
	c.JSON(http.StatusCreated, dto.FromUser(user))
}

// Get はIDでユーザーを取得します。
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.users.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

// List は全ユーザーを返します。
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUsers(users))
}

// Update はユーザー名・メールアドレス・ロールを更新します。
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Str("remote_addr", c.ClientIP()).Msg("update user validation failed")
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), id, usecase.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

// Delete はユーザーを削除し、204を返却します。
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	log.Info().Uint("user_id", id).Str("remote_addr", c.ClientIP()).Msg("user deleted")
	c.Status(http.StatusNoContent)
}

// ResetPassword はリクエストボディをそのまま新しいパスワードとして扱います。
// JSON文字列リテラル（"new_password"）の場合はデコードして使用します。
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	password, err := readPassword(c)
	if err != nil {
		log.Warn().Err(err).Str("remote_addr", c.ClientIP()).Msg("reset password rejected")
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
		return
	}
	if err := h.users.ResetPassword(c.Request.Context(), id, password); err != nil {
		h.fail(c, err)
		return
	}
	log.Info().Uint("user_id", id).Str("remote_addr", c.ClientIP()).Msg("password reset")
	c.Status(http.StatusOK)
}

// fail maps usecase errors onto HTTP responses.
func (h *UserHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrUsernameTaken), errors.Is(err, usecase.ErrEmailInUse):
		log.Warn().Err(err).Str("remote_addr", c.ClientIP()).Msg("user conflict")
		c.String(http.StatusConflict, err.Error())
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorRes{Error: err.Error()})
	case errors.Is(err, entity.ErrInvalidRole), errors.Is(err, usecase.ErrInvalidUser):
		log.Warn().Err(err).Str("remote_addr", c.ClientIP()).Msg("invalid user data")
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Str("remote_addr", c.ClientIP()).Msg("user request failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
	}
}

// pathID parses the :id path parameter and writes 400 on failure.
func pathID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: "invalid user id"})
		return 0, false
	}
	return uint(n), true
}

func readPassword(c *gin.Context) (string, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return "", err
	}
	body := strings.TrimSpace(string(raw))
	if strings.HasPrefix(body, `"`) {
		var s string
		if err := json.Unmarshal([]byte(body), &s); err == nil {
			body = s
		}
	}
	if body == "" {
		return "", errEmptyPassword
	}
	if len(body) > usecase.MaxPasswordBytes {
		return "", errPasswordTooLong
	}
	return body, nil
}
