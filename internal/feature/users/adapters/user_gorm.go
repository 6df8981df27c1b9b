// Package adapters はusersフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"user_backend/internal/feature/users/domain/entity"
	"user_backend/internal/feature/users/usecase"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// Column sets written by each update path. created is never rewritten.
var (
	profileColumns  = []string{"username", "email", "role", "updated"}
	passwordColumns = []string{"password_hash", "updated"}
)

// userGorm はUserRepositoryインターフェースのGORM実装です。
// PostgreSQLとSQLiteの両方で動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserRepository は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserRepository(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーをデータベースに追加し、ID・作成日時・更新日時を反映します。
// 一意制約違反はusecase.ErrUsernameTaken / usecase.ErrEmailInUseに変換されます。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	m := UserModelFromEntity(u)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateWriteError(err)
	}
	u.ID = m.ID
	u.Created = m.Created
	u.Updated = m.Updated
	return nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// FindByUsername はユーザー名でユーザーを取得します。
func (r *userGorm) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// FindAll returns every user ordered by ID.
func (r *userGorm) FindAll(ctx context.Context) ([]entity.User, error) {
	var models []UserModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	users := make([]entity.User, 0, len(models))
	for i := range models {
		users = append(users, *models[i].ToEntity())
	}
	return users, nil
}

func (r *userGorm) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *userGorm) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userGorm) exists(ctx context.Context, query string, arg any) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&UserModel{}).Where(query, arg).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateProfile はusername・email・roleのみを書き込み、updatedを現在時刻に更新します。
// password_hash・user_status・last_loginには触れません。
// 対象行が存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) UpdateProfile(ctx context.Context, u *entity.User) error {
	if u == nil || u.ID == 0 {
		return usecase.ErrUserNotFound
	}
	m := UserModelFromEntity(u)
	if err := r.updateColumns(ctx, m, profileColumns); err != nil {
		return err
	}
	u.Updated = m.Updated
	return nil
}

// UpdatePassword replaces password_hash and refreshes updated.
func (r *userGorm) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	if id == 0 {
		return usecase.ErrUserNotFound
	}
	return r.updateColumns(ctx, &UserModel{ID: id, PasswordHash: passwordHash}, passwordColumns)
}

func (r *userGorm) updateColumns(ctx context.Context, m *UserModel, columns []string) error {
	result := r.db.WithContext(ctx).Model(m).Select(columns).Updates(m)
	if result.Error != nil {
		return translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// Delete はユーザーを物理削除します。
func (r *userGorm) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&UserModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// translateWriteError maps unique-constraint violations from PostgreSQL or
// SQLite onto the duplicate errors of the usecase layer.
func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return conflictFor(pgErr.ConstraintName+" "+pgErr.Detail, err)
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return conflictFor(liteErr.Error(), err)
		}
		return err
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return conflictFor(err.Error(), err)
	}
	return err
}

// conflictFor picks the duplicate error by the column or constraint name in detail.
func conflictFor(detail string, cause error) error {
	switch {
	case strings.Contains(detail, "username"):
		return usecase.ErrUsernameTaken
	case strings.Contains(detail, "email"):
		return usecase.ErrEmailInUse
	default:
		return fmt.Errorf("unique constraint violated: %w", cause)
	}
}
