package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"user_backend/internal/feature/users/domain/entity"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create persists a new user and fills in its ID and timestamps.
	// A unique-constraint violation is reported as ErrUsernameTaken or ErrEmailInUse.
	Create(ctx context.Context, user *entity.User) error

	// FindByID returns ErrUserNotFound when no row matches.
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// FindByUsername returns ErrUserNotFound when no row matches.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	FindAll(ctx context.Context) ([]entity.User, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateProfile writes only username, email and role and refreshes Updated.
	// The password hash, status and last login are never written, so a stale
	// copy of the user cannot roll them back.
	// It returns ErrUserNotFound when the row is gone.
	UpdateProfile(ctx context.Context, user *entity.User) error

	// UpdatePassword replaces the stored hash and refreshes Updated.
	// It returns ErrUserNotFound when the row is gone.
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error

	// Delete returns ErrUserNotFound when no row was removed.
	Delete(ctx context.Context, id uint) error
}

// PasswordHasher はパスワードの一方向ハッシュ化と照合を抽象化します。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Compare reports whether plain matches hash.
	Compare(hash, plain string) bool
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// UpdateUserInput carries the fields a client may change through UpdateUser.
type UpdateUserInput struct {
	Username string
	Email    string
	Role     string
}

// dummyHash is compared against when the user does not exist so that
// Authenticate takes the same time either way.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// userUsecase はユーザー管理のビジネスロジックを実装します。
type userUsecase struct {
	users    UserRepository
	hasher   PasswordHasher
	validate *validator.Validate
}

// NewUserUsecase はuserUsecaseの新しいインスタンスを生成します。
func NewUserUsecase(users UserRepository, hasher PasswordHasher) *userUsecase {
	return &userUsecase{
		users:    users,
		hasher:   hasher,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreateUser は新規ユーザーを登録します。
// ユーザー名の重複を先に確認し、重複していればメールアドレスは確認しません。
func (u *userUsecase) CreateUser(ctx context.Context, username, email, password string) (*entity.User, error) {
	taken, err := u.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	inUse, err := u.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, ErrEmailInUse
	}

	hash, err := u.hash(password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleUser,
		Status:       entity.StatusActive,
	}
	if err := u.check(user); err != nil {
		return nil, err
	}
	// 同時登録の競合はストア側の一意制約で検出されます
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID はIDでユーザーを取得します。
func (u *userUsecase) GetUserByID(ctx context.Context, id uint) (*entity.User, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, withID(err, id)
	}
	return user, nil
}

// ListUsers は全ユーザーを返します。
func (u *userUsecase) ListUsers(ctx context.Context) ([]entity.User, error) {
	return u.users.FindAll(ctx)
}

// UpdateUser overwrites username, email and role. Status and password hash are left as they are.
func (u *userUsecase) UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*entity.User, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, withID(err, id)
	}

	role, err := entity.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Email = in.Email
	user.Role = role
	if err := u.check(user); err != nil {
		return nil, err
	}
	if err := u.users.UpdateProfile(ctx, user); err != nil {
		return nil, withID(err, id)
	}
	return user, nil
}

// DeleteUser はユーザーを物理削除します。
func (u *userUsecase) DeleteUser(ctx context.Context, id uint) error {
	return withID(u.users.Delete(ctx, id), id)
}

// ResetPassword replaces the stored hash with the hash of newPassword.
func (u *userUsecase) ResetPassword(ctx context.Context, id uint, newPassword string) error {
	if _, err := u.users.FindByID(ctx, id); err != nil {
		return withID(err, id)
	}

	hash, err := u.hash(newPassword)
	if err != nil {
		return err
	}

	return withID(u.users.UpdatePassword(ctx, id, hash), id)
}

// Authenticate はBasic認証の資格情報を検証します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
// LastLoginは更新しません。
func (u *userUsecase) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	user, err := u.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	passwordHash := dummyHash
	if err == nil {
		passwordHash = user.PasswordHash
	}
	matched := u.hasher.Compare(passwordHash, password)

	if err != nil || !matched {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// hash rejects passwords bcrypt cannot take as invalid input before hashing.
func (u *userUsecase) hash(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidUser, MaxPasswordBytes)
	}
	hash, err := u.hasher.Hash(plain)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// check runs the entity validation tags.
func (u *userUsecase) check(user *entity.User) error {
	if err := u.validate.Struct(user); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	return nil
}

// withID rewrites a bare ErrUserNotFound so the message names the requested ID.
func withID(err error, id uint) error {
	if errors.Is(err, ErrUserNotFound) {
		return notFound(id)
	}
	return err
}
