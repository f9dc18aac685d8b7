package repos

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/users"
	"vineyard-api/internal/platform/logger"
)

type UserRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) *UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &UserRepo{db: db, log: repoLog}
}

func (r *UserRepo) Create(ctx context.Context, tx *gorm.DB, u *users.User) (*users.User, error) {
	u.UserName = strings.TrimSpace(u.UserName)
	if u.UserName == "" {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "user_name is required")
	}
	if u.Role == "" {
		u.Role = users.RoleUser
	}
	if u.AuthProvider == "" {
		u.AuthProvider = users.ProviderLocal
	}
	if err := conn(ctx, r.db, tx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict(apperr.CodeDuplicateName, "user %q already exists", u.UserName)
		}
		r.log.Error("Failed to create user", "error", err)
		return nil, err
	}
	r.log.Info("Created user", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (r *UserRepo) Get(ctx context.Context, tx *gorm.DB, id uint) (*users.User, error) {
	var u users.User
	if err := conn(ctx, r.db, tx).Where("user_id = ?", id).First(&u).Error; err != nil {
		return nil, notFound("user", err)
	}
	return &u, nil
}

// GetByLogin finds a user by user name or email, which the login form
// accepts interchangeably.
func (r *UserRepo) GetByLogin(ctx context.Context, tx *gorm.DB, login string) (*users.User, error) {
	var u users.User
	login = strings.TrimSpace(login)
	err := conn(ctx, r.db, tx).Where("user_name = ? OR email = ?", login, login).Order("user_id").First(&u).Error
	if err != nil {
		return nil, notFound("user", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*users.User, error) {
	var u users.User
	if err := conn(ctx, r.db, tx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound("user", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByGoogleSub(ctx context.Context, tx *gorm.DB, sub string) (*users.User, error) {
	var u users.User
	if err := conn(ctx, r.db, tx).Where("google_sub = ?", sub).First(&u).Error; err != nil {
		return nil, notFound("user", err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, tx *gorm.DB, skip, limit int) ([]users.User, error) {
	skip, limit = window(skip, limit)
	out := []users.User{}
	if err := conn(ctx, r.db, tx).Order("user_id").Offset(skip).Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LinkGoogle records the Google subject on an existing account.
func (r *UserRepo) LinkGoogle(ctx context.Context, tx *gorm.DB, id uint, sub string) error {
	return conn(ctx, r.db, tx).Model(&users.User{}).Where("user_id = ?", id).Updates(map[string]interface{}{
		"google_sub":    sub,
		"auth_provider": users.ProviderGoogle,
	}).Error
}

// SetPasswordHash replaces the stored bcrypt hash.
func (r *UserRepo) SetPasswordHash(ctx context.Context, tx *gorm.DB, id uint, hash string) error {
	res := conn(ctx, r.db, tx).Model(&users.User{}).Where("user_id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.CodeNotFound, "user %d not found", id)
	}
	return nil
}
