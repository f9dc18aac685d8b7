package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vineyard-api/internal/api/auth"
	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/users"
	"vineyard-api/internal/platform/logger"
)

type UserStore interface {
	Create(ctx context.Context, tx *gorm.DB, u *users.User) (*users.User, error)
	Get(ctx context.Context, tx *gorm.DB, id uint) (*users.User, error)
	GetByLogin(ctx context.Context, tx *gorm.DB, login string) (*users.User, error)
	List(ctx context.Context, tx *gorm.DB, skip, limit int) ([]users.User, error)
}

// Handler serves the administrator-only user endpoints.
type Handler struct {
	users UserStore
	log   *logger.Logger
}

func NewHandler(store UserStore, log *logger.Logger) *Handler {
	return &Handler{users: store, log: log.With("handler", "admin")}
}

type CreateUserRequest struct {
	UserName string  `json:"user_name"`
	Email    *string `json:"email"`
	FullName string  `json:"full_name"`
	Password string  `json:"password"`
	Role     string  `json:"user_role"`
	IsActive *bool   `json:"is_active"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	skip, limit := httpx.Window(c)
	list, err := h.users.List(c.Request.Context(), nil, skip, limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	if !auth.IsPasswordStrong(req.Password) {
		httpx.BadRequest(c, "Password must be at least 8 characters and contain a letter and a digit")
		return
	}
	switch req.Role {
	case "":
		req.Role = users.RoleUser
	case users.RoleUser, users.RoleAdministrator:
	default:
		httpx.BadRequest(c, "user_role must be user or administrator")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.Error(c, apperr.Internal("hash_failed", err))
		return
	}
	user := &users.User{
		UserName:     req.UserName,
		Email:        normalizeEmail(req.Email),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: &hash,
		Role:         req.Role,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	created, err := h.users.Create(c.Request.Context(), nil, user)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	h.log.Info("Administrator created user", "user_id", created.ID, "created_by", c.GetUint("user_id"))
	c.JSON(http.StatusCreated, created)
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}

// EnsureAdministrator creates the seed administrator unless an account with
// that login already exists. Empty credentials disable seeding. Run it inside
// tx so that concurrent starts do not both create the account.
func EnsureAdministrator(ctx context.Context, tx *gorm.DB, store UserStore, email, password string, log *logger.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if _, err := store.GetByLogin(ctx, tx, email); err == nil {
		return nil
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = store.Create(ctx, tx, &users.User{
		UserName:     email,
		Email:        &email,
		FullName:     "Administrator",
		PasswordHash: &hash,
		Role:         users.RoleAdministrator,
		IsActive:     true,
	})
	if err != nil {
		return err
	}
	log.Info("Seeded administrator account", "email", email)
	return nil
}
