package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/users"
	"vineyard-api/internal/platform/logger"
)

// UserStore is the slice of the user repository sign-in needs.
type UserStore interface {
	Get(ctx context.Context, tx *gorm.DB, id uint) (*users.User, error)
	GetByLogin(ctx context.Context, tx *gorm.DB, login string) (*users.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*users.User, error)
	GetByGoogleSub(ctx context.Context, tx *gorm.DB, sub string) (*users.User, error)
	Create(ctx context.Context, tx *gorm.DB, u *users.User) (*users.User, error)
	LinkGoogle(ctx context.Context, tx *gorm.DB, id uint, sub string) error
	SetPasswordHash(ctx context.Context, tx *gorm.DB, id uint, hash string) error
}

type Handler struct {
	users  UserStore
	tokens *Tokens
	google *Google
	log    *logger.Logger
}

// NewHandler wires sign-in. google may be nil when Google sign-in is not
// configured.
func NewHandler(store UserStore, tokens *Tokens, google *Google, log *logger.Logger) *Handler {
	return &Handler{users: store, tokens: tokens, google: google, log: log.With("handler", "auth")}
}

// IsPasswordStrong requires eight characters with at least one letter and
// one digit.
func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// HashPassword returns the bcrypt hash stored for local accounts.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Login is POST /login/access-token. It takes the OAuth2 password form
// (username, password) or the same fields as JSON.
func (h *Handler) Login(c *gin.Context) {
	var input loginRequest
	var err error
	if c.ContentType() == gin.MIMEJSON {
		err = c.ShouldBindJSON(&input)
	} else {
		err = c.ShouldBind(&input)
	}
	login := strings.TrimSpace(input.Username)
	if login == "" {
		login = strings.TrimSpace(input.Email)
	}
	if err != nil || login == "" || input.Password == "" {
		httpx.BadRequest(c, "username and password are required")
		return
	}

	user, err := h.users.GetByLogin(c.Request.Context(), nil, login)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			httpx.Error(c, err)
			return
		}
		h.log.Info("Login failed", "reason", "unknown user")
		httpx.Unauthorized(c, "Incorrect username or password")
		return
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		httpx.Unauthorized(c, "This account uses Google sign-in")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)); err != nil {
		h.log.Info("Login failed", "user_id", user.ID, "reason", "bad password")
		httpx.Unauthorized(c, "Incorrect username or password")
		return
	}
	if !user.IsActive {
		httpx.Forbidden(c, "Inactive user")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.log.Error("Could not sign token", "user_id", user.ID, "error", err)
		httpx.Error(c, err)
		return
	}
	h.log.Info("User logged in", "user_id", user.ID)
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// ChangePassword is POST /users/me/password.
func (h *Handler) ChangePassword(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		httpx.Unauthorized(c, "Unauthorized")
		return
	}

	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, "Invalid input")
		return
	}
	if !IsPasswordStrong(body.NewPassword) {
		httpx.BadRequest(c, "New password must be at least 8 characters with letters and numbers")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Get(ctx, nil, userID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		httpx.BadRequest(c, "This account does not have a password. Sign in with Google.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(body.OldPassword)); err != nil {
		httpx.Unauthorized(c, "Old password is incorrect")
		return
	}

	hashed, err := HashPassword(body.NewPassword)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.users.SetPasswordHash(ctx, nil, user.ID, hashed); err != nil {
		httpx.Error(c, err)
		return
	}
	h.log.Info("Password changed", "user_id", user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
