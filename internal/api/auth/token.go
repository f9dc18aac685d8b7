package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vineyard-api/internal/domain/users"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is what the API trusts about a caller once its token verifies.
type Claims struct {
	UserID uint
	Email  string
	Role   string
}

func (c Claims) Identity() users.Identity {
	return users.Identity{UserID: c.UserID, Superuser: c.Role == users.RoleAdministrator}
}

// Tokens signs and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(u *users.User) (string, error) {
	email := ""
	if u.Email != nil {
		email = *u.Email
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID,
		"email":   email,
		"role":    u.Role,
		"exp":     t.now().Add(t.ttl).Unix(),
	})
	return token.SignedString(t.secret)
}

func (t *Tokens) Verify(raw string) (Claims, error) {
	if len(t.secret) == 0 {
		return Claims{}, errors.New("token secret not configured")
	}
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	var out Claims
	if id, ok := mc["user_id"].(float64); ok && id > 0 {
		out.UserID = uint(id)
	} else {
		return Claims{}, ErrInvalidToken
	}
	out.Email, _ = mc["email"].(string)
	out.Role, _ = mc["role"].(string)
	return out, nil
}
