package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/users"
)

const (
	googleIssuer = "https://accounts.google.com"
	stateCookie  = "oauth_state"
)

// Google holds the OAuth client and a lazily built ID-token verifier.
type Google struct {
	oauth            *oauth2.Config
	frontendRedirect string

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func NewGoogle(clientID, clientSecret, redirectURL, frontendRedirect string) *Google {
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		frontendRedirect: frontendRedirect,
	}
}

func (g *Google) idVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifier != nil {
		return g.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}
	g.verifier = provider.Verifier(&oidc.Config{ClientID: g.oauth.ClientID})
	return g.verifier, nil
}

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
}

func (g *Google) verify(ctx context.Context, rawIDToken string) (*googleIDClaims, error) {
	verifier, err := g.idVerifier(ctx)
	if err != nil {
		return nil, errors.New("failed to init google oidc provider")
	}
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.New("invalid id_token")
	}
	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.New("failed to decode token claims")
	}
	if claims.Email == "" || claims.Sub == "" {
		return nil, errors.New("token missing required claims")
	}
	return &claims, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GoogleStart is GET /auth/google.
func (h *Handler) GoogleStart(c *gin.Context) {
	if h.google == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, httpx.ErrorBody{Error: "Google sign-in is not configured", Code: apperr.CodeNotFound})
		return
	}
	state, err := randomState()
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.SetCookie(stateCookie, state, 300, "/", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, h.google.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GoogleCallback is GET /auth/google/callback.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, httpx.ErrorBody{Error: "Google sign-in is not configured", Code: apperr.CodeNotFound})
		return
	}
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		httpx.BadRequest(c, "missing code/state")
		return
	}
	cookieState, err := c.Cookie(stateCookie)
	if err != nil || cookieState != state {
		httpx.BadRequest(c, "invalid oauth state")
		return
	}

	ctx := c.Request.Context()
	tok, err := h.google.oauth.Exchange(ctx, code)
	if err != nil {
		h.log.Warn("Google code exchange failed", "error", err)
		httpx.Unauthorized(c, "failed to exchange code")
		return
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		httpx.Unauthorized(c, "missing id_token")
		return
	}
	claims, err := h.google.verify(ctx, rawIDToken)
	if err != nil {
		httpx.Unauthorized(c, err.Error())
		return
	}

	user, err := h.findOrCreateGoogleUser(ctx, claims)
	if err != nil {
		h.log.Error("Google sign-in failed", "error", err)
		httpx.Error(c, err)
		return
	}
	if !user.IsActive {
		httpx.Forbidden(c, "Inactive user")
		return
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if h.google.frontendRedirect == "" {
		c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
		return
	}
	c.Redirect(http.StatusFound, h.google.frontendRedirect+"?token="+url.QueryEscape(token))
}

// findOrCreateGoogleUser matches on the Google subject, then on email
// (linking the account), and otherwise creates a regular user.
func (h *Handler) findOrCreateGoogleUser(ctx context.Context, gc *googleIDClaims) (*users.User, error) {
	user, err := h.users.GetByGoogleSub(ctx, nil, gc.Sub)
	if err == nil {
		return user, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	user, err = h.users.GetByEmail(ctx, nil, gc.Email)
	switch {
	case err == nil:
		if user.GoogleSub == nil {
			if err := h.users.LinkGoogle(ctx, nil, user.ID, gc.Sub); err != nil {
				return nil, err
			}
			h.log.Info("Linked Google account", "user_id", user.ID)
		}
		return user, nil
	case !apperr.Is(err, apperr.KindNotFound):
		return nil, err
	}

	email := gc.Email
	sub := gc.Sub
	name := gc.Name
	if name == "" {
		name = gc.GivenName
	}
	return h.users.Create(ctx, nil, &users.User{
		UserName:     email,
		Email:        &email,
		FullName:     name,
		Role:         users.RoleUser,
		IsActive:     true,
		AuthProvider: users.ProviderGoogle,
		GoogleSub:    &sub,
	})
}
