package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"vineyard-api/internal/api/auth"
	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier map[string]auth.Claims

func (s stubVerifier) Verify(raw string) (auth.Claims, error) {
	if c, ok := s[raw]; ok {
		return c, nil
	}
	return auth.Claims{}, errors.New("bad token")
}

func authedEngine() *gin.Engine {
	r := gin.New()
	verifier := stubVerifier{
		"user-token":  {UserID: 3, Role: users.RoleUser},
		"admin-token": {UserID: 1, Role: users.RoleAdministrator},
	}
	r.Use(AuthMiddleware(verifier))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, Identity(c))
	})
	r.GET("/admin", RequireRole(users.RoleAdministrator), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	r := authedEngine()

	w := get(r, "/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = get(r, "/whoami", "user-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "scheme is required")

	w = get(r, "/whoami", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
}

func TestAuthMiddlewareStoresIdentity(t *testing.T) {
	r := authedEngine()

	w := get(r, "/whoami", "Bearer admin-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"UserID":1,"Superuser":true}`, w.Body.String())

	w = get(r, "/whoami", "Bearer user-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"UserID":3,"Superuser":false}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	r := authedEngine()
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", "Bearer user-token").Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", "Bearer admin-token").Code)
}

type stubAccounts map[uint]*users.User

func (s stubAccounts) Get(_ context.Context, _ *gorm.DB, id uint) (*users.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound(apperr.CodeNotFound, "user %d not found", id)
}

func TestRequireActiveUser(t *testing.T) {
	verifier := stubVerifier{
		"active":   {UserID: 1, Role: users.RoleUser},
		"inactive": {UserID: 2, Role: users.RoleUser},
		"deleted":  {UserID: 3, Role: users.RoleUser},
	}
	accounts := stubAccounts{
		1: {ID: 1, IsActive: true},
		2: {ID: 2, IsActive: false},
	}
	r := gin.New()
	r.Use(AuthMiddleware(verifier), RequireActiveUser(accounts))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, Identity(c))
	})

	assert.Equal(t, http.StatusOK, get(r, "/whoami", "Bearer active").Code)

	w := get(r, "/whoami", "Bearer inactive")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Inactive user")

	w = get(r, "/whoami", "Bearer deleted")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestIdentityWithoutAuthIsZero(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, users.Identity{}, Identity(c))
}

func echoEngine() *gin.Engine {
	r := gin.New()
	r.Use(SanitizeAndCleanInputMiddleware())
	echo := func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Data(http.StatusOK, "text/plain", body)
	}
	r.POST("/echo", echo)
	r.PUT("/echo", echo)
	return r
}

func send(r http.Handler, method, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/echo", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSanitizeStripsMarkupInNestedJSON(t *testing.T) {
	w := send(echoEngine(), http.MethodPost, "application/json",
		`{"description":"<b>Leaf</b> spots <script>x()</script>","nested":{"notes":["<i>ok</i>"]},"row_number":12}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"description":"Leaf spots ","nested":{"notes":["ok"]},"row_number":12}`, w.Body.String())
}

func TestSanitizeKeepsPasswordsAndBase64(t *testing.T) {
	w := send(echoEngine(), http.MethodPut, "application/json",
		`{"password":"<p>ss","photo_data_base64":"data:image/png;base64,AAA<>","name":"Tom &amp; Jerry"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"password":"<p>ss","photo_data_base64":"data:image/png;base64,AAA<>","name":"Tom & Jerry"}`, w.Body.String())
}

func TestSanitizeLeavesOtherBodiesAlone(t *testing.T) {
	raw := "--b\r\nContent-Disposition: form-data; name=\"description\"\r\n\r\n<b>x</b>\r\n--b--\r\n"
	w := send(echoEngine(), http.MethodPost, "multipart/form-data; boundary=b", raw)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, raw, w.Body.String())
}

func TestSanitizeRejectsMalformedJSON(t *testing.T) {
	w := send(echoEngine(), http.MethodPost, "application/json", `{"description":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
