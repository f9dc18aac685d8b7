package users

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/domain/users"
)

type UserGetter interface {
	Get(ctx context.Context, tx *gorm.DB, id uint) (*users.User, error)
}

type Handler struct {
	users UserGetter
}

func NewHandler(store UserGetter) *Handler {
	return &Handler{users: store}
}

// GetCurrentUser is GET /users/me.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		httpx.Unauthorized(c, "Unauthorized")
		return
	}
	user, err := h.users.Get(c.Request.Context(), nil, userID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
