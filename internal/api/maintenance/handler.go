package maintenance

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/domain/maintenance"
	"vineyard-api/internal/platform/logger"
)

type TypeStore interface {
	Create(ctx context.Context, tx *gorm.DB, in maintenance.TypeInput) (*maintenance.Type, error)
	Get(ctx context.Context, tx *gorm.DB, id uint) (*maintenance.Type, error)
	List(ctx context.Context, tx *gorm.DB, skip, limit int) ([]maintenance.Type, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, in maintenance.TypeInput) (*maintenance.Type, error)
	Remove(ctx context.Context, tx *gorm.DB, id uint) (*maintenance.Type, error)
}

type ActivityStore interface {
	Create(ctx context.Context, tx *gorm.DB, in maintenance.ActivityInput) (*maintenance.Activity, error)
	Get(ctx context.Context, tx *gorm.DB, id uint) (*maintenance.Activity, error)
	List(ctx context.Context, tx *gorm.DB, skip, limit int) ([]maintenance.Activity, error)
	GetByVineID(ctx context.Context, tx *gorm.DB, vineID uint, skip, limit int) ([]maintenance.Activity, error)
	GetByType(ctx context.Context, tx *gorm.DB, typeID uint, skip, limit int) ([]maintenance.Activity, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, in maintenance.ActivityInput) (*maintenance.Activity, error)
	Remove(ctx context.Context, tx *gorm.DB, id uint) (*maintenance.Activity, error)
}

type Handler struct {
	types      TypeStore
	activities ActivityStore
	log        *logger.Logger
}

func NewHandler(types TypeStore, activities ActivityStore, log *logger.Logger) *Handler {
	return &Handler{types: types, activities: activities, log: log.With("handler", "maintenance")}
}

// ---------- types

func (h *Handler) ListTypes(c *gin.Context) {
	skip, limit := httpx.Window(c)
	list, err := h.types.List(c.Request.Context(), nil, skip, limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateType(c *gin.Context) {
	var req TypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	t, err := h.types.Create(c.Request.Context(), nil, req.Input())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetType(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	t, err := h.types.Get(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateType(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	var req TypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	t, err := h.types.Update(c.Request.Context(), nil, id, req.Input())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteType fails with 409 while activities still use the type.
func (h *Handler) DeleteType(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	t, err := h.types.Remove(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// ---------- activities

// ListActivities narrows to one type when type_id is given.
func (h *Handler) ListActivities(c *gin.Context) {
	skip, limit := httpx.Window(c)
	ctx := c.Request.Context()

	var (
		list []maintenance.Activity
		err  error
	)
	if c.Query("type_id") != "" {
		typeID, ok := httpx.QueryID(c, "type_id")
		if !ok {
			return
		}
		list, err = h.activities.GetByType(ctx, nil, typeID, skip, limit)
	} else {
		list, err = h.activities.List(ctx, nil, skip, limit)
	}
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListActivitiesForVine(c *gin.Context) {
	vineID, ok := httpx.ID(c, "vine_id")
	if !ok {
		return
	}
	skip, limit := httpx.Window(c)
	list, err := h.activities.GetByVineID(c.Request.Context(), nil, vineID, skip, limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateActivity(c *gin.Context) {
	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	a, err := h.activities.Create(c.Request.Context(), nil, req.Input())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetActivity(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	a, err := h.activities.Get(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateActivity(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	a, err := h.activities.Update(c.Request.Context(), nil, id, req.Input())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteActivity(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	a, err := h.activities.Remove(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
