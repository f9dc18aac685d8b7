package vines

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/domain/vines"
	"vineyard-api/internal/platform/logger"
)

type VineStore interface {
	Create(ctx context.Context, tx *gorm.DB, in vines.VineInput) (*vines.Vine, error)
	Get(ctx context.Context, tx *gorm.DB, id uint) (*vines.Vine, error)
	GetByTag(ctx context.Context, tx *gorm.DB, tag string) (*vines.Vine, error)
	List(ctx context.Context, tx *gorm.DB, skip, limit int) ([]vines.Vine, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, in vines.VineInput) (*vines.Vine, error)
	Remove(ctx context.Context, tx *gorm.DB, id uint) (*vines.Vine, error)
	Search(ctx context.Context, tx *gorm.DB, f vines.SearchFilters, page vines.Page) (*vines.SearchResult, error)
}

type LocationStore interface {
	Create(ctx context.Context, tx *gorm.DB, in vines.LocationInput) (*vines.VineLocation, error)
	Get(ctx context.Context, tx *gorm.DB, id uint) (*vines.VineLocation, error)
	GetByPosition(ctx context.Context, tx *gorm.DB, p vines.Position) (*vines.VineLocation, error)
	GetByVineID(ctx context.Context, tx *gorm.DB, vineID uint) ([]vines.VineLocation, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, in vines.LocationInput) (*vines.VineLocation, error)
	Remove(ctx context.Context, tx *gorm.DB, id uint) (*vines.VineLocation, error)
	CreateOrUpdate(ctx context.Context, tx *gorm.DB, in vines.LocationInput) (*vines.VineLocation, bool, error)
}

type Syncer interface {
	Sync(ctx context.Context, tx *gorm.DB, in vines.SyncInput) (*vines.Vine, bool, error)
}

type Handler struct {
	vines     VineStore
	locations LocationStore
	inventory Syncer
	log       *logger.Logger
}

func NewHandler(vineStore VineStore, locationStore LocationStore, inventory Syncer, log *logger.Logger) *Handler {
	return &Handler{
		vines:     vineStore,
		locations: locationStore,
		inventory: inventory,
		log:       log.With("handler", "vines"),
	}
}

// GET /vines
func (h *Handler) ListVines(c *gin.Context) {
	skip, limit := httpx.Window(c)
	list, err := h.vines.List(c.Request.Context(), nil, skip, limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /vines/search
func (h *Handler) SearchVines(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	filters, page, err := req.Filters()
	if err != nil {
		httpx.Error(c, err)
		return
	}
	res, err := h.vines.Search(c.Request.Context(), nil, filters, page)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, searchResponse(res))
}

// POST /vines
func (h *Handler) CreateVine(c *gin.Context) {
	var req VineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	v, err := h.vines.Create(c.Request.Context(), nil, req.Input())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// PUT /vines/sync answers 201 when the vine was created and 200 when an
// existing one was updated.
func (h *Handler) SyncVine(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	v, created, err := h.inventory.Sync(c.Request.Context(), nil, req.Input())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, v)
}

// GET /vines/:id
func (h *Handler) GetVine(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	v, err := h.vines.Get(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GET /vines/by-alpha-id/:alpha_id
func (h *Handler) GetVineByTag(c *gin.Context) {
	v, err := h.vines.GetByTag(c.Request.Context(), nil, c.Param("alpha_id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// PUT /vines/:id
func (h *Handler) UpdateVine(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	var req VineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	v, err := h.vines.Update(c.Request.Context(), nil, id, req.Input())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// DELETE /vines/:id
func (h *Handler) DeleteVine(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	v, err := h.vines.Remove(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	h.log.Info("Vine deleted", "vine_id", id, "user_id", c.GetUint("user_id"))
	c.JSON(http.StatusOK, v)
}
