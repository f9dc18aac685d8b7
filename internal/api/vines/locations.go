package vines

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/domain/vines"
)

// GET /vine-locations/by-position?vineyard=&field=&row=&spot=
func (h *Handler) GetLocationByPosition(c *gin.Context) {
	row, errRow := strconv.Atoi(c.Query("row"))
	spot, errSpot := strconv.Atoi(c.Query("spot"))
	p := vines.Position{
		VineyardName: c.Query("vineyard"),
		FieldName:    c.Query("field"),
		RowNumber:    row,
		SpotNumber:   spot,
	}
	if p.VineyardName == "" || p.FieldName == "" || errRow != nil || errSpot != nil {
		httpx.BadRequest(c, "vineyard, field, row and spot are required")
		return
	}
	l, err := h.locations.GetByPosition(c.Request.Context(), nil, p)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// GET /vine-locations/vine/:vine_id
func (h *Handler) ListLocationsForVine(c *gin.Context) {
	vineID, ok := httpx.ID(c, "vine_id")
	if !ok {
		return
	}
	list, err := h.locations.GetByVineID(c.Request.Context(), nil, vineID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /vine-locations/:id
func (h *Handler) GetLocation(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	l, err := h.locations.Get(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// POST /vine-locations
func (h *Handler) CreateLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	l, err := h.locations.Create(c.Request.Context(), nil, req.Input())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// PUT /vine-locations/sync upserts by tag, or by position when untagged.
func (h *Handler) SyncLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	l, created, err := h.locations.CreateOrUpdate(c.Request.Context(), nil, req.Input())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, l)
}

// PUT /vine-locations/:id
func (h *Handler) UpdateLocation(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	l, err := h.locations.Update(c.Request.Context(), nil, id, req.Input())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// DELETE /vine-locations/:id
func (h *Handler) DeleteLocation(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	l, err := h.locations.Remove(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}
