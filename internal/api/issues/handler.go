package issues

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/app/http/middleware"
	"vineyard-api/internal/domain/issues"
	"vineyard-api/internal/domain/users"
	"vineyard-api/internal/infra/imagestore"
	"vineyard-api/internal/platform/logger"
	"vineyard-api/internal/repos"
)

type IssueStore interface {
	Create(ctx context.Context, tx *gorm.DB, in issues.CreateInput) (*issues.Issue, error)
	Get(ctx context.Context, tx *gorm.DB, id uint) (*issues.Issue, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, in issues.UpdateInput) (*issues.Issue, error)
	Remove(ctx context.Context, tx *gorm.DB, id uint, caller users.Identity) (*issues.Issue, error)
	List(ctx context.Context, tx *gorm.DB, skip, limit int) ([]issues.Issue, error)
	GetByVineID(ctx context.Context, tx *gorm.DB, vineID uint, skip, limit int) ([]issues.Issue, error)
	GetByLocationID(ctx context.Context, tx *gorm.DB, locationID uint, skip, limit int) ([]issues.Issue, error)
	GetByStatus(ctx context.Context, tx *gorm.DB, resolved bool, skip, limit int) ([]issues.Issue, error)
	Photo(ctx context.Context, tx *gorm.DB, id uint) (*repos.PhotoContent, error)
	GetWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*issues.Details, error)
	ListWithDetails(ctx context.Context, tx *gorm.DB, skip, limit int) ([]issues.Details, error)
}

// PhotoProcessor validates and stores multipart uploads before the issue
// repository sees them.
type PhotoProcessor interface {
	Process(data []byte, declared string) (imagestore.Stored, error)
	MaxBytes() int
}

type Handler struct {
	issues IssueStore
	photos PhotoProcessor
	log    *logger.Logger
}

func NewHandler(store IssueStore, photos PhotoProcessor, log *logger.Logger) *Handler {
	return &Handler{issues: store, photos: photos, log: log.With("handler", "issues")}
}

// GET /issues
func (h *Handler) ListIssues(c *gin.Context) {
	skip, limit := httpx.Window(c)
	list, err := h.issues.List(c.Request.Context(), nil, skip, limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponses(list))
}

// GET /issues/with-details
func (h *Handler) ListIssuesWithDetails(c *gin.Context) {
	skip, limit := httpx.Window(c)
	list, err := h.issues.ListWithDetails(c.Request.Context(), nil, skip, limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	out := make([]DetailsResponse, 0, len(list))
	for i := range list {
		out = append(out, newDetailsResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

// POST /issues
func (h *Handler) CreateIssue(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	issue, err := h.issues.Create(c.Request.Context(), nil, req.CreateInput(c.GetUint("user_id")))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, newIssueResponse(issue))
}

// GET /issues/:id
func (h *Handler) GetIssue(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	issue, err := h.issues.Get(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponse(issue))
}

// GET /issues/:id/with-details
func (h *Handler) GetIssueWithDetails(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	d, err := h.issues.GetWithDetails(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newDetailsResponse(d))
}

// GET /issues/:id/with-photo
func (h *Handler) GetIssueWithPhoto(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	issue, err := h.issues.Get(ctx, nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	resp := WithPhotoResponse{IssueResponse: newIssueResponse(issue)}
	if issue.Photo() != nil {
		photo, err := h.issues.Photo(ctx, nil, id)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		resp.PhotoDataBase64 = encodePhoto(photo.Data)
		resp.PhotoContentType = &photo.ContentType
	}
	c.JSON(http.StatusOK, resp)
}

// GET /issues/:id/photo
func (h *Handler) GetIssuePhoto(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	photo, err := h.issues.Photo(c.Request.Context(), nil, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, photo.ContentType, photo.Data)
}

// GET /issues/vine/:vine_id
func (h *Handler) ListIssuesForVine(c *gin.Context) {
	vineID, ok := httpx.ID(c, "vine_id")
	if !ok {
		return
	}
	skip, limit := httpx.Window(c)
	list, err := h.issues.GetByVineID(c.Request.Context(), nil, vineID, skip, limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponses(list))
}

// GET /issues/location/:location_id
func (h *Handler) ListIssuesForLocation(c *gin.Context) {
	locationID, ok := httpx.ID(c, "location_id")
	if !ok {
		return
	}
	skip, limit := httpx.Window(c)
	list, err := h.issues.GetByLocationID(c.Request.Context(), nil, locationID, skip, limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponses(list))
}

// GET /issues/status/:is_resolved
func (h *Handler) ListIssuesByStatus(c *gin.Context) {
	resolved, ok := httpx.ParseBool(c.Param("is_resolved"))
	if !ok {
		httpx.BadRequest(c, "is_resolved must be true or false")
		return
	}
	skip, limit := httpx.Window(c)
	list, err := h.issues.GetByStatus(c.Request.Context(), nil, resolved, skip, limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponses(list))
}

// PUT /issues/:id
func (h *Handler) UpdateIssue(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	issue, err := h.issues.Update(c.Request.Context(), nil, id, req.UpdateInput())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponse(issue))
}

// DELETE /issues/:id is allowed for the reporter and for administrators.
func (h *Handler) DeleteIssue(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	issue, err := h.issues.Remove(c.Request.Context(), nil, id, middleware.Identity(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponse(issue))
}
