package issues

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/issues"
)

const photoField = "photo"

// formRequest reads the multipart text fields into the same shape the JSON
// endpoints bind.
func formRequest(c *gin.Context) (IssueRequest, error) {
	var req IssueRequest
	var err error
	uintField := func(name string) *uint {
		raw := strings.TrimSpace(c.PostForm(name))
		if raw == "" || err != nil {
			return nil
		}
		n, perr := strconv.ParseUint(raw, 10, 64)
		if perr != nil {
			err = fmt.Errorf("%s must be a positive integer", name)
			return nil
		}
		v := uint(n)
		return &v
	}

	req.VineID = uintField("vine_id")
	req.VineLocationID = uintField("vine_location_id")
	req.ReportedBy = uintField("reported_by")
	req.ReportedByID = uintField("reported_by_id")
	req.ResolvedBy = uintField("resolved_by")
	req.ResolvedByID = uintField("resolved_by_id")
	if err != nil {
		return req, err
	}

	if v, ok := c.GetPostForm("description"); ok {
		req.Description = &v
	}
	if raw := strings.TrimSpace(c.PostForm("is_resolved")); raw != "" {
		b, ok := httpx.ParseBool(raw)
		if !ok {
			return req, errors.New("is_resolved must be true or false")
		}
		req.IsResolved = &b
	}
	if raw := strings.TrimSpace(c.PostForm("date_resolved")); raw != "" {
		t, perr := httpx.ParseTime(raw)
		if perr != nil {
			return req, errors.New("date_resolved is not a valid timestamp")
		}
		req.DateResolved = &httpx.Timestamp{Time: t}
	}
	return req, nil
}

// storeUpload validates and writes the multipart photo, if any. The returned
// upload already points at the stored file.
func (h *Handler) storeUpload(c *gin.Context) (*issues.PhotoUpload, error) {
	fh, err := c.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "read photo: %v", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "open photo: %v", err)
	}
	defer f.Close()

	// One byte past the limit lets the store report too_large.
	data, err := io.ReadAll(io.LimitReader(f, int64(h.photos.MaxBytes())+1))
	if err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "read photo: %v", err)
	}
	stored, err := h.photos.Process(data, fh.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	return &issues.PhotoUpload{
		Stored: &issues.StoredOnDisk{Path: stored.RelPath, ContentType: stored.MIME},
	}, nil
}

// POST /issues/upload
func (h *Handler) UploadIssue(c *gin.Context) {
	req, err := formRequest(c)
	if err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	photo, err := h.storeUpload(c)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	in := req.CreateInput(c.GetUint("user_id"))
	in.Photo = photo

	issue, err := h.issues.Create(c.Request.Context(), nil, in)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, newIssueResponse(issue))
}

// PUT /issues/:id/upload
func (h *Handler) UpdateIssueUpload(c *gin.Context) {
	id, ok := httpx.ID(c, "id")
	if !ok {
		return
	}
	req, err := formRequest(c)
	if err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	photo, err := h.storeUpload(c)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	in := req.UpdateInput()
	in.Photo = photo

	issue, err := h.issues.Update(c.Request.Context(), nil, id, in)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponse(issue))
}
