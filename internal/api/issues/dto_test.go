package issues

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vineyard-api/internal/domain/issues"
)

func formContext(t *testing.T, form url.Values) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/issues/upload", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Request = req
	return c
}

func TestFormRequestReadsFields(t *testing.T) {
	c := formContext(t, url.Values{
		"vine_id":        {"4"},
		"description":    {"Cracked trunk"},
		"reported_by":    {"2"},
		"reported_by_id": {"3"},
		"is_resolved":    {"on"},
		"date_resolved":  {"2024-06-01 08:30:00"},
	})
	req, err := formRequest(c)
	require.NoError(t, err)

	in := req.CreateInput(9)
	require.NotNil(t, in.VineID)
	assert.Equal(t, uint(4), *in.VineID)
	assert.Nil(t, in.VineLocationID)
	assert.Equal(t, "Cracked trunk", in.Description)
	assert.Equal(t, uint(3), *in.ReportedBy, "the _id spelling wins")
	assert.True(t, in.IsResolved)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), *in.DateResolved)
	assert.Nil(t, in.Photo)
}

func TestFormRequestRejectsBadValues(t *testing.T) {
	for _, form := range []url.Values{
		{"vine_id": {"four"}},
		{"resolved_by": {"-1"}},
		{"is_resolved": {"perhaps"}},
		{"date_resolved": {"tomorrow"}},
	} {
		_, err := formRequest(formContext(t, form))
		assert.Error(t, err, form.Encode())
	}
}

func TestCreateInputFallsBackToCaller(t *testing.T) {
	desc := "Gap in row"
	in := IssueRequest{Description: &desc}.CreateInput(7)
	require.NotNil(t, in.ReportedBy)
	assert.Equal(t, uint(7), *in.ReportedBy)

	in = IssueRequest{Description: &desc}.CreateInput(0)
	assert.Nil(t, in.ReportedBy)
}

func TestPhotoFieldsOnlyWhenStored(t *testing.T) {
	plain := issues.Issue{ID: 5}
	resp := newIssueResponse(&plain)
	assert.Nil(t, resp.PhotoURL)
	assert.Nil(t, resp.PhotoContentType)

	withPhoto := issues.Issue{ID: 5}
	withPhoto.AttachPhoto(issues.StoredOnDisk{Path: "2024/06/issue_x.webp", ContentType: "image/webp"})
	resp = newIssueResponse(&withPhoto)
	require.NotNil(t, resp.PhotoURL)
	assert.Equal(t, "/api/v1/issues/5/photo", *resp.PhotoURL)
	assert.Equal(t, "image/webp", *resp.PhotoContentType)

	empty := ""
	assert.Nil(t, IssueRequest{PhotoDataBase64: &empty}.photo())
}
