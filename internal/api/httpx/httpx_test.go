package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vineyard-api/internal/apperr"
)

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
		msg    string
	}{
		{apperr.Conflict(apperr.CodeDuplicateTag, "tag taken"), http.StatusConflict, apperr.CodeDuplicateTag, "tag taken"},
		{apperr.NotFound(apperr.CodeNoPhoto, "no photo"), http.StatusNotFound, apperr.CodeNoPhoto, "no photo"},
		{errors.New("pq: connection reset"), http.StatusInternalServerError, "internal", "Internal Server Error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Error(c, tc.err)

		assert.Equal(t, tc.status, w.Code)
		var body ErrorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Code)
		assert.Equal(t, tc.msg, body.Error)
	}
}

func TestTimestampLayouts(t *testing.T) {
	var got struct {
		At *Timestamp `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2024-03-05"}`), &got))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *got.At.Ptr())

	require.NoError(t, json.Unmarshal([]byte(`{"at":"2024-03-05T10:20:30+02:00"}`), &got))
	assert.Equal(t, time.Date(2024, 3, 5, 8, 20, 30, 0, time.UTC), got.At.Time)

	assert.Error(t, json.Unmarshal([]byte(`{"at":"yesterday"}`), &got))

	var none *Timestamp
	assert.Nil(t, none.Ptr())
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "1", "Yes", "on"} {
		v, ok := ParseBool(s)
		assert.True(t, ok, s)
		assert.True(t, v, s)
	}
	v, ok := ParseBool("false")
	assert.True(t, ok)
	assert.False(t, v)
	_, ok = ParseBool("maybe")
	assert.False(t, ok)
}

func TestIDAndWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/things/:id", func(c *gin.Context) {
		id, ok := ID(c, "id")
		if !ok {
			return
		}
		skip, limit := Window(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "skip": skip, "limit": limit})
	})
	r.GET("/things", func(c *gin.Context) {
		if _, ok := QueryID(c, "type_id"); ok {
			c.Status(http.StatusNoContent)
		}
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/12?skip=20&limit=x", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":12,"skip":20,"limit":0}`, w.Body.String())

	for _, path := range []string{"/things/0", "/things/-3", "/things/abc", "/things?type_id=", "/things?type_id=two"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things?type_id=4", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
