package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSync(t *testing.T) {
	created := testutil.ToFloat64(SyncTotal.WithLabelValues("vine", SyncCreated))
	updated := testutil.ToFloat64(SyncTotal.WithLabelValues("vine", SyncUpdated))

	RecordSync("vine", true)
	RecordSync("vine", false)
	RecordSync("vine", false)

	assert.Equal(t, created+1, testutil.ToFloat64(SyncTotal.WithLabelValues("vine", SyncCreated)))
	assert.Equal(t, updated+2, testutil.ToFloat64(SyncTotal.WithLabelValues("vine", SyncUpdated)))
}

func TestRecordPhotoStore(t *testing.T) {
	before := testutil.ToFloat64(PhotoStoreTotal.WithLabelValues(PhotoRejected))
	RecordPhotoStore(PhotoRejected)
	assert.Equal(t, before+1, testutil.ToFloat64(PhotoStoreTotal.WithLabelValues(PhotoRejected)))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/vines/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", Handler())

	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/vines/:id", "204"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vines/42", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/vines/:id", "204")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vineyard_api_requests_total")
}
