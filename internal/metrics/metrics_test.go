package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PrometheusMiddleware("test"))
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/users/:id", "204", "test"))
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/users/abc", nil)
		r.ServeHTTP(w, req)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/users/:id", "204", "test"))

	assert.Equal(t, 2.0, after-before)
}

func TestRecordTransition(t *testing.T) {
	c := relationshipTransitions.WithLabelValues(GraphFollow, "follow")
	before := testutil.ToFloat64(c)
	RecordTransition(GraphFollow, "follow")
	assert.Equal(t, 1.0, testutil.ToFloat64(c)-before)
}
