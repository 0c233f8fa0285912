package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveReviews(t *testing.T) {
	before := testutil.ToFloat64(ReviewCounter.WithLabelValues("approved", "true"))

	ObserveReviews("approved", true, 3)
	ObserveReviews("approved", true, 0)

	assert.Equal(t, before+3, testutil.ToFloat64(ReviewCounter.WithLabelValues("approved", "true")))
}

func TestObserveStoreCall_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(StoreErrors.WithLabelValues("submission.find"))

	ObserveStoreCall("submission.find", time.Millisecond, nil)
	ObserveStoreCall("submission.find", time.Millisecond, errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(StoreErrors.WithLabelValues("submission.find")))
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/api/submissions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(RequestCounter.WithLabelValues(http.MethodGet, "/api/submissions/:id", "200"))
	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/submissions/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(RequestCounter.WithLabelValues(http.MethodGet, "/api/submissions/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RequestCounter.WithLabelValues(http.MethodGet, "unmatched", "404")))
}
