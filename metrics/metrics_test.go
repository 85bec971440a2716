package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStep(t *testing.T) {
	m := NewManager()
	m.RecordStep("uploading", false, 20*time.Millisecond)
	m.RecordStep("uploading", true, 0)
	m.RecordStep("uploading", false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pipelineSteps.WithLabelValues("uploading", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pipelineSteps.WithLabelValues("uploading", OutcomeFailure)))
}

func TestNilManagerIsNoop(t *testing.T) {
	var m *Manager
	m.RecordStep("converting", true, time.Second)
	m.RecordRasterize("unipdf", false)
	m.RecordPlatformError("fs")
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := NewManager(WithNamespace("test"))
	m.RecordRasterize("fitz", false)
	m.RecordPlatformError("kv")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_rasterize_total{engine="fitz",outcome="success"} 1`)
	assert.Contains(t, rec.Body.String(), `test_platform_errors_total{group="kv"} 1`)
}
