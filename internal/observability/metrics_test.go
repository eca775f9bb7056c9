package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureRegisteredIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		EnsureRegistered()
		EnsureRegistered()
	})
}

func TestMetricsHandlerExposesRecordedSeries(t *testing.T) {
	RecordSubmit("staging")
	RecordCompletion("staging", 3*time.Millisecond, true)
	RecordCompletion("pooled", time.Millisecond, false)
	SetActiveLanes("staging", 7)
	RecordSweep("pooled", true)
	RecordSweep("pooled", false)
	SetIdleWorkers(2)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)

	assert.Contains(t, out, `submit_total{strategy="staging"}`)
	assert.Contains(t, out, `tasks_completed_total{status="success",strategy="staging"}`)
	assert.Contains(t, out, `tasks_completed_total{status="error",strategy="pooled"}`)
	assert.Contains(t, out, `lanes_active{strategy="staging"} 7`)
	assert.Contains(t, out, `sweep_total{outcome="removed",strategy="pooled"}`)
	assert.Contains(t, out, `sweep_total{outcome="kept",strategy="pooled"}`)
	assert.Contains(t, out, "pooled_workers_idle 2")
	assert.Contains(t, out, "task_duration_seconds")
}
