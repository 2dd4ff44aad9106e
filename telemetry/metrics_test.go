package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRows(t *testing.T) {
	m := NewMetrics()
	m.ObserveRows(5, 2, 3, 0, 1)
	m.ObserveDuration(1500 * time.Millisecond)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.RowsInput))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RowsOutput))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsDropped.WithLabelValues("price")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RowsDropped.WithLabelValues("geo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvalidDates))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.Duration))
}

func TestPushWithoutURLIsNoop(t *testing.T) {
	assert.NoError(t, NewMetrics().Push("", "basic_cleaning", "r1"))
}

func TestPushSendsRegistry(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetrics()
	m.ObserveRows(10, 4, 5, 1, 0)
	require.NoError(t, m.Push(srv.URL, "basic_cleaning", "r1"))

	assert.True(t, strings.HasPrefix(gotPath, "/metrics/job/basic_cleaning"), gotPath)
	assert.Contains(t, gotPath, "run_id/r1")
	assert.NotEmpty(t, gotBody)
}

func TestPushReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewMetrics().Push(srv.URL, "basic_cleaning", "")
	assert.ErrorContains(t, err, "telemetry: push")
}
