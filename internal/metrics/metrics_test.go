package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varalys/vibeguard/internal/aggregate"
	"github.com/varalys/vibeguard/internal/engine"
	"github.com/varalys/vibeguard/internal/types"
)

func TestObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRun(engine.Result{
		Summary:      aggregate.Summary{Critical: 1, Medium: 2, Total: 3},
		FilesScanned: 5,
		FilesFailed:  1,
		CacheHits:    2,
		Duration:     150 * time.Millisecond,
	})
	m.ObserveRun(engine.Result{Summary: aggregate.Summary{Medium: 1, Total: 1}, FilesScanned: 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Findings.WithLabelValues(string(types.SevCritical))))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Findings.WithLabelValues(string(types.SevMedium))))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.FilesScanned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesFailed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestObserverWiredIntoEngine(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	e := engine.New(engine.Options{Observer: m, Threads: 2})

	e.Run([]types.File{{Path: "lib/crypto.ts", Content: `crypto.createHash("md5")`}}, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesScanned))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.Findings.WithLabelValues(string(types.SevHigh))), 1.0)
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.Runs.Inc()
	m.Requests.WithLabelValues("/v1/scan", "200").Inc()

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	var sb bytes.Buffer
	_, err = sb.ReadFrom(resp.Body)
	require.NoError(t, err)
	body := sb.String()
	assert.Contains(t, body, "vibeguard_runs_total 1")
	assert.Contains(t, body, `vibeguard_http_requests_total{code="200",route="/v1/scan"} 1`)
}
