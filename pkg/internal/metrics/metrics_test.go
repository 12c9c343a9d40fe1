package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRunRecordsItemsAndBytes(t *testing.T) {
	m := newMetricsWith(prometheus.NewRegistry())

	m.ObserveRun("org_cleanup", 3*time.Second, 12, 4096)
	m.ObserveRun("org_cleanup", time.Second, 3, 1024)

	assert.InDelta(t, 15, testutil.ToFloat64(m.runItems.WithLabelValues("org_cleanup")), 0.001)
	assert.InDelta(t, 5120, testutil.ToFloat64(m.runBytes.WithLabelValues("org_cleanup")), 0.001)
}

func TestObserveArtifactDeletedCountsPerPlan(t *testing.T) {
	m := newMetricsWith(prometheus.NewRegistry())

	m.ObserveArtifactDeleted("free", 100)
	m.ObserveArtifactDeleted("free", 200)
	m.ObserveArtifactDeleted("pro", 50)

	assert.InDelta(t, 2, testutil.ToFloat64(m.artifactsDeleted.WithLabelValues("free")), 0.001)
	assert.InDelta(t, 300, testutil.ToFloat64(m.bytesFreed.WithLabelValues("free")), 0.001)
	assert.InDelta(t, 50, testutil.ToFloat64(m.bytesFreed.WithLabelValues("pro")), 0.001)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveArtifactDeleted("free", 10)
	m.ObserveItemFailure("artifacts")
	m.ObserveRun("fleet_cleanup", time.Second, 1, 10)
}
