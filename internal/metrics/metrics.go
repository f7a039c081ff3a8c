package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics exposes counters and histograms for the import flow.
type ImportMetrics struct {
	uploadsTotal   *prometheus.CounterVec
	commitsTotal   *prometheus.CounterVec
	rowsTotal      *prometheus.CounterVec
	commitDuration *prometheus.HistogramVec
	activeSessions prometheus.Gauge
	activeCommits  prometheus.Gauge
}

// NewImportMetrics registers the import collectors on reg, or on the
// default registerer when reg is nil.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	m := &ImportMetrics{
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "detailflow",
			Subsystem: "import",
			Name:      "uploads_total",
			Help:      "Uploaded files by kind and outcome",
		}, []string{"kind", "status"}),
		commitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "detailflow",
			Subsystem: "import",
			Name:      "commits_total",
			Help:      "Import commits by kind and outcome",
		}, []string{"kind", "status"}),
		rowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "detailflow",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Rows handed to the sink by kind and outcome",
		}, []string{"kind", "status"}),
		commitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "detailflow",
			Subsystem: "import",
			Name:      "commit_duration_seconds",
			Help:      "Time spent writing a committed import",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "detailflow",
			Subsystem: "import",
			Name:      "active_sessions",
			Help:      "Open import sessions",
		}),
		activeCommits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "detailflow",
			Subsystem: "import",
			Name:      "active_commits",
			Help:      "Commits currently writing to the database",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.uploadsTotal, m.commitsTotal, m.rowsTotal, m.commitDuration, m.activeSessions, m.activeCommits)
	return m
}

func (m *ImportMetrics) ObserveUpload(kind, status string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(kind, status).Inc()
}

// ObserveCommit records one finished commit.
func (m *ImportMetrics) ObserveCommit(kind string, success, failed int, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if failed > 0 {
		status = "failed"
	}
	m.commitsTotal.WithLabelValues(kind, status).Inc()
	m.rowsTotal.WithLabelValues(kind, "success").Add(float64(success))
	m.rowsTotal.WithLabelValues(kind, "failed").Add(float64(failed))
	m.commitDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveRejected counts a commit that never reached the sink.
func (m *ImportMetrics) ObserveRejected(kind, reason string) {
	if m == nil {
		return
	}
	m.commitsTotal.WithLabelValues(kind, reason).Inc()
}

func (m *ImportMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *ImportMetrics) CommitStarted() {
	if m == nil {
		return
	}
	m.activeCommits.Inc()
}

func (m *ImportMetrics) CommitFinished() {
	if m == nil {
		return
	}
	m.activeCommits.Dec()
}
