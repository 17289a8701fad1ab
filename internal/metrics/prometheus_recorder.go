package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	registry         *prom.Registry
	stageDuration    *prom.HistogramVec
	buildDuration    prom.Histogram
	stageResults     *prom.CounterVec
	buildOutcome     *prom.CounterVec
	pagesRendered    prom.Gauge
	unitsDiscovered  prom.Gauge
	unitIssues       *prom.CounterVec
	lrBroadcasts     prom.Counter
	lrClients        prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics
// (idempotent per recorder instance).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.pagesRendered = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitebuilder",
			Name:      "pages_rendered",
			Help:      "Pages rendered by the most recent build",
		})
		pr.unitsDiscovered = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitebuilder",
			Name:      "units_discovered",
			Help:      "Content units discovered by the most recent build",
		})
		pr.unitIssues = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "unit_issues_total",
			Help:      "Unit-scoped build issues by code",
		}, []string{"code"})
		pr.lrBroadcasts = prom.NewCounter(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "livereload_broadcasts_total",
			Help:      "Live-reload change broadcasts sent to connected clients",
		})
		pr.lrClients = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitebuilder",
			Name:      "livereload_clients",
			Help:      "Currently connected live-reload clients",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
			pr.pagesRendered, pr.unitsDiscovered, pr.unitIssues, pr.lrBroadcasts, pr.lrClients)
	})
	return pr
}

// Handler returns the HTTP handler serving this recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetPagesRendered(n int) {
	if p == nil || p.pagesRendered == nil {
		return
	}
	p.pagesRendered.Set(float64(n))
}

func (p *PrometheusRecorder) SetUnitsDiscovered(n int) {
	if p == nil || p.unitsDiscovered == nil {
		return
	}
	p.unitsDiscovered.Set(float64(n))
}

func (p *PrometheusRecorder) IncUnitIssue(code string) {
	if p == nil || p.unitIssues == nil {
		return
	}
	p.unitIssues.WithLabelValues(code).Inc()
}

func (p *PrometheusRecorder) IncLiveReloadBroadcast() {
	if p == nil || p.lrBroadcasts == nil {
		return
	}
	p.lrBroadcasts.Inc()
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil || p.lrClients == nil {
		return
	}
	p.lrClients.Set(float64(n))
}
