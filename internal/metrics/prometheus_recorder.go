package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	stageResults  *prom.CounterVec
	passDuration  prom.Histogram
	passResults   *prom.CounterVec
	relocations   *prom.CounterVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "texdoc",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual document lifecycle stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "texdoc",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		passDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "texdoc",
			Name:      "compile_pass_duration_seconds",
			Help:      "Duration of single compiler invocations",
			Buckets:   prom.DefBuckets,
		}),
		passResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "texdoc",
			Name:      "compile_passes_total",
			Help:      "Compiler invocations by exit code",
		}, []string{"exit_code"}),
		relocations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "texdoc",
			Name:      "relocations_total",
			Help:      "Artifact relocations by destination branch",
		}, []string{"branch"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "texdoc",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "texdoc",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.passDuration, pr.passResults,
		pr.relocations, pr.buildDuration, pr.buildOutcome)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveCompilePass(d time.Duration, exitCode int) {
	if p == nil {
		return
	}
	p.passDuration.Observe(d.Seconds())
	p.passResults.WithLabelValues(strconv.Itoa(exitCode)).Inc()
}

func (p *PrometheusRecorder) IncRelocation(branch string) {
	if p == nil {
		return
	}
	p.relocations.WithLabelValues(branch).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
