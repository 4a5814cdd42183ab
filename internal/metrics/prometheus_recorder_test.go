package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("compile", 150*time.Millisecond)
	pr.IncStageResult("compile", ResultSuccess)
	pr.ObserveCompilePass(80*time.Millisecond, 0)
	pr.ObserveCompilePass(90*time.Millisecond, 1)
	pr.IncRelocation("directory")
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(BuildOutcomeSuccess)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"texdoc_stage_duration_seconds",
		"texdoc_compile_passes_total",
		"texdoc_relocations_total",
		"texdoc_build_outcomes_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not gathered", want)
		}
	}
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncBuildOutcome(BuildOutcomeFailed)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `texdoc_build_outcomes_total{outcome="failed"} 1`) {
		t.Errorf("metrics body missing outcome counter:\n%s", rec.Body.String())
	}
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncRelocation("desktop")
	pr.ObserveCompilePass(time.Second, 0)
}
