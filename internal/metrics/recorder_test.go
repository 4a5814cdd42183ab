package metrics

import "time"

// testRecorder is a Recorder used to verify the interface stays satisfiable
// by simple in-memory implementations.
type testRecorder struct {
	passes      int
	relocations map[string]int
	outcomes    map[BuildOutcomeLabel]int
}

var (
	_ Recorder = (*testRecorder)(nil)
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func (t *testRecorder) ObserveStageDuration(string, time.Duration) {}
func (t *testRecorder) IncStageResult(string, ResultLabel)         {}
func (t *testRecorder) ObserveCompilePass(time.Duration, int)      { t.passes++ }
func (t *testRecorder) IncRelocation(branch string)                { t.relocations[branch]++ }
func (t *testRecorder) ObserveBuildDuration(time.Duration)         {}
func (t *testRecorder) IncBuildOutcome(o BuildOutcomeLabel)        { t.outcomes[o]++ }
