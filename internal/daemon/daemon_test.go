package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/texdoc/internal/build"
	"git.home.luguber.info/inful/texdoc/internal/config"
	"git.home.luguber.info/inful/texdoc/internal/metrics"
)

type fakeService struct {
	mu      sync.Mutex
	calls   int
	jobs    []*config.Job
	err     error
	running atomic.Int32
	overlap atomic.Bool
}

func (f *fakeService) Run(_ context.Context, req build.Request) (*build.Result, error) {
	if f.running.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.running.Add(-1)
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.jobs = append(f.jobs, req.Job)
	if f.err != nil {
		return &build.Result{Status: build.StatusFailed}, f.err
	}
	return &build.Result{Status: build.StatusSuccess, JobID: "job-1", Output: "/out/doc.pdf", EndTime: time.Now()}, nil
}

func (f *fakeService) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func staticLoader(job *config.Job) JobLoader {
	return func(string) (*config.Job, error) {
		clone := *job
		return &clone, nil
	}
}

func TestBuildNowAppliesPrepareAndRecords(t *testing.T) {
	svc := &fakeService{}
	d := New(Config{
		JobPath: "job.yaml",
		Prepare: func(j *config.Job) { j.Overwrite = true },
	}, svc).WithLoader(staticLoader(&config.Job{Title: config.ArgSpec{Name: "T"}}))

	res, job, err := d.BuildNow(t.Context(), "test")
	require.NoError(t, err)
	assert.Equal(t, build.StatusSuccess, res.Status)
	assert.True(t, job.Overwrite)
	assert.True(t, svc.jobs[0].Overwrite)

	snap := d.Snapshot()
	assert.Equal(t, 1, snap.Runs)
	assert.Same(t, res, snap.Last)
	assert.NoError(t, snap.Err)
}

func TestBuildNowNeverOverlaps(t *testing.T) {
	svc := &fakeService{}
	d := New(Config{JobPath: "job.yaml"}, svc).WithLoader(staticLoader(&config.Job{}))

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = d.BuildNow(context.Background(), "concurrent")
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, svc.count())
	assert.False(t, svc.overlap.Load())
}

func TestBuildNowLoadError(t *testing.T) {
	svc := &fakeService{}
	loadErr := errors.New("bad yaml")
	d := New(Config{JobPath: "job.yaml"}, svc).WithLoader(func(string) (*config.Job, error) { return nil, loadErr })

	_, job, err := d.BuildNow(t.Context(), "test")
	require.ErrorIs(t, err, loadErr)
	assert.Nil(t, job)
	assert.Equal(t, 0, svc.count())
	assert.ErrorIs(t, d.Snapshot().Err, loadErr)
}

func TestStatusHandler(t *testing.T) {
	svc := &fakeService{}
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	rec.IncBuildOutcome(metrics.BuildOutcomeSuccess)

	d := New(Config{JobPath: "job.yaml", Registry: reg}, svc).WithLoader(staticLoader(&config.Job{}))
	_, _, err := d.BuildNow(t.Context(), "test")
	require.NoError(t, err)

	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, HealthStatusHealthy, body.Status)
	assert.Equal(t, "success", body.LastStatus)
	assert.Equal(t, "/out/doc.pdf", body.LastOutput)
	assert.Equal(t, 1, body.Runs)

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = mresp.Body.Close() }()
	assert.Equal(t, http.StatusOK, mresp.StatusCode)

	svc.err = errors.New("compile failed")
	_, _, _ = d.BuildNow(t.Context(), "test")
	hresp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = hresp.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, hresp.StatusCode)
}

func TestWatcherDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(target, []byte("a"), 0o600))

	var fired atomic.Int32
	w, err := NewWatcher(50*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	require.NoError(t, w.SetFiles(target))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go w.Run(ctx)

	for i := range 3 {
		require.NoError(t, os.WriteFile(target, []byte{byte('b' + i)}, 0o600))
	}
	require.Eventually(t, func() bool { return fired.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "a burst of writes triggers one callback")
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(time.Millisecond, func() {})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	require.NoError(t, w.SetFiles(filepath.Join(dir, "job.yaml")))

	assert.True(t, w.relevant(fsnotifyEvent(filepath.Join(dir, "job.yaml"), true)))
	assert.False(t, w.relevant(fsnotifyEvent(filepath.Join(dir, "other.yaml"), true)))
	assert.False(t, w.relevant(fsnotifyEvent(filepath.Join(dir, "job.yaml"), false)))
}

func fsnotifyEvent(name string, write bool) fsnotify.Event {
	op := fsnotify.Chmod
	if write {
		op = fsnotify.Write
	}
	return fsnotify.Event{Name: name, Op: op}
}

func TestSchedulerRunsTask(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	_, err = s.Every(0, "bad", func() {})
	require.Error(t, err)

	var runs atomic.Int32
	_, err = s.Every(50*time.Millisecond, "tick", func() { runs.Add(1) })
	require.NoError(t, err)
	s.Start()
	defer func() { _ = s.Stop() }()

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestRunRebuildsOnJobChange(t *testing.T) {
	dir := t.TempDir()
	jobPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(jobPath, []byte("title: A\n"), 0o600))

	svc := &fakeService{}
	d := New(Config{JobPath: jobPath, Debounce: 20 * time.Millisecond}, svc)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return svc.count() >= 1 }, 3*time.Second, 10*time.Millisecond)
	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(jobPath, []byte("title: B\n"), 0o600))
	require.Eventually(t, func() bool { return svc.count() >= 2 }, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not stop")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, "B", svc.jobs[len(svc.jobs)-1].Title.Name)
}
