package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/texdoc/internal/retry"
)

var noRetry = retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 0)

type fakeConn struct {
	// failures is how many Publish calls fail before one succeeds.
	failures int
	calls    int
	subject  string
	data     []byte
	flushed  bool
	closed   bool
	pubErr   error
	flushErr error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.calls++
	f.subject = subj
	f.data = data
	if f.calls <= f.failures {
		return errors.New("connection reset")
	}
	return f.pubErr
}

func (f *fakeConn) FlushWithContext(context.Context) error {
	f.flushed = true
	return f.flushErr
}

func (f *fakeConn) Close() { f.closed = true }

func TestNATSPublisherEncodesEvent(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "", noRetry)

	err := p.Publish(t.Context(), BuildEvent{JobID: "j1", Source: "job.yaml", Status: "success", CompileOK: true, DurationMS: 42})
	require.NoError(t, err)
	assert.Equal(t, DefaultSubject, fc.subject)
	assert.True(t, fc.flushed)

	var got BuildEvent
	require.NoError(t, json.Unmarshal(fc.data, &got))
	assert.Equal(t, "j1", got.JobID)
	assert.Equal(t, "success", got.Status)
	assert.True(t, got.CompileOK)
	assert.False(t, got.Timestamp.IsZero())

	require.NoError(t, p.Close())
	assert.True(t, fc.closed)
}

func TestNATSPublisherErrors(t *testing.T) {
	boom := errors.New("boom")

	p := newPublisher(&fakeConn{pubErr: boom}, "custom", noRetry)
	assert.ErrorIs(t, p.Publish(t.Context(), BuildEvent{}), boom)

	fc := &fakeConn{flushErr: boom}
	p = newPublisher(fc, "custom", noRetry)
	assert.ErrorIs(t, p.Publish(t.Context(), BuildEvent{}), boom)
	assert.Equal(t, "custom", fc.subject)
}

func TestNATSPublisherRetriesTransientFailure(t *testing.T) {
	fc := &fakeConn{failures: 2}
	p := newPublisher(fc, "", retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 2))

	require.NoError(t, p.Publish(t.Context(), BuildEvent{JobID: "j2"}))
	assert.Equal(t, 3, fc.calls)
	assert.True(t, fc.flushed)

	fc = &fakeConn{failures: 5}
	p = newPublisher(fc, "", retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 1))
	require.Error(t, p.Publish(t.Context(), BuildEvent{JobID: "j3"}))
	assert.Equal(t, 2, fc.calls)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(t.Context(), BuildEvent{}))
	assert.NoError(t, p.Close())
}
