package httprecv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/runlog/internal/model"
	"github.com/crimson-sun/runlog/internal/output/multi"
	"github.com/crimson-sun/runlog/internal/transport/httpsend"
)

type mockOutput struct {
	mu   sync.Mutex
	envs []model.Envelope
	err  error
}

func (m *mockOutput) Write(_ context.Context, env model.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.envs = append(m.envs, env)
	return nil
}

func (m *mockOutput) Close() error { return nil }

func (m *mockOutput) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.envs)
}

// flakyOutput rejects the first `failures` writes, then accepts.
type flakyOutput struct {
	mu       sync.Mutex
	failures int
	attempts int
	envs     []model.Envelope
}

func (f *flakyOutput) Write(_ context.Context, env model.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return errors.New("database is locked")
	}
	f.envs = append(f.envs, env)
	return nil
}

func (f *flakyOutput) Close() error { return nil }

func (f *flakyOutput) counts() (attempts, written int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts, len(f.envs)
}

func TestRoundTripThroughSender(t *testing.T) {
	out := &mockOutput{}
	srv := httptest.NewServer(New(out, nil))
	defer srv.Close()

	client := httpsend.New(srv.URL, httpsend.WithBackoff(time.Millisecond))
	env := model.Envelope{
		Spec:             "a.cy.js",
		Test:             "A -> T",
		State:            model.StatePassed,
		Level:            1,
		ConsoleTitle:     "hook",
		IsHook:           true,
		FileMessages:     []model.LogEntry{{Type: model.TypeCommand, Message: "file"}},
		TerminalMessages: []model.LogEntry{{Type: model.TypeCommand, Message: "term"}},
	}
	require.NoError(t, client.Write(context.Background(), env))

	require.Equal(t, 1, out.count())
	assert.Equal(t, env, out.envs[0])
}

func TestRejectsBadEnvelopes(t *testing.T) {
	out := &mockOutput{}
	srv := httptest.NewServer(New(out, nil))
	defer srv.Close()

	for _, body := range []string{`not json`, `{"test":"no spec"}`} {
		resp, err := http.Post(srv.URL+httpsend.MessagesPath, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	assert.Equal(t, 0, out.count())
}

func TestOutputFailureIs500AndRetryable(t *testing.T) {
	out := &mockOutput{err: errors.New("disk full")}
	srv := httptest.NewServer(New(out, nil))
	defer srv.Close()

	post := func() int {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+httpsend.MessagesPath, strings.NewReader(`{"spec":"a.cy.js","test":"T"}`))
		req.Header.Set(httpsend.MessageIDHeader, "m-1")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusInternalServerError, post())

	out.mu.Lock()
	out.err = nil
	out.mu.Unlock()
	assert.Equal(t, http.StatusNoContent, post())
	assert.Equal(t, 1, out.count())
}

func TestPartialWriteIsNotRetried(t *testing.T) {
	console := &mockOutput{}
	history := &flakyOutput{failures: 1}
	srv := httptest.NewServer(New(multi.New(console, history), nil))
	defer srv.Close()

	client := httpsend.New(srv.URL, httpsend.WithBackoff(time.Millisecond))
	require.NoError(t, client.Write(context.Background(), model.Envelope{Spec: "a.cy.js", Test: "T"}))

	assert.Equal(t, 1, console.count(), "console must print the envelope once")
	attempts, written := history.counts()
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 0, written)
}

func TestTotalWriteFailureIsRetried(t *testing.T) {
	only := &flakyOutput{failures: 1}
	srv := httptest.NewServer(New(multi.New(only), nil))
	defer srv.Close()

	client := httpsend.New(srv.URL, httpsend.WithBackoff(time.Millisecond))
	require.NoError(t, client.Write(context.Background(), model.Envelope{Spec: "a.cy.js", Test: "T"}))

	attempts, written := only.counts()
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, written)
}

func TestDuplicateMessageIgnored(t *testing.T) {
	out := &mockOutput{}
	srv := httptest.NewServer(New(out, nil))
	defer srv.Close()

	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+httpsend.MessagesPath, strings.NewReader(`{"spec":"a.cy.js","test":"T"}`))
		req.Header.Set(httpsend.MessageIDHeader, "same")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}
	assert.Equal(t, 1, out.count())
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(New(&mockOutput{}, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSeenSetIsBounded(t *testing.T) {
	s := New(&mockOutput{}, nil)
	for i := 0; i < seenCapacity+10; i++ {
		assert.False(t, s.duplicate(fmt.Sprintf("id-%d", i)))
	}
	assert.LessOrEqual(t, len(s.seen), seenCapacity)
	assert.False(t, s.duplicate(""))
	assert.False(t, s.duplicate(""))
}

func TestForgetKeepsRingInSync(t *testing.T) {
	s := New(&mockOutput{}, nil)

	assert.False(t, s.duplicate("retried"))
	s.forget("retried")
	assert.False(t, s.duplicate("retried"))
	assert.True(t, s.duplicate("retried"))
	assert.Len(t, s.ring, 1)

	s.forget("never-seen")
	assert.Len(t, s.ring, 1)

	for i := 0; i < seenCapacity+10; i++ {
		s.duplicate(fmt.Sprintf("id-%d", i))
		require.Equal(t, len(s.seen), len(s.ring))
	}
	for _, id := range s.ring {
		_, ok := s.seen[id]
		require.True(t, ok, "ring entry %s missing from seen set", id)
	}
}
