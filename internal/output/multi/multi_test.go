package multi

import (
	"context"
	"errors"
	"testing"

	"github.com/crimson-sun/runlog/internal/model"
)

type mockOutput struct {
	envs   []model.Envelope
	closed bool
	err    error
}

func (m *mockOutput) Write(_ context.Context, env model.Envelope) error {
	m.envs = append(m.envs, env)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return m.err
}

var errDiskFull = errors.New("disk full")

func testEnvelope(test string) model.Envelope {
	return model.Envelope{Spec: "a.cy.js", Test: test, State: model.StatePassed}
}

func TestFanOutDeliversToAll(t *testing.T) {
	a, b, c := &mockOutput{}, &mockOutput{}, &mockOutput{}
	m := New(a, b, c)

	if err := m.Write(context.Background(), testEnvelope("T")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, out := range []*mockOutput{a, b, c} {
		if len(out.envs) != 1 {
			t.Fatalf("output %d: got %d envelopes, want 1", i, len(out.envs))
		}
		if out.envs[0].Test != "T" {
			t.Errorf("output %d: got test %q, want %q", i, out.envs[0].Test, "T")
		}
	}
}

func TestErrorDoesNotPreventDelivery(t *testing.T) {
	failing := &mockOutput{err: errDiskFull}
	healthy := &mockOutput{}
	m := New(failing, healthy)

	err := m.Write(context.Background(), testEnvelope("T"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("got %T, want *WriteError", err)
	}
	if werr.Delivered != 1 || werr.Failed != 1 || !werr.Partial() {
		t.Errorf("got delivered=%d failed=%d, want 1 and 1", werr.Delivered, werr.Failed)
	}
	if !errors.Is(err, errDiskFull) {
		t.Error("joined error should wrap the output's error")
	}
	if len(healthy.envs) != 1 {
		t.Fatalf("healthy output got %d envelopes, want 1", len(healthy.envs))
	}
	if len(failing.envs) != 1 {
		t.Fatalf("failing output got %d envelopes, want 1", len(failing.envs))
	}
}

func TestAllOutputsFailedIsNotPartial(t *testing.T) {
	m := New(&mockOutput{err: errDiskFull}, &mockOutput{err: errDiskFull})

	var werr *WriteError
	if !errors.As(m.Write(context.Background(), testEnvelope("T")), &werr) {
		t.Fatal("expected *WriteError")
	}
	if werr.Partial() {
		t.Error("nothing was delivered, so the failure is not partial")
	}
}

func TestCloseClosesAll(t *testing.T) {
	a := &mockOutput{}
	b := &mockOutput{err: errors.New("close failed")}
	m := New(a, b)

	if err := m.Close(); err == nil {
		t.Fatal("expected joined close error")
	}
	if !a.closed || !b.closed {
		t.Error("every output should be closed")
	}
}

func TestEmptyMulti(t *testing.T) {
	m := New()
	if err := m.Write(context.Background(), testEnvelope("T")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
