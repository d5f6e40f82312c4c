package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// stubBackend scripts Chat and Probe answers and counts calls.
type stubBackend struct {
	name      string
	chatResp  string
	chatErr   error
	probeErr  error
	chatCalls int
}

func (s *stubBackend) Chat(_ context.Context, _, _ string) (string, error) {
	s.chatCalls++
	return s.chatResp, s.chatErr
}

func (s *stubBackend) Probe(_ context.Context) error { return s.probeErr }

func (s *stubBackend) String() string { return s.name }

func TestExtractUsesPrimary(t *testing.T) {
	t.Parallel()

	primary := &stubBackend{name: "cloud", chatResp: `{"role": "employer"}`}
	secondary := &stubBackend{name: "local", chatResp: `{"role": "candidate"}`}
	e := NewExtractor(primary, secondary, &State{}, zap.NewNop())

	obj, err := e.Extract(context.Background(), "текст")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["role"] != "employer" {
		t.Fatalf("expected primary answer, got %v", obj)
	}
	if secondary.chatCalls != 0 {
		t.Fatalf("expected secondary untouched, got %d calls", secondary.chatCalls)
	}
}

func TestExtractFailoverIsSticky(t *testing.T) {
	t.Parallel()

	primary := &stubBackend{name: "cloud", chatErr: &StatusError{Code: 429, Body: "quota"}}
	secondary := &stubBackend{name: "local", chatResp: `{"role": "employer"}`}
	state := &State{}
	e := NewExtractor(primary, secondary, state, zap.NewNop())

	// the failing record is retried against the secondary transparently
	obj, err := e.Extract(context.Background(), "текст")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["role"] != "employer" {
		t.Fatalf("expected secondary answer, got %v", obj)
	}
	if !state.FallbackActive() {
		t.Fatal("expected failover tripped")
	}

	// subsequent records must not touch the primary again
	if _, err := e.Extract(context.Background(), "другой текст"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.chatCalls != 1 {
		t.Fatalf("expected exactly one primary attempt, got %d", primary.chatCalls)
	}
	if secondary.chatCalls != 2 {
		t.Fatalf("expected secondary to serve both records, got %d calls", secondary.chatCalls)
	}
}

func TestExtractTripsOnNonQuotaErrorToo(t *testing.T) {
	t.Parallel()

	primary := &stubBackend{name: "cloud", chatErr: errors.New("connection reset")}
	secondary := &stubBackend{name: "local", chatResp: `{"ok": true}`}
	state := &State{}
	e := NewExtractor(primary, secondary, state, zap.NewNop())

	if _, err := e.Extract(context.Background(), "текст"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.FallbackActive() {
		t.Fatal("expected failover tripped on transport error")
	}
}

func TestExtractWithoutPrimary(t *testing.T) {
	t.Parallel()

	secondary := &stubBackend{name: "local", chatResp: `{"ok": true}`}
	state := &State{}
	e := NewExtractor(nil, secondary, state, zap.NewNop())

	if !state.FallbackActive() {
		t.Fatal("expected failover active from the start without a primary")
	}
	if _, err := e.Extract(context.Background(), "текст"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractSecondaryErrorPropagates(t *testing.T) {
	t.Parallel()

	secondary := &stubBackend{name: "local", chatErr: errors.New("model not loaded")}
	e := NewExtractor(nil, secondary, &State{}, zap.NewNop())

	_, err := e.Extract(context.Background(), "текст")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "local") {
		t.Fatalf("expected backend name in error, got %v", err)
	}
}

func TestPreflight(t *testing.T) {
	t.Parallel()

	t.Run("probe failure trips before any record", func(t *testing.T) {
		t.Parallel()
		primary := &stubBackend{name: "cloud", probeErr: &StatusError{Code: 402, Body: "payment required"}}
		state := &State{}
		e := NewExtractor(primary, &stubBackend{name: "local"}, state, zap.NewNop())

		e.Preflight(context.Background())

		if !state.FallbackActive() {
			t.Fatal("expected failover tripped by preflight")
		}
	})

	t.Run("probe success keeps primary", func(t *testing.T) {
		t.Parallel()
		primary := &stubBackend{name: "cloud"}
		state := &State{}
		e := NewExtractor(primary, &stubBackend{name: "local"}, state, zap.NewNop())

		e.Preflight(context.Background())

		if state.FallbackActive() {
			t.Fatal("expected primary still active")
		}
	})

	t.Run("no primary is a no-op", func(t *testing.T) {
		t.Parallel()
		e := NewExtractor(nil, &stubBackend{name: "local"}, &State{}, zap.NewNop())
		e.Preflight(context.Background())
	})
}

func TestStateTripOnce(t *testing.T) {
	t.Parallel()

	state := &State{}
	if !state.Trip() {
		t.Fatal("expected first trip to perform the transition")
	}
	if state.Trip() {
		t.Fatal("expected second trip to be a no-op")
	}
	if !state.FallbackActive() {
		t.Fatal("expected fallback active")
	}
}
