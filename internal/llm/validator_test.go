package llm

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/geojobs/internal/record"
)

func TestValidatorNilSkips(t *testing.T) {
	t.Parallel()

	var v *Validator
	p := record.New()

	if got := v.Reconcile(context.Background(), p, "текст"); got != p {
		t.Fatal("expected nil validator to return the input unchanged")
	}

	if NewValidator(nil, zap.NewNop()) != nil {
		t.Fatal("expected nil validator without a backend")
	}
}

func TestValidatorUnavailableKeepsInput(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "local", probeErr: errors.New("connection refused")}
	v := NewValidator(backend, zap.NewNop())

	p := record.New()
	p.Position = "Геодезист"

	got := v.Reconcile(context.Background(), p, "текст")
	if got != p {
		t.Fatal("expected input returned when the validator is unreachable")
	}
	if backend.chatCalls != 0 {
		t.Fatalf("expected no chat call after failed probe, got %d", backend.chatCalls)
	}
}

func TestValidatorCallFailureKeepsInput(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "local", chatErr: errors.New("boom")}
	v := NewValidator(backend, zap.NewNop())

	p := record.New()
	if got := v.Reconcile(context.Background(), p, "текст"); got != p {
		t.Fatal("expected input returned on chat failure")
	}
}

func TestValidatorUnparseablePayloadKeepsInput(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "local", chatResp: "это не json"}
	v := NewValidator(backend, zap.NewNop())

	p := record.New()
	if got := v.Reconcile(context.Background(), p, "текст"); got != p {
		t.Fatal("expected input returned on unparseable payload")
	}
}

func TestValidatorReconciles(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "local", chatResp: `{
		"role": "employer",
		"position": "Геодезист",
		"employment": ["вахта"],
		"confidence": 1.7
	}`}
	v := NewValidator(backend, zap.NewNop())

	got := v.Reconcile(context.Background(), record.New(), "текст")

	if got.Role != record.RoleEmployer || got.Position != "Геодезист" {
		t.Fatalf("unexpected reconciled record: %+v", got)
	}
	if len(got.Employment) != 1 || got.Employment[0] != "rotation" {
		t.Fatalf("expected reconciled record re-canonicalized, got %v", got.Employment)
	}
	if got.Confidence != 1 {
		t.Fatalf("expected confidence clamped, got %v", got.Confidence)
	}
}
