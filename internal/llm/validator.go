package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/geojobs/internal/canon"
	"github.com/spigell/geojobs/internal/record"
)

const probeTimeout = 5 * time.Second

// Validator asks a model to reconcile an extracted record against the
// source text, filling only fields the text unambiguously implies.
// Availability is checked per call and is not sticky: a validator outage
// on one record does not disable the pass for the rest of the run.
type Validator struct {
	backend Backend
	logger  *zap.Logger
}

// NewValidator returns nil when no backend is configured; a nil Validator
// skips reconciliation.
func NewValidator(backend Backend, logger *zap.Logger) *Validator {
	if backend == nil {
		return nil
	}
	return &Validator{backend: backend, logger: logger}
}

// Reconcile returns the model-reconciled record, re-canonicalized, or the
// input unchanged when the validator is unavailable or fails. It never
// propagates an error: the rule-repaired record is always good enough.
func (v *Validator) Reconcile(ctx context.Context, p *record.Parsed, text string) *record.Parsed {
	if v == nil {
		return p
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := v.backend.Probe(probeCtx); err != nil {
		v.logger.Debug("validator unavailable, keeping rule-repaired record",
			zap.String("backend", v.backend.String()),
			zap.Error(err),
		)
		return p
	}

	current, err := json.Marshal(p)
	if err != nil {
		v.logger.Warn("validator skipped", zap.Error(err))
		return p
	}

	raw, err := v.backend.Chat(ctx, validatorSystem, fmt.Sprintf(validatorInstruction, text, current))
	if err != nil {
		v.logger.Warn("validator call failed, keeping rule-repaired record", zap.Error(err))
		return p
	}

	obj, err := ParseObject(raw)
	if err != nil {
		v.logger.Warn("validator returned unparseable payload", zap.Error(err))
		return p
	}

	reconciled, err := record.Decode(obj)
	if err != nil {
		v.logger.Warn("validator payload does not match schema", zap.Error(err))
		return p
	}

	return canon.Apply(reconciled)
}
