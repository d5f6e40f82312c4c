package llm

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// State holds the process-wide failover flag shared by every concurrent
// extraction task in a run. The transition primary→fallback is one-way and
// idempotent: once tripped it never reverts within the run, so an
// exhausted paid backend is not hammered on every subsequent record.
type State struct {
	fallback atomic.Bool
}

// Trip switches the run to the secondary backend. Reports whether this
// call performed the transition.
func (s *State) Trip() bool {
	return s.fallback.CompareAndSwap(false, true)
}

// FallbackActive reports whether the secondary backend is in charge.
func (s *State) FallbackActive() bool {
	return s.fallback.Load()
}

// Extractor issues structured-extraction requests against a primary
// (managed) backend with sticky failover to a secondary (local) one.
type Extractor struct {
	primary   Backend
	secondary Backend
	state     *State
	logger    *zap.Logger
}

// NewExtractor builds an extractor. primary may be nil, in which case the
// secondary backend handles everything from the start.
func NewExtractor(primary, secondary Backend, state *State, logger *zap.Logger) *Extractor {
	e := &Extractor{
		primary:   primary,
		secondary: secondary,
		state:     state,
		logger:    logger,
	}
	if primary == nil {
		state.Trip()
	}
	return e
}

// Preflight probes the primary backend once at startup; a failed probe
// trips the failover before any record is processed.
func (e *Extractor) Preflight(ctx context.Context) {
	if e.primary == nil || e.state.FallbackActive() {
		return
	}

	if err := e.primary.Probe(ctx); err != nil {
		e.logger.Warn("primary backend preflight failed, switching to secondary",
			zap.String("backend", e.primary.String()),
			zap.Error(err),
		)
		e.state.Trip()
		return
	}

	e.logger.Info("primary backend preflight ok", zap.String("backend", e.primary.String()))
}

// Extract asks the active backend to produce the structured JSON object
// for the given text. Any primary failure trips the sticky failover and
// the same record is retried once against the secondary; secondary
// failures propagate to the caller, which degrades to heuristics only.
func (e *Extractor) Extract(ctx context.Context, text string) (map[string]any, error) {
	user := extractionInstruction + "\nТекст:\n" + text

	if !e.state.FallbackActive() {
		raw, err := e.primary.Chat(ctx, systemPrompt, user)
		if err == nil {
			return ParseObject(raw)
		}

		reason := "error"
		if IsQuota(err) {
			reason = "quota or access limit"
		}
		e.logger.Warn("primary backend failed, switching to secondary for the rest of the run",
			zap.String("backend", e.primary.String()),
			zap.String("reason", reason),
			zap.Error(err),
		)
		e.state.Trip()
	}

	raw, err := e.secondary.Chat(ctx, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("secondary backend %s: %w", e.secondary.String(), err)
	}

	return ParseObject(raw)
}
