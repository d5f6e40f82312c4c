// Package pipeline drives records end to end: sanitize, model extraction
// with failover, heuristic enrichment, validation and persistence.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/geojobs/internal/canon"
	"github.com/spigell/geojobs/internal/heuristics"
	"github.com/spigell/geojobs/internal/llm"
	"github.com/spigell/geojobs/internal/record"
	"github.com/spigell/geojobs/internal/sanitize"
	"github.com/spigell/geojobs/internal/utils"
	"github.com/spigell/geojobs/internal/validate"
)

const sourcePlatform = "telegram"

// Store is the persistence collaborator: a read path yielding only raw
// rows without a parsed counterpart, and an idempotent upsert keyed by
// the raw row's identity.
type Store interface {
	FetchUnparsed(ctx context.Context, limit int) ([]record.Raw, error)
	UpsertParsed(ctx context.Context, raw record.Raw, p *record.Parsed) error
}

// ModelExtractor produces the structured JSON object for a text, or fails
// after its failover options are exhausted.
type ModelExtractor interface {
	Extract(ctx context.Context, text string) (map[string]any, error)
}

type Config struct {
	BatchSize    int
	PollInterval time.Duration
	Heuristics   heuristics.Config
}

type Pipeline struct {
	store     Store
	model     ModelExtractor
	validator *llm.Validator
	cfg       Config
	logger    *zap.Logger
}

func New(store Store, model ModelExtractor, validator *llm.Validator, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}

	return &Pipeline{
		store:     store,
		model:     model,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run processes batches until the context is cancelled, or returns after
// the first empty fetch when once is set.
func (p *Pipeline) Run(ctx context.Context, once bool) error {
	for {
		n, err := p.ProcessBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("fetching batch", zap.Error(err))
			if once {
				return err
			}
		}

		if once {
			if n == 0 {
				p.logger.Info("no new records, exiting")
			}
			return nil
		}

		if n == 0 {
			if err := utils.WaitFor(ctx, p.cfg.PollInterval); err != nil {
				return err
			}
		}
	}
}

// ProcessBatch fetches one bounded batch and runs every record's pipeline
// concurrently. A record's failure is logged and counted but never aborts
// the batch; completion order carries no meaning because persistence is a
// commutative per-record upsert.
func (p *Pipeline) ProcessBatch(ctx context.Context) (int, error) {
	batch, err := p.store.FetchUnparsed(ctx, p.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch batch: %w", err)
	}

	if len(batch) == 0 {
		return 0, nil
	}

	p.logger.Info("processing batch", zap.Int("records", len(batch)))

	var failed atomic.Int64
	g := &errgroup.Group{}
	for _, raw := range batch {
		g.Go(func() error {
			if err := p.processOne(ctx, raw); err != nil {
				failed.Add(1)
				p.logger.Error("record pipeline failed",
					zap.Int64("raw_id", raw.ID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	// errors are consumed per record above
	_ = g.Wait()

	p.logger.Info("batch settled",
		zap.Int("records", len(batch)),
		zap.Int64("failed", failed.Load()),
	)

	return len(batch), nil
}

func (p *Pipeline) processOne(ctx context.Context, raw record.Raw) error {
	text := sanitize.Clean(raw.Text)
	if text == "" {
		p.logger.Debug("skipping empty record", zap.Int64("raw_id", raw.ID))
		return nil
	}

	parsed := p.extract(ctx, raw, text)

	if parsed.TextClean == "" {
		parsed.TextClean = text
	}
	p.fillSource(parsed, raw)

	heuristics.Enrich(parsed, text, p.cfg.Heuristics)
	validate.Repair(parsed, text)
	// canonicalize after the rule stages so tokens they append are
	// normalized too; the reconcile pass re-canonicalizes its own output
	canon.Apply(parsed)
	parsed = p.validator.Reconcile(ctx, parsed, text)

	// safety net: a model that dropped every contact channel still must
	// not lose a phone or handle that is plainly in the text
	if parsed.Contact.Empty() {
		heuristics.ApplyContacts(&parsed.Contact, text)
	}

	if err := p.store.UpsertParsed(ctx, raw, parsed); err != nil {
		return fmt.Errorf("persist record: %w", err)
	}

	p.logger.Debug("record persisted",
		zap.Int64("raw_id", raw.ID),
		zap.String("role", parsed.Role),
		zap.Float64("confidence", parsed.Confidence),
	)

	return nil
}

// extract runs model extraction and falls back to a salvaged stub when
// the model path is exhausted. A record is never dropped because the
// model call failed.
func (p *Pipeline) extract(ctx context.Context, raw record.Raw, text string) *record.Parsed {
	obj, err := p.model.Extract(ctx, hinted(text))
	if err != nil {
		p.logger.Warn("model extraction failed, degrading to heuristics",
			zap.Int64("raw_id", raw.ID),
			zap.Error(err),
		)
		// the error text sometimes carries the partial body of a failed
		// response; mine it for a usable fragment
		fragment, _ := llm.ParseObject(err.Error())
		return record.Stub(fragment, text)
	}

	parsed, err := record.Decode(obj)
	if err != nil {
		p.logger.Warn("model payload failed schema validation, using salvaged stub",
			zap.Int64("raw_id", raw.ID),
			zap.Error(err),
		)
		return record.Stub(obj, text)
	}

	return parsed
}

func (p *Pipeline) fillSource(parsed *record.Parsed, raw record.Raw) {
	src := &parsed.Source
	if src.Platform == "" {
		src.Platform = sourcePlatform
	}
	if src.PostID == "" {
		src.PostID = raw.ExternalID
	}
	if src.AuthorID == "" {
		src.AuthorID = raw.Author
	}
	if src.PostedAt == "" {
		if ts := raw.PostedAt(); ts != nil {
			src.PostedAt = ts.UTC().Format(time.RFC3339)
		}
	}
}

// hinted appends the cheap currency/period hints to the prompt text so
// the model sees what the rules already know.
func hinted(text string) string {
	return fmt.Sprintf("%s\n\n[meta hints] currency≈%s, period≈%s",
		text, heuristics.CurrencyHint(text), heuristics.PeriodHint(text))
}
