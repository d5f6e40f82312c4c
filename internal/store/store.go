// Package store is the Postgres adapter for raw rows and parsed jobs. The
// read path yields only raw rows that have no parsed counterpart yet, and
// the write path is an idempotent upsert keyed by the raw row id, so
// reprocessing overwrites instead of duplicating.
package store

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spigell/geojobs/internal/record"
)

const (
	upsertAttempts = 5
	backoffInitial = time.Second
	backoffMax     = 8 * time.Second

	maxFieldLen       = 255
	maxTagsLen        = 512
	maxDescriptionLen = 40000
)

type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func New(ctx context.Context, databaseURL string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// FetchUnparsed returns up to limit raw rows lacking a parsed job, oldest
// publication first. Rows with empty text never surface: the pipeline
// would skip them forever.
func (s *Store) FetchUnparsed(ctx context.Context, limit int) ([]record.Raw, error) {
	rows, err := s.pool.Query(ctx, `
		select ri.id, ri.source_id, ri.external_id, coalesce(ri.author, ''),
		       ri.text_raw, ri.published_at, ri.fetched_at
		from raw_items ri
		left join jobs j on j.raw_item_id = ri.id
		where j.id is null
		  and coalesce(ri.text_raw, '') <> ''
		order by ri.published_at asc nulls last, ri.fetched_at asc
		limit $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unparsed rows: %w", err)
	}
	defer rows.Close()

	var batch []record.Raw
	for rows.Next() {
		var r record.Raw
		if err := rows.Scan(&r.ID, &r.SourceID, &r.ExternalID, &r.Author, &r.Text, &r.PublishedAt, &r.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan raw row: %w", err)
		}
		batch = append(batch, r)
	}

	return batch, rows.Err()
}

// UpsertParsed persists the parsed record keyed by the raw row identity,
// with bounded exponential backoff and jitter on transient failures.
func (s *Store) UpsertParsed(ctx context.Context, raw record.Raw, p *record.Parsed) error {
	var lastErr error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return err
			}
		}

		if lastErr = s.upsert(ctx, raw, p); lastErr == nil {
			return nil
		}

		s.logger.Warn("upsert failed, retrying",
			zap.Int64("raw_id", raw.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}

	return fmt.Errorf("upsert after %d attempts: %w", upsertAttempts, lastErr)
}

func (s *Store) upsert(ctx context.Context, raw record.Raw, p *record.Parsed) error {
	description := clampStr(p.TextClean, maxDescriptionLen)
	postedAt := raw.PostedAt()

	roleTitle := p.Position
	if roleTitle == "" {
		roleTitle = p.Role
	}

	var isEmployer *bool
	switch p.Role {
	case record.RoleEmployer:
		isEmployer = ptr(true)
	case record.RoleCandidate:
		isEmployer = ptr(false)
	}

	_, err := s.pool.Exec(ctx, `
		insert into jobs
			(source_id, raw_item_id, role, is_employer, description,
			 contact_telegram, contact_phone, contact_email,
			 salary_min, salary_max, salary_currency, salary_period,
			 employment_type, schedule_type,
			 city, region, country,
			 equipment, software, experience,
			 confidence, dedup_hash, posted_at)
		values
			($1, $2, $3, $4, $5,
			 $6, $7, $8,
			 $9, $10, $11, $12,
			 $13, $14,
			 $15, $16, $17,
			 $18, $19, $20,
			 $21, $22, $23)
		on conflict (raw_item_id) do update set
			role = excluded.role,
			is_employer = excluded.is_employer,
			description = excluded.description,
			contact_telegram = excluded.contact_telegram,
			contact_phone = excluded.contact_phone,
			contact_email = excluded.contact_email,
			salary_min = excluded.salary_min,
			salary_max = excluded.salary_max,
			salary_currency = excluded.salary_currency,
			salary_period = excluded.salary_period,
			employment_type = excluded.employment_type,
			schedule_type = excluded.schedule_type,
			city = excluded.city,
			region = excluded.region,
			country = excluded.country,
			equipment = excluded.equipment,
			software = excluded.software,
			experience = excluded.experience,
			confidence = excluded.confidence,
			dedup_hash = excluded.dedup_hash,
			posted_at = excluded.posted_at
	`,
		raw.SourceID, raw.ID,
		clampStr(roleTitle, maxFieldLen), isEmployer, description,
		nullable(clampStr(p.Contact.Telegram, maxFieldLen)),
		nullable(clampStr(p.Contact.Phone, maxFieldLen)),
		nullable(clampStr(p.Contact.Email, maxFieldLen)),
		p.Salary.Min, p.Salary.Max,
		clampStr(p.Salary.Currency, 16), clampStr(p.Salary.Period, 16),
		nullable(clampStr(joinTags(p.Employment), maxFieldLen)),
		nullable(clampStr(joinTags(p.Schedule), maxFieldLen)),
		nullable(clampStr(p.City.City, maxFieldLen)),
		nullable(clampStr(p.City.Region, maxFieldLen)),
		nullable(clampStr(p.City.Country, maxFieldLen)),
		nullable(clampStr(joinTags(p.Equipment), maxTagsLen)),
		nullable(clampStr(joinTags(p.Skills), maxTagsLen)),
		finiteFloat(p.ExperienceYears),
		p.Confidence,
		record.DedupHash(description, raw.Author, postedAt),
		postedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert job for raw_item %d: %w", raw.ID, err)
	}

	return nil
}

func sleepBackoff(ctx context.Context, attempt int) error {
	backoff := backoffInitial * time.Duration(1<<(attempt-1))
	if backoff > backoffMax {
		backoff = backoffMax
	}
	// jitter prevents concurrent tasks from retrying in lockstep
	backoff += time.Duration(rand.Int64N(int64(backoff) / 2))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}

func clampStr(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}

// joinTags flattens a tag list to the comma-separated column format.
func joinTags(tags []string) string {
	kept := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, ", ")
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func finiteFloat(f *float64) *float64 {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return nil
	}
	return f
}

func ptr[T any](v T) *T { return &v }
