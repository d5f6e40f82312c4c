// Package record defines the raw input rows and the canonical parsed schema
// produced by the extraction pipeline.
package record

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Role values a parsed record may carry.
const (
	RoleEmployer  = "employer"
	RoleCandidate = "candidate"
	RoleUnknown   = "unknown"
)

// Raw is an unprocessed source row. It is never mutated; its ID is the
// stable identity used for the idempotent upsert of the parsed result.
type Raw struct {
	ID          int64
	SourceID    *int64
	ExternalID  string
	Author      string
	Text        string
	PublishedAt *time.Time
	FetchedAt   *time.Time
}

// PostedAt returns the effective posting time: published when known,
// otherwise fetched.
func (r *Raw) PostedAt() *time.Time {
	if r.PublishedAt != nil {
		return r.PublishedAt
	}
	return r.FetchedAt
}

type Salary struct {
	Min      *int   `json:"min" mapstructure:"min"`
	Max      *int   `json:"max" mapstructure:"max"`
	Currency string `json:"currency" mapstructure:"currency"`
	Period   string `json:"period" mapstructure:"period"`
}

type City struct {
	City    string `json:"city" mapstructure:"city"`
	Region  string `json:"region" mapstructure:"region"`
	Country string `json:"country" mapstructure:"country"`
}

type Contact struct {
	Name     string `json:"name" mapstructure:"name"`
	Phone    string `json:"phone" mapstructure:"phone"`
	Email    string `json:"email" mapstructure:"email"`
	Telegram string `json:"telegram" mapstructure:"telegram"`
	Whatsapp string `json:"whatsapp" mapstructure:"whatsapp"`
	Link     string `json:"link" mapstructure:"link"`
}

// Empty reports whether no contact channel is set.
func (c *Contact) Empty() bool {
	return c.Phone == "" && c.Email == "" && c.Telegram == ""
}

type Source struct {
	Platform string `json:"platform" mapstructure:"platform"`
	PostID   string `json:"post_id" mapstructure:"post_id"`
	AuthorID string `json:"author_id" mapstructure:"author_id"`
	PostedAt string `json:"posted_at" mapstructure:"posted_at"`
}

// Parsed is the canonical structured extraction result.
type Parsed struct {
	Role            string   `json:"role" mapstructure:"role"`
	Position        string   `json:"position" mapstructure:"position"`
	Salary          Salary   `json:"salary" mapstructure:"salary"`
	Employment      []string `json:"employment" mapstructure:"employment"`
	Schedule        []string `json:"schedule" mapstructure:"schedule"`
	Equipment       []string `json:"equipment" mapstructure:"equipment"`
	Skills          []string `json:"skills" mapstructure:"skills"`
	ExperienceYears *float64 `json:"experience_years" mapstructure:"experience_years"`
	City            City     `json:"city" mapstructure:"city"`
	Contact         Contact  `json:"contact" mapstructure:"contact"`
	Source          Source   `json:"source" mapstructure:"source"`
	TextClean       string   `json:"text_clean" mapstructure:"text_clean"`
	Confidence      float64  `json:"confidence" mapstructure:"confidence"`
	Errors          []string `json:"errors" mapstructure:"errors"`
}

// New returns an empty skeleton with the role marked unknown.
func New() *Parsed {
	return &Parsed{
		Role:   RoleUnknown,
		Salary: Salary{Currency: "unknown", Period: "unknown"},
	}
}

// Decode maps a loosely-typed JSON object produced by a model backend onto
// the parsed schema. Decoding is weakly typed (numbers arrive as float64 or
// quoted strings depending on the model) and tolerant of unknown keys.
// On error the returned record still carries every field that did decode,
// so callers can salvage a partial result.
func Decode(obj map[string]any) (*Parsed, error) {
	p := New()
	if obj == nil {
		return p, fmt.Errorf("empty model payload")
	}

	cfg := &mapstructure.DecoderConfig{
		Result:           p,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return p, err
	}

	if err := decoder.Decode(obj); err != nil {
		return p, fmt.Errorf("model payload does not match schema: %w", err)
	}

	if p.Role == "" {
		p.Role = RoleUnknown
	}

	return p, nil
}

// Stub builds the degraded fallback record from whatever fragment of the
// model payload survived, marking it with the fallback error and reduced
// confidence. fragment may be nil.
func Stub(fragment map[string]any, textClean string) *Parsed {
	p, _ := Decode(fragment)
	p.TextClean = textClean
	p.Confidence = 0.3
	p.Errors = append(p.Errors, "fallback")
	return p
}

var whitespace = strings.NewReplacer("\n", " ", "\t", " ")

// DedupHash derives the content identity of a parsed posting from its
// normalized description, author and effective posting time. Reprocessing
// the same raw row therefore produces the same hash.
func DedupHash(description, author string, postedAt *time.Time) string {
	ts := ""
	if postedAt != nil {
		ts = postedAt.UTC().Format(time.RFC3339)
	}
	src := fmt.Sprintf("%s|%s|%s", strings.TrimSpace(whitespace.Replace(description)), author, ts)
	return fmt.Sprintf("%x", sha1.Sum([]byte(src)))
}
