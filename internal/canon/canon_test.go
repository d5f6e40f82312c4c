package canon

import (
	"math"
	"reflect"
	"testing"

	"github.com/spigell/geojobs/internal/record"
)

func TestList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		values   []string
		universe []string
		expect   []string
	}{
		{
			name:     "empty input",
			values:   nil,
			universe: SkillsVocab,
			expect:   nil,
		},
		{
			name:     "case-insensitive exact match maps to vocabulary form",
			values:   []string{"qgis", "autocad"},
			universe: SkillsVocab,
			expect:   []string{"QGIS", "AutoCAD"},
		},
		{
			name:     "near match above threshold maps",
			values:   []string{"autocadd"},
			universe: SkillsVocab,
			expect:   []string{"AutoCAD"},
		},
		{
			name:     "below threshold keeps original token",
			values:   []string{"экскаватор"},
			universe: SkillsVocab,
			expect:   []string{"экскаватор"},
		},
		{
			name:     "blank entries are dropped",
			values:   []string{" ", "qgis", ""},
			universe: SkillsVocab,
			expect:   []string{"QGIS"},
		},
		{
			name:     "duplicates collapse preserving first-seen order",
			values:   []string{"qgis", "QGIS", "autocad"},
			universe: SkillsVocab,
			expect:   []string{"QGIS", "AutoCAD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := List(tt.values, tt.universe); !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestListCap(t *testing.T) {
	t.Parallel()

	values := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10"}
	got := List(values, nil)

	if len(got) != MaxListLen {
		t.Fatalf("expected list capped at %d, got %d entries: %v", MaxListLen, len(got), got)
	}
	if got[0] != "a1" || got[MaxListLen-1] != "a8" {
		t.Fatalf("expected first-seen order kept under the cap, got %v", got)
	}
}

func TestClampConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  float64
		expect float64
	}{
		{"in range", 0.7, 0.7},
		{"above one", 2.5, 1},
		{"negative", -0.3, 0},
		{"nan", math.NaN(), 0},
		{"positive infinity", math.Inf(1), 0},
		{"negative infinity", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClampConfidence(tt.input); got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	p := record.New()
	p.Employment = []string{"Вахта", "полная занятость"}
	p.Schedule = []string{"ротация", "2/2"}
	p.Skills = []string{"autocad"}
	p.Salary.Currency = "руб"
	p.Salary.Period = "в месяц"
	p.Confidence = 1.8

	Apply(p)

	if !reflect.DeepEqual(p.Employment, []string{"rotation", "full_time"}) {
		t.Fatalf("unexpected employment: %v", p.Employment)
	}
	if !reflect.DeepEqual(p.Schedule, []string{"вахта", "смена"}) {
		t.Fatalf("unexpected schedule: %v", p.Schedule)
	}
	if !reflect.DeepEqual(p.Skills, []string{"AutoCAD"}) {
		t.Fatalf("unexpected skills: %v", p.Skills)
	}
	if p.Salary.Currency != "OTHER" {
		t.Fatalf("expected unrecognized currency clamped to OTHER, got %q", p.Salary.Currency)
	}
	if p.Salary.Period != "unknown" {
		t.Fatalf("expected unrecognized period clamped to unknown, got %q", p.Salary.Period)
	}
	if p.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1, got %v", p.Confidence)
	}
}

func TestApplyIsFixedPoint(t *testing.T) {
	t.Parallel()

	p := record.New()
	p.Employment = []string{"вахта"}
	p.Schedule = []string{"15/15"}
	p.Skills = []string{"QGIS"}
	p.Salary.Currency = "RUB"
	p.Salary.Period = "month"
	p.Confidence = 0.9

	once := *Apply(p)
	twice := *Apply(p)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("expected canonical record to be a fixed point, first %+v then %+v", once, twice)
	}
}
