// Package canon maps free-form tokens onto controlled vocabularies and
// clamps enum fields to their allowed sets.
package canon

import (
	"math"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/spigell/geojobs/internal/record"
)

const (
	// SimilarityThreshold is the minimum weighted-ratio score (0..100) for
	// accepting the best vocabulary match instead of the original token.
	SimilarityThreshold = 80

	// MaxListLen caps every list-valued field before dedup.
	MaxListLen = 8
)

// employment and schedule tokens are mapped exactly, by lowercased lookup.
var employmentMap = map[string]string{
	"полная занятость": "full_time",
	"full time":        "full_time",
	"full-time":        "full_time",
	"частичная":        "part_time",
	"part time":        "part_time",
	"вахта":            "rotation",
	"ротация":          "rotation",
	"смена":            "shift",
	"контракт":         "contract",
	"стажировка":       "internship",
	"temporary":        "temporary",
}

var scheduleMap = map[string]string{
	"вахта":          "вахта",
	"ротация":        "вахта",
	"2/2":            "смена",
	"15/15":          "вахта",
	"30/30":          "вахта",
	"45/15":          "вахта",
	"60/30":          "вахта",
	"сменный график": "смена",
	"5/2":            "5/2",
	"удаленно":       "удаленно",
	"полевая":        "полевая",
	"гибкий":         "гибкий",
}

// EquipmentVocab and SkillsVocab are the approximate-match universes for
// hardware and software tags.
var (
	EquipmentVocab = []string{
		"GNSS", "GPS", "RTK", "Тахеометр", "Нивелир", "Дрон", "БПЛА",
		"Лазерный сканер", "ГИС", "QGIS", "Civil 3D", "Total Station",
	}
	SkillsVocab = []string{
		"AutoCAD", "Civil 3D", "Revit", "QGIS", "ArcGIS", "Topo", "CAD",
		"Python", "SQL", "Metashape", "Photogrammetry",
	}
)

var (
	allowedCurrencies = map[string]bool{
		"RUB": true, "KZT": true, "USD": true, "EUR": true, "OTHER": true, "unknown": true,
	}
	allowedPeriods = map[string]bool{
		"month": true, "day": true, "hour": true, "shift": true,
		"rotation": true, "project": true, "unknown": true,
	}
)

// Apply normalizes every list and enum field of the record in place and
// returns it. Applying it to an already-canonical record is a no-op.
func Apply(p *record.Parsed) *record.Parsed {
	p.Employment = mapExact(p.Employment, employmentMap)
	p.Schedule = mapExact(p.Schedule, scheduleMap)
	p.Equipment = List(p.Equipment, EquipmentVocab)
	p.Skills = List(p.Skills, SkillsVocab)

	if !allowedCurrencies[p.Salary.Currency] {
		p.Salary.Currency = "OTHER"
	}
	if !allowedPeriods[p.Salary.Period] {
		p.Salary.Period = "unknown"
	}

	p.Confidence = ClampConfidence(p.Confidence)

	return p
}

// List maps each value onto the nearest universe entry when its weighted
// ratio clears the threshold, keeping the original token otherwise. The
// result is capped at MaxListLen and deduplicated preserving first-seen
// order.
func List(values, universe []string) []string {
	if len(values) == 0 {
		return values
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if best, score := closest(v, universe); score >= SimilarityThreshold {
			out = append(out, best)
		} else {
			out = append(out, v)
		}
		if len(out) >= MaxListLen {
			break
		}
	}

	return dedup(out)
}

// ClampConfidence bounds the confidence score to [0,1]; non-finite input
// collapses to zero.
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return math.Max(0, math.Min(1, c))
}

func closest(value string, universe []string) (string, int) {
	best := ""
	bestScore := -1
	lower := strings.ToLower(value)
	for _, candidate := range universe {
		score := fuzzy.WRatio(lower, strings.ToLower(candidate))
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return best, bestScore
}

func mapExact(values []string, canonical map[string]string) []string {
	if len(values) == 0 {
		return values
	}

	mapped := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		lower := strings.ToLower(v)
		if canon, ok := canonical[lower]; ok {
			mapped = append(mapped, canon)
		} else {
			mapped = append(mapped, lower)
		}
		if len(mapped) >= MaxListLen {
			break
		}
	}

	return dedup(mapped)
}

func dedup(values []string) []string {
	seen := make(map[string]bool, len(values))
	uniq := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			uniq = append(uniq, v)
		}
	}
	return uniq
}
