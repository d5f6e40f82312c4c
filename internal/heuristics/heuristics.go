// Package heuristics implements the rule-based field extractors that run
// over sanitized text. Every extractor is a pure function registered in a
// fixed-order list and obeys the fill-if-empty contract: a value already
// present on the record, whether produced by the model stage or by an
// earlier extractor, is never overwritten.
package heuristics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/geojobs/internal/record"
)

// Config tunes extractor behavior that is a deliberate choice rather than
// a pattern. DefaultRole is applied when neither seeker nor hiring markers
// match; the strict default is "unknown".
type Config struct {
	DefaultRole string
}

func (c Config) defaultRole() string {
	if c.DefaultRole == record.RoleEmployer {
		return record.RoleEmployer
	}
	return record.RoleUnknown
}

type step struct {
	name string
	fn   func(p *record.Parsed, text string, cfg Config)
}

// Extractors run in this order. The fill-if-empty contract makes every
// later step a supplement, never an override, so the order encodes which
// rule wins when two could fill the same field.
var steps = []step{
	{"role", extractRole},
	{"position", extractPosition},
	{"salary", extractSalary},
	{"rotation", extractRotation},
	{"location", extractLocation},
	{"equipment", extractEquipment},
	{"skills", extractSkills},
	{"experience", extractExperience},
	{"contacts", extractContacts},
}

// Enrich applies every registered extractor to the record in order.
func Enrich(p *record.Parsed, text string, cfg Config) *record.Parsed {
	for _, s := range steps {
		s.fn(p, text, cfg)
	}
	return p
}

// RE2 has no Unicode-aware \b, so Cyrillic marker vocabularies are matched
// as substrings, the same semantics the reference keyword tables use.
var (
	seekerRe = regexp.MustCompile(`(?i)#\s?(резюме|камеральщик)|ищу\s+(работу|подработк|удаленк)|рассмотрю предложения|предлагаю услуги|готов(а)?\s+выполнить|соискатель`)
	hiringRe = regexp.MustCompile(`(?i)#\s?(вакансия|работа)|вакансия|требуется|ищем|нужен|в компанию|открыт набор|примем`)

	positionRe = regexp.MustCompile(`(?i)инженер\s*пто|инженер[-\s]?геодезист|техник-?геодезист|геодезист(\s*камеральщик|\s*полевик)?|оператор\s*бпла|маркшейдер|камеральщик`)

	rotationWordRe  = regexp.MustCompile(`(?i)вахт|ротаци`)
	rotationRatioRe = regexp.MustCompile(`\b\d{1,2}\s*/\s*\d{1,2}\b`)

	experienceRe = regexp.MustCompile(`(?i)опыт[а-яё\s]*?(\d{1,2}(?:[.,]\d)?)\s*(?:лет|год)`)
)

// extractRole partitions keyword hits into seeker and hiring markers.
// Seeker markers win when both fire: an employer post with incidental
// seeker words is less likely than a resume quoting a job ad.
func extractRole(p *record.Parsed, text string, cfg Config) {
	if p.Role != "" && p.Role != record.RoleUnknown {
		return
	}

	switch {
	case seekerRe.MatchString(text):
		p.Role = record.RoleCandidate
	case hiringRe.MatchString(text):
		p.Role = record.RoleEmployer
	default:
		p.Role = cfg.defaultRole()
	}
}

func extractPosition(p *record.Parsed, text string, _ Config) {
	if p.Position != "" {
		return
	}
	if m := positionRe.FindString(text); m != "" {
		p.Position = titleCase(m)
	}
}

// extractRotation marks rotation-based postings: any вахта vocabulary or a
// D/D ratio token forces the generic schedule tag, the literal ratios and
// the rotation employment tag.
func extractRotation(p *record.Parsed, text string, _ Config) {
	if !rotationWordRe.MatchString(text) && !rotationRatioRe.MatchString(text) {
		return
	}

	if !contains(p.Employment, "rotation") {
		p.Employment = append(p.Employment, "rotation")
	}
	if !contains(p.Schedule, "вахта") {
		p.Schedule = append(p.Schedule, "вахта")
	}
	for _, ratio := range rotationRatioRe.FindAllString(text, -1) {
		ratio = strings.ReplaceAll(ratio, " ", "")
		if !contains(p.Schedule, ratio) {
			p.Schedule = append(p.Schedule, ratio)
		}
	}
}

// equipmentTags and skillTags are deliberately coarse keyword tables, a
// last resort applied only when the corresponding field is still empty.
var equipmentTags = []struct {
	re  *regexp.Regexp
	tag string
}{
	{regexp.MustCompile(`(?i)\bgnss\b|гнсс`), "GNSS"},
	{regexp.MustCompile(`(?i)\bgps\b`), "GPS"},
	{regexp.MustCompile(`(?i)\brtk\b`), "RTK"},
	{regexp.MustCompile(`(?i)тахеометр|теодолит`), "Тахеометр"},
	{regexp.MustCompile(`(?i)нивелир`), "Нивелир"},
	{regexp.MustCompile(`(?i)бпла|дрон`), "БПЛА"},
	{regexp.MustCompile(`(?i)сканер`), "Лазерный сканер"},
}

var skillTags = []struct {
	re  *regexp.Regexp
	tag string
}{
	{regexp.MustCompile(`(?i)\bautocad\b`), "AutoCAD"},
	{regexp.MustCompile(`(?i)\bcivil\s*3d\b`), "Civil 3D"},
	{regexp.MustCompile(`(?i)\bqgis\b`), "QGIS"},
	{regexp.MustCompile(`(?i)\barcgis\b`), "ArcGIS"},
	{regexp.MustCompile(`(?i)\bmetashape\b`), "Metashape"},
	{regexp.MustCompile(`(?i)\brevit\b|ревит`), "Revit"},
	{regexp.MustCompile(`(?i)кредо|credo`), "CAD"},
	{regexp.MustCompile(`(?i)камеральн|камеральк`), "Topo"},
}

func extractEquipment(p *record.Parsed, text string, _ Config) {
	if len(p.Equipment) > 0 {
		return
	}
	for _, t := range equipmentTags {
		if t.re.MatchString(text) && !contains(p.Equipment, t.tag) {
			p.Equipment = append(p.Equipment, t.tag)
		}
	}
}

func extractSkills(p *record.Parsed, text string, _ Config) {
	if len(p.Skills) > 0 {
		return
	}
	for _, t := range skillTags {
		if t.re.MatchString(text) && !contains(p.Skills, t.tag) {
			p.Skills = append(p.Skills, t.tag)
		}
	}
}

func extractExperience(p *record.Parsed, text string, _ Config) {
	if p.ExperienceYears != nil {
		return
	}
	m := experienceRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	years, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || years < 0 {
		return
	}
	p.ExperienceYears = &years
}

func titleCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
