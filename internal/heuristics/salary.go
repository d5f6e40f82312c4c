package heuristics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/geojobs/internal/record"
)

// Plausible salary band in the base currency. Values outside it are treated
// as false positives. Both thresholds are tunable, not load-bearing.
const (
	minPlausibleSalary = 15_000
	maxPlausibleSalary = 5_000_000
)

var (
	// Search order matters: a range beats a keyword-anchored single number
	// beats a bare large number.
	salaryRangeRe    = regexp.MustCompile(`(?i)(\d[\d\s]{0,9})\s*[–—-]\s*(\d[\d\s]{0,9})\s*(к|k|тыс|т\.?р|тр)?`)
	salaryAnchoredRe = regexp.MustCompile(`(?i)(?:з[п/:]|з/п|зарплата|оплата|доход|от)\s*[:=~-]?\s*(\d[\d\s]{1,9})\s*(к|k|тыс|т\.?р|тр)?`)
	salaryBareRe     = regexp.MustCompile(`(?i)(\d[\d\s]{1,9})\s*(к|k|тыс|т\.?р|тр)?`)

	phoneRe = regexp.MustCompile(`\+?\d[\d\s\-.()]{7,}`)

	currencyHints = []struct {
		token    string
		currency string
	}{
		{"₽", "RUB"}, {"руб", "RUB"}, {"т.р", "RUB"}, {"тыс", "RUB"},
		{"₸", "KZT"}, {"тенге", "KZT"}, {"kzt", "KZT"},
		{"$", "USD"}, {"usd", "USD"}, {"дол", "USD"},
		{"€", "EUR"}, {"eur", "EUR"},
	}

	// RE2 word boundaries are ASCII-only, so the Cyrillic tokens below are
	// matched as substrings the way the reference vocabulary tables do.
	periodMonthRe    = regexp.MustCompile(`(?i)в\s*мес(яц)?|месяц|/мес`)
	periodDayRe      = regexp.MustCompile(`(?i)в\s*день|/д(?:[^a-zа-яё]|$)|сутки|сут\.`)
	periodHourRe     = regexp.MustCompile(`(?i)в\s*час|/ч(?:[^a-zа-яё]|$)`)
	periodShiftRe    = regexp.MustCompile(`(?i)смена|за\s*смену|/смен`)
	periodProjectRe  = regexp.MustCompile(`(?i)за\s*проект`)
	periodRotationRe = regexp.MustCompile(`(?i)вахт|ротаци`)
)

// CurrencyHint returns the currency implied by symbol or word hints in the
// text, or "unknown" when nothing fires. It never guesses a default.
func CurrencyHint(text string) string {
	lower := strings.ToLower(text)
	for _, h := range currencyHints {
		if strings.Contains(lower, h.token) {
			return h.currency
		}
	}
	return "unknown"
}

// PeriodHint returns the salary period implied by keyword hints, or
// "unknown".
func PeriodHint(text string) string {
	switch {
	case periodMonthRe.MatchString(text):
		return "month"
	case periodDayRe.MatchString(text):
		return "day"
	case periodHourRe.MatchString(text):
		return "hour"
	case periodShiftRe.MatchString(text):
		return "shift"
	case periodProjectRe.MatchString(text):
		return "project"
	case periodRotationRe.MatchString(text):
		return "rotation"
	}
	return "unknown"
}

type span struct{ start, end int }

// phoneSpans returns the spans of phone-number-shaped sequences: loose
// digit-and-separator runs carrying 10 to 13 digits. Salary candidates
// overlapping one of them are rejected, since salaries and phone numbers
// share a numeric-token shape.
func phoneSpans(text string) []span {
	var spans []span
	for _, loc := range phoneRe.FindAllStringIndex(text, -1) {
		digits := countDigits(text[loc[0]:loc[1]])
		if digits >= 10 && digits <= 13 {
			spans = append(spans, span{loc[0], loc[1]})
		}
	}
	return spans
}

func overlaps(s span, spans []span) bool {
	for _, ph := range spans {
		if s.start < ph.end && ph.start < s.end {
			return true
		}
	}
	return false
}

// extractSalary fills the salary bounds from the first plausible numeric
// match, trying a range pattern, then a keyword-anchored number, then a
// bare number. Currency and period are inferred independently of the
// amount.
func extractSalary(p *record.Parsed, text string, _ Config) {
	if p.Salary.Min == nil && p.Salary.Max == nil {
		phones := phoneSpans(text)

		if min, max, ok := findRange(text, phones); ok {
			p.Salary.Min, p.Salary.Max = &min, &max
		} else if v, ok := findSingle(salaryAnchoredRe, text, phones, false); ok {
			p.Salary.Min, p.Salary.Max = &v, nil
		} else if v, ok := findSingle(salaryBareRe, text, phones, true); ok {
			p.Salary.Min, p.Salary.Max = &v, &v
		}
	}

	if p.Salary.Min != nil && p.Salary.Max != nil && *p.Salary.Min > *p.Salary.Max {
		p.Salary.Min, p.Salary.Max = p.Salary.Max, p.Salary.Min
	}

	if p.Salary.Currency == "" || p.Salary.Currency == "unknown" {
		p.Salary.Currency = CurrencyHint(text)
	}
	if p.Salary.Period == "" || p.Salary.Period == "unknown" {
		p.Salary.Period = PeriodHint(text)
	}
}

func findRange(text string, phones []span) (int, int, bool) {
	for _, loc := range salaryRangeRe.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(span{loc[0], loc[1]}, phones) {
			continue
		}

		suffix := submatch(text, loc, 3)
		min, okMin := parseAmount(submatch(text, loc, 1), suffix)
		max, okMax := parseAmount(submatch(text, loc, 2), suffix)
		if !okMin || !okMax {
			continue
		}
		if min > max {
			min, max = max, min
		}
		return min, max, true
	}
	return 0, 0, false
}

// findSingle scans matches in order and returns the first plausible one.
// With bare set, a match must carry a thousands suffix or at least five
// digits; otherwise rotation ratios and day counts would read as salaries.
func findSingle(re *regexp.Regexp, text string, phones []span, bare bool) (int, bool) {
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(span{loc[0], loc[1]}, phones) {
			continue
		}
		numeric, suffix := submatch(text, loc, 1), submatch(text, loc, 2)
		if bare && suffix == "" && countDigits(numeric) < 5 {
			continue
		}
		if v, ok := parseAmount(numeric, suffix); ok {
			return v, true
		}
	}
	return 0, false
}

// parseAmount converts a digit group to an absolute amount. Thousand
// suffixes multiply by 1000; so does a bare number under 1000, which is
// assumed to be stated in thousands. Amounts outside the plausible band
// are discarded.
func parseAmount(numeric, suffix string) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, numeric)
	if digits == "" {
		return 0, false
	}

	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}

	if suffix != "" || v < 1000 {
		v *= 1000
	}

	if v < minPlausibleSalary || v > maxPlausibleSalary {
		return 0, false
	}

	return v, true
}

func submatch(text string, loc []int, n int) string {
	if 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}
	return text[loc[2*n]:loc[2*n+1]]
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
