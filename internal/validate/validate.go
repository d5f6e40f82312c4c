// Package validate applies the deterministic repair rules that run on
// every record after extraction, before the optional model reconcile.
package validate

import (
	"regexp"
	"strings"

	"github.com/spigell/geojobs/internal/heuristics"
	"github.com/spigell/geojobs/internal/record"
)

type geo struct {
	region  string
	country string
}

// cityIndex maps recognized cities to their region and country. Lookups
// fill only fields that are still empty.
var cityIndex = map[string]geo{
	"москва":          {"Москва", "Россия"},
	"санкт-петербург": {"Санкт-Петербург", "Россия"},
	"белокаменка":     {"Мурманская область", "Россия"},
	"мурманск":        {"Мурманская область", "Россия"},
	"новый уренгой":   {"Ямало-Ненецкий АО", "Россия"},
	"тюмень":          {"Тюменская область", "Россия"},
	"сургут":          {"Ханты-Мансийский АО", "Россия"},
	"астрахань":       {"Астраханская область", "Россия"},
	"шерегеш":         {"Кемеровская область", "Россия"},
}

var ratioRe = regexp.MustCompile(`\b\d{1,2}\s*/\s*\d{1,2}\b`)

// Repair runs the rule-based second pass in fixed order: geography
// imputation, schedule imputation, salary repair. It mutates and returns
// the record.
func Repair(p *record.Parsed, text string) *record.Parsed {
	repairGeo(p)
	repairSchedule(p, text)
	repairSalary(p, text)
	return p
}

func repairGeo(p *record.Parsed) {
	city := strings.ToLower(strings.TrimSpace(p.City.City))
	if hit, ok := cityIndex[city]; ok {
		if p.City.Region == "" {
			p.City.Region = hit.region
		}
		if p.City.Country == "" {
			p.City.Country = hit.country
		}
	}

	if p.City.City != "" && p.City.Country == "" {
		p.City.Country = heuristics.DomesticCountry
	}
}

func repairSchedule(p *record.Parsed, text string) {
	if !ratioRe.MatchString(text) {
		return
	}

	if !contains(p.Schedule, "вахта") {
		p.Schedule = append(p.Schedule, "вахта")
	}
	if !contains(p.Employment, "rotation") {
		p.Employment = append(p.Employment, "rotation")
	}
}

func repairSalary(p *record.Parsed, text string) {
	if p.Salary.Currency == "" || p.Salary.Currency == "unknown" {
		p.Salary.Currency = heuristics.CurrencyHint(text)
	}
	if p.Salary.Period == "" || p.Salary.Period == "unknown" {
		p.Salary.Period = heuristics.PeriodHint(text)
	}
	if p.Salary.Min != nil && p.Salary.Max != nil && *p.Salary.Min > *p.Salary.Max {
		p.Salary.Min, p.Salary.Max = p.Salary.Max, p.Salary.Min
	}
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
