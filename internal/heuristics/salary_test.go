package heuristics

import (
	"strconv"
	"testing"

	"github.com/spigell/geojobs/internal/record"
)

func TestExtractSalary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		min  *int
		max  *int
	}{
		{
			name: "range with spaces",
			text: "Зарплата 200 000 – 250 000 ₽ на руки",
			min:  ptr(200000),
			max:  ptr(250000),
		},
		{
			name: "range in thousands with suffix",
			text: "зп 200-250 тр",
			min:  ptr(200000),
			max:  ptr(250000),
		},
		{
			name: "reversed range is swapped",
			text: "оплата 250 000 – 200 000",
			min:  ptr(200000),
			max:  ptr(250000),
		},
		{
			name: "anchored single number sets min only",
			text: "зп 200к, подробности в лс",
			min:  ptr(200000),
			max:  nil,
		},
		{
			name: "anchored number in full",
			text: "зарплата 180 000 руб",
			min:  ptr(180000),
			max:  nil,
		},
		{
			name: "bare large number",
			text: "150000 на руки за месяц",
			min:  ptr(150000),
			max:  ptr(150000),
		},
		{
			name: "bare number with thousands suffix",
			text: "плачу 90к за сезон",
			min:  ptr(90000),
			max:  ptr(90000),
		},
		{
			name: "phone number is not a salary",
			text: "звоните +7 999 123-45-67",
		},
		{
			name: "rotation ratio is not a salary",
			text: "вахта 30/15, жилье есть",
		},
		{
			name: "implausibly small amount rejected",
			text: "бригада из 12 человек",
		},
		{
			name: "no numbers at all",
			text: "оплата достойная, обсудим",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := record.New()
			extractSalary(p, tt.text, Config{})

			if !intPtrEq(p.Salary.Min, tt.min) || !intPtrEq(p.Salary.Max, tt.max) {
				t.Fatalf("expected %s..%s, got %s..%s",
					fmtPtr(tt.min), fmtPtr(tt.max), fmtPtr(p.Salary.Min), fmtPtr(p.Salary.Max))
			}
		})
	}
}

func TestExtractSalaryKeepsModelValues(t *testing.T) {
	t.Parallel()

	p := record.New()
	p.Salary.Min = ptr(120000)

	extractSalary(p, "зп 200к", Config{})

	if *p.Salary.Min != 120000 {
		t.Fatalf("expected pre-set salary kept, got %d", *p.Salary.Min)
	}
}

func TestExtractSalarySwapsModelBounds(t *testing.T) {
	t.Parallel()

	p := record.New()
	p.Salary.Min = ptr(250000)
	p.Salary.Max = ptr(200000)

	extractSalary(p, "без цифр в тексте", Config{})

	if *p.Salary.Min != 200000 || *p.Salary.Max != 250000 {
		t.Fatalf("expected bounds swapped, got %d..%d", *p.Salary.Min, *p.Salary.Max)
	}
}

func TestCurrencyHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		expect string
	}{
		{"200 000 ₽", "RUB"},
		{"оплата в рублях", "RUB"},
		{"500 000 тенге", "KZT"},
		{"3000$ в месяц", "USD"},
		{"2500 eur", "EUR"},
		{"оплата сдельная", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expect+"/"+tt.text, func(t *testing.T) {
			t.Parallel()
			if got := CurrencyHint(tt.text); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestPeriodHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		expect string
	}{
		{"оплата 300000 в месяц", "month"},
		{"5000 в день", "day"},
		{"700 в час", "hour"},
		{"8000 за смену", "shift"},
		{"оплата за проект", "project"},
		{"вахтовым методом", "rotation"},
		{"оплата сдельная", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expect, func(t *testing.T) {
			t.Parallel()
			if got := PeriodHint(tt.text); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func intPtrEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtPtr(v *int) string {
	if v == nil {
		return "nil"
	}
	return strconv.Itoa(*v)
}
