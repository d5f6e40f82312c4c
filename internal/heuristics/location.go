package heuristics

import (
	"regexp"
	"strings"

	"github.com/spigell/geojobs/internal/record"
)

// DomesticCountry is the default country filled in whenever a Russian
// city or region signal fires and the field is still empty.
const DomesticCountry = "Россия"

var (
	// The gazetteer covers the regions and settlements this corpus talks
	// about. City-level tokens fill city; everything else fills region.
	gazetteerRe = regexp.MustCompile(`(?i)астраханск(ая|ой) область|камчатка|мурманск(ая|ой) обл[а-яё.]*|московск(ая|ой) область|ямало-ненецкий ао|кемеровск(ая|ой) область|белокаменка|новый\s+уренгой|москва|санкт-петербург|шерегеш|тюмень|мурманск|сургут|пермь|казань|новосибирск|астрахань|бийск|коломна|троицк|с[её]ргиев\s+посад|щербинка`)

	cityOnlyRe = regexp.MustCompile(`(?i)белокаменка|новый\s+уренгой|москва|санкт-петербург|шерегеш|тюмень|мурманск|сургут|пермь|казань|новосибирск|астрахань|бийск|коломна|троицк|с[её]ргиев\s+посад|щербинка`)

	cityPrefixRe = regexp.MustCompile(`(?:г\.|город |в\s+городе )\s*([А-ЯЁ][А-Яа-яЁё-]+(?:\s[А-ЯЁ][А-Яа-яЁё-]+)?)`)
)

// extractLocation matches the gazetteer; a city-level token fills city,
// anything else fills region. Country defaults to the domestic value
// whenever a Russian location signal fires.
func extractLocation(p *record.Parsed, text string, _ Config) {
	if p.City.City == "" && p.City.Region == "" {
		hits := gazetteerRe.FindAllString(text, -1)

		for _, hit := range hits {
			// a city token must cover the whole hit; "мурманск" inside
			// "мурманская область" is a region signal, not a city
			if m := cityOnlyRe.FindString(hit); len(m) == len(hit) {
				p.City.City = titleWords(hit)
				break
			}
		}
		if p.City.City == "" && len(hits) > 0 {
			p.City.Region = titleWords(hits[0])
		}

		if p.City.City == "" && p.City.Region == "" {
			if m := cityPrefixRe.FindStringSubmatch(text); m != nil {
				p.City.City = titleWords(m[1])
			}
		}
	}

	if (p.City.City != "" || p.City.Region != "") && p.City.Country == "" {
		p.City.Country = DomesticCountry
	}
}

func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		runes := []rune(w)
		words[i] = strings.ToUpper(string(runes[0])) + string(runes[1:])
	}
	return strings.Join(words, " ")
}
