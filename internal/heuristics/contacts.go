package heuristics

import (
	"regexp"
	"strings"

	"github.com/spigell/geojobs/internal/record"
)

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	telegramRe = regexp.MustCompile(`(?:^|[\s,;:(])(?:@|t\.me/)([A-Za-z0-9_]{4,})`)
	whatsappRe = regexp.MustCompile(`wa\.me/(\+?\d{10,13})`)
)

// extractContacts fills the contact channels from syntactic shape alone.
// First match wins per channel; nothing is validated beyond the pattern.
func extractContacts(p *record.Parsed, text string, _ Config) {
	ApplyContacts(&p.Contact, text)
}

// ApplyContacts is the contact matcher shared with the orchestrator's
// final safety net; it only fills channels that are still empty.
func ApplyContacts(c *record.Contact, text string) {
	if c.Phone == "" {
		for _, loc := range phoneRe.FindAllStringIndex(text, -1) {
			candidate := strings.TrimRight(text[loc[0]:loc[1]], " .-()")
			if d := countDigits(candidate); d >= 10 && d <= 13 {
				c.Phone = candidate
				break
			}
		}
	}

	if c.Email == "" {
		c.Email = emailRe.FindString(text)
	}

	if c.Telegram == "" {
		if m := telegramRe.FindStringSubmatch(text); m != nil {
			c.Telegram = "@" + m[1]
		}
	}

	if c.Whatsapp == "" {
		if m := whatsappRe.FindStringSubmatch(text); m != nil {
			c.Whatsapp = m[1]
		}
	}
}
