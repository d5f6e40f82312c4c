// Package sanitize strips Telegram boilerplate from free text before
// extraction.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	forwardedRe = regexp.MustCompile(`(?im)^переслано от.*$`)
	hashtagRe   = regexp.MustCompile(`(?:^|\s)#[\wА-Яа-яЁё_]+`)
	urlRe       = regexp.MustCompile(`https?://\S+`)
	hspaceRe    = regexp.MustCompile(`[ \t]{2,}`)
	newlinesRe  = regexp.MustCompile(`\n{3,}`)
)

// Clean removes forwarded-from banners, hashtags and bare URLs, collapses
// runs of horizontal whitespace to one space and runs of 3+ newlines to
// exactly two, and trims the result. Clean is idempotent.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = forwardedRe.ReplaceAllString(text, "")
	text = hashtagRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	text = hspaceRe.ReplaceAllString(text, " ")
	text = newlinesRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
