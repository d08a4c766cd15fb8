package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptBlockRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagRe      = regexp.MustCompile(`<[^>]+>`)
	eventHandlerRe = regexp.MustCompile(`(?i)on\w+\s*=\s*"[^"]*"`)
	sqlKeywordRe   = regexp.MustCompile(`(?i)\b(DROP|TABLE|INSERT|DELETE|UPDATE|SELECT)\b`)

	quoteReplacer = strings.NewReplacer("'", "", ";", "")
)

// Sanitize neutralizes script/HTML injection and SQL metacharacters in
// untrusted text. Entities are decoded first so encoded payloads like
// &#x3C;script&#x3E; do not slip past the tag filters, and the result is
// re-encoded so any leftover special character renders inert.
//
// The keyword denylist is defense in depth, not a correctness guarantee:
// every query downstream still uses bound parameters.
func Sanitize(raw string) string {
	if raw == "" {
		return raw
	}

	out := html.UnescapeString(raw)

	// Script blocks go first, contents included. Stripping tags alone
	// would leave the script body behind as plain text.
	out = scriptBlockRe.ReplaceAllString(out, "")
	out = htmlTagRe.ReplaceAllString(out, "")

	// Covers malformed-tag edge cases the tag filter may have tolerated.
	out = eventHandlerRe.ReplaceAllString(out, "")

	// Quote breakout and statement chaining.
	out = quoteReplacer.Replace(out)
	out = sqlKeywordRe.ReplaceAllString(out, "")
	out = strings.ReplaceAll(out, "--", "")

	return html.EscapeString(out)
}
