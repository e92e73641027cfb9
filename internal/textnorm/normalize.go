// Package textnorm canonicalizes inbound message text before keyword
// matching. All lookups (pattern table, intent/entity resolver) run against
// the normalized form, never the raw text.
package textnorm

import (
	"strings"

	"golang.org/x/text/width"
)

// strippedPunctuation are the punctuation marks removed during
// normalization. Wave dashes are folded before this table applies.
var strippedPunctuation = map[rune]bool{
	'、': true, '。': true, '，': true, '．': true,
	',': true, '.': true, '!': true, '！': true,
	'?': true, '？': true, '・': true,
	'「': true, '」': true, '『': true, '』': true,
	'(': true, ')': true, '（': true, '）': true,
	// Halfwidth kana punctuation folds into stripped characters, so it
	// must be stripped before width folding to keep Normalize idempotent.
	'｡': true, '､': true, '｢': true, '｣': true, '･': true,
}

// Normalize canonicalizes raw message text: strips half- and full-width
// spaces, folds wave-dash variants, removes selected punctuation, folds
// full-width alphanumerics to half width, and lower-cases the result.
// It is deterministic and idempotent; empty input yields empty output.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '　':
			// Spaces never survive normalization
		case r == '〜' || r == '～':
			// WAVE DASH and FULLWIDTH TILDE fold to ASCII tilde
			b.WriteRune('~')
		case strippedPunctuation[r]:
		default:
			b.WriteRune(r)
		}
	}

	folded := width.Fold.String(b.String())
	return strings.ToLower(folded)
}

// maxHoursRunes caps normalized business-hours text before persistence.
const maxHoursRunes = 100

// NormalizeHours canonicalizes scraped business-hours text: folds dash and
// middle-dot variants, folds character widths, collapses whitespace, and
// truncates to 100 runes.
func NormalizeHours(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch r {
		case '―', '‐', '−', '–', '—', 'ー', '〜', '～':
			b.WriteRune('-')
		case '・', '･':
			b.WriteRune('·')
		default:
			b.WriteRune(r)
		}
	}

	folded := width.Fold.String(b.String())
	collapsed := strings.Join(strings.Fields(folded), " ")
	return TruncateRunes(collapsed, maxHoursRunes)
}

// TruncateRunes truncates s to at most n runes without splitting a rune.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
