// Package sanitize is the boundary filter for user supplied text: untrusted
// text in, HTML/script-safe text out. Directional override characters are
// stripped as well so message text can't visually reorder surrounding UI.
package sanitize

import (
	"html"
	"strings"
)

func isBidiControl(r rune) bool {
	switch r {
	case '‪', '‫', '‬', '‭', '‮',
		'⁦', '⁧', '⁨', '⁩',
		'‎', '‏':
		return true
	}
	return false
}

func Text(input string) string {
	stripped := strings.Map(func(r rune) rune {
		if isBidiControl(r) {
			return -1
		}
		return r
	}, input)

	return html.EscapeString(stripped)
}
