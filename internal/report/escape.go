package report

import "strings"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// Escape replaces the five markup-sensitive characters. Everything else
// passes through unchanged.
func Escape(s string) string {
	return escaper.Replace(s)
}
