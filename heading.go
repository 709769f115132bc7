package tracmigrate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// headingRe matches a line delimited by = runs at both ends. Run symmetry
// is checked in the handler; Go's regexp has no backreferences.
var headingRe = regexp.MustCompile(`^(=+)[ \t]*([^=]+?)[ \t]*(=+)[ \t]*$`)

// convertHeadings rewrites symmetric =-delimited heading lines. The two
// top levels render as setext underlines, deeper levels as atx prefixes.
// Lines with mismatched run lengths are not headings and stay untouched.
func (cv *conversion) convertHeadings(text string) (string, error) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := headingRe.FindStringSubmatch(line)
		if m == nil || len(m[1]) != len(m[3]) {
			continue
		}
		lines[i] = renderHeading(len(m[1]), m[2])
	}
	return strings.Join(lines, "\n"), nil
}

// renderHeading formats one heading at the given level. Underline length
// follows the title's rune count.
func renderHeading(level int, title string) string {
	switch level {
	case 1:
		return title + "\n" + strings.Repeat("=", utf8.RuneCountInString(title))
	case 2:
		return title + "\n" + strings.Repeat("-", utf8.RuneCountInString(title))
	default:
		return strings.Repeat("#", level) + " " + title
	}
}
