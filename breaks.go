package tracmigrate

import (
	"regexp"
	"strings"
)

// breakRe matches the explicit line-break markers: a double backslash or
// the [[br]] macro in either case.
var breakRe = regexp.MustCompile(`\\{2}|\[{2}[bB][rR]\]{2}`)

// convertBreaks rewrites explicit line-break markers to a paragraph break.
// A marker preceded by the ! escape stays exactly as written.
func (cv *conversion) convertBreaks(text string) (string, error) {
	indexes := breakRe.FindAllStringIndex(text, -1)
	if len(indexes) == 0 {
		return text, nil
	}

	var b strings.Builder
	pos := 0
	for _, m := range indexes {
		start, end := m[0], m[1]
		if start < pos {
			continue
		}
		if start > 0 && text[start-1] == '!' {
			continue
		}
		b.WriteString(text[pos:start])
		b.WriteString("\n\n")
		pos = end
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}
