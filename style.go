package tracmigrate

import (
	"regexp"
	"strings"
)

// quoteRunRe finds runs of two or more single quotes.
var quoteRunRe = regexp.MustCompile(`'{2,}`)

// styleMarkers maps a quote-run length to its Markdown wrapper. A run of
// five is double emphasis with single emphasis nested inside. Lengths
// outside the map (4, 6 and up) are not defined by the source markup and
// pass through untouched.
var styleMarkers = map[int]string{
	2: "*",   // italic
	3: "**",  // bold
	5: "***", // bold italic
}

// convertStyles pairs each recognized quote run with the next run of
// exactly the same length and wraps the minimal span between them.
// Backslash-escaped runs and runs without a same-length partner stay
// literal.
func (cv *conversion) convertStyles(text string) (string, error) {
	runs := quoteRunRe.FindAllStringIndex(text, -1)
	if len(runs) == 0 {
		return text, nil
	}

	var b strings.Builder
	pos := 0
	for i := 0; i < len(runs); i++ {
		start, end := runs[i][0], runs[i][1]
		marker, ok := styleMarkers[end-start]
		if !ok || (start > 0 && text[start-1] == '\\') {
			continue
		}

		closing := -1
		for j := i + 1; j < len(runs); j++ {
			if runs[j][1]-runs[j][0] == end-start {
				closing = j
				break
			}
		}
		if closing < 0 {
			continue
		}

		b.WriteString(text[pos:start])
		b.WriteString(marker)
		b.WriteString(text[end:runs[closing][0]])
		b.WriteString(marker)
		pos = runs[closing][1]
		i = closing
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}
