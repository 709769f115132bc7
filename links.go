package tracmigrate

import (
	"regexp"
	"strings"
)

// linkKind enumerates the typed link namespaces Trac defines. Untyped
// links default to the wiki namespace.
type linkKind string

const (
	linkWiki      linkKind = "wiki"
	linkTicket    linkKind = "ticket"
	linkReport    linkKind = "report"
	linkChangeset linkKind = "changeset"
	linkSource    linkKind = "source"
)

// Precompiled patterns for the link pass.
var (
	// [target], [[target]], [target label], [target|label] and the macro
	// form [[Macro(argument)]], with either label separator.
	markedLinkRe = regexp.MustCompile(`\[{1,2}(?:(\w+)\()?([^ |\[\]()]+)\)?(?:[ |]([\s\w]+?))?\]{1,2}`)

	// Inline links: an optional inter-Trac target, an optional typed
	// namespace with an optionally quoted name, or a bare multi-segment
	// CamelCase page name. The inter-Trac group is lazy so a leading
	// "wiki:" reads as a namespace, not a target project.
	inlineLinkRe = regexp.MustCompile(`(?:([a-zA-Z0-9-_]+):)??(?:(wiki|ticket|report|changeset|source):"?([a-zA-Z0-9-_#]+)"?|((?:[A-Z#][a-z0-9-_#]+){2,}))`)
)

// markedLink is the decoded form of one bracket-link match.
type markedLink struct {
	macro  string
	target string
	label  string
}

// convertLinks resolves both link families. Marked links go first: their
// extracted targets feed into inline resolution, and their Markdown output
// must not be re-entered by the inline pass.
func (cv *conversion) convertLinks(text string) (string, error) {
	text = cv.convertMarkedLinks(text)
	text = cv.convertInlineLinks(text)
	return text, nil
}

// convertMarkedLinks rewrites bracket-delimited links. A match preceded by
// the ! escape marker is left exactly as written.
func (cv *conversion) convertMarkedLinks(text string) string {
	indexes := markedLinkRe.FindAllStringSubmatchIndex(text, -1)
	if len(indexes) == 0 {
		return text
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
		link := markedLink{target: text[m[4]:m[5]]}
		if m[2] >= 0 {
			link.macro = text[m[2]:m[3]]
		}
		if m[6] >= 0 {
			link.label = strings.TrimSpace(text[m[6]:m[7]])
		}
		replacement, ok := cv.resolveMarkedLink(link)
		if !ok {
			continue
		}
		b.WriteString(text[pos:start])
		b.WriteString(replacement)
		pos = end
	}
	b.WriteString(text[pos:])
	return b.String()
}

// resolveMarkedLink maps one decoded bracket link to its Markdown form.
// Each branch is explicit policy: macros we do not understand and targets
// nothing can resolve stay untouched rather than being guessed at.
func (cv *conversion) resolveMarkedLink(link markedLink) (string, bool) {
	switch {
	case strings.EqualFold(link.macro, "Image"):
		alt := link.label
		if alt == "" {
			alt = "image"
		}
		return "![" + alt + "](" + link.target + ")", true

	case link.macro != "":
		// Unrecognized macro: not understood well enough to rewrite.
		return "", false

	case link.label != "":
		return "[" + link.label + "](" + cv.resolveLinkTarget(link.target) + ")", true

	default:
		// Bare bracket link: Markdown needs no brackets around it.
		resolved := cv.resolveLinkTarget(link.target)
		if resolved != link.target {
			return resolved, true
		}
		if strings.Contains(link.target, "://") {
			return link.target, true
		}
		return "", false
	}
}

// resolveLinkTarget runs inline-link resolution against a marked link's
// extracted target. Targets the inline pattern does not fully cover come
// back unchanged.
func (cv *conversion) resolveLinkTarget(target string) string {
	m := inlineLinkRe.FindStringSubmatchIndex(target)
	if m == nil || m[0] != 0 || m[1] != len(target) {
		return target
	}
	return cv.resolveInlineLink(submatches(target, m))
}

// convertInlineLinks rewrites typed and bare CamelCase links anywhere in
// the document. A candidate preceded by ! loses the marker and stays
// literal text. Boundary bytes that would split a word or re-enter a path
// emitted by the marked-link pass reject the candidate.
func (cv *conversion) convertInlineLinks(text string) string {
	indexes := inlineLinkRe.FindAllStringSubmatchIndex(text, -1)
	if len(indexes) == 0 {
		return text
	}

	var b strings.Builder
	pos := 0
	for _, m := range indexes {
		start, end := m[0], m[1]
		if start < pos {
			continue
		}
		if start > 0 {
			prev := text[start-1]
			if prev == '!' {
				b.WriteString(text[pos : start-1])
				b.WriteString(text[start:end])
				pos = end
				continue
			}
			if !inlineLinkBoundary(prev) {
				continue
			}
		}
		b.WriteString(text[pos:start])
		b.WriteString(cv.resolveInlineLink(submatches(text, m)))
		pos = end
	}
	b.WriteString(text[pos:])
	return b.String()
}

// resolveInlineLink builds the path-style output for one inline link. The
// output deliberately has no Markdown anchor syntax: downstream consumers
// prepend their own base path. A cross-project target missing from the
// prefix map degrades to a same-project-relative link.
func (cv *conversion) resolveInlineLink(project, kind, typedName, bareName string) string {
	name := typedName
	if kind == "" {
		kind = string(linkWiki)
		name = bareName
	}
	prefix := ""
	if project != "" {
		prefix = cv.conv.prefixes[project]
	}
	return prefix + kind + "/" + name
}

// inlineLinkBoundary reports whether b may directly precede an inline
// link. Word bytes reject mid-word CamelCase; path and bracket bytes keep
// the pass out of link targets produced earlier in the pipeline.
func inlineLinkBoundary(b byte) bool {
	switch {
	case b == '/' || b == '(' || b == '[' || b == ':':
		return false
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '_':
		return false
	}
	return true
}

// submatches extracts the four inline-link capture groups from a
// FindStringSubmatchIndex result.
func submatches(text string, m []int) (project, kind, typedName, bareName string) {
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return text[m[2*i]:m[2*i+1]]
	}
	return group(1), group(2), group(3), group(4)
}
