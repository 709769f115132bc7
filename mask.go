package tracmigrate

import (
	"crypto/sha1" // #nosec G505 -- keys identify spans within one document, not secrets
	"encoding/hex"
	"regexp"
	"strings"
)

// maskEntry records one code span lifted out of the document before the
// rewrite passes run.
type maskEntry struct {
	raw    string // code content, byte-for-byte
	lang   string // language from a #!lang processor line, if any
	inline bool   // restore as `inline` code instead of a fence
}

// Placeholder tokens stand in for masked code. The NUL delimiters and
// lowercase hex key match no link, style, heading or break pattern, so the
// intermediate passes treat placeholders as inert text.
const (
	placeholderPrefix = "\x00mask-"
	placeholderSuffix = "\x00"

	// maxMaskProbes bounds the collision re-hash loop in storeMask.
	maxMaskProbes = 64
)

// Precompiled patterns for the mask passes.
var (
	// {{{ ... }}} fenced block with an optional #!lang processor line.
	// Blocks are masked before inline spans so block content containing
	// backticks is never matched as an inline span.
	codeBlockRe = regexp.MustCompile(`(?s)\{\{\{(?:[\r\n\t ]*#!([ \w="']+)\n)?(.*?)\}\}\}`)

	// `...` inline span, shortest match, single line.
	inlineCodeRe = regexp.MustCompile("`([^`\n]+)`")

	placeholderRe = regexp.MustCompile("\x00mask-([0-9a-f]+)\x00")
)

// maskCode replaces every fenced block and inline code span with a
// placeholder token and files the original content in the mask table.
// Backslash-escaped delimiters do not trigger masking.
func (cv *conversion) maskCode(text string) (string, error) {
	var err error

	text = replaceUnescaped(text, codeBlockRe, func(groups []string) (string, bool) {
		key, kerr := cv.storeMask(maskEntry{
			raw:  groups[2],
			lang: strings.TrimSpace(groups[1]),
		})
		if kerr != nil {
			err = kerr
			return "", false
		}
		return placeholderPrefix + key + placeholderSuffix, true
	})
	if err != nil {
		return "", err
	}

	text = replaceUnescaped(text, inlineCodeRe, func(groups []string) (string, bool) {
		key, kerr := cv.storeMask(maskEntry{raw: groups[1], inline: true})
		if kerr != nil {
			err = kerr
			return "", false
		}
		return placeholderPrefix + key + placeholderSuffix, true
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// unmaskCode restores every placeholder from the mask table. Inline spans
// come back as backtick code, blocks as fenced code with the recorded
// language on the opening fence. A placeholder with no table entry passes
// through unchanged.
func (cv *conversion) unmaskCode(text string) (string, error) {
	out := placeholderRe.ReplaceAllStringFunc(text, func(token string) string {
		key := token[len(placeholderPrefix) : len(token)-len(placeholderSuffix)]
		entry, ok := cv.masks[key]
		if !ok {
			return token
		}
		delete(cv.masks, key)

		if entry.inline {
			return "`" + entry.raw + "`"
		}
		body := entry.raw
		if !strings.HasPrefix(body, "\n") {
			body = "\n" + body
		}
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		return "```" + entry.lang + body + "```"
	})
	return out, nil
}

// storeMask files an entry under a hash of its content. A taken key is
// re-hashed deterministically until a free slot turns up, so byte-identical
// spans still get one entry per occurrence and no entry is ever
// overwritten.
func (cv *conversion) storeMask(entry maskEntry) (string, error) {
	key := maskKey(entry.raw)
	for range maxMaskProbes {
		if _, taken := cv.masks[key]; !taken {
			cv.masks[key] = entry
			return key, nil
		}
		key = maskKey(key)
	}
	return "", ErrMaskKeyExhausted
}

// maskKey derives a placeholder key from span content.
func maskKey(s string) string {
	sum := sha1.Sum([]byte(s)) // #nosec G401
	return hex.EncodeToString(sum[:])
}

// replaceUnescaped rewrites every match of re that is not preceded by a
// backslash. The callback receives the submatch texts and returns the
// replacement; ok=false keeps the match untouched.
func replaceUnescaped(text string, re *regexp.Regexp, fn func(groups []string) (string, bool)) string {
	indexes := re.FindAllStringSubmatchIndex(text, -1)
	if len(indexes) == 0 {
		return text
	}

	var b strings.Builder
	pos := 0
	for _, m := range indexes {
		start, end := m[0], m[1]
		if start > 0 && text[start-1] == '\\' {
			continue
		}
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = text[m[2*i]:m[2*i+1]]
			}
		}
		replacement, ok := fn(groups)
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
