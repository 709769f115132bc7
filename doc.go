// Package tracmigrate converts Trac wiki markup to Markdown.
//
// # Quick Start
//
// Create a converter and feed it one document at a time:
//
//	conv := tracmigrate.NewConverter(
//	    tracmigrate.WithInterTracPrefixes(map[string]string{
//	        "other": "http://example.org/other/wiki/",
//	    }),
//	)
//
//	md, err := conv.Convert(wikiText)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Conversion Pipeline
//
// Convert runs an ordered list of whole-document transform passes:
//
//  1. Mask fenced {{{...}}} blocks and `inline` code behind placeholders
//  2. Resolve [bracketed] and inline (CamelCase, wiki:Page, other:Page) links
//  3. Rewrite ''italic'', '''bold''' and '''''bold italic''''' spans
//  4. Rewrite = Heading = lines (setext for levels 1-2, atx below)
//  5. Rewrite \\ and [[br]] line breaks to paragraph breaks
//  6. Restore masked code as Markdown code spans and fences
//
// The order is load-bearing: masking runs first so no later pass can touch
// code content, and unmasking always runs last. Placeholder tokens are
// NUL-delimited so they match none of the intermediate patterns.
//
// # Fail-Soft Behavior
//
// The converter never rejects input. Unknown macros, unresolvable link
// targets, unbalanced style runs and dangling placeholders all pass through
// unchanged. The only returned error is ErrMaskKeyExhausted, an internal
// invariant failure of the placeholder keying loop.
//
// # Concurrency
//
// A Converter is immutable after construction. Every Convert call allocates
// its own mask table, so a single instance may be shared freely across
// goroutines and reused across documents.
package tracmigrate
