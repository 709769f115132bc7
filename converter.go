package tracmigrate

import "fmt"

// Converter rewrites Trac wiki markup into Markdown. It holds only
// read-only configuration; all per-document state lives in a conversion
// allocated fresh for every Convert call.
type Converter struct {
	prefixes map[string]string
	pages    map[string]struct{}
}

// Option configures a Converter.
type Option func(*Converter)

// WithInterTracPrefixes sets the map from inter-Trac project identifier to
// base URL, used to rewrite cross-project links. Targets missing from the
// map degrade to project-relative links.
func WithInterTracPrefixes(prefixes map[string]string) Option {
	return func(c *Converter) {
		for id, prefix := range prefixes {
			c.prefixes[id] = prefix
		}
	}
}

// WithKnownPages records the wiki page names that exist in the source
// project. The set is advisory: no pass consults it yet, it is kept for
// future link-validity checks.
func WithKnownPages(pages []string) Option {
	return func(c *Converter) {
		for _, page := range pages {
			c.pages[page] = struct{}{}
		}
	}
}

// NewConverter creates a Converter with the given options.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		prefixes: make(map[string]string),
		pages:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// conversion is the state shared by the passes of a single Convert call.
// The mask table must never outlive one document: scoping it here keeps
// sequential documents from leaking entries into each other and makes
// concurrent Convert calls race-free.
type conversion struct {
	conv  *Converter
	masks map[string]maskEntry
}

// stage is one named transform pass over the whole document.
type stage struct {
	name  string
	apply func(*conversion, string) (string, error)
}

// stages lists the transform passes in their required order. The order is
// a contract, not an accident: later passes depend on the output shape of
// earlier ones. Code is masked before anything else so no other pass can
// rewrite it, marked links resolve before inline links because they feed
// extracted targets into inline resolution, and unmasking runs last.
func stages() []stage {
	return []stage{
		{"mask", (*conversion).maskCode},
		{"links", (*conversion).convertLinks},
		{"styles", (*conversion).convertStyles},
		{"headings", (*conversion).convertHeadings},
		{"breaks", (*conversion).convertBreaks},
		{"unmask", (*conversion).unmaskCode},
	}
}

// Convert translates one wiki document to Markdown. Calls are independent:
// each gets a fresh conversion context. Unrecognized constructs pass
// through unchanged; the only error condition is an internal failure of
// the placeholder keying loop.
func (c *Converter) Convert(text string) (string, error) {
	cv := &conversion{
		conv:  c,
		masks: make(map[string]maskEntry),
	}

	var err error
	for _, st := range stages() {
		text, err = st.apply(cv, text)
		if err != nil {
			return "", fmt.Errorf("%s pass: %w", st.name, err)
		}
	}
	return text, nil
}
