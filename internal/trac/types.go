package trac

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Trac's JSON-RPC wraps non-JSON values in {"__jsonclass__": [kind, payload]}
// envelopes. Timestamp and Binary decode the two kinds the migration needs.

// jsonClassLayout is the datetime format Trac emits (ISO 8601, no zone).
const jsonClassLayout = "2006-01-02T15:04:05"

type jsonClass struct {
	Class []string `json:"__jsonclass__"`
}

// Timestamp decodes a Trac datetime envelope.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var env jsonClass
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: datetime envelope: %v", ErrDecode, err)
	}
	if len(env.Class) != 2 || env.Class[0] != "datetime" {
		return fmt.Errorf("%w: not a datetime envelope", ErrDecode)
	}
	parsed, err := time.Parse(jsonClassLayout, env.Class[1])
	if err != nil {
		return fmt.Errorf("%w: datetime %q: %v", ErrDecode, env.Class[1], err)
	}
	t.Time = parsed
	return nil
}

// Binary decodes a Trac binary envelope (base64 payload).
type Binary []byte

func (b *Binary) UnmarshalJSON(data []byte) error {
	var env jsonClass
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: binary envelope: %v", ErrDecode, err)
	}
	if len(env.Class) != 2 || env.Class[0] != "binary" {
		return fmt.Errorf("%w: not a binary envelope", ErrDecode)
	}
	decoded, err := base64.StdEncoding.DecodeString(env.Class[1])
	if err != nil {
		return fmt.Errorf("%w: binary payload: %v", ErrDecode, err)
	}
	*b = decoded
	return nil
}

// Ticket is one tracker ticket. The RPC returns a 4-tuple of id, creation
// time, last change time and the attribute map.
type Ticket struct {
	ID         int
	Created    Timestamp
	Changed    Timestamp
	Attributes map[string]json.RawMessage
}

func (t *Ticket) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("%w: ticket tuple: %v", ErrDecode, err)
	}
	if len(tuple) != 4 {
		return fmt.Errorf("%w: ticket tuple has %d elements, want 4", ErrDecode, len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &t.ID); err != nil {
		return fmt.Errorf("%w: ticket id: %v", ErrDecode, err)
	}
	if err := json.Unmarshal(tuple[1], &t.Created); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[2], &t.Changed); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[3], &t.Attributes); err != nil {
		return fmt.Errorf("%w: ticket attributes: %v", ErrDecode, err)
	}
	return nil
}

// Attr returns a string attribute, or "" when absent or not a string.
// Trac mixes strings and datetime envelopes in the attribute map; the
// issue text only ever needs the string ones.
func (t *Ticket) Attr(name string) string {
	raw, ok := t.Attributes[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ChangeEntry is one ticket change-log record: a 6-tuple of time, author,
// field, old value, new value and the permanent flag.
type ChangeEntry struct {
	Time      Timestamp
	Author    string
	Field     string
	OldValue  string
	NewValue  string
	Permanent bool
}

func (e *ChangeEntry) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("%w: changelog tuple: %v", ErrDecode, err)
	}
	if len(tuple) != 6 {
		return fmt.Errorf("%w: changelog tuple has %d elements, want 6", ErrDecode, len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &e.Time); err != nil {
		return err
	}
	for i, dst := range []*string{&e.Author, &e.Field, &e.OldValue, &e.NewValue} {
		// Old and new values may be numbers for some fields; fall back to
		// their raw text instead of failing the whole entry.
		if err := json.Unmarshal(tuple[i+1], dst); err != nil {
			*dst = string(tuple[i+1])
		}
	}
	var permanent int
	if err := json.Unmarshal(tuple[5], &permanent); err == nil {
		e.Permanent = permanent != 0
		return nil
	}
	return json.Unmarshal(tuple[5], &e.Permanent)
}
