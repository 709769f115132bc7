// Package yamlutil wraps YAML encoding and decoding so the rest of the
// code never imports the YAML library directly.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// maxInputSize caps YAML input; config files larger than this are
// considered malformed.
const maxInputSize = 1 << 20

var (
	ErrEmptyInput     = errors.New("yamlutil: empty input")
	ErrNilTarget      = errors.New("yamlutil: nil decode target")
	ErrOversizedInput = errors.New("yamlutil: input exceeds maximum size")
)

// Decode unmarshals data into target.
func Decode(data []byte, target any) error {
	if err := check(data, target); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// DecodeStrict unmarshals data into target, rejecting unknown fields.
// Config loading uses this so typos in key names surface as errors
// instead of silently keeping defaults.
func DecodeStrict(data []byte, target any) error {
	if err := check(data, target); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, target, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// Encode marshals v to YAML.
func Encode(v any) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return out, nil
}

func check(data []byte, target any) error {
	if len(data) == 0 {
		return ErrEmptyInput
	}
	if len(data) > maxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrOversizedInput, len(data), maxInputSize)
	}
	if target == nil {
		return ErrNilTarget
	}
	return nil
}
