// Package yamlutil decodes YAML documents strictly, behind one size limit
// and one error prefix.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize caps accepted documents at 1 MiB.
var MaxInputSize = 1 << 20

var (
	ErrEmpty         = errors.New("yamlutil: empty document")
	ErrInputTooLarge = errors.New("yamlutil: input exceeds maximum size")
	ErrInvalid       = errors.New("yamlutil: document failed validation")
)

// Validator is implemented by documents that check themselves once decoded.
type Validator interface {
	Validate() error
}

// Decode decodes data into a new T, rejecting unknown fields. When *T
// implements Validator its Validate method runs before Decode returns.
func Decode[T any](data []byte) (*T, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}

	v := new(T)
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return v, nil
}
