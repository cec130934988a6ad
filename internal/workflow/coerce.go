package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Result is what every agent call returns: the raw response text and, when
// the model produced one, a structured JSON payload.
type Result struct {
	Response   string          `json:"response"`
	Structured json.RawMessage `json:"structured_response,omitempty"`
}

// Validator is implemented by every shape Coerce can produce.
type Validator interface {
	Validate() error
}

// Coerce maps an agent result onto T. The structured payload is preferred;
// otherwise the trimmed response text must decode as a JSON object. Every
// other case fails with ErrCoerce naming shape.
func Coerce[T Validator](r Result, shape string) (T, error) {
	var zero T

	if hasPayload(r.Structured) {
		return decodeShape[T](r.Structured, shape)
	}

	text := strings.TrimSpace(r.Response)
	if text == "" {
		return zero, fmt.Errorf("%w to %s: empty response", ErrCoerce, shape)
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &object); err != nil || object == nil {
		return zero, fmt.Errorf("%w to %s: response is not a JSON object", ErrCoerce, shape)
	}

	return decodeShape[T]([]byte(text), shape)
}

func decodeShape[T Validator](data []byte, shape string) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w to %s: %w", ErrCoerce, shape, err)
	}
	if err := v.Validate(); err != nil {
		return v, fmt.Errorf("%w to %s: %w", ErrCoerce, shape, err)
	}
	return v, nil
}

func hasPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
