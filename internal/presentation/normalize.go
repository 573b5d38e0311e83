package presentation

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which shape a RawInput carries.
type Kind int

const (
	KindAbsent Kind = iota
	KindText
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindStructured:
		return "structured"
	default:
		return "absent"
	}
}

// RawInput is a loosely-typed model record as received from a listing,
// a catalog file or the command line. The zero value is an absent input.
type RawInput struct {
	kind   Kind
	text   string
	fields map[string]any
}

// Absent returns an input that normalizes to an all-missing record.
func Absent() RawInput {
	return RawInput{}
}

// Text wraps a serialized JSON object.
func Text(s string) RawInput {
	return RawInput{kind: KindText, text: s}
}

// Structured wraps an already decoded key/value object.
func Structured(fields map[string]any) RawInput {
	return RawInput{kind: KindStructured, fields: fields}
}

// Kind reports the shape of the input.
func (r RawInput) Kind() Kind {
	return r.kind
}

// DecodeError is returned when a text input is not a serialized JSON object.
type DecodeError struct {
	Input string
	Err   error
}

const maxErrorInput = 64

func (e *DecodeError) Error() string {
	in := e.Input
	if len(in) > maxErrorInput {
		in = in[:maxErrorInput] + "..."
	}
	return fmt.Sprintf("decoding model presentation %q: %v", in, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Field keys of the serialized record.
const (
	KeyName        = "name"
	KeyDescription = "description"
	KeyProvider    = "provider"
	KeyUncensored  = "uncensored"
	KeyReasoning   = "reasoning"
)

// Normalize builds a ModelPresentation from a raw input. Unknown keys are
// ignored, missing or non-string text fields become "", and missing or
// non-boolean flags stay nil. The only failure is a DecodeError on text input.
func Normalize(in RawInput) (ModelPresentation, error) {
	var fields map[string]any

	switch in.kind {
	case KindText:
		decoded, err := decodeObject(in.text)
		if err != nil {
			return ModelPresentation{}, err
		}
		fields = decoded
	case KindStructured:
		fields = in.fields
	}

	return ModelPresentation{
		Name:        textField(fields, KeyName),
		Description: textField(fields, KeyDescription),
		Provider:    textField(fields, KeyProvider),
		Uncensored:  flagField(fields, KeyUncensored),
		Reasoning:   flagField(fields, KeyReasoning),
	}, nil
}

// MustNormalize is like Normalize but panics on a DecodeError.
// Intended for literals in tests and fixtures.
func MustNormalize(in RawInput) ModelPresentation {
	m, err := Normalize(in)
	if err != nil {
		panic(err)
	}
	return m
}

func decodeObject(s string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, &DecodeError{Input: s, Err: err}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{Input: s, Err: fmt.Errorf("expected a JSON object, got %s", jsonKind(v))}
	}
	return obj, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func textField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func flagField(fields map[string]any, key string) *bool {
	b, ok := fields[key].(bool)
	if !ok {
		return nil
	}
	return &b
}
