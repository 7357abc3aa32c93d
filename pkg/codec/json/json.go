// Package json is the JSON pkg/codec collaborator: it decodes arbitrary
// JSON into internal/value.Value and encodes a Value back to JSON, via
// github.com/json-iterator/go configured to decode numbers as
// arbitrary-precision tokens rather than float64.
package json

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/thehowl/semdiff/internal/value"
)

var api = jsoniter.Config{
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// Decode parses data as JSON into a value.Value, preserving every numeric
// lexeme verbatim.
func Decode(data []byte) (value.Value, error) {
	var any interface{}
	if err := api.Unmarshal(data, &any); err != nil {
		return value.Value{}, err
	}
	return value.FromAny(any), nil
}

// Encode renders v as JSON.
func Encode(v value.Value) ([]byte, error) {
	return v.MarshalJSON()
}
