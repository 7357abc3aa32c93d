// Package toml is the TOML pkg/codec collaborator, built on
// github.com/pelletier/go-toml/v2.
package toml

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/thehowl/semdiff/internal/value"
)

// Decode parses data as TOML into a value.Value. TOML's grammar already
// types every scalar (int64, float64, bool, string, time.Time), so unlike
// the JSON/YAML collaborators there is no arbitrary-precision lexeme to
// preserve; numerics round-trip through Go's native int64/float64.
func Decode(data []byte) (value.Value, error) {
	var any interface{}
	if err := toml.Unmarshal(data, &any); err != nil {
		return value.Value{}, err
	}
	return value.FromAny(any), nil
}

// Encode renders v as TOML. A non-Map root is rejected: TOML documents
// must be tables.
func Encode(v value.Value) ([]byte, error) {
	if v.Kind() != value.KindMap {
		return nil, fmt.Errorf("toml: root value must be a map, got %s", v.Kind())
	}
	return toml.Marshal(value.ToAny(v))
}
