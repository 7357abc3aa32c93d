package json

import (
	"testing"

	"github.com/thehowl/semdiff/internal/value"
)

func TestDecodePreservesNumericLexeme(t *testing.T) {
	v, err := Decode([]byte(`{"a": 1.50, "b": 123456789012345678901234567890}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Entries()["a"].NumericText() != "1.50" {
		t.Errorf("got %q, want %q", v.Entries()["a"].NumericText(), "1.50")
	}
	if v.Entries()["b"].NumericText() != "123456789012345678901234567890" {
		t.Errorf("wide integer lexeme not preserved: got %q", v.Entries()["b"].NumericText())
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := value.Map(map[string]value.Value{
		"name": value.String("widget"),
		"tags": value.Array([]value.Value{value.String("a"), value.String("b")}),
	})
	data, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !value.Equal(got, v) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, v)
	}
}
