package patch

import (
	"errors"
	"testing"

	"github.com/thehowl/semdiff/internal/textdiff"
	"github.com/thehowl/semdiff/internal/value"
)

func TestWireRoundTrip(t *testing.T) {
	p := Patch{}.
		Append(Path{Name("a")}, UpdateAction(value.String("b1"))).
		Append(Path{Index(2)}, RemoveAction()).
		Append(Path{Index(0), Name("body")}, UpdateTextAction([]textdiff.DiffOp{
			textdiff.Append(0, 1, "X"),
			textdiff.Update(1, "hello"),
		})).
		Append(Path{Index(1)}, SwapAction(Index(3))).
		Append(Path{Name("c")}, CloneAction(Name("d"))).
		Append(Path{Name("e")}, InsertAction(value.Numeric("123456789012345678901234567890")))

	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if len(got) != len(p) {
		t.Fatalf("got %d hunks, want %d", len(got), len(p))
	}
	for i := range p {
		if !pathEqual(got[i].Path, p[i].Path) {
			t.Errorf("hunk %d: path mismatch: got %v want %v", i, got[i].Path, p[i].Path)
		}
		if got[i].Action.Kind() != p[i].Action.Kind() {
			t.Errorf("hunk %d: action kind mismatch: got %v want %v", i, got[i].Action.Kind(), p[i].Action.Kind())
		}
	}

	// The arbitrary-precision numeric must round-trip exactly, not collapse
	// through float64.
	if got[5].Action.Value().NumericText() != "123456789012345678901234567890" {
		t.Errorf("numeric lexeme did not round-trip: got %q", got[5].Action.Value().NumericText())
	}
}

func pathEqual(a, b Path) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func TestPathString(t *testing.T) {
	p := Path{Name("a"), Index(2), Name("b")}
	if got, want := p.String(), "$.a[2].b"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := (Path{}).String(), "$"; got != want {
		t.Errorf("empty path String() = %q, want %q", got, want)
	}
}

func TestDecodeErrorKind(t *testing.T) {
	_, err := Unmarshal([]byte(`[{"p":[],"v":{"type":"bogus"}}]`))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}
