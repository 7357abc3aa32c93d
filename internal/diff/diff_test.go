package diff

import (
	"testing"

	"github.com/thehowl/semdiff/internal/apply"
	"github.com/thehowl/semdiff/internal/intersect"
	"github.com/thehowl/semdiff/internal/patch"
	"github.com/thehowl/semdiff/internal/value"
)

func arr(els ...value.Value) value.Value { return value.Array(els) }
func obj(m map[string]value.Value) value.Value { return value.Map(m) }
func str(s string) value.Value { return value.String(s) }
func num(s string) value.Value { return value.Numeric(s) }

func mustApply(t *testing.T, base value.Value, p patch.Patch) value.Value {
	t.Helper()
	out, err := apply.Apply(base, p, apply.FailFast)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return out
}

func TestDiffMapLeafChange(t *testing.T) {
	base := obj(map[string]value.Value{"a": num("1"), "b": str("x")})
	target := obj(map[string]value.Value{"a": num("2"), "b": str("x")})

	p := Diff(base, target)
	if len(p) != 1 {
		t.Fatalf("expected 1 hunk, got %d: %+v", len(p), p)
	}
	got := mustApply(t, base, p)
	if !value.Equal(got, target) {
		t.Fatalf("apply(diff) != target")
	}
}

func TestDiffMapAddRemove(t *testing.T) {
	base := obj(map[string]value.Value{"a": num("1"), "b": str("x")})
	target := obj(map[string]value.Value{"a": num("1"), "c": str("y")})

	p := Diff(base, target)
	got := mustApply(t, base, p)
	if !value.Equal(got, target) {
		t.Fatalf("apply(diff) != target, got %+v", got)
	}
}

func TestDiffArraySwapWithTailTrim(t *testing.T) {
	base := arr(str("a"), str("b"), str("c"), str("d"))
	target := arr(str("c"), str("b"), str("a"))

	p := Diff(base, target)
	got := mustApply(t, base, p)
	if !value.Equal(got, target) {
		t.Fatalf("apply(diff) != target: got %+v want %+v", got, target)
	}
}

func TestDiffArrayRemoveMiddle(t *testing.T) {
	base := arr(str("a"), str("b"), str("c"), str("d"))
	target := arr(str("a"), str("d"))

	p := Diff(base, target)
	got := mustApply(t, base, p)
	if !value.Equal(got, target) {
		t.Fatalf("apply(diff) != target: got %+v want %+v", got, target)
	}
}

func TestDiffArrayCommutativeEdits(t *testing.T) {
	base := arr(num("1"), num("2"), num("3"))
	a := arr(num("9"), num("2"), num("3"))
	b := arr(num("1"), num("2"), num("8"))

	pa := Diff(base, a)
	pb := Diff(base, b)

	if intersect.Intersect(pa, pb) {
		t.Fatalf("expected non-intersecting patches for edits at disjoint indices")
	}
}

func TestDiffArrayConflictingEdits(t *testing.T) {
	base := arr(num("1"), num("2"), num("3"))
	a := arr(num("9"), num("2"), num("3"))
	b := arr(num("8"), num("2"), num("3"))

	pa := Diff(base, a)
	pb := Diff(base, b)

	if !intersect.Intersect(pa, pb) {
		t.Fatalf("expected intersecting patches for edits at the same index")
	}
}

func TestDiffEmptyArrayAndMap(t *testing.T) {
	if p := Diff(arr(), arr()); len(p) != 0 {
		t.Errorf("empty array diff: expected no hunks, got %+v", p)
	}
	if p := Diff(obj(nil), obj(nil)); len(p) != 0 {
		t.Errorf("empty map diff: expected no hunks, got %+v", p)
	}

	base := arr()
	target := arr(str("a"), str("b"))
	p := Diff(base, target)
	got := mustApply(t, base, p)
	if !value.Equal(got, target) {
		t.Fatalf("apply(diff) != target appending into empty array")
	}
}

func TestDiffNullTransitions(t *testing.T) {
	p := Diff(value.Null(), str("x"))
	if len(p) != 1 || p[0].Action.Kind() != patch.ActionUpdate {
		t.Fatalf("expected single Update hunk for Null->String, got %+v", p)
	}

	p2 := Diff(str("x"), value.Null())
	got := mustApply(t, str("x"), p2)
	if !got.IsNull() {
		t.Fatalf("expected Null after apply, got %+v", got)
	}
}

func TestDiffLargeStringUsesTextDiff(t *testing.T) {
	base := make([]byte, 0, TextDiffThreshold+100)
	for i := 0; i < TextDiffThreshold/4+50; i++ {
		base = append(base, []byte("abcd\n")...)
	}
	baseStr := string(base)
	targetStr := baseStr + "extra line\n"

	p := Diff(str(baseStr), str(targetStr))
	if len(p) != 1 || p[0].Action.Kind() != patch.ActionUpdateText {
		t.Fatalf("expected UpdateText for large strings, got %+v", p)
	}
	got := mustApply(t, str(baseStr), p)
	if got.StringValue() != targetStr {
		t.Fatalf("round trip mismatch")
	}
}

func TestDiffRationalize(t *testing.T) {
	base := obj(map[string]value.Value{
		"a": str("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
	})
	target := obj(map[string]value.Value{
		"a": str("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
	})

	d := New().WithRationalize()
	p := d.Diff(base, target)
	if len(p) != 1 {
		t.Fatalf("rationalize should collapse to one hunk, got %d: %+v", len(p), p)
	}
	if p[0].Action.Kind() != patch.ActionUpdate {
		t.Fatalf("expected the rationalized hunk to be a whole-value Update, got %v", p[0].Action.Kind())
	}
}

func TestDiffIgnoredPaths(t *testing.T) {
	base := obj(map[string]value.Value{"a": num("1"), "ignored": str("x")})
	target := obj(map[string]value.Value{"a": num("2"), "ignored": str("y")})

	d := New().WithIgnoredPaths(patch.Path{patch.Name("ignored")})
	p := d.Diff(base, target)
	for _, h := range p {
		if len(h.Path) > 0 && h.Path[0].Kind() == patch.ElementName && h.Path[0].NameValue() == "ignored" {
			t.Fatalf("expected no hunks under ignored path, got %+v", h)
		}
	}
	if len(p) != 1 {
		t.Fatalf("expected exactly 1 hunk (for key a), got %d: %+v", len(p), p)
	}
}
