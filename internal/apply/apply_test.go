package apply

import (
	"errors"
	"testing"

	"github.com/thehowl/semdiff/internal/diff"
	"github.com/thehowl/semdiff/internal/patch"
	"github.com/thehowl/semdiff/internal/textdiff"
	"github.com/thehowl/semdiff/internal/value"
)

func TestApplyIdentityOnEmptyPatch(t *testing.T) {
	v := value.Map(map[string]value.Value{"a": value.Numeric("1")})
	got, err := Apply(v, nil, FailFast)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !value.Equal(got, v) {
		t.Fatalf("empty patch changed the document")
	}
}

func TestApplyRoundTripLaw(t *testing.T) {
	base := value.Map(map[string]value.Value{
		"name": value.String("alice"),
		"tags": value.Array([]value.Value{value.String("a"), value.String("b"), value.String("c")}),
		"age":  value.Numeric("30"),
	})
	target := value.Map(map[string]value.Value{
		"name": value.String("bob"),
		"tags": value.Array([]value.Value{value.String("c"), value.String("b")}),
		"age":  value.Numeric("31"),
	})

	p := diff.Diff(base, target)
	got, err := Apply(base, p, FailFast)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !value.Equal(got, target) {
		t.Fatalf("apply(base, diff(base,target)) != target: got %+v want %+v", got, target)
	}
}

func TestApplyRemoveMapKey(t *testing.T) {
	base := value.Map(map[string]value.Value{"a": value.Numeric("1"), "b": value.Numeric("2")})
	p := patch.Patch{}.Append(patch.Path{patch.Name("a")}, patch.RemoveAction())

	got, err := Apply(base, p, FailFast)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := got.Entries()["a"]; ok {
		t.Fatalf("key a still present after remove")
	}
	if len(got.Entries()) != 1 {
		t.Fatalf("expected 1 remaining key, got %d", len(got.Entries()))
	}
}

func TestApplyArrayInsertAndSwap(t *testing.T) {
	base := value.Array([]value.Value{value.String("a"), value.String("b")})
	p := patch.Patch{}.
		Append(patch.Path{patch.Index(2)}, patch.InsertAction(value.String("c"))).
		Append(patch.Path{patch.Index(0)}, patch.SwapAction(patch.Index(2)))

	got, err := Apply(base, p, FailFast)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []string{"c", "b", "a"}
	els := got.Elements()
	if len(els) != len(want) {
		t.Fatalf("got %d elements, want %d", len(els), len(want))
	}
	for i, w := range want {
		if els[i].StringValue() != w {
			t.Errorf("element %d: got %q want %q", i, els[i].StringValue(), w)
		}
	}
}

func TestApplyFailFastStopsAtFirstError(t *testing.T) {
	base := value.Map(map[string]value.Value{"a": value.Numeric("1")})
	p := patch.Patch{}.
		Append(patch.Path{patch.Name("missing")}, patch.RemoveAction()).
		Append(patch.Path{patch.Name("a")}, patch.RemoveAction())

	got, err := Apply(base, p, FailFast)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, patch.ErrPathMissing) {
		t.Errorf("expected ErrPathMissing, got %v", err)
	}
	if _, ok := got.Entries()["a"]; !ok {
		t.Fatalf("fail-fast should not have applied the second hunk")
	}
}

func TestApplyCollectAppliesWhatItCanAndJoinsErrors(t *testing.T) {
	base := value.Map(map[string]value.Value{"a": value.Numeric("1"), "b": value.Numeric("2")})
	p := patch.Patch{}.
		Append(patch.Path{patch.Name("missing")}, patch.RemoveAction()).
		Append(patch.Path{patch.Name("a")}, patch.RemoveAction()).
		Append(patch.Path{patch.Name("b")}, patch.UpdateAction(value.Numeric("9")))

	got, err := Apply(base, p, Collect)
	if err == nil {
		t.Fatal("expected a joined error")
	}
	if !errors.Is(err, patch.ErrPathMissing) {
		t.Errorf("expected joined error to contain ErrPathMissing, got %v", err)
	}
	if _, ok := got.Entries()["a"]; ok {
		t.Fatalf("collect mode should have applied the remove of a despite the earlier error")
	}
	if got.Entries()["b"].NumericText() != "9" {
		t.Fatalf("collect mode should have applied the update of b")
	}
}

func TestApplyMapSwapMissingSourceDegradesToMove(t *testing.T) {
	base := value.Map(map[string]value.Value{"a": value.Numeric("1")})
	p := patch.Patch{}.Append(patch.Path{patch.Name("a")}, patch.SwapAction(patch.Name("b")))

	got, err := Apply(base, p, FailFast)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := got.Entries()["a"]; ok {
		t.Fatalf("key a should be absent after swapping with a missing key")
	}
	if got.Entries()["b"].NumericText() != "1" {
		t.Fatalf("expected a's value to move to b, got %+v", got.Entries())
	}

	// Symmetric case: the hunk's own path is the missing side.
	base2 := value.Map(map[string]value.Value{"b": value.Numeric("2")})
	p2 := patch.Patch{}.Append(patch.Path{patch.Name("a")}, patch.SwapAction(patch.Name("b")))

	got2, err := Apply(base2, p2, FailFast)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := got2.Entries()["b"]; ok {
		t.Fatalf("key b should be absent after swapping with a missing key")
	}
	if got2.Entries()["a"].NumericText() != "2" {
		t.Fatalf("expected b's value to move to a, got %+v", got2.Entries())
	}
}

func TestApplyUpdateTextOutOfBounds(t *testing.T) {
	base := value.Map(map[string]value.Value{"body": value.String("hello")})
	p := patch.Patch{}.Append(patch.Path{patch.Name("body")}, patch.UpdateTextAction(
		[]textdiff.DiffOp{textdiff.Update(5, "x")},
	))
	_, err := Apply(base, p, FailFast)
	if !errors.Is(err, patch.ErrTextApplyOutOfBounds) {
		t.Errorf("expected ErrTextApplyOutOfBounds, got %v", err)
	}
}
