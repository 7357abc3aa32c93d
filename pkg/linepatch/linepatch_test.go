package linepatch

import (
	"testing"
)

func TestCreateApplyRoundTrip(t *testing.T) {
	old := []byte("alpha\nbeta\ngamma\ndelta\n")
	new := []byte("alpha\nBETA\ngamma\ndelta\nepsilon\n")

	p := Create(old, new)
	got, err := Apply(old, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(got) != string(new) {
		t.Fatalf("round trip mismatch:\ngot:  %q\nwant: %q", got, new)
	}
}

func TestCreateIdenticalProducesNoHunks(t *testing.T) {
	same := []byte("one\ntwo\nthree\n")
	p := Create(same, same)
	if len(p.Hunks) != 0 {
		t.Fatalf("expected no hunks for identical text, got %d", len(p.Hunks))
	}
	got, err := Apply(same, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(got) != string(same) {
		t.Fatalf("identity apply changed the text")
	}
}

func TestApplyRejectsDivergedBase(t *testing.T) {
	old := []byte("one\ntwo\nthree\n")
	new := []byte("one\nTWO\nthree\n")
	p := Create(old, new)

	diverged := []byte("one\nSURPRISE\nthree\n")
	if _, err := Apply(diverged, p); err == nil {
		t.Fatal("expected a hunk mismatch error against diverged base")
	}
}
