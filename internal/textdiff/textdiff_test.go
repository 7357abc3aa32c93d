package textdiff

import "testing"

func TestRoundTrip(t *testing.T) {
	tt := []struct {
		name     string
		old, new string
	}{
		{"identical", "a\nb\nc", "a\nb\nc"},
		{"append in middle", "abde", "aXbYdZe"},
		{"remove middle", "a\nb\nc", "a\nc"},
		{"insert middle", "a\nc", "a\nb\nc"},
		{"whole rewrite", "one\ntwo\nthree", "uno\ndos\ntres"},
		{"empty to nonempty", "", "a\nb"},
		{"nonempty to empty", "a\nb", ""},
		{"trailing insert", "a\nb", "a\nb\nc\nd"},
		{"leading insert", "b\nc", "a\nb\nc"},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			ops := Diff(tc.old, tc.new)
			got, err := Apply(tc.old, ops)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if got != tc.new {
				t.Fatalf("Diff/Apply round trip: got %q, want %q (ops=%v)", got, tc.new, ops)
			}
		})
	}
}

func TestAppendCompaction(t *testing.T) {
	ops := Diff("abde", "aXbYdZe")
	if len(ops) == 0 {
		t.Fatal("expected at least one op")
	}
	for _, op := range ops {
		if op.Kind != OpAppend {
			t.Fatalf("expected only Append ops for a single-char-insertion line, got %v", op)
		}
	}
	lastPos := -1
	for _, op := range ops {
		if op.Pos < lastPos {
			t.Fatalf("append positions must be monotonically increasing, got %v", ops)
		}
		lastPos = op.Pos
	}
}

func TestIdenticalIsEmpty(t *testing.T) {
	if ops := Diff("a\nb\nc", "a\nb\nc"); len(ops) != 0 {
		t.Fatalf("expected no ops for identical input, got %v", ops)
	}
}

func TestApplyOutOfBounds(t *testing.T) {
	_, err := ApplyLines([]string{"a"}, []DiffOp{Remove(5)})
	if err == nil {
		t.Fatal("expected out-of-bounds error")
	}
}

func TestApplyEOLInAppend(t *testing.T) {
	_, err := ApplyLines([]string{"a"}, []DiffOp{Append(0, 0, "x\ny")})
	if err == nil {
		t.Fatal("expected EOL-in-append error")
	}
}
