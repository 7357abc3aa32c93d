package linepatch

import (
	"fmt"
	"strings"
)

// Apply reconstructs the target text by walking p's hunks over base,
// verifying that every context and deleted line still matches what the
// patch was computed against. A non-empty result always ends in a trailing
// newline, regardless of base's own trailing-newline state; a result with
// no lines is returned as an empty slice.
func Apply(base []byte, p Patch) ([]byte, error) {
	src := splitLines(base)
	var out []string
	cursor := 0

	for hi, h := range p.Hunks {
		start := h.LineOld - 1
		if start < 0 {
			start = 0
		}
		if start > len(src) {
			return nil, fmt.Errorf("%w: hunk %d starts at line %d, past end of file (%d lines)", ErrHunkMismatch, hi, h.LineOld, len(src))
		}
		out = append(out, src[cursor:start]...)
		cursor = start

		for _, hl := range h.Lines {
			switch hl.Type() {
			case TypeEqual:
				if cursor >= len(src) || src[cursor] != hl.Content() {
					return nil, fmt.Errorf("%w: hunk %d context mismatch at line %d", ErrHunkMismatch, hi, cursor+1)
				}
				out = append(out, src[cursor])
				cursor++
			case TypeDelete:
				if cursor >= len(src) || src[cursor] != hl.Content() {
					return nil, fmt.Errorf("%w: hunk %d delete mismatch at line %d", ErrHunkMismatch, hi, cursor+1)
				}
				cursor++
			case TypeInsert:
				out = append(out, hl.Content())
			default:
				return nil, fmt.Errorf("%w: hunk %d has an invalid line %q", ErrHunkMismatch, hi, hl.Value)
			}
		}
	}

	out = append(out, src[cursor:]...)
	if len(out) == 0 {
		return []byte{}, nil
	}
	return []byte(strings.Join(out, "\n") + "\n"), nil
}

func splitLines(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	s := string(b)
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
