// Package intersect implements C8: deciding whether two patches, both
// computed against the same base document, touch overlapping regions of
// it and therefore cannot be safely merged without inspection.
package intersect

import (
	"sort"

	"github.com/thehowl/semdiff/internal/patch"
	"github.com/thehowl/semdiff/internal/textdiff"
	"github.com/thehowl/semdiff/internal/value"
)

// Intersect reports whether a and b, both patches against the same base
// document, touch any overlapping path. Two hunks intersect when one's
// path is a prefix of (or equal to) the other's, or — for sibling array
// hunks under the same parent — per spec.md §4.6's shift-aware range
// rules: a shifting action (Remove/Insert/Clone) can move the index a
// non-shifting action (Update/UpdateText/Swap) elsewhere in the same
// patch addresses, even though the two hunks never name the same index.
// Intersect is symmetric: Intersect(a, b) == Intersect(b, a).
func Intersect(a, b patch.Patch) bool {
	for _, ha := range a {
		for _, hb := range b {
			if pathPrefixOverlap(ha.Path, hb.Path) {
				return true
			}
		}
	}

	rangesA, rangesB := buildRanges(a), buildRanges(b)
	for _, ra := range rangesA {
		for _, rb := range rangesB {
			if samePath(ra.parent, rb.parent) && rangesConflict(ra, rb) {
				return true
			}
		}
	}
	return false
}

// pathPrefixOverlap reports whether one path is a prefix of the other
// (including equality). Two hunks at $.a and $.a.b always intersect,
// since editing $.a (e.g. replacing it wholesale) necessarily affects
// whatever the other hunk does at $.a.b, and vice versa.
func pathPrefixOverlap(a, b patch.Path) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func samePath(a, b patch.Path) bool {
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

// shiftKind classifies an action's effect on sibling array indices, per
// spec.md §4.6 and §8's glossary: Insert/Clone shift indices at or after
// them to the right, Remove shifts indices after it to the left, and
// Update/UpdateText/Swap leave array length — and therefore every sibling
// index — unchanged.
type shiftKind uint8

const (
	shiftNone shiftKind = iota
	shiftRemove
	shiftInsert
)

func actionShiftKind(act patch.Action) shiftKind {
	switch act.Kind() {
	case patch.ActionRemove:
		return shiftRemove
	case patch.ActionInsert, patch.ActionClone:
		return shiftInsert
	default:
		return shiftNone
	}
}

// companionIndex returns the index a Swap/Clone hunk also touches besides
// its own path, so that a concurrent edit at that companion index is
// caught even though the hunk's own path never names it.
func companionIndex(act patch.Action) (int, bool) {
	switch act.Kind() {
	case patch.ActionSwap, patch.ActionClone:
		other := act.Other()
		if other.Kind() == patch.ElementIndex {
			return other.IndexValue(), true
		}
	}
	return 0, false
}

// pathRange is a coalesced run of contiguous sibling-index hunks under the
// same parent path, sharing the same shiftKind: spec.md §4.6's PathRanges.
// start/end is a half-open interval over the base array's original
// indexing; hunks holds one entry per covered index, in index order.
type pathRange struct {
	parent patch.Path
	start  int
	end    int
	kind   shiftKind
	hunks  []patch.Hunk
}

// buildRanges groups p's array-index hunks by parent path — including a
// synthetic touch at a Swap/Clone's companion index, since the other side
// of an exchange or copy is touched just as much as the hunk's own path —
// then coalesces contiguous same-kind touches into ranges.
func buildRanges(p patch.Patch) []pathRange {
	type touch struct {
		idx int
		h   patch.Hunk
	}

	byParent := map[string][]touch{}
	parents := map[string]patch.Path{}
	var order []string

	add := func(parent patch.Path, idx int, h patch.Hunk) {
		k := parent.String()
		if _, ok := byParent[k]; !ok {
			order = append(order, k)
			parents[k] = parent
		}
		byParent[k] = append(byParent[k], touch{idx: idx, h: h})
	}

	for _, h := range p {
		if len(h.Path) == 0 {
			continue
		}
		parent, elem := h.Path.Parent()
		if elem.Kind() != patch.ElementIndex {
			continue
		}
		add(parent, elem.IndexValue(), h)
		if other, ok := companionIndex(h.Action); ok {
			add(parent, other, h)
		}
	}

	var ranges []pathRange
	for _, k := range order {
		touches := byParent[k]
		sort.Slice(touches, func(i, j int) bool { return touches[i].idx < touches[j].idx })

		i := 0
		for i < len(touches) {
			kind := actionShiftKind(touches[i].h.Action)
			j := i + 1
			for j < len(touches) &&
				touches[j].idx == touches[j-1].idx+1 &&
				actionShiftKind(touches[j].h.Action) == kind {
				j++
			}
			hunks := make([]patch.Hunk, j-i)
			for n := i; n < j; n++ {
				hunks[n-i] = touches[n].h
			}
			ranges = append(ranges, pathRange{
				parent: parents[k],
				start:  touches[i].idx,
				end:    touches[j-1].idx + 1,
				kind:   kind,
				hunks:  hunks,
			})
			i = j
		}
	}
	return ranges
}

// rangesConflict decides whether ra (from one patch) and rb (from the
// other, sharing ra.parent) intersect, per spec.md §4.6's per-kind rules.
func rangesConflict(ra, rb pathRange) bool {
	switch {
	case ra.kind == shiftNone && rb.kind == shiftNone:
		return nonShiftOverlap(ra, rb)
	case ra.kind != shiftNone && rb.kind != shiftNone:
		return shiftingOverlap(ra, rb)
	case ra.kind == shiftNone:
		return shiftAffectsRange(rb, ra)
	default:
		return shiftAffectsRange(ra, rb)
	}
}

// shiftAffectsRange reports whether shifting's shift could move any index
// inside nonshift's range: spec.md §4.6's "non-shifting action vs
// shifting action at other_idx <= my_idx" rule, generalized from a single
// index to a coalesced range. A shifting action starting at or before any
// index nonshift touches moves that index (Insert/Clone push it right,
// Remove either deletes it or pulls everything after it left); one
// starting strictly after nonshift's whole range never reaches it.
func shiftAffectsRange(shifting, nonshift pathRange) bool {
	return shifting.start < nonshift.end
}

// nonShiftOverlap compares two non-shifting ranges index by index over
// their shared span: the same index intersects iff the two patches'
// actions there differ (an identical action/value at the same index
// produces the same result regardless of application order).
func nonShiftOverlap(ra, rb pathRange) bool {
	lo, hi := max(ra.start, rb.start), min(ra.end, rb.end)
	for idx := lo; idx < hi; idx++ {
		if !actionsEqual(ra.hunks[idx-ra.start].Action, rb.hunks[idx-rb.start].Action) {
			return true
		}
	}
	return false
}

// shiftingOverlap compares two shifting ranges. Two Removes intersect
// unless they remove exactly the same span (removing different indices
// is order-sensitive, since each shifts what the other's index refers
// to). Two Insert/Clone ranges intersect only if they land at the exact
// same span with differing payloads (inserting at different indices
// composes cleanly). A Remove against an Insert/Clone touching
// overlapping index territory is conservatively flagged as intersecting,
// since spec.md §4.6 does not enumerate that combination explicitly.
func shiftingOverlap(ra, rb pathRange) bool {
	if ra.kind != rb.kind {
		lo, hi := max(ra.start, rb.start), min(ra.end, rb.end)
		return lo < hi
	}
	if ra.kind == shiftRemove {
		return ra.start != rb.start || ra.end != rb.end
	}
	if ra.start != rb.start || ra.end != rb.end {
		return false
	}
	for i := range ra.hunks {
		if !actionsEqual(ra.hunks[i].Action, rb.hunks[i].Action) {
			return true
		}
	}
	return false
}

func actionsEqual(a, b patch.Action) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case patch.ActionUpdate, patch.ActionInsert:
		return value.Equal(a.Value(), b.Value())
	case patch.ActionSwap, patch.ActionClone:
		return a.Other().Equal(b.Other())
	case patch.ActionUpdateText:
		return textOpsEqual(a.TextOps(), b.TextOps())
	default: // Remove
		return true
	}
}

func textOpsEqual(a, b []textdiff.DiffOp) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
