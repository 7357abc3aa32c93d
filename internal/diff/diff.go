// Package diff implements the top-level differ (C6), the map differ (C3),
// and the array differ (C5): given a base and target value.Value, it
// produces the minimal ordered patch.Patch that transforms one into the
// other.
package diff

import (
	"github.com/thehowl/semdiff/internal/patch"
	"github.com/thehowl/semdiff/internal/textdiff"
	"github.com/thehowl/semdiff/internal/value"
)

// TextDiffThreshold is the combined old+new string length above which the
// top-level differ emits an UpdateText (line-level) hunk instead of a flat
// Update, per spec.md §4.1. The spec leaves the exact constant to
// implementers, suggesting 4096.
const TextDiffThreshold = 4096

// Differ computes patches between value.Value trees. The zero value, via
// New, is ready to use; WithRationalize and WithIgnoredPaths configure the
// two behaviors supplemented from original_source/ (process.rs's cost
// comparison and mismatch.rs's ignore-path filtering) that spec.md's
// distillation dropped but does not forbid.
type Differ struct {
	rationalize bool
	ignore      []patch.Path
}

// New returns a Differ with default behavior: no rationalization, no
// ignored paths.
func New() *Differ { return &Differ{} }

// WithRationalize enables cost-based collapsing: after diffing a map or
// array subtree, if the wire-encoded size of the emitted hunks exceeds the
// wire-encoded size of a single whole-subtree Update, the subtree's hunks
// are replaced by that one Update. Mirrors meekmichael-jsondiff's
// rationalizeLastOps / the original Rust implementation's process.rs cost
// comparison.
func (d *Differ) WithRationalize() *Differ {
	d.rationalize = true
	return d
}

// WithIgnoredPaths marks paths (and everything beneath them) as excluded
// from diffing: the top-level and map differs emit no hunks at or below
// an ignored path. The array differ does not check its element indices
// against the list, so an ignored path that ends in an array index can
// still receive Insert, Remove, Swap, Update or UpdateText hunks.
func (d *Differ) WithIgnoredPaths(paths ...patch.Path) *Differ {
	d.ignore = append(d.ignore, paths...)
	return d
}

// Diff is a convenience entry point equivalent to New().Diff(base, target).
func Diff(base, target value.Value) patch.Patch {
	return New().Diff(base, target)
}

// Diff computes the patch that transforms base into target.
func (d *Differ) Diff(base, target value.Value) patch.Patch {
	return d.diff(patch.Path{}, base, target)
}

func (d *Differ) diff(path patch.Path, base, target value.Value) patch.Patch {
	if d.ignored(path) {
		return nil
	}
	if !value.Comparable(base, target) {
		return patch.Patch{}.Append(path, patch.UpdateAction(target))
	}
	if value.Equal(base, target) {
		return nil
	}

	switch base.Kind() {
	case value.KindString:
		if len(base.StringValue())+len(target.StringValue()) > TextDiffThreshold {
			ops := textdiff.Diff(base.StringValue(), target.StringValue())
			return patch.Patch{}.Append(path, patch.UpdateTextAction(ops))
		}
		return patch.Patch{}.Append(path, patch.UpdateAction(target))
	case value.KindMap:
		return d.rationalizeMaybe(path, target, d.diffMap(path, base, target))
	case value.KindArray:
		return d.rationalizeMaybe(path, target, d.diffArray(path, base, target))
	default:
		// Null, Boolean, Numeric: comparable, unequal -> replace.
		return patch.Patch{}.Append(path, patch.UpdateAction(target))
	}
}

func (d *Differ) rationalizeMaybe(path patch.Path, target value.Value, sub patch.Patch) patch.Patch {
	if !d.rationalize || len(sub) == 0 {
		return sub
	}
	subBytes, err := patch.Marshal(sub)
	if err != nil {
		return sub
	}
	single := patch.Patch{}.Append(path, patch.UpdateAction(target))
	singleBytes, err := patch.Marshal(single)
	if err != nil {
		return sub
	}
	if len(subBytes) > len(singleBytes) {
		return single
	}
	return sub
}

func (d *Differ) ignored(p patch.Path) bool {
	for _, ig := range d.ignore {
		if pathHasPrefix(p, ig) {
			return true
		}
	}
	return false
}

func pathHasPrefix(p, prefix patch.Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if !p[i].Equal(prefix[i]) {
			return false
		}
	}
	return true
}
