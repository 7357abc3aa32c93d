package diff

import (
	"github.com/thehowl/semdiff/internal/patch"
	"github.com/thehowl/semdiff/internal/textdiff"
	"github.com/thehowl/semdiff/internal/value"
)

// wsEntry is one slot of the array differ's workspace (spec.md §4.4): the
// content hash currently occupying the slot, plus the index into the
// original base array it descends from (-1 once a slot was synthesized by
// an Insert, since such a slot's hash already equals its target and it
// never needs a compare-apply lookup).
type wsEntry struct {
	hash   uint64
	srcIdx int
}

// diffArray implements C5. It walks target left to right, maintaining a
// workspace mirroring the effect of every hunk emitted so far on the
// (conceptually still-original) base array: a match needs no hunk; a hash
// found further ahead in the workspace is either swapped into place (if
// still needed later) or walked past via repeated Remove; a hash not found
// anywhere ahead falls back to a recursive compare (Map via C3, String via
// C4, else a flat Update) against whatever currently occupies the slot.
// Trailing surplus workspace entries are removed after the walk.
func (d *Differ) diffArray(path patch.Path, base, target value.Value) patch.Patch {
	oldEls := base.Elements()
	newEls := target.Elements()

	workspace := make([]wsEntry, len(oldEls))
	for i, el := range oldEls {
		workspace[i] = wsEntry{hash: value.Hash(el), srcIdx: i}
	}

	// targetIdx records, for each hash, the sorted list of positions that
	// hash occupies in target — used to decide whether a source element
	// still found ahead of the cursor is needed again later (Swap) or can
	// be discarded (Remove).
	targetIdx := make(map[uint64][]int, len(newEls))
	for i, el := range newEls {
		h := value.Hash(el)
		targetIdx[h] = append(targetIdx[h], i)
	}

	futureNeeded := func(h uint64, i int) bool {
		for _, j := range targetIdx[h] {
			if j > i {
				return true
			}
		}
		return false
	}

	var out patch.Patch

	for i := 0; i < len(newEls); i++ {
		newVal := newEls[i]
		newHash := value.Hash(newVal)
		idxPath := path.Append(patch.Index(i))

		// matches uses the hash as a fast path and confirms with Equal, so a
		// hash collision never counts as a match.
		matches := func(e wsEntry) bool {
			return e.hash == newHash && (e.srcIdx < 0 || value.Equal(oldEls[e.srcIdx], newVal))
		}

		if i >= len(workspace) {
			out = append(out, patch.Hunk{Path: idxPath.Copy(), Action: patch.InsertAction(newVal)})
			workspace = append(workspace, wsEntry{hash: newHash, srcIdx: -1})
			continue
		}

		if matches(workspace[i]) {
			continue
		}

		fi := -1
		for k := i + 1; k < len(workspace); k++ {
			if matches(workspace[k]) {
				fi = k
				break
			}
		}

		if fi == -1 {
			out = append(out, d.compareApply(idxPath, oldEls, workspace[i], newVal)...)
			workspace[i].hash = newHash
			continue
		}

		needed := false
		for k := i; k < fi; k++ {
			if futureNeeded(workspace[k].hash, i) {
				needed = true
				break
			}
		}

		if needed {
			out = append(out, patch.Hunk{Path: idxPath.Copy(), Action: patch.SwapAction(patch.Index(fi))})
			workspace[i], workspace[fi] = workspace[fi], workspace[i]
			continue
		}

		for k := 0; k < fi-i; k++ {
			out = append(out, patch.Hunk{Path: idxPath.Copy(), Action: patch.RemoveAction()})
		}
		workspace = append(workspace[:i], workspace[fi:]...)
	}

	for k := len(newEls); k < len(workspace); k++ {
		out = append(out, patch.Hunk{Path: path.Append(patch.Index(len(newEls))).Copy(), Action: patch.RemoveAction()})
	}

	return out
}

// compareApply handles the "hash not found anywhere ahead" case: the slot
// at idxPath keeps its position but its content must change. Only Map and
// String get recursive treatment (C3 / C4); everything else, including a
// nested Array, is replaced wholesale per spec.md §4.4 — the array differ
// does not recurse into itself during compare-apply.
func (d *Differ) compareApply(idxPath patch.Path, oldEls []value.Value, slot wsEntry, newVal value.Value) patch.Patch {
	if slot.srcIdx < 0 {
		return patch.Patch{}.Append(idxPath, patch.UpdateAction(newVal))
	}
	baseVal := oldEls[slot.srcIdx]

	switch {
	case baseVal.Kind() == value.KindMap && newVal.Kind() == value.KindMap:
		return d.diffMap(idxPath, baseVal, newVal)
	case baseVal.Kind() == value.KindString && newVal.Kind() == value.KindString:
		ops := textdiff.Diff(baseVal.StringValue(), newVal.StringValue())
		return patch.Patch{}.Append(idxPath, patch.UpdateTextAction(ops))
	default:
		return patch.Patch{}.Append(idxPath, patch.UpdateAction(newVal))
	}
}
