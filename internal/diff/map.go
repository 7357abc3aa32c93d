package diff

import (
	"github.com/thehowl/semdiff/internal/patch"
	"github.com/thehowl/semdiff/internal/value"
)

// diffMap implements C3: key-level diff between two Maps. Removals and
// recursive diffs over keys present in base are emitted first (sorted for
// determinism), then additions for keys only present in target (sorted).
// On maps, Update and Insert are interchangeable for a new key; Update is
// used uniformly so appliers need only one code path for "set this key".
func (d *Differ) diffMap(path patch.Path, base, target value.Value) patch.Patch {
	var out patch.Patch

	baseEntries := base.Entries()
	targetEntries := target.Entries()

	for _, k := range base.SortedKeys() {
		childPath := path.Append(patch.Name(k))
		if d.ignored(childPath) {
			continue
		}
		tv, ok := targetEntries[k]
		if !ok {
			out = append(out, patch.Hunk{Path: childPath.Copy(), Action: patch.RemoveAction()})
			continue
		}
		out = append(out, d.diff(childPath, baseEntries[k], tv)...)
	}

	for _, k := range target.SortedKeys() {
		if _, ok := baseEntries[k]; ok {
			continue
		}
		childPath := path.Append(patch.Name(k))
		if d.ignored(childPath) {
			continue
		}
		out = append(out, patch.Hunk{Path: childPath.Copy(), Action: patch.UpdateAction(targetEntries[k])})
	}

	return out
}
