// Package apply implements C7: applying a patch.Patch to a value.Value,
// either failing on the first bad hunk or collecting every error while
// still applying every hunk that succeeds.
package apply

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/thehowl/semdiff/internal/patch"
	"github.com/thehowl/semdiff/internal/textdiff"
	"github.com/thehowl/semdiff/internal/value"
)

// Mode selects fail-fast or collect error handling (spec.md §5).
type Mode uint8

const (
	// FailFast stops and returns the first hunk error; the document as of
	// the last successfully applied hunk is still returned alongside it.
	FailFast Mode = iota
	// Collect applies every hunk it can, skipping ones that error, and
	// returns every error joined together via go.uber.org/multierr.
	Collect
)

// Apply runs every hunk of p against root in order, per mode.
func Apply(root value.Value, p patch.Patch, mode Mode) (value.Value, error) {
	cur := root
	var errs error
	for i, h := range p {
		next, err := applyHunk(cur, h.Path, h.Action)
		if err != nil {
			wrapped := fmt.Errorf("hunk %d (%s): %w", i, h.Path.String(), err)
			if mode == FailFast {
				return cur, wrapped
			}
			errs = multierr.Append(errs, wrapped)
			continue
		}
		cur = next
	}
	return cur, errs
}

func applyHunk(root value.Value, path patch.Path, action patch.Action) (value.Value, error) {
	if len(path) == 0 {
		switch action.Kind() {
		case patch.ActionUpdate:
			return action.Value(), nil
		case patch.ActionUpdateText:
			if root.Kind() != value.KindString {
				return root, fmt.Errorf("$: %w", patch.ErrOperandKindMismatch)
			}
			newStr, err := textdiff.Apply(root.StringValue(), action.TextOps())
			if err != nil {
				return root, wrapTextErr("$", err)
			}
			return value.String(newStr), nil
		default:
			return root, fmt.Errorf("$: %w", patch.ErrPathMissing)
		}
	}

	parentPath, last := path.Parent()
	parent, err := get(root, parentPath)
	if err != nil {
		return root, err
	}
	newParent, err := applyAtParent(parent, last, action)
	if err != nil {
		return root, err
	}
	return setAt(root, parentPath, newParent), nil
}

// get walks path from v, read-only.
func get(v value.Value, path patch.Path) (value.Value, error) {
	cur := v
	for _, e := range path {
		switch e.Kind() {
		case patch.ElementName:
			if cur.Kind() != value.KindMap {
				return value.Value{}, fmt.Errorf("%s: %w", e.String(), patch.ErrPathTypeMismatch)
			}
			child, ok := cur.Entries()[e.NameValue()]
			if !ok {
				return value.Value{}, fmt.Errorf("%s: %w", e.String(), patch.ErrPathMissing)
			}
			cur = child
		case patch.ElementIndex:
			if cur.Kind() != value.KindArray {
				return value.Value{}, fmt.Errorf("[%s]: %w", e.String(), patch.ErrPathTypeMismatch)
			}
			els := cur.Elements()
			idx := e.IndexValue()
			if idx < 0 || idx >= len(els) {
				return value.Value{}, fmt.Errorf("[%d]: %w", idx, patch.ErrPathMissing)
			}
			cur = els[idx]
		}
	}
	return cur, nil
}

// setAt rebuilds v with the value at path replaced by newChild. path must
// already have been validated by a prior get call.
func setAt(v value.Value, path patch.Path, newChild value.Value) value.Value {
	if len(path) == 0 {
		return newChild
	}
	e := path[0]
	rest := path[1:]
	if e.Kind() == patch.ElementName {
		child := v.Entries()[e.NameValue()]
		return setMapKey(v, e.NameValue(), setAt(child, rest, newChild))
	}
	idx := e.IndexValue()
	child := v.Elements()[idx]
	return setArrayIndex(v, idx, setAt(child, rest, newChild))
}

func applyAtParent(parent value.Value, last patch.Element, action patch.Action) (value.Value, error) {
	switch last.Kind() {
	case patch.ElementName:
		return applyMapLeaf(parent, last.NameValue(), action)
	case patch.ElementIndex:
		return applyArrayLeaf(parent, last.IndexValue(), action)
	default:
		return parent, fmt.Errorf("%w", patch.ErrDecode)
	}
}

func applyMapLeaf(parent value.Value, key string, action patch.Action) (value.Value, error) {
	if parent.Kind() != value.KindMap {
		return parent, fmt.Errorf(".%s: %w", key, patch.ErrPathTypeMismatch)
	}
	switch action.Kind() {
	case patch.ActionRemove:
		if _, ok := parent.Entries()[key]; !ok {
			return parent, fmt.Errorf(".%s: %w", key, patch.ErrPathMissing)
		}
		return deleteMapKey(parent, key), nil
	case patch.ActionUpdate, patch.ActionInsert:
		return setMapKey(parent, key, action.Value()), nil
	case patch.ActionUpdateText:
		cur, ok := parent.Entries()[key]
		if !ok {
			return parent, fmt.Errorf(".%s: %w", key, patch.ErrPathMissing)
		}
		if cur.Kind() != value.KindString {
			return parent, fmt.Errorf(".%s: %w", key, patch.ErrOperandKindMismatch)
		}
		newStr, err := textdiff.Apply(cur.StringValue(), action.TextOps())
		if err != nil {
			return parent, wrapTextErr("."+key, err)
		}
		return setMapKey(parent, key, value.String(newStr)), nil
	case patch.ActionSwap:
		other := action.Other()
		if other.Kind() != patch.ElementName {
			return parent, fmt.Errorf(".%s: %w", key, patch.ErrOperandKindMismatch)
		}
		a, ok1 := parent.Entries()[key]
		b, ok2 := parent.Entries()[other.NameValue()]
		switch {
		case ok1 && ok2:
			return setMapKey(setMapKey(parent, key, b), other.NameValue(), a), nil
		case ok1 && !ok2:
			// Missing source: the swap degrades to a move, key's value
			// relocates to other and key becomes absent.
			return setMapKey(deleteMapKey(parent, key), other.NameValue(), a), nil
		case !ok1 && ok2:
			return setMapKey(deleteMapKey(parent, other.NameValue()), key, b), nil
		default:
			return parent, fmt.Errorf(".%s: %w", key, patch.ErrPathMissing)
		}
	case patch.ActionClone:
		other := action.Other()
		if other.Kind() != patch.ElementName {
			return parent, fmt.Errorf(".%s: %w", key, patch.ErrOperandKindMismatch)
		}
		src, ok := parent.Entries()[other.NameValue()]
		if !ok {
			return parent, fmt.Errorf(".%s: %w", key, patch.ErrPathMissing)
		}
		return setMapKey(parent, key, src), nil
	default:
		return parent, fmt.Errorf(".%s: %w", key, patch.ErrDecode)
	}
}

func applyArrayLeaf(parent value.Value, idx int, action patch.Action) (value.Value, error) {
	if parent.Kind() != value.KindArray {
		return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrPathTypeMismatch)
	}
	els := parent.Elements()
	switch action.Kind() {
	case patch.ActionRemove:
		if idx < 0 || idx >= len(els) {
			return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrPathMissing)
		}
		return removeArrayIndex(parent, idx), nil
	case patch.ActionUpdate:
		if idx < 0 || idx >= len(els) {
			return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrPathMissing)
		}
		return setArrayIndex(parent, idx, action.Value()), nil
	case patch.ActionUpdateText:
		if idx < 0 || idx >= len(els) {
			return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrPathMissing)
		}
		cur := els[idx]
		if cur.Kind() != value.KindString {
			return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrOperandKindMismatch)
		}
		newStr, err := textdiff.Apply(cur.StringValue(), action.TextOps())
		if err != nil {
			return parent, wrapTextErr(fmt.Sprintf("[%d]", idx), err)
		}
		return setArrayIndex(parent, idx, value.String(newStr)), nil
	case patch.ActionInsert:
		if idx < 0 || idx > len(els) {
			return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrPathMissing)
		}
		return insertArrayIndex(parent, idx, action.Value()), nil
	case patch.ActionSwap:
		other := action.Other()
		if other.Kind() != patch.ElementIndex {
			return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrOperandKindMismatch)
		}
		oi := other.IndexValue()
		if idx < 0 || idx >= len(els) || oi < 0 || oi >= len(els) {
			return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrPathMissing)
		}
		cp := append([]value.Value(nil), els...)
		cp[idx], cp[oi] = cp[oi], cp[idx]
		return value.Array(cp), nil
	case patch.ActionClone:
		other := action.Other()
		if other.Kind() != patch.ElementIndex {
			return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrOperandKindMismatch)
		}
		oi := other.IndexValue()
		if oi < 0 || oi >= len(els) {
			return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrPathMissing)
		}
		if idx < 0 || idx > len(els) {
			return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrPathMissing)
		}
		return insertArrayIndex(parent, idx, els[oi]), nil
	default:
		return parent, fmt.Errorf("[%d]: %w", idx, patch.ErrDecode)
	}
}

func wrapTextErr(loc string, err error) error {
	switch {
	case errors.Is(err, textdiff.ErrOutOfBounds):
		return fmt.Errorf("%s: %w", loc, patch.ErrTextApplyOutOfBounds)
	case errors.Is(err, textdiff.ErrEOLInAppend):
		return fmt.Errorf("%s: %w", loc, patch.ErrTextApplyEOLInAppend)
	default:
		return fmt.Errorf("%s: %w", loc, err)
	}
}

func setMapKey(v value.Value, key string, newVal value.Value) value.Value {
	src := v.Entries()
	cp := make(map[string]value.Value, len(src)+1)
	for k, vv := range src {
		cp[k] = vv
	}
	cp[key] = newVal
	return value.Map(cp)
}

func deleteMapKey(v value.Value, key string) value.Value {
	src := v.Entries()
	cp := make(map[string]value.Value, len(src))
	for k, vv := range src {
		if k != key {
			cp[k] = vv
		}
	}
	return value.Map(cp)
}

func setArrayIndex(v value.Value, idx int, newVal value.Value) value.Value {
	src := v.Elements()
	cp := append([]value.Value(nil), src...)
	cp[idx] = newVal
	return value.Array(cp)
}

func removeArrayIndex(v value.Value, idx int) value.Value {
	src := v.Elements()
	cp := make([]value.Value, 0, len(src)-1)
	cp = append(cp, src[:idx]...)
	cp = append(cp, src[idx+1:]...)
	return value.Array(cp)
}

func insertArrayIndex(v value.Value, idx int, newVal value.Value) value.Value {
	src := v.Elements()
	cp := make([]value.Value, 0, len(src)+1)
	cp = append(cp, src[:idx]...)
	cp = append(cp, newVal)
	cp = append(cp, src[idx:]...)
	return value.Array(cp)
}
