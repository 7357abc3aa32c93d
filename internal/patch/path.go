// Package patch implements the hunk/path/action model of semdiff: the
// addressable location and edit algebra that the differ (internal/diff)
// emits, the applier (internal/apply) consumes, and the intersection
// analyzer (internal/intersect) compares.
package patch

import "strconv"

// ElementKind distinguishes a map-key path element from an array-index one.
type ElementKind uint8

const (
	ElementName ElementKind = iota
	ElementIndex
)

// Element is one step of a Path: either a map key (Name) or an array index
// (Index).
type Element struct {
	kind  ElementKind
	name  string
	index int
}

// Name returns a map-key path element.
func Name(key string) Element { return Element{kind: ElementName, name: key} }

// Index returns an array-index path element.
func Index(i int) Element { return Element{kind: ElementIndex, index: i} }

func (e Element) Kind() ElementKind { return e.kind }
func (e Element) NameValue() string { return e.name }
func (e Element) IndexValue() int   { return e.index }

// Equal reports whether e and o address the same step (same kind and
// payload).
func (e Element) Equal(o Element) bool {
	if e.kind != o.kind {
		return false
	}
	if e.kind == ElementName {
		return e.name == o.name
	}
	return e.index == o.index
}

func (e Element) String() string {
	if e.kind == ElementName {
		return e.name
	}
	return strconv.Itoa(e.index)
}

// Path is an ordered sequence of Elements rooted at the document.
type Path []Element

// Copy returns an independent copy of p, safe to retain in a Hunk while the
// caller keeps mutating its own working path slice.
func (p Path) Copy() Path {
	if len(p) == 0 {
		return nil
	}
	cp := make(Path, len(p))
	copy(cp, p)
	return cp
}

// Append returns a new Path with e appended, without mutating p's backing
// array (safe even when p has spare capacity from a sibling append).
func (p Path) Append(e Element) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = e
	return out
}

// Parent returns p without its final element, and the final element itself.
// Calling Parent on an empty Path panics; only call it after confirming
// len(p) > 0.
func (p Path) Parent() (Path, Element) {
	return p[:len(p)-1], p[len(p)-1]
}

func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	s := "$"
	for _, e := range p {
		if e.kind == ElementName {
			s += "." + e.name
		} else {
			s += "[" + strconv.Itoa(e.index) + "]"
		}
	}
	return s
}
