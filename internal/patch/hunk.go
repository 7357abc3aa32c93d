package patch

import (
	"github.com/thehowl/semdiff/internal/textdiff"
	"github.com/thehowl/semdiff/internal/value"
)

// ActionKind identifies a HunkAction variant.
type ActionKind uint8

const (
	ActionRemove ActionKind = iota
	ActionUpdate
	ActionUpdateText
	ActionInsert
	ActionSwap
	ActionClone
)

func (k ActionKind) String() string {
	switch k {
	case ActionRemove:
		return "remove"
	case ActionUpdate:
		return "update"
	case ActionUpdateText:
		return "update_text"
	case ActionInsert:
		return "insert"
	case ActionSwap:
		return "swap"
	case ActionClone:
		return "clone"
	default:
		return "invalid"
	}
}

// Action is the tagged edit an individual Hunk performs at its Path: delete,
// replace, replace-via-text-diff, insert, exchange with another location,
// or copy from another location (spec.md §3 HunkAction).
type Action struct {
	kind    ActionKind
	value   value.Value
	textOps []textdiff.DiffOp
	other   Element
}

func RemoveAction() Action { return Action{kind: ActionRemove} }

func UpdateAction(v value.Value) Action { return Action{kind: ActionUpdate, value: v} }

func UpdateTextAction(ops []textdiff.DiffOp) Action {
	return Action{kind: ActionUpdateText, textOps: ops}
}

func InsertAction(v value.Value) Action { return Action{kind: ActionInsert, value: v} }

// SwapAction exchanges the hunk's target with other. On arrays other must
// be an Index element; on maps, a Name.
func SwapAction(other Element) Action { return Action{kind: ActionSwap, other: other} }

// CloneAction copies the value found at other into the hunk's target.
func CloneAction(other Element) Action { return Action{kind: ActionClone, other: other} }

func (a Action) Kind() ActionKind              { return a.kind }
func (a Action) Value() value.Value            { return a.value }
func (a Action) TextOps() []textdiff.DiffOp    { return a.textOps }
func (a Action) Other() Element                { return a.other }

// Hunk is a single edit step: a Path plus the Action to perform there.
type Hunk struct {
	Path   Path
	Action Action
}

// Patch is an ordered sequence of Hunks. Order is significant: later hunks
// observe the effects (including index shifts) of earlier ones.
type Patch []Hunk

// Append returns a new Patch with a Hunk appended at path (copied) with
// action.
func (p Patch) Append(path Path, action Action) Patch {
	return append(p, Hunk{Path: path.Copy(), Action: action})
}
