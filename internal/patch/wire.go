package patch

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/thehowl/semdiff/internal/textdiff"
	"github.com/thehowl/semdiff/internal/value"
)

// jsonAPI mirrors encoding/json's behavior (including respecting
// Value's own MarshalJSON/UnmarshalJSON) but with jsoniter's faster
// reflection-free codegen path, matching the dependency the rest of the
// retrieved pack already resolves transitively.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type wireElement struct {
	N *string `json:"n,omitempty"`
	I *int    `json:"i,omitempty"`
}

func toWireElement(e Element) wireElement {
	if e.Kind() == ElementName {
		n := e.NameValue()
		return wireElement{N: &n}
	}
	i := e.IndexValue()
	return wireElement{I: &i}
}

func fromWireElement(w wireElement) (Element, error) {
	switch {
	case w.N != nil:
		return Name(*w.N), nil
	case w.I != nil:
		return Index(*w.I), nil
	default:
		return Element{}, fmt.Errorf("%w: path element has neither n nor i", ErrDecode)
	}
}

type wireDiffOp struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Pos   int    `json:"pos,omitempty"`
	Value string `json:"value,omitempty"`
}

func toWireDiffOp(op textdiff.DiffOp) wireDiffOp {
	w := wireDiffOp{Index: op.Index, Pos: op.Pos, Value: op.Value}
	switch op.Kind {
	case textdiff.OpRemove:
		w.Type = "remove"
	case textdiff.OpInsert:
		w.Type = "insert"
	case textdiff.OpUpdate:
		w.Type = "update"
	case textdiff.OpAppend:
		w.Type = "append"
	}
	return w
}

func fromWireDiffOp(w wireDiffOp) (textdiff.DiffOp, error) {
	switch w.Type {
	case "remove":
		return textdiff.Remove(w.Index), nil
	case "insert":
		return textdiff.Insert(w.Index, w.Value), nil
	case "update":
		return textdiff.Update(w.Index, w.Value), nil
	case "append":
		return textdiff.Append(w.Index, w.Pos, w.Value), nil
	default:
		return textdiff.DiffOp{}, fmt.Errorf("%w: unknown diff op type %q", ErrDecode, w.Type)
	}
}

type wireAction struct {
	Type  string        `json:"type"`
	Value *value.Value  `json:"value,omitempty"`
	Ops   []wireDiffOp  `json:"ops,omitempty"`
	Other *wireElement  `json:"other,omitempty"`
}

func toWireAction(a Action) wireAction {
	w := wireAction{Type: a.Kind().String()}
	switch a.Kind() {
	case ActionUpdate, ActionInsert:
		v := a.Value()
		w.Value = &v
	case ActionUpdateText:
		ops := a.TextOps()
		w.Ops = make([]wireDiffOp, len(ops))
		for i, op := range ops {
			w.Ops[i] = toWireDiffOp(op)
		}
	case ActionSwap, ActionClone:
		other := toWireElement(a.Other())
		w.Other = &other
	}
	return w
}

func fromWireAction(w wireAction) (Action, error) {
	switch w.Type {
	case "remove":
		return RemoveAction(), nil
	case "update":
		if w.Value == nil {
			return Action{}, fmt.Errorf("%w: update action missing value", ErrDecode)
		}
		return UpdateAction(*w.Value), nil
	case "update_text":
		ops := make([]textdiff.DiffOp, len(w.Ops))
		for i, wop := range w.Ops {
			op, err := fromWireDiffOp(wop)
			if err != nil {
				return Action{}, err
			}
			ops[i] = op
		}
		return UpdateTextAction(ops), nil
	case "insert":
		if w.Value == nil {
			return Action{}, fmt.Errorf("%w: insert action missing value", ErrDecode)
		}
		return InsertAction(*w.Value), nil
	case "swap", "clone":
		if w.Other == nil {
			return Action{}, fmt.Errorf("%w: %s action missing other", ErrDecode, w.Type)
		}
		other, err := fromWireElement(*w.Other)
		if err != nil {
			return Action{}, err
		}
		if w.Type == "swap" {
			return SwapAction(other), nil
		}
		return CloneAction(other), nil
	default:
		return Action{}, fmt.Errorf("%w: unknown action type %q", ErrDecode, w.Type)
	}
}

type wireHunk struct {
	P []wireElement `json:"p"`
	V wireAction    `json:"v"`
}

// Marshal encodes p in the wire format of spec.md §6: a JSON array of
// {p: path, v: action} records.
func Marshal(p Patch) ([]byte, error) {
	wire := make([]wireHunk, len(p))
	for i, h := range p {
		wp := make([]wireElement, len(h.Path))
		for j, e := range h.Path {
			wp[j] = toWireElement(e)
		}
		wire[i] = wireHunk{P: wp, V: toWireAction(h.Action)}
	}
	return jsonAPI.Marshal(wire)
}

// Unmarshal decodes data (as produced by Marshal) back into a Patch.
func Unmarshal(data []byte) (Patch, error) {
	var wire []wireHunk
	if err := jsonAPI.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	out := make(Patch, len(wire))
	for i, wh := range wire {
		path := make(Path, len(wh.P))
		for j, we := range wh.P {
			e, err := fromWireElement(we)
			if err != nil {
				return nil, err
			}
			path[j] = e
		}
		action, err := fromWireAction(wh.V)
		if err != nil {
			return nil, err
		}
		out[i] = Hunk{Path: path, Action: action}
	}
	return out, nil
}
