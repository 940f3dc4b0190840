package operation

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

// ErrInvalidJSON indicates input that does not decode to an operation.
var ErrInvalidJSON = errors.New("invalid operation JSON")

func wireProps(p node.Props) node.Props {
	if p == nil {
		return node.Props{}
	}
	return p
}

func wirePath(p location.Path) location.Path {
	if p == nil {
		return location.Path{}
	}
	return p
}

// MarshalJSON implements json.Marshaler.
func (o InsertNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Type          `json:"type"`
		Path location.Path `json:"path"`
		Node node.Node     `json:"node"`
	}{o.Type(), wirePath(o.Path), o.Node})
}

// MarshalJSON implements json.Marshaler.
func (o RemoveNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Type          `json:"type"`
		Path location.Path `json:"path"`
		Node node.Node     `json:"node"`
	}{o.Type(), wirePath(o.Path), o.Node})
}

type textJSON struct {
	Type   Type          `json:"type"`
	Path   location.Path `json:"path"`
	Offset int           `json:"offset"`
	Text   string        `json:"text"`
}

// MarshalJSON implements json.Marshaler.
func (o InsertText) MarshalJSON() ([]byte, error) {
	return json.Marshal(textJSON{o.Type(), wirePath(o.Path), o.Offset, o.Text})
}

// MarshalJSON implements json.Marshaler.
func (o RemoveText) MarshalJSON() ([]byte, error) {
	return json.Marshal(textJSON{o.Type(), wirePath(o.Path), o.Offset, o.Text})
}

type positionJSON struct {
	Type       Type          `json:"type"`
	Path       location.Path `json:"path"`
	Position   int           `json:"position"`
	Properties node.Props    `json:"properties"`
}

// MarshalJSON implements json.Marshaler.
func (o MergeNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(positionJSON{o.Type(), wirePath(o.Path), o.Position, wireProps(o.Properties)})
}

// MarshalJSON implements json.Marshaler.
func (o SplitNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(positionJSON{o.Type(), wirePath(o.Path), o.Position, wireProps(o.Properties)})
}

// MarshalJSON implements json.Marshaler.
func (o MoveNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    Type          `json:"type"`
		Path    location.Path `json:"path"`
		NewPath location.Path `json:"newPath"`
	}{o.Type(), wirePath(o.Path), wirePath(o.NewPath)})
}

// MarshalJSON implements json.Marshaler.
func (o SetNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type          Type          `json:"type"`
		Path          location.Path `json:"path"`
		Properties    node.Props    `json:"properties"`
		NewProperties node.Props    `json:"newProperties"`
	}{o.Type(), wirePath(o.Path), wireProps(o.Properties), wireProps(o.NewProperties)})
}

// MarshalJSON implements json.Marshaler.
func (s *SelectionProps) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Anchor *location.Point `json:"anchor,omitempty"`
		Focus  *location.Point `json:"focus,omitempty"`
	}{s.Anchor, s.Focus})
}

// MarshalJSON implements json.Marshaler.
func (o SetSelection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type          Type            `json:"type"`
		Properties    *SelectionProps `json:"properties"`
		NewProperties *SelectionProps `json:"newProperties"`
	}{o.Type(), o.Properties, o.NewProperties})
}

// Marshal encodes op in its wire form.
func Marshal(op Operation) ([]byte, error) {
	if op == nil {
		return nil, errors.Wrap(ErrUnknownOperation, "nil operation")
	}
	return json.Marshal(op)
}

// Unmarshal decodes one operation from its wire form. Unknown keys are
// ignored.
func Unmarshal(data []byte) (Operation, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return FromResult(gjson.ParseBytes(data))
}

// FromResult decodes one operation from an already parsed gjson value.
func FromResult(res gjson.Result) (Operation, error) {
	if !res.IsObject() {
		return nil, errors.Wrap(ErrInvalidJSON, "operation must be an object")
	}
	typ := Type(res.Get("type").String())

	if typ == TypeSetSelection {
		before, err := selectionFromResult(res.Get("properties"))
		if err != nil {
			return nil, errors.Wrap(err, "properties")
		}
		after, err := selectionFromResult(res.Get("newProperties"))
		if err != nil {
			return nil, errors.Wrap(err, "newProperties")
		}
		return SetSelection{Properties: before, NewProperties: after}, nil
	}

	p, err := pathFromResult(res.Get("path"))
	if err != nil {
		return nil, errors.Wrapf(err, "%s path", typ)
	}

	switch typ {
	case TypeInsertNode, TypeRemoveNode:
		n, err := node.FromResult(res.Get("node"))
		if err != nil {
			return nil, errors.Wrapf(err, "%s node", typ)
		}
		if typ == TypeInsertNode {
			return InsertNode{Path: p, Node: n}, nil
		}
		return RemoveNode{Path: p, Node: n}, nil

	case TypeInsertText, TypeRemoveText:
		offset := res.Get("offset")
		if offset.Type != gjson.Number {
			return nil, errors.Wrapf(ErrInvalidJSON, "%s offset", typ)
		}
		text := res.Get("text").String()
		if typ == TypeInsertText {
			return InsertText{Path: p, Offset: int(offset.Int()), Text: text}, nil
		}
		return RemoveText{Path: p, Offset: int(offset.Int()), Text: text}, nil

	case TypeMergeNode, TypeSplitNode:
		position := res.Get("position")
		if position.Type != gjson.Number {
			return nil, errors.Wrapf(ErrInvalidJSON, "%s position", typ)
		}
		pr := node.PropsFromResult(res.Get("properties"))
		if typ == TypeMergeNode {
			return MergeNode{Path: p, Position: int(position.Int()), Properties: pr}, nil
		}
		return SplitNode{Path: p, Position: int(position.Int()), Properties: pr}, nil

	case TypeMoveNode:
		np, err := pathFromResult(res.Get("newPath"))
		if err != nil {
			return nil, errors.Wrap(err, "move_node newPath")
		}
		return MoveNode{Path: p, NewPath: np}, nil

	case TypeSetNode:
		return SetNode{
			Path:          p,
			Properties:    node.PropsFromResult(res.Get("properties")),
			NewProperties: node.PropsFromResult(res.Get("newProperties")),
		}, nil
	}

	return nil, errors.Wrapf(ErrUnknownOperation, "type %q", typ)
}

func pathFromResult(res gjson.Result) (location.Path, error) {
	if !res.IsArray() {
		return nil, errors.Wrap(ErrInvalidJSON, "path must be an array")
	}
	items := res.Array()
	out := make(location.Path, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.Number || item.Int() < 0 {
			return nil, errors.Wrap(ErrInvalidJSON, "path index must be a non-negative integer")
		}
		out = append(out, int(item.Int()))
	}
	return out, nil
}

// PointFromResult decodes a {path, offset} object.
func PointFromResult(res gjson.Result) (location.Point, error) {
	if !res.IsObject() {
		return location.Point{}, errors.Wrap(ErrInvalidJSON, "point must be an object")
	}
	p, err := pathFromResult(res.Get("path"))
	if err != nil {
		return location.Point{}, err
	}
	offset := res.Get("offset")
	if offset.Type != gjson.Number {
		return location.Point{}, errors.Wrap(ErrInvalidJSON, "point offset")
	}
	return location.Point{Path: p, Offset: int(offset.Int())}, nil
}

func selectionFromResult(res gjson.Result) (*SelectionProps, error) {
	if !res.Exists() || res.Type == gjson.Null {
		return nil, nil
	}
	if !res.IsObject() {
		return nil, errors.Wrap(ErrInvalidJSON, "selection must be an object or null")
	}
	out := &SelectionProps{}
	if a := res.Get("anchor"); a.Exists() && a.Type != gjson.Null {
		pt, err := PointFromResult(a)
		if err != nil {
			return nil, errors.Wrap(err, "anchor")
		}
		out.Anchor = &pt
	}
	if f := res.Get("focus"); f.Exists() && f.Type != gjson.Null {
		pt, err := PointFromResult(f)
		if err != nil {
			return nil, errors.Wrap(err, "focus")
		}
		out.Focus = &pt
	}
	return out, nil
}
