package node

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ErrInvalidJSON indicates input that is not a JSON node, node list or
// document.
var ErrInvalidJSON = errors.New("invalid node JSON")

// MarshalJSON encodes t as {"text": ..., <marks>}.
func (t *Text) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(t.Marks)+1)
	for k, v := range t.Marks {
		m[k] = v
	}
	m["text"] = t.Text
	return json.Marshal(m)
}

// MarshalJSON encodes e as {"type": ..., "children": [...], <props>}.
func (e *Element) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Props)+2)
	for k, v := range e.Props {
		m[k] = v
	}
	if e.Type != "" {
		m["type"] = e.Type
	}
	kids := e.Children
	if kids == nil {
		kids = []Node{}
	}
	m["children"] = kids
	return json.Marshal(m)
}

// MarshalJSON encodes r as {"children": [...]}.
func (r *Root) MarshalJSON() ([]byte, error) {
	kids := r.Children
	if kids == nil {
		kids = []Node{}
	}
	return json.Marshal(struct {
		Children []Node `json:"children"`
	}{kids})
}

// UnmarshalJSON decodes a document given either as {"children": [...]} or
// as a bare array of top-level nodes.
func (r *Root) UnmarshalJSON(data []byte) error {
	root, err := ParseRoot(data)
	if err != nil {
		return err
	}
	*r = *root
	return nil
}

// Parse decodes a single node.
func Parse(data []byte) (Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return FromResult(gjson.ParseBytes(data))
}

// ParseNodes decodes a JSON array of nodes.
func ParseNodes(data []byte) ([]Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return ListFromResult(gjson.ParseBytes(data))
}

// ParseRoot decodes a document given either as {"children": [...]} or as a
// bare array of top-level nodes.
func ParseRoot(data []byte) (*Root, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	res := gjson.ParseBytes(data)
	if res.IsObject() {
		res = res.Get("children")
	}
	kids, err := ListFromResult(res)
	if err != nil {
		return nil, errors.Wrap(err, "document")
	}
	return NewRoot(kids...), nil
}

// FromResult decodes a node from an already parsed gjson value.
func FromResult(res gjson.Result) (Node, error) {
	if !res.IsObject() {
		return nil, errors.Wrapf(ErrInvalidJSON, "expected object, got %s", res.Type)
	}

	if text := res.Get("text"); text.Exists() {
		if text.Type != gjson.String {
			return nil, errors.Wrap(ErrInvalidJSON, "text must be a string")
		}
		marks := propsFromResult(res, "text")
		return &Text{Text: text.String(), Marks: marks}, nil
	}

	children := res.Get("children")
	if !children.Exists() {
		return nil, errors.Wrap(ErrInvalidJSON, `node has neither "text" nor "children"`)
	}
	kids, err := ListFromResult(children)
	if err != nil {
		return nil, errors.Wrap(err, "children")
	}
	typ := res.Get("type")
	if typ.Exists() && typ.Type != gjson.String {
		return nil, errors.Wrap(ErrInvalidJSON, "type must be a string")
	}
	return &Element{
		Type:     typ.String(),
		Children: kids,
		Props:    propsFromResult(res, "type", "children"),
	}, nil
}

// ListFromResult decodes an array of nodes from a parsed gjson value.
func ListFromResult(res gjson.Result) ([]Node, error) {
	if !res.IsArray() {
		return nil, errors.Wrapf(ErrInvalidJSON, "expected array, got %s", res.Type)
	}
	items := res.Array()
	out := make([]Node, 0, len(items))
	for i, item := range items {
		n, err := FromResult(item)
		if err != nil {
			return nil, errors.Wrapf(err, "index %d", i)
		}
		out = append(out, n)
	}
	return out, nil
}

// PropsFromResult decodes a JSON object into Props.
func PropsFromResult(res gjson.Result) Props {
	return propsFromResult(res)
}

func propsFromResult(res gjson.Result, skip ...string) Props {
	var props Props
	res.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		for _, s := range skip {
			if k == s {
				return true
			}
		}
		if props == nil {
			props = Props{}
		}
		props[k] = value.Value()
		return true
	})
	return props
}
