package node

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRoot(t *testing.T) {
	data := []byte(`[{"type":"paragraph","align":"center","children":[{"text":"Hi","bold":true},{"type":"image","url":"a.png","children":[{"text":""}]},{"text":""}]}]`)
	root, err := ParseRoot(data)
	if err != nil {
		t.Fatalf("ParseRoot() error = %v", err)
	}
	p, ok := root.Children[0].(*Element)
	if !ok {
		t.Fatalf("child 0 = %T, want *Element", root.Children[0])
	}
	if p.Type != "paragraph" || p.Props["align"] != "center" {
		t.Errorf("paragraph = %+v", p)
	}
	if _, ok := p.Props["type"]; ok {
		t.Error(`Props contains "type"`)
	}
	leaf := p.Children[0].(*Text)
	if leaf.Text != "Hi" || leaf.Marks["bold"] != true {
		t.Errorf("leaf = %+v", leaf)
	}

	wrapped, err := ParseRoot([]byte(`{"children":[{"type":"p","children":[{"text":"x"}]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if String(wrapped) != "x" {
		t.Errorf("String() = %q", String(wrapped))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		`not json`,
		`{"foo":1}`,
		`{"text":3}`,
		`[{"type":"p","children":[1]}]`,
	}
	for _, in := range tests {
		var err error
		if in[0] == '[' {
			_, err = ParseNodes([]byte(in))
		} else {
			_, err = Parse([]byte(in))
		}
		if !errors.Is(err, ErrInvalidJSON) {
			t.Errorf("Parse(%s) error = %v, want ErrInvalidJSON", in, err)
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	root := NewRoot(
		NewElement("paragraph", Props{"align": "left"},
			NewText("a", Props{"bold": true}),
		),
	)
	data, err := json.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"children":[{"align":"left","children":[{"bold":true,"text":"a"}],"type":"paragraph"}]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
	var back Root
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !Equal(root, &back) {
		t.Error("round trip changed the tree")
	}
}
