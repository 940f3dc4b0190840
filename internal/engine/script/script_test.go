package script

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/schema"
)

func text(s string) *node.Text { return node.NewText(s, nil) }

func el(typ string, children ...node.Node) *node.Element {
	return node.NewElement(typ, nil, children...)
}

func TestStateSandbox(t *testing.T) {
	s := NewState()
	defer s.Close()

	require.NoError(t, s.DoString(`
		assert(io == nil, "io")
		assert(os == nil, "os")
		assert(debug == nil, "debug")
		assert(require == nil, "require")
		assert(dofile == nil and loadfile == nil and load == nil, "loaders")
		assert(string.upper("x") == "X")
		assert(math.max(1, 2) == 2)
		assert(#table.concat({"a", "b"}) == 2)
		print("discarded")
	`))
}

func TestStateTimeout(t *testing.T) {
	s := NewState(WithExecutionTimeout(50 * time.Millisecond))
	defer s.Close()

	err := s.DoString(`while true do end`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecutionTimeout)
}

func TestStateClosed(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, s.IsClosed())
	assert.ErrorIs(t, s.DoString(`x = 1`), ErrStateClosed)
	_, err := s.Load("x", `return 1`)
	assert.ErrorIs(t, err, ErrStateClosed)
	assert.Equal(t, lua.LNil, s.GetGlobal("x"))
}

func TestBridgeConversions(t *testing.T) {
	s := NewState()
	defer s.Close()
	require.NoError(t, s.DoString(`
		arr = {1, 2.5, "x", true}
		obj = {name = "n", nested = {0, 1}}
		empty = {}
	`))

	assert.Equal(t, []any{int64(1), 2.5, "x", true}, toGo(s.GetGlobal("arr")))
	assert.Equal(t, map[string]any{"name": "n", "nested": []any{int64(0), int64(1)}}, toGo(s.GetGlobal("obj")))
	assert.Nil(t, toGo(s.GetGlobal("empty")))

	v := toLua(s.L, map[string]any{"path": location.Path{1, 2}, "keys": []string{"a"}})
	assert.Equal(t, map[string]any{
		"path": []any{int64(1), int64(2)},
		"keys": []any{"a"},
	}, toGo(v))
}

func TestNodeTableRoundTrip(t *testing.T) {
	s := NewState()
	defer s.Close()

	in := node.NewElement("link", node.Props{"url": "u"}, node.NewText("go", node.Props{"bold": true}))
	v, err := nodeTable(s.L, in)
	require.NoError(t, err)
	tbl, ok := v.(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, lua.LString("link"), tbl.RawGetString("type"))

	out, err := tableNode(tbl)
	require.NoError(t, err)
	assert.True(t, node.Equal(in, out), "got %v", out)
}

func TestCompileSyntaxError(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	_, err := rt.Compile("broken", `if then`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile broken")

	_, err = schema.Compile([]schema.RuleSpec{{
		Name:      "list",
		Match:     schema.MatchSpec{Types: []string{"list"}},
		Normalize: `end end`,
	}}, rt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema rule list")
}

func normalize(t *testing.T, rt *Runtime, specs []schema.RuleSpec, children ...node.Node) (*editor.Editor, error) {
	t.Helper()
	rules, err := schema.Compile(specs, rt)
	require.NoError(t, err)
	s := schema.New(schema.WithRules(rules...))
	e := editor.New(append(s.EditorOptions(), editor.WithChildren(children...))...)
	return e, e.Normalize(editor.NormalizeOptions{Force: true})
}

func TestScriptRepairsChild(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	e, err := normalize(t, rt, []schema.RuleSpec{{
		Name:     "list",
		Match:    schema.MatchSpec{Types: []string{"list"}},
		Children: []schema.ChildSpec{{Match: schema.MatchSpec{Types: []string{"item"}}}},
		Normalize: `
			if err.kind == "child_type_invalid" then
			  editor.set_node(err.child_path, {type = "item", converted = true})
			end
		`,
	}}, el("list", el("item", text("a")), el("paragraph", text("b"))))
	require.NoError(t, err)

	want := node.NewRoot(el("list",
		el("item", text("a")),
		node.NewElement("item", node.Props{"converted": true}, text("b")),
	))
	assert.True(t, node.Equal(want, e.Children()), "got %v", e.Children())
}

func TestScriptReadsDocument(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rt := NewRuntime(WithLogger(zap.New(core)))
	defer rt.Close()

	e, err := normalize(t, rt, []schema.RuleSpec{{
		Name:  "title",
		Match: schema.MatchSpec{Types: []string{"title"}},
		Properties: map[string]schema.PropertySpec{
			"slug": {Required: true},
		},
		Normalize: `
			local n = editor.node(err.path)
			assert(n.type == "title")
			assert(#n.children == 1)
			assert(editor.node({9}) == nil)
			local s = string.lower(editor.string(err.path))
			editor.log(err.kind .. " " .. err.property)
			editor.set_node(err.path, {slug = string.gsub(s, " ", "-")})
		`,
	}}, el("title", text("Hello World")))
	require.NoError(t, err)

	title := e.Children().Children[0].(*node.Element)
	assert.Equal(t, node.Props{"slug": "hello-world"}, title.Props)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "node_property_invalid slug", entries[0].Message)
	assert.Equal(t, "title", entries[0].ContextMap()["script"])
}

func TestScriptInsertsAndRemoves(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	e, err := normalize(t, rt, []schema.RuleSpec{
		{
			Name:  "figure",
			Match: schema.MatchSpec{Types: []string{"figure"}},
			Children: []schema.ChildSpec{
				{Match: schema.MatchSpec{Types: []string{"caption"}}, Min: 1, Max: 1},
			},
			Normalize: `
				if err.kind == "child_min_invalid" then
				  editor.insert_node(err.child_path, {type = "caption", children = {{text = "untitled"}}})
				elseif err.kind == "child_max_invalid" then
				  editor.remove_nodes(err.child_path)
				end
			`,
		},
	},
		el("figure"),
		el("figure", el("caption", text("a")), el("caption", text("b"))),
	)
	require.NoError(t, err)

	want := node.NewRoot(
		el("figure", el("caption", text("untitled"))),
		el("figure", el("caption", text("a"))),
	)
	assert.True(t, node.Equal(want, e.Children()), "got %v", e.Children())
}

func TestScriptErrorsPropagate(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	_, err := normalize(t, rt, []schema.RuleSpec{{
		Name:      "quote",
		Match:     schema.MatchSpec{Types: []string{"quote"}},
		Children:  []schema.ChildSpec{{Match: schema.MatchSpec{Types: []string{"paragraph"}}}},
		Normalize: `editor.remove_nodes({"x"})`,
	}}, el("quote", el("heading", text("h"))))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script quote")
}
