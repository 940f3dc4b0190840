package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

type fakeCompiler struct {
	sources []string
}

func (c *fakeCompiler) Compile(name, source string) (NormalizeFunc, error) {
	c.sources = append(c.sources, name+":"+source)
	return func(*editor.Editor, *SchemaError) error { return nil }, nil
}

func TestCompile(t *testing.T) {
	c := &fakeCompiler{}
	rules, err := Compile([]RuleSpec{
		{
			Name:  "document",
			Match: MatchSpec{Object: "root"},
			Children: []ChildSpec{
				{Match: MatchSpec{Types: []string{"title"}}, Min: 1, Max: 1, Default: "title"},
				{Match: MatchSpec{Types: []string{"paragraph"}}},
			},
		},
		{
			Match: MatchSpec{Types: []string{"heading"}},
			Properties: map[string]PropertySpec{
				"level": {Required: true, Values: []any{int64(1), int64(2)}},
				"id":    {Pattern: `^h-\d+$`},
			},
			Next:      &MatchSpec{},
			Normalize: "return 1",
		},
	}, c)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	doc := rules[0]
	assert.Equal(t, "document", doc.Name)
	assert.Equal(t, MatchKind{Object: ObjectRoot}, doc.Match)
	require.Len(t, doc.Children, 2)
	assert.True(t, node.Equal(node.NewElement("title", nil, node.NewText("", nil)), doc.Children[0].Default))

	heading := rules[1]
	assert.Equal(t, "rule[1]", heading.Name)
	assert.NotNil(t, heading.Normalize)
	assert.Equal(t, MatchAll{}, heading.Next)
	assert.Equal(t, []string{"rule[1]:return 1"}, c.sources)

	level := heading.Properties["level"]
	assert.True(t, level(float64(2), true))
	assert.False(t, level(3, true))
	assert.False(t, level(nil, false))

	id := heading.Properties["id"]
	assert.True(t, id(nil, false))
	assert.True(t, id("h-12", true))
	assert.False(t, id("x", true))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		spec RuleSpec
		want string
	}{
		{"object", RuleSpec{Object: "page"}, `unknown object kind "page"`},
		{"match object", RuleSpec{Match: MatchSpec{Object: "page"}}, "unknown object kind"},
		{"text", RuleSpec{Text: "("}, "text"},
		{"pattern", RuleSpec{Properties: map[string]PropertySpec{"a": {Pattern: "["}}}, "property a"},
		{"bounds", RuleSpec{Children: []ChildSpec{{Min: 3, Max: 1}}}, "max 1 below min 3"},
		{"compiler", RuleSpec{Normalize: "x"}, "no compiler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile([]RuleSpec{tt.spec}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "schema rule rule[0]")
		})
	}
}

func TestCompiledRulesNormalize(t *testing.T) {
	rules, err := Compile([]RuleSpec{{
		Match:    MatchSpec{Object: "root"},
		Children: []ChildSpec{{Match: MatchSpec{Types: []string{"paragraph"}}, Min: 1, Default: "paragraph"}},
	}}, nil)
	require.NoError(t, err)

	e := normalized(t, New(WithRules(rules...)), node.NewElement("image", nil, node.NewText("", nil)))
	assert.Equal(t, []string{"paragraph"}, blockTypes(e))

	n, err := node.Get(e.Children(), location.Path{0, 0})
	require.NoError(t, err)
	assert.True(t, node.IsText(n))
}
