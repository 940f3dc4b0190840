package schema

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/pkg/errors"

	"github.com/dshills/treestorm/internal/engine/node"
)

// RuleSpec is the declarative form of a Rule, as read from configuration
// files.
type RuleSpec struct {
	Name       string                  `toml:"name" yaml:"name"`
	Match      MatchSpec               `toml:"match" yaml:"match"`
	Object     string                  `toml:"object" yaml:"object"`
	Children   []ChildSpec             `toml:"children" yaml:"children"`
	First      *MatchSpec              `toml:"first" yaml:"first"`
	Last       *MatchSpec              `toml:"last" yaml:"last"`
	Parent     *MatchSpec              `toml:"parent" yaml:"parent"`
	Next       *MatchSpec              `toml:"next" yaml:"next"`
	Previous   *MatchSpec              `toml:"previous" yaml:"previous"`
	Properties map[string]PropertySpec `toml:"properties" yaml:"properties"`
	Marks      []string                `toml:"marks" yaml:"marks"`
	Text       string                  `toml:"text" yaml:"text"`

	// Normalize is callback source for the Compiler.
	Normalize string `toml:"normalize" yaml:"normalize"`
}

// MatchSpec matches nodes by object kind, element type and property
// values. All given parts must match; an empty spec matches everything.
type MatchSpec struct {
	Object     string         `toml:"object" yaml:"object"`
	Types      []string       `toml:"types" yaml:"types"`
	Properties map[string]any `toml:"properties" yaml:"properties"`
}

// ChildSpec is the declarative form of a ChildRule. Default names the
// element type to insert when the group is short, or "text" for an empty
// text.
type ChildSpec struct {
	Match         MatchSpec `toml:"match" yaml:"match"`
	Min           int       `toml:"min" yaml:"min"`
	Max           int       `toml:"max" yaml:"max"`
	Default       string    `toml:"default" yaml:"default"`
	MergeOverflow bool      `toml:"merge_overflow" yaml:"merge_overflow"`
}

// PropertySpec validates one property: presence, a set of allowed values,
// or a pattern over its string form.
type PropertySpec struct {
	Required bool   `toml:"required" yaml:"required"`
	Values   []any  `toml:"values" yaml:"values"`
	Pattern  string `toml:"pattern" yaml:"pattern"`
}

// Compiler turns Normalize source into a callback.
type Compiler interface {
	Compile(name, source string) (NormalizeFunc, error)
}

// Compile converts specs into rules. c may be nil when no spec carries
// Normalize source.
func Compile(specs []RuleSpec, c Compiler) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("rule[%d]", i)
		}
		r, err := compileRule(name, spec, c)
		if err != nil {
			return nil, errors.Wrapf(err, "schema rule %s", name)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func compileRule(name string, spec RuleSpec, c Compiler) (Rule, error) {
	r := Rule{
		Name:     name,
		Match:    spec.Match.Matcher(),
		First:    spec.First.matcher(),
		Last:     spec.Last.matcher(),
		Parent:   spec.Parent.matcher(),
		Next:     spec.Next.matcher(),
		Previous: spec.Previous.matcher(),
		Marks:    slices.Clone(spec.Marks),
	}

	for _, m := range []*MatchSpec{&spec.Match, spec.First, spec.Last, spec.Parent, spec.Next, spec.Previous} {
		if err := m.validate(); err != nil {
			return Rule{}, err
		}
	}
	for _, cs := range spec.Children {
		if err := cs.Match.validate(); err != nil {
			return Rule{}, err
		}
	}

	if spec.Object != "" {
		obj, err := parseObject(spec.Object)
		if err != nil {
			return Rule{}, err
		}
		r.Object = obj
	}

	if spec.Text != "" {
		re, err := regexp.Compile(spec.Text)
		if err != nil {
			return Rule{}, errors.Wrap(err, "text")
		}
		r.Text = re
	}

	if len(spec.Properties) > 0 {
		r.Properties = make(map[string]PropertyCheck, len(spec.Properties))
		for k, ps := range spec.Properties {
			check, err := ps.check()
			if err != nil {
				return Rule{}, errors.Wrapf(err, "property %s", k)
			}
			r.Properties[k] = check
		}
	}

	if spec.Children != nil {
		r.Children = make([]ChildRule, 0, len(spec.Children))
		for i, cs := range spec.Children {
			if cs.Max > 0 && cs.Max < cs.Min {
				return Rule{}, errors.Errorf("children[%d]: max %d below min %d", i, cs.Max, cs.Min)
			}
			cr := ChildRule{Match: cs.Match.Matcher(), Min: cs.Min, Max: cs.Max, MergeOverflow: cs.MergeOverflow}
			switch cs.Default {
			case "":
			case "text":
				cr.Default = node.NewText("", nil)
			default:
				cr.Default = node.NewElement(cs.Default, nil, node.NewText("", nil))
			}
			r.Children = append(r.Children, cr)
		}
	}

	if spec.Normalize != "" {
		if c == nil {
			return Rule{}, errors.New("normalize source given but no compiler configured")
		}
		fn, err := c.Compile(name, spec.Normalize)
		if err != nil {
			return Rule{}, errors.Wrap(err, "normalize")
		}
		r.Normalize = fn
	}
	return r, nil
}

// Matcher converts the spec into a Matcher. An empty spec yields nil.
func (m MatchSpec) Matcher() Matcher {
	var all MatchAll
	if m.Object != "" {
		all = append(all, MatchKind{Object: Object(m.Object)})
	}
	if len(m.Types) > 0 {
		all = append(all, MatchType{Types: slices.Clone(m.Types)})
	}
	keys := make([]string, 0, len(m.Properties))
	for k := range m.Properties {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		all = append(all, MatchProperty{Key: k, Value: m.Properties[k]})
	}
	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	}
	return all
}

func (m *MatchSpec) matcher() Matcher {
	if m == nil {
		return nil
	}
	if got := m.Matcher(); got != nil {
		return got
	}
	return MatchAll{}
}

func (m *MatchSpec) validate() error {
	if m == nil || m.Object == "" {
		return nil
	}
	_, err := parseObject(m.Object)
	return err
}

func (ps PropertySpec) check() (PropertyCheck, error) {
	var re *regexp.Regexp
	if ps.Pattern != "" {
		var err error
		if re, err = regexp.Compile(ps.Pattern); err != nil {
			return nil, errors.Wrap(err, "pattern")
		}
	}
	values := slices.Clone(ps.Values)
	return func(v any, ok bool) bool {
		if !ok {
			return !ps.Required
		}
		if len(values) > 0 && !slices.ContainsFunc(values, func(w any) bool { return equalValue(v, w) }) {
			return false
		}
		return re == nil || re.MatchString(fmt.Sprint(v))
	}, nil
}

func parseObject(s string) (Object, error) {
	switch o := Object(s); o {
	case ObjectRoot, ObjectBlock, ObjectInline, ObjectText:
		return o, nil
	}
	return "", errors.Errorf("unknown object kind %q", s)
}
