package script

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/node"
	"github.com/dshills/treestorm/internal/engine/schema"
)

// Runtime compiles schema normalize callbacks written in Lua. All callbacks
// compiled by one Runtime share its Lua state.
type Runtime struct {
	state  *State
	logger *zap.Logger
}

// Option configures a Runtime.
type Option func(*Runtime, *[]StateOption)

// WithTimeout bounds each callback run.
func WithTimeout(d time.Duration) Option {
	return func(_ *Runtime, so *[]StateOption) {
		*so = append(*so, WithExecutionTimeout(d))
	}
}

// WithLogger sets the logger used by editor.log.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runtime, _ *[]StateOption) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRuntime creates a Runtime with a fresh sandboxed state.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{logger: zap.NewNop()}
	var stateOpts []StateOption
	for _, opt := range opts {
		opt(r, &stateOpts)
	}
	r.state = NewState(stateOpts...)
	return r
}

// Close releases the Lua state. Compiled callbacks fail afterwards.
func (r *Runtime) Close() error {
	return r.state.Close()
}

// Compile implements schema.Compiler. Syntax errors are reported here;
// runtime errors when the callback runs.
func (r *Runtime) Compile(name, source string) (schema.NormalizeFunc, error) {
	fn, err := r.state.Load(name, source)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return func(e *editor.Editor, serr *schema.SchemaError) error {
		err := r.state.Run(fn, func(L *lua.LState) map[string]lua.LValue {
			return map[string]lua.LValue{
				"editor": r.editorTable(L, e, name),
				"err":    errorTable(L, serr),
			}
		})
		if err != nil {
			return fmt.Errorf("script %s: %w", name, err)
		}
		return nil
	}, nil
}

func errorTable(L *lua.LState, serr *schema.SchemaError) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("kind", lua.LString(serr.Kind))
	t.RawSetString("path", pathTable(L, serr.Path))
	if serr.Rule != nil {
		t.RawSetString("rule", lua.LString(serr.Rule.Name))
	}
	if serr.Index >= 0 {
		t.RawSetString("index", lua.LNumber(serr.Index))
	}
	if p, ok := serr.ChildPath(); ok {
		t.RawSetString("child_path", pathTable(L, p))
	}
	if serr.Property != "" {
		t.RawSetString("property", lua.LString(serr.Property))
	}
	if serr.Mark != "" {
		t.RawSetString("mark", lua.LString(serr.Mark))
	}
	if serr.Limit != 0 {
		t.RawSetString("limit", lua.LNumber(serr.Limit))
	}
	return t
}

// editorTable binds the editor functions to e for one callback run.
func (r *Runtime) editorTable(L *lua.LState, e *editor.Editor, name string) *lua.LTable {
	check := func(L *lua.LState, err error) {
		if err != nil {
			L.RaiseError("%s", err.Error())
		}
	}
	at := func(L *lua.LState) editor.NodeOptions {
		return editor.NodeOptions{At: checkPath(L, 1), Voids: true}
	}

	funcs := map[string]lua.LGFunction{
		"remove_nodes": func(L *lua.LState) int {
			check(L, e.RemoveNodes(at(L)))
			return 0
		},
		"insert_node": func(L *lua.LState) int {
			opts := at(L)
			n, err := tableNode(L.CheckTable(2))
			check(L, err)
			check(L, e.InsertNodes([]node.Node{n}, opts))
			return 0
		},
		"insert_text_node": func(L *lua.LState) int {
			opts := at(L)
			check(L, e.InsertNodes([]node.Node{node.NewText(L.OptString(2, ""), nil)}, opts))
			return 0
		},
		"set_node": func(L *lua.LState) int {
			opts := at(L)
			props := tableProps(L.CheckTable(2))
			check(L, e.SetNodes(props, opts))
			return 0
		},
		"unset_node": func(L *lua.LState) int {
			opts := at(L)
			var keys []string
			switch v := L.CheckAny(2).(type) {
			case lua.LString:
				keys = []string{string(v)}
			case *lua.LTable:
				v.ForEach(func(_, k lua.LValue) {
					keys = append(keys, k.String())
				})
			default:
				L.ArgError(2, "string or table expected")
			}
			check(L, e.UnsetNodes(keys, opts))
			return 0
		},
		"merge_nodes": func(L *lua.LState) int {
			check(L, e.MergeNodes(at(L)))
			return 0
		},
		"unwrap_nodes": func(L *lua.LState) int {
			check(L, e.UnwrapNodes(at(L)))
			return 0
		},
		"node": func(L *lua.LState) int {
			n, err := node.Get(e.Children(), checkPath(L, 1))
			if err != nil {
				L.Push(lua.LNil)
				return 1
			}
			v, err := nodeTable(L, n)
			check(L, err)
			L.Push(v)
			return 1
		},
		"string": func(L *lua.LState) int {
			n, err := node.Get(e.Children(), checkPath(L, 1))
			check(L, err)
			L.Push(lua.LString(node.String(n)))
			return 1
		},
		"log": func(L *lua.LState) int {
			r.logger.Info(L.CheckString(1), zap.String("script", name))
			return 0
		},
	}
	return L.SetFuncs(L.NewTable(), funcs)
}
