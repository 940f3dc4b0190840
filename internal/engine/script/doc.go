// Package script compiles Lua normalize callbacks for schema rules.
//
// A Runtime owns one sandboxed Lua state. Each compiled chunk runs with two
// globals: err, describing the violation, and editor, a table of functions
// that edit the document through the editor being normalized.
//
//	rt, _ := script.NewRuntime()
//	defer rt.Close()
//	rules, _ := schema.Compile(specs, rt)
//
// A callback that removes an offending child:
//
//	if err.kind == "child_type_invalid" then
//	  editor.remove_nodes(err.child_path)
//	end
//
// Paths are Lua arrays of zero-based indexes, as in the JSON wire format.
//
// # Editor functions
//
//	editor.remove_nodes(path)
//	editor.insert_node(path, node)
//	editor.insert_text_node(path, text)
//	editor.set_node(path, props)
//	editor.unset_node(path, keys)
//	editor.merge_nodes(path)
//	editor.unwrap_nodes(path)
//	editor.node(path)      -- node as a table, nil when absent
//	editor.string(path)    -- concatenated text
//	editor.log(message)
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened. dofile,
// loadfile, load, loadstring and require are removed. Every call runs
// under a timeout.
package script
