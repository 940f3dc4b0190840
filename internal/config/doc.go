// Package config loads treestorm engine configuration from TOML or YAML
// files.
//
// The file format is picked by extension. A TOML example:
//
//	[history]
//	max_undos = 200
//
//	[normalize]
//	iteration_factor = 42
//
//	[log]
//	level = "info"
//
//	[elements]
//	inline = ["link", "mention"]
//	void = ["image", "mention"]
//
//	[script]
//	timeout = "500ms"
//
//	[[schema.rules]]
//	name = "document"
//	match = { object = "root" }
//	children = [{ match = { types = ["paragraph", "heading"] }, min = 1, default = "paragraph" }]
//
// Unset values keep their defaults. Unknown keys are rejected.
package config
