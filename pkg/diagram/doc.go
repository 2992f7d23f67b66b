// Package diagram defines the graph model of a node-link diagram.
//
// A diagram definition is static, caller-owned data: a list of nodes, each
// tagged with a [Category], and a list of labelled edges that may carry flow
// animation settings. Definitions are read from JSON, YAML or TOML files and
// validated once at load time.
//
// # Core Types
//
//   - [Graph]: the definition (scheme, nodes, edges)
//   - [Node], [Edge]: entities and relationships
//   - [Category], [CategorySet]: closed classification enum and bitmask set
//   - [Scheme]: the category vocabulary of one diagram instance
//   - [Highlight]: tri-state highlight signal (neutral, on, off)
//   - [Point], [Size]: diagram-local coordinates and container sizes
//
// # Schemes
//
// Two vocabularies exist and are intentionally distinct:
//
//	architecture  frontend, backend, infrastructure, security, monitoring
//	skills        devops, cloud, security, development, infrastructure
//
// A definition may omit its scheme; [Graph.Validate] then picks the first
// scheme containing every node category.
//
// # Definition Format
//
//	{
//	  "scheme": "architecture",
//	  "nodes": [
//	    {"id": "webapp", "label": "Web App", "category": "frontend",
//	     "position": {"x": 400, "y": 80}},
//	    {"id": "api", "category": "backend", "position": {"x": 400, "y": 240}}
//	  ],
//	  "edges": [
//	    {"from": "webapp", "to": "api", "label": "REST", "animate": true, "speed": 7}
//	  ]
//	}
//
// Edges referencing unknown nodes are accepted and dropped later, when the
// render set is derived. Duplicate node ids and categories outside the
// scheme are rejected.
package diagram
