// Package depgraph reads the resolved dependency graph produced by the host
// build and prints it as an indented tree.
//
// The graph file is YAML with a single `root` node. Every node names its
// coordinate either as a colon separated string or as separate fields, and
// may carry a scope, a local-module flag, conflict information and children:
//
//	root:
//	  coordinate: org.example:demo-plugin:1.0
//	  local: true
//	  children:
//	    - coordinate: commons-logging:commons-logging:1.1.1
//	    - group: lib
//	      name: a
//	      version: "1.0"
//	      conflict:
//	        winning_version: "2.0"
package depgraph
