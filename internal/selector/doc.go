// Package selector decides which nodes of the dependency graph belong to an
// assembly.
//
// A selection starts from the nodes matching the spec, collects their
// transitive closure while pruning excluded subtrees and the contents of
// nested plugin packages, and finally re-aligns version-conflicted nodes to
// the version the graph resolution settled on. The re-alignment is a single
// pass: a substitute that is itself conflicted is kept as found.
package selector
