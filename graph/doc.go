// Package graph provides a contract graph of a resolved bundle and
// explanations of how each package was selected.
//
// Nodes are the selected packages, keyed by the required name they were
// chosen for. Two nodes are linked when they declare a common contract; in
// a resolved bundle they necessarily agree on its value. Each node also
// carries the history of its required name taken from the resolution
// trace: which versions were tried, which were evicted by a downgrade, and
// how the final one entered the bundle.
//
// # Building a Graph
//
//	result, _ := gobundle.Resolve(ctx, req)
//	g := result.Graph()
//
// # Querying the Graph
//
//	// Packages linked to "api" through a shared contract
//	peers := g.Neighbors("api")
//
//	// Why is worker at its version?
//	explanation, _ := g.Explain("worker")
//
//	// Contract path between two packages
//	path := g.Path("api", "storage")
//
// # Output Formats
//
//	jsonBytes, _ := g.ToJSON()
//	dotString := g.ToDOT()
//	textString := g.ToText()
package graph
