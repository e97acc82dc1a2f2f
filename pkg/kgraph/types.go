// Package kgraph holds the in-memory code knowledge graph: nodes representing
// indexed spans of source (files, classes, functions) and typed, mirrored
// edges between them.
package kgraph

import "strings"

// NodeType is the kind of scope a KGNode was extracted from.
type NodeType string

const (
	NodeFile      NodeType = "FILE"
	NodeNamespace NodeType = "NAMESPACE"
	NodeClass     NodeType = "CLASS"
	NodeFunction  NodeType = "FUNCTION"
)

// EdgeType is the semantic relationship an edge carries.
type EdgeType string

const (
	EdgeFunctionDef   EdgeType = "function_def"
	EdgeClassDef      EdgeType = "class_def"
	EdgeCall          EdgeType = "call"
	EdgeClassRef      EdgeType = "class_ref"
	EdgeTestCoverage  EdgeType = "test_coverage"
)

// KGNode is one indexed span of code inside a graph.
type KGNode struct {
	ID       int      // stable within the owning Graph
	Type     NodeType
	Symbol   string // dotted path, e.g. pkg.module.Cls.method
	FileName string // repo-relative path
	Line     int    // 0-indexed, inclusive
	EndLine  int    // 0-indexed, exclusive
	DBID     *int   // opaque link into a SearchIndex row, nil until indexed
}

// KGEdge is a directed, typed edge between two KGNode ids inside one Graph.
type KGEdge struct {
	Src      int
	Dst      int
	Type     EdgeType
	SrcFile  string
	DstFile  string
	Reverse  bool
}

// DeferredEdge is an edge the Source Analyzer could only resolve by symbol;
// the Ingestion Pipeline turns it into a KGEdge once both endpoints have ids.
type DeferredEdge struct {
	ChildSymbol  string
	ParentSymbol string
	Type         EdgeType
}

// LastSymbolComponent returns the trailing dotted component of symbol, e.g.
// "pkg.module.Cls.method" -> "method". The Source Analyzer emits
// DeferredEdge.ParentSymbol as a bare callee/base-class name rather than a
// full dotted path, so resolvers index candidate nodes by this bare form.
func LastSymbolComponent(symbol string) string {
	if i := strings.LastIndexByte(symbol, '.'); i >= 0 {
		return symbol[i+1:]
	}
	return symbol
}
