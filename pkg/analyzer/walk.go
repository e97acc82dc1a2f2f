package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/bismuthai/codegraph/pkg/kgraph"
)

// Draft is a scope the walker discovered. It carries no graph id: the
// ingest layer calls kgraph.Graph.AddNode for each Draft in file order and
// keeps a symbol -> id map to resolve the Deferred edges afterward.
type Draft struct {
	Type     kgraph.NodeType
	Symbol   string
	FileName string
	Line     int
	EndLine  int
	Content  string
}

type fileWalkResult struct {
	drafts   []Draft
	deferred []kgraph.DeferredEdge
}

// walkFile traverses root (the parse tree for fileName) and returns every
// CLASS/FUNCTION/NAMESPACE scope it finds plus the FILE node itself, along
// with deferred CALL/CLASS_REF edges keyed by bare callee/base-class name.
func walkFile(fileName string, root *sitter.Node, src []byte, spec langSpec, isTest bool) fileWalkResult {
	w := &walker{fileName: fileName, src: src, spec: spec, isTest: isTest}

	fileScope := newFileScope(symbolOf(fileName))
	fileScope.startLine = int(root.StartPoint().Row)
	fileScope.endLine = int(root.EndPoint().Row) + 1

	w.visitChildren(root, fileScope)

	w.drafts = append(w.drafts, Draft{
		Type:     kgraph.NodeFile,
		Symbol:   fileScope.symbol(),
		FileName: fileName,
		Line:     fileScope.startLine,
		EndLine:  fileScope.endLine,
	})

	return fileWalkResult{drafts: w.drafts, deferred: w.deferred}
}

type walker struct {
	fileName string
	src      []byte
	spec     langSpec
	isTest   bool

	drafts   []Draft
	deferred []kgraph.DeferredEdge
}

func (w *walker) visitChildren(n *sitter.Node, scope *scope) {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		w.visit(n.Child(i), scope)
	}
}

func (w *walker) visit(n *sitter.Node, scope *scope) {
	if n == nil {
		return
	}
	typ := n.Type()

	switch {
	case contains(w.spec.classTypes, typ):
		w.visitScope(n, scope, scopeClass, kgraph.NodeClass)
		return
	case contains(w.spec.functionTypes, typ):
		w.visitScope(n, scope, scopeFunction, kgraph.NodeFunction)
		return
	case contains(w.spec.namespaceTypes, typ):
		w.visitScope(n, scope, scopeNamespace, kgraph.NodeNamespace)
		return
	case contains(w.spec.callTypes, typ):
		w.recordCall(n, scope)
	case contains(w.spec.classRefTypes, typ):
		w.recordClassRef(n, scope)
	}

	w.visitChildren(n, scope)
}

// visitScope closes over a CLASS/FUNCTION/NAMESPACE node: it opens a child
// scope, recurses so nested calls and classes attribute to it, then emits
// the scope's Draft using the end-line clipped against its first child.
func (w *walker) visitScope(n *sitter.Node, parent *scope, kind scopeKind, nodeType kgraph.NodeType) {
	name := w.identifierName(n)
	child := parent.child(kind, name, int(n.StartPoint().Row))
	if name == "" {
		child.name = child.nextAnonName()
	}
	child.endLine = int(n.EndPoint().Row) + 1

	w.visitChildren(n, child)

	end := child.clippedEndLine()
	lines := sliceLines(w.src, child.startLine, end)
	w.drafts = append(w.drafts, Draft{
		Type:     nodeType,
		Symbol:   child.symbol(),
		FileName: w.fileName,
		Line:     child.startLine,
		EndLine:  end,
		Content:  buildContent(w.fileName, child.symbol(), lines),
	})
}

func (w *walker) identifierName(n *sitter.Node) string {
	if w.spec.nameField == "" {
		return ""
	}
	field := n.ChildByFieldName(w.spec.nameField)
	if field == nil {
		return ""
	}
	return field.Content(w.src)
}

// recordCall records a deferred CALL (or TEST_COVERAGE, for test files)
// edge from the enclosing scope to the callee's bare name. Resolution
// against a concrete node id happens later, by symbol lookup, once every
// file in the batch has been walked.
func (w *walker) recordCall(n *sitter.Node, scope *scope) {
	field := w.spec.calleeField
	if field == "" {
		field = "function"
	}
	callee := n.ChildByFieldName(field)
	if callee == nil {
		return
	}
	name := calleeName(callee, w.src)
	if name == "" {
		return
	}
	edgeType := kgraph.EdgeCall
	if w.isTest {
		edgeType = kgraph.EdgeTestCoverage
	}
	w.deferred = append(w.deferred, kgraph.DeferredEdge{
		ChildSymbol: scope.symbol(), ParentSymbol: name, Type: edgeType,
	})
}

// recordClassRef records a deferred CLASS_REF edge for every identifier
// found under a heritage clause (extends/implements/base-class list).
func (w *walker) recordClassRef(n *sitter.Node, scope *scope) {
	// Some grammars share the clause's node type with call arguments (Python's
	// argument_list); those belong to a call, not a heritage clause.
	if p := n.Parent(); p != nil && contains(w.spec.callTypes, p.Type()) {
		return
	}
	for _, name := range identifierLeaves(n, w.src) {
		w.deferred = append(w.deferred, kgraph.DeferredEdge{
			ChildSymbol: scope.symbol(), ParentSymbol: name, Type: kgraph.EdgeClassRef,
		})
	}
}

// calleeName extracts the bare name from a call's callee expression:
// identifiers return directly, member/selector/attribute expressions return
// their rightmost segment.
func calleeName(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "identifier", "field_identifier", "type_identifier":
		return n.Content(src)
	default:
		for _, field := range []string{"field", "property", "name", "attribute"} {
			if c := n.ChildByFieldName(field); c != nil {
				return c.Content(src)
			}
		}
		if n.NamedChildCount() > 0 {
			return n.NamedChild(int(n.NamedChildCount()) - 1).Content(src)
		}
		return ""
	}
}

// identifierLeaves collects every identifier-like leaf under n, used to pull
// base-class names out of heritage clause subtrees whose shape varies by
// grammar.
func identifierLeaves(n *sitter.Node, src []byte) []string {
	var out []string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n.ChildCount() == 0 {
			if n.Type() == "identifier" || n.Type() == "type_identifier" {
				out = append(out, n.Content(src))
			}
			return
		}
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			walk(n.Child(i))
		}
	}
	walk(n)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
