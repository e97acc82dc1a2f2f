package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"
	tsbash "github.com/smacker/go-tree-sitter/bash"
	tsc "github.com/smacker/go-tree-sitter/c"
	tscpp "github.com/smacker/go-tree-sitter/cpp"
	tscsharp "github.com/smacker/go-tree-sitter/csharp"
	tscss "github.com/smacker/go-tree-sitter/css"
	tsdockerfile "github.com/smacker/go-tree-sitter/dockerfile"
	tselixir "github.com/smacker/go-tree-sitter/elixir"
	tselm "github.com/smacker/go-tree-sitter/elm"
	tsgo "github.com/smacker/go-tree-sitter/golang"
	tsgroovy "github.com/smacker/go-tree-sitter/groovy"
	tshcl "github.com/smacker/go-tree-sitter/hcl"
	tshtml "github.com/smacker/go-tree-sitter/html"
	tsjava "github.com/smacker/go-tree-sitter/java"
	tsjs "github.com/smacker/go-tree-sitter/javascript"
	tskotlin "github.com/smacker/go-tree-sitter/kotlin"
	tslua "github.com/smacker/go-tree-sitter/lua"
	tsocaml "github.com/smacker/go-tree-sitter/ocaml"
	tsphp "github.com/smacker/go-tree-sitter/php"
	tsprotobuf "github.com/smacker/go-tree-sitter/protobuf"
	tspython "github.com/smacker/go-tree-sitter/python"
	tsruby "github.com/smacker/go-tree-sitter/ruby"
	tsrust "github.com/smacker/go-tree-sitter/rust"
	tsscala "github.com/smacker/go-tree-sitter/scala"
	tssql "github.com/smacker/go-tree-sitter/sql"
	tsswift "github.com/smacker/go-tree-sitter/swift"
	tstoml "github.com/smacker/go-tree-sitter/toml"
	tstypescript "github.com/smacker/go-tree-sitter/typescript/typescript"
	tsyaml "github.com/smacker/go-tree-sitter/yaml"
)

// walkStrategy labels each language entry as first-class (Go, Python, JS/TS,
// Java) or generic. The label is informational only: every entry is walked
// by the same table-driven walker in walk.go, and nothing reads the field.
// Anything absent from extByExt falls through to the 50-line chunking path
// (spec section 4.1 step 5 / design notes "implementers may stage it").
type walkStrategy int

const (
	strategyGo walkStrategy = iota
	strategyPython
	strategyJS
	strategyJava
	strategyGeneric
)

// langSpec describes one language entry. Every strategy is driven by the
// same walker (see walk.go); the node-type tables below are what give each
// language its own notion of class/function/namespace/call/reference.
type langSpec struct {
	grammar  func() *sitter.Language
	strategy walkStrategy

	classTypes     []string
	functionTypes  []string
	namespaceTypes []string
	callTypes      []string // call-expression node types, produce CALL deferred edges
	classRefTypes  []string // heritage/base-class clauses, produce CLASS_REF deferred edges
	nameField      string   // tree-sitter field name holding the identifier, usually "name"
	calleeField    string   // field on a call node holding the callee expression, usually "function"
}

func lang(l *sitter.Language) func() *sitter.Language { return func() *sitter.Language { return l } }

// extByExt maps a lowercased file extension (with leading dot) to its
// language spec. Go, Python, JavaScript/TypeScript/TSX, and Java are
// first-class; the remainder of the table is staged with the generic
// node-type walker, matching idiomatic class/function declaration names in
// each grammar.
var extByExt = map[string]langSpec{
	".go": {grammar: lang(tsgo.GetLanguage()), strategy: strategyGo, nameField: "name", calleeField: "function",
		classTypes: []string{"type_spec"}, functionTypes: []string{"function_declaration", "method_declaration"},
		callTypes: []string{"call_expression"}},
	".py": {grammar: lang(tspython.GetLanguage()), strategy: strategyPython, nameField: "name", calleeField: "function",
		classTypes: []string{"class_definition"}, functionTypes: []string{"function_definition"},
		callTypes: []string{"call"}, classRefTypes: []string{"argument_list"}},
	".js": {grammar: lang(tsjs.GetLanguage()), strategy: strategyJS, nameField: "name", calleeField: "function",
		classTypes: []string{"class_declaration"}, functionTypes: []string{"function_declaration", "method_definition", "function_expression", "arrow_function"},
		callTypes: []string{"call_expression"}, classRefTypes: []string{"class_heritage"}},
	".jsx": {grammar: lang(tsjs.GetLanguage()), strategy: strategyJS, nameField: "name", calleeField: "function",
		classTypes: []string{"class_declaration"}, functionTypes: []string{"function_declaration", "method_definition", "function_expression", "arrow_function"},
		callTypes: []string{"call_expression"}, classRefTypes: []string{"class_heritage"}},
	".mjs": {grammar: lang(tsjs.GetLanguage()), strategy: strategyJS, nameField: "name", calleeField: "function",
		classTypes: []string{"class_declaration"}, functionTypes: []string{"function_declaration", "method_definition", "function_expression", "arrow_function"},
		callTypes: []string{"call_expression"}, classRefTypes: []string{"class_heritage"}},
	".ts": {grammar: lang(tstypescript.GetLanguage()), strategy: strategyJS, nameField: "name", calleeField: "function",
		classTypes: []string{"class_declaration"}, functionTypes: []string{"function_declaration", "method_definition", "function_expression", "arrow_function"},
		callTypes: []string{"call_expression"}, classRefTypes: []string{"class_heritage"}},
	".tsx": {grammar: lang(tstypescript.GetLanguage()), strategy: strategyJS, nameField: "name", calleeField: "function",
		classTypes: []string{"class_declaration"}, functionTypes: []string{"function_declaration", "method_definition", "function_expression", "arrow_function"},
		callTypes: []string{"call_expression"}, classRefTypes: []string{"class_heritage"}},
	".java": {grammar: lang(tsjava.GetLanguage()), strategy: strategyJava, nameField: "name", calleeField: "name",
		classTypes: []string{"class_declaration", "interface_declaration", "enum_declaration"},
		functionTypes: []string{"method_declaration", "constructor_declaration"},
		callTypes: []string{"method_invocation"}, classRefTypes: []string{"superclass", "super_interfaces"}},

	".c": {grammar: lang(tsc.GetLanguage()), strategy: strategyGeneric, nameField: "declarator",
		functionTypes: []string{"function_definition"}},
	".h": {grammar: lang(tsc.GetLanguage()), strategy: strategyGeneric, nameField: "declarator",
		functionTypes: []string{"function_definition"}},
	".cpp": {grammar: lang(tscpp.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		classTypes: []string{"class_specifier", "struct_specifier"}, functionTypes: []string{"function_definition"},
		namespaceTypes: []string{"namespace_definition"}},
	".cc": {grammar: lang(tscpp.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		classTypes: []string{"class_specifier", "struct_specifier"}, functionTypes: []string{"function_definition"},
		namespaceTypes: []string{"namespace_definition"}},
	".hpp": {grammar: lang(tscpp.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		classTypes: []string{"class_specifier", "struct_specifier"}, functionTypes: []string{"function_definition"}},
	".cs": {grammar: lang(tscsharp.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		classTypes: []string{"class_declaration", "struct_declaration", "interface_declaration"},
		functionTypes: []string{"method_declaration", "constructor_declaration", "local_function_statement"},
		namespaceTypes: []string{"namespace_declaration"}},
	".kt": {grammar: lang(tskotlin.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		classTypes: []string{"class_declaration", "object_declaration"}, functionTypes: []string{"function_declaration"}},
	".php": {grammar: lang(tsphp.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		classTypes: []string{"class_declaration", "interface_declaration", "trait_declaration"},
		functionTypes: []string{"function_definition", "method_declaration"}},
	".rb": {grammar: lang(tsruby.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		classTypes: []string{"class", "module"}, functionTypes: []string{"method", "singleton_method"}},
	".rs": {grammar: lang(tsrust.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		classTypes: []string{"struct_item", "enum_item", "trait_item", "impl_item"},
		functionTypes: []string{"function_item"}, namespaceTypes: []string{"mod_item"}},
	".scala": {grammar: lang(tsscala.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		classTypes: []string{"class_definition", "object_definition", "trait_definition"},
		functionTypes: []string{"function_definition"}},
	".swift": {grammar: lang(tsswift.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		classTypes: []string{"class_declaration", "struct_declaration"}, functionTypes: []string{"function_declaration"}},
	".groovy": {grammar: lang(tsgroovy.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		classTypes: []string{"class_declaration"}, functionTypes: []string{"function_declaration", "method_declaration"}},
	".lua": {grammar: lang(tslua.GetLanguage()), strategy: strategyGeneric, nameField: "name",
		functionTypes: []string{"function_declaration", "function_definition"}},
	".ex":  {grammar: lang(tselixir.GetLanguage()), strategy: strategyGeneric, nameField: "name", functionTypes: []string{"call"}},
	".exs": {grammar: lang(tselixir.GetLanguage()), strategy: strategyGeneric, nameField: "name", functionTypes: []string{"call"}},
	".elm": {grammar: lang(tselm.GetLanguage()), strategy: strategyGeneric, nameField: "name", functionTypes: []string{"value_declaration"}},
	".ml":  {grammar: lang(tsocaml.GetLanguage()), strategy: strategyGeneric, nameField: "name", functionTypes: []string{"let_binding"}},

	// Unparsed / non-scoped languages: the grammar exists but no
	// class/function scopes are extracted, so files with these extensions go
	// straight to the chunking fallback. The exception is ".proto", whose
	// "message" nodes are extracted as CLASS scopes.
	".sh":         {grammar: lang(tsbash.GetLanguage()), strategy: strategyGeneric},
	".css":        {grammar: lang(tscss.GetLanguage()), strategy: strategyGeneric},
	".html":       {grammar: lang(tshtml.GetLanguage()), strategy: strategyGeneric},
	".yaml":       {grammar: lang(tsyaml.GetLanguage()), strategy: strategyGeneric},
	".yml":        {grammar: lang(tsyaml.GetLanguage()), strategy: strategyGeneric},
	".toml":       {grammar: lang(tstoml.GetLanguage()), strategy: strategyGeneric},
	".sql":        {grammar: lang(tssql.GetLanguage()), strategy: strategyGeneric},
	".proto":      {grammar: lang(tsprotobuf.GetLanguage()), strategy: strategyGeneric, classTypes: []string{"message"}, nameField: "name"},
	".hcl":        {grammar: lang(tshcl.GetLanguage()), strategy: strategyGeneric},
	"dockerfile":  {grammar: lang(tsdockerfile.GetLanguage()), strategy: strategyGeneric},
}

// lookup resolves the grammar entry for a repo-relative path, falling back to
// a "dockerfile"-style base-name match for extensionless manifest files.
func lookup(path string) (langSpec, bool) {
	ext := extOf(path)
	if spec, ok := extByExt[ext]; ok {
		return spec, true
	}
	if base := baseOf(path); base == "Dockerfile" {
		if spec, ok := extByExt["dockerfile"]; ok {
			return spec, true
		}
	}
	return langSpec{}, false
}
