// Package parser wraps tree-sitter grammars for the languages wcc can score.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies a source language.
type Language string

const (
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangTSX        Language = "tsx"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangRuby       Language = "ruby"
	LangPHP        Language = "php"
	LangUnknown    Language = "unknown"
)

// extensions maps lower-cased file extensions to languages.
var extensions = map[string]Language{
	".go":   LangGo,
	".rs":   LangRust,
	".py":   LangPython,
	".pyw":  LangPython,
	".ts":   LangTypeScript,
	".mts":  LangTypeScript,
	".cts":  LangTypeScript,
	".tsx":  LangTSX,
	".jsx":  LangTSX,
	".js":   LangJavaScript,
	".mjs":  LangJavaScript,
	".cjs":  LangJavaScript,
	".java": LangJava,
	".c":    LangC,
	".h":    LangC,
	".cc":   LangCPP,
	".cpp":  LangCPP,
	".cxx":  LangCPP,
	".hh":   LangCPP,
	".hpp":  LangCPP,
	".hxx":  LangCPP,
	".cs":   LangCSharp,
	".rb":   LangRuby,
	".php":  LangPHP,
}

// DetectLanguage returns the language for path based on its extension.
func DetectLanguage(path string) Language {
	if lang, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LangUnknown
}

// Grammar returns the tree-sitter grammar for lang.
func Grammar(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangRust:
		return rust.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	case LangC:
		return c.GetLanguage(), nil
	case LangCPP:
		return cpp.GetLanguage(), nil
	case LangCSharp:
		return csharp.GetLanguage(), nil
	case LangRuby:
		return ruby.GetLanguage(), nil
	case LangPHP:
		return php.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// Parser is a tree-sitter parser. It is not safe for concurrent use;
// create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// Tree is a parsed source file.
type Tree struct {
	Root     *sitter.Node
	Language Language
	Source   []byte
	Path     string

	tree *sitter.Tree
}

// Close releases the tree's native memory.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
	}
}

// New creates a parser.
func New() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// Parse parses source in the language detected from path.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*Tree, error) {
	lang := DetectLanguage(path)
	grammar, err := Grammar(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(grammar)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	root := tree.RootNode()
	if root.HasError() && root.ChildCount() == 0 {
		tree.Close()
		return nil, fmt.Errorf("parse %s: no syntax nodes", path)
	}

	return &Tree{
		Root:     root,
		Language: lang,
		Source:   source,
		Path:     path,
		tree:     tree,
	}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// LineCount returns the number of lines in source. A trailing newline does
// not start a new line.
func LineCount(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := bytes.Count(source, []byte{'\n'})
	if source[len(source)-1] != '\n' {
		n++
	}
	return n
}

// Visitor is called for every node during Walk; returning false skips the
// node's children.
type Visitor func(node *sitter.Node, nodeType string) bool

// Walk traverses the tree depth-first. The node type is looked up once per
// node to limit cgo calls.
func Walk(node *sitter.Node, visit Visitor) {
	if node == nil {
		return
	}
	if !visit(node, node.Type()) {
		return
	}
	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), visit)
	}
}

// NodeText returns the source text covered by node.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// Function is a function or method found in a tree.
type Function struct {
	Name      string
	StartLine int
	EndLine   int
	Body      *sitter.Node
}

// anonymous is the name given to functions without a name node.
const anonymous = "<anonymous>"

var functionKinds = map[Language][]string{
	LangGo:         {"function_declaration", "method_declaration", "func_literal"},
	LangRust:       {"function_item", "closure_expression"},
	LangPython:     {"function_definition", "lambda"},
	LangTypeScript: {"function_declaration", "function_expression", "arrow_function", "method_definition"},
	LangTSX:        {"function_declaration", "function_expression", "arrow_function", "method_definition"},
	LangJavaScript: {"function_declaration", "function_expression", "arrow_function", "method_definition"},
	LangJava:       {"method_declaration", "constructor_declaration", "lambda_expression"},
	LangC:          {"function_definition"},
	LangCPP:        {"function_definition", "lambda_expression"},
	LangCSharp:     {"method_declaration", "constructor_declaration", "local_function_statement"},
	LangRuby:       {"method", "singleton_method"},
	LangPHP:        {"function_definition", "method_declaration"},
}

// Functions returns every function in the tree in source order, including
// nested ones.
func Functions(t *Tree) []Function {
	kinds := make(map[string]bool)
	for _, k := range functionKinds[t.Language] {
		kinds[k] = true
	}

	var fns []Function
	Walk(t.Root, func(node *sitter.Node, nodeType string) bool {
		if kinds[nodeType] {
			fns = append(fns, Function{
				Name:      functionName(node, t.Source, t.Language),
				StartLine: int(node.StartPoint().Row) + 1,
				EndLine:   int(node.EndPoint().Row) + 1,
				Body:      functionBody(node),
			})
		}
		return true
	})
	return fns
}

func functionName(node *sitter.Node, source []byte, lang Language) string {
	name := node.ChildByFieldName("name")
	if name == nil && (lang == LangC || lang == LangCPP) {
		// int foo(int x) keeps the identifier two declarators deep.
		if decl := node.ChildByFieldName("declarator"); decl != nil {
			name = decl.ChildByFieldName("declarator")
		}
	}
	if text := NodeText(name, source); text != "" {
		return text
	}
	return anonymous
}

func functionBody(node *sitter.Node) *sitter.Node {
	for _, field := range []string{"body", "block", "body_statement"} {
		if body := node.ChildByFieldName(field); body != nil {
			return body
		}
	}
	return nil
}
