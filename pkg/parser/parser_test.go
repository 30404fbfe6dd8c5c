package parser

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestNew(t *testing.T) {
	p := New()
	if p == nil {
		t.Fatal("New() returned nil")
	}
	if p.parser == nil {
		t.Error("parser field is nil")
	}
	p.Close()
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"main.go", LangGo},
		{"src/lib.rs", LangRust},
		{"SRC/LIB.RS", LangRust},
		{"script.py", LangPython},
		{"app.ts", LangTypeScript},
		{"component.tsx", LangTSX},
		{"component.jsx", LangTSX},
		{"module.mjs", LangJavaScript},
		{"Main.java", LangJava},
		{"header.h", LangC},
		{"main.cpp", LangCPP},
		{"Program.cs", LangCSharp},
		{"app.rb", LangRuby},
		{"index.php", LangPHP},
		{"README.md", LangUnknown},
		{"Makefile", LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectLanguage(tt.path); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestGrammar(t *testing.T) {
	for _, lang := range []Language{LangGo, LangRust, LangPython, LangTypeScript, LangTSX, LangJavaScript, LangJava, LangC, LangCPP, LangCSharp, LangRuby, LangPHP} {
		if g, err := Grammar(lang); err != nil || g == nil {
			t.Errorf("Grammar(%s) = %v, %v", lang, g, err)
		}
	}
	if _, err := Grammar(LangUnknown); err == nil {
		t.Error("Grammar(unknown) should fail")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		source string
		lang   Language
	}{
		{"go", "main.go", "package main\n\nfunc main() {\n\tprintln(\"hello\")\n}\n", LangGo},
		{"python", "hello.py", "def hello():\n    print('hello')\n", LangPython},
		{"javascript", "hello.js", "function hello() {\n  console.log('hello');\n}\n", LangJavaScript},
		{"rust", "main.rs", "fn main() {\n    println!(\"hello\");\n}\n", LangRust},
	}

	p := New()
	defer p.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := p.Parse(context.Background(), tt.path, []byte(tt.source))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			defer tree.Close()

			if tree.Language != tt.lang {
				t.Errorf("Language = %v, want %v", tree.Language, tt.lang)
			}
			if tree.Path != tt.path {
				t.Errorf("Path = %q, want %q", tree.Path, tt.path)
			}
			if tree.Root == nil || tree.Root.ChildCount() == 0 {
				t.Error("root node has no children")
			}
		})
	}
}

func TestParseUnsupported(t *testing.T) {
	p := New()
	defer p.Close()

	if _, err := p.Parse(context.Background(), "notes.txt", []byte("hello")); err == nil {
		t.Error("Parse() should fail for unsupported language")
	}
}

func TestLineCount(t *testing.T) {
	tests := []struct {
		source string
		want   int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
		{"\n\n\n", 3},
	}
	for _, tt := range tests {
		if got := LineCount([]byte(tt.source)); got != tt.want {
			t.Errorf("LineCount(%q) = %d, want %d", tt.source, got, tt.want)
		}
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	p := New()
	defer p.Close()

	tree, err := p.Parse(context.Background(), "main.go", []byte("package main\n\nfunc main() {\n\tx := 1\n\t_ = x\n}\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer tree.Close()

	var all, pruned int
	Walk(tree.Root, func(_ *sitter.Node, _ string) bool {
		all++
		return true
	})
	Walk(tree.Root, func(_ *sitter.Node, nodeType string) bool {
		pruned++
		return nodeType != "function_declaration"
	})
	if pruned >= all {
		t.Errorf("pruned walk visited %d nodes, full walk %d", pruned, all)
	}

	Walk(nil, func(*sitter.Node, string) bool {
		t.Error("visitor called for nil node")
		return true
	})
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		src   string
		names []string
		spans [][2]int
	}{
		{
			name:  "go",
			path:  "a.go",
			src:   "package main\n\nfunc one() {}\n\nfunc two() {\n\treturn\n}\n",
			names: []string{"one", "two"},
			spans: [][2]int{{3, 3}, {5, 7}},
		},
		{
			name:  "rust",
			path:  "a.rs",
			src:   "fn first() {}\nfn second() {\n}\n",
			names: []string{"first", "second"},
			spans: [][2]int{{1, 1}, {2, 3}},
		},
		{
			name:  "python",
			path:  "a.py",
			src:   "def alpha():\n    pass\n\ndef beta():\n    pass\n",
			names: []string{"alpha", "beta"},
			spans: [][2]int{{1, 2}, {4, 5}},
		},
		{
			name:  "javascript arrow",
			path:  "a.js",
			src:   "const foo = () => {};\n",
			names: []string{anonymous},
			spans: [][2]int{{1, 1}},
		},
		{
			name:  "c",
			path:  "a.c",
			src:   "int add(int a, int b) {\n  return a + b;\n}\n",
			names: []string{"add"},
			spans: [][2]int{{1, 3}},
		},
	}

	p := New()
	defer p.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := p.Parse(context.Background(), tt.path, []byte(tt.src))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			defer tree.Close()

			fns := Functions(tree)
			if len(fns) != len(tt.names) {
				t.Fatalf("Functions() returned %d, want %d", len(fns), len(tt.names))
			}
			for i, fn := range fns {
				if fn.Name != tt.names[i] {
					t.Errorf("fn[%d].Name = %q, want %q", i, fn.Name, tt.names[i])
				}
				if fn.StartLine != tt.spans[i][0] || fn.EndLine != tt.spans[i][1] {
					t.Errorf("fn[%d] span = %d-%d, want %d-%d", i, fn.StartLine, fn.EndLine, tt.spans[i][0], tt.spans[i][1])
				}
			}
		})
	}
}
