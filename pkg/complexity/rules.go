package complexity

import (
	"sync"

	"github.com/panbanda/wcc/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// rules holds the node-type sets that drive both metrics for a language.
type rules struct {
	decision map[string]bool
	nesting  map[string]bool // cognitive: +1 + depth, children one level deeper
	flat     map[string]bool // cognitive: +1, same level
}

var (
	rulesMu    sync.Mutex
	rulesCache = map[parser.Language]*rules{}
)

func rulesFor(lang parser.Language) *rules {
	rulesMu.Lock()
	defer rulesMu.Unlock()
	if r, ok := rulesCache[lang]; ok {
		return r
	}
	r := &rules{
		decision: set(decisionTypes(lang)),
		nesting:  set(nestingTypes(lang)),
		flat:     set(flatTypes(lang)),
	}
	rulesCache[lang] = r
	return r
}

func set(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

var commonDecisions = []string{
	"if_statement",
	"if_expression",
	"while_statement",
	"while_expression",
	"for_statement",
	"for_expression",
	"case_statement",
	"catch_clause",
	"ternary_expression",
	"conditional_expression",
}

func decisionTypes(lang parser.Language) []string {
	extra := map[parser.Language][]string{
		parser.LangGo:         {"expression_case", "type_case", "communication_case", "for_statement"},
		parser.LangRust:       {"match_arm", "loop_expression", "if_let_expression", "while_let_expression"},
		parser.LangPython:     {"elif_clause", "except_clause", "for_in_clause", "if_clause", "boolean_operator"},
		parser.LangTypeScript: {"switch_case", "do_statement", "for_in_statement"},
		parser.LangTSX:        {"switch_case", "do_statement", "for_in_statement"},
		parser.LangJavaScript: {"switch_case", "do_statement", "for_in_statement"},
		parser.LangJava:       {"switch_label", "do_statement", "enhanced_for_statement"},
		parser.LangCSharp:     {"switch_section", "do_statement", "foreach_statement"},
		parser.LangC:          {"do_statement"},
		parser.LangCPP:        {"do_statement", "for_range_loop"},
		parser.LangPHP:        {"case_statement", "elseif_clause", "foreach_statement", "do_statement"},
	}
	if lang == parser.LangRuby {
		return []string{"if", "elsif", "unless", "while", "until", "for", "when", "rescue", "conditional", "if_modifier", "unless_modifier"}
	}
	return append(append([]string{}, commonDecisions...), extra[lang]...)
}

func nestingTypes(lang parser.Language) []string {
	if lang == parser.LangRuby {
		return []string{"if", "unless", "while", "until", "for", "case", "begin"}
	}
	return []string{
		"if_statement", "if_expression",
		"while_statement", "while_expression",
		"for_statement", "for_expression", "for_in_statement", "enhanced_for_statement",
		"switch_statement", "expression_switch_statement", "type_switch_statement",
		"select_statement", "match_expression",
		"try_statement", "catch_clause",
		"do_statement", "loop_expression",
	}
}

func flatTypes(lang parser.Language) []string {
	if lang == parser.LangRuby {
		return []string{"elsif", "else", "when", "rescue", "break", "next", "redo"}
	}
	return []string{
		"else_clause", "elif_clause", "elseif_clause",
		"break_statement", "continue_statement", "goto_statement",
	}
}

// decisions counts decision points under node, including short-circuit
// boolean operators.
func (r *rules) decisions(node *sitter.Node, source []byte) int {
	var n int
	parser.Walk(node, func(cur *sitter.Node, nodeType string) bool {
		if r.decision[nodeType] {
			n++
		}
		if nodeType == "binary_expression" || nodeType == "logical_expression" {
			switch operator(cur, source) {
			case "&&", "||", "and", "or":
				n++
			}
		}
		return true
	})
	return n
}

func operator(node *sitter.Node, source []byte) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return parser.NodeText(op, source)
	}
	for i := range int(node.ChildCount()) {
		switch t := node.Child(i).Type(); t {
		case "&&", "||", "and", "or":
			return t
		}
	}
	return ""
}

// cognitive returns the cognitive complexity of node's subtree at depth.
// An else-if link and a bare else add 1 without nesting, however long the
// chain.
func (r *rules) cognitive(node *sitter.Node, depth int) int {
	var total int
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch {
		case afterElse(node, i) && ifTypes[child.Type()]:
			total += 1 + r.cognitive(child, depth)
		case afterElse(node, i) && ifTypes[node.Type()]:
			// Go, Java and C# hang a bare else branch directly off the if.
			total += 1 + r.unit(child, depth)
		default:
			total += r.unit(child, depth)
		}
	}
	return total
}

// unit scores node and its subtree at depth.
func (r *rules) unit(node *sitter.Node, depth int) int {
	switch t := node.Type(); {
	case r.flat[t] && wrapsIf(node):
		return r.cognitive(node, depth)
	case r.nesting[t]:
		return 1 + depth + r.cognitive(node, depth+1)
	case r.flat[t]:
		return 1 + r.cognitive(node, depth)
	default:
		return r.cognitive(node, depth)
	}
}

var ifTypes = map[string]bool{"if_statement": true, "if_expression": true}

// afterElse reports whether the i-th child of node directly follows an
// else keyword.
func afterElse(node *sitter.Node, i int) bool {
	return i > 0 && node.Child(i-1).Type() == "else" && node.Child(i).IsNamed()
}

// wrapsIf reports whether an else clause holds nothing but an if, as in
// JavaScript, C and Rust else-if chains.
func wrapsIf(clause *sitter.Node) bool {
	return clause.NamedChildCount() == 1 && ifTypes[clause.NamedChild(0).Type()]
}
