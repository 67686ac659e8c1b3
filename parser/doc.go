// Package parser is an incremental, error-tolerant LR parser driven by a
// compiled language table.
//
// # Overview
//
// A Parser consumes the whole input and produces a Tree whose root spans
// every byte, trivia included. Syntax errors never abort a parse; they are
// recorded as ERROR nodes and parsing continues.
//
// # Architecture
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Input     │────▶│   Lexer     │────▶│   Stack     │
//	│  (bytes)    │     │ (lex mode)  │     │  versions   │
//	└─────────────┘     └─────────────┘     └─────────────┘
//	                                               │
//	       ┌─────────────┐                         ▼
//	       │  Previous   │  reused subtrees  ┌─────────────┐
//	       │    Tree     │──────────────────▶│    Tree     │
//	       └─────────────┘                   └─────────────┘
//
// The lexer is asked for one token at a time in the lex mode of the current
// parse state. Each table entry lists the actions for a state and symbol;
// most entries hold a single action. When an entry holds several, the
// stack version forks and every alternative is explored. Versions that
// reach the same position with the same stack of states are condensed, the
// preferred one surviving:
//
//  1. lower error cost
//  2. higher dynamic precedence
//  3. earlier actions at every fork
//
// # Incremental Parsing
//
// Trees are built from immutable subtrees that store their size and the
// size of their leading trivia, not absolute offsets. Tree.Edit copies the
// nodes that touch an edited range and marks them damaged; everything else
// is shared with the old tree.
//
//	old := p.Parse(src, nil)
//	edit, next := parser.NewEdit(src, 0, 2, []byte("20"))
//	tree := p.Parse(next, old.Edit(edit))
//
// While a single version is alive, the parser pushes undamaged subtrees of
// the previous tree whole instead of lexing and reducing them again.
// Nodes inside old ERROR nodes are never reused, and a reparse that ends
// with errors is redone without reuse, so reparsing yields the same tree a
// fresh parse of the new text would.
//
// # Error Recovery
//
// When every version fails on a token, the best failed version is
// repaired:
//
//  1. Pop back to the nearest stack entry whose state has an action for
//     the token, wrapping the popped nodes in an ERROR node.
//  2. Failing that, or when the previous recovery happened at the same
//     position, skip the token into an ERROR node.
//  3. At end of input with nothing to pop to, finish with what is on the
//     stack.
//
// Bytes no terminal matches become ERROR leaves one rune at a time. A step
// budget bounds the work on pathological input.
//
// # Tree Access
//
// Node values expose the visible nodes only: hidden rules are spliced into
// their parents and hidden tokens are skipped.
//
//	for n := range tree.Walk() {
//	    fmt.Println(n.Type(), n.StartByte(), n.EndByte())
//	}
package parser
