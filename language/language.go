// Package language holds compiled grammar tables: symbols, productions,
// the LR action table and per-state lex modes.
//
// A Language is immutable once built and is safe for concurrent use by any
// number of parsers.
package language

import (
	"errors"
	"fmt"
	"math"

	"github.com/dhamidi/vbsitter/grammar"
)

// Version is bumped whenever the encoded table layout changes.
const Version = 1

var ErrInvalidState = errors.New("invalid parse state")

type (
	Symbol  uint16
	StateID uint16
	FieldID uint16
)

const (
	// SymbolEnd is the end-of-input terminal.
	SymbolEnd Symbol = 0
	// SymbolError labels nodes synthesised by error recovery.
	SymbolError Symbol = math.MaxUint16
)

type SymbolKind uint8

const (
	KindTerminal SymbolKind = iota
	KindExternal
	KindNonterminal
	KindAlias
)

func (k SymbolKind) String() string {
	switch k {
	case KindTerminal:
		return "terminal"
	case KindExternal:
		return "external"
	case KindNonterminal:
		return "nonterminal"
	case KindAlias:
		return "alias"
	}
	return "unknown"
}

type SymbolInfo struct {
	Name    string
	Kind    SymbolKind
	Named   bool
	Visible bool
	// Extra symbols may appear between any two tokens.
	Extra bool
	// Skip extras are consumed by the lexer and never become nodes.
	Skip bool
}

func (s SymbolInfo) IsTerminal() bool {
	return s.Kind == KindTerminal || s.Kind == KindExternal
}

type ActionType uint8

const (
	ActionError ActionType = iota
	ActionShift
	ActionReduce
	ActionAccept
)

func (t ActionType) String() string {
	switch t {
	case ActionShift:
		return "shift"
	case ActionReduce:
		return "reduce"
	case ActionAccept:
		return "accept"
	}
	return "error"
}

// Action is one entry of the parse table. Shift actions on nonterminals are
// gotos.
type Action struct {
	Type       ActionType
	State      StateID
	Production uint16
}

func (a Action) String() string {
	switch a.Type {
	case ActionShift:
		return fmt.Sprintf("shift %d", a.State)
	case ActionReduce:
		return fmt.Sprintf("reduce %d", a.Production)
	}
	return a.Type.String()
}

type Production struct {
	LHS Symbol
	RHS []Symbol
	// Fields and Aliases run parallel to RHS; zero means none.
	Fields      []FieldID
	Aliases     []Symbol
	Prec        int
	Assoc       grammar.Assoc
	DynamicPrec int
}

// TerminalRule is the lexical definition of a terminal.
type TerminalRule struct {
	Symbol  Symbol
	Literal string
	Pattern string
	Fold    bool
	Prec    int
}

// IsLiteral reports whether the terminal matches a fixed string.
func (t TerminalRule) IsLiteral() bool { return t.Pattern == "" }

// LexMode lists the tokens valid in a set of parse states.
type LexMode struct {
	Terminals []Symbol
	Externals []Symbol
}

type Conflict struct {
	State   StateID
	Symbol  Symbol
	Actions []Action
}

// Language is a compiled grammar.
type Language struct {
	Version     uint32
	Name        string
	Fingerprint string
	Start       Symbol

	Symbols     []SymbolInfo
	Productions []Production
	Terminals   []TerminalRule
	Externals   []Symbol
	FieldNames  []string

	StateCount int
	// Table maps state*len(Symbols)+symbol to an index into Entries.
	// Entry zero is empty.
	Table   []uint16
	Entries [][]Action

	// StateLexModes maps each state to an index into LexModes. Mode zero
	// accepts every terminal and is used during error recovery.
	StateLexModes []uint16
	LexModes      []LexMode

	Conflicts []Conflict
}

// Lookup returns the preferred action for symbol in state. A zero Action
// (ActionError) means the symbol is not expected there.
func (l *Language) Lookup(state StateID, sym Symbol) (Action, error) {
	if int(state) >= l.StateCount {
		return Action{}, fmt.Errorf("%w: %d (table has %d states)", ErrInvalidState, state, l.StateCount)
	}
	acts := l.Actions(state, sym)
	if len(acts) == 0 {
		return Action{}, nil
	}
	return acts[0], nil
}

// Actions returns every action for symbol in state, preferred first. More
// than one action marks a conflict the parser explores in parallel.
func (l *Language) Actions(state StateID, sym Symbol) []Action {
	if int(state) >= l.StateCount || int(sym) >= len(l.Symbols) {
		return nil
	}
	return l.Entries[l.Table[int(state)*len(l.Symbols)+int(sym)]]
}

// Goto returns the state reached after reducing to nonterminal sym.
func (l *Language) Goto(state StateID, sym Symbol) (StateID, bool) {
	for _, a := range l.Actions(state, sym) {
		if a.Type == ActionShift {
			return a.State, true
		}
	}
	return 0, false
}

// HasReduce reports whether state reduces on sym.
func (l *Language) HasReduce(state StateID, sym Symbol) bool {
	for _, a := range l.Actions(state, sym) {
		if a.Type == ActionReduce {
			return true
		}
	}
	return false
}

func (l *Language) LexModeFor(state StateID) uint16 {
	if int(state) >= len(l.StateLexModes) {
		return 0
	}
	return l.StateLexModes[state]
}

func (l *Language) Symbol(sym Symbol) SymbolInfo {
	if sym == SymbolError {
		return SymbolInfo{Name: "ERROR", Kind: KindNonterminal, Named: true, Visible: true}
	}
	if int(sym) >= len(l.Symbols) {
		return SymbolInfo{}
	}
	return l.Symbols[sym]
}

func (l *Language) SymbolName(sym Symbol) string {
	return l.Symbol(sym).Name
}

// SymbolForName finds a visible symbol by name.
func (l *Language) SymbolForName(name string, named bool) (Symbol, bool) {
	if name == "ERROR" && named {
		return SymbolError, true
	}
	for i, s := range l.Symbols {
		if s.Name == name && s.Named == named && s.Visible {
			return Symbol(i), true
		}
	}
	return 0, false
}

func (l *Language) FieldName(id FieldID) string {
	if int(id) >= len(l.FieldNames) {
		return ""
	}
	return l.FieldNames[id]
}

func (l *Language) FieldID(name string) (FieldID, bool) {
	for i, n := range l.FieldNames {
		if i > 0 && n == name {
			return FieldID(i), true
		}
	}
	return 0, false
}
