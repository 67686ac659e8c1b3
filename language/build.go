package language

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/vbsitter/grammar"
)

var ErrTooManyStates = errors.New("grammar needs too many parse states")

var log = commonlog.GetLogger("vbsitter.language")

// Build compiles g into a parse table.
//
// The automaton is LR(0) with FOLLOW-set lookaheads. Shift/reduce conflicts
// are settled by static precedence and associativity; whatever remains is
// kept as a multi-action entry, shift first and reductions in production
// order, for the parser to explore in parallel.
func Build(g *grammar.Grammar) (*Language, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("validate grammar: %w", err)
	}
	n := newNormalizer(g)
	if err := n.run(); err != nil {
		return nil, fmt.Errorf("normalize grammar: %w", err)
	}
	b := &builder{lang: n.lang, index: make(map[string]int)}
	if err := b.automaton(); err != nil {
		return nil, err
	}
	b.lookaheads()
	b.actions()
	b.lexModes()
	b.reportConflicts(g)
	log.Infof("built %s: %d symbols, %d productions, %d states, %d conflicts",
		g.Name, len(b.lang.Symbols), len(b.lang.Productions), b.lang.StateCount, len(b.lang.Conflicts))
	return b.lang, nil
}

type lrItem struct {
	prod int
	dot  int
}

type lrState struct {
	items []lrItem
	trans map[Symbol]int
}

type builder struct {
	lang   *Language
	states []*lrState
	index  map[string]int
	byLHS  map[Symbol][]int

	nullable []bool
	first    []bitset
	follow   []bitset
}

func (b *builder) isTerminal(s Symbol) bool { return b.lang.Symbols[s].IsTerminal() }

func (b *builder) automaton() error {
	b.byLHS = make(map[Symbol][]int)
	for i, p := range b.lang.Productions {
		b.byLHS[p.LHS] = append(b.byLHS[p.LHS], i)
	}
	if _, err := b.addState([]lrItem{{prod: 0}}); err != nil {
		return err
	}
	for i := 0; i < len(b.states); i++ {
		st := b.states[i]
		next := make(map[Symbol][]lrItem)
		var syms []Symbol
		for _, it := range st.items {
			rhs := b.lang.Productions[it.prod].RHS
			if it.dot >= len(rhs) {
				continue
			}
			s := rhs[it.dot]
			if _, ok := next[s]; !ok {
				syms = append(syms, s)
			}
			next[s] = append(next[s], lrItem{prod: it.prod, dot: it.dot + 1})
		}
		sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
		for _, s := range syms {
			target, err := b.addState(next[s])
			if err != nil {
				return err
			}
			st.trans[s] = target
		}
	}
	b.lang.StateCount = len(b.states)
	return nil
}

func (b *builder) addState(kernel []lrItem) (int, error) {
	sort.Slice(kernel, func(i, j int) bool {
		if kernel[i].prod != kernel[j].prod {
			return kernel[i].prod < kernel[j].prod
		}
		return kernel[i].dot < kernel[j].dot
	})
	var key strings.Builder
	for _, it := range kernel {
		key.WriteString(strconv.Itoa(it.prod))
		key.WriteByte('.')
		key.WriteString(strconv.Itoa(it.dot))
		key.WriteByte(' ')
	}
	if i, ok := b.index[key.String()]; ok {
		return i, nil
	}
	if len(b.states) >= math.MaxUint16 {
		return 0, ErrTooManyStates
	}
	st := &lrState{items: b.closure(kernel), trans: make(map[Symbol]int)}
	b.states = append(b.states, st)
	b.index[key.String()] = len(b.states) - 1
	return len(b.states) - 1, nil
}

func (b *builder) closure(kernel []lrItem) []lrItem {
	items := append([]lrItem(nil), kernel...)
	added := make(map[Symbol]bool)
	for i := 0; i < len(items); i++ {
		it := items[i]
		rhs := b.lang.Productions[it.prod].RHS
		if it.dot >= len(rhs) {
			continue
		}
		s := rhs[it.dot]
		if b.isTerminal(s) || added[s] {
			continue
		}
		added[s] = true
		for _, p := range b.byLHS[s] {
			items = append(items, lrItem{prod: p})
		}
	}
	return items
}

// lookaheads computes nullable, FIRST and FOLLOW sets.
func (b *builder) lookaheads() {
	count := len(b.lang.Symbols)
	b.nullable = make([]bool, count)
	b.first = make([]bitset, count)
	b.follow = make([]bitset, count)
	for i := range b.first {
		b.first[i] = newBitset(count)
		b.follow[i] = newBitset(count)
		if b.isTerminal(Symbol(i)) {
			b.first[i].add(i)
		}
	}

	for changed := true; changed; {
		changed = false
		for _, p := range b.lang.Productions {
			all := true
			for _, s := range p.RHS {
				if b.first[p.LHS].union(b.first[s]) {
					changed = true
				}
				if !b.nullable[s] {
					all = false
					break
				}
			}
			if all && !b.nullable[p.LHS] {
				b.nullable[p.LHS] = true
				changed = true
			}
		}
	}

	b.follow[b.lang.Start].add(int(SymbolEnd))
	for changed := true; changed; {
		changed = false
		for _, p := range b.lang.Productions {
			trailer := b.follow[p.LHS].clone()
			for i := len(p.RHS) - 1; i >= 0; i-- {
				s := p.RHS[i]
				if !b.isTerminal(s) && b.follow[s].union(trailer) {
					changed = true
				}
				if b.nullable[s] {
					trailer.union(b.first[s])
				} else {
					trailer = b.first[s].clone()
				}
			}
		}
	}
}

type cell struct {
	shift     int
	hasShift  bool
	shiftPrec int
	accept    bool
	reduces   []int
}

func (b *builder) actions() {
	count := len(b.lang.Symbols)
	b.lang.Table = make([]uint16, len(b.states)*count)
	b.lang.Entries = [][]Action{nil}
	entries := map[string]uint16{"": 0}

	for si, st := range b.states {
		cells := make(map[Symbol]*cell)
		get := func(s Symbol) *cell {
			c, ok := cells[s]
			if !ok {
				c = &cell{shiftPrec: math.MinInt}
				cells[s] = c
			}
			return c
		}
		for _, it := range st.items {
			p := b.lang.Productions[it.prod]
			if it.dot < len(p.RHS) {
				s := p.RHS[it.dot]
				c := get(s)
				c.shift, c.hasShift = st.trans[s], true
				if p.Prec > c.shiftPrec {
					c.shiftPrec = p.Prec
				}
				continue
			}
			if it.prod == 0 {
				get(SymbolEnd).accept = true
				continue
			}
			for _, t := range b.follow[p.LHS].members() {
				c := get(Symbol(t))
				if !containsInt(c.reduces, it.prod) {
					c.reduces = append(c.reduces, it.prod)
				}
			}
		}

		syms := make([]Symbol, 0, len(cells))
		for s := range cells {
			syms = append(syms, s)
		}
		sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
		for _, s := range syms {
			acts := b.resolve(cells[s])
			if len(acts) == 0 {
				continue
			}
			if len(acts) > 1 {
				b.lang.Conflicts = append(b.lang.Conflicts, Conflict{State: StateID(si), Symbol: s, Actions: acts})
			}
			key := actionsKey(acts)
			idx, ok := entries[key]
			if !ok {
				idx = uint16(len(b.lang.Entries))
				b.lang.Entries = append(b.lang.Entries, acts)
				entries[key] = idx
			}
			b.lang.Table[si*count+int(s)] = idx
		}
	}
}

// resolve orders the candidate actions of one cell and drops those that
// lose on precedence.
func (b *builder) resolve(c *cell) []Action {
	sort.Ints(c.reduces)
	shiftAlive := c.hasShift
	var reduces []int
	for _, r := range c.reduces {
		p := b.lang.Productions[r]
		if !c.hasShift {
			reduces = append(reduces, r)
			continue
		}
		switch {
		case p.Prec > c.shiftPrec:
			shiftAlive = false
			reduces = append(reduces, r)
		case p.Prec < c.shiftPrec:
		case p.Assoc == grammar.AssocLeft:
			shiftAlive = false
			reduces = append(reduces, r)
		case p.Assoc == grammar.AssocRight:
		default:
			reduces = append(reduces, r)
		}
	}
	if len(reduces) > 1 {
		best := math.MinInt
		for _, r := range reduces {
			best = max(best, b.lang.Productions[r].Prec)
		}
		kept := reduces[:0]
		for _, r := range reduces {
			if b.lang.Productions[r].Prec == best {
				kept = append(kept, r)
			}
		}
		reduces = kept
	}

	var acts []Action
	if c.accept {
		acts = append(acts, Action{Type: ActionAccept})
	}
	if shiftAlive {
		acts = append(acts, Action{Type: ActionShift, State: StateID(c.shift)})
	}
	for _, r := range reduces {
		acts = append(acts, Action{Type: ActionReduce, Production: uint16(r)})
	}
	return acts
}

func actionsKey(acts []Action) string {
	var b strings.Builder
	for _, a := range acts {
		fmt.Fprintf(&b, "%d:%d:%d;", a.Type, a.State, a.Production)
	}
	return b.String()
}

// lexModes groups states by the terminals they accept.
func (b *builder) lexModes() {
	all := LexMode{Externals: append([]Symbol(nil), b.lang.Externals...)}
	for i, s := range b.lang.Symbols {
		if s.Kind == KindTerminal && i != int(SymbolEnd) && !s.Extra {
			all.Terminals = append(all.Terminals, Symbol(i))
		}
	}
	b.lang.LexModes = []LexMode{all}
	modes := map[string]uint16{}
	b.lang.StateLexModes = make([]uint16, len(b.states))
	count := len(b.lang.Symbols)
	for si := range b.states {
		var mode LexMode
		var key strings.Builder
		for s := 1; s < count; s++ {
			info := b.lang.Symbols[s]
			if !info.IsTerminal() || info.Extra || b.lang.Table[si*count+s] == 0 {
				continue
			}
			if info.Kind == KindExternal {
				mode.Externals = append(mode.Externals, Symbol(s))
			} else {
				mode.Terminals = append(mode.Terminals, Symbol(s))
			}
			key.WriteString(strconv.Itoa(s))
			key.WriteByte(',')
		}
		idx, ok := modes[key.String()]
		if !ok {
			idx = uint16(len(b.lang.LexModes))
			b.lang.LexModes = append(b.lang.LexModes, mode)
			modes[key.String()] = idx
		}
		b.lang.StateLexModes[si] = idx
	}
}

// reportConflicts logs conflicts between rules that the grammar does not
// list as expected.
func (b *builder) reportConflicts(g *grammar.Grammar) {
	for _, c := range b.lang.Conflicts {
		var names []string
		for _, a := range c.Actions {
			if a.Type == ActionReduce {
				names = append(names, b.lang.Symbols[b.lang.Productions[a.Production].LHS].Name)
			}
		}
		if expectedConflict(g.Conflicts, names) {
			log.Debugf("expected conflict in state %d on %q: %v", c.State, b.lang.Symbols[c.Symbol].Name, c.Actions)
			continue
		}
		log.Infof("conflict in state %d on %q between %s: %v",
			c.State, b.lang.Symbols[c.Symbol].Name, strings.Join(names, ", "), c.Actions)
	}
}

func expectedConflict(groups [][]string, names []string) bool {
	for _, group := range groups {
		ok := true
		for _, n := range names {
			if !containsString(group, strings.TrimLeft(n, "_")) && !containsString(group, n) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (s bitset) add(i int) { s[i/64] |= 1 << (uint(i) % 64) }

func (s bitset) has(i int) bool { return s[i/64]&(1<<(uint(i)%64)) != 0 }

// union adds o to s and reports whether s grew.
func (s bitset) union(o bitset) bool {
	changed := false
	for i := range s {
		v := s[i] | o[i]
		if v != s[i] {
			s[i] = v
			changed = true
		}
	}
	return changed
}

func (s bitset) clone() bitset { return append(bitset(nil), s...) }

func (s bitset) members() []int {
	var out []int
	for i := range s {
		for w := s[i]; w != 0; w &= w - 1 {
			out = append(out, i*64+bits.TrailingZeros64(w))
		}
	}
	return out
}
