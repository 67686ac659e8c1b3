package parser

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/vbsitter/language"
	"github.com/dhamidi/vbsitter/lexer"
)

// DefaultMaxVersions bounds the number of stack versions explored at once.
const DefaultMaxVersions = 8

// Stats describes the most recent parse.
type Stats struct {
	Steps       int
	Reused      int
	Forks       int
	MaxVersions int
	Recoveries  int
}

func (s Stats) String() string {
	return fmt.Sprintf("steps=%d reused=%d forks=%d max-versions=%d recoveries=%d",
		s.Steps, s.Reused, s.Forks, s.MaxVersions, s.Recoveries)
}

// Parser turns input into trees. A Parser is not safe for concurrent use;
// create one per goroutine and share the Language.
type Parser struct {
	lang        *language.Language
	lexer       *lexer.Lexer
	lexOpts     []lexer.Option
	log         commonlog.Logger
	maxVersions int

	stats Stats

	// per-parse state
	input    []byte
	tokens   map[lexKey]lexResult
	reuse    *reuseCursor
	versions []*version
	failed   []*version
	accepted []*version
}

type Option func(*Parser)

func WithMaxVersions(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxVersions = n
		}
	}
}

func WithExternalScanner(s lexer.ExternalScanner) Option {
	return func(p *Parser) { p.lexOpts = append(p.lexOpts, lexer.WithExternalScanner(s)) }
}

func WithLogger(log commonlog.Logger) Option {
	return func(p *Parser) { p.log = log }
}

func New(lang *language.Language, opts ...Option) *Parser {
	p := &Parser{
		lang:        lang,
		log:         commonlog.GetLogger("vbsitter.parser"),
		maxVersions: DefaultMaxVersions,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lexer = lexer.New(lang, p.lexOpts...)
	return p
}

func (p *Parser) Language() *language.Language { return p.lang }

// Stats reports counters of the last parse.
func (p *Parser) Stats() Stats { return p.stats }

// ParseEdits applies edits to old, in order, and reparses input, which must
// be the text after all edits.
func (p *Parser) ParseEdits(input []byte, old *Tree, edits ...Edit) *Tree {
	if old != nil {
		for _, e := range edits {
			old = old.Edit(e)
		}
	}
	return p.Parse(input, old)
}

// ParseReader reads r to the end and parses it. A read error is returned
// as is; the parse itself cannot fail.
func (p *Parser) ParseReader(r io.Reader, old *Tree) (*Tree, error) {
	input, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return p.Parse(input, old), nil
}

// Parse parses input. When old is non-nil it must describe input, usually
// after Edit; its undamaged subtrees are reused. Parse always returns a
// tree whose root spans the whole input. Syntax errors appear as ERROR
// nodes.
func (p *Parser) Parse(input []byte, old *Tree) *Tree {
	tree := p.parse(input, old)
	if tree.HasError() && p.stats.Reused > 0 {
		// Recovery depends on how the stack was built, so a reused node
		// can steer it elsewhere than a fresh parse would go.
		p.log.Debugf("reparsing %d bytes without reuse after errors", len(input))
		tree = p.parse(input, nil)
	}
	return tree
}

func (p *Parser) parse(input []byte, old *Tree) *Tree {
	p.reset(input, old)
	defer p.release()

	budget := 4096 + 64*(len(input)+1)
	for {
		if p.stats.Steps >= budget {
			p.log.Warningf("step budget of %d exhausted at %d versions", budget, len(p.versions))
			return p.finish(p.finalize(p.best(append(p.versions, p.failed...)), true))
		}
		v := p.next()
		if v == nil {
			if len(p.accepted) > 0 {
				return p.finish(p.best(p.accepted).root)
			}
			v = p.bestFailed()
			p.failed = nil
			if v == nil {
				return p.finish(p.buildRoot(nil))
			}
			p.stats.Recoveries++
			if root := p.recover(v); root != nil {
				return p.finish(root)
			}
			p.versions = []*version{v}
			continue
		}
		p.stats.Steps++
		p.advance(v)
		p.condense()
		p.stats.MaxVersions = max(p.stats.MaxVersions, len(p.versions))
	}
}

func (p *Parser) reset(input []byte, old *Tree) {
	p.stats = Stats{}
	p.input = input
	p.tokens = make(map[lexKey]lexResult)
	p.reuse = nil
	if old != nil && old.lang == p.lang {
		p.reuse = newReuseCursor(old.root)
	}
	p.versions = []*version{newVersion()}
	p.failed = nil
	p.accepted = nil
}

func (p *Parser) release() {
	p.input = nil
	p.tokens = nil
	p.reuse = nil
	p.versions = nil
	p.failed = nil
	p.accepted = nil
}

func (p *Parser) finish(root *subtree) *Tree {
	return newTree(p.lang, root, p.input)
}

// next returns the live version furthest behind.
func (p *Parser) next() *version {
	var v *version
	for _, c := range p.versions {
		if v == nil || c.pos < v.pos {
			v = c
		}
	}
	return v
}

// advance performs one action on v: a reuse, a shift, a reduce, an accept
// or a failure.
func (p *Parser) advance(v *version) {
	state := v.top()
	if len(p.versions) == 1 && p.reuse != nil {
		if node := p.reusable(v, state); node != nil {
			target, _ := p.lang.Goto(state, node.symbol)
			v.push(target, node)
			v.pos += node.total()
			p.stats.Reused++
			return
		}
	}

	tok, ok := p.lex(v.pos, p.lang.LexModeFor(state))
	if !ok {
		// Nothing lexes here in any mode: skip one rune.
		_, size := utf8.DecodeRune(p.input[tok.Start:])
		leaf := newLeaf(language.SymbolError, tok.Padding(), uint32(size), state)
		v.pushError(leaf)
		v.pos = tok.Start + uint32(size)
		v.cost += errorCostPerSkip
		p.stats.Recoveries++
		p.log.Debugf("skipped unrecognised input at %d", tok.Start)
		return
	}

	acts := p.lang.Actions(state, tok.Symbol)
	if len(acts) == 0 {
		if tok.Extra {
			v.pushExtra(newLeaf(tok.Symbol, tok.Padding(), tok.Len(), state))
			v.pos = tok.End
			return
		}
		v.failTok = tok
		p.fail(v)
		return
	}
	for i := len(acts) - 1; i >= 1; i-- {
		fork := v.clone()
		fork.path = append(fork.path, uint8(i))
		p.versions = append(p.versions, fork)
		p.stats.Forks++
		p.apply(fork, acts[i], tok)
	}
	if len(acts) > 1 {
		v.path = append(v.path, 0)
	}
	p.apply(v, acts[0], tok)
}

func (p *Parser) apply(v *version, act language.Action, tok lexer.Token) {
	switch act.Type {
	case language.ActionShift:
		leaf := newLeaf(tok.Symbol, tok.Padding(), tok.Len(), v.top())
		leaf.extra = tok.Extra
		v.push(act.State, leaf)
		v.pos = tok.End
	case language.ActionReduce:
		p.reduce(v, act.Production)
	case language.ActionAccept:
		v.root = p.buildRoot(v.nodes())
		p.remove(v)
		p.accepted = append(p.accepted, v)
	}
}

// fail moves v out of the live set.
func (p *Parser) fail(v *version) {
	p.remove(v)
	p.failed = append(p.failed, v)
}

func (p *Parser) remove(v *version) {
	for i, c := range p.versions {
		if c == v {
			p.versions = append(p.versions[:i], p.versions[i+1:]...)
			return
		}
	}
}

// condense drops versions that duplicate a preferred version and enforces
// the version limit.
func (p *Parser) condense() {
	kept := p.versions[:0]
	for _, v := range p.versions {
		dup := false
		for i, k := range kept {
			if !k.sameStack(v) {
				continue
			}
			dup = true
			if v.preferred(k) {
				kept[i] = v
			}
			break
		}
		if !dup {
			kept = append(kept, v)
		}
	}
	for len(kept) > p.maxVersions {
		worst := 0
		for i := range kept {
			if kept[worst].preferred(kept[i]) {
				worst = i
			}
		}
		kept = append(kept[:worst], kept[worst+1:]...)
	}
	clear(p.versions[len(kept):])
	p.versions = kept
}

func (p *Parser) best(vs []*version) *version {
	var b *version
	for _, v := range vs {
		if b == nil || v.preferred(b) {
			b = v
		}
	}
	return b
}

// bestFailed picks the failed version that got furthest, then the
// preferred one.
func (p *Parser) bestFailed() *version {
	var b *version
	for _, v := range p.failed {
		switch {
		case b == nil, v.pos > b.pos:
			b = v
		case v.pos == b.pos && v.preferred(b):
			b = v
		}
	}
	return b
}

type lexKey struct {
	pos  uint32
	mode uint16
}

type lexResult struct {
	tok lexer.Token
	ok  bool
}

// lex returns the token at pos valid in mode, falling back to the error
// mode where every terminal is valid. ok is false when nothing matches.
func (p *Parser) lex(pos uint32, mode uint16) (lexer.Token, bool) {
	key := lexKey{pos, mode}
	if r, hit := p.tokens[key]; hit {
		return r.tok, r.ok
	}
	tok, err := p.lexer.Next(p.input, pos, mode)
	ok := err == nil
	if !ok && mode != 0 {
		tok, ok = p.lex(pos, 0)
	}
	p.tokens[key] = lexResult{tok, ok}
	return tok, ok
}
