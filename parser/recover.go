package parser

import (
	"github.com/dhamidi/vbsitter/language"
)

const (
	errorCostPerSkip  = 1
	errorCostPerPop   = 1
	errorCostRecovery = 2
)

// recover repairs v after every live version failed on v.failTok. It
// either pops the stack back to the nearest state that can handle the
// token, wrapping what was popped in an ERROR node, or skips the token
// into an ERROR node. At the end of input it returns the finished root.
func (p *Parser) recover(v *version) *subtree {
	tok := v.failTok
	v.cost += errorCostRecovery
	repeated := v.lastRecovery == int64(v.pos)
	v.lastRecovery = int64(v.pos)

	if !repeated {
		for depth := len(v.stack) - 2; depth >= 0; depth-- {
			if len(p.lang.Actions(v.stack[depth].state, tok.Symbol)) == 0 {
				continue
			}
			n := len(v.stack) - 1 - depth
			p.log.Debugf("recovering at %d: popping %d entries for %s", tok.Start, n, p.lang.SymbolName(tok.Symbol))
			v.popTo(depth)
			v.cost += errorCostPerPop * n
			return nil
		}
	}

	if tok.Symbol == language.SymbolEnd {
		p.log.Debugf("no accepting path at end of input, finalizing")
		return p.finalize(v, false)
	}

	p.log.Debugf("recovering at %d: skipping %s", tok.Start, p.lang.SymbolName(tok.Symbol))
	v.pushError(newLeaf(tok.Symbol, tok.Padding(), tok.Len(), v.top()))
	v.pos = tok.End
	v.cost += errorCostPerSkip
	return nil
}

// popTo removes the entries above depth and pushes them back as a single
// ERROR node in the state at depth.
func (v *version) popTo(depth int) {
	popped := v.nodes()[depth:]
	v.stack = v.stack[:depth+1]
	if len(popped) == 1 && popped[0].isError() {
		v.pushExtra(popped[0])
		return
	}
	node := newNode(language.SymbolError, popped, nil)
	node.state = v.top()
	v.pushExtra(node)
}

// finalize builds a root from whatever v holds. When the input was not
// consumed, the rest is kept in a trailing ERROR leaf so the root still
// spans everything.
func (p *Parser) finalize(v *version, truncated bool) *subtree {
	if v == nil {
		return p.buildRoot(nil)
	}
	nodes := v.nodes()
	if truncated && int(v.pos) < len(p.input) {
		nodes = append(nodes, newLeaf(language.SymbolError, 0, uint32(len(p.input))-v.pos, v.top()))
	}
	return p.buildRoot(nodes)
}
