package vbnet

import (
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/vbsitter/language"
	"github.com/dhamidi/vbsitter/parser"
)

var log = commonlog.GetLogger("vbsitter.vbnet")

var (
	once sync.Once
	lang *language.Language
)

// Language returns the compiled VB.NET table. It is built on first use and
// shared afterwards; tables are read-only.
func Language() *language.Language {
	once.Do(func() {
		l, err := language.Build(NewGrammar())
		if err != nil {
			panic("vbnet: build language: " + err.Error())
		}
		log.Debugf("compiled %s: %d states", Name, l.StateCount)
		lang = l
	})
	return lang
}

// NewParser returns a parser for VB.NET source.
func NewParser(opts ...parser.Option) *parser.Parser {
	return parser.New(Language(), opts...)
}

// Parse parses src from scratch.
func Parse(src []byte) *parser.Tree {
	return NewParser().Parse(src, nil)
}
