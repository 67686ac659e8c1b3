package lexer

import (
	"errors"
	"fmt"

	"github.com/dhamidi/vbsitter/language"
)

// ErrLex is wrapped by every LexError.
var ErrLex = errors.New("no token matches")

// LexError reports input that no valid token matches. The accompanying
// token is zero-width; callers decide how to skip the offending bytes.
type LexError struct {
	Offset uint32
	Byte   byte
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at offset %d: no token matches %q", e.Offset, e.Byte)
}

func (e *LexError) Unwrap() error { return ErrLex }

// Token is a lexed terminal. Bytes between TriviaStart and Start were
// skipped as whitespace or other skip extras.
type Token struct {
	Symbol      language.Symbol
	TriviaStart uint32
	Start       uint32
	End         uint32
	Extra       bool
	Error       bool
}

func (t Token) Len() uint32 { return t.End - t.Start }

// Padding is the number of skipped bytes before the token.
func (t Token) Padding() uint32 { return t.Start - t.TriviaStart }

func (t Token) Text(input []byte) string { return string(input[t.Start:t.End]) }

func (t Token) String() string {
	return fmt.Sprintf("%d-%d sym=%d", t.Start, t.End, t.Symbol)
}
