// Package binding exposes the compiled VB.NET table to host code as an
// opaque handle. A handle carries a type tag; hosts check the tag before
// they use the table behind it.
package binding

import (
	"errors"
	"fmt"

	"github.com/dhamidi/vbsitter/language"
	"github.com/dhamidi/vbsitter/vbnet"
)

var ErrTypeTagMismatch = errors.New("handle type tag mismatch")

// TypeTag identifies the kind of resource behind a Handle.
type TypeTag struct {
	Lower uint64
	Upper uint64
}

func (t TypeTag) String() string { return fmt.Sprintf("%016x%016x", t.Upper, t.Lower) }

// LanguageTag marks handles to a compiled language table.
var LanguageTag = TypeTag{Lower: 0x8AF2E5212AD58ABF, Upper: 0xD5006CAD83ABBA16}

// Handle is an opaque reference to a language table. The table is static
// and is never released through a handle.
type Handle struct {
	tag  TypeTag
	lang *language.Language
}

// Wrap tags lang as a language handle.
func Wrap(lang *language.Language) Handle {
	return Handle{tag: LanguageTag, lang: lang}
}

func (h Handle) Tag() TypeTag { return h.tag }

// Unwrap returns the table behind h if h carries tag.
func Unwrap(h Handle, tag TypeTag) (*language.Language, error) {
	if h.tag != tag {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrTypeTagMismatch, h.tag, tag)
	}
	if h.lang == nil {
		return nil, fmt.Errorf("%w: empty handle", ErrTypeTagMismatch)
	}
	return h.lang, nil
}

// Exports returns the values a host module registers: the language handle
// and the grammar name.
func Exports() map[string]any {
	return map[string]any{
		"language": Wrap(vbnet.Language()),
		"name":     vbnet.Name,
	}
}
