package language

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// Encode writes the table in gob format.
func (l *Language) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := gob.NewEncoder(bw).Encode(l); err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	return bw.Flush()
}

// Decode reads a table written by Encode and validates it. A table written
// by a different layout version is rejected with ErrInvalidState.
func Decode(r io.Reader) (*Language, error) {
	var l Language
	if err := gob.NewDecoder(bufio.NewReader(r)).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	if l.Version != Version {
		return nil, fmt.Errorf("%w: table version %d, want %d", ErrInvalidState, l.Version, Version)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Save writes the table to path, truncating any existing file.
func (l *Language) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table file: %w", err)
	}
	if err := l.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a table file written by Save.
func Load(path string) (*Language, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Validate checks that every action points at an existing state,
// production and symbol.
func (l *Language) Validate() error {
	count := len(l.Symbols)
	if count == 0 || l.StateCount == 0 {
		return fmt.Errorf("%w: empty table", ErrInvalidState)
	}
	if len(l.Table) != l.StateCount*count {
		return fmt.Errorf("%w: table has %d cells, want %d", ErrInvalidState, len(l.Table), l.StateCount*count)
	}
	if len(l.StateLexModes) != l.StateCount {
		return fmt.Errorf("%w: %d lex mode assignments for %d states", ErrInvalidState, len(l.StateLexModes), l.StateCount)
	}
	if int(l.Start) >= count {
		return fmt.Errorf("%w: start symbol %d out of range", ErrInvalidState, l.Start)
	}
	for i, idx := range l.Table {
		if int(idx) >= len(l.Entries) {
			return fmt.Errorf("%w: cell %d refers to missing entry %d", ErrInvalidState, i, idx)
		}
	}
	for _, entry := range l.Entries {
		for _, a := range entry {
			switch a.Type {
			case ActionShift:
				if int(a.State) >= l.StateCount {
					return fmt.Errorf("%w: shift to state %d", ErrInvalidState, a.State)
				}
			case ActionReduce:
				if int(a.Production) >= len(l.Productions) {
					return fmt.Errorf("%w: reduce by missing production %d", ErrInvalidState, a.Production)
				}
			}
		}
	}
	for _, p := range l.Productions {
		if int(p.LHS) >= count {
			return fmt.Errorf("%w: production symbol %d out of range", ErrInvalidState, p.LHS)
		}
		if len(p.Fields) != len(p.RHS) || len(p.Aliases) != len(p.RHS) {
			return fmt.Errorf("%w: production of %s has mismatched metadata", ErrInvalidState, l.Symbols[p.LHS].Name)
		}
		for _, s := range p.RHS {
			if int(s) >= count {
				return fmt.Errorf("%w: production symbol %d out of range", ErrInvalidState, s)
			}
		}
	}
	for _, m := range l.StateLexModes {
		if int(m) >= len(l.LexModes) {
			return fmt.Errorf("%w: missing lex mode %d", ErrInvalidState, m)
		}
	}
	return nil
}
