// Package diag implements the diagnostic accumulator described in
// spec.md §7: diagnostics are collected, never thrown, and every
// diagnostic kind carries a source span and file.
package diag

import (
	"fmt"
	"sort"

	"github.com/mna/gib/lang/token"
)

// Kind identifies the shape of a Diagnostic, one per spec.md §7 bullet.
type Kind int

const (
	// Syntax is used by the scanner/parser for lexical/grammar errors;
	// these are mechanical collaborators (spec.md §1) but still need to
	// report through the same accumulator.
	Syntax Kind = iota
	Unresolved
	Simple
	IsNotInstance
	UnexpectedArgs
	MissingReceiver
	UnexpectedWildcard
	ImplTypeMismatch
	UnboundTypeVar
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax error"
	case Unresolved:
		return "unresolved"
	case Simple:
		return "error"
	case IsNotInstance:
		return "type mismatch"
	case UnexpectedArgs:
		return "argument mismatch"
	case MissingReceiver:
		return "missing receiver"
	case UnexpectedWildcard:
		return "unexpected wildcard"
	case ImplTypeMismatch:
		return "impl type mismatch"
	case UnboundTypeVar:
		return "unbound type variable"
	default:
		return "diagnostic"
	}
}

// Diagnostic is one accumulated error or warning. Kind-specific detail
// fields (Expected/Found, arity counts, callee name, ...) are optional and
// rendered by Error() when present.
type Diagnostic struct {
	Kind     Kind
	File     string
	Span     token.Span
	Pos      token.Position // resolved, for display and sorting
	Message  string
	Expected string
	Found    string
	WantArgs int
	GotArgs  int
	Callee   string
}

func (d *Diagnostic) Error() string {
	switch d.Kind {
	case IsNotInstance:
		return fmt.Sprintf("%s: %s: expected %s, found %s", d.Pos, d.Kind, d.Expected, d.Found)
	case UnexpectedArgs:
		return fmt.Sprintf("%s: %s: %s expects %d argument(s), got %d", d.Pos, d.Kind, d.Callee, d.WantArgs, d.GotArgs)
	default:
		if d.Message != "" {
			return fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Message)
		}
		return fmt.Sprintf("%s: %s", d.Pos, d.Kind)
	}
}

// List is an accumulator of Diagnostics, modeled on go/scanner.ErrorList:
// Add never fails, Sort orders by file then position so output (and the
// determinism property of spec.md §8) is reproducible, and Err returns nil
// for an empty list so callers can treat "no diagnostics" as success.
type List struct {
	items []*Diagnostic
}

// Add appends a diagnostic to the list.
func (l *List) Add(d *Diagnostic) { l.items = append(l.items, d) }

// Errorf appends a Simple diagnostic built from a format string.
func (l *List) Errorf(file string, span token.Span, pos token.Position, format string, args ...interface{}) {
	l.Add(&Diagnostic{Kind: Simple, File: file, Span: span, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Len reports the number of accumulated diagnostics.
func (l *List) Len() int { return len(l.items) }

// Items returns the accumulated diagnostics in their current order.
func (l *List) Items() []*Diagnostic { return l.items }

// Sort orders diagnostics by file, then by position, for deterministic
// output (spec.md §8 property 5/6).
func (l *List) Sort() {
	sort.SliceStable(l.items, func(i, j int) bool {
		a, b := l.items[i], l.items[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Pos.Line != b.Pos.Line {
			return a.Pos.Line < b.Pos.Line
		}
		return a.Pos.Col < b.Pos.Col
	})
}

// Err returns nil if the list is empty, otherwise the list itself (which
// implements error).
func (l *List) Err() error {
	if len(l.items) == 0 {
		return nil
	}
	return l
}

func (l *List) Error() string {
	switch len(l.items) {
	case 0:
		return "no errors"
	case 1:
		return l.items[0].Error()
	}
	s := fmt.Sprintf("%s (and %d more errors)", l.items[0].Error(), len(l.items)-1)
	return s
}

// Unwrap exposes every diagnostic as an error, matching the convention
// errors.Join-aware callers expect (and that the teacher's ScanFiles doc
// comment promises: "guaranteed to implement Unwrap() []error").
func (l *List) Unwrap() []error {
	errs := make([]error, len(l.items))
	for i, d := range l.items {
		errs[i] = d
	}
	return errs
}
