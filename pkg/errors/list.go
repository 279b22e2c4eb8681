package errors

import (
	"errors"
	"slices"
	"strings"
)

// List aggregates several errors found during one pass (duplicate checks,
// resolution, cycle detection) so a caller sees every structural problem
// at once. The zero value is an empty list.
type List []*Error

// Add appends err to the list. Nil errors are ignored.
func (l *List) Add(err *Error) {
	if err != nil {
		*l = append(*l, err)
	}
}

// Extend appends all errors of other.
func (l *List) Extend(other List) {
	*l = append(*l, other...)
}

// Len returns the number of collected errors.
func (l List) Len() int { return len(l) }

// Error joins all messages, one per line.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (l List) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// Err returns nil for an empty list, the single error for a one-element
// list, and the list itself otherwise.
func (l List) Err() error {
	switch len(l) {
	case 0:
		return nil
	case 1:
		return l[0]
	}
	return l
}

// Sort orders the list by source position, keeping insertion order for
// errors at the same position.
func (l List) Sort() {
	slices.SortStableFunc(l, func(a, b *Error) int {
		if a.Pos.File != b.Pos.File {
			return strings.Compare(a.Pos.File, b.Pos.File)
		}
		return a.Pos.Offset - b.Pos.Offset
	})
}

// All flattens err into the structured errors it carries: the elements of a
// List, or the first *Error in its wrap chain.
func All(err error) []*Error {
	if err == nil {
		return nil
	}
	var l List
	if errors.As(err, &l) {
		return l
	}
	var e *Error
	if errors.As(err, &e) {
		return []*Error{e}
	}
	return nil
}

// Filter returns the errors of err that carry the given code.
func Filter(err error, code Code) []*Error {
	var out []*Error
	for _, e := range All(err) {
		if e.Code == code {
			out = append(out, e)
		}
	}
	return out
}

// Format renders err for terminal output: one line per structured error as
// "pos: CODE: message", each related position indented below it. Errors
// without structure are rendered with their Error text.
func Format(err error) string {
	if err == nil {
		return ""
	}
	all := All(err)
	if len(all) == 0 {
		return err.Error()
	}
	var b strings.Builder
	for i, e := range all {
		if i > 0 {
			b.WriteByte('\n')
		}
		if e.Pos.IsValid() {
			b.WriteString(e.Pos.String())
			b.WriteString(": ")
		}
		b.WriteString(string(e.Code))
		b.WriteString(": ")
		b.WriteString(e.Message)
		if e.Cause != nil {
			b.WriteString(": ")
			b.WriteString(e.Cause.Error())
		}
		for _, p := range e.Related {
			if p.IsValid() {
				b.WriteString("\n    see ")
				b.WriteString(p.String())
			}
		}
	}
	return b.String()
}
