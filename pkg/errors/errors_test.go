package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAt(t *testing.T) {
	pos := Position{File: "top.v", Line: 3, Column: 7, Offset: 42}
	err := At(ErrCodeParse, pos, "expected %s", "';'")

	expected := "top.v:3:7: PARSE_ERROR: expected ';'"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
	if got := UserMessage(err); got != "top.v:3:7: expected ';'" {
		t.Errorf("UserMessage() = %v", got)
	}
}

func TestPositionString(t *testing.T) {
	tests := []struct {
		pos  Position
		want string
	}{
		{Position{}, ""},
		{Position{File: "a.v"}, "a.v"},
		{Position{Line: 1, Column: 2}, "1:2"},
		{Position{File: "a.v", Line: 1, Column: 2}, "a.v:1:2"},
	}
	for _, tt := range tests {
		if got := tt.pos.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.pos, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeCacheCorrupt, cause, "failed to decode")

	if err.Code != ErrCodeCacheCorrupt {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeCacheCorrupt)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	var list List
	list.Add(New(ErrCodeDuplicateModule, "a"))
	list.Add(New(ErrCodeUnresolvedReference, "b"))

	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeParse,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeCacheCorrupt, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeCacheCorrupt,
			expected: true,
		},
		{
			name:     "second element of a list",
			err:      list,
			code:     ErrCodeUnresolvedReference,
			expected: true,
		},
		{
			name:     "list wrapped with fmt",
			err:      fmt.Errorf("parse top.v: %w", list),
			code:     ErrCodeDuplicateModule,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeUnknownPort, "test"),
			expected: ErrCodeUnknownPort,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestList(t *testing.T) {
	var l List
	if l.Err() != nil {
		t.Fatal("empty list should produce nil error")
	}

	second := At(ErrCodeDuplicateInstance, Position{Line: 9, Offset: 90}, "second")
	first := At(ErrCodeDuplicateModule, Position{Line: 2, Offset: 20}, "first")
	l.Add(second)
	l.Add(nil)
	l.Add(first)

	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}

	l.Sort()
	if l[0] != first || l[1] != second {
		t.Errorf("Sort() did not order by offset: %v", l)
	}

	var target *Error
	if !errors.As(l.Err(), &target) || target != first {
		t.Errorf("errors.As should find the first error, got %v", target)
	}

	if got := Filter(l, ErrCodeDuplicateInstance); len(got) != 1 || got[0] != second {
		t.Errorf("Filter() = %v", got)
	}

	single := List{first}
	if single.Err() != first {
		t.Errorf("single-element Err() should return the element")
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeLex,
		ErrCodeParse,
		ErrCodeDuplicateModule,
		ErrCodeDuplicateInstance,
		ErrCodeUnresolvedReference,
		ErrCodeCyclicInstantiation,
		ErrCodeUnknownPort,
		ErrCodeUnresolvedGraph,
		ErrCodeCacheCorrupt,
		ErrCodeInvalidInput,
		ErrCodeInvalidConfig,
		ErrCodeFileNotFound,
		ErrCodeInternal,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}

func TestFormat(t *testing.T) {
	dup := At(ErrCodeDuplicateModule, Position{File: "a.v", Line: 9, Column: 1}, "module m is defined twice")
	dup.Related = []Position{{File: "a.v", Line: 1, Column: 1}}
	var l List
	l.Add(dup)
	l.Add(New(ErrCodeUnresolvedReference, "missing"))

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "boom"},
		{"wrapped", Wrap(ErrCodeCacheCorrupt, errors.New("eof"), "bad artifact"), "CACHE_CORRUPT: bad artifact: eof"},
		{"list", l.Err(), "a.v:9:1: DUPLICATE_MODULE: module m is defined twice\n    see a.v:1:1\nUNRESOLVED_REFERENCE: missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.err); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}
