package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// identifierRegex matches a simple (non-escaped) netlist identifier.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// ValidateIdentifier validates a module or cell name supplied outside of
// netlist text (config files, command-line flags). Escaped identifiers
// (leading backslash) are accepted as long as they contain no whitespace.
func ValidateIdentifier(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "identifier cannot be empty")
	}

	if len(name) > 1024 {
		return New(ErrCodeInvalidInput, "identifier too long (max 1024 characters)")
	}

	if strings.HasPrefix(name, `\`) {
		if len(name) == 1 {
			return New(ErrCodeInvalidInput, "escaped identifier cannot be empty")
		}
		for _, r := range name {
			if unicode.IsSpace(r) || unicode.IsControl(r) {
				return New(ErrCodeInvalidInput, "escaped identifier %q contains whitespace or control characters", name)
			}
		}
		return nil
	}

	if !identifierRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid identifier: %q", name)
	}

	return nil
}

// ValidateSourcePath validates the path of a netlist source file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidateSourcePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "source path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "source path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "source path contains invalid characters")
		}
	}

	return nil
}
