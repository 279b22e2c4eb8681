package lexer

// Keywords of the structural subset.
var supported = map[string]bool{
	"module":    true,
	"endmodule": true,
	"input":     true,
	"output":    true,
	"inout":     true,
	"wire":      true,
	"tri":       true,
	"supply0":   true,
	"supply1":   true,
}

// Reserved words of constructs outside the structural subset. They are
// lexed as keywords so the parser can reject them by name.
var unsupported = map[string]bool{
	"reg":         true,
	"assign":      true,
	"always":      true,
	"initial":     true,
	"parameter":   true,
	"localparam":  true,
	"generate":    true,
	"endgenerate": true,
	"function":    true,
	"task":        true,
	"begin":       true,
	"end":         true,
}

// IsKeyword reports whether word is lexed as a [Keyword].
func IsKeyword(word string) bool { return supported[word] || unsupported[word] }

// IsUnsupported reports whether word is a reserved keyword of a construct
// the parser does not accept.
func IsUnsupported(word string) bool { return unsupported[word] }
