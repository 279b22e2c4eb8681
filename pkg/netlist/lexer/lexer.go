// Package lexer turns netlist source text into a lazy sequence of tokens.
//
// Token rules are declared with participle's simple lexer; identifiers are
// then classified into keywords and plain identifiers. Whitespace is
// dropped, comments are kept as [Comment] tokens, and every successful
// sequence ends with exactly one [EOF] token.
//
// Lexing is all-or-nothing: the first unrecognized character yields a
// LEX_ERROR carrying its position and the sequence stops.
package lexer

import (
	stderrors "errors"
	"iter"
	"unicode/utf8"

	plexer "github.com/alecthomas/participle/v2/lexer"

	"github.com/matzehuels/netlistdb/pkg/errors"
)

// Kind classifies a token.
type Kind int

const (
	Identifier Kind = iota
	Keyword
	Punct
	Number
	String
	Comment
	EOF
)

var kindNames = [...]string{
	Identifier: "identifier",
	Keyword:    "keyword",
	Punct:      "punctuation",
	Number:     "number",
	String:     "string",
	Comment:    "comment",
	EOF:        "end of input",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Token is one lexeme with its source position.
type Token struct {
	Kind Kind
	Text string
	Pos  errors.Position
}

// Is reports whether the token has the given kind and text.
func (t Token) Is(kind Kind, text string) bool { return t.Kind == kind && t.Text == text }

// IsEscaped reports whether an identifier token is a backslash-escaped
// identifier. Escaped identifiers run to the next whitespace, so writers
// must follow them with a space.
func (t Token) IsEscaped() bool { return t.Kind == Identifier && len(t.Text) > 0 && t.Text[0] == '\\' }

// Describe renders the token for "found ..." diagnostics.
func (t Token) Describe() string {
	if t.Kind == EOF {
		return t.Kind.String()
	}
	return t.Kind.String() + " " + `"` + t.Text + `"`
}

var rules = plexer.MustSimple([]plexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*(?s:.*?)\*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `"(?:[^"\\\n]|\\.)*"`},
	{Name: "Number", Pattern: `(?:[0-9][0-9_]*)?'[sS]?[bBoOdDhH][0-9a-fA-FxXzZ?_]+|[0-9][0-9_]*`},
	{Name: "Escaped", Pattern: `\\\S+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_$]*`},
	{Name: "Punct", Pattern: `[()\[\]{},;:.#=]`},
})

var (
	symbols    = rules.Symbols()
	whitespace = symbols["Whitespace"]
	ruleKinds  = map[plexer.TokenType]Kind{
		symbols["Comment"]: Comment,
		symbols["String"]:  String,
		symbols["Number"]:  Number,
		symbols["Escaped"]: Identifier,
		symbols["Ident"]:   Identifier,
		symbols["Punct"]:   Punct,
	}
)

// Lexer tokenizes one source text. It holds no iteration state, so a
// single Lexer can be iterated any number of times.
type Lexer struct {
	file string
	src  string
}

// New creates a lexer over src. file is recorded in token positions.
func New(file, src string) *Lexer {
	return &Lexer{file: file, src: src}
}

// All returns the token sequence. Each call lexes from the start of the
// source. The sequence ends after the EOF token or after the first error.
func (l *Lexer) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		lex, err := rules.LexString(l.file, l.src)
		if err != nil {
			yield(Token{}, errors.Wrap(errors.ErrCodeInternal, err, "start lexer"))
			return
		}
		for {
			t, err := lex.Next()
			if err != nil {
				yield(Token{}, l.lexError(err))
				return
			}
			if t.EOF() {
				yield(Token{Kind: EOF, Pos: l.pos(t.Pos)}, nil)
				return
			}
			if t.Type == whitespace {
				continue
			}
			if !yield(l.token(t), nil) {
				return
			}
		}
	}
}

// Tokens drains the sequence into a slice ending with the EOF token.
func (l *Lexer) Tokens() ([]Token, error) {
	var toks []Token
	for t, err := range l.All() {
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
	}
	return toks, nil
}

func (l *Lexer) token(t plexer.Token) Token {
	kind := ruleKinds[t.Type]
	if kind == Identifier && t.Value[0] != '\\' && IsKeyword(t.Value) {
		kind = Keyword
	}
	return Token{Kind: kind, Text: t.Value, Pos: l.pos(t.Pos)}
}

func (l *Lexer) pos(p plexer.Position) errors.Position {
	return errors.Position{File: l.file, Line: p.Line, Column: p.Column, Offset: p.Offset}
}

func (l *Lexer) lexError(err error) error {
	var perr *plexer.Error
	if !stderrors.As(err, &perr) {
		return errors.Wrap(errors.ErrCodeLex, err, "lex %s", l.file)
	}
	pos := l.pos(perr.Pos)
	ch, _ := utf8.DecodeRuneInString(l.src[min(pos.Offset, len(l.src)):])
	e := errors.At(errors.ErrCodeLex, pos, "unexpected character %q", ch)
	e.Names = []string{string(ch)}
	return e
}
