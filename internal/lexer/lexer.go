// Package lexer tokenizes shell source text (spec §4.4). Grounded in the
// teacher's config parsing style (internal/config/loader.go's
// single-pass, error-accumulating scan over YAML bytes) generalized from
// a YAML byte scan to a shell-syntax token scan, and in the token-kind
// enumeration style of the tsqlparser reference file
// (other_examples/a6f92ba9_ha1tch-tsqlparser__token-token.go.go).
package lexer

import (
	"fmt"
	"strings"
)

// Kind enumerates token kinds (spec §4.4).
type Kind int

const (
	KindEOF Kind = iota
	KindBareWord
	KindSingleQuoted
	KindDoubleQuoted
	KindBacktick
	KindNumber
	KindPipe
	KindRedirectStdout
	KindRedirectStderr
	KindRedirectBoth
	KindRedirectAppend
	KindAssign
	KindComma
	KindSemicolon
	KindNewline
	KindLBrace
	KindRBrace
	KindLBracket
	KindRBracket
	KindLParen
	KindRParen
	KindComment
	KindDollar
	KindColon
	KindRange
	KindRangeExclusive
	KindOperator
	KindVarSigilInterpString // $"..." interpolated string, raw source kept for the parser to re-lex
)

func (k Kind) String() string {
	names := map[Kind]string{
		KindEOF: "eof", KindBareWord: "bare-word", KindSingleQuoted: "single-quoted",
		KindDoubleQuoted: "double-quoted", KindBacktick: "backtick", KindNumber: "number",
		KindPipe: "|", KindRedirectStdout: "o>", KindRedirectStderr: "e>",
		KindRedirectBoth: "o+e>", KindRedirectAppend: ">>", KindAssign: "=",
		KindComma: ",", KindSemicolon: ";", KindNewline: "newline",
		KindLBrace: "{", KindRBrace: "}", KindLBracket: "[", KindRBracket: "]",
		KindLParen: "(", KindRParen: ")", KindComment: "comment", KindDollar: "$",
		KindColon: ":", KindRange: "..", KindRangeExclusive: "..<", KindOperator: "operator",
		KindVarSigilInterpString: "interp-string",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown"
}

// Token is one lexed unit with its byte offsets into the source (spec
// §4.2 span model — the parser converts these offsets into a source.Span
// once it knows the file id).
type Token struct {
	Kind  Kind
	Text  string // raw source text, escapes NOT yet processed
	Start int
	End   int
}

var structuralRunes = " \t\r\n|;,(){}[]\"'`#"

// multiCharOperators is checked longest-first so `==` is not mis-split
// into two `=` tokens, etc.
var multiCharOperators = []string{
	"o+e>>", "o+e>", "o>>", "e>>", "o>", "e>", ">>",
	"...", "..<", "..", "==", "!=", "<=", ">=", "//", "**", "++",
	"=~", "!~", "=>", "=",
}

// singleCharOperators are symbolic operators that need KindOperator
// classification but aren't ambiguous with any multi-char operator once
// tryMultiCharOperator has already failed to match at this position.
const singleCharOperators = "+-*/<>.?"

var wordOperators = map[string]bool{
	"mod": true, "in": true, "not-in": true, "and": true, "or": true, "xor": true,
}

// Lexer is a single-pass scanner over source bytes.
type Lexer struct {
	src    string
	pos    int
	parens int // depth inside (), where newlines are not terminators
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Tokenize scans the full source into a token slice, accumulating no
// errors of its own — every byte sequence is lexable as at least a
// bare word; malformed escapes inside quoted strings surface only when
// the parser processes escapes (spec §4.4 leaves string-escape
// validation implicit in token production).
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		t := l.next()
		toks = append(toks, t)
		if t.Kind == KindEOF {
			return toks
		}
	}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) next() Token {
	l.skipInsignificantWhitespace()
	if l.pos >= len(l.src) {
		return Token{Kind: KindEOF, Start: l.pos, End: l.pos}
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '\n':
		l.pos++
		if l.parens > 0 {
			return l.next() // newlines are not terminators inside ( )
		}
		return Token{Kind: KindNewline, Text: "\n", Start: start, End: l.pos}

	case c == '\\' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '\n':
		l.pos += 2
		return l.next() // line continuation

	case c == '#':
		end := strings.IndexByte(l.src[l.pos:], '\n')
		if end == -1 {
			end = len(l.src)
		} else {
			end += l.pos
		}
		text := l.src[l.pos:end]
		l.pos = end
		return Token{Kind: KindComment, Text: text, Start: start, End: end}

	case c == '\'':
		return l.scanSingleQuoted(start)

	case c == '"':
		return l.scanDoubleQuoted(start)

	case c == '`':
		return l.scanBacktick(start)

	case c == '$' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '"':
		return l.scanInterpString(start)

	case c == '|':
		l.pos++
		return Token{Kind: KindPipe, Text: "|", Start: start, End: l.pos}

	case c == ';':
		l.pos++
		return Token{Kind: KindSemicolon, Text: ";", Start: start, End: l.pos}

	case c == ',':
		l.pos++
		return Token{Kind: KindComma, Text: ",", Start: start, End: l.pos}

	case c == ':':
		l.pos++
		return Token{Kind: KindColon, Text: ":", Start: start, End: l.pos}

	case c == '{':
		l.pos++
		return Token{Kind: KindLBrace, Text: "{", Start: start, End: l.pos}

	case c == '}':
		l.pos++
		return Token{Kind: KindRBrace, Text: "}", Start: start, End: l.pos}

	case c == '[':
		l.pos++
		return Token{Kind: KindLBracket, Text: "[", Start: start, End: l.pos}

	case c == ']':
		l.pos++
		return Token{Kind: KindRBracket, Text: "]", Start: start, End: l.pos}

	case c == '(':
		l.pos++
		l.parens++
		return Token{Kind: KindLParen, Text: "(", Start: start, End: l.pos}

	case c == ')':
		l.pos++
		if l.parens > 0 {
			l.parens--
		}
		return Token{Kind: KindRParen, Text: ")", Start: start, End: l.pos}

	case c == '$':
		l.pos++
		return Token{Kind: KindDollar, Text: "$", Start: start, End: l.pos}
	}

	if kind, text, ok := l.tryMultiCharOperator(); ok {
		return Token{Kind: kind, Text: text, Start: start, End: l.pos}
	}

	if isDigitStart(l.src, l.pos) {
		return l.scanNumber(start)
	}

	if strings.IndexByte(singleCharOperators, c) != -1 {
		l.pos++
		return Token{Kind: KindOperator, Text: string(c), Start: start, End: l.pos}
	}

	return l.scanBareWordOrOperator(start)
}

// skipInsignificantWhitespace advances over spaces/tabs/carriage returns,
// which never produce tokens (unlike newline, which terminates
// statements outside of brackets/parens).
func (l *Lexer) skipInsignificantWhitespace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) tryMultiCharOperator() (Kind, string, bool) {
	rest := l.src[l.pos:]
	for _, op := range multiCharOperators {
		if strings.HasPrefix(rest, op) {
			l.pos += len(op)
			return operatorKind(op), op, true
		}
	}
	return 0, "", false
}

func operatorKind(op string) Kind {
	switch op {
	case "o>":
		return KindRedirectStdout
	case "e>":
		return KindRedirectStderr
	case "o+e>", "o+e>>":
		return KindRedirectBoth
	case "o>>", "e>>", ">>":
		return KindRedirectAppend
	case "=":
		return KindAssign
	case "..":
		return KindRange
	case "..<":
		return KindRangeExclusive
	default:
		return KindOperator
	}
}

func (l *Lexer) scanSingleQuoted(start int) Token {
	l.pos++ // opening quote
	for l.pos < len(l.src) && l.src[l.pos] != '\'' {
		l.pos++
	}
	if l.pos < len(l.src) {
		l.pos++ // closing quote
	}
	return Token{Kind: KindSingleQuoted, Text: l.src[start:l.pos], Start: start, End: l.pos}
}

func (l *Lexer) scanDoubleQuoted(start int) Token {
	l.pos++
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		l.pos++
	}
	if l.pos < len(l.src) {
		l.pos++
	}
	return Token{Kind: KindDoubleQuoted, Text: l.src[start:l.pos], Start: start, End: l.pos}
}

func (l *Lexer) scanBacktick(start int) Token {
	l.pos++
	for l.pos < len(l.src) && l.src[l.pos] != '`' {
		l.pos++
	}
	if l.pos < len(l.src) {
		l.pos++
	}
	return Token{Kind: KindBacktick, Text: l.src[start:l.pos], Start: start, End: l.pos}
}

// scanInterpString scans $"…" tracking parenthesis depth so embedded `(expr)`
// calls containing quotes/braces don't terminate the string early (spec
// §4.5 "$"…(expr)…" interpolated strings parse embedded expressions").
// The raw text (still containing `(...)` escapes) is handed to the parser
// for a second pass.
func (l *Lexer) scanInterpString(start int) Token {
	l.pos += 2 // `$"`
	depth := 0
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\\' && l.pos+1 < len(l.src):
			l.pos += 2
			continue
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == '"' && depth == 0:
			l.pos++
			return Token{Kind: KindVarSigilInterpString, Text: l.src[start:l.pos], Start: start, End: l.pos}
		}
		l.pos++
	}
	return Token{Kind: KindVarSigilInterpString, Text: l.src[start:l.pos], Start: start, End: l.pos}
}

func isDigitStart(src string, pos int) bool {
	c := src[pos]
	if c >= '0' && c <= '9' {
		return true
	}
	if (c == '-' || c == '+') && pos+1 < len(src) && src[pos+1] >= '0' && src[pos+1] <= '9' {
		return true
	}
	return false
}

// scanNumber consumes decimal, hex (0x), binary (0b), octal (0o)
// literals, an optional fractional/exponent part, and an optional unit
// suffix (e.g. `10kb`, `5sec`) per spec §4.4.
func (l *Lexer) scanNumber(start int) Token {
	if l.src[l.pos] == '-' || l.src[l.pos] == '+' {
		l.pos++
	}
	if l.pos+1 < len(l.src) && l.src[l.pos] == '0' && (l.src[l.pos+1] == 'x' || l.src[l.pos+1] == 'X') {
		l.pos += 2
		l.consumeWhile(isHexDigit)
		return l.finishNumberWithSuffix(start)
	}
	if l.pos+1 < len(l.src) && l.src[l.pos] == '0' && (l.src[l.pos+1] == 'b' || l.src[l.pos+1] == 'B') {
		l.pos += 2
		l.consumeWhile(func(c byte) bool { return c == '0' || c == '1' })
		return l.finishNumberWithSuffix(start)
	}
	if l.pos+1 < len(l.src) && l.src[l.pos] == '0' && (l.src[l.pos+1] == 'o' || l.src[l.pos+1] == 'O') {
		l.pos += 2
		l.consumeWhile(func(c byte) bool { return c >= '0' && c <= '7' })
		return l.finishNumberWithSuffix(start)
	}
	l.consumeWhile(isDigit)
	if l.peekByte() == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		l.pos++
		l.consumeWhile(isDigit)
	}
	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		save := l.pos
		l.pos++
		if l.peekByte() == '+' || l.peekByte() == '-' {
			l.pos++
		}
		if isDigit(l.peekByte()) {
			l.consumeWhile(isDigit)
		} else {
			l.pos = save
		}
	}
	return l.finishNumberWithSuffix(start)
}

// finishNumberWithSuffix consumes a trailing alphabetic unit suffix
// (filesize: kb/mb/gb/...; duration: ns/us/ms/sec/min/hr/day/wk) without
// interpreting it — the parser resolves suffix semantics.
func (l *Lexer) finishNumberWithSuffix(start int) Token {
	for l.pos < len(l.src) && isUnitSuffixByte(l.src[l.pos]) {
		l.pos++
	}
	return Token{Kind: KindNumber, Text: l.src[start:l.pos], Start: start, End: l.pos}
}

func isUnitSuffixByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }

func (l *Lexer) consumeWhile(pred func(byte) bool) {
	for l.pos < len(l.src) && pred(l.src[l.pos]) {
		l.pos++
	}
}

// scanBareWordOrOperator consumes until whitespace or a structural
// character (spec §4.4 "Bare words extend until whitespace or structural
// character"), then classifies the result as a word-form operator
// (`mod`, `in`, `not-in`, `and`, `or`, `xor`) or a bare word.
func (l *Lexer) scanBareWordOrOperator(start int) Token {
	for l.pos < len(l.src) && !strings.ContainsRune(structuralRunes, rune(l.src[l.pos])) {
		l.pos++
	}
	if l.pos == start {
		// Unrecognized single structural-ish byte; consume one rune so the
		// scanner always makes forward progress.
		l.pos++
	}
	text := l.src[start:l.pos]
	if wordOperators[text] {
		return Token{Kind: KindOperator, Text: text, Start: start, End: l.pos}
	}
	return Token{Kind: KindBareWord, Text: text, Start: start, End: l.pos}
}

// String renders a Token for debugging/parser error messages.
func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}
