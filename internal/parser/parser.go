// Package parser implements the two-phase lex→parse front end of spec
// §4.5: declaration keywords are recognized positionally and populate a
// engine.WorkingSet before the rest of a block is parsed, enabling
// forward references. Grounded in the teacher's config loader
// (internal/config/loader.go), which does a single accumulating pass
// producing a best-effort parsed tree plus a slice of errors rather than
// stopping at the first problem, and in the scope push/pop convention of
// the elvish Compiler reference file
// (other_examples/74b9d872_jomenxiao-elvish__eval-compile.go.go).
package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/glint-shell/glint/internal/domain/engine"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
	"github.com/glint-shell/glint/internal/lexer"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// Result is a best-effort parse: Block is always populated (possibly with
// holes) even when Errors is non-empty, so downstream tooling such as
// highlighters still has something to walk (spec §4.5 "Errors are
// accumulated... attached to the working set along with a best-effort
// IR").
type Result struct {
	Block  *engine.Block
	Errors []*pkgerrors.ShellError
}

// Parser holds the mutable state of one parse: the token stream, the
// source file being parsed (for span construction), and the WorkingSet
// being populated.
type Parser struct {
	fileID int
	toks   []lexer.Token
	pos    int
	ws     *engine.WorkingSet
	errs   []*pkgerrors.ShellError
}

// Parse lexes and parses src (already added to store as fileID) against
// ws, returning a best-effort Block and any accumulated errors.
func Parse(fileID int, src string, ws *engine.WorkingSet) Result {
	toks := lexer.New(src).Tokenize()
	toks = stripComments(toks)
	p := &Parser{fileID: fileID, toks: toks, ws: ws}
	block := p.parseBlockBody(nil)
	return Result{Block: block, Errors: p.errs}
}

func stripComments(in []lexer.Token) []lexer.Token {
	out := make([]lexer.Token, 0, len(in))
	for _, t := range in {
		if t.Kind != lexer.KindComment {
			out = append(out, t)
		}
	}
	return out
}

func (p *Parser) span(start, end int) source.Span {
	return source.Span{FileID: p.fileID, Start: start, End: end}
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.KindEOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return lexer.Token{Kind: lexer.KindEOF}
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) atWord(s string) bool {
	return p.cur().Kind == lexer.KindBareWord && p.cur().Text == s
}

func (p *Parser) errf(sp source.Span, headline string) {
	p.errs = append(p.errs, pkgerrors.NewParseError("glint::parse::error", headline, sp, headline))
}

// skipStatementSeparators consumes newlines/semicolons between pipelines.
func (p *Parser) skipStatementSeparators() {
	for p.at(lexer.KindNewline) || p.at(lexer.KindSemicolon) {
		p.advance()
	}
}

// parseBlockBody parses pipelines until EOF or a closing brace, within a
// fresh child scope (callers that need params push bindings into ws
// before calling this and pop the scope themselves if they manage it
// externally; a nil params list pushes/pops its own scope here).
func (p *Parser) parseBlockBody(params []engine.VarID) *engine.Block {
	start := p.cur().Start
	ownScope := params == nil
	if ownScope {
		p.ws.PushScope()
	}
	var pipelines []engine.Pipeline
	p.skipStatementSeparators()
	for !p.at(lexer.KindEOF) && !p.at(lexer.KindRBrace) {
		pipeline := p.parsePipeline()
		pipelines = append(pipelines, pipeline)
		p.skipStatementSeparators()
	}
	if ownScope {
		p.ws.PopScope()
	}
	end := p.cur().Start
	return &engine.Block{Pipelines: pipelines, Span: p.span(start, end), Params: params}
}

func (p *Parser) parsePipeline() engine.Pipeline {
	start := p.cur().Start
	var elements []engine.PipelineElement
	elements = append(elements, p.parsePipelineElement())
	for p.at(lexer.KindPipe) {
		p.advance()
		p.skipStatementSeparators() // a leading `|` on a continuation line joins to the previous line
		elements = append(elements, p.parsePipelineElement())
	}
	end := p.cur().Start
	return engine.Pipeline{Elements: elements, Span: p.span(start, end)}
}

func (p *Parser) parsePipelineElement() engine.PipelineElement {
	expr := p.parseExprOrKeyword()
	var redirect *engine.Redirection
	if k := p.redirectKind(); k != engine.RedirectNone {
		p.advance()
		target := p.parseExpr(precRange)
		redirect = &engine.Redirection{Kind: k, Target: target}
	}
	return engine.PipelineElement{Expr: expr, Redirect: redirect}
}

func (p *Parser) redirectKind() engine.RedirectKind {
	switch p.cur().Kind {
	case lexer.KindRedirectStdout:
		return engine.RedirectStdout
	case lexer.KindRedirectStderr:
		return engine.RedirectStderr
	case lexer.KindRedirectBoth:
		return engine.RedirectStdoutAndStderr
	case lexer.KindRedirectAppend:
		return engine.RedirectAppend
	default:
		return engine.RedirectNone
	}
}

// parseExprOrKeyword dispatches to a keyword-construct parse when the
// current bare word is a recognized keyword (spec §4.5 "Declaration
// parsing"), otherwise parses a plain expression/call.
func (p *Parser) parseExprOrKeyword() engine.Expr {
	if p.cur().Kind == lexer.KindBareWord {
		switch p.cur().Text {
		case "let":
			return p.parseLetMut(false)
		case "mut":
			return p.parseLetMut(true)
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "while":
			return p.parseWhile()
		case "loop":
			return p.parseLoop()
		case "match":
			return p.parseMatch()
		case "try":
			return p.parseTry()
		case "break":
			start := p.advance().Start
			return engine.Expr{Kind: engine.ExprBreak, Span: p.span(start, p.cur().Start)}
		case "continue":
			start := p.advance().Start
			return engine.Expr{Kind: engine.ExprContinue, Span: p.span(start, p.cur().Start)}
		case "return":
			start := p.advance().Start
			var rv *engine.Expr
			if p.exprStartsHere() {
				e := p.parseExpr(precOr)
				rv = &e
			}
			return engine.Expr{Kind: engine.ExprReturn, ReturnVal: rv, Span: p.span(start, p.cur().Start)}
		case "def":
			return p.parseDef(p.cur().Start)
		case "export":
			return p.parseExport()
		case "alias":
			return p.parseAlias(p.cur().Start)
		case "hide":
			return p.parseHide()
		case "module":
			return p.parseModule(p.cur().Start)
		case "use":
			return p.parseUse(p.cur().Start)
		case "overlay":
			return p.parseOverlay(p.cur().Start)
		case "const":
			return p.parseConst(p.cur().Start)
		case "source":
			return p.parseSource(p.cur().Start, false)
		case "source-env":
			return p.parseSource(p.cur().Start, true)
		case "extern":
			return p.parseExtern(p.cur().Start)
		}
	}
	return p.parseExpr(precOr)
}

func (p *Parser) exprStartsHere() bool {
	switch p.cur().Kind {
	case lexer.KindNewline, lexer.KindSemicolon, lexer.KindEOF, lexer.KindRBrace, lexer.KindPipe:
		return false
	}
	return true
}

// --- declaration keywords ---------------------------------------------

func (p *Parser) parseLetMut(mutable bool) engine.Expr {
	start := p.advance().Start // consume let/mut
	name := p.expectWord()
	id := p.ws.AddVariable(name, mutable, engine.ShapeAny)
	p.expectAssign()
	init := p.parseExpr(precOr)
	kind := engine.ExprLet
	if mutable {
		kind = engine.ExprMut
	}
	return engine.Expr{Kind: kind, VarID: id, Init: &init, Span: p.span(start, p.cur().Start)}
}

func (p *Parser) expectWord() string {
	if p.cur().Kind == lexer.KindBareWord {
		return p.advance().Text
	}
	p.errf(p.span(p.cur().Start, p.cur().End), "expected identifier")
	return ""
}

func (p *Parser) expectAssign() {
	if p.at(lexer.KindAssign) {
		p.advance()
		return
	}
	p.errf(p.span(p.cur().Start, p.cur().End), "expected '='")
}

func (p *Parser) parseIf() engine.Expr {
	start := p.advance().Start // `if`
	cond := p.parseExpr(precOr)
	p.expect(lexer.KindLBrace)
	thenBody := p.ws.AddBlock(p.parseBraceBody())
	p.expect(lexer.KindRBrace)
	var elseBody *engine.BlockID
	if p.atWord("else") {
		p.advance()
		if p.atWord("if") {
			nested := p.parseIf()
			wrapBlock := &engine.Block{Pipelines: []engine.Pipeline{{Elements: []engine.PipelineElement{{Expr: nested}}}}}
			id := p.ws.AddBlock(wrapBlock)
			elseBody = &id
		} else {
			p.expect(lexer.KindLBrace)
			id := p.ws.AddBlock(p.parseBraceBody())
			p.expect(lexer.KindRBrace)
			elseBody = &id
		}
	}
	return engine.Expr{Kind: engine.ExprIf, Cond: &cond, ThenBody: thenBody, ElseBody: elseBody, Span: p.span(start, p.cur().Start)}
}

// parseBraceBody parses a `{ ... }` body assuming the opening brace has
// just been consumed by the caller's expect(); it leaves the closing
// brace for the caller to consume so nested constructs can share one
// convention.
func (p *Parser) parseBraceBody() *engine.Block {
	return p.parseBlockBody(nil)
}

func (p *Parser) expect(k lexer.Kind) {
	if p.cur().Kind == k {
		p.advance()
		return
	}
	p.errf(p.span(p.cur().Start, p.cur().End), "expected "+k.String())
}

func (p *Parser) parseFor() engine.Expr {
	start := p.advance().Start // `for`
	p.ws.PushScope()
	name := p.expectWord()
	varID := p.ws.AddVariable(name, false, engine.ShapeAny)
	if p.atWord("in") {
		p.advance()
	}
	iterable := p.parseExpr(precOr)
	p.expect(lexer.KindLBrace)
	body := p.ws.AddBlock(p.parseBraceBody())
	p.expect(lexer.KindRBrace)
	p.ws.PopScope()
	return engine.Expr{Kind: engine.ExprFor, LoopVar: varID, Iterable: &iterable, Body: body, Span: p.span(start, p.cur().Start)}
}

func (p *Parser) parseWhile() engine.Expr {
	start := p.advance().Start
	cond := p.parseExpr(precOr)
	p.expect(lexer.KindLBrace)
	body := p.ws.AddBlock(p.parseBraceBody())
	p.expect(lexer.KindRBrace)
	return engine.Expr{Kind: engine.ExprWhile, Cond: &cond, Body: body, Span: p.span(start, p.cur().Start)}
}

func (p *Parser) parseLoop() engine.Expr {
	start := p.advance().Start
	p.expect(lexer.KindLBrace)
	body := p.ws.AddBlock(p.parseBraceBody())
	p.expect(lexer.KindRBrace)
	return engine.Expr{Kind: engine.ExprLoop, Body: body, Span: p.span(start, p.cur().Start)}
}

func (p *Parser) parseMatch() engine.Expr {
	start := p.advance().Start
	subject := p.parseExpr(precOr)
	p.expect(lexer.KindLBrace)
	p.skipStatementSeparators()
	var arms []engine.MatchArm
	for !p.at(lexer.KindRBrace) && !p.at(lexer.KindEOF) {
		pat := p.parsePattern()
		p.expectFatArrow()
		body := p.parseExpr(precOr)
		arms = append(arms, engine.MatchArm{Pattern: pat, Body: body})
		p.skipStatementSeparators()
		if p.at(lexer.KindComma) {
			p.advance()
			p.skipStatementSeparators()
		}
	}
	p.expect(lexer.KindRBrace)
	return engine.Expr{Kind: engine.ExprMatch, Subject: &subject, Arms: arms, Span: p.span(start, p.cur().Start)}
}

func (p *Parser) expectFatArrow() {
	if p.cur().Kind == lexer.KindOperator && p.cur().Text == "=>" {
		p.advance()
		return
	}
	p.errf(p.span(p.cur().Start, p.cur().End), "expected '=>'")
}

func (p *Parser) parsePattern() engine.Pattern {
	switch {
	case p.atWord("_"):
		p.advance()
		return engine.Pattern{Kind: engine.PatternWildcard}
	case p.at(lexer.KindLBracket):
		p.advance()
		var elems []engine.Pattern
		for !p.at(lexer.KindRBracket) && !p.at(lexer.KindEOF) {
			elems = append(elems, p.parsePattern())
			if p.at(lexer.KindComma) {
				p.advance()
			}
		}
		p.expect(lexer.KindRBracket)
		return engine.Pattern{Kind: engine.PatternList, Elements: elems}
	case p.at(lexer.KindLBrace):
		p.advance()
		fields := make(map[string]engine.Pattern)
		var order []string
		for !p.at(lexer.KindRBrace) && !p.at(lexer.KindEOF) {
			key := p.expectWord()
			p.expect(lexer.KindColon)
			fields[key] = p.parsePattern()
			order = append(order, key)
			if p.at(lexer.KindComma) {
				p.advance()
			}
		}
		p.expect(lexer.KindRBrace)
		return engine.Pattern{Kind: engine.PatternRecord, Fields: fields, FieldOrder: order}
	case p.at(lexer.KindRange) && p.peekAt(1).Kind == lexer.KindBareWord && p.peekAt(1).Start == p.cur().End:
		p.advance()
		name := p.advance().Text
		id := p.ws.AddVariable(name, false, engine.ShapeAny)
		return engine.Pattern{Kind: engine.PatternRest, VarID: id}
	case p.cur().Kind == lexer.KindBareWord:
		name := p.advance().Text
		id := p.ws.AddVariable(name, false, engine.ShapeAny)
		return engine.Pattern{Kind: engine.PatternVariable, VarID: id}
	default:
		lit := p.parsePrimary()
		return engine.Pattern{Kind: engine.PatternLiteral, Literal: &lit.Literal}
	}
}

func (p *Parser) parseTry() engine.Expr {
	start := p.advance().Start
	p.expect(lexer.KindLBrace)
	tryBody := p.ws.AddBlock(p.parseBraceBody())
	p.expect(lexer.KindRBrace)
	var catchVar *engine.VarID
	var catchBody *engine.BlockID
	if p.atWord("catch") {
		p.advance()
		p.ws.PushScope()
		if p.at(lexer.KindPipe) {
			p.advance()
			name := p.expectWord()
			id := p.ws.AddVariable(name, false, engine.ShapeAny)
			catchVar = &id
			p.expect(lexer.KindPipe)
		}
		p.expect(lexer.KindLBrace)
		body := p.ws.AddBlock(p.parseBraceBody())
		p.expect(lexer.KindRBrace)
		p.ws.PopScope()
		catchBody = &body
	}
	return engine.Expr{Kind: engine.ExprTry, TryBody: tryBody, CatchVar: catchVar, CatchBody: catchBody, Span: p.span(start, p.cur().Start)}
}

// parseDef handles `def`/`export def`/`def --env`/`def --wrapped` (spec
// §4.5), registering a UserDefined declaration in the working set once
// its body is parsed, so later pipelines in the same block resolve to it.
// Calls parsed before that point (including recursive calls inside the
// body) stay unresolved and are found by name at dispatch time.
func (p *Parser) parseDef(start int) engine.Expr {
	p.advance() // `def`
	isEnv, isWrapped := false, false
	for p.cur().Kind == lexer.KindBareWord && strings.HasPrefix(p.cur().Text, "--") {
		switch p.advance().Text {
		case "--env":
			isEnv = true
		case "--wrapped":
			isWrapped = true
		}
	}
	name := p.parseCommandName()
	sig := p.parseSignature()
	sig.IsEnv = isEnv
	sig.IsWrapped = isWrapped

	p.ws.PushScope()
	// Params are registered in a fixed order — required positionals,
	// optional positionals, the rest positional (if any), then named
	// flags — so internal/command can bind call-site Args back to these
	// variable ids purely by position (spec §4.8 "bind declared
	// parameters").
	var params []engine.VarID
	for _, pos := range append(append([]engine.Positional{}, sig.RequiredPositional...), sig.OptionalPositional...) {
		params = append(params, p.ws.AddVariable(pos.Name, false, pos.Shape))
	}
	if sig.RestPositional != nil {
		params = append(params, p.ws.AddVariable(sig.RestPositional.Name, false, sig.RestPositional.Shape))
	}
	for _, flag := range sig.NamedFlags {
		params = append(params, p.ws.AddVariable(flag.Long, false, flag.Shape))
	}
	p.expect(lexer.KindLBrace)
	body := p.parseBlockBody(params)
	p.expect(lexer.KindRBrace)
	p.ws.PopScope()
	bodyID := p.ws.AddBlock(body)

	p.ws.AddDecl(&engine.Declaration{Name: name, Signature: sig, Dispatch: engine.DispatchUserDefined, UserDefinedBody: bodyID})
	return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Nothing(p.span(start, p.cur().Start)), Span: p.span(start, p.cur().Start)}
}

// parseCommandName accepts a possibly multi-word, possibly quoted command
// name (spec §3.4 "Name (possibly multi-word, e.g. `str length`)").
func (p *Parser) parseCommandName() string {
	var parts []string
	for p.cur().Kind == lexer.KindBareWord || p.cur().Kind == lexer.KindSingleQuoted || p.cur().Kind == lexer.KindDoubleQuoted {
		parts = append(parts, unquoteToken(p.advance()))
		if !p.at(lexer.KindBareWord) {
			break
		}
	}
	return strings.Join(parts, " ")
}

// parseSignature parses `[pos1: type, --flag(-f): type = default, ...]`.
func (p *Parser) parseSignature() engine.Signature {
	var sig engine.Signature
	if !p.at(lexer.KindLBracket) {
		return sig
	}
	p.advance()
	for !p.at(lexer.KindRBracket) && !p.at(lexer.KindEOF) {
		if p.cur().Kind == lexer.KindBareWord && strings.HasPrefix(p.cur().Text, "--") {
			flag := p.parseFlagSig()
			sig.NamedFlags = append(sig.NamedFlags, flag)
		} else if p.cur().Kind == lexer.KindOperator && p.cur().Text == "..." {
			p.advance()
			name := p.expectWord()
			shape := p.parseOptionalTypeAnnotation()
			sig.RestPositional = &engine.Positional{Name: name, Shape: shape}
		} else if p.cur().Kind == lexer.KindBareWord {
			name := p.advance().Text
			optional := strings.HasSuffix(name, "?")
			name = strings.TrimSuffix(name, "?")
			shape := p.parseOptionalTypeAnnotation()
			pos := engine.Positional{Name: name, Shape: shape, Optional: optional}
			if p.at(lexer.KindAssign) {
				p.advance()
				lit := p.parseExpr(precRange)
				pos.Optional = true
				pos.Default = &lit.Literal
			}
			if pos.Optional {
				sig.OptionalPositional = append(sig.OptionalPositional, pos)
			} else {
				sig.RequiredPositional = append(sig.RequiredPositional, pos)
			}
		} else {
			p.advance() // skip unrecognized signature token, keep accumulating errors elsewhere
		}
		if p.at(lexer.KindComma) {
			p.advance()
		}
		p.skipStatementSeparators()
	}
	p.expect(lexer.KindRBracket)
	return sig
}

func (p *Parser) parseFlagSig() engine.Flag {
	text := p.advance().Text // "--name" possibly with trailing "(-x)"
	long := strings.TrimPrefix(text, "--")
	flag := engine.Flag{Long: long, IsSwitch: true}
	if p.at(lexer.KindLParen) {
		p.advance()
		if p.at(lexer.KindOperator) && p.cur().Text == "-" {
			p.advance()
		}
		short := p.advance().Text
		if len(short) > 0 {
			flag.HasShort = true
			flag.Short = rune(short[0])
		}
		p.expect(lexer.KindRParen)
	}
	flag.Shape = p.parseOptionalTypeAnnotation()
	if flag.Shape != engine.ShapeAny {
		flag.IsSwitch = false
	}
	if p.at(lexer.KindAssign) {
		p.advance()
		lit := p.parseExpr(precRange)
		flag.Default = &lit.Literal
		flag.IsSwitch = false
	}
	return flag
}

func (p *Parser) parseOptionalTypeAnnotation() engine.TypeShape {
	if !p.at(lexer.KindColon) {
		return engine.ShapeAny
	}
	p.advance()
	name := p.expectWord()
	return shapeFromName(name)
}

func shapeFromName(name string) engine.TypeShape {
	switch name {
	case "int":
		return engine.ShapeInt
	case "float":
		return engine.ShapeFloat
	case "string":
		return engine.ShapeString
	case "bool":
		return engine.ShapeBool
	case "record":
		return engine.ShapeRecord
	case "list":
		return engine.ShapeList
	case "block":
		return engine.ShapeBlock
	case "closure":
		return engine.ShapeClosure
	case "range":
		return engine.ShapeRange
	case "cell-path":
		return engine.ShapeCellPath
	case "nothing":
		return engine.ShapeNothing
	case "binary":
		return engine.ShapeBinary
	case "datetime":
		return engine.ShapeDate
	case "duration":
		return engine.ShapeDuration
	case "filesize":
		return engine.ShapeFilesize
	default:
		return engine.ShapeAny
	}
}

func (p *Parser) parseAlias(start int) engine.Expr {
	p.advance() // `alias`
	name := p.parseCommandName()
	p.expectAssign()
	expr := p.parseExprOrKeyword()
	p.ws.AddDecl(&engine.Declaration{Name: name, Dispatch: engine.DispatchAlias, AliasExpr: &expr})
	return p.nothingExpr(start)
}

// nothingExpr builds the placeholder Nothing-literal expression every
// declaration keyword returns in statement position (spec §4.5 "a
// declaration keyword... produces no value").
func (p *Parser) nothingExpr(start int) engine.Expr {
	sp := p.span(start, p.cur().Start)
	return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Nothing(sp), Span: sp}
}

func (p *Parser) parseHide() engine.Expr {
	start := p.advance().Start
	name := p.parseCommandName()
	p.ws.Hide(name)
	return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Nothing(p.span(start, p.cur().Start)), Span: p.span(start, p.cur().Start)}
}

// --- expression precedence climbing ------------------------------------

type precLevel int

const (
	precOr precLevel = iota
	precAnd
	precEquality
	precComparison
	precRange
	precAdditive
	precMultiplicative
	precPower
	precUnary
	precCall
)

var binaryOpsByLevel = map[precLevel][]string{
	precOr:             {"or"},
	precAnd:            {"and", "xor"},
	precEquality:       {"==", "!=", "in", "not-in", "=~", "!~"},
	precComparison:     {"<", "<=", ">", ">="},
	precAdditive:       {"+", "-", "++"},
	precMultiplicative: {"*", "/", "//", "mod"},
	precPower:          {"**"},
}

func (p *Parser) parseExpr(min precLevel) engine.Expr {
	left := p.parseRangeOrHigher(min)
	for min <= precOr {
		level, op, ok := p.matchBinaryOp()
		if !ok || level < min {
			break
		}
		p.advance()
		right := p.parseExpr(level + 1)
		start := left.Span.Start
		left = engine.Expr{Kind: engine.ExprBinaryOp, Op: op, Left: &left, Right: &right, Span: p.span(start, right.Span.End)}
	}
	return left
}

func (p *Parser) matchBinaryOp() (precLevel, string, bool) {
	t := p.cur()
	var text string
	switch t.Kind {
	case lexer.KindOperator:
		text = t.Text
	default:
		return 0, "", false
	}
	for level, ops := range binaryOpsByLevel {
		for _, op := range ops {
			if op == text {
				return level, op, true
			}
		}
	}
	return 0, "", false
}

// parseRangeOrHigher handles range construction (`a..b`, `a..<b`) which
// sits between comparison and additive in spec §4.5's precedence list.
func (p *Parser) parseRangeOrHigher(min precLevel) engine.Expr {
	left := p.parseAdditiveOrHigher(min)
	if p.at(lexer.KindRange) || p.at(lexer.KindRangeExclusive) {
		incl := p.at(lexer.KindRange)
		p.advance()
		var end *engine.Expr
		if p.exprStartsHere() {
			e := p.parseAdditiveOrHigher(min)
			end = &e
		}
		return engine.Expr{Kind: engine.ExprFullRange, RangeStart: &left, RangeEnd: end, RangeIncl: incl, Span: p.span(left.Span.Start, p.cur().Start)}
	}
	return left
}

func (p *Parser) parseAdditiveOrHigher(min precLevel) engine.Expr {
	left := p.parseUnary()
	for {
		level, op, ok := p.matchBinaryOp()
		if !ok || level < precAdditive {
			break
		}
		p.advance()
		right := p.parseUnary()
		left = engine.Expr{Kind: engine.ExprBinaryOp, Op: op, Left: &left, Right: &right, Span: p.span(left.Span.Start, right.Span.End)}
	}
	return left
}

func (p *Parser) parseUnary() engine.Expr {
	if p.atWord("not") {
		start := p.advance().Start
		operand := p.parseUnary()
		return engine.Expr{Kind: engine.ExprBinaryOp, Op: "not", Right: &operand, Span: p.span(start, operand.Span.End)}
	}
	if p.cur().Kind == lexer.KindOperator && p.cur().Text == "-" {
		start := p.advance().Start
		operand := p.parseUnary()
		zero := engine.Expr{Kind: engine.ExprLiteral, Literal: value.Int(0, operand.Span)}
		return engine.Expr{Kind: engine.ExprBinaryOp, Op: "-", Left: &zero, Right: &operand, Span: p.span(start, operand.Span.End)}
	}
	return p.parseCallOrAccess()
}

// parseCallOrAccess parses a primary expression and any trailing
// cell-path member accesses (`.field`, `.0`) (spec §4.5 "call/access" is
// the highest precedence level).
func (p *Parser) parseCallOrAccess() engine.Expr {
	return p.parseTrailingCellPath(p.parseCallIfHead())
}

// parseArgValue parses one argument value (spec §4.5 "arguments are
// values, not nested calls"): unlike a pipeline element's head position, a
// bare, non-keyword word here is always a string literal — only an
// explicit `(...)` subexpression invokes another declaration. Otherwise
// identical to parseCallOrAccess (numbers, quoted strings, $vars, lists,
// records/closures, and subexpressions all dispatch through parsePrimary
// regardless of position).
func (p *Parser) parseArgValue() engine.Expr {
	return p.parseTrailingCellPath(p.parsePrimary())
}

func (p *Parser) parseTrailingCellPath(primary engine.Expr) engine.Expr {
	for p.at(lexer.KindOperator) && p.cur().Text == "." {
		p.advance()
		var members []value.PathMember
		for {
			m := p.parsePathMember()
			members = append(members, m)
			if p.at(lexer.KindOperator) && p.cur().Text == "." {
				p.advance()
				continue
			}
			break
		}
		primary = engine.Expr{Kind: engine.ExprCellPathAccess, Base: &primary, Members: members, Span: p.span(primary.Span.Start, p.cur().Start)}
	}
	return primary
}

func (p *Parser) parsePathMember() value.PathMember {
	t := p.advance()
	optional := false
	text := t.Text
	if strings.HasSuffix(text, "?") {
		optional = true
		text = strings.TrimSuffix(text, "?")
	}
	if t.Kind == lexer.KindNumber {
		n, _ := strconv.Atoi(text)
		return value.PathMember{IsString: false, Int: n, Optional: optional}
	}
	return value.PathMember{IsString: true, String: text, Optional: optional}
}

// parseCallIfHead recognizes a bare-word call head (a declaration name,
// possibly multi-word) versus a plain primary expression.
func (p *Parser) parseCallIfHead() engine.Expr {
	if p.cur().Kind != lexer.KindBareWord || isKeywordWord(p.cur().Text) {
		return p.parsePrimary()
	}
	start := p.cur().Start
	name, declID, found := p.resolveCallName()
	var args []engine.Arg
	for p.exprStartsHere() && !p.at(lexer.KindOperator) {
		args = append(args, p.parseArg())
	}
	expr := engine.Expr{Kind: engine.ExprCall, CallName: name, Args: args, Span: p.span(start, p.cur().Start)}
	if found {
		expr.CallDecl = declID
	}
	// When not found, CallDecl stays zero and CallName carries the head
	// word; dispatch resolution (builtin table / external-process fallback)
	// happens at call time in internal/command (spec §4.8).
	return expr
}

// resolveCallName consumes a possibly multi-word call head, greedily
// matching the longest known declaration name (spec §4.5 "the parser
// resolves the head word against the working set").
func (p *Parser) resolveCallName() (string, engine.DeclID, bool) {
	first := p.advance().Text
	name := first
	if entry, ok := p.ws.Resolve(first); ok && entry.DeclID != nil {
		// Try to extend to a longer multi-word match, e.g. "str" + "length".
		if p.cur().Kind == lexer.KindBareWord {
			extended := first + " " + p.cur().Text
			if entry2, ok2 := p.ws.Resolve(extended); ok2 && entry2.DeclID != nil {
				p.advance()
				return extended, *entry2.DeclID, true
			}
		}
		return name, *entry.DeclID, true
	}
	if p.cur().Kind == lexer.KindBareWord {
		extended := first + " " + p.cur().Text
		if entry2, ok2 := p.ws.Resolve(extended); ok2 && entry2.DeclID != nil {
			p.advance()
			return extended, *entry2.DeclID, true
		}
	}
	return name, 0, false
}

func (p *Parser) parseArg() engine.Arg {
	if p.cur().Kind == lexer.KindBareWord && strings.HasPrefix(p.cur().Text, "--") {
		name := strings.TrimPrefix(p.advance().Text, "--")
		if p.exprStartsHere() && !p.at(lexer.KindOperator) {
			val := p.parseArgValue()
			return engine.Arg{Kind: engine.ArgNamedFlag, Name: name, Value: val}
		}
		return engine.Arg{Kind: engine.ArgNamedFlag, Name: name, Value: engine.Expr{Kind: engine.ExprLiteral, Literal: value.Bool(true, source.Unknown)}}
	}
	if p.cur().Kind == lexer.KindOperator && p.cur().Text == "-" &&
		p.peekAt(1).Kind == lexer.KindBareWord && p.peekAt(1).Start == p.cur().End {
		p.advance() // `-`
		bundle := p.advance().Text // e.g. "abc" for -abc, or "f" for -f
		name := string(bundle[len(bundle)-1])
		if len(bundle) > 1 {
			// bundled switches: -abc behaves as -a -b -c (spec §4.5 "short
			// flags may be bundled"); the parser exposes the whole run as one
			// switch Arg named "abc", and internal/command's bindArgs expands
			// it into one switch per letter.
			return engine.Arg{Kind: engine.ArgNamedFlag, Name: bundle, Value: engine.Expr{Kind: engine.ExprLiteral, Literal: value.Bool(true, source.Unknown)}}
		}
		if p.exprStartsHere() && !p.at(lexer.KindOperator) {
			val := p.parseArgValue()
			return engine.Arg{Kind: engine.ArgNamedFlag, Name: name, Value: val}
		}
		return engine.Arg{Kind: engine.ArgNamedFlag, Name: name, Value: engine.Expr{Kind: engine.ExprLiteral, Literal: value.Bool(true, source.Unknown)}}
	}
	val := p.parseArgValue()
	return engine.Arg{Kind: engine.ArgPositional, Value: val}
}

func isKeywordWord(w string) bool {
	switch w {
	case "let", "mut", "if", "else", "for", "while", "loop", "match", "try", "catch",
		"break", "continue", "return", "def", "export", "alias", "hide", "in", "not",
		"true", "false", "null",
		"module", "use", "overlay", "const", "source", "source-env", "extern":
		return true
	}
	return false
}

func (p *Parser) parsePrimary() engine.Expr {
	t := p.cur()
	switch t.Kind {
	case lexer.KindNumber:
		p.advance()
		return p.parseNumberLiteral(t)
	case lexer.KindSingleQuoted:
		p.advance()
		return engine.Expr{Kind: engine.ExprLiteral, Literal: value.String(stripQuotes(t.Text, 1), p.span(t.Start, t.End)), Span: p.span(t.Start, t.End)}
	case lexer.KindDoubleQuoted:
		p.advance()
		return engine.Expr{Kind: engine.ExprLiteral, Literal: value.String(unescapeDouble(stripQuotes(t.Text, 1)), p.span(t.Start, t.End)), Span: p.span(t.Start, t.End)}
	case lexer.KindBacktick:
		p.advance()
		return engine.Expr{Kind: engine.ExprLiteral, Literal: value.String(stripQuotes(t.Text, 1), p.span(t.Start, t.End)), Span: p.span(t.Start, t.End)}
	case lexer.KindVarSigilInterpString:
		p.advance()
		return p.parseInterpString(t)
	case lexer.KindDollar:
		return p.parseVarRef()
	case lexer.KindLBracket:
		return p.parseListLiteral()
	case lexer.KindLBrace:
		return p.parseRecordOrClosureLiteral()
	case lexer.KindLParen:
		return p.parseSubExpression()
	case lexer.KindBareWord:
		p.advance()
		switch t.Text {
		case "true":
			return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Bool(true, p.span(t.Start, t.End)), Span: p.span(t.Start, t.End)}
		case "false":
			return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Bool(false, p.span(t.Start, t.End)), Span: p.span(t.Start, t.End)}
		case "null":
			return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Nothing(p.span(t.Start, t.End)), Span: p.span(t.Start, t.End)}
		default:
			// Bare word used as a literal string argument (e.g. `echo hello`).
			return engine.Expr{Kind: engine.ExprLiteral, Literal: value.String(t.Text, p.span(t.Start, t.End)), Span: p.span(t.Start, t.End)}
		}
	default:
		p.advance()
		p.errf(p.span(t.Start, t.End), "unexpected token")
		return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Nothing(p.span(t.Start, t.End)), Span: p.span(t.Start, t.End)}
	}
}

func stripQuotes(s string, n int) string {
	if len(s) >= 2*n {
		return s[n : len(s)-n]
	}
	return s
}

func unquoteToken(t lexer.Token) string {
	switch t.Kind {
	case lexer.KindSingleQuoted, lexer.KindDoubleQuoted:
		return stripQuotes(t.Text, 1)
	default:
		return t.Text
	}
}

func unescapeDouble(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'u':
				// \u{XXXX}
				if i+1 < len(s) && s[i+1] == '{' {
					end := strings.IndexByte(s[i:], '}')
					if end != -1 {
						hex := s[i+2 : i+end]
						if n, err := strconv.ParseInt(hex, 16, 32); err == nil {
							b.WriteRune(rune(n))
						}
						i += end
						continue
					}
				}
				b.WriteByte('u')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// parseInterpString re-lexes a $"..." token's inner text, splitting it
// into literal text parts and `(expr)` parts (spec §4.5 "$"…(expr)…"
// interpolated strings parse embedded expressions").
func (p *Parser) parseInterpString(t lexer.Token) engine.Expr {
	inner := t.Text[2 : len(t.Text)-1]
	var parts []engine.Expr
	i := 0
	for i < len(inner) {
		if inner[i] == '(' {
			depth := 1
			j := i + 1
			for j < len(inner) && depth > 0 {
				if inner[j] == '(' {
					depth++
				} else if inner[j] == ')' {
					depth--
				}
				j++
			}
			exprSrc := inner[i+1 : j-1]
			sub := Parse(t.Start, exprSrc, p.ws)
			if sub.Block != nil && len(sub.Block.Pipelines) > 0 {
				elems := sub.Block.Pipelines[len(sub.Block.Pipelines)-1].Elements
				if len(elems) > 0 {
					parts = append(parts, elems[len(elems)-1].Expr)
				}
			}
			p.errs = append(p.errs, sub.Errors...)
			i = j
			continue
		}
		j := i
		for j < len(inner) && inner[j] != '(' {
			j++
		}
		parts = append(parts, engine.Expr{Kind: engine.ExprLiteral, Literal: value.String(unescapeDouble(inner[i:j]), p.span(t.Start, t.End))})
		i = j
	}
	return engine.Expr{Kind: engine.ExprStringInterp, Parts: parts, Span: p.span(t.Start, t.End)}
}

func (p *Parser) parseVarRef() engine.Expr {
	start := p.advance().Start // `$`
	name := p.expectWord()
	sp := p.span(start, p.cur().Start)
	if entry, ok := p.ws.Resolve(name); ok && entry.VarID != nil {
		return engine.Expr{Kind: engine.ExprVarRef, VarID: *entry.VarID, Span: sp}
	}
	// $env / $nu / $in and similar well-known sigils resolve dynamically at
	// eval time against the Stack rather than a registered VarID.
	return engine.Expr{Kind: engine.ExprVarRef, CallName: name, VarID: -1, Span: sp}
}

func (p *Parser) parseNumberLiteral(t lexer.Token) engine.Expr {
	sp := p.span(t.Start, t.End)
	text := t.Text
	if i, dur, fsz, ok := parseUnitSuffixed(text); ok {
		if dur != 0 || strings.HasSuffix(text, "ns") {
			return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Duration(dur, sp), Span: sp}
		}
		if fsz != 0 || hasFilesizeSuffix(text) {
			return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Filesize(i, sp), Span: sp}
		}
	}
	if strings.Contains(text, ".") || strings.ContainsAny(text, "eE") && !strings.HasPrefix(text, "0x") {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Float(f, sp), Span: sp}
		}
	}
	n, err := parseIntLiteral(text)
	if err != nil {
		if f, ferr := strconv.ParseFloat(text, 64); ferr == nil {
			return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Float(f, sp), Span: sp}
		}
		p.errf(sp, "invalid number literal")
		return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Int(0, sp), Span: sp}
	}
	return engine.Expr{Kind: engine.ExprLiteral, Literal: value.Int(n, sp), Span: sp}
}

func parseIntLiteral(text string) (int64, error) {
	neg := false
	if strings.HasPrefix(text, "-") {
		neg = true
		text = text[1:]
	} else if strings.HasPrefix(text, "+") {
		text = text[1:]
	}
	var n int64
	var err error
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		n, err = strconv.ParseInt(text[2:], 16, 64)
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		n, err = strconv.ParseInt(text[2:], 2, 64)
	case strings.HasPrefix(text, "0o") || strings.HasPrefix(text, "0O"):
		n, err = strconv.ParseInt(text[2:], 8, 64)
	default:
		n, err = strconv.ParseInt(text, 10, 64)
	}
	if err != nil {
		return 0, err
	}
	if neg {
		n = -n
	}
	return n, nil
}

var durationSuffixes = map[string]time.Duration{
	"ns": time.Nanosecond, "us": time.Microsecond, "ms": time.Millisecond,
	"sec": time.Second, "min": time.Minute, "hr": time.Hour,
	"day": 24 * time.Hour, "wk": 7 * 24 * time.Hour,
}

var filesizeSuffixes = map[string]int64{
	"b": 1, "kb": 1000, "mb": 1000 * 1000, "gb": 1000 * 1000 * 1000,
	"kib": 1024, "mib": 1024 * 1024, "gib": 1024 * 1024 * 1024,
}

func hasFilesizeSuffix(text string) bool {
	for suf := range filesizeSuffixes {
		if strings.HasSuffix(strings.ToLower(text), suf) {
			return true
		}
	}
	return false
}

// parseUnitSuffixed splits a trailing alphabetic unit suffix from a
// numeric literal and resolves it to a Duration or Filesize magnitude
// (spec §4.4 "number... with optional unit suffix").
func parseUnitSuffixed(text string) (intVal int64, dur time.Duration, filesize int64, ok bool) {
	lower := strings.ToLower(text)
	for suf, mult := range durationSuffixes {
		if strings.HasSuffix(lower, suf) {
			numPart := text[:len(text)-len(suf)]
			if n, err := strconv.ParseFloat(numPart, 64); err == nil {
				return 0, time.Duration(n * float64(mult)), 0, true
			}
		}
	}
	for suf, mult := range filesizeSuffixes {
		if strings.HasSuffix(lower, suf) {
			numPart := text[:len(text)-len(suf)]
			if n, err := strconv.ParseInt(numPart, 10, 64); err == nil {
				return n * mult, 0, n * mult, true
			}
		}
	}
	return 0, 0, 0, false
}

func (p *Parser) parseListLiteral() engine.Expr {
	start := p.advance().Start // `[`
	var elems []engine.Expr
	p.skipStatementSeparators()
	for !p.at(lexer.KindRBracket) && !p.at(lexer.KindEOF) {
		elems = append(elems, p.parseExpr(precOr))
		if p.at(lexer.KindComma) {
			p.advance()
		}
		p.skipStatementSeparators()
	}
	p.expect(lexer.KindRBracket)
	return engine.Expr{Kind: engine.ExprList, Elements: elems, Span: p.span(start, p.cur().Start)}
}

// parseRecordOrClosureLiteral disambiguates `{k: v, ...}`, `{|params|
// body}`, and a bare `{ ... }` pipeline block used as a closure with no
// parameters (spec §4.5 "{|params| body} produces a closure literal").
func (p *Parser) parseRecordOrClosureLiteral() engine.Expr {
	start := p.cur().Start
	p.advance() // `{`
	if p.at(lexer.KindPipe) {
		p.advance()
		var params []engine.VarID
		p.ws.PushScope()
		for !p.at(lexer.KindPipe) && !p.at(lexer.KindEOF) {
			name := p.expectWord()
			shape := p.parseOptionalTypeAnnotation()
			params = append(params, p.ws.AddVariable(name, false, shape))
			if p.at(lexer.KindComma) {
				p.advance()
			}
		}
		p.expect(lexer.KindPipe)
		body := p.parseBlockBody(params)
		p.ws.PopScope()
		p.expect(lexer.KindRBrace)
		blockID := p.ws.AddBlock(body)
		return engine.Expr{Kind: engine.ExprClosureLit, ClosureBlock: blockID, Span: p.span(start, p.cur().Start)}
	}
	if p.looksLikeRecord() {
		return p.parseRecordLiteralBody(start)
	}
	body := p.parseBlockBody(nil)
	p.expect(lexer.KindRBrace)
	blockID := p.ws.AddBlock(body)
	return engine.Expr{Kind: engine.ExprClosureLit, ClosureBlock: blockID, Span: p.span(start, p.cur().Start)}
}

func (p *Parser) looksLikeRecord() bool {
	if p.at(lexer.KindRBrace) {
		return true // `{}` is an empty record
	}
	isWordOrString := p.cur().Kind == lexer.KindBareWord || p.cur().Kind == lexer.KindSingleQuoted || p.cur().Kind == lexer.KindDoubleQuoted
	return isWordOrString && p.peekAt(1).Kind == lexer.KindColon
}

func (p *Parser) parseRecordLiteralBody(start int) engine.Expr {
	var keys, vals []engine.Expr
	p.skipStatementSeparators()
	for !p.at(lexer.KindRBrace) && !p.at(lexer.KindEOF) {
		keyTok := p.advance()
		keyName := unquoteToken(keyTok)
		p.expect(lexer.KindColon)
		val := p.parseExpr(precOr)
		keys = append(keys, engine.Expr{Kind: engine.ExprLiteral, Literal: value.String(keyName, p.span(keyTok.Start, keyTok.End))})
		vals = append(vals, val)
		if p.at(lexer.KindComma) {
			p.advance()
		}
		p.skipStatementSeparators()
	}
	p.expect(lexer.KindRBrace)
	return engine.Expr{Kind: engine.ExprRecord, RecordKeys: keys, RecordVals: vals, Span: p.span(start, p.cur().Start)}
}

func (p *Parser) parseSubExpression() engine.Expr {
	start := p.advance().Start // `(`
	body := p.parseBlockBody(nil)
	p.expect(lexer.KindRParen)
	blockID := p.ws.AddBlock(body)
	return engine.Expr{Kind: engine.ExprSubExpression, SubBlock: blockID, Span: p.span(start, p.cur().Start)}
}
