// Package nuon implements nushell object notation (spec §3.2, §8.1): a
// literal syntax subset that every Value variant round-trips through
// ("(v | to nuon | from nuon) == v" for every supported Kind). Grounded
// in the shell's own literal grammar (internal/parser's number/string/
// list/record literal parsing) generalized from "parse shell source" to
// "parse and print one self-contained literal", and in the teacher's
// internal/config YAML (de)serialization pairing a Marshal-style Encode
// with a Parse-style Decode around one data shape.
//
// Closures, first-class Errors, and cell paths have no literal form in
// this grammar (nushell's own nuon does not serialize them either) and
// Encode/Decode report a type mismatch for them rather than guessing.
package nuon

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
	"github.com/glint-shell/glint/internal/lexer"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// Encode renders v as nuon text.
func Encode(v value.Value) (string, error) {
	var b strings.Builder
	if err := encodeInto(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encodeInto(b *strings.Builder, v value.Value) error {
	switch v.Kind {
	case value.KindNothing:
		b.WriteString("null")
	case value.KindBool:
		if v.AsBool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case value.KindInt:
		b.WriteString(strconv.FormatInt(v.AsInt(), 10))
	case value.KindFloat:
		b.WriteString(encodeFloat(v.AsFloat()))
	case value.KindString:
		b.WriteString(quoteString(v.AsString()))
	case value.KindBinary:
		b.WriteString("0x\"" + hex.EncodeToString(v.AsBinary()) + "\"")
	case value.KindDate:
		b.WriteByte('@')
		b.WriteString(quoteString(v.AsDate().Format(time.RFC3339Nano)))
	case value.KindDuration:
		b.WriteString(strconv.FormatInt(int64(v.AsDuration()), 10))
		b.WriteString("ns")
	case value.KindFilesize:
		b.WriteString(strconv.FormatInt(v.AsFilesize(), 10))
		b.WriteByte('b')
	case value.KindRange:
		encodeRange(b, v.AsRange())
	case value.KindList:
		b.WriteByte('[')
		for i, item := range v.AsList() {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := encodeInto(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case value.KindRecord:
		b.WriteByte('{')
		rec := v.AsRecord()
		for i, k := range rec.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			val, _ := rec.Get(k)
			b.WriteString(quoteString(k))
			b.WriteString(": ")
			if err := encodeInto(b, val); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return pkgerrors.NewTypeMismatch(v.Span, "a nuon-serializable value", v.Kind.String())
	}
	return nil
}

func encodeRange(b *strings.Builder, r *value.Range) {
	if r.FloatValued {
		b.WriteString(encodeFloat(r.FStart))
	} else {
		b.WriteString(strconv.FormatInt(r.Start, 10))
	}
	if r.Inclusive {
		b.WriteString("..")
	} else {
		b.WriteString("..<")
	}
	if !r.HasEnd {
		return
	}
	if r.FloatValued {
		b.WriteString(encodeFloat(r.FEnd))
	} else {
		b.WriteString(strconv.FormatInt(r.End, 10))
	}
}

// encodeFloat always keeps a '.', 'e', or special-value marker in the
// output so Decode can tell a Float literal apart from an Int one —
// fmt's "%g" happily drops the decimal point for whole numbers, which
// would otherwise decode back as an Int and fail the round-trip property.
func encodeFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func unquoteString(t lexer.Token) string {
	inner := t.Text
	if len(inner) >= 2 {
		inner = inner[1 : len(inner)-1]
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(inner[i])
			}
			continue
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

// Decode parses nuon text back into a Value, stamping sp on every node
// produced (mirroring how the evaluator stamps a call's span across the
// Value it hands back, since nuon text carries no source positions of its
// own once it has left the shell).
func Decode(src string, sp source.Span) (value.Value, error) {
	toks := lexer.New(src).Tokenize()
	d := &decoder{toks: toks, sp: sp}
	v, err := d.parseValue()
	if err != nil {
		return value.Value{}, err
	}
	if !d.at(lexer.KindEOF) {
		return value.Value{}, pkgerrors.NewParseError("glint::nuon::decode", "trailing input after nuon value", sp, d.cur().Text)
	}
	return v, nil
}

type decoder struct {
	toks []lexer.Token
	pos  int
	sp   source.Span
}

func (d *decoder) cur() lexer.Token {
	if d.pos >= len(d.toks) {
		return lexer.Token{Kind: lexer.KindEOF}
	}
	return d.toks[d.pos]
}

func (d *decoder) at(k lexer.Kind) bool { return d.cur().Kind == k }

func (d *decoder) peekIsBareWord(text string) bool {
	if d.pos+1 >= len(d.toks) {
		return false
	}
	next := d.toks[d.pos+1]
	return next.Kind == lexer.KindBareWord && next.Text == text
}

func (d *decoder) advance() lexer.Token {
	t := d.cur()
	if d.pos < len(d.toks) {
		d.pos++
	}
	return t
}

func (d *decoder) errf(format string, args ...any) error {
	return pkgerrors.NewParseError("glint::nuon::decode", fmt.Sprintf(format, args...), d.sp, d.cur().Text)
}

func (d *decoder) parseValue() (value.Value, error) {
	t := d.cur()
	switch t.Kind {
	case lexer.KindBareWord:
		switch t.Text {
		case "null":
			d.advance()
			return value.Nothing(d.sp), nil
		case "true":
			d.advance()
			return value.Bool(true, d.sp), nil
		case "false":
			d.advance()
			return value.Bool(false, d.sp), nil
		case "@":
			return d.parseDate()
		case "inf":
			d.advance()
			return value.Float(math.Inf(1), d.sp), nil
		case "nan":
			d.advance()
			return value.Float(math.NaN(), d.sp), nil
		}
		return value.Value{}, d.errf("unexpected word in nuon: %s", t.Text)
	case lexer.KindNumber:
		if t.Text == "0x" {
			return d.parseBinary()
		}
		return d.parseNumberOrRange()
	case lexer.KindSingleQuoted, lexer.KindDoubleQuoted:
		d.advance()
		return value.String(unquoteString(t), d.sp), nil
	case lexer.KindOperator:
		if t.Text == "-" && d.peekIsBareWord("inf") {
			d.advance()
			d.advance()
			return value.Float(math.Inf(-1), d.sp), nil
		}
		return value.Value{}, d.errf("unexpected token in nuon: %s", t.Kind.String())
	case lexer.KindLBracket:
		return d.parseList()
	case lexer.KindLBrace:
		return d.parseRecord()
	default:
		return value.Value{}, d.errf("unexpected token in nuon: %s", t.Kind.String())
	}
}

// parseDate reads the `@"..."` form Encode produces for KindDate: `@`
// lexes as an ordinary bare word (it has no special meaning to the shell
// lexer) followed by the RFC3339 timestamp as a quoted string.
func (d *decoder) parseDate() (value.Value, error) {
	d.advance() // `@`
	if !d.at(lexer.KindDoubleQuoted) && !d.at(lexer.KindSingleQuoted) {
		return value.Value{}, d.errf("expected quoted timestamp after '@'")
	}
	tok := d.advance()
	t, err := time.Parse(time.RFC3339Nano, unquoteString(tok))
	if err != nil {
		return value.Value{}, d.errf("invalid date literal: %s", err.Error())
	}
	return value.Date(t, d.sp), nil
}

// parseBinary reads the `0x"<hex>"` form Encode produces for KindBinary.
// The hex digits are kept inside a quoted string (rather than bracketed
// bare text) specifically so the lexer's number scanner, which happily
// swallows runs of letters as a unit suffix, never gets a chance to split
// an all-hex-digit binary payload across multiple tokens.
func (d *decoder) parseBinary() (value.Value, error) {
	d.advance() // `0x`
	if !d.at(lexer.KindDoubleQuoted) && !d.at(lexer.KindSingleQuoted) {
		return value.Value{}, d.errf("expected quoted hex payload after 0x")
	}
	hexText := unquoteString(d.advance())
	raw, err := hex.DecodeString(hexText)
	if err != nil {
		return value.Value{}, d.errf("invalid hex in binary literal: %s", hexText)
	}
	return value.Binary(raw, d.sp), nil
}

func (d *decoder) parseNumberOrRange() (value.Value, error) {
	t := d.advance()
	v, err := parseNumberToken(t.Text, d.sp)
	if err != nil {
		return value.Value{}, d.errf("%s", err.Error())
	}
	if d.at(lexer.KindRange) || d.at(lexer.KindRangeExclusive) {
		inclusive := d.at(lexer.KindRange)
		d.advance()
		r := value.Range{Inclusive: inclusive}
		if v.Kind == value.KindFloat {
			r.FloatValued = true
			r.FStart = v.AsFloat()
		} else {
			r.Start = v.AsInt()
		}
		if !d.at(lexer.KindEOF) && !d.at(lexer.KindRBracket) && !d.at(lexer.KindRBrace) && !d.at(lexer.KindComma) {
			endTok := d.advance()
			endVal, err := parseNumberToken(endTok.Text, d.sp)
			if err != nil {
				return value.Value{}, d.errf("%s", err.Error())
			}
			r.HasEnd = true
			if r.FloatValued {
				r.FEnd = endVal.AsFloat()
			} else {
				r.End = endVal.AsInt()
			}
		}
		return value.RangeVal(r, d.sp), nil
	}
	return v, nil
}

// parseNumberToken resolves one lexer.KindNumber token into an Int,
// Float, Duration, or Filesize Value, mirroring internal/parser's
// parseNumberLiteral but restricted to the handful of suffixes Encode
// actually emits (plain integers/floats, "ns" durations, "b" filesizes).
func parseNumberToken(text string, sp source.Span) (value.Value, error) {
	if strings.HasSuffix(text, "ns") {
		n, err := strconv.ParseInt(strings.TrimSuffix(text, "ns"), 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid duration literal %q", text)
		}
		return value.Duration(time.Duration(n), sp), nil
	}
	if strings.HasSuffix(text, "b") && !strings.ContainsAny(text, ".eE") {
		n, err := strconv.ParseInt(strings.TrimSuffix(text, "b"), 10, 64)
		if err == nil {
			return value.Filesize(n, sp), nil
		}
	}
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid float literal %q", text)
		}
		return value.Float(f, sp), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return value.Value{}, fmt.Errorf("invalid int literal %q", text)
	}
	return value.Int(n, sp), nil
}

func (d *decoder) parseList() (value.Value, error) {
	d.advance() // `[`
	var items []value.Value
	for !d.at(lexer.KindRBracket) && !d.at(lexer.KindEOF) {
		v, err := d.parseValue()
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, v)
		if d.at(lexer.KindComma) {
			d.advance()
		}
	}
	if !d.at(lexer.KindRBracket) {
		return value.Value{}, d.errf("expected ']' to close list")
	}
	d.advance()
	return value.List(items, d.sp), nil
}

func (d *decoder) parseRecord() (value.Value, error) {
	d.advance() // `{`
	rec := value.NewRecord()
	for !d.at(lexer.KindRBrace) && !d.at(lexer.KindEOF) {
		keyTok := d.cur()
		var key string
		switch keyTok.Kind {
		case lexer.KindSingleQuoted, lexer.KindDoubleQuoted:
			d.advance()
			key = unquoteString(keyTok)
		case lexer.KindBareWord:
			d.advance()
			key = keyTok.Text
		default:
			return value.Value{}, d.errf("expected record key")
		}
		if !d.at(lexer.KindColon) {
			return value.Value{}, d.errf("expected ':' after record key %q", key)
		}
		d.advance()
		v, err := d.parseValue()
		if err != nil {
			return value.Value{}, err
		}
		rec.Set(key, v)
		if d.at(lexer.KindComma) {
			d.advance()
		}
	}
	if !d.at(lexer.KindRBrace) {
		return value.Value{}, d.errf("expected '}' to close record")
	}
	d.advance()
	return value.RecordVal(rec, d.sp), nil
}
