package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeSimplePipeline(t *testing.T) {
	toks := New(`ls | where size > 10 | first`).Tokenize()
	require.Equal(t, []Kind{
		KindBareWord, KindPipe, KindBareWord, KindBareWord, KindOperator,
		KindNumber, KindPipe, KindBareWord, KindEOF,
	}, kinds(toks))
}

func TestTokenizeQuotedStrings(t *testing.T) {
	toks := New(`'single' "double \"escaped\"" ` + "`backtick`").Tokenize()
	require.Equal(t, []Kind{KindSingleQuoted, KindDoubleQuoted, KindBacktick, KindEOF}, kinds(toks))
	require.Equal(t, `'single'`, toks[0].Text)
	require.Equal(t, `"double \"escaped\""`, toks[1].Text)
}

func TestTokenizeNewlineIsTerminatorOutsideParens(t *testing.T) {
	toks := New("echo 1\necho 2").Tokenize()
	require.Equal(t, []Kind{
		KindBareWord, KindNumber, KindNewline, KindBareWord, KindNumber, KindEOF,
	}, kinds(toks))
}

func TestTokenizeNewlineSuppressedInsideParens(t *testing.T) {
	toks := New("(1 +\n2)").Tokenize()
	for _, k := range kinds(toks) {
		require.NotEqual(t, KindNewline, k)
	}
}

func TestTokenizeCommentRunsToEndOfLine(t *testing.T) {
	toks := New("echo 1 # a comment\necho 2").Tokenize()
	require.Equal(t, KindComment, toks[2].Kind)
	require.Equal(t, "# a comment", toks[2].Text)
}

func TestTokenizeMultiCharOperatorsLongestMatchFirst(t *testing.T) {
	toks := New("1 == 2 != 3 o+e>> out.txt").Tokenize()
	kindsGot := kinds(toks)
	require.Contains(t, kindsGot, KindOperator)
	require.Contains(t, kindsGot, KindRedirectBoth)
}

func TestTokenizeRangeOperators(t *testing.T) {
	toks := New("1..10").Tokenize()
	require.Equal(t, []Kind{KindNumber, KindRange, KindNumber, KindEOF}, kinds(toks))

	toks = New("1..<10").Tokenize()
	require.Equal(t, []Kind{KindNumber, KindRangeExclusive, KindNumber, KindEOF}, kinds(toks))
}

func TestTokenizeNumberWithUnitSuffix(t *testing.T) {
	toks := New("10kb 5sec").Tokenize()
	require.Equal(t, KindNumber, toks[0].Kind)
	require.Equal(t, "10kb", toks[0].Text)
	require.Equal(t, KindNumber, toks[1].Kind)
	require.Equal(t, "5sec", toks[1].Text)
}

func TestTokenizeHexBinaryOctalNumbers(t *testing.T) {
	toks := New("0xFF 0b101 0o17").Tokenize()
	require.Equal(t, []string{"0xFF", "0b101", "0o17"}, []string{toks[0].Text, toks[1].Text, toks[2].Text})
}

func TestTokenizeWordOperators(t *testing.T) {
	toks := New("1 mod 2 and 3 not-in 4").Tokenize()
	require.Equal(t, []Kind{
		KindNumber, KindOperator, KindNumber, KindOperator, KindNumber, KindOperator, KindNumber, KindEOF,
	}, kinds(toks))
}

func TestTokenizeInterpolatedStringTracksParenDepth(t *testing.T) {
	toks := New(`$"value: (1 + 1)"`).Tokenize()
	require.Equal(t, []Kind{KindVarSigilInterpString, KindEOF}, kinds(toks))
	require.Equal(t, `$"value: (1 + 1)"`, toks[0].Text)
}

func TestTokenizeDollarVariableSigil(t *testing.T) {
	toks := New("$x").Tokenize()
	require.Equal(t, []Kind{KindDollar, KindBareWord, KindEOF}, kinds(toks))
}

func TestTokenizeAlwaysTerminatesWithEOF(t *testing.T) {
	toks := New("").Tokenize()
	require.Equal(t, []Kind{KindEOF}, kinds(toks))
}
