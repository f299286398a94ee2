package nuon

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
)

var zeroSpan = source.Span{}

func roundTrip(t *testing.T, v value.Value) value.Value {
	t.Helper()
	text, err := Encode(v)
	require.NoError(t, err)
	decoded, err := Decode(text, zeroSpan)
	require.NoError(t, err)
	return decoded
}

func TestRoundTripScalarKinds(t *testing.T) {
	cases := []value.Value{
		value.Nothing(zeroSpan),
		value.Bool(true, zeroSpan),
		value.Bool(false, zeroSpan),
		value.Int(-42, zeroSpan),
		value.Int(0, zeroSpan),
		value.Float(3.5, zeroSpan),
		value.Float(-2.0, zeroSpan),
		value.String("hello \"world\"\nwith\ttabs", zeroSpan),
		value.Filesize(10000, zeroSpan),
		value.Duration(5*time.Second, zeroSpan),
	}
	for _, v := range cases {
		got := roundTrip(t, v)
		require.True(t, value.Equal(v, got), "round trip mismatch for %v -> got %v", v, got)
	}
}

func TestRoundTripFloatSpecialValues(t *testing.T) {
	posInf := roundTrip(t, value.Float(math.Inf(1), zeroSpan))
	require.Equal(t, value.KindFloat, posInf.Kind)
	require.True(t, math.IsInf(posInf.AsFloat(), 1))

	text, err := Encode(value.Float(math.Inf(-1), zeroSpan))
	require.NoError(t, err)
	require.Equal(t, "-inf", text)
	decoded, err := Decode(text, zeroSpan)
	require.NoError(t, err)
	require.Equal(t, value.KindFloat, decoded.Kind)
}

func TestRoundTripWholeFloatKeepsFloatKind(t *testing.T) {
	v := value.Float(4.0, zeroSpan)
	text, err := Encode(v)
	require.NoError(t, err)
	require.Contains(t, text, ".", "whole floats must keep a decimal point so Decode doesn't read them back as Int")

	got := roundTrip(t, v)
	require.Equal(t, value.KindFloat, got.Kind)
	require.Equal(t, 4.0, got.AsFloat())
}

func TestRoundTripDate(t *testing.T) {
	ts := time.Date(2026, 3, 5, 12, 30, 0, 0, time.UTC)
	v := value.Date(ts, zeroSpan)
	got := roundTrip(t, v)
	require.True(t, value.Equal(v, got))
}

func TestRoundTripBinaryWithMixedHexLettersAndDigits(t *testing.T) {
	v := value.Binary([]byte{0x0a, 0xbc, 0xde, 0xf1, 0x23}, zeroSpan)
	text, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, `0x"0abcdef123"`, text)

	got := roundTrip(t, v)
	require.True(t, value.Equal(v, got))
}

func TestRoundTripList(t *testing.T) {
	v := value.List([]value.Value{
		value.Int(1, zeroSpan),
		value.String("two", zeroSpan),
		value.Bool(true, zeroSpan),
		value.List([]value.Value{value.Int(9, zeroSpan)}, zeroSpan),
	}, zeroSpan)
	got := roundTrip(t, v)
	require.True(t, value.Equal(v, got))
}

func TestRoundTripRecord(t *testing.T) {
	rec := value.NewRecord()
	rec.Set("name", value.String("glint", zeroSpan))
	rec.Set("count", value.Int(3, zeroSpan))
	rec.Set("nested", value.RecordVal(func() *value.Record {
		inner := value.NewRecord()
		inner.Set("ok", value.Bool(true, zeroSpan))
		return inner
	}(), zeroSpan))
	v := value.RecordVal(rec, zeroSpan)

	got := roundTrip(t, v)
	require.True(t, value.Equal(v, got))
}

func TestRoundTripInclusiveRange(t *testing.T) {
	r := value.Range{Start: 1, End: 10, Inclusive: true, HasEnd: true}
	v := value.RangeVal(r, zeroSpan)
	got := roundTrip(t, v)
	require.Equal(t, value.KindRange, got.Kind)
	gotRange := got.AsRange()
	require.Equal(t, r.Start, gotRange.Start)
	require.Equal(t, r.End, gotRange.End)
	require.True(t, gotRange.Inclusive)
	require.True(t, gotRange.HasEnd)
}

func TestRoundTripExclusiveOpenEndedRange(t *testing.T) {
	r := value.Range{Start: 5, Inclusive: false, HasEnd: false}
	v := value.RangeVal(r, zeroSpan)
	text, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, "5..<", text)

	got := roundTrip(t, v)
	require.Equal(t, value.KindRange, got.Kind)
	gotRange := got.AsRange()
	require.Equal(t, int64(5), gotRange.Start)
	require.False(t, gotRange.HasEnd)
	require.False(t, gotRange.Inclusive)
}

func TestEncodeClosureReportsTypeMismatch(t *testing.T) {
	_, err := Encode(value.ClosureVal(&value.Closure{}, zeroSpan))
	require.Error(t, err)
}

func TestEncodeCellPathReportsTypeMismatch(t *testing.T) {
	_, err := Encode(value.CellPath(nil, zeroSpan))
	require.Error(t, err)
}

func TestDecodeRejectsTrailingInput(t *testing.T) {
	_, err := Decode("1 2", zeroSpan)
	require.Error(t, err)
}

func TestDecodeRejectsMalformedRecord(t *testing.T) {
	_, err := Decode(`{a: 1, b:`, zeroSpan)
	require.Error(t, err)
}
