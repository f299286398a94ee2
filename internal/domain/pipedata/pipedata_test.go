package pipedata

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
)

func TestEmptyIntoValueIsNothing(t *testing.T) {
	v, err := Empty().IntoValue(source.Unknown)
	require.NoError(t, err)
	require.True(t, v.IsNothing())
}

func TestFromValueRoundTrips(t *testing.T) {
	pd := FromValue(value.Int(7, source.Unknown))
	require.Equal(t, ShapeValue, pd.Shape)
	v, ok := pd.AsValue()
	require.True(t, ok)
	require.Equal(t, int64(7), v.AsInt())

	_, ok = pd.AsListStream()
	require.False(t, ok)
}

func TestListStreamCollectAndIntoValue(t *testing.T) {
	items := []value.Value{value.Int(1, source.Unknown), value.Int(2, source.Unknown)}
	ls := FromSlice(context.Background(), items)

	pd := FromListStream(ls)
	v, err := pd.IntoValue(source.Unknown)
	require.NoError(t, err)
	require.Equal(t, value.KindList, v.Kind)
	require.Len(t, v.AsList(), 2)
}

func TestListStreamNextStopsAtEnd(t *testing.T) {
	ls := FromSlice(context.Background(), []value.Value{value.Int(1, source.Unknown)})

	_, ok, err := ls.Next()
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = ls.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListStreamNextRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ls := NewListStream(ctx, func(context.Context) (value.Value, bool, error) {
		t.Fatal("next should not be called after cancellation")
		return value.Value{}, false, nil
	})

	_, ok, err := ls.Next()
	require.Error(t, err)
	require.False(t, ok)
}

func TestListStreamCollectStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	ls := NewListStream(context.Background(), func(context.Context) (value.Value, bool, error) {
		calls++
		if calls == 1 {
			return value.Int(1, source.Unknown), true, nil
		}
		return value.Value{}, false, boom
	})

	items, err := ls.Collect()
	require.ErrorIs(t, err, boom)
	require.Len(t, items, 1)
}

type closeTrackingReader struct {
	io.Reader
	closed bool
}

func (c *closeTrackingReader) Close() error {
	c.closed = true
	return nil
}

func TestByteStreamReadAllStringAndClose(t *testing.T) {
	rc := &closeTrackingReader{Reader: strings.NewReader("hello")}
	bs := NewByteStream(rc)

	s, err := bs.ReadAllString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	require.NoError(t, bs.Close())
	require.True(t, rc.closed)
}

func TestByteStreamIntoValuePicksStringOrBinary(t *testing.T) {
	textStream := NewByteStream(io.NopCloser(strings.NewReader("plain text")))
	pd := FromByteStream(textStream)
	v, err := pd.IntoValue(source.Unknown)
	require.NoError(t, err)
	require.Equal(t, value.KindString, v.Kind)

	binStream := NewByteStream(io.NopCloser(strings.NewReader(string([]byte{0xff, 0xfe, 0x00}))))
	pd = FromByteStream(binStream)
	v, err = pd.IntoValue(source.Unknown)
	require.NoError(t, err)
	require.Equal(t, value.KindBinary, v.Kind)
}

func TestWithMetadataAttachesAndPreservesShape(t *testing.T) {
	pd := FromValue(value.Int(1, source.Unknown)).WithMetadata(Metadata{DataSource: SourceFile, ContentType: "text/plain"})
	require.Equal(t, ShapeValue, pd.Shape)
	require.Equal(t, SourceFile, pd.Meta.DataSource)
	require.Equal(t, "text/plain", pd.Meta.ContentType)
}
