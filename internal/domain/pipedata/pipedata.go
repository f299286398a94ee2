// Package pipedata implements PipelineData, the four-shape value that
// flows between pipeline elements (spec §3.3, §4.9). Grounded in the
// teacher's executor.go streaming of step results between dependent DAG
// nodes, generalized here from a single "node result" shape to the four
// explicit shapes spec.md requires: Empty, a single Value, a lazily
// iterated ListStream, and a byte-oriented ByteStream for external-process
// and file I/O interop.
package pipedata

import (
	"bufio"
	"context"
	"io"
	"unicode/utf8"

	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
)

// DataSource records where a PipelineData originated, for metadata-aware
// commands (spec §4.9 "metadata: data_source, content_type").
type DataSource int

const (
	SourceUnknown DataSource = iota
	SourceFile
	SourceExternalProcess
	SourceNetwork
)

// Metadata travels alongside PipelineData and survives most
// transformations unless a command explicitly clears it (spec §4.9).
type Metadata struct {
	DataSource  DataSource
	ContentType string
}

// Shape discriminates the four PipelineData variants.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeValue
	ShapeListStream
	ShapeByteStream
)

// ListStreamChunk is one item produced by a ListStream iterator, or a
// terminal error.
type ListStreamChunk struct {
	Value value.Value
	Err   error
}

// ListStream is a lazily-produced sequence of Values (spec §3.3 "a stream
// of Values produced incrementally, e.g. by `each`, `where`, a plugin
// response, or a directory listing").
type ListStream struct {
	ctx  context.Context
	next func(context.Context) (value.Value, bool, error)
}

// NewListStream builds a ListStream from a pull function: it returns the
// next value, whether one was produced, and an error if production
// failed.
func NewListStream(ctx context.Context, next func(context.Context) (value.Value, bool, error)) ListStream {
	return ListStream{ctx: ctx, next: next}
}

// FromSlice adapts an already-materialized slice into a ListStream, for
// commands that must buffer before continuing (e.g. `sort-by`).
func FromSlice(ctx context.Context, items []value.Value) ListStream {
	i := 0
	return NewListStream(ctx, func(context.Context) (value.Value, bool, error) {
		if i >= len(items) {
			return value.Value{}, false, nil
		}
		v := items[i]
		i++
		return v, true, nil
	})
}

// Next pulls the next element, returning ok=false at end of stream. It
// checks ctx cancellation first so a long-running producer can be
// interrupted between elements (spec §5 "interrupt signal").
func (ls ListStream) Next() (value.Value, bool, error) {
	select {
	case <-ls.ctx.Done():
		return value.Value{}, false, ls.ctx.Err()
	default:
	}
	return ls.next(ls.ctx)
}

// Collect drains the stream into a slice, stopping at the first error.
func (ls ListStream) Collect() ([]value.Value, error) {
	var out []value.Value
	for {
		v, ok, err := ls.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// ByteStream wraps an io.ReadCloser of raw bytes, used for external
// process stdout/stderr and file contents (spec §3.3 "a stream of raw
// bytes... typically backed by an OS pipe or file handle").
type ByteStream struct {
	r      io.ReadCloser
	reader *bufio.Reader
}

// NewByteStream wraps r.
func NewByteStream(r io.ReadCloser) ByteStream {
	return ByteStream{r: r, reader: bufio.NewReader(r)}
}

// Reader exposes the underlying buffered reader for commands that consume
// bytes directly (e.g. an external process' stdin bridge).
func (bs ByteStream) Reader() *bufio.Reader { return bs.reader }

// Close releases the underlying resource.
func (bs ByteStream) Close() error {
	if bs.r == nil {
		return nil
	}
	return bs.r.Close()
}

// ReadAllString drains the stream and decodes it as UTF-8 text, mirroring
// how a pipeline that ends without a consuming command renders to the
// terminal (spec §4.9 "collect: drain into a String or Binary Value").
func (bs ByteStream) ReadAllString() (string, error) {
	b, err := io.ReadAll(bs.reader)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadAllBinary drains the stream into a byte slice.
func (bs ByteStream) ReadAllBinary() ([]byte, error) {
	return io.ReadAll(bs.reader)
}

// PipelineData is the tagged union flowing between PipelineElements (spec
// §3.3). Only the field matching Shape is populated, following the same
// flat-tagged-struct convention as value.Value and engine.Expr.
type PipelineData struct {
	Shape Shape
	Meta  Metadata

	val   value.Value
	list  ListStream
	bytes ByteStream
}

// Empty constructs the no-output pipeline shape (spec §3.3 "Empty: no
// output, e.g. after `print`").
func Empty() PipelineData {
	return PipelineData{Shape: ShapeEmpty}
}

// FromValue wraps a single Value (spec §3.3 "Value: a single Value").
func FromValue(v value.Value) PipelineData {
	return PipelineData{Shape: ShapeValue, val: v}
}

// FromListStream wraps a ListStream.
func FromListStream(ls ListStream) PipelineData {
	return PipelineData{Shape: ShapeListStream, list: ls}
}

// FromByteStream wraps a ByteStream.
func FromByteStream(bs ByteStream) PipelineData {
	return PipelineData{Shape: ShapeByteStream, bytes: bs}
}

// WithMetadata attaches Metadata to an existing PipelineData, returning
// the updated copy (PipelineData is a value type, mirroring value.Value's
// copy-on-write style).
func (pd PipelineData) WithMetadata(m Metadata) PipelineData {
	pd.Meta = m
	return pd
}

// AsValue returns the wrapped Value; only meaningful when Shape ==
// ShapeValue.
func (pd PipelineData) AsValue() (value.Value, bool) {
	if pd.Shape != ShapeValue {
		return value.Value{}, false
	}
	return pd.val, true
}

// AsListStream returns the wrapped ListStream; only meaningful when Shape
// == ShapeListStream.
func (pd PipelineData) AsListStream() (ListStream, bool) {
	if pd.Shape != ShapeListStream {
		return ListStream{}, false
	}
	return pd.list, true
}

// AsByteStream returns the wrapped ByteStream; only meaningful when Shape
// == ShapeByteStream.
func (pd PipelineData) AsByteStream() (ByteStream, bool) {
	if pd.Shape != ShapeByteStream {
		return ByteStream{}, false
	}
	return pd.bytes, true
}

// IntoValue collapses any shape into a single Value — draining a
// ListStream into a List Value, and a ByteStream into a String or Binary
// Value depending on UTF-8 validity (spec §4.9 "collapsing a stream into a
// single Value when a command declares a Value input type").
func (pd PipelineData) IntoValue(sp source.Span) (value.Value, error) {
	switch pd.Shape {
	case ShapeEmpty:
		return value.Nothing(sp), nil
	case ShapeValue:
		return pd.val, nil
	case ShapeListStream:
		items, err := pd.list.Collect()
		if err != nil {
			return value.Value{}, err
		}
		return value.List(items, sp), nil
	case ShapeByteStream:
		b, err := pd.bytes.ReadAllBinary()
		if err != nil {
			return value.Value{}, err
		}
		if utf8.Valid(b) {
			return value.String(string(b), sp), nil
		}
		return value.Binary(b, sp), nil
	default:
		return value.Nothing(sp), nil
	}
}
