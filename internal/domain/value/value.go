// Package value implements the uniform tagged value type (spec §3.1): the
// single representation every command consumes and produces. It is
// realized as a flat struct with a Kind discriminant rather than an
// interface-per-variant, grounded in the teacher's Step.UnmarshalYAML
// pattern (internal/config/types.go) of a tagged struct whose active
// payload is selected by a string/kind field and accessed through a
// switch — needed here because equality, ordering, and cell-path traversal
// must exhaustively switch over the variant set in one place.
package value

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/glint-shell/glint/internal/domain/source"
)

// Kind discriminates the Value variants of spec §3.1.
type Kind int

const (
	KindNothing Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindDate
	KindDuration
	KindFilesize
	KindRange
	KindCellPath
	KindList
	KindRecord
	KindClosure
	KindError
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindNothing:
		return "nothing"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindDate:
		return "date"
	case KindDuration:
		return "duration"
	case KindFilesize:
		return "filesize"
	case KindRange:
		return "range"
	case KindCellPath:
		return "cell-path"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	case KindClosure:
		return "closure"
	case KindError:
		return "error"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Range is a lazy sequence generator (spec §3.1).
type Range struct {
	Start       int64
	End         int64
	Step        int64
	Inclusive   bool
	HasEnd      bool
	FloatValued bool
	FStart      float64
	FEnd        float64
	FStep       float64
}

// PathMember is one step of a CellPath: either a string key (Record lookup)
// or an integer index (List lookup), each optionally "optional" (spec
// §3.1, §4.1).
type PathMember struct {
	IsString bool
	String   string
	Int      int
	Optional bool
}

// Record preserves insertion order with unique keys (spec §3.1 invariant a).
type Record struct {
	keys   []string
	values map[string]Value
}

// NewRecord builds an empty, insertion-ordered Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// Set inserts or overwrites a key, preserving original insertion position on
// overwrite.
func (r *Record) Set(key string, v Value) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value for key and whether it was present.
func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns keys in insertion order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of entries.
func (r *Record) Len() int { return len(r.keys) }

// Clone returns a shallow copy sharing no backing arrays with the original,
// supporting the persistent-update semantics of spec §4.1 ("records and
// lists are cloned along the path").
func (r *Record) Clone() *Record {
	if r == nil {
		return NewRecord()
	}
	out := &Record{
		keys:   append([]string(nil), r.keys...),
		values: make(map[string]Value, len(r.values)),
	}
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Closure is a block identifier plus the captured bindings at creation time
// (spec §3.1, §9 "capture is by value").
type Closure struct {
	BlockID  int
	Captures map[int]Value // variable id -> captured value
}

// CustomValue is the polymorphic extension point of spec §3.2. Only
// TypeName, CloneWithNewSpan, and ToBaseValue are required; the remaining
// capabilities are detected via optional interfaces, mirroring the
// teacher's MetadataProvider/PluginInitializer pattern
// (internal/plugin/interface.go) of type-asserting for optional behavior
// rather than requiring every method on the base interface.
type CustomValue interface {
	TypeName() string
	CloneWithNewSpan(sp source.Span) CustomValue
	ToBaseValue() Value
}

// CellPathCapable lets a custom value participate in cell-path traversal.
type CellPathCapable interface {
	FollowCellPath(member PathMember) (Value, error)
}

// Operatable lets a custom value participate in binary operations.
type Operatable interface {
	BinaryOp(op string, rhs Value) (Value, error)
}

// Dropper is notified when the owning Value goes out of scope, used to
// signal plugin-backed custom values (spec §3.6, §4.11 "notify on drop").
type Dropper interface {
	NotifyDrop()
}

// PluginCustomHandle is the serialized shape of a plugin-backed custom
// value used for wire transport (spec §3.2): "(type_name, opaque_bytes,
// notify_on_drop, source_plugin_identifier)".
type PluginCustomHandle struct {
	TypeNameVal   string
	Opaque        []byte
	NotifyOnDrop  bool
	SourcePlugin  string
	hostSpan      source.Span
	dropCallback  func(handle *PluginCustomHandle)
}

func NewPluginCustomHandle(typeName string, opaque []byte, notify bool, plugin string, onDrop func(*PluginCustomHandle)) *PluginCustomHandle {
	return &PluginCustomHandle{TypeNameVal: typeName, Opaque: opaque, NotifyOnDrop: notify, SourcePlugin: plugin, dropCallback: onDrop}
}

func (h *PluginCustomHandle) TypeName() string { return h.TypeNameVal }

func (h *PluginCustomHandle) CloneWithNewSpan(sp source.Span) CustomValue {
	clone := *h
	clone.hostSpan = sp
	return &clone
}

func (h *PluginCustomHandle) ToBaseValue() Value {
	return String(fmt.Sprintf("<custom:%s>", h.TypeNameVal), h.hostSpan)
}

func (h *PluginCustomHandle) NotifyDrop() {
	if h.NotifyOnDrop && h.dropCallback != nil {
		h.dropCallback(h)
	}
}

// Value is the tagged union of spec §3.1. Every variant carries Span, the
// source location that produced it (invariant b).
type Value struct {
	Kind Kind
	Span source.Span

	boolVal   bool
	intVal    int64
	floatVal  float64
	stringVal string
	binaryVal []byte
	dateVal   time.Time
	durVal    time.Duration
	fsizeVal  int64
	rangeVal  *Range
	pathVal   []PathMember
	listVal   []Value
	recordVal *Record
	closVal   *Closure
	errVal    *ShellErrorValue
	customVal CustomValue
}

// ShellErrorValue is the payload of the first-class Error variant (spec
// §3.1 "Error: structured error. First-class propagatable error.").
type ShellErrorValue struct {
	Code     string
	Headline string
	Help     string
}

func (e *ShellErrorValue) Error() string { return e.Headline }

// --- Constructors ---

func Nothing(sp source.Span) Value { return Value{Kind: KindNothing, Span: sp} }
func Bool(b bool, sp source.Span) Value {
	return Value{Kind: KindBool, boolVal: b, Span: sp}
}
func Int(i int64, sp source.Span) Value { return Value{Kind: KindInt, intVal: i, Span: sp} }
func Float(f float64, sp source.Span) Value {
	return Value{Kind: KindFloat, floatVal: f, Span: sp}
}
func String(s string, sp source.Span) Value {
	return Value{Kind: KindString, stringVal: s, Span: sp}
}
func Binary(b []byte, sp source.Span) Value {
	return Value{Kind: KindBinary, binaryVal: b, Span: sp}
}
func Date(t time.Time, sp source.Span) Value {
	return Value{Kind: KindDate, dateVal: t, Span: sp}
}
func Duration(d time.Duration, sp source.Span) Value {
	return Value{Kind: KindDuration, durVal: d, Span: sp}
}
func Filesize(bytes int64, sp source.Span) Value {
	return Value{Kind: KindFilesize, fsizeVal: bytes, Span: sp}
}
func RangeVal(r Range, sp source.Span) Value {
	return Value{Kind: KindRange, rangeVal: &r, Span: sp}
}
func CellPath(members []PathMember, sp source.Span) Value {
	return Value{Kind: KindCellPath, pathVal: members, Span: sp}
}
func List(items []Value, sp source.Span) Value {
	return Value{Kind: KindList, listVal: items, Span: sp}
}
func RecordVal(r *Record, sp source.Span) Value {
	return Value{Kind: KindRecord, recordVal: r, Span: sp}
}
func ClosureVal(c *Closure, sp source.Span) Value {
	return Value{Kind: KindClosure, closVal: c, Span: sp}
}
func Error(e *ShellErrorValue, sp source.Span) Value {
	return Value{Kind: KindError, errVal: e, Span: sp}
}
func Custom(c CustomValue, sp source.Span) Value {
	return Value{Kind: KindCustom, customVal: c, Span: sp}
}

// --- Accessors (no Kind check: a mismatched Kind yields the zero payload; callers type-check via Kind first) ---

func (v Value) AsBool() bool         { return v.boolVal }
func (v Value) AsInt() int64         { return v.intVal }
func (v Value) AsFloat() float64     { return v.floatVal }
func (v Value) AsString() string     { return v.stringVal }
func (v Value) AsBinary() []byte     { return v.binaryVal }
func (v Value) AsDate() time.Time    { return v.dateVal }
func (v Value) AsDuration() time.Duration { return v.durVal }
func (v Value) AsFilesize() int64    { return v.fsizeVal }
func (v Value) AsRange() *Range      { return v.rangeVal }
func (v Value) AsPath() []PathMember { return v.pathVal }
func (v Value) AsList() []Value      { return v.listVal }
func (v Value) AsRecord() *Record    { return v.recordVal }
func (v Value) AsClosure() *Closure  { return v.closVal }
func (v Value) AsError() *ShellErrorValue { return v.errVal }
func (v Value) AsCustom() CustomValue { return v.customVal }

// IsNothing reports whether v is the unit/null value.
func (v Value) IsNothing() bool { return v.Kind == KindNothing }

// WithSpan returns a copy of v with a new span, used when a value moves
// through an expression boundary (e.g. variable reference).
func (v Value) WithSpan(sp source.Span) Value {
	v.Span = sp
	return v
}

// Display renders v in its default human-readable form (used for external
// process stdin rendering, §4.10, and debug output). It is not the nuon
// serializer (see internal/nuon) and formats several scalars differently
// from it: Nothing renders as "", whole floats drop their ".0", and
// filesizes use binary units ("1.0 KiB").
func (v Value) Display() string {
	switch v.Kind {
	case KindNothing:
		return ""
	case KindBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.intVal)
	case KindFloat:
		return formatFloat(v.floatVal)
	case KindString:
		return v.stringVal
	case KindBinary:
		return fmt.Sprintf("%x", v.binaryVal)
	case KindDate:
		return v.dateVal.Format(time.RFC3339)
	case KindDuration:
		return v.durVal.String()
	case KindFilesize:
		return formatFilesize(v.fsizeVal)
	case KindList:
		parts := make([]string, len(v.listVal))
		for i, item := range v.listVal {
			parts[i] = item.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindRecord:
		parts := make([]string, 0, v.recordVal.Len())
		for _, k := range v.recordVal.Keys() {
			val, _ := v.recordVal.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, val.Display()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindError:
		return "Error: " + v.errVal.Headline
	case KindClosure:
		return "<closure>"
	case KindCustom:
		return v.customVal.ToBaseValue().Display()
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	s := fmt.Sprintf("%g", f)
	return s
}

func formatFilesize(bytes int64) string {
	const unit = 1024
	abs := bytes
	if abs < 0 {
		abs = -abs
	}
	if abs < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := abs / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := "KMGTPE"
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), units[exp])
}

// Equal implements the structural equality of spec §4.1: elementwise in
// insertion order for collections; Nothing equals Nothing; custom values
// delegate to their implementation via ToBaseValue comparison (there is
// no custom Equal capability).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNothing:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindInt:
		return a.intVal == b.intVal
	case KindFloat:
		return a.floatVal == b.floatVal
	case KindString:
		return a.stringVal == b.stringVal
	case KindBinary:
		return string(a.binaryVal) == string(b.binaryVal)
	case KindDate:
		return a.dateVal.Equal(b.dateVal)
	case KindDuration:
		return a.durVal == b.durVal
	case KindFilesize:
		return a.fsizeVal == b.fsizeVal
	case KindList:
		if len(a.listVal) != len(b.listVal) {
			return false
		}
		for i := range a.listVal {
			if !Equal(a.listVal[i], b.listVal[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		ak, bk := a.recordVal.Keys(), b.recordVal.Keys()
		if len(ak) != len(bk) {
			return false
		}
		for i, k := range ak {
			if bk[i] != k {
				return false
			}
			av, _ := a.recordVal.Get(k)
			bv, _ := b.recordVal.Get(k)
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindCustom:
		return Equal(a.customVal.ToBaseValue(), b.customVal.ToBaseValue())
	default:
		return false
	}
}

// Compare implements the ordering of spec §4.1. It returns (-1, 0, 1, nil)
// or an error for disjoint kinds ("type mismatch").
func Compare(a, b Value) (int, error) {
	numKind := func(v Value) (float64, bool, bool) {
		switch v.Kind {
		case KindInt:
			return float64(v.intVal), true, true
		case KindFloat:
			return v.floatVal, true, false
		}
		return 0, false, false
	}

	if af, aIsNum, aIsInt := numKind(a); aIsNum {
		if bf, bIsNum, bIsInt := numKind(b); bIsNum {
			if aIsInt && bIsInt {
				switch {
				case a.intVal < b.intVal:
					return -1, nil
				case a.intVal > b.intVal:
					return 1, nil
				default:
					return 0, nil
				}
			}
			return compareFloat(af, bf), nil
		}
	}

	if a.Kind != b.Kind {
		return 0, fmt.Errorf("type mismatch: cannot compare %s and %s", a.Kind, b.Kind)
	}

	switch a.Kind {
	case KindString:
		return strings.Compare(a.stringVal, b.stringVal), nil
	case KindDuration:
		return compareInt64(int64(a.durVal), int64(b.durVal)), nil
	case KindFilesize:
		return compareInt64(a.fsizeVal, b.fsizeVal), nil
	case KindDate:
		switch {
		case a.dateVal.Before(b.dateVal):
			return -1, nil
		case a.dateVal.After(b.dateVal):
			return 1, nil
		default:
			return 0, nil
		}
	case KindBool:
		return compareInt64(boolToInt(a.boolVal), boolToInt(b.boolVal)), nil
	default:
		return 0, fmt.Errorf("type mismatch: values of kind %s are not orderable", a.Kind)
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SortRecordsByField sorts a list of Record values by a shared field name,
// used by builtins like `sort-by` (not individually specified by spec.md,
// kept here since Compare/Equal are the natural home for it).
func SortRecordsByField(items []Value, field string, ascending bool) {
	sort.SliceStable(items, func(i, j int) bool {
		iv, iok := fieldOf(items[i], field)
		jv, jok := fieldOf(items[j], field)
		if !iok || !jok {
			return false
		}
		c, err := Compare(iv, jv)
		if err != nil {
			return false
		}
		if ascending {
			return c < 0
		}
		return c > 0
	})
}

func fieldOf(v Value, field string) (Value, bool) {
	if v.Kind != KindRecord {
		return Value{}, false
	}
	return v.recordVal.Get(field)
}
