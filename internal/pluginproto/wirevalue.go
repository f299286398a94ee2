package pluginproto

import (
	"strconv"
	"time"

	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
)

// WireValue is the JSON/MessagePack-serializable rendering of value.Value.
// value.Value itself carries its payload in unexported fields (so that
// construction only happens through its typed constructors), which makes it
// unsuitable to serialize directly — encoding/json silently drops unexported
// fields. WireValue exposes one exported field per Kind instead, exactly
// mirroring the Custom Value transport shape spec §3.2 already specifies
// for plugin-backed values: "(type_name, opaque_bytes, notify_on_drop,
// source_plugin_identifier)".
type WireValue struct {
	Kind string `json:"kind"`

	Bool     bool            `json:"bool,omitempty"`
	Int      int64           `json:"int,omitempty"`
	Float    float64         `json:"float,omitempty"`
	String   string          `json:"string,omitempty"`
	Binary   []byte          `json:"binary,omitempty"`
	Date     time.Time       `json:"date,omitempty"`
	Duration time.Duration   `json:"duration,omitempty"`
	Filesize int64           `json:"filesize,omitempty"`
	Range    *WireRange      `json:"range,omitempty"`
	Path     []WirePathMember `json:"path,omitempty"`
	List     []WireValue     `json:"list,omitempty"`
	Record   *WireRecord     `json:"record,omitempty"`
	Closure  *WireClosure    `json:"closure,omitempty"`
	Error    *WireError      `json:"error,omitempty"`
	Custom   *WireCustom     `json:"custom,omitempty"`
}

type WireRange struct {
	Start       int64   `json:"start"`
	End         int64   `json:"end"`
	Step        int64   `json:"step"`
	Inclusive   bool    `json:"inclusive"`
	HasEnd      bool    `json:"has_end"`
	FloatValued bool    `json:"float_valued"`
	FStart      float64 `json:"f_start,omitempty"`
	FEnd        float64 `json:"f_end,omitempty"`
	FStep       float64 `json:"f_step,omitempty"`
}

type WirePathMember struct {
	IsString bool   `json:"is_string"`
	String   string `json:"string,omitempty"`
	Int      int    `json:"int,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// WireRecord preserves insertion order explicitly (JSON objects do not
// guarantee it), matching spec §3.1 invariant (a).
type WireRecord struct {
	Keys   []string    `json:"keys"`
	Values []WireValue `json:"values"`
}

type WireClosure struct {
	BlockID  int                  `json:"block_id"`
	Captures map[string]WireValue `json:"captures"` // variable id, stringified (JSON object keys must be strings)
}

// WireCustom is the plugin-backed Custom Value transport shape required by
// spec §3.2.
type WireCustom struct {
	TypeName     string `json:"type_name"`
	Opaque       []byte `json:"opaque"`
	NotifyOnDrop bool   `json:"notify_on_drop"`
	SourcePlugin string `json:"source_plugin"`
}

// ToWire converts an in-process Value to its wire form. Non-plugin-backed
// CustomValues are reduced to their base value (spec §3.2 "reduce to a
// base Value for display") since only PluginCustomHandle round-trips
// through the wire as an opaque handle.
func ToWire(v value.Value) WireValue {
	wv := WireValue{Kind: v.Kind.String()}
	switch v.Kind {
	case value.KindBool:
		wv.Bool = v.AsBool()
	case value.KindInt:
		wv.Int = v.AsInt()
	case value.KindFloat:
		wv.Float = v.AsFloat()
	case value.KindString:
		wv.String = v.AsString()
	case value.KindBinary:
		wv.Binary = v.AsBinary()
	case value.KindDate:
		wv.Date = v.AsDate()
	case value.KindDuration:
		wv.Duration = v.AsDuration()
	case value.KindFilesize:
		wv.Filesize = v.AsFilesize()
	case value.KindRange:
		r := v.AsRange()
		if r != nil {
			wv.Range = &WireRange{
				Start: r.Start, End: r.End, Step: r.Step, Inclusive: r.Inclusive,
				HasEnd: r.HasEnd, FloatValued: r.FloatValued,
				FStart: r.FStart, FEnd: r.FEnd, FStep: r.FStep,
			}
		}
	case value.KindCellPath:
		for _, m := range v.AsPath() {
			wv.Path = append(wv.Path, WirePathMember{IsString: m.IsString, String: m.String, Int: m.Int, Optional: m.Optional})
		}
	case value.KindList:
		for _, item := range v.AsList() {
			wv.List = append(wv.List, ToWire(item))
		}
	case value.KindRecord:
		rec := v.AsRecord()
		wr := &WireRecord{}
		if rec != nil {
			for _, k := range rec.Keys() {
				fv, _ := rec.Get(k)
				wr.Keys = append(wr.Keys, k)
				wr.Values = append(wr.Values, ToWire(fv))
			}
		}
		wv.Record = wr
	case value.KindClosure:
		c := v.AsClosure()
		if c != nil {
			captures := make(map[string]WireValue, len(c.Captures))
			for id, cv := range c.Captures {
				captures[strconv.Itoa(id)] = ToWire(cv)
			}
			wv.Closure = &WireClosure{BlockID: c.BlockID, Captures: captures}
		}
	case value.KindError:
		e := v.AsError()
		if e != nil {
			wv.Error = &WireError{Code: e.Code, Headline: e.Headline, Help: e.Help}
		}
	case value.KindCustom:
		if handle, ok := v.AsCustom().(*value.PluginCustomHandle); ok {
			wv.Custom = &WireCustom{
				TypeName: handle.TypeName(), Opaque: handle.Opaque,
				NotifyOnDrop: handle.NotifyOnDrop, SourcePlugin: handle.SourcePlugin,
			}
			break
		}
		base := v.AsCustom().ToBaseValue()
		inner := ToWire(base)
		wv = inner
	}
	return wv
}

// FromWire reconstructs a Value at the given span. Plugin custom handles
// are rebuilt without a drop callback, and internal/pluginhost does not
// attach one: dropping such a value sends no message to the owning plugin.
func FromWire(wv WireValue, sp source.Span) value.Value {
	switch wv.Kind {
	case "bool":
		return value.Bool(wv.Bool, sp)
	case "int":
		return value.Int(wv.Int, sp)
	case "float":
		return value.Float(wv.Float, sp)
	case "string":
		return value.String(wv.String, sp)
	case "binary":
		return value.Binary(wv.Binary, sp)
	case "date":
		return value.Date(wv.Date, sp)
	case "duration":
		return value.Duration(wv.Duration, sp)
	case "filesize":
		return value.Filesize(wv.Filesize, sp)
	case "range":
		if wv.Range == nil {
			return value.RangeVal(value.Range{}, sp)
		}
		return value.RangeVal(value.Range{
			Start: wv.Range.Start, End: wv.Range.End, Step: wv.Range.Step,
			Inclusive: wv.Range.Inclusive, HasEnd: wv.Range.HasEnd,
			FloatValued: wv.Range.FloatValued,
			FStart: wv.Range.FStart, FEnd: wv.Range.FEnd, FStep: wv.Range.FStep,
		}, sp)
	case "cell-path":
		members := make([]value.PathMember, 0, len(wv.Path))
		for _, m := range wv.Path {
			members = append(members, value.PathMember{IsString: m.IsString, String: m.String, Int: m.Int, Optional: m.Optional})
		}
		return value.CellPath(members, sp)
	case "list":
		items := make([]value.Value, 0, len(wv.List))
		for _, item := range wv.List {
			items = append(items, FromWire(item, sp))
		}
		return value.List(items, sp)
	case "record":
		rec := value.NewRecord()
		if wv.Record != nil {
			for i, k := range wv.Record.Keys {
				rec.Set(k, FromWire(wv.Record.Values[i], sp))
			}
		}
		return value.RecordVal(rec, sp)
	case "closure":
		clos := &value.Closure{}
		if wv.Closure != nil {
			clos.BlockID = wv.Closure.BlockID
			clos.Captures = make(map[int]value.Value, len(wv.Closure.Captures))
			for idStr, cv := range wv.Closure.Captures {
				id, _ := strconv.Atoi(idStr)
				clos.Captures[id] = FromWire(cv, sp)
			}
		}
		return value.ClosureVal(clos, sp)
	case "error":
		if wv.Error != nil {
			return value.Error(&value.ShellErrorValue{Code: wv.Error.Code, Headline: wv.Error.Headline, Help: wv.Error.Help}, sp)
		}
		return value.Error(&value.ShellErrorValue{}, sp)
	case "custom":
		if wv.Custom != nil {
			return value.Custom(value.NewPluginCustomHandle(wv.Custom.TypeName, wv.Custom.Opaque, wv.Custom.NotifyOnDrop, wv.Custom.SourcePlugin, nil), sp)
		}
		return value.Nothing(sp)
	default:
		return value.Nothing(sp)
	}
}
