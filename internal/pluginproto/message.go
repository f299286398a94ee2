// Package pluginproto implements the wire types and framing of the
// out-of-process Plugin Protocol (spec §4.11, §6.3): a length-prefixed
// stream of tagged messages exchanged between the host (internal/pluginhost)
// and a plugin subprocess, negotiated at Hello to carry either JSON or
// MessagePack payloads.
//
// Grounded in the ainvaltin-nu-plugin reference file
// (other_examples/8b2ce1bf_ainvaltin-nu-plugin__response.go.go), which
// shows the same Call/CallResponse/pipelineData/stream-Ack-Drop shape this
// package generalizes into standalone wire structs decoupled from any one
// plugin SDK's execution model.
package pluginproto

// MsgType tags the top-level message (spec §6.3 "Top-level message is a
// tagged record with { type: <tag>, ... }").
type MsgType string

const (
	TypeHello              MsgType = "Hello"
	TypeCall               MsgType = "Call"
	TypeCallResponse       MsgType = "CallResponse"
	TypeEngineCall         MsgType = "EngineCall"
	TypeEngineCallResponse MsgType = "EngineCallResponse"
	TypeStream             MsgType = "Stream"
	TypeAck                MsgType = "Ack"
	TypeDrop               MsgType = "Drop"
	TypeSignal             MsgType = "Signal"
	TypeGoodbye            MsgType = "Goodbye"
)

// Hello is exchanged immediately after the plugin process is spawned (spec
// §4.11 step 1-2). Versions are semver-compatible if Major matches (0.x
// treats Minor as major, per spec).
type Hello struct {
	Protocol string   `json:"protocol"`
	Version  string   `json:"version"`
	Features []string `json:"features,omitempty"`
}

// CallInfo is the payload of a Call message: a declaration invocation
// (spec §4.11 "Call payload").
type CallInfo struct {
	Name       string               `json:"name"`
	Positional []WireValue          `json:"positional,omitempty"`
	Named      map[string]WireValue `json:"named,omitempty"`
	Input      *WireInput           `json:"input,omitempty"`
	HeadSpan   WireSpan             `json:"head_span"`
	Config     map[string]WireValue `json:"config,omitempty"`
}

// WireSpan is the over-the-wire representation of source.Span (spec §4.2);
// kept separate from source.Span itself so this package never imports the
// host's in-process span allocator.
type WireSpan struct {
	FileID int `json:"file_id"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

// WireInput tags a Call's input as one of the four Pipeline Data shapes
// (spec §4.11 "input (Empty / Value / stream handle)").
type WireInput struct {
	Kind     string     `json:"kind"` // "empty", "value", "list_stream", "byte_stream"
	Value    *WireValue `json:"value,omitempty"`
	StreamID int        `json:"stream_id,omitempty"`
	Binary   bool       `json:"binary,omitempty"` // byte_stream only
}

// Call requests a declaration invocation. Calls are independent and may be
// interleaved by ID (spec §4.11 step 3).
type Call struct {
	ID   int      `json:"id"`
	Info CallInfo `json:"info"`
}

// CallResponse answers a Call with either a PipelineData shape or a
// labeled error (spec §4.11 "Response").
type CallResponse struct {
	ID     int        `json:"id"`
	Output *WireInput `json:"output,omitempty"`
	Error  *WireError `json:"error,omitempty"`
}

// WireError is the over-the-wire rendering of a ShellError, decoupled from
// pkg/errors so a plugin binary need not depend on the host's error taxonomy.
type WireError struct {
	Kind     string `json:"kind"`
	Code     string `json:"code"`
	Headline string `json:"headline"`
	Help     string `json:"help,omitempty"`
}

// EngineCallKind enumerates the callback kinds a plugin may issue back to
// the host mid-call (spec §4.11 "Engine callbacks").
type EngineCallKind string

const (
	EngineCallGetConfig     EngineCallKind = "GetConfig"
	EngineCallGetEnvVar     EngineCallKind = "GetEnvVar"
	EngineCallGetCurrentDir EngineCallKind = "GetCurrentDir"
	EngineCallEvalClosure   EngineCallKind = "EvalClosure"
	EngineCallAddEnvVar     EngineCallKind = "AddEnvVar"
	EngineCallGetHelp       EngineCallKind = "GetHelp"
	EngineCallRegisterCtrlC EngineCallKind = "RegisterCtrlC"
)

// EngineCall is a plugin-to-host callback issued during an in-flight Call
// (spec §4.11 "Engine callbacks").
type EngineCall struct {
	ID       int            `json:"id"`
	CallID   int            `json:"call_id"`
	Kind     EngineCallKind `json:"kind"`
	Name     string         `json:"name,omitempty"`      // GetEnvVar
	Closure  *WireValue     `json:"closure,omitempty"`   // EvalClosure: closure rendered as a WireValue
	Input    *WireInput     `json:"input,omitempty"`     // EvalClosure
	EnvKey   string         `json:"env_key,omitempty"`   // AddEnvVar
	EnvValue *WireValue     `json:"env_value,omitempty"` // AddEnvVar
}

// EngineCallResponse answers an EngineCall.
type EngineCallResponse struct {
	ID     int        `json:"id"`
	Value  *WireValue `json:"value,omitempty"`
	Output *WireInput `json:"output,omitempty"` // EvalClosure
	Error  *WireError `json:"error,omitempty"`
}

// Data carries one stream item or a stream-ending error (spec §4.11
// "stream items arrive in the order produced").
type Data struct {
	StreamID int        `json:"stream_id"`
	Value    *WireValue `json:"value,omitempty"`
	Bytes    []byte     `json:"bytes,omitempty"`
	End      bool       `json:"end,omitempty"`
	Error    *WireError `json:"error,omitempty"`
}

// Ack requests N more stream items (backpressure, spec §4.11 "Ack(stream_id, n)").
type Ack struct {
	StreamID int `json:"stream_id"`
	N        int `json:"n"`
}

// Drop cancels a stream (spec §4.11).
type Drop struct {
	StreamID int `json:"stream_id"`
}

// Signal carries an out-of-band Interrupt(call_id) (spec §4.11 "An
// Interrupt(call_id) message cancels an in-flight call").
type Signal struct {
	Kind   string `json:"kind"` // "interrupt"
	CallID int    `json:"call_id,omitempty"`
}

// Goodbye is a clean-shutdown notice either side may send (spec §4.11
// step 4).
type Goodbye struct {
	Reason string `json:"reason,omitempty"`
}

// Envelope is the tagged union actually written to the wire: exactly one
// of the typed fields is non-nil, selected by Type.
type Envelope struct {
	Type               MsgType              `json:"type"`
	Hello              *Hello               `json:"Hello,omitempty"`
	Call               *Call                `json:"Call,omitempty"`
	CallResponse       *CallResponse        `json:"CallResponse,omitempty"`
	EngineCall         *EngineCall          `json:"EngineCall,omitempty"`
	EngineCallResponse *EngineCallResponse  `json:"EngineCallResponse,omitempty"`
	Stream             *Data                `json:"Stream,omitempty"`
	Ack                *Ack                 `json:"Ack,omitempty"`
	Drop               *Drop                `json:"Drop,omitempty"`
	Signal             *Signal              `json:"Signal,omitempty"`
	Goodbye            *Goodbye             `json:"Goodbye,omitempty"`
}
