// Package pluginhost implements the host side of the out-of-process Plugin
// Protocol (spec §4.11): spawning a plugin binary, performing the Hello
// handshake, dispatching Call/CallResponse pairs with a reader goroutine
// demultiplexing by call id, answering EngineCall callbacks, and streaming
// response data with Ack/Drop backpressure.
//
// Grounded in the ainvaltin-nu-plugin reference file
// (other_examples/8b2ce1bf_ainvaltin-nu-plugin__response.go.go) for the
// call/response/stream shape, and in the teacher's
// internal/plugin/registry_new.go for the "spawn, track in-flight calls,
// tear down cleanly" lifecycle discipline (commandsInFlight there maps to
// Client.pending here).
package pluginhost

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
	"github.com/glint-shell/glint/internal/pluginproto"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// ProtocolVersion is the host's own version string, exchanged during Hello.
// Semver-compatible means major matches (0.x treats minor as major, spec
// §4.11 step 2).
const ProtocolVersion = "0.1.0"

// EngineCallHandler answers a plugin's mid-call callback (spec §4.11
// "Engine callbacks"). cmd/glint supplies the concrete implementation
// backed by Engine State / the environment / the evaluator.
type EngineCallHandler interface {
	HandleEngineCall(ctx context.Context, call pluginproto.EngineCall) pluginproto.EngineCallResponse
}

// Client is a live connection to one spawned plugin process.
type Client struct {
	identity string
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	writer   *pluginproto.FrameWriter
	reader   *pluginproto.FrameReader
	stdout   io.Reader
	codec    pluginproto.Codec
	handler  EngineCallHandler
	logger   *log.Logger

	writeMu sync.Mutex

	nextCallID   atomic.Int64
	nextStreamID atomic.Int64

	pendingMu sync.Mutex
	pending   map[int]chan pluginproto.CallResponse
	streams   map[int]chan pluginproto.Data

	closeOnce sync.Once
	done      chan struct{}
	readErr   error
}

// Spawn starts path as a plugin subprocess and performs the Hello
// handshake (spec §4.11 steps 1-2). features is advertised to the plugin;
// if the plugin's own Features includes "msgpack" the client negotiates
// that codec, otherwise it falls back to JSON.
func Spawn(ctx context.Context, path string, features []string, handler EngineCallHandler, logger *log.Logger) (*Client, error) {
	cmd := exec.CommandContext(ctx, path, "--stdio")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, pkgerrors.NewPluginFailure("spawn_failed", fmt.Sprintf("plugin %s: %v", path, err), err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, pkgerrors.NewPluginFailure("spawn_failed", fmt.Sprintf("plugin %s: %v", path, err), err)
	}
	if err := cmd.Start(); err != nil {
		return nil, pkgerrors.NewPluginFailure("spawn_failed", fmt.Sprintf("plugin %s: %v", path, err), err)
	}

	c := &Client{
		identity: path,
		cmd:      cmd,
		stdin:    stdin,
		codec:    pluginproto.JSONCodec{},
		handler:  handler,
		logger:   logger,
		pending:  make(map[int]chan pluginproto.CallResponse),
		streams:  make(map[int]chan pluginproto.Data),
		done:     make(chan struct{}),
	}
	c.stdout = bufio.NewReader(stdout)
	c.writer = pluginproto.NewFrameWriter(stdin, c.codec)
	c.reader = pluginproto.NewFrameReader(c.stdout, c.codec)

	if err := c.handshake(features); err != nil {
		_ = c.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

func (c *Client) handshake(features []string) error {
	if err := c.writer.WriteEnvelope(pluginproto.Envelope{
		Type:  pluginproto.TypeHello,
		Hello: &pluginproto.Hello{Protocol: "NuPlugin", Version: ProtocolVersion, Features: features},
	}); err != nil {
		return pkgerrors.NewPluginFailure("handshake_write_failed", c.identity+": writing Hello", err)
	}
	env, err := c.reader.ReadEnvelope()
	if err != nil {
		return pkgerrors.NewPluginFailure("handshake_read_failed", c.identity+": reading Hello response", err)
	}
	if env.Type != pluginproto.TypeHello || env.Hello == nil {
		return pkgerrors.NewPluginFailure("handshake_protocol_error", c.identity+": expected Hello, got "+string(env.Type), nil)
	}
	if env.Hello.Protocol != "NuPlugin" {
		return pkgerrors.NewPluginFailure("handshake_protocol_error", c.identity+": unexpected protocol "+env.Hello.Protocol, nil)
	}
	if !semverCompatible(ProtocolVersion, env.Hello.Version) {
		return pkgerrors.NewPluginFailure("version_mismatch", fmt.Sprintf("%s: host %s incompatible with plugin %s", c.identity, ProtocolVersion, env.Hello.Version), nil)
	}
	for _, f := range env.Hello.Features {
		if f == "msgpack" {
			c.codec = pluginproto.MsgpackCodec{}
			c.writer = pluginproto.NewFrameWriter(c.stdin, c.codec)
			c.reader = pluginproto.NewFrameReader(c.stdout, c.codec)
		}
	}
	return nil
}

// semverCompatible implements spec §4.11's "Versions are semver-compatible
// if major matches (0.x treats minor as major)".
func semverCompatible(a, b string) bool {
	am, amin := majorMinor(a)
	bm, bmin := majorMinor(b)
	if am != bm {
		return false
	}
	if am == 0 {
		return amin == bmin
	}
	return true
}

func majorMinor(v string) (int, int) {
	parts := strings.SplitN(v, ".", 3)
	major, minor := 0, 0
	if len(parts) > 0 {
		major, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	return major, minor
}

// Call dispatches one plugin invocation and blocks for its response,
// implementing internal/command.PluginRunner (spec §4.11 "Call/CallResponse;
// calls are independent and may be interleaved by id" — interleaving is
// safe here because concurrent Call invocations each get their own pending
// channel keyed by a fresh id).
func (c *Client) Call(ctx context.Context, declName string, args map[string]value.Value, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	id := int(c.nextCallID.Add(1))
	respCh := make(chan pluginproto.CallResponse, 1)
	c.pendingMu.Lock()
	c.pending[id] = respCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	info, err := c.buildCallInfo(declName, args, input)
	if err != nil {
		return pipedata.Empty(), err
	}

	if err := c.send(pluginproto.Envelope{Type: pluginproto.TypeCall, Call: &pluginproto.Call{ID: id, Info: info}}); err != nil {
		return pipedata.Empty(), pkgerrors.NewPluginFailure("send_failed", c.identity+": sending Call", err)
	}

	select {
	case <-ctx.Done():
		c.interrupt(id)
		return pipedata.Empty(), pkgerrors.NewCancellation(source.Unknown)
	case <-c.done:
		return pipedata.Empty(), pkgerrors.NewPluginFailure("plugin_exited", c.identity+": plugin process exited mid-call", c.readErr)
	case resp := <-respCh:
		return c.resolveResponse(ctx, resp)
	}
}

func (c *Client) buildCallInfo(declName string, args map[string]value.Value, input pipedata.PipelineData) (pluginproto.CallInfo, error) {
	info := pluginproto.CallInfo{Name: declName, Named: make(map[string]pluginproto.WireValue)}
	positionalByIndex := make(map[int]value.Value)
	for key, v := range args {
		if idx, ok := strings.CutPrefix(key, "$"); ok {
			if n, err := strconv.Atoi(idx); err == nil {
				positionalByIndex[n] = v
				continue
			}
		}
		info.Named[key] = pluginproto.ToWire(v)
	}
	for i := 0; i < len(positionalByIndex); i++ {
		if v, ok := positionalByIndex[i]; ok {
			info.Positional = append(info.Positional, pluginproto.ToWire(v))
		}
	}

	wireInput, err := wireInputFromPipeline(input)
	if err != nil {
		return pluginproto.CallInfo{}, err
	}
	info.Input = wireInput
	return info, nil
}

// wireInputFromPipeline eagerly materializes stream input into a single
// Value. A fully lazy request-side stream (negotiated with its own
// Ack/Drop traffic flowing host-to-plugin) is not implemented; the
// response side (plugin-to-host) does get real streaming, which is the
// direction spec §8's scenarios exercise (a plugin producing a stream of
// rows). This is recorded as an open-question decision in DESIGN.md.
func wireInputFromPipeline(input pipedata.PipelineData) (*pluginproto.WireInput, error) {
	if v, ok := input.AsValue(); ok {
		if v.IsNothing() {
			return &pluginproto.WireInput{Kind: "empty"}, nil
		}
		wv := pluginproto.ToWire(v)
		return &pluginproto.WireInput{Kind: "value", Value: &wv}, nil
	}
	if ls, ok := input.AsListStream(); ok {
		items, err := ls.Collect()
		if err != nil {
			return nil, err
		}
		wv := pluginproto.ToWire(value.List(items, source.Unknown))
		return &pluginproto.WireInput{Kind: "value", Value: &wv}, nil
	}
	if bs, ok := input.AsByteStream(); ok {
		data, err := bs.ReadAllBinary()
		if err != nil {
			return nil, err
		}
		wv := pluginproto.ToWire(value.Binary(data, source.Unknown))
		return &pluginproto.WireInput{Kind: "value", Value: &wv}, nil
	}
	return &pluginproto.WireInput{Kind: "empty"}, nil
}

func (c *Client) resolveResponse(ctx context.Context, resp pluginproto.CallResponse) (pipedata.PipelineData, error) {
	if resp.Error != nil {
		return pipedata.Empty(), &pkgerrors.ShellError{
			Kind:     pkgerrors.Kind(resp.Error.Kind),
			Code:     resp.Error.Code,
			Headline: resp.Error.Headline,
			Help:     resp.Error.Help,
		}
	}
	if resp.Output == nil {
		return pipedata.Empty(), nil
	}
	switch resp.Output.Kind {
	case "empty":
		return pipedata.Empty(), nil
	case "value":
		if resp.Output.Value == nil {
			return pipedata.Empty(), nil
		}
		return pipedata.FromValue(pluginproto.FromWire(*resp.Output.Value, source.Unknown)), nil
	case "list_stream":
		return pipedata.FromListStream(c.consumeListStream(ctx, resp.Output.StreamID)), nil
	case "byte_stream":
		return pipedata.FromByteStream(c.consumeByteStream(ctx, resp.Output.StreamID)), nil
	default:
		return pipedata.Empty(), nil
	}
}

// registerStream wires a per-stream channel the read loop feeds, and sends
// an initial Ack requesting an effectively unbounded number of items — the
// client does not yet implement incremental credit-based windowing, only
// the wire-level Ack/Drop messages themselves.
func (c *Client) registerStream(streamID int) chan pluginproto.Data {
	ch := make(chan pluginproto.Data, 16)
	c.pendingMu.Lock()
	c.streams[streamID] = ch
	c.pendingMu.Unlock()
	_ = c.send(pluginproto.Envelope{Type: pluginproto.TypeAck, Ack: &pluginproto.Ack{StreamID: streamID, N: 1 << 30}})
	return ch
}

func (c *Client) consumeListStream(ctx context.Context, streamID int) pipedata.ListStream {
	ch := c.registerStream(streamID)
	return pipedata.NewListStream(ctx, func(ctx context.Context) (value.Value, bool, error) {
		select {
		case <-ctx.Done():
			_ = c.send(pluginproto.Envelope{Type: pluginproto.TypeDrop, Drop: &pluginproto.Drop{StreamID: streamID}})
			return value.Value{}, false, pkgerrors.NewCancellation(source.Unknown)
		case d, ok := <-ch:
			if !ok {
				return value.Value{}, false, nil
			}
			if d.Error != nil {
				return value.Value{}, false, &pkgerrors.ShellError{Kind: pkgerrors.KindPluginFailure, Code: d.Error.Code, Headline: d.Error.Headline}
			}
			if d.End {
				return value.Value{}, false, nil
			}
			if d.Value == nil {
				return value.Value{}, false, nil
			}
			return pluginproto.FromWire(*d.Value, source.Unknown), true, nil
		}
	})
}

// byteStreamPipe adapts the channel of Data frames into an io.ReadCloser
// the existing pipedata.ByteStream wraps.
type byteStreamPipe struct {
	ch     chan pluginproto.Data
	buf    []byte
	cancel func()
}

func (p *byteStreamPipe) Read(out []byte) (int, error) {
	for len(p.buf) == 0 {
		d, ok := <-p.ch
		if !ok {
			return 0, io.EOF
		}
		if d.Error != nil {
			return 0, fmt.Errorf("%s", d.Error.Headline)
		}
		if d.End {
			return 0, io.EOF
		}
		p.buf = d.Bytes
	}
	n := copy(out, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

func (p *byteStreamPipe) Close() error {
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

func (c *Client) consumeByteStream(ctx context.Context, streamID int) pipedata.ByteStream {
	ch := c.registerStream(streamID)
	cancel := func() {
		_ = c.send(pluginproto.Envelope{Type: pluginproto.TypeDrop, Drop: &pluginproto.Drop{StreamID: streamID}})
	}
	return pipedata.NewByteStream(&byteStreamPipe{ch: ch, cancel: cancel})
}

func (c *Client) interrupt(callID int) {
	_ = c.send(pluginproto.Envelope{Type: pluginproto.TypeSignal, Signal: &pluginproto.Signal{Kind: "interrupt", CallID: callID}})
}

func (c *Client) send(env pluginproto.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writer.WriteEnvelope(env)
}

// readLoop demultiplexes incoming envelopes by call id / stream id (spec
// §5 "a reader thread demultiplexing responses by call id onto per-call
// channels").
func (c *Client) readLoop() {
	defer close(c.done)
	for {
		env, err := c.reader.ReadEnvelope()
		if err != nil {
			c.readErr = err
			c.failAllPending(err)
			return
		}
		switch env.Type {
		case pluginproto.TypeCallResponse:
			if env.CallResponse == nil {
				continue
			}
			c.pendingMu.Lock()
			ch, ok := c.pending[env.CallResponse.ID]
			c.pendingMu.Unlock()
			if ok {
				ch <- *env.CallResponse
			}
		case pluginproto.TypeStream:
			if env.Stream == nil {
				continue
			}
			c.pendingMu.Lock()
			ch, ok := c.streams[env.Stream.StreamID]
			c.pendingMu.Unlock()
			if !ok {
				continue
			}
			ch <- *env.Stream
			if env.Stream.End || env.Stream.Error != nil {
				c.pendingMu.Lock()
				delete(c.streams, env.Stream.StreamID)
				c.pendingMu.Unlock()
				close(ch)
			}
		case pluginproto.TypeEngineCall:
			if env.EngineCall == nil || c.handler == nil {
				continue
			}
			go func(ec pluginproto.EngineCall) {
				resp := c.handler.HandleEngineCall(context.Background(), ec)
				_ = c.send(pluginproto.Envelope{Type: pluginproto.TypeEngineCallResponse, EngineCallResponse: &resp})
			}(*env.EngineCall)
		case pluginproto.TypeGoodbye:
			c.failAllPending(pkgerrors.NewPluginFailure("goodbye", c.identity+": plugin said goodbye", nil))
			return
		default:
			if c.logger != nil {
				c.logger.Debug("pluginhost: unhandled envelope", "type", env.Type)
			}
		}
	}
}

func (c *Client) failAllPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		ch <- pluginproto.CallResponse{ID: id, Error: &pluginproto.WireError{
			Kind: string(pkgerrors.KindPluginFailure), Code: "glint::plugin::connection_lost", Headline: err.Error(),
		}}
	}
	for _, ch := range c.streams {
		close(ch)
	}
	c.streams = make(map[int]chan pluginproto.Data)
}

// Close sends Goodbye and releases the subprocess (spec §4.11 step 4).
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		_ = c.send(pluginproto.Envelope{Type: pluginproto.TypeGoodbye, Goodbye: &pluginproto.Goodbye{Reason: "host shutdown"}})
		err = c.stdin.Close()
		if c.cmd.Process != nil {
			_ = c.cmd.Wait()
		}
	})
	return err
}

// Identity returns the path/identity the client was spawned with, used to
// key internal/registry entries and the `plugin list` builtin.
func (c *Client) Identity() string { return c.identity }
