package http2

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/h2kit/h2codec/hpack"
	"github.com/h2kit/h2codec/http11"
)

type connState int

const (
	stateHandshake connState = iota
	stateH2
)

// Connection drives one HTTP/2 connection end to end: handshake
// (prior-knowledge preface or h2c upgrade), SETTINGS negotiation, the
// frame-read dispatch loop, and the per-stream goroutine fan-out.
type Connection struct {
	net.Conn

	bufreader *bufio.Reader
	framer    *Framer

	state connState

	localSettings  *ConnectionSettings
	remoteSettings *ConnectionSettings

	hpackDecoder *hpack.Decoder
	hpackEncoder *hpack.Encoder

	connRecvFlow *recvFlowController
	connSendFlow *sendFlowController

	priorities *priorityTree

	mu             sync.Mutex
	streamHandlers map[uint32]chan Frame
	streams        map[uint32]*Stream
	highestStream  uint32
	lastPeerStream uint32
	goaway         bool

	assembling *headerBlockAssembler

	wg             sync.WaitGroup
	outgoingFrames chan StreamEvent

	Listener Listener
	Handler  HandlerFunc

	Logf func(format string, args ...interface{})
}

func (c *Connection) logf(format string, args ...interface{}) {
	if c.Logf != nil {
		c.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Handle runs the connection to completion: the handshake, then the
// frame dispatch loop, closing the underlying transport on return.
func (c *Connection) Handle() {
	defer c.Close()
	c.bufreader = bufio.NewReader(c)
	c.streamHandlers = map[uint32]chan Frame{}
	c.streams = map[uint32]*Stream{}
	c.priorities = newPriorityTree()
	if c.Listener == nil {
		c.Listener = BaseListener{}
	}

	for {
		switch c.state {
		case stateHandshake:
			if err := c.handleHandshake(); err != nil {
				c.logf("http2: handshake: %v", err)
				return
			}
			c.state = stateH2
		case stateH2:
			if err := c.handleH2(); err != nil {
				c.logf("http2: connection ended: %v", err)
			}
			return
		}
	}
}

func (c *Connection) handleHandshake() error {
	if c.localSettings == nil {
		c.localSettings = NewSettings()
	}
	if c.remoteSettings == nil {
		c.remoteSettings = NewSettings()
	}

	c.connRecvFlow = newRecvFlowController(c.localSettings.InitialWindowSize, c.localSettings.WindowUpdateRatio)
	c.connSendFlow = newSendFlowController(c.remoteSettings.InitialWindowSize)
	c.hpackDecoder = hpack.NewDecoder(uint32(c.localSettings.HeaderTableSize))
	c.hpackEncoder = hpack.NewEncoder(c.remoteSettings.HeaderTableSize)
	c.framer = newFramer(c, c.remoteSettings.MaxFrameSize)

	h1 := &http11.HTTP11Request{}
	if err := h1.UnmarshalReader(c.bufreader); err != nil {
		return err
	}

	if h1.Method == "PRI" {
		// Prior-knowledge connection: the preface magic after "PRI * ..."
		// has already been consumed by http11's parser; reply with our
		// initial SETTINGS and continue straight into the h2 loop.
		return c.sendInitialSettings()
	}

	if h1.Headers["upgrade"] != "h2c" {
		return fmt.Errorf("http2: expected h2c upgrade, got upgrade=%q", h1.Headers["upgrade"])
	}

	settingsHeader, ok := h1.Headers["http2-settings"]
	if !ok {
		return fmt.Errorf("http2: h2c upgrade missing HTTP2-Settings header")
	}

	settingsPayload, err := base64.RawURLEncoding.DecodeString(settingsHeader)
	if err != nil {
		return fmt.Errorf("http2: decoding HTTP2-Settings: %w", err)
	}

	args, err := decodeSettingsPayload(settingsPayload)
	if err != nil {
		return err
	}
	if err := c.remoteSettings.DecodePayload(args); err != nil {
		return err
	}

	resp := http11.HTTP11Request{
		Method:   "HTTP/1.1",
		Path:     "101",
		Protocol: "Switching Protocols",
		Headers: map[string]string{
			"Connection": "Upgrade",
			"Upgrade":    "h2c",
		},
	}
	if _, err := c.Write(resp.Marshal()); err != nil {
		return err
	}

	if err := c.sendInitialSettings(); err != nil {
		return err
	}

	return readClientPreface(c.bufreader)
}

// decodeSettingsPayload parses a raw SETTINGS frame body (used for the
// base64url-encoded HTTP2-Settings upgrade header, which carries the same
// wire format without a frame header).
func decodeSettingsPayload(bs []byte) ([]SettingFrameArgs, error) {
	if len(bs)%6 != 0 {
		return nil, connError(ErrCodeProtocol, "malformed HTTP2-Settings payload")
	}
	args := make([]SettingFrameArgs, 0, len(bs)/6)
	for len(bs) >= 6 {
		args = append(args, SettingFrameArgs{
			Param: SettingsParam(uint16(bs[0])<<8 | uint16(bs[1])),
			Value: uint32(bs[2])<<24 | uint32(bs[3])<<16 | uint32(bs[4])<<8 | uint32(bs[5]),
		})
		bs = bs[6:]
	}
	return args, nil
}

func (c *Connection) sendInitialSettings() error {
	set := &SettingsFrame{Args: c.localSettings.settingsArgs()}
	bs, err := set.Encode()
	if err != nil {
		return err
	}
	_, err = c.Write(bs)
	return err
}

func (c *Connection) handleH2() error {
	c.outgoingFrames = make(chan StreamEvent, 16)
	go c.handleOutgoingEvents()
	defer close(c.outgoingFrames)

	for {
		frame, err := ParseFrame(c.bufreader, c.localSettings.MaxFrameSize)
		if err != nil {
			return c.terminateOnError(err)
		}

		if err := c.dispatch(frame); err != nil {
			if err == ignoreFrame {
				continue
			}
			if serr, ok := err.(*StreamError); ok {
				c.resetStream(serr)
				continue
			}
			return c.terminateOnError(err)
		}
	}
}

func (c *Connection) terminateOnError(err error) error {
	if cerr, ok := err.(*ConnectionError); ok {
		goaway := &GoAwayFrame{LastStreamID: c.lastPeerStream, ErrorCode: cerr.Code}
		if bs, encErr := goaway.Encode(); encErr == nil {
			c.Write(bs)
		}
	}
	return err
}

// resetStream handles a *StreamError returned from dispatch: it isolates
// the one offending stream with RST_STREAM instead of tearing down the
// whole connection (RFC 7540 §5.4.2). The stream may not exist yet (e.g. a
// REFUSED_STREAM past MAX_CONCURRENT_STREAMS, or a validation failure on a
// HEADERS block that never made it to getOrCreateStream), in which case
// only the RST_STREAM is sent.
func (c *Connection) resetStream(se *StreamError) {
	c.outgoingFrames <- StreamOutgoingFrameEvent{
		StreamID: se.StreamID,
		Frame: &RSTStreamFrame{
			Framed:    Framed{Header: FrameHeader{StreamID: se.StreamID}},
			ErrorCode: se.Code,
		},
	}
	c.mu.Lock()
	s, ok := c.streams[se.StreamID]
	c.mu.Unlock()
	if ok {
		s.forceClose()
	}
}

func (c *Connection) dispatch(frame Frame) error {
	hdr := frame.Header()

	if c.assembling != nil {
		cf, ok := frame.(*ContinuationFrame)
		if !ok {
			return connError(ErrCodeProtocol, "expected CONTINUATION, got %s", hdr.Type)
		}
		if err := c.assembling.addContinuation(hdr.StreamID, cf.BlockFragment, cf.EndHeaders); err != nil {
			return err
		}
		if c.assembling.done {
			return c.finishHeaderBlock()
		}
		return nil
	}

	switch fr := frame.(type) {
	case *HeadersFrame:
		if hdr.StreamID > c.lastPeerStream {
			c.lastPeerStream = hdr.StreamID
		}
		c.assembling = startHeaderBlock(hdr.StreamID, fr.BlockFragment, fr.EndHeaders, fr.EndStream)
		if fr.Priority {
			c.priorities.reprioritize(hdr.StreamID, fr.StreamDependency, fr.Weight, fr.ExclusiveStreamDep)
		}
		if c.assembling.done {
			return c.finishHeaderBlock()
		}
		return nil

	case *PushPromiseFrame:
		if !c.localSettings.EnablePush {
			return connError(ErrCodeProtocol, "PUSH_PROMISE received with push disabled")
		}
		if hdr.StreamID > c.lastPeerStream {
			c.lastPeerStream = hdr.StreamID
		}
		c.assembling = startPushPromiseBlock(hdr.StreamID, fr.PromisedID, fr.BlockFragment, fr.EndHeaders)
		if c.assembling.done {
			return c.finishHeaderBlock()
		}
		return nil

	case *DataFrame:
		if hdr.StreamID == 0 {
			return connError(ErrCodeProtocol, "DATA frame received on stream 0")
		}
		n := len(fr.Data) + int(fr.PadLength)
		if err := c.connRecvFlow.dataReceived(n); err != nil {
			return wrapConnError(ErrCodeFlowControl, err)
		}
		if increment := c.connRecvFlow.release(n); increment > 0 {
			wu := &WindowUpdateFrame{Framed: Framed{Header: FrameHeader{StreamID: 0}}, SizeIncrement: increment}
			if bs, encErr := wu.Encode(); encErr == nil {
				c.Write(bs)
			}
		}
		c.routeToStream(hdr.StreamID, frame)
		return nil

	case *PriorityFrame:
		c.priorities.reprioritize(hdr.StreamID, fr.StreamDependency, fr.Weight, fr.ExclusiveStreamDep)
		c.Listener.onPriorityRead(hdr.StreamID, fr.StreamDependency, fr.Weight, fr.ExclusiveStreamDep)
		return nil

	case *SettingsFrame:
		return c.handleSettings(fr)

	case *WindowUpdateFrame:
		return c.handleWindowUpdate(fr)

	case *PingFrame:
		return c.handlePing(fr)

	case *GoAwayFrame:
		// RFC 7540 §6.8 / spec: record last-stream-id and error, stop
		// accepting new remote streams, but let streams already open run
		// to completion instead of tearing the connection down here.
		c.mu.Lock()
		c.goaway = true
		c.mu.Unlock()
		c.Listener.onGoAwayRead(fr.LastStreamID, fr.ErrorCode, fr.Opaque)
		return nil

	case *RSTStreamFrame:
		c.Listener.onRstStreamRead(hdr.StreamID, fr.ErrorCode)

	case *UnknownFrame:
		c.Listener.onUnknownFrame(fr)
		return nil
	}

	if hdr.StreamID > 0 {
		c.routeToStream(hdr.StreamID, frame)
	}
	return nil
}

func (c *Connection) finishHeaderBlock() error {
	a := c.assembling
	c.assembling = nil

	c.hpackDecoder.SetMaxHeaderListSize(c.effectiveMaxHeaderListSize())
	fields, err := c.hpackDecoder.DecodeBlock(a.buf)
	if err != nil {
		switch err.(type) {
		case *hpack.ValidationError:
			return streamError(a.streamID, ErrCodeProtocol, "%v", err)
		default:
			return wrapConnError(ErrCodeCompression, err)
		}
	}

	hdrs := make([]Header, 0, len(fields))
	for _, f := range fields {
		hdrs = append(hdrs, Header{Name: f.Name, Value: f.Value})
	}

	if a.pushPromise {
		c.Listener.onPushPromiseRead(a.streamID, a.promisedID, hdrs)
		return nil
	}

	stream, err := c.getOrCreateStream(a.streamID)
	if err != nil {
		return err
	}
	if stream == nil {
		return streamError(a.streamID, ErrCodeRefusedStream, "MAX_CONCURRENT_STREAMS exceeded")
	}

	c.Listener.onHeadersRead(a.streamID, hdrs, a.endStream)

	c.mu.Lock()
	ch, ok := c.streamHandlers[a.streamID]
	c.mu.Unlock()
	if ok {
		ch <- &HeadersFrame{
			Framed:     Framed{Header: FrameHeader{StreamID: a.streamID}},
			EndStream:  a.endStream,
			EndHeaders: true,
			Headers:    fields,
		}
	}
	return nil
}

func (c *Connection) effectiveMaxHeaderListSize() uint32 {
	if c.localSettings.MaxHeaderListSize != nil {
		return *c.localSettings.MaxHeaderListSize
	}
	return 1 << 30
}

func (c *Connection) handleSettings(fr *SettingsFrame) error {
	if fr.Ack {
		c.Listener.onSettingsAckRead()
		return nil
	}

	prevInitialWindow := c.remoteSettings.InitialWindowSize
	if err := c.remoteSettings.DecodePayload(fr.Args); err != nil {
		return err
	}
	if c.remoteSettings.InitialWindowSize != prevInitialWindow {
		delta := int64(c.remoteSettings.InitialWindowSize) - int64(prevInitialWindow)
		var errs StreamErrorList
		c.mu.Lock()
		for id, s := range c.streams {
			if err := s.sendFlow.increment(delta); err != nil {
				errs.add(id, ErrCodeFlowControl, err)
			}
		}
		c.mu.Unlock()
		if err := errs.err(); err != nil {
			return wrapConnError(ErrCodeFlowControl, err)
		}
	}
	c.framer.setMaxFrameSize(c.remoteSettings.MaxFrameSize)
	c.hpackEncoder.SetMaxDynamicTableSize(c.remoteSettings.HeaderTableSize)

	c.Listener.onSettingsRead(c.remoteSettings)

	ack := &SettingsFrame{Ack: true}
	bs, err := ack.Encode()
	if err != nil {
		return err
	}
	_, err = c.Write(bs)
	return err
}

func (c *Connection) handleWindowUpdate(fr *WindowUpdateFrame) error {
	hdr := fr.Header()
	c.Listener.onWindowUpdateRead(hdr.StreamID, fr.SizeIncrement)

	if hdr.StreamID == 0 {
		if fr.SizeIncrement == 0 {
			return connError(ErrCodeProtocol, "WINDOW_UPDATE with zero increment on connection")
		}
		if err := c.connSendFlow.increment(int64(fr.SizeIncrement)); err != nil {
			return wrapConnError(ErrCodeFlowControl, err)
		}
		return nil
	}

	if fr.SizeIncrement == 0 {
		return streamError(hdr.StreamID, ErrCodeProtocol, "WINDOW_UPDATE with zero increment on stream %d", hdr.StreamID)
	}

	c.mu.Lock()
	s, ok := c.streams[hdr.StreamID]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	if err := s.sendFlow.increment(int64(fr.SizeIncrement)); err != nil {
		return wrapStreamError(hdr.StreamID, ErrCodeFlowControl, err)
	}
	return nil
}

func (c *Connection) handlePing(fr *PingFrame) error {
	if fr.Ack {
		var opaque [8]byte
		copy(opaque[:], fr.Opaque)
		c.Listener.onPingAckRead(opaque)
		return nil
	}
	var opaque [8]byte
	copy(opaque[:], fr.Opaque)
	c.Listener.onPingRead(opaque)

	reply := &PingFrame{Ack: true, Opaque: fr.Opaque}
	bs, err := reply.Encode()
	if err != nil {
		return err
	}
	_, err = c.Write(bs)
	return err
}

func (c *Connection) handleOutgoingEvents() {
	for ev := range c.outgoingFrames {
		switch e := ev.(type) {
		case StreamOutgoingFrameEvent:
			c.writeStreamFrame(e.Frame)
		case StreamTransitionEvent:
			if e.ToState == StreamClosed {
				c.retireStream(e.StreamID)
			}
		}
	}
}

func (c *Connection) writeStreamFrame(frame Frame) {
	if hf, ok := frame.(*HeadersFrame); ok {
		payload := c.hpackEncoder.EncodeFields(hf.Headers)
		if err := c.framer.writeHeaders(hf.Framed.Header.StreamID, payload, hf.EndStream); err != nil {
			c.logf("http2: writing headers: %v", err)
		}
		return
	}
	if df, ok := frame.(*DataFrame); ok {
		c.writeDataFlowControlled(df)
		return
	}

	bs, err := frame.Encode()
	if err != nil {
		c.logf("http2: encoding frame: %v", err)
		return
	}
	if _, err := c.Write(bs); err != nil {
		c.logf("http2: writing frame: %v", err)
	}
}

// writeDataFlowControlled admits a DATA payload onto the wire only as fast
// as both the stream's and the connection's remote flow-control windows
// allow (RFC 7540 §6.9: "the sender MUST NOT send a flow-controlled frame
// with a length that exceeds the space available in either of the flow
// control windows advertised by the receiver"). Each reservation blocks
// until window opens up (or the scope closes), so a stalled peer parks the
// write here rather than the frame going out unconditionally.
func (c *Connection) writeDataFlowControlled(df *DataFrame) {
	streamID := df.Framed.Header.StreamID
	c.mu.Lock()
	s, ok := c.streams[streamID]
	c.mu.Unlock()
	if !ok {
		return
	}

	data := df.Data
	if len(data) == 0 {
		if err := c.framer.writeData(streamID, nil, df.EndStream); err != nil {
			c.logf("http2: writing data: %v", err)
		}
		return
	}

	for len(data) > 0 {
		connN, err := c.connSendFlow.reserve(len(data))
		if err != nil {
			c.logf("http2: connection flow control: %v", err)
			return
		}

		n, err := s.sendFlow.reserve(connN)
		if n < connN {
			c.connSendFlow.increment(int64(connN - n))
		}
		if err != nil {
			c.logf("http2: stream %d flow control: %v", streamID, err)
			return
		}

		chunk := data[:n]
		data = data[n:]
		if err := c.framer.writeData(streamID, chunk, df.EndStream && len(data) == 0); err != nil {
			c.logf("http2: writing data: %v", err)
			return
		}
	}
}

// getOrCreateStream returns the existing stream for id, or creates one if
// id is a legitimate new remote-initiated stream. Stream ids must be
// monotonically increasing and are never reused (RFC 7540 §5.1.1): an id
// at or below the highest one already seen is a connection-level protocol
// violation, not just a refused stream.
func (c *Connection) getOrCreateStream(id uint32) (*Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.streams[id]; ok {
		return s, nil
	}
	if id <= c.highestStream {
		return nil, connError(ErrCodeProtocol, "stream id %d reused or received out of order (highest seen %d)", id, c.highestStream)
	}
	c.highestStream = id

	if c.goaway {
		return nil, nil
	}
	if uint32(len(c.streams)) >= c.localSettings.MaxConcurrentStreams {
		return nil, nil
	}

	s, ch := newStream(c, id, c.outgoingFrames, c.Handler, &c.wg)
	c.streams[id] = s
	c.streamHandlers[id] = ch
	return s, nil
}

func (c *Connection) routeToStream(id uint32, frame Frame) {
	c.mu.Lock()
	ch, ok := c.streamHandlers[id]
	c.mu.Unlock()
	if !ok {
		return
	}
	ch <- frame
}

func (c *Connection) retireStream(id uint32) {
	c.mu.Lock()
	delete(c.streams, id)
	ch, ok := c.streamHandlers[id]
	delete(c.streamHandlers, id)
	c.mu.Unlock()
	if ok {
		close(ch)
	}
	c.priorities.remove(id)
}
