package http2

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/h2kit/h2codec/hpack"
)

/*
                            +--------+
                    send PP |        | recv PP
                   ,--------|  idle  |--------.
                  /         |        |         \
                 v          +--------+          v
          +----------+          |           +----------+
          |          |          | send H /  |          |
   ,------| reserved |          | recv H    | reserved |------.
   |      | (local)  |          |           | (remote) |      |
   |      +----------+          v           +----------+      |
   |          |             +--------+             |          |
   |          |     recv ES |        | send ES     |          |
   |   send H |     ,-------|  open  |-------.     | recv H   |
   |          |    /        |        |        \    |          |
   |          v   v         +--------+         v   v          |
   |      +----------+          |           +----------+      |
   |      |   half   |          |           |   half   |      |
   |      |  closed  |          | send R /  |  closed  |      |
   |      | (remote) |          | recv R    | (local)  |      |
   |      +----------+          |           +----------+      |
   |           |                |                 |           |
   |           | send ES /      |       recv ES / |           |
   |           | send R /       v        send R / |           |
   |           | recv R     +--------+   recv R   |           |
   | send R /  `----------->|        |<-----------'  send R / |
   | recv R                 | closed |               recv R   |
   `----------------------->|        |<----------------------'
                            +--------+
*/

type StreamState int32

const (
	StreamIdle StreamState = iota
	StreamReservedLocal
	StreamReservedRemote
	StreamOpen
	StreamHalfClosedLocal
	StreamHalfClosedRemote
	StreamClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamReservedLocal:
		return "reserved (local)"
	case StreamReservedRemote:
		return "reserved (remote)"
	case StreamOpen:
		return "open"
	case StreamHalfClosedLocal:
		return "half closed (local)"
	case StreamHalfClosedRemote:
		return "half closed (remote)"
	case StreamClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// transition computes the next state for a frame of frameType moving in
// direction recv (true) or send (false), per the table in RFC 7540 §5.1.
// ok is false when the transition is illegal from this state.
func (from StreamState) transition(recv bool, frameType FrameType, endStream bool) (to StreamState, ok bool) {
	to = from
	if recv {
		switch from {
		case StreamIdle:
			switch frameType {
			case FrameHeaders:
				to = StreamOpen
			case FramePriority:
			case FramePushPromise:
				to = StreamReservedRemote
			default:
				return
			}
		case StreamReservedLocal, StreamHalfClosedRemote:
			switch frameType {
			case FramePriority, FrameWindowUpdate:
			case FrameRSTStream:
				to = StreamClosed
			default:
				return
			}
		case StreamReservedRemote:
			switch frameType {
			case FrameHeaders:
				to = StreamHalfClosedLocal
			case FramePriority:
			case FrameRSTStream:
				to = StreamClosed
			default:
				return
			}
		case StreamOpen, StreamHalfClosedLocal:
			switch frameType {
			case FrameRSTStream:
				to = StreamClosed
			}
		case StreamClosed:
			switch frameType {
			case FramePriority:
			default:
				return
			}
		}
	} else {
		switch from {
		case StreamIdle:
			switch frameType {
			case FrameHeaders:
				to = StreamOpen
			case FramePriority:
			case FramePushPromise:
				to = StreamReservedLocal
			default:
				return
			}
		case StreamReservedLocal:
			switch frameType {
			case FrameHeaders:
				to = StreamHalfClosedRemote
			case FramePriority:
			case FrameRSTStream:
				to = StreamClosed
			default:
				return
			}
		case StreamReservedRemote, StreamHalfClosedLocal:
			switch frameType {
			case FramePriority, FrameWindowUpdate:
			case FrameRSTStream:
				to = StreamClosed
			default:
				return
			}
		case StreamOpen:
			switch frameType {
			case FrameRSTStream:
				to = StreamClosed
			}
		case StreamHalfClosedRemote:
			switch frameType {
			case FrameData, FrameHeaders, FramePriority:
			case FrameRSTStream:
				to = StreamClosed
			default:
				return
			}
		case StreamClosed:
			switch frameType {
			case FramePriority:
			default:
				return
			}
		}
	}

	ok = true
	if endStream {
		switch to {
		case StreamOpen:
			if recv {
				to = StreamHalfClosedRemote
			} else {
				to = StreamHalfClosedLocal
			}
		case StreamHalfClosedLocal, StreamHalfClosedRemote:
			to = StreamClosed
		}
	}
	return
}

type Request struct {
	Method    string
	Path      string
	Authority string
	Scheme    string

	Headers map[string]string

	Body io.Reader
}

type HandlerFunc func(http.ResponseWriter, Request)

// Stream is one HTTP/2 stream's state, flow-control accounting, and
// request/response plumbing. Each Stream runs its own goroutine reading
// from incomingQueue and the application handler's own goroutine once
// headers complete; outgoing frames and state transitions are reported
// back to the Connection over outgoingQueue.
type Stream struct {
	conn *Connection

	id uint32

	state int32 // StreamState, accessed atomically

	recvFlow *recvFlowController
	sendFlow *sendFlowController

	resetSent, resetReceived bool

	reqHeaders map[string]hpack.HeaderField
	properties map[string]any // opaque per-stream metadata set through SetProperty

	incomingQueue <-chan Frame
	outgoingQueue chan<- StreamEvent

	reqbuf *StreamReader
	resbuf *StreamWriter

	decomp         *decompressor
	compressedBody *bytes.Buffer

	handler     HandlerFunc
	handlerDone chan struct{}
	handlerDoer sync.Once
	handlerWg   sync.WaitGroup

	log func(msg string, args ...interface{})
}

type StreamEvent interface {
	streamID() uint32
}

type StreamTransitionEvent struct {
	ToState  StreamState
	StreamID uint32
}

func (s StreamTransitionEvent) streamID() uint32 { return s.StreamID }

type StreamOutgoingFrameEvent struct {
	Frame    Frame
	StreamID uint32
}

func (s StreamOutgoingFrameEvent) streamID() uint32 { return s.StreamID }

func newStream(conn *Connection, id uint32, outgoing chan<- StreamEvent, handler HandlerFunc, wg *sync.WaitGroup) (*Stream, chan Frame) {
	incomingQueue := make(chan Frame)
	settings := conn.localSettings
	s := &Stream{
		conn:          conn,
		id:            id,
		reqHeaders:    map[string]hpack.HeaderField{},
		properties:    map[string]any{},
		incomingQueue: incomingQueue,
		outgoingQueue: outgoing,
		reqbuf:        NewStreamReader(),
		recvFlow:      newRecvFlowController(settings.InitialWindowSize, settings.WindowUpdateRatio),
		sendFlow:      newSendFlowController(conn.remoteSettings.InitialWindowSize),
		handler:       handler,
		log: func(msg string, args ...interface{}) {
			conn.logf("[stream %02d]\t"+msg, append([]interface{}{id}, args...)...)
		},
		handlerDone: make(chan struct{}),
	}

	wg.Add(1)
	go func() {
		s.handleFrames()
		s.handlerWg.Wait()
		wg.Done()
	}()

	return s, incomingQueue
}

func (s *Stream) stateValue() StreamState {
	return StreamState(atomic.LoadInt32(&s.state))
}

// SetProperty attaches caller-defined metadata to the stream, keyed
// however the caller likes; it has no effect on protocol behavior.
func (s *Stream) SetProperty(key string, value any) { s.properties[key] = value }

// Property retrieves metadata previously set with SetProperty.
func (s *Stream) Property(key string) (any, bool) {
	v, ok := s.properties[key]
	return v, ok
}

// applyTransition advances the stream's state machine for a frame moving
// in direction recv, returning a *StreamError or *ConnectionError when
// the frame is illegal in the current state per RFC 7540 §5.1.
func (s *Stream) applyTransition(recv bool, frameType FrameType, endStream bool) error {
	for {
		from := s.stateValue()
		to, ok := from.transition(recv, frameType, endStream)
		if !ok {
			if from == StreamClosed && (s.resetSent || s.resetReceived) {
				return ignoreFrame
			}
			if from == StreamHalfClosedRemote {
				return connError(ErrCodeStreamClosed, "frame received after END_STREAM on stream %d", s.id)
			}
			return streamError(s.id, ErrCodeStreamClosed, "frame %s illegal in state %s", frameType, from)
		}
		if atomic.CompareAndSwapInt32(&s.state, int32(from), int32(to)) {
			if to == StreamClosed && frameType == FrameRSTStream {
				if recv {
					s.resetReceived = true
				} else {
					s.resetSent = true
				}
			}
			return nil
		}
	}
}

func (s *Stream) handleFrames() {
	s.log("starting")
	for s.stateValue() != StreamClosed {
		select {
		case frame := <-s.incomingQueue:
			if _, ok := frame.(*RSTStreamFrame); ok {
				s.forceClose()
				continue
			}
			switch s.stateValue() {
			case StreamIdle:
				s.handleIdle(frame)
			case StreamOpen:
				s.handlerDoer.Do(s.goHandle)
				s.handleOpen(frame)
			case StreamHalfClosedRemote:
				s.handlerDoer.Do(s.goHandle)
				s.handleHalfClosedRemote(frame)
			default:
				s.log("unhandled frame %T in state %s", frame, s.stateValue())
			}
		case <-s.handlerDone:
			s.resbuf.flush(true)
			s.forceClose()
		}
	}
	s.log("closing stream")
}

func (s *Stream) forceClose() {
	for {
		from := s.stateValue()
		if from == StreamClosed {
			return
		}
		if atomic.CompareAndSwapInt32(&s.state, int32(from), int32(StreamClosed)) {
			s.outgoingQueue <- StreamTransitionEvent{ToState: StreamClosed, StreamID: s.id}
			return
		}
	}
}

func (s *Stream) goHandle() {
	req := Request{Headers: make(map[string]string)}
	s.resbuf = NewStreamWriter(s.id, s.writeFrame, s.conn.remoteSettings.MaxFrameSize)
	s.handlerWg.Add(1)
	for _, header := range s.reqHeaders {
		switch header.Name {
		case ":method":
			req.Method = header.Value
		case ":path":
			req.Path = header.Value
		case ":authority":
			req.Authority = header.Value
		case ":scheme":
			req.Scheme = header.Value
		default:
			req.Headers[header.Name] = header.Value
		}
	}

	req.Body = s.reqbuf

	go func() {
		s.handler(s.resbuf, req)
		s.handlerDone <- struct{}{}
		s.handlerWg.Done()
	}()
}

func (s *Stream) handleIdle(frame Frame) {
	switch fr := frame.(type) {
	case *HeadersFrame:
		for _, header := range fr.Headers {
			s.reqHeaders[header.Name] = header
		}
		if enc, ok := s.reqHeaders["content-encoding"]; ok && supportsContentEncoding(enc.Value) {
			if d, err := newDecompressor(enc.Value); err != nil {
				s.log("decompressor setup for %q failed: %v", enc.Value, err)
			} else {
				s.decomp = d
				s.compressedBody = bytes.NewBuffer(nil)
				delete(s.reqHeaders, "content-length")
			}
		}
		if err := s.applyTransition(true, FrameHeaders, fr.EndStream); err != nil {
			s.log("headers transition error: %v", err)
			return
		}
		s.handlerDoer.Do(s.goHandle)
		if fr.EndStream {
			s.finishRequestBody()
		}
	default:
		s.log("unhandled frame %T in idle state", frame)
	}
}

func (s *Stream) handleOpen(frame Frame) {
	switch fr := frame.(type) {
	case *DataFrame:
		if err := s.recvFlow.dataReceived(len(fr.Data) + int(fr.PadLength)); err != nil {
			s.writeFrame(&RSTStreamFrame{
				Framed:    Framed{Header: FrameHeader{StreamID: s.id}},
				ErrorCode: ErrCodeFlowControl,
			})
			s.forceClose()
			return
		}
		if s.decomp != nil {
			s.compressedBody.Write(fr.Data)
		} else {
			s.reqbuf.Write(fr.Data)
		}
		if err := s.applyTransition(true, FrameData, fr.EndStream); err != nil {
			s.log("data transition error: %v", err)
		}
		if fr.EndStream {
			s.finishRequestBody()
		}

		consumed := s.conn.Listener.onDataRead(s.id, fr.Data, fr.EndStream)
		if consumed < 0 {
			consumed = 0
		}
		if consumed > len(fr.Data) {
			consumed = len(fr.Data)
		}
		if increment := s.recvFlow.release(consumed + int(fr.PadLength)); increment > 0 {
			s.writeFrame(&WindowUpdateFrame{
				Framed:        Framed{Header: FrameHeader{StreamID: s.id}},
				SizeIncrement: increment,
			})
		}
	default:
		s.log("unhandled frame %T in open state", frame)
	}
}

// finishRequestBody runs the stream's decompressor, if one was installed
// for the request's content-encoding, against the fully-buffered compressed
// body, then hands the result (or the raw body, if no decoding applies) to
// reqbuf and signals EOF to the application handler. Decompression runs
// whole-body rather than incrementally: io.Pipe's Write blocks until its
// bytes are fully consumed, so draining it frame-by-frame against a
// one-goroutine-per-stream model would deadlock waiting on frames that
// haven't arrived yet.
func (s *Stream) finishRequestBody() {
	if s.decomp == nil {
		s.reqbuf.EOF()
		return
	}

	errCh := make(chan error, 1)
	go func() {
		err := s.decomp.feed(s.compressedBody.Bytes())
		s.decomp.closeWrite(nil)
		errCh <- err
	}()

	var out bytes.Buffer
	if err := s.decomp.drain(&out); err != nil {
		s.log("decompressing body: %v", err)
		s.writeFrame(&RSTStreamFrame{
			Framed:    Framed{Header: FrameHeader{StreamID: s.id}},
			ErrorCode: ErrCodeInternal,
		})
		s.decomp.Close()
		s.forceClose()
		return
	}
	if err := <-errCh; err != nil && err != io.ErrClosedPipe {
		s.log("feeding decompressor: %v", err)
	}
	if release, err := s.decomp.reconcile(int64(out.Len())); err != nil {
		s.log("reconciling decompressed flow control: %v", err)
	} else if increment := s.recvFlow.release(int(release)); increment > 0 {
		s.writeFrame(&WindowUpdateFrame{
			Framed:        Framed{Header: FrameHeader{StreamID: s.id}},
			SizeIncrement: increment,
		})
	}

	s.reqbuf.Write(out.Bytes())
	s.reqbuf.EOF()
	s.decomp.Close()
}

func (s *Stream) handleHalfClosedRemote(frame Frame) {
	switch frame.(type) {
	default:
		s.streamClosedErr()
	}
}

func (s *Stream) streamClosedErr() {
	s.writeFrame(&RSTStreamFrame{
		Framed:    Framed{Header: FrameHeader{StreamID: s.id}},
		ErrorCode: ErrCodeStreamClosed,
	})
	s.forceClose()
}

func (s *Stream) writeFrame(frame Frame) {
	s.outgoingQueue <- StreamOutgoingFrameEvent{Frame: frame, StreamID: s.id}
}

var _ io.ReadWriter = (*StreamReader)(nil)

// StreamReader exposes a stream's inbound DATA payload as an io.Reader
// the application handler consumes through Request.Body.
type StreamReader struct {
	rbuf *bytes.Buffer
	mu   sync.Mutex
	eof  bool
}

func NewStreamReader() *StreamReader {
	return &StreamReader{rbuf: bytes.NewBuffer(nil)}
}

func (s *StreamReader) Read(bs []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := s.rbuf.Read(bs)
	if s.eof && s.rbuf.Len() == 0 {
		return n, io.EOF
	}
	return n, nil
}

func (s *StreamReader) Write(bs []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rbuf.Write(bs)
}

func (s *StreamReader) EOF() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eof = true
}

var _ http.ResponseWriter = (*StreamWriter)(nil)

// StreamWriter buffers a handler's response body and emits HEADERS/DATA
// frames sized to the peer's advertised MAX_FRAME_SIZE.
type StreamWriter struct {
	headers    http.Header
	statusCode int
	streamID   uint32

	sentHeaders bool
	closed      bool

	maxFrameSize uint32
	frameWriter  func(Frame)

	wbuf *bytes.Buffer
}

func NewStreamWriter(streamID uint32, frameWriter func(Frame), maxFrameSize uint32) *StreamWriter {
	return &StreamWriter{
		headers:      map[string][]string{},
		statusCode:   200,
		wbuf:         bytes.NewBuffer(nil),
		frameWriter:  frameWriter,
		streamID:     streamID,
		maxFrameSize: maxFrameSize,
	}
}

func (s *StreamWriter) Header() http.Header { return s.headers }

func (s *StreamWriter) Write(bs []byte) (int, error) {
	n, _ := s.wbuf.Write(bs)
	if s.closed {
		return n, io.ErrClosedPipe
	}
	for s.wbuf.Len() > int(s.maxFrameSize) {
		s.flush(false)
	}
	return n, nil
}

func (s *StreamWriter) WriteHeader(statusCode int) { s.statusCode = statusCode }

func (s *StreamWriter) setDefaultHeaders() {
	if s.headers.Get("content-type") == "" {
		s.headers.Set("content-type", "text/plain; charset=utf-8")
	}
	if s.headers.Get("date") == "" {
		s.headers.Set("date", time.Now().UTC().Format(http.TimeFormat))
	}
}

func (s *StreamWriter) flush(closing bool) {
	if !s.sentHeaders {
		s.setDefaultHeaders()
		headers := []hpack.HeaderField{hpack.NewHeaderField(":status", fmt.Sprintf("%d", s.statusCode))}
		for name, vals := range s.headers {
			for _, v := range vals {
				headers = append(headers, hpack.NewHeaderField(strings.ToLower(name), v))
			}
		}
		s.frameWriter(&HeadersFrame{
			Framed:     Framed{Header: FrameHeader{StreamID: s.streamID}},
			EndStream:  false,
			EndHeaders: true,
			Headers:    headers,
		})
		s.sentHeaders = true
	}

	bs := make([]byte, s.maxFrameSize)
	n, _ := s.wbuf.Read(bs)
	bs = bs[:n]

	s.frameWriter(&DataFrame{
		Framed:    Framed{Header: FrameHeader{StreamID: s.streamID}},
		Data:      bs,
		EndStream: closing,
	})
	if closing {
		s.closed = true
	}
}
