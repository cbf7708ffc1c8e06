package http2

import "fmt"

// ErrCode is one of the wire error codes defined by RFC 7540 §7.
type ErrCode uint32

const (
	ErrCodeNo                 ErrCode = 0x0
	ErrCodeProtocol           ErrCode = 0x1
	ErrCodeInternal           ErrCode = 0x2
	ErrCodeFlowControl        ErrCode = 0x3
	ErrCodeSettingsTimeout    ErrCode = 0x4
	ErrCodeStreamClosed       ErrCode = 0x5
	ErrCodeFrameSize          ErrCode = 0x6
	ErrCodeRefusedStream      ErrCode = 0x7
	ErrCodeCancel             ErrCode = 0x8
	ErrCodeCompression        ErrCode = 0x9
	ErrCodeConnect            ErrCode = 0xa
	ErrCodeEnhanceYourCalm    ErrCode = 0xb
	ErrCodeInadequateSecurity ErrCode = 0xc
	ErrCodeHTTP11Required     ErrCode = 0xd
)

func (e ErrCode) String() string {
	switch e {
	case ErrCodeNo:
		return "NO_ERROR"
	case ErrCodeProtocol:
		return "PROTOCOL_ERROR"
	case ErrCodeInternal:
		return "INTERNAL_ERROR"
	case ErrCodeFlowControl:
		return "FLOW_CONTROL_ERROR"
	case ErrCodeSettingsTimeout:
		return "SETTINGS_TIMEOUT"
	case ErrCodeStreamClosed:
		return "STREAM_CLOSED"
	case ErrCodeFrameSize:
		return "FRAME_SIZE_ERROR"
	case ErrCodeRefusedStream:
		return "REFUSED_STREAM"
	case ErrCodeCancel:
		return "CANCEL"
	case ErrCodeCompression:
		return "COMPRESSION_ERROR"
	case ErrCodeConnect:
		return "CONNECT_ERROR"
	case ErrCodeEnhanceYourCalm:
		return "ENHANCE_YOUR_CALM"
	case ErrCodeInadequateSecurity:
		return "INADEQUATE_SECURITY"
	case ErrCodeHTTP11Required:
		return "HTTP_1_1_REQUIRED"
	default:
		return fmt.Sprintf("UNKNOWN_ERROR_CODE(%#x)", uint32(e))
	}
}

// ConnectionError is fatal to the whole connection: the caller responds by
// emitting GOAWAY with Code and the last accepted stream id, flushing, and
// closing the transport (RFC 7540 §5.4.1).
type ConnectionError struct {
	Code ErrCode
	Msg  string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("http2: connection error %s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("http2: connection error %s: %s", e.Code, e.Msg)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func connError(code ErrCode, format string, args ...any) error {
	return &ConnectionError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func wrapConnError(code ErrCode, err error) error {
	return &ConnectionError{Code: code, Msg: err.Error(), Err: err}
}

// StreamError isolates a single stream: the caller responds by emitting
// RST_STREAM with Code on StreamID and transitioning that stream to
// CLOSED; the connection proceeds (RFC 7540 §5.4.2).
type StreamError struct {
	StreamID uint32
	Code     ErrCode
	Msg      string
	Err      error
}

func (e *StreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("http2: stream %d error %s: %s: %v", e.StreamID, e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("http2: stream %d error %s: %s", e.StreamID, e.Code, e.Msg)
}

func (e *StreamError) Unwrap() error { return e.Err }

func streamError(streamID uint32, code ErrCode, format string, args ...any) error {
	return &StreamError{StreamID: streamID, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func wrapStreamError(streamID uint32, code ErrCode, err error) error {
	return &StreamError{StreamID: streamID, Code: code, Msg: err.Error(), Err: err}
}

// StreamErrorList collects one or more StreamErrors raised while applying
// an operation across every stream on a connection (e.g. an
// INITIAL_WINDOW_SIZE change); it satisfies error so a nil *list still
// composes with ordinary error handling.
type StreamErrorList []*StreamError

func (l *StreamErrorList) add(streamID uint32, code ErrCode, err error) {
	*l = append(*l, &StreamError{StreamID: streamID, Code: code, Msg: err.Error(), Err: err})
}

func (l StreamErrorList) Error() string {
	if len(l) == 0 {
		return "http2: no stream errors"
	}
	return fmt.Sprintf("http2: %d stream error(s), first: %s", len(l), l[0].Error())
}

// err returns nil if the list is empty, avoiding a typed-nil-interface trap
// at call sites that do `return errs.err()`.
func (l StreamErrorList) err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// ignoreFrame is a sentinel returned internally by frame handlers to mean
// "valid per protocol, nothing to do" (e.g. a frame arriving on a stream
// already closed by RST_STREAM, see Stream.applyTransition). It never escapes to a
// caller of Connection's public API.
var ignoreFrame = fmt.Errorf("http2: ignore frame")
