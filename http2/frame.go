package http2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/h2kit/h2codec/hpack"
)

type FrameType uint8

const (
	FrameData         FrameType = 0x0
	FrameHeaders      FrameType = 0x1
	FramePriority     FrameType = 0x2
	FrameRSTStream    FrameType = 0x3
	FrameSettings     FrameType = 0x4
	FramePushPromise  FrameType = 0x5
	FramePing         FrameType = 0x6
	FrameGoAway       FrameType = 0x7
	FrameWindowUpdate FrameType = 0x8
	FrameContinuation FrameType = 0x9
)

func (t FrameType) String() string {
	switch t {
	case FrameData:
		return "DATA"
	case FrameHeaders:
		return "HEADERS"
	case FramePriority:
		return "PRIORITY"
	case FrameRSTStream:
		return "RST_STREAM"
	case FrameSettings:
		return "SETTINGS"
	case FramePushPromise:
		return "PUSH_PROMISE"
	case FramePing:
		return "PING"
	case FrameGoAway:
		return "GOAWAY"
	case FrameWindowUpdate:
		return "WINDOW_UPDATE"
	case FrameContinuation:
		return "CONTINUATION"
	default:
		return "UNKNOWN"
	}
}

type FrameFlag uint8

const (
	DataEndStream FrameFlag = 0x1
	DataPadded    FrameFlag = 0x8

	HeadersEndStream  FrameFlag = 0x1
	HeadersEndHeaders FrameFlag = 0x4
	HeadersPadded     FrameFlag = 0x8
	HeadersPriority   FrameFlag = 0x20

	SettingsAck FrameFlag = 0x1

	PushPromiseEndHeaders FrameFlag = 0x4
	PushPromisePadded     FrameFlag = 0x8

	PingAck FrameFlag = 0x1

	ContinuationEndHeaders FrameFlag = 0x4
)

/*
+-----------------------------------------------+
|                 Length (24)                   |
+---------------+---------------+---------------+
|   Type (8)    |   Flags (8)   |
+-+-------------+---------------+-------------------------------+
|R|                 Stream Identifier (31)                      |
+=+=============================================================+
|                   Frame Payload (0...)                      ...
+---------------------------------------------------------------+
*/

type FrameHeader struct {
	Length   uint32
	Type     FrameType
	Flags    uint8
	StreamID uint32
}

const frameHeaderLen = 9

func parseHeader(r io.Reader) (FrameHeader, error) {
	bs := make([]byte, frameHeaderLen)
	if _, err := io.ReadFull(r, bs); err != nil {
		return FrameHeader{}, err
	}

	return FrameHeader{
		Length:   uint32(bs[0])<<16 | uint32(bs[1])<<8 | uint32(bs[2]),
		Type:     FrameType(bs[3]),
		Flags:    bs[4],
		StreamID: binary.BigEndian.Uint32(bs[5:]) & (1<<31 - 1),
	}, nil
}

func (fr FrameHeader) hasFlag(flag FrameFlag) bool {
	return fr.Flags&uint8(flag) == uint8(flag)
}

// Frame is implemented by every wire frame type. Decode populates the
// typed fields from Framed.Payload; Encode does the reverse. Every
// concrete frame is produced already-decoded by ParseFrame.
type Frame interface {
	Header() FrameHeader
	Decode() error
	Encode() ([]byte, error)
}

type frameParserFunc func(Framed) Frame

var frameParsers = map[FrameType]frameParserFunc{
	FrameData:         dataFrame,
	FrameHeaders:       headersFrame,
	FramePriority:      priorityFrame,
	FrameRSTStream:     rstStreamFrame,
	FrameSettings:      settingsFrame,
	FramePushPromise:   pushPromiseFrame,
	FramePing:          pingFrame,
	FrameGoAway:        goAwayFrame,
	FrameWindowUpdate:  windowUpdateFrame,
	FrameContinuation:  continuationFrame,
}

// Framed is the raw, type-agnostic view of a frame: a parsed header and
// its undecoded payload bytes.
type Framed struct {
	Header  FrameHeader
	Payload []byte
}

var (
	ErrExceedsMaxFrameSize = errors.New("http2: frame length exceeds MAX_FRAME_SIZE")
	ErrFrameTooShort       = errors.New("http2: frame payload too short for its type")
	ErrPadTooLong          = errors.New("http2: pad length exceeds frame payload")
)

// UnknownFrame carries a frame of a type this implementation does not
// recognize; RFC 7540 §4.1 requires unknown frame types to be ignored by
// the receiver rather than treated as a connection error.
type UnknownFrame struct {
	Framed Framed
}

func (u *UnknownFrame) Header() FrameHeader  { return u.Framed.Header }
func (u *UnknownFrame) Decode() error        { return nil }
func (u *UnknownFrame) Encode() ([]byte, error) {
	return EncodeFrame(u.Framed.Payload, u.Framed.Header.Type, u.Framed.Header.Flags, u.Framed.Header.StreamID)
}

// ParseFrame reads one frame header and payload from r and returns the
// decoded Frame. maxSize is this endpoint's advertised SETTINGS_MAX_FRAME_SIZE;
// a peer sending a larger frame is a connection error of type
// FRAME_SIZE_ERROR.
func ParseFrame(r io.Reader, maxSize uint32) (Frame, error) {
	frame := Framed{}
	var err error
	frame.Header, err = parseHeader(r)
	if err != nil {
		return nil, err
	}

	if frame.Header.Length > maxSize {
		return nil, wrapConnError(ErrCodeFrameSize, ErrExceedsMaxFrameSize)
	}

	frame.Payload = make([]byte, frame.Header.Length)
	if _, err := io.ReadFull(r, frame.Payload); err != nil {
		return nil, err
	}

	parserFn, ok := frameParsers[frame.Header.Type]
	if !ok {
		f := &UnknownFrame{Framed: frame}
		return f, nil
	}

	f := parserFn(frame)
	if err := f.Decode(); err != nil {
		return nil, err
	}
	return f, nil
}

func EncodeFrame(payload []byte, frameType FrameType, flags uint8, streamid uint32) ([]byte, error) {
	n := len(payload)

	buf := make([]byte, 0, frameHeaderLen+n)
	buf = append(buf,
		byte(n>>16),
		byte(n>>8),
		byte(n),
		byte(frameType),
		byte(flags),
	)
	buf = binary.BigEndian.AppendUint32(buf, streamid)
	buf = append(buf, payload...)

	return buf, nil
}

// stripPadding removes a leading pad-length octet (if padded is set) and
// the trailing pad bytes it names, returning the remaining payload.
func stripPadding(bs []byte, padded bool) (payload []byte, padLength uint8, err error) {
	if !padded {
		return bs, 0, nil
	}
	if len(bs) < 1 {
		return nil, 0, ErrFrameTooShort
	}
	padLength = bs[0]
	bs = bs[1:]
	if int(padLength) > len(bs) {
		return nil, 0, ErrPadTooLong
	}
	return bs[:len(bs)-int(padLength)], padLength, nil
}

type DataFrame struct {
	Framed Framed

	Padded    bool
	EndStream bool

	PadLength uint8
	Data      []byte
}

func dataFrame(framed Framed) Frame {
	return &DataFrame{Framed: framed}
}

func (d *DataFrame) Header() FrameHeader { return d.Framed.Header }

func (d *DataFrame) Decode() error {
	d.Padded = d.Framed.Header.hasFlag(DataPadded)
	d.EndStream = d.Framed.Header.hasFlag(DataEndStream)

	data, padLength, err := stripPadding(d.Framed.Payload, d.Padded)
	if err != nil {
		return err
	}
	d.PadLength = padLength
	d.Data = data
	return nil
}

func (d *DataFrame) Encode() ([]byte, error) {
	var flags uint8
	if d.EndStream {
		flags |= uint8(DataEndStream)
	}
	if d.Padded {
		flags |= uint8(DataPadded)
		buf := make([]byte, 0, 1+len(d.Data)+int(d.PadLength))
		buf = append(buf, byte(d.PadLength))
		buf = append(buf, d.Data...)
		buf = append(buf, make([]byte, d.PadLength)...)
		return EncodeFrame(buf, FrameData, flags, d.Framed.Header.StreamID)
	}
	return EncodeFrame(d.Data, FrameData, flags, d.Framed.Header.StreamID)
}

type HeadersFrame struct {
	Framed Framed

	EndStream  bool
	EndHeaders bool
	Priority   bool
	Padded     bool

	PadLength          uint8
	StreamDependency   uint32
	ExclusiveStreamDep bool
	Weight             uint8
	BlockFragment      []byte

	// Headers is filled in by the connection handler once the HEADERS/
	// CONTINUATION chain is fully reassembled and HPACK-decoded; Decode
	// and Encode never touch it directly.
	Headers []hpack.HeaderField
}

func headersFrame(framed Framed) Frame {
	return &HeadersFrame{Framed: framed}
}

func (h *HeadersFrame) Header() FrameHeader { return h.Framed.Header }

func (h *HeadersFrame) Decode() error {
	bs := h.Framed.Payload

	h.EndStream = h.Framed.Header.hasFlag(HeadersEndStream)
	h.EndHeaders = h.Framed.Header.hasFlag(HeadersEndHeaders)
	h.Priority = h.Framed.Header.hasFlag(HeadersPriority)
	h.Padded = h.Framed.Header.hasFlag(HeadersPadded)

	var padLength uint8
	if h.Padded {
		if len(bs) < 1 {
			return ErrFrameTooShort
		}
		padLength = bs[0]
		bs = bs[1:]
	}

	if h.Priority {
		if len(bs) < 5 {
			return ErrFrameTooShort
		}
		h.ExclusiveStreamDep = (bs[0] & 0x80) == 0x80
		h.StreamDependency = binary.BigEndian.Uint32(bs) & (1<<31 - 1)
		h.Weight = bs[4]
		bs = bs[5:]
	}

	if int(padLength) > len(bs) {
		return ErrPadTooLong
	}
	h.PadLength = padLength
	h.BlockFragment = bs[:len(bs)-int(padLength)]
	return nil
}

func (h *HeadersFrame) Encode() ([]byte, error) {
	var flags uint8
	var buf bytes.Buffer

	if h.EndStream {
		flags |= uint8(HeadersEndStream)
	}
	if h.EndHeaders {
		flags |= uint8(HeadersEndHeaders)
	}
	if h.Padded {
		flags |= uint8(HeadersPadded)
		buf.WriteByte(h.PadLength)
	}
	if h.Priority {
		flags |= uint8(HeadersPriority)
		var exclusive byte
		if h.ExclusiveStreamDep {
			exclusive = 1
		}
		buf.Write([]byte{
			(exclusive << 7) | byte(h.StreamDependency>>24),
			byte(h.StreamDependency >> 16),
			byte(h.StreamDependency >> 8),
			byte(h.StreamDependency),
			h.Weight,
		})
	}

	buf.Write(h.BlockFragment)

	if h.Padded {
		buf.Write(make([]byte, h.PadLength))
	}

	return EncodeFrame(buf.Bytes(), FrameHeaders, flags, h.Framed.Header.StreamID)
}

type PriorityFrame struct {
	Framed Framed

	ExclusiveStreamDep bool
	StreamDependency   uint32
	Weight             uint8
}

func priorityFrame(framed Framed) Frame {
	return &PriorityFrame{Framed: framed}
}

func (p *PriorityFrame) Header() FrameHeader { return p.Framed.Header }

func (p *PriorityFrame) Decode() error {
	bs := p.Framed.Payload
	if len(bs) != 5 {
		return ErrFrameTooShort
	}
	p.ExclusiveStreamDep = (bs[0] & 0x80) == 0x80
	p.StreamDependency = binary.BigEndian.Uint32(bs) & (1<<31 - 1)
	p.Weight = bs[4]
	return nil
}

func (p *PriorityFrame) Encode() ([]byte, error) {
	var exclusive byte
	if p.ExclusiveStreamDep {
		exclusive = 1
	}
	payload := []byte{
		(exclusive << 7) | byte(p.StreamDependency>>24),
		byte(p.StreamDependency >> 16),
		byte(p.StreamDependency >> 8),
		byte(p.StreamDependency),
		p.Weight,
	}
	return EncodeFrame(payload, FramePriority, 0, p.Framed.Header.StreamID)
}

type RSTStreamFrame struct {
	Framed Framed

	ErrorCode ErrCode
}

func rstStreamFrame(framed Framed) Frame {
	return &RSTStreamFrame{Framed: framed}
}

func (r *RSTStreamFrame) Header() FrameHeader { return r.Framed.Header }

func (r *RSTStreamFrame) Decode() error {
	if len(r.Framed.Payload) != 4 {
		return ErrFrameTooShort
	}
	r.ErrorCode = ErrCode(binary.BigEndian.Uint32(r.Framed.Payload))
	return nil
}

func (r *RSTStreamFrame) Encode() ([]byte, error) {
	return EncodeFrame(
		binary.BigEndian.AppendUint32(nil, uint32(r.ErrorCode)),
		FrameRSTStream,
		0,
		r.Framed.Header.StreamID,
	)
}

type SettingFrameArgs struct {
	Param SettingsParam
	Value uint32
}

type SettingsFrame struct {
	Framed Framed

	Ack  bool
	Args []SettingFrameArgs
}

func settingsFrame(framed Framed) Frame {
	return &SettingsFrame{Framed: framed}
}

func (s *SettingsFrame) Header() FrameHeader { return s.Framed.Header }

func (s *SettingsFrame) Decode() error {
	s.Ack = s.Framed.Header.hasFlag(SettingsAck)

	bs := s.Framed.Payload
	if len(bs)%6 != 0 {
		return ErrFrameTooShort
	}
	if s.Ack && len(bs) != 0 {
		return ErrFrameTooShort
	}

	s.Args = make([]SettingFrameArgs, 0, len(bs)/6)
	for len(bs) > 0 {
		ident := binary.BigEndian.Uint16(bs[0:])
		value := binary.BigEndian.Uint32(bs[2:])
		s.Args = append(s.Args, SettingFrameArgs{Param: SettingsParam(ident), Value: value})
		bs = bs[6:]
	}
	return nil
}

func (s *SettingsFrame) Encode() ([]byte, error) {
	payload := make([]byte, 0, len(s.Args)*6)
	for _, arg := range s.Args {
		payload = append(payload, byte(arg.Param>>8), byte(arg.Param))
		payload = binary.BigEndian.AppendUint32(payload, arg.Value)
	}

	var flags uint8
	if s.Ack {
		flags |= uint8(SettingsAck)
	}

	return EncodeFrame(payload, FrameSettings, flags, 0)
}

type PushPromiseFrame struct {
	Framed Framed

	EndHeaders bool
	Padded     bool

	PadLength     uint8
	PromisedID    uint32
	BlockFragment []byte

	Headers []hpack.HeaderField
}

func pushPromiseFrame(framed Framed) Frame {
	return &PushPromiseFrame{Framed: framed}
}

func (p *PushPromiseFrame) Header() FrameHeader { return p.Framed.Header }

func (p *PushPromiseFrame) Decode() error {
	bs := p.Framed.Payload
	p.EndHeaders = p.Framed.Header.hasFlag(PushPromiseEndHeaders)
	p.Padded = p.Framed.Header.hasFlag(PushPromisePadded)

	var padLength uint8
	if p.Padded {
		if len(bs) < 1 {
			return ErrFrameTooShort
		}
		padLength = bs[0]
		bs = bs[1:]
	}

	if len(bs) < 4 {
		return ErrFrameTooShort
	}
	p.PromisedID = binary.BigEndian.Uint32(bs) & (1<<31 - 1)
	bs = bs[4:]

	if int(padLength) > len(bs) {
		return ErrPadTooLong
	}
	p.PadLength = padLength
	p.BlockFragment = bs[:len(bs)-int(padLength)]
	return nil
}

func (p *PushPromiseFrame) Encode() ([]byte, error) {
	var flags uint8
	var buf bytes.Buffer

	if p.EndHeaders {
		flags |= uint8(PushPromiseEndHeaders)
	}
	if p.Padded {
		flags |= uint8(PushPromisePadded)
		buf.WriteByte(p.PadLength)
	}

	buf.Write(binary.BigEndian.AppendUint32(nil, p.PromisedID&(1<<31-1)))
	buf.Write(p.BlockFragment)

	if p.Padded {
		buf.Write(make([]byte, p.PadLength))
	}

	return EncodeFrame(buf.Bytes(), FramePushPromise, flags, p.Framed.Header.StreamID)
}

type PingFrame struct {
	Framed Framed

	Ack bool

	Opaque []byte
}

func pingFrame(framed Framed) Frame {
	return &PingFrame{Framed: framed}
}

func (p *PingFrame) Header() FrameHeader { return p.Framed.Header }

func (p *PingFrame) Decode() error {
	if len(p.Framed.Payload) != 8 {
		return ErrFrameTooShort
	}
	p.Ack = p.Framed.Header.hasFlag(PingAck)
	p.Opaque = p.Framed.Payload
	return nil
}

func (p *PingFrame) Encode() ([]byte, error) {
	var flags uint8
	if p.Ack {
		flags |= uint8(PingAck)
	}
	return EncodeFrame(p.Opaque, FramePing, flags, 0)
}

type GoAwayFrame struct {
	Framed Framed

	LastStreamID uint32
	ErrorCode    ErrCode
	Opaque       []byte
}

func goAwayFrame(framed Framed) Frame {
	return &GoAwayFrame{Framed: framed}
}

func (g *GoAwayFrame) Header() FrameHeader { return g.Framed.Header }

func (g *GoAwayFrame) Decode() error {
	bs := g.Framed.Payload
	if len(bs) < 8 {
		return ErrFrameTooShort
	}
	g.LastStreamID = binary.BigEndian.Uint32(bs) & (1<<31 - 1)
	g.ErrorCode = ErrCode(binary.BigEndian.Uint32(bs[4:]))

	if len(bs) > 8 {
		g.Opaque = bs[8:]
	}
	return nil
}

func (g *GoAwayFrame) Encode() ([]byte, error) {
	payload := binary.BigEndian.AppendUint32(nil, g.LastStreamID&(1<<31-1))
	payload = binary.BigEndian.AppendUint32(payload, uint32(g.ErrorCode))

	if g.Opaque != nil {
		payload = append(payload, g.Opaque...)
	}

	return EncodeFrame(payload, FrameGoAway, 0, 0)
}

type WindowUpdateFrame struct {
	Framed Framed

	SizeIncrement uint32
}

func windowUpdateFrame(framed Framed) Frame {
	return &WindowUpdateFrame{Framed: framed}
}

func (w *WindowUpdateFrame) Header() FrameHeader { return w.Framed.Header }

func (w *WindowUpdateFrame) Decode() error {
	if len(w.Framed.Payload) != 4 {
		return ErrFrameTooShort
	}
	w.SizeIncrement = binary.BigEndian.Uint32(w.Framed.Payload) & (1<<31 - 1)
	return nil
}

func (w *WindowUpdateFrame) Encode() ([]byte, error) {
	payload := binary.BigEndian.AppendUint32(nil, w.SizeIncrement&(1<<31-1))
	return EncodeFrame(payload, FrameWindowUpdate, 0, w.Framed.Header.StreamID)
}

type ContinuationFrame struct {
	Framed Framed

	EndHeaders bool

	BlockFragment []byte
}

func continuationFrame(framed Framed) Frame {
	return &ContinuationFrame{Framed: framed}
}

func (c *ContinuationFrame) Header() FrameHeader { return c.Framed.Header }

func (c *ContinuationFrame) Decode() error {
	c.EndHeaders = c.Framed.Header.hasFlag(ContinuationEndHeaders)
	c.BlockFragment = c.Framed.Payload
	return nil
}

func (c *ContinuationFrame) Encode() ([]byte, error) {
	var flags uint8
	if c.EndHeaders {
		flags |= uint8(ContinuationEndHeaders)
	}
	return EncodeFrame(c.BlockFragment, FrameContinuation, flags, c.Framed.Header.StreamID)
}
