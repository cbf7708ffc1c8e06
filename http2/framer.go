package http2

import "io"

// Framer writes fragmented frame sequences that respect a peer's
// advertised SETTINGS_MAX_FRAME_SIZE: a single logical HEADERS or DATA
// write may need to become a HEADERS/CONTINUATION chain, or a run of
// multiple DATA frames.
type Framer struct {
	w            io.Writer
	maxFrameSize uint32
}

func newFramer(w io.Writer, maxFrameSize uint32) *Framer {
	if maxFrameSize < minMaxFrameSize {
		maxFrameSize = minMaxFrameSize
	}
	return &Framer{w: w, maxFrameSize: maxFrameSize}
}

func (f *Framer) setMaxFrameSize(n uint32) {
	if n < minMaxFrameSize {
		n = minMaxFrameSize
	}
	f.maxFrameSize = n
}

func (f *Framer) writeFrame(fr Frame) error {
	bs, err := fr.Encode()
	if err != nil {
		return err
	}
	_, err = f.w.Write(bs)
	return err
}

// writeHeaders emits a HEADERS frame carrying as much of block as fits in
// one frame, followed by as many CONTINUATION frames as needed to carry
// the rest, setting END_HEADERS only on the last frame of the chain.
func (f *Framer) writeHeaders(streamID uint32, block []byte, endStream bool) error {
	first := block
	rest := []byte(nil)
	if uint32(len(first)) > f.maxFrameSize {
		first, rest = block[:f.maxFrameSize], block[f.maxFrameSize:]
	}

	hf := &HeadersFrame{
		Framed:        Framed{Header: FrameHeader{StreamID: streamID}},
		EndStream:     endStream,
		EndHeaders:    len(rest) == 0,
		BlockFragment: first,
	}
	if err := f.writeFrame(hf); err != nil {
		return err
	}

	for len(rest) > 0 {
		chunk := rest
		if uint32(len(chunk)) > f.maxFrameSize {
			chunk = rest[:f.maxFrameSize]
		}
		rest = rest[len(chunk):]

		cf := &ContinuationFrame{
			Framed:        Framed{Header: FrameHeader{StreamID: streamID}},
			EndHeaders:    len(rest) == 0,
			BlockFragment: chunk,
		}
		if err := f.writeFrame(cf); err != nil {
			return err
		}
	}
	return nil
}

// writeData emits data as a run of DATA frames, each no larger than
// maxFrameSize, with END_STREAM set only on the final one when endStream
// is requested. A zero-length data with endStream still emits one empty
// frame so the END_STREAM signal reaches the peer.
func (f *Framer) writeData(streamID uint32, data []byte, endStream bool) error {
	if len(data) == 0 {
		return f.writeFrame(&DataFrame{
			Framed:    Framed{Header: FrameHeader{StreamID: streamID}},
			EndStream: endStream,
		})
	}

	for len(data) > 0 {
		chunk := data
		if uint32(len(chunk)) > f.maxFrameSize {
			chunk = data[:f.maxFrameSize]
		}
		data = data[len(chunk):]

		if err := f.writeFrame(&DataFrame{
			Framed:    Framed{Header: FrameHeader{StreamID: streamID}},
			EndStream: endStream && len(data) == 0,
			Data:      chunk,
		}); err != nil {
			return err
		}
	}
	return nil
}

// headerBlockAssembler accumulates a HEADERS frame and any trailing
// CONTINUATION frames into one HPACK block. RFC 7540 §4.3 requires
// CONTINUATION frames to immediately follow the frame that started the
// header block, with no other frame type interleaved on any stream.
type headerBlockAssembler struct {
	streamID  uint32
	buf       []byte
	endStream bool
	done      bool

	// promisedID is set only when this block is a PUSH_PROMISE's header
	// block rather than a HEADERS block; finishHeaderBlock branches on it.
	promisedID  uint32
	pushPromise bool
}

func startHeaderBlock(streamID uint32, initial []byte, endHeaders, endStream bool) *headerBlockAssembler {
	a := &headerBlockAssembler{streamID: streamID, endStream: endStream}
	a.buf = append(a.buf, initial...)
	a.done = endHeaders
	return a
}

func startPushPromiseBlock(streamID, promisedID uint32, initial []byte, endHeaders bool) *headerBlockAssembler {
	a := &headerBlockAssembler{streamID: streamID, promisedID: promisedID, pushPromise: true}
	a.buf = append(a.buf, initial...)
	a.done = endHeaders
	return a
}

func (a *headerBlockAssembler) addContinuation(streamID uint32, fragment []byte, endHeaders bool) error {
	if a.done {
		return connError(ErrCodeProtocol, "CONTINUATION received after header block already ended")
	}
	if streamID != a.streamID {
		return connError(ErrCodeProtocol, "CONTINUATION stream id %d does not match header block's stream %d", streamID, a.streamID)
	}
	a.buf = append(a.buf, fragment...)
	a.done = endHeaders
	return nil
}
