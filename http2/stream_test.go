package http2

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamStateTransitionIdleToOpenOnHeaders(t *testing.T) {
	to, ok := StreamIdle.transition(true, FrameHeaders, false)
	require.True(t, ok)
	assert.Equal(t, StreamOpen, to)
}

func TestStreamStateTransitionOpenToHalfClosedRemoteOnEndStream(t *testing.T) {
	to, ok := StreamOpen.transition(true, FrameData, true)
	require.True(t, ok)
	assert.Equal(t, StreamHalfClosedRemote, to)
}

func TestStreamStateTransitionHalfClosedRemoteRejectsData(t *testing.T) {
	_, ok := StreamHalfClosedRemote.transition(true, FrameData, false)
	assert.False(t, ok)
}

func TestStreamStateTransitionClosedAllowsOnlyPriority(t *testing.T) {
	_, ok := StreamClosed.transition(true, FramePriority, false)
	assert.True(t, ok)

	_, ok = StreamClosed.transition(true, FrameData, false)
	assert.False(t, ok)
}

func TestStreamStateTransitionRSTStreamClosesFromAnyActiveState(t *testing.T) {
	to, ok := StreamOpen.transition(true, FrameRSTStream, false)
	require.True(t, ok)
	assert.Equal(t, StreamClosed, to)
}

func TestStreamStateTransitionPushPromiseReservesRemote(t *testing.T) {
	to, ok := StreamIdle.transition(true, FramePushPromise, false)
	require.True(t, ok)
	assert.Equal(t, StreamReservedRemote, to)
}

func TestStreamReaderEOFAfterBufferDrained(t *testing.T) {
	r := NewStreamReader()
	r.Write([]byte("abc"))
	r.EOF()

	buf := make([]byte, 3)
	n, err := r.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = r.Read(buf)
	assert.Equal(t, io.EOF, err)
}

func TestFinishRequestBodyDecompressesGzipBody(t *testing.T) {
	var compressed bytes.Buffer
	gw := gzip.NewWriter(&compressed)
	_, err := gw.Write([]byte("hello compressed world"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	s := &Stream{
		reqbuf:        NewStreamReader(),
		recvFlow:      newRecvFlowController(65535, 0.5),
		outgoingQueue: make(chan StreamEvent, 4),
		log:           func(string, ...interface{}) {},
	}

	d, err := newDecompressor("gzip")
	require.NoError(t, err)
	s.decomp = d
	s.compressedBody = bytes.NewBuffer(compressed.Bytes())

	s.finishRequestBody()

	got := make([]byte, 64)
	n, rerr := s.reqbuf.Read(got)
	require.NoError(t, rerr)
	assert.Equal(t, "hello compressed world", string(got[:n]))
}

func TestFinishRequestBodySkipsDecompressorWhenAbsent(t *testing.T) {
	s := &Stream{reqbuf: NewStreamReader()}
	s.reqbuf.Write([]byte("plain"))
	s.finishRequestBody()

	got := make([]byte, 16)
	n, err := s.reqbuf.Read(got)
	assert.NoError(t, err)
	assert.Equal(t, "plain", string(got[:n]))
}

func TestStreamWriterFlushesHeadersOnce(t *testing.T) {
	var frames []Frame
	w := NewStreamWriter(1, func(f Frame) { frames = append(frames, f) }, 16384)
	w.WriteHeader(201)
	w.Write([]byte("payload"))
	w.flush(true)

	require.Len(t, frames, 2)
	hf, ok := frames[0].(*HeadersFrame)
	require.True(t, ok)
	assert.Equal(t, ":status", hf.Headers[0].Name)
	assert.Equal(t, "201", hf.Headers[0].Value)

	df, ok := frames[1].(*DataFrame)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), df.Data)
	assert.True(t, df.EndStream)
}
