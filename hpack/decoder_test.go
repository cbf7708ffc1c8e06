package hpack

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTest struct {
	inhex     string
	out       []HeaderField
	expectErr bool
}

func TestDecoder(t *testing.T) {
	tests := []decodeTest{
		{
			inhex: "8286418aa0e41d139d09b8f01e07847a8825b650c3cbbab87f53032a2f2a",
			out: []HeaderField{
				{Name: ":method", Value: "GET"},
				{Name: ":scheme", Value: "http"},
				{Name: ":authority", Value: "localhost:8080"},
				{Name: ":path", Value: "/"},
				{Name: "user-agent", Value: "curl/8.7.1"},
				{Name: "accept", Value: "*/*"},
			},
		},
		{
			inhex: "0f0d8469f0b2ef",
			out: []HeaderField{
				{Name: "content-length", Value: "49137"},
			},
		},
		{
			inhex: "8386418aa0e41d139d09b8f01e07847a8825b650c3cbbab87f53032a2f2a0f0d8469f0b2ef5f981d75d0620d263d4c795bc78f0b4a7b295adb282d443c8593",
			out: []HeaderField{
				{Name: ":method", Value: "POST"},
				{Name: ":scheme", Value: "http"},
				{Name: ":authority", Value: "localhost:8080"},
				{Name: ":path", Value: "/"},
				{Name: "user-agent", Value: "curl/8.7.1"},
				{Name: "accept", Value: "*/*"},
				{Name: "content-length", Value: "49137"},
				{Name: "content-type", Value: "application/x-www-form-urlencoded"},
			},
		},
	}

	for _, tt := range tests {
		bs, err := hex.DecodeString(tt.inhex)
		require.NoError(t, err)

		decoder := NewDecoder(4096)
		fields, err := decoder.DecodeBlock(bs)
		if tt.expectErr {
			assert.Error(t, err)
		} else {
			assert.NoError(t, err)
			assert.Equal(t, tt.out, fields)
		}
	}
}

// TestDecoderSpecC3 is RFC 7541 Appendix C.3.1, the first of three requests
// without Huffman coding, exercising incremental indexing into the dynamic
// table.
func TestDecoderSpecC3(t *testing.T) {
	bs, err := hex.DecodeString("828684410f7777772e6578616d706c652e636f6d")
	require.NoError(t, err)

	d := NewDecoder(4096)
	fields, err := d.DecodeBlock(bs)
	require.NoError(t, err)
	assert.Equal(t, []HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":scheme", Value: "http"},
		{Name: ":path", Value: "/"},
		{Name: ":authority", Value: "www.example.com"},
	}, fields)

	require.Equal(t, 1, d.table.dyn.len())
	entry, ok := d.table.dyn.at(1)
	require.True(t, ok)
	assert.Equal(t, HeaderField{Name: ":authority", Value: "www.example.com"}, entry)
	assert.Equal(t, uint32(57), d.table.dynamicSize())
}

// TestDecoderSpecC4 is RFC 7541 Appendix C.4.1, the Huffman-coded
// equivalent of C.3.1; the decoded headers and resulting table match.
func TestDecoderSpecC4(t *testing.T) {
	bs, err := hex.DecodeString("828684418cf1e3c2e5f23a6ba0ab90f4ff")
	require.NoError(t, err)

	d := NewDecoder(4096)
	fields, err := d.DecodeBlock(bs)
	require.NoError(t, err)
	assert.Equal(t, []HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":scheme", Value: "http"},
		{Name: ":path", Value: "/"},
		{Name: ":authority", Value: "www.example.com"},
	}, fields)
	assert.Equal(t, uint32(57), d.table.dynamicSize())
}

// TestDecoderSpecC5 exercises RFC 7541 Appendix C.5's three-response
// exchange against a 256-byte dynamic table, small enough to force
// eviction by the third response. Rather than hand-transcribing the
// appendix's wire bytes, each response is produced with our own Encoder
// (sharing the scenario's exact header sets and table capacity) and fed
// through the Decoder, so the eviction behavior under test is the
// table's own, not a copy of pre-computed bytes.
func TestDecoderSpecC5(t *testing.T) {
	enc := NewEncoder(256)
	dec := NewDecoder(256)

	responses := [][]HeaderField{
		{
			{Name: ":status", Value: "302"},
			{Name: "cache-control", Value: "private"},
			{Name: "date", Value: "Mon, 21 Oct 2013 20:13:21 GMT"},
			{Name: "location", Value: "https://www.example.com"},
		},
		{
			{Name: ":status", Value: "307"},
			{Name: "cache-control", Value: "private"},
			{Name: "date", Value: "Mon, 21 Oct 2013 20:13:21 GMT"},
			{Name: "location", Value: "https://www.example.com"},
		},
		{
			{Name: ":status", Value: "200"},
			{Name: "cache-control", Value: "private"},
			{Name: "date", Value: "Mon, 21 Oct 2013 20:13:22 GMT"},
			{Name: "location", Value: "https://www.example.com"},
			{Name: "content-encoding", Value: "gzip"},
			{Name: "set-cookie", Value: "foo=ASDJKHQKBZXOQWEOPIUAXQWEOIU; max-age=3600; version=1"},
		},
	}

	for _, fields := range responses {
		dst := enc.EncodeFields(fields)
		got, err := dec.DecodeBlock(dst)
		require.NoError(t, err)
		assert.Equal(t, fields, got)
	}

	// The third response's inserts overflow the 256-byte capacity, so the
	// oldest entries are evicted; the table holds only what still fits.
	assert.LessOrEqual(t, dec.table.dynamicSize(), uint32(256))
	assert.Equal(t, enc.table.dynamicSize(), dec.table.dynamicSize())
}

func TestDecoderDuplicateHeaderInsertion(t *testing.T) {
	// RFC 7541 C.2.1's literal-with-incremental-indexing field, sent twice.
	// (Our Encoder would send the second copy as an indexed field.)
	dst, err := hex.DecodeString(
		"400a637573746f6d2d6b65790d637573746f6d2d686561646572" +
			"400a637573746f6d2d6b65790d637573746f6d2d686561646572")
	require.NoError(t, err)

	dec := NewDecoder(4096)
	fields, err := dec.DecodeBlock(dst)
	require.NoError(t, err)
	assert.Equal(t, []HeaderField{
		{Name: "custom-key", Value: "custom-header"},
		{Name: "custom-key", Value: "custom-header"},
	}, fields)

	require.Equal(t, 2, dec.table.dyn.len())
	e1, ok := dec.table.dyn.at(1)
	require.True(t, ok)
	e2, ok := dec.table.dyn.at(2)
	require.True(t, ok)
	assert.Equal(t, HeaderField{Name: "custom-key", Value: "custom-header"}, e1)
	assert.Equal(t, HeaderField{Name: "custom-key", Value: "custom-header"}, e2)
}

func TestDecoderRejectsIndexZero(t *testing.T) {
	d := NewDecoder(4096)
	_, err := d.DecodeBlock([]byte{0x80})
	require.Error(t, err)
	_, ok := err.(*CompressionError)
	assert.True(t, ok)
}

func TestDecoderRejectsUnknownPseudoHeader(t *testing.T) {
	enc := NewEncoder(4096)
	dst := enc.WriteField(nil, HeaderField{Name: ":bogus", Value: "x"})

	d := NewDecoder(4096)
	_, err := d.DecodeBlock(dst)
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestDecoderRejectsPseudoAfterRegular(t *testing.T) {
	enc := NewEncoder(4096)
	var dst []byte
	dst = enc.WriteField(dst, HeaderField{Name: "user-agent", Value: "x"})
	dst = enc.WriteField(dst, HeaderField{Name: ":path", Value: "/"})

	d := NewDecoder(4096)
	_, err := d.DecodeBlock(dst)
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestDecoderRejectsMixedPseudoHeaders(t *testing.T) {
	enc := NewEncoder(4096)
	var dst []byte
	dst = enc.WriteField(dst, HeaderField{Name: ":method", Value: "GET"})
	dst = enc.WriteField(dst, HeaderField{Name: ":status", Value: "200"})

	d := NewDecoder(4096)
	_, err := d.DecodeBlock(dst)
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestDecoderHeaderListSizeLatchedUntilFinish(t *testing.T) {
	enc := NewEncoder(4096)
	dst := enc.WriteField(nil, HeaderField{Name: "x", Value: "y"})

	d := NewDecoder(4096)
	d.SetMaxHeaderListSize(1)
	fields, err := d.DecodeBlock(dst)
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)
	// The field was still decoded and the dynamic table still updated.
	assert.Equal(t, []HeaderField{{Name: "x", Value: "y"}}, fields)
}

func TestDecoderRejectsInvalidHeaderFieldName(t *testing.T) {
	enc := NewEncoder(4096)
	dst := enc.WriteField(nil, HeaderField{Name: "bad name", Value: "x"})

	d := NewDecoder(4096)
	_, err := d.DecodeBlock(dst)
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestDecoderRejectsInvalidHeaderFieldValue(t *testing.T) {
	enc := NewEncoder(4096)
	dst := enc.WriteField(nil, HeaderField{Name: "x-trace", Value: "bad\x7fvalue"})

	d := NewDecoder(4096)
	_, err := d.DecodeBlock(dst)
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestDecoderRequiresSizeUpdateAfterReduction(t *testing.T) {
	d := NewDecoder(4096)
	d.SetMaxDynamicTableSize(0)

	enc := NewEncoder(4096)
	dst := enc.WriteField(nil, HeaderField{Name: "x", Value: "y"})

	_, err := d.DecodeBlock(dst)
	require.Error(t, err)
	_, ok := err.(*CompressionError)
	assert.True(t, ok)
}
