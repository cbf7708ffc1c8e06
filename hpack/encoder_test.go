package hpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	fields := []HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":scheme", Value: "https"},
		{Name: ":path", Value: "/index.html"},
		{Name: ":authority", Value: "www.example.com"},
		{Name: "user-agent", Value: "goh2/1.0"},
		{Name: "x-custom", Value: "some fairly long value used to force a literal"},
	}

	enc := NewEncoder(4096)
	dst := enc.EncodeFields(fields)

	dec := NewDecoder(4096)
	got, err := dec.DecodeBlock(dst)
	require.NoError(t, err)
	assert.Equal(t, fields, got)
}

func TestEncodeSensitiveNeverIndexed(t *testing.T) {
	enc := NewEncoder(4096)
	dst := enc.WriteField(nil, HeaderField{Name: "authorization", Value: "secret", Sensitive: true})

	dec := NewDecoder(4096)
	got, err := dec.DecodeBlock(dst)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Sensitive)
	assert.Equal(t, 0, dec.table.dyn.len(), "sensitive fields must never enter the dynamic table")
}

func TestEncodeIndexedRepeat(t *testing.T) {
	enc := NewEncoder(4096)
	f := HeaderField{Name: "x-trace-id", Value: "abc123"}
	var dst []byte
	dst = enc.WriteField(dst, f)
	before := len(dst)
	dst = enc.WriteField(dst, f)

	// The second occurrence should be a single indexed byte (0x80 prefix
	// with a small index), much shorter than a fresh literal.
	assert.Less(t, len(dst)-before, len(f.Name)+len(f.Value))

	dec := NewDecoder(4096)
	got, err := dec.DecodeBlock(dst)
	require.NoError(t, err)
	assert.Equal(t, []HeaderField{f, f}, got)
}

func TestSetMaxDynamicTableSizeLowerThenRaiseSignalsBoth(t *testing.T) {
	enc := NewEncoder(4096)
	enc.SetMaxDynamicTableSize(0)
	enc.SetMaxDynamicTableSize(4096)

	dst := enc.WriteField(nil, HeaderField{Name: "x", Value: "y"})

	// First byte: a size update to 0 (the observed minimum).
	require.NotEmpty(t, dst)
	assert.Equal(t, byte(0x20), dst[0])

	dec := NewDecoder(4096)
	fields, err := dec.DecodeBlock(dst)
	require.NoError(t, err)
	assert.Equal(t, []HeaderField{{Name: "x", Value: "y"}}, fields)
	assert.Equal(t, uint32(4096), dec.table.maxDynamicSize())
}

func TestHuffmanPreferredOnlyWhenShorter(t *testing.T) {
	enc := NewEncoder(4096)
	// A string of NUL bytes Huffman-codes longer than raw (each NUL is a
	// 13-bit code), so the encoder must fall back to a raw literal.
	dst := enc.WriteField(nil, HeaderField{Name: "x", Value: "\x00\x00\x00"})

	dec := NewDecoder(4096)
	fields, err := dec.DecodeBlock(dst)
	require.NoError(t, err)
	assert.Equal(t, "\x00\x00\x00", fields[0].Value)
}
