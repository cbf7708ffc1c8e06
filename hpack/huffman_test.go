package hpack

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuffmanRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"www.example.com",
		"no-cache",
		"custom-key",
		"custom-header-value-that-is-fairly-long-and-mixed-CASE-123",
		"\x00\x01\xff",
	}

	for _, s := range cases {
		enc := HuffmanEncode(nil, s)
		var out bytes.Buffer
		err := HuffmanDecode(&out, enc)
		require.NoError(t, err)
		assert.Equal(t, s, out.String())
	}
}

func TestHuffmanEncodedByteLenMatchesOutput(t *testing.T) {
	for _, s := range []string{"", "a", "www.example.com", "GET"} {
		want := HuffmanEncodedByteLen(s)
		got := len(HuffmanEncode(nil, s))
		assert.Equal(t, want, got)
	}
}

func TestHuffmanRejectsEOSMidStream(t *testing.T) {
	// The all-ones 30-bit EOS code, left-aligned and repeated to guarantee
	// it's hit before any padding interpretation kicks in.
	eos := huffmanCodes[eosSymbol]
	var buf bytes.Buffer
	var cur uint64
	var nbits uint
	for i := 0; i < 3; i++ {
		cur <<= uint(eos.n)
		cur |= uint64(eos.code)
		nbits += uint(eos.n)
		for nbits >= 8 {
			nbits -= 8
			buf.WriteByte(byte(cur >> nbits))
		}
	}

	var out bytes.Buffer
	err := HuffmanDecode(&out, buf.Bytes())
	require.Error(t, err)
	_, ok := err.(*CompressionError)
	assert.True(t, ok)
}

func TestHuffmanRejectsBadPadding(t *testing.T) {
	// 'a' has a 5-bit code, leaving 3 padding bits in a single byte. Valid
	// padding must be the all-ones prefix of the EOS code (0b111 here); a
	// byte whose low 3 bits are zero is not.
	hc := huffmanCodes['a']
	require.Equal(t, 5, int(hc.n))
	b := byte(hc.code << uint(8-hc.n))
	var out bytes.Buffer
	err := HuffmanDecode(&out, []byte{b})
	require.Error(t, err)
}
