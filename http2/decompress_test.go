package http2

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompressorGzipRoundTrip(t *testing.T) {
	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, err := zw.Write([]byte("hello, decompressed world"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	d, err := newDecompressor("gzip")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.feed(compressed.Bytes())
		d.closeWrite(nil)
	}()

	var out bytes.Buffer
	require.NoError(t, d.drain(&out))
	assert.Equal(t, "hello, decompressed world", out.String())
	require.NoError(t, <-errCh)
}

func TestSupportsContentEncoding(t *testing.T) {
	assert.True(t, supportsContentEncoding("gzip"))
	assert.True(t, supportsContentEncoding("deflate"))
	assert.False(t, supportsContentEncoding("br"))
}

func TestNewDecompressorRejectsUnsupportedEncoding(t *testing.T) {
	_, err := newDecompressor("br")
	assert.Error(t, err)
}

func TestDecompressorReconcileAppliesRatioRule(t *testing.T) {
	d := &decompressor{compressedIn: 100, decompressedOut: 400}

	// Half of the decompressed bytes consumed should release half of the
	// compressed bytes (ratio 200/400 = 0.5, ceil(100*0.5) = 50).
	release, err := d.reconcile(200)
	require.NoError(t, err)
	assert.Equal(t, int64(50), release)
	assert.Equal(t, int64(50), d.compressedIn)
	assert.Equal(t, int64(200), d.decompressedOut)

	// Consuming the rest releases the remainder.
	release, err = d.reconcile(200)
	require.NoError(t, err)
	assert.Equal(t, int64(50), release)
	assert.Equal(t, int64(0), d.compressedIn)
	assert.Equal(t, int64(0), d.decompressedOut)
}

func TestDecompressorReconcileRoundsUp(t *testing.T) {
	d := &decompressor{compressedIn: 10, decompressedOut: 30}

	// ratio = 10/30, ceil(10*10/30) = ceil(3.33) = 4.
	release, err := d.reconcile(10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), release)
}

func TestDecompressorReconcileErrorsOnConsumptionWithNoOutput(t *testing.T) {
	d := &decompressor{compressedIn: 10, decompressedOut: 0}

	_, err := d.reconcile(5)
	assert.Error(t, err)
}

func TestDecompressorReconcileErrorsWhenConsumedExceedsProduced(t *testing.T) {
	d := &decompressor{compressedIn: 10, decompressedOut: 5}

	// Consuming more decompressed bytes than were ever produced drives the
	// ratio above 1, which would release more compressed bytes than were
	// ever debited; the negative-remainder guard rejects it instead.
	_, err := d.reconcile(50)
	assert.Error(t, err)
}
