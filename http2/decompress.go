package http2

import (
	"bytes"
	"compress/flate"
	"io"
	"math"

	"github.com/klauspost/compress/gzip"
)

// decompressor lazily wraps a stream's incoming DATA frames with a
// content-encoding-specific reader, created only once the request/response
// headers name a supported encoding. It reconciles the compressed bytes
// debited from flow control against the larger decompressed byte count
// the application actually consumes, crediting the compressed share of the
// consumed bytes back via the stream's recvFlowController so a
// highly-compressible body doesn't
// starve the connection window.
type decompressor struct {
	encoding string

	compressedIn    int64 // total compressed bytes fed in so far
	decompressedOut int64 // total decompressed bytes released so far

	pr *io.PipeReader
	pw *io.PipeWriter

	reader io.ReadCloser // the gzip/flate reader wrapping pr
	done   chan struct{}
	err    error
}

func supportsContentEncoding(enc string) bool {
	switch enc {
	case "gzip", "x-gzip", "deflate":
		return true
	default:
		return false
	}
}

// newDecompressor sets up the pipe that feed writes into. The deflate
// reader is created here; the gzip reader is created by the first drain,
// because gzip.NewReader reads the gzip header and would block until feed
// supplies it. Call Close once the stream is done to release the pipe.
func newDecompressor(encoding string) (*decompressor, error) {
	pr, pw := io.Pipe()
	d := &decompressor{encoding: encoding, pr: pr, pw: pw, done: make(chan struct{})}

	switch encoding {
	case "gzip", "x-gzip":
	case "deflate":
		d.reader = flate.NewReader(pr)
	default:
		return nil, streamError(0, ErrCodeInternal, "unsupported content-encoding %q", encoding)
	}
	return d, nil
}

// feed writes one DATA frame's payload into the decompression pipe. It
// must be called from a single goroutine, and not the one running drain:
// the pipe write blocks until drain has read all of p.
func (d *decompressor) feed(p []byte) error {
	d.compressedIn += int64(len(p))
	_, err := d.pw.Write(p)
	return err
}

func (d *decompressor) closeWrite(err error) {
	d.pw.CloseWithError(err)
}

// drain reads all currently-available decompressed bytes into a buffer,
// tracking decompressedOut so a later reconcile call can credit flow
// control proportionally.
func (d *decompressor) drain(dst *bytes.Buffer) error {
	if d.reader == nil {
		zr, err := gzip.NewReader(d.pr)
		if err != nil {
			return wrapStreamError(0, ErrCodeInternal, err)
		}
		d.reader = zr
	}
	buf := make([]byte, 32*1024)
	for {
		n, err := d.reader.Read(buf)
		if n > 0 {
			d.decompressedOut += int64(n)
			dst.Write(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err == io.ErrClosedPipe {
			return nil
		}
		if err != nil {
			if n == 0 {
				return streamError(0, ErrCodeInternal, "decompressing body: %v", err)
			}
			return nil
		}
		if n == 0 {
			return nil
		}
	}
}

// reconcile applies the ratio accounting rule: given that the application
// just consumed k decompressed bytes out of decompressedOut bytes produced
// so far, compute the proportional share of compressedIn those k bytes are
// worth (ratio = k/decompressedOut, consume = ceil(compressedIn*ratio)),
// decrement both running totals by their consumed share, and return the
// compressed-byte amount to credit back to the stream's flow controller.
func (d *decompressor) reconcile(k int64) (release int64, err error) {
	if k == 0 {
		return 0, nil
	}
	if d.decompressedOut == 0 {
		return 0, streamError(0, ErrCodeInternal, "decompressor consumed bytes with none produced")
	}

	ratio := float64(k) / float64(d.decompressedOut)
	consume := int64(math.Ceil(float64(d.compressedIn) * ratio))

	remainingCompressed := d.compressedIn - consume
	if remainingCompressed < 0 {
		return 0, streamError(0, ErrCodeInternal, "decompressor produced more output bytes than compressed input seen")
	}

	d.compressedIn = remainingCompressed
	d.decompressedOut -= k
	return consume, nil
}

func (d *decompressor) Close() error {
	d.pw.Close()
	if d.reader != nil {
		return d.reader.Close()
	}
	return nil
}
