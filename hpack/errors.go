// Package hpack implements HPACK header compression (RFC 7541) for HTTP/2.
package hpack

import "fmt"

// CompressionError indicates a malformed compressed header block: a bad
// integer encoding, an indexed field referring outside the addressable
// space, or a dynamic table size update in the wrong position. A
// CompressionError is always fatal to the HTTP/2 connection since it leaves
// the two peers' dynamic tables out of sync (RFC 7541 §4.2, §6.3).
type CompressionError struct {
	Msg string
}

func (e *CompressionError) Error() string {
	return "hpack: compression error: " + e.Msg
}

func newCompressionError(format string, args ...any) error {
	return &CompressionError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationError indicates a header field that decoded cleanly but
// violates HTTP/2's semantic rules over HPACK's wire format: a
// pseudo-header following a regular header, a mix of request and response
// pseudo-headers in one block, an unknown pseudo-header, or a header list
// that exceeds the configured maximum size. Unlike CompressionError, this
// only isolates the stream that produced it (RFC 7540 §8.1.2.1, §8.1.2.6);
// the dynamic table state itself remains valid and the connection proceeds.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "hpack: validation error: " + e.Msg
}

func newValidationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
