package http2

import (
	"sync"
)

const maxWindowIncrement = maxWindowSize

// recvFlowController tracks how much a local endpoint is willing to
// receive on one flow-control scope (a stream, or the connection as a
// whole via stream id 0). It mirrors RFC 7540 §6.9's receiver-side
// bookkeeping: window shrinks as DATA arrives, and grows back once the
// consumer has processed enough of it to justify a WINDOW_UPDATE.
type recvFlowController struct {
	mu sync.Mutex

	window      int64 // bytes the peer is still allowed to send
	upperBound  int64 // the window size this endpoint last advertised
	unconsumed  int64 // bytes received but not yet released back
	ratio       float64
}

func newRecvFlowController(initial uint32, ratio float64) *recvFlowController {
	return &recvFlowController{
		window:     int64(initial),
		upperBound: int64(initial),
		ratio:      ratio,
	}
}

// dataReceived accounts for n bytes of DATA (including any padding)
// arriving on this scope. A negative resulting window is a flow-control
// violation the caller must turn into the appropriate error.
func (f *recvFlowController) dataReceived(n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.window -= int64(n)
	f.unconsumed += int64(n)
	if f.window < 0 {
		return errFlowControlViolation
	}
	return nil
}

// updateInitialWindow applies a delta from a SETTINGS_INITIAL_WINDOW_SIZE
// change to this scope's advertised ceiling (RFC 7540 §6.9.2).
func (f *recvFlowController) updateInitialWindow(delta int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.upperBound + delta
	if n < 0 {
		n = 0
	}
	if n > maxWindowIncrement {
		n = maxWindowIncrement
	}
	f.upperBound = n
}

// release marks n bytes as consumed by the application. It returns the
// size of a WINDOW_UPDATE increment to send, or 0 if none is due yet:
// this endpoint waits until the released-but-not-yet-credited bytes reach
// ratio of the advertised window before topping the window back up, so it
// isn't sending a WINDOW_UPDATE for every single read.
func (f *recvFlowController) release(n int) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unconsumed -= int64(n)
	if f.unconsumed < 0 {
		f.unconsumed = 0
	}

	threshold := int64(float64(f.upperBound) * f.ratio)
	increment := f.upperBound - f.window - f.unconsumed
	if increment <= 0 || increment < threshold {
		return 0
	}
	if increment > maxWindowIncrement {
		increment = maxWindowIncrement
	}
	f.window += increment
	return uint32(increment)
}

// sendFlowController tracks how much this endpoint may still send on one
// scope, blocking writers until WINDOW_UPDATE (or a SETTINGS increase)
// makes room, per RFC 7540 §6.9.1's signed 31-bit window.
type sendFlowController struct {
	mu     sync.Mutex
	cond   *sync.Cond
	window int64
	closed bool
}

func newSendFlowController(initial uint32) *sendFlowController {
	f := &sendFlowController{window: int64(initial)}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// increment applies a WINDOW_UPDATE or a SETTINGS-driven delta. A result
// exceeding the signed 31-bit maximum is a flow-control error.
func (f *sendFlowController) increment(delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if delta > 0 && f.window+delta > maxWindowSize {
		return errFlowControlOverflow
	}
	f.window += delta
	if f.window > 0 {
		f.cond.Broadcast()
	}
	return nil
}

// available returns the current window without blocking.
func (f *sendFlowController) available() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.window
}

// reserve blocks until at least 1 byte of window is available (or the
// scope is closed) and returns the amount reserved, capped at want.
func (f *sendFlowController) reserve(want int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.window <= 0 {
		if f.closed {
			return 0, errFlowControllerClosed
		}
		f.cond.Wait()
	}
	n := int(f.window)
	if n > want {
		n = want
	}
	f.window -= int64(n)
	return n, nil
}

func (f *sendFlowController) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}

var (
	errFlowControlViolation = streamErrSentinel("flow control window exceeded")
	errFlowControlOverflow  = streamErrSentinel("flow control window increment overflows 2^31-1")
	errFlowControllerClosed = streamErrSentinel("flow control scope closed")
)

type streamErrSentinel string

func (e streamErrSentinel) Error() string { return string(e) }
