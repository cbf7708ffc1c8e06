package http2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecvFlowControllerReleaseEmitsWindowUpdatePastRatio(t *testing.T) {
	f := newRecvFlowController(100, 0.5)

	require.NoError(t, f.dataReceived(60))
	// Only 10 of the 60 received bytes are released, below the 0.5 * 100
	// threshold, so no update is due until 50 have been released.
	assert.Equal(t, uint32(0), f.release(10))

	got := f.release(40)
	assert.Equal(t, uint32(50), got)
}

func TestRecvFlowControllerDataReceivedViolation(t *testing.T) {
	f := newRecvFlowController(10, 0.5)
	err := f.dataReceived(20)
	assert.Error(t, err)
}

func TestSendFlowControllerIncrementOverflow(t *testing.T) {
	f := newSendFlowController(maxWindowSize - 1)
	err := f.increment(2)
	assert.Error(t, err)
}

func TestSendFlowControllerReserveBlocksUntilIncrement(t *testing.T) {
	f := newSendFlowController(0)

	done := make(chan struct{})
	var n int
	go func() {
		var err error
		n, err = f.reserve(100)
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("reserve returned before any window was available")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, f.increment(30))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reserve never unblocked after increment")
	}
	assert.Equal(t, 30, n)
}

func TestSendFlowControllerCloseUnblocksReserve(t *testing.T) {
	f := newSendFlowController(0)
	errCh := make(chan error, 1)
	go func() {
		_, err := f.reserve(10)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	f.close()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("reserve never unblocked after close")
	}
}
