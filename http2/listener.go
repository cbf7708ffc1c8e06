package http2

// Listener receives callbacks for every frame a Connection processes.
// Implementations only need to override the events they care about; embed
// BaseListener to get no-op defaults for the rest.
type Listener interface {
	onHeadersRead(streamID uint32, headers []Header, endStream bool)
	// onDataRead reports an inbound DATA payload and returns how many of
	// its bytes the application considers consumed; only those bytes are
	// credited back to the receive window. The remainder of a short count
	// is never released later, so the window stays that much smaller.
	onDataRead(streamID uint32, data []byte, endStream bool) (consumed int)
	onRstStreamRead(streamID uint32, code ErrCode)
	onSettingsRead(settings *ConnectionSettings)
	onSettingsAckRead()
	onPingRead(opaque [8]byte)
	onPingAckRead(opaque [8]byte)
	onPushPromiseRead(streamID, promisedID uint32, headers []Header)
	onGoAwayRead(lastStreamID uint32, code ErrCode, debugData []byte)
	onWindowUpdateRead(streamID uint32, increment uint32)
	onPriorityRead(streamID, dependsOn uint32, weight uint8, exclusive bool)
	onUnknownFrame(f Frame)
}

// Header is the decoded, application-facing view of an hpack.HeaderField:
// name and value only. Pseudo-header names keep their leading ':'.
type Header struct {
	Name  string
	Value string
}

// BaseListener implements Listener with every method a no-op, so a
// concrete listener can embed it and override only the callbacks it needs.
type BaseListener struct{}

func (BaseListener) onHeadersRead(uint32, []Header, bool) {}
func (BaseListener) onDataRead(_ uint32, data []byte, _ bool) int {
	return len(data)
}
func (BaseListener) onRstStreamRead(uint32, ErrCode)            {}
func (BaseListener) onSettingsRead(*ConnectionSettings)         {}
func (BaseListener) onSettingsAckRead()                         {}
func (BaseListener) onPingRead([8]byte)                         {}
func (BaseListener) onPingAckRead([8]byte)                      {}
func (BaseListener) onPushPromiseRead(uint32, uint32, []Header) {}
func (BaseListener) onGoAwayRead(uint32, ErrCode, []byte)       {}
func (BaseListener) onWindowUpdateRead(uint32, uint32)          {}
func (BaseListener) onPriorityRead(uint32, uint32, uint8, bool) {}
func (BaseListener) onUnknownFrame(Frame)                       {}

var _ Listener = BaseListener{}
