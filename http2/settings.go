package http2

import "encoding/binary"

type SettingsParam uint16

const (
	SettingsHeaderTableSize      SettingsParam = 0x1
	SettingsEnablePush           SettingsParam = 0x2
	SettingsMaxConcurrentStreams SettingsParam = 0x3
	SettingsInitialWindowSize    SettingsParam = 0x4
	SettingsMaxFrameSize         SettingsParam = 0x5
	SettingsMaxHeaderListSize    SettingsParam = 0x6
)

const (
	minMaxFrameSize = 1 << 14       // 16384, RFC 7540 §6.5.2
	maxMaxFrameSize = 1<<24 - 1     // 16777215
	maxWindowSize   = 1<<31 - 1     // RFC 7540 §6.9.1
)

// ConnectionSettings holds one direction's negotiated SETTINGS values: a
// Connection keeps one for what it has told the peer (local) and one for
// what the peer has told it (remote).
type ConnectionSettings struct {
	HeaderTableSize      uint32
	EnablePush           bool
	MaxConcurrentStreams uint32
	InitialWindowSize    uint32
	MaxFrameSize         uint32
	MaxHeaderListSize    *uint32 // nil means unlimited

	// WindowUpdateRatio controls when this endpoint emits a WINDOW_UPDATE
	// for data it has consumed: once the unacknowledged bytes reach this
	// fraction of the advertised window, an update is sent. Not a wire
	// SETTINGS value; a purely local flow-control tuning knob.
	WindowUpdateRatio float64
}

// NewSettings returns the RFC 7540 §6.5.2 default values.
func NewSettings() *ConnectionSettings {
	return &ConnectionSettings{
		HeaderTableSize:      4096,
		EnablePush:           true,
		MaxConcurrentStreams: ^uint32(0), // unlimited
		InitialWindowSize:    65535,
		MaxFrameSize:         16384,
		MaxHeaderListSize:    nil,
		WindowUpdateRatio:    0.5,
	}
}

// Clone returns an independent copy so a connection can snapshot the
// settings in effect when a stream was created.
func (s *ConnectionSettings) Clone() *ConnectionSettings {
	c := *s
	if s.MaxHeaderListSize != nil {
		v := *s.MaxHeaderListSize
		c.MaxHeaderListSize = &v
	}
	return &c
}

// SetValue applies one SETTINGS parameter, returning an error if the value
// is outside the range RFC 7540 §6.5.2 allows for that parameter. Unknown
// parameters are ignored per §6.5.2's "MUST ignore" rule.
func (s *ConnectionSettings) SetValue(param SettingsParam, value uint32) error {
	switch param {
	case SettingsHeaderTableSize:
		s.HeaderTableSize = value
	case SettingsEnablePush:
		if value > 1 {
			return connError(ErrCodeProtocol, "SETTINGS_ENABLE_PUSH must be 0 or 1, got %d", value)
		}
		s.EnablePush = value == 1
	case SettingsMaxConcurrentStreams:
		s.MaxConcurrentStreams = value
	case SettingsInitialWindowSize:
		if value > maxWindowSize {
			return connError(ErrCodeFlowControl, "SETTINGS_INITIAL_WINDOW_SIZE %d exceeds %d", value, maxWindowSize)
		}
		s.InitialWindowSize = value
	case SettingsMaxFrameSize:
		if value < minMaxFrameSize || value > maxMaxFrameSize {
			return connError(ErrCodeProtocol, "SETTINGS_MAX_FRAME_SIZE %d outside [%d, %d]", value, minMaxFrameSize, maxMaxFrameSize)
		}
		s.MaxFrameSize = value
	case SettingsMaxHeaderListSize:
		v := value
		s.MaxHeaderListSize = &v
	}
	return nil
}

// DecodePayload applies every parameter in a decoded SETTINGS frame body
// in order, stopping at the first invalid value.
func (s *ConnectionSettings) DecodePayload(args []SettingFrameArgs) error {
	for _, a := range args {
		if err := s.SetValue(a.Param, a.Value); err != nil {
			return err
		}
	}
	return nil
}

// settingsArgs renders s as wire SETTINGS parameters, for use building an
// initial or delta SETTINGS frame: the four numeric values are always
// included, ENABLE_PUSH only when push is disabled and
// MAX_HEADER_LIST_SIZE only when it is set.
func (s *ConnectionSettings) settingsArgs() []SettingFrameArgs {
	args := []SettingFrameArgs{
		{Param: SettingsHeaderTableSize, Value: s.HeaderTableSize},
		{Param: SettingsMaxConcurrentStreams, Value: s.MaxConcurrentStreams},
		{Param: SettingsInitialWindowSize, Value: s.InitialWindowSize},
		{Param: SettingsMaxFrameSize, Value: s.MaxFrameSize},
	}
	if !s.EnablePush {
		args = append(args, SettingFrameArgs{Param: SettingsEnablePush, Value: 0})
	}
	if s.MaxHeaderListSize != nil {
		args = append(args, SettingFrameArgs{Param: SettingsMaxHeaderListSize, Value: *s.MaxHeaderListSize})
	}
	return args
}

func encodeSettingsParam(dst []byte, param SettingsParam, value uint32) []byte {
	dst = append(dst, byte(param>>8), byte(param))
	return binary.BigEndian.AppendUint32(dst, value)
}
