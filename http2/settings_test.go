package http2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDefaults(t *testing.T) {
	s := NewSettings()
	assert.Equal(t, uint32(4096), s.HeaderTableSize)
	assert.True(t, s.EnablePush)
	assert.Equal(t, uint32(65535), s.InitialWindowSize)
	assert.Equal(t, uint32(16384), s.MaxFrameSize)
	assert.Nil(t, s.MaxHeaderListSize)
}

func TestSettingsRejectsMaxFrameSizeBelowMinimum(t *testing.T) {
	s := NewSettings()
	err := s.SetValue(SettingsMaxFrameSize, 100)
	require.Error(t, err)

	cerr, ok := err.(*ConnectionError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeProtocol, cerr.Code)
}

func TestSettingsRejectsMaxFrameSizeAboveMaximum(t *testing.T) {
	s := NewSettings()
	err := s.SetValue(SettingsMaxFrameSize, 1<<24)
	assert.Error(t, err)
}

func TestSettingsRejectsOversizedInitialWindow(t *testing.T) {
	s := NewSettings()
	err := s.SetValue(SettingsInitialWindowSize, 1<<31)
	require.Error(t, err)
	cerr, ok := err.(*ConnectionError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeFlowControl, cerr.Code)
}

func TestSettingsEnablePushMustBeZeroOrOne(t *testing.T) {
	s := NewSettings()
	assert.Error(t, s.SetValue(SettingsEnablePush, 2))
	assert.NoError(t, s.SetValue(SettingsEnablePush, 0))
	assert.False(t, s.EnablePush)
}

func TestSettingsCloneIsIndependent(t *testing.T) {
	s := NewSettings()
	max := uint32(100)
	s.MaxHeaderListSize = &max

	c := s.Clone()
	*c.MaxHeaderListSize = 200

	assert.Equal(t, uint32(100), *s.MaxHeaderListSize)
	assert.Equal(t, uint32(200), *c.MaxHeaderListSize)
}

func TestDecodePayloadStopsAtFirstInvalidValue(t *testing.T) {
	s := NewSettings()
	err := s.DecodePayload([]SettingFrameArgs{
		{Param: SettingsHeaderTableSize, Value: 8192},
		{Param: SettingsMaxFrameSize, Value: 1},
	})
	require.Error(t, err)
	assert.Equal(t, uint32(8192), s.HeaderTableSize)
}
