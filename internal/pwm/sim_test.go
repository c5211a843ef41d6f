package pwm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSim(t *testing.T) {
	s := NewSim(8)
	assert.Equal(t, 8, s.Channels())

	require.NoError(t, s.SetDutyCycle(1, 0xFFFF))
	require.NoError(t, s.SetDutyCycle(0, 300))
	require.NoError(t, s.SetDutyCycle(0, 400))

	assert.Equal(t, uint16(400), s.Value(0))
	assert.Equal(t, uint16(0xFFFF), s.Value(1))
	assert.Equal(t, []Write{{1, 0xFFFF}, {0, 300}, {0, 400}}, s.Writes())

	assert.ErrorIs(t, s.SetDutyCycle(8, 1), ErrChannelRange)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.SetDutyCycle(0, 1), ErrClosed)
}

func TestSimDefaultChannels(t *testing.T) {
	assert.Equal(t, 16, NewSim(0).Channels())
}
