package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameKeyName(t *testing.T) {
	assert.Equal(t, "121", FrameKey{From: '1', To: '2', Step: 1}.Name())
	assert.Equal(t, "330", Settled('3').Name())
	assert.Equal(t, "xx0", Settled('x').String())
	assert.True(t, Settled('0').IsSettled())
	assert.False(t, FrameKey{From: '5', To: '0', Step: 3}.IsSettled())
}

func TestParseFrameKey(t *testing.T) {
	for _, name := range []string{"000", "121", "503", "x12", "1x3"} {
		k, err := ParseFrameKey(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, k.Name())
	}

	for _, name := range []string{"", "12", "1234", "124", "12a", "120", ColonOn} {
		_, err := ParseFrameKey(name)
		assert.Error(t, err, name)
	}
}
