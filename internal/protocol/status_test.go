package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus([]byte("238"))
	require.NoError(t, err)
	assert.True(t, s.Ended)
	assert.Equal(t, "game ended", s.String())

	s, err = ParseStatus([]byte("12\r\n"))
	require.NoError(t, err)
	assert.False(t, s.Ended)
	assert.Equal(t, 12, s.Value)
	assert.Equal(t, "status 12", s.String())
}

func TestParseStatusInvalid(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "1.5"} {
		_, err := ParseStatus([]byte(in))
		assert.ErrorIs(t, err, ErrInvalidStatus, "input %q", in)
	}
}
