package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorCode(t *testing.T) {
	tests := []struct {
		name string
		want byte
	}{
		{"red", 0x30},
		{"yellow", 0x31},
		{"green", 0x32},
		{"blue", 0x33},
		{"Blue", 0x33},
		{" green ", 0x32},
		{"purple", 0x00},
		{"", 0x00},
		{"redd", 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ColorCode(tt.name))
		})
	}
}

func TestColorName(t *testing.T) {
	for _, c := range Colors {
		assert.Equal(t, c, ColorName(ColorCode(c)))
	}
	assert.Equal(t, "", ColorName(0x00))
}

func TestColorSequencePayload(t *testing.T) {
	s := NewColorSequence("red", "green")
	s.Add("blue")
	s.Add("pink")

	require.Equal(t, 4, s.Len())
	assert.Equal(t, []byte{0x30, 0x32, 0x33, 0x00}, s.Payload())
	assert.Equal(t, []string{"red", "green", "blue", ""}, s.Names())

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Payload())
}

func TestColorSequencePayloadIsACopy(t *testing.T) {
	s := NewColorSequence("red")
	p := s.Payload()
	p[0] = 0x00
	assert.Equal(t, []byte{0x30}, s.Payload())
}

func TestParseColors(t *testing.T) {
	s := ParseColors("red, yellow;green blue")
	assert.Equal(t, []byte{0x30, 0x31, 0x32, 0x33}, s.Payload())
	assert.Equal(t, 0, ParseColors("").Len())
}

func TestColorRoundFrame(t *testing.T) {
	s := NewColorSequence("red", "green")
	f := Encode(DeviceID("abc"), s.Payload(), true)
	assert.Equal(t, Frame("abc\x7E\x30\x32\x0A\x0D"), f)
}
