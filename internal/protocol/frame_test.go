package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWithLineEnding(t *testing.T) {
	got := Encode(DeviceID("abc"), []byte{0x30, 0x32}, true)
	assert.Equal(t, Frame("abc\x7E\x30\x32\x0A\x0D"), got)
}

func TestEncodeWithoutLineEnding(t *testing.T) {
	got := Encode(DeviceID("abc"), []byte{0x31}, false)
	assert.Equal(t, Frame("abc\x7E\x31"), got)
}

func TestEncodeLengthAndSeparator(t *testing.T) {
	ids := []DeviceID{nil, DeviceID("x"), NewDeviceID("6F9619FF-8B86-D011-B42D-00C04FC964FF")}
	payloads := [][]byte{nil, {0x00}, {0x30, 0x31, 0x32, 0x33}, make([]byte, 300)}

	for _, id := range ids {
		for _, payload := range payloads {
			for _, le := range []bool{false, true} {
				f := Encode(id, payload, le)
				want := len(id) + 1 + len(payload)
				if le {
					want += 2
				}
				require.Len(t, f, want)
				assert.Equal(t, Separator, f[len(id)])
			}
		}
	}
}

func TestEncodeDoesNotEscapeSeparator(t *testing.T) {
	payload := []byte{0x30, Separator, 0x31}
	f := Encode(DeviceID("id"), payload, false)
	assert.Equal(t, Frame("id\x7E\x30\x7E\x31"), f)
	assert.True(t, ContainsSeparator(payload))
	assert.False(t, ContainsSeparator([]byte{0x30, 0x31}))
}

func TestEncodeCopiesPayload(t *testing.T) {
	payload := []byte{0x30}
	f := Encode(DeviceID("a"), payload, false)
	payload[0] = 0x33
	assert.Equal(t, byte(0x30), f[2])
}

func TestSplit(t *testing.T) {
	id, payload, ok := Split(Encode(DeviceID("dev"), []byte{0x32, 0x33}, true))
	require.True(t, ok)
	assert.Equal(t, DeviceID("dev"), id)
	assert.Equal(t, []byte{0x32, 0x33}, payload)

	_, _, ok = Split(Frame("no separator"))
	assert.False(t, ok)
}

func TestChunk(t *testing.T) {
	data := make([]byte, 450)
	for i := range data {
		data[i] = byte(i)
	}

	chunks := Chunk(data, 200)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 200)
	assert.Len(t, chunks[1], 200)
	assert.Len(t, chunks[2], 50)
	assert.Equal(t, byte(200), chunks[1][0])

	assert.Len(t, Chunk(data, 0), 3, "non-positive size uses the default")
	assert.Empty(t, Chunk(nil, 10))
}
