package protocol

import "bytes"

// Separator divides the device id from the payload.
const Separator byte = 0x7E

// LineEnding is appended when a frame ends a command. The byte order is
// LF then CR, which is what the mat firmware has always been sent.
var LineEnding = []byte{0x0A, 0x0D}

// DefaultChunkSize is the largest payload slice sent in one frame when
// uploading game code.
const DefaultChunkSize = 200

// Encode builds a frame from the device id, the command payload and an
// optional line ending. Payload bytes are copied verbatim; a 0x7E inside
// the payload is not escaped.
func Encode(deviceID DeviceID, payload []byte, appendLineEnding bool) Frame {
	size := len(deviceID) + 1 + len(payload)
	if appendLineEnding {
		size += len(LineEnding)
	}

	out := make([]byte, 0, size)
	out = append(out, deviceID...)
	out = append(out, Separator)
	out = append(out, payload...)
	if appendLineEnding {
		out = append(out, LineEnding...)
	}
	return Frame(out)
}

// ContainsSeparator reports whether payload carries the separator byte,
// which makes the frame boundary ambiguous for the receiver.
func ContainsSeparator(payload []byte) bool {
	return bytes.IndexByte(payload, Separator) >= 0
}

// Split returns the device id and payload of a frame, with any trailing
// line ending removed. It splits on the first separator, so it recovers
// the payload exactly only when the device id itself has no 0x7E.
func Split(f Frame) (DeviceID, []byte, bool) {
	idx := bytes.IndexByte(f, Separator)
	if idx < 0 {
		return nil, nil, false
	}
	payload := bytes.TrimSuffix([]byte(f[idx+1:]), LineEnding)
	return DeviceID(f[:idx]), payload, true
}

// Chunk splits payload into slices of at most size bytes. A non-positive
// size falls back to DefaultChunkSize. An empty payload yields no chunks.
func Chunk(payload []byte, size int) [][]byte {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]byte
	for offset := 0; offset < len(payload); offset += size {
		end := offset + size
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, payload[offset:end])
	}
	return chunks
}
