package protocol

// DeviceID identifies the controlling app instance on the mat hub.
// It is the UTF-8 encoding of a stable device UUID string and never
// changes for the lifetime of an installation.
type DeviceID []byte

// NewDeviceID returns the wire form of a device UUID string.
func NewDeviceID(id string) DeviceID {
	return DeviceID(id)
}

// String returns the identifier as text.
func (d DeviceID) String() string {
	return string(d)
}

// Frame is one complete write to the control characteristic:
//
//	[device id utf-8][0x7E][payload][0x0A 0x0D]?
//
// There is no length prefix and no checksum.
type Frame []byte

// Command bytes understood by the mat hub.
const (
	// StartGame tells the hub a game configuration follows
	StartGame byte = 0x14

	// CancelGame aborts the running game
	CancelGame byte = 0xFF

	// GameEnded is sent by the hub (as decimal text) when a game finishes
	GameEnded byte = 0xEE
)

// Pad select bytes, one per physical mat.
const (
	PadOne   byte = 0x01
	PadTwo   byte = 0x02
	PadThree byte = 0x03
)
