package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/soundleap/soundleap-cli/internal/protocol"
	"github.com/soundleap/soundleap-cli/internal/util"
)

// ParsePayload reads a payload given as colour names ("red,green") or,
// with isHex, as hex bytes ("14" or "30 31").
func ParsePayload(input string, isHex bool) ([]byte, error) {
	if isHex {
		clean := strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(strings.ToLower(input))
		b, err := hex.DecodeString(clean)
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload: %w", err)
		}
		return b, nil
	}

	seq := protocol.ParseColors(input)
	for i, name := range seq.Names() {
		if name == "" {
			return nil, fmt.Errorf("unknown colour at position %d in %q", i+1, input)
		}
	}
	if seq.Len() == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	return seq.Payload(), nil
}

// EncodeFrame prints the frame that would be written for payload,
// without connecting.
func EncodeFrame(w io.Writer, id protocol.DeviceID, payload []byte, lineEnding bool) {
	frame := protocol.Encode(id, payload, lineEnding)

	fmt.Fprintf(w, "Device ID: %s\n", id)
	fmt.Fprintf(w, "Payload (%d bytes): %X\n", len(payload), payload)
	if protocol.ContainsSeparator(payload) {
		fmt.Fprintln(w, "Warning: payload contains the 0x7E separator; receivers splitting on it will misparse")
	}
	fmt.Fprintf(w, "Frame (%d bytes):\n", len(frame))
	fmt.Fprint(w, util.HexDump(frame))
}

// DecodeStatus prints how a hub notification would be interpreted.
func DecodeStatus(w io.Writer, raw []byte) error {
	st, err := protocol.ParseStatus(raw)
	if err != nil {
		fmt.Fprint(w, util.HexDump(raw))
		return err
	}
	fmt.Fprintf(w, "Value: %d\n", st.Value)
	fmt.Fprintf(w, "Meaning: %s\n", st)
	return nil
}
