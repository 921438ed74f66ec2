package protocol

import "strings"

// Color names accepted by the mats.
const (
	Red    = "red"
	Yellow = "yellow"
	Green  = "green"
	Blue   = "blue"
)

// Colors lists the mat colours in code order.
var Colors = []string{Red, Yellow, Green, Blue}

var colorCodes = map[string]byte{
	Red:    0x30,
	Yellow: 0x31,
	Green:  0x32,
	Blue:   0x33,
}

// ColorCode maps a colour name to its payload byte. Unknown names map
// to 0x00 rather than failing.
func ColorCode(name string) byte {
	return colorCodes[strings.ToLower(strings.TrimSpace(name))]
}

// ColorName is the inverse of ColorCode. It returns "" for unknown codes.
func ColorName(code byte) string {
	for name, c := range colorCodes {
		if c == code {
			return name
		}
	}
	return ""
}

// ColorSequence accumulates colour selections for one round and turns
// them into a payload. The zero value is an empty sequence.
type ColorSequence struct {
	codes []byte
}

// NewColorSequence builds a sequence from colour names.
func NewColorSequence(names ...string) ColorSequence {
	var s ColorSequence
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add appends one colour.
func (s *ColorSequence) Add(name string) {
	s.codes = append(s.codes, ColorCode(name))
}

// Len returns the number of selected colours.
func (s ColorSequence) Len() int {
	return len(s.codes)
}

// Names returns the selected colours; unknown entries come back as "".
func (s ColorSequence) Names() []string {
	names := make([]string, len(s.codes))
	for i, c := range s.codes {
		names[i] = ColorName(c)
	}
	return names
}

// Payload returns one byte per selected colour.
func (s ColorSequence) Payload() []byte {
	out := make([]byte, len(s.codes))
	copy(out, s.codes)
	return out
}

// Reset clears the sequence.
func (s *ColorSequence) Reset() {
	s.codes = nil
}

// ParseColors splits a comma or space separated colour list.
func ParseColors(list string) ColorSequence {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	return NewColorSequence(fields...)
}
