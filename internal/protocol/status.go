package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidStatus is returned when a notification is not a decimal number.
var ErrInvalidStatus = errors.New("invalid status notification")

// Status is a decoded notification from the mat hub.
type Status struct {
	Value int
	Ended bool
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if s.Ended {
		return "game ended"
	}
	return fmt.Sprintf("status %d", s.Value)
}

// ParseStatus decodes a hub notification. The hub sends ASCII decimal
// text; the value 238 (0xEE) marks the end of a game.
func ParseStatus(data []byte) (Status, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return Status{}, fmt.Errorf("%w: empty", ErrInvalidStatus)
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return Status{}, fmt.Errorf("%w: %q", ErrInvalidStatus, text)
	}
	return Status{Value: v, Ended: v == int(GameEnded)}, nil
}
