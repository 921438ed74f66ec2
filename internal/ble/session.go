package ble

import (
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/soundleap/soundleap-cli/internal/protocol"
)

var (
	// ErrAdapterUnavailable means the radio is off or missing; scanning did not start.
	ErrAdapterUnavailable = errors.New("bluetooth adapter unavailable")
	// ErrNotReady is returned for writes attempted before the link is Ready.
	ErrNotReady = errors.New("connection not ready")
	// ErrWriteRejected is returned when the characteristic cannot take unacknowledged writes.
	ErrWriteRejected = errors.New("characteristic does not support write without response")
	ErrAlreadyStarted = errors.New("manager already started")
	ErrAlreadyRunning = errors.New("manager loop already running")
	ErrStopped        = errors.New("manager stopped")
)

// State is the connection manager's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateConnecting
	StateReady
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Target is what Start looks for.
type Target struct {
	ServiceID        string
	CharacteristicID string
	Filter           NameFilter
}

// DefaultTarget returns the mat hub target for a user code.
func DefaultTarget(code string) Target {
	return Target{
		ServiceID:        ServiceUUID,
		CharacteristicID: CharacteristicUUID,
		Filter:           CodeFilter(code),
	}
}

func (t Target) validate() error {
	if t.ServiceID == "" {
		return errors.New("target service id is empty")
	}
	if t.CharacteristicID == "" {
		return errors.New("target characteristic id is empty")
	}
	return nil
}

// ActiveConnection is the single live session. Only the manager loop mutates it.
type ActiveConnection struct {
	ID             ulid.ULID
	Peer           PeerDescriptor
	Link           Link
	Service        Service
	Characteristic Characteristic
	State          State
}

// EventKind tags an Event.
type EventKind int

const (
	EventScanResult EventKind = iota
	EventConnected
	EventDisconnected
	EventServicesDiscovered
	EventCharacteristicsDiscovered
	EventWriteCompleted
	EventNotification
)

func (k EventKind) String() string {
	switch k {
	case EventScanResult:
		return "scan-result"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventServicesDiscovered:
		return "services-discovered"
	case EventCharacteristicsDiscovered:
		return "characteristics-discovered"
	case EventWriteCompleted:
		return "write-completed"
	case EventNotification:
		return "notification"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a radio callback queued for the manager loop.
type Event struct {
	Kind            EventKind
	Peer            PeerDescriptor
	Address         string
	Link            Link
	Services        []Service
	Characteristics []Characteristic
	Data            []byte
	N               int
	Err             error

	epoch uint64
}

// Update is published to subscribers on state changes and mat notifications.
type Update struct {
	State    State
	Previous State
	Session  ulid.ULID
	Peer     PeerDescriptor
	// Status is set for decoded mat notifications; State is unchanged then.
	Status *protocol.Status
	Data   []byte
	Err    error
}
