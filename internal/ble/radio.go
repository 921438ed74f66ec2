package ble

import "context"

// Capability is a bit set of characteristic properties.
type Capability uint8

const (
	CapWriteWithoutResponse Capability = 1 << iota
	CapWrite
	CapNotify
)

// Has reports whether all bits of c are set.
func (p Capability) Has(c Capability) bool {
	return p&c == c
}

// PeerDescriptor is one advertisement seen while scanning.
type PeerDescriptor struct {
	Name     string
	Address  string
	RSSI     int16
	Services []string
}

// Radio is the central-role BLE stack the manager drives.
type Radio interface {
	// Enable powers up the adapter. An error means the radio is unavailable.
	Enable() error
	// Scan blocks, reporting advertisements until StopScan is called.
	// services lists identifiers the caller cares about; implementations
	// that can only test membership report the subset that is advertised.
	Scan(services []string, found func(PeerDescriptor)) error
	StopScan() error
	Connect(ctx context.Context, address string) (Link, error)
	// SetDisconnectHandler registers the callback fired on link loss.
	SetDisconnectHandler(func(address string))
}

// Link is an established connection to one peer.
type Link interface {
	Address() string
	DiscoverServices(uuids []string) ([]Service, error)
	Disconnect() error
}

// Service is a discovered GATT service.
type Service interface {
	UUID() string
	DiscoverCharacteristics(uuids []string) ([]Characteristic, error)
}

// Characteristic is a discovered GATT characteristic.
type Characteristic interface {
	UUID() string
	Capabilities() Capability
	WriteWithoutResponse(p []byte) (int, error)
	EnableNotifications(func(buf []byte)) error
}
