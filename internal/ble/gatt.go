package ble

import (
	"fmt"

	"tinygo.org/x/bluetooth"
)

type tinyGoLink struct {
	device  bluetooth.Device
	address string
}

func (l *tinyGoLink) Address() string { return l.address }

func (l *tinyGoLink) DiscoverServices(uuids []string) ([]Service, error) {
	filter, err := parseUUIDs(uuids)
	if err != nil {
		return nil, err
	}
	svcs, err := l.device.DiscoverServices(filter)
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}
	out := make([]Service, 0, len(svcs))
	for i := range svcs {
		out = append(out, &tinyGoService{svc: &svcs[i]})
	}
	return out, nil
}

func (l *tinyGoLink) Disconnect() error {
	return l.device.Disconnect()
}

type tinyGoService struct {
	svc *bluetooth.DeviceService
}

func (s *tinyGoService) UUID() string { return s.svc.UUID().String() }

func (s *tinyGoService) DiscoverCharacteristics(uuids []string) ([]Characteristic, error) {
	filter, err := parseUUIDs(uuids)
	if err != nil {
		return nil, err
	}
	chars, err := s.svc.DiscoverCharacteristics(filter)
	if err != nil {
		return nil, fmt.Errorf("discover characteristics: %w", err)
	}
	out := make([]Characteristic, 0, len(chars))
	for i := range chars {
		out = append(out, &tinyGoCharacteristic{char: &chars[i]})
	}
	return out, nil
}

// tinyGoCharacteristic assumes the HM-10 style FFE1 profile: the stack
// does not expose characteristic properties on every platform.
type tinyGoCharacteristic struct {
	char *bluetooth.DeviceCharacteristic
}

func (c *tinyGoCharacteristic) UUID() string { return c.char.UUID().String() }

func (c *tinyGoCharacteristic) Capabilities() Capability {
	return CapWriteWithoutResponse | CapNotify
}

func (c *tinyGoCharacteristic) WriteWithoutResponse(p []byte) (int, error) {
	return c.char.WriteWithoutResponse(p)
}

func (c *tinyGoCharacteristic) EnableNotifications(cb func(buf []byte)) error {
	return c.char.EnableNotifications(cb)
}

func parseUUIDs(ids []string) ([]bluetooth.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]bluetooth.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := bluetooth.ParseUUID(id)
		if err != nil {
			return nil, fmt.Errorf("parse uuid %q: %w", id, err)
		}
		out = append(out, u)
	}
	return out, nil
}
