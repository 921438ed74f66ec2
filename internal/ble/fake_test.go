package ble

import (
	"context"
	"errors"
	"sync"
)

// fakeRadio is an in-memory Radio driven by the tests.
type fakeRadio struct {
	mu        sync.Mutex
	enableErr error
	connectFn func(ctx context.Context, address string) (Link, error)
	found     func(PeerDescriptor)
	onLost    func(string)
	scans     int
	stops     int
	connects  []string
	scanning  chan struct{}
	stopped   chan struct{}
}

func newFakeRadio() *fakeRadio {
	return &fakeRadio{scanning: make(chan struct{}, 16)}
}

func (r *fakeRadio) Enable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enableErr
}

func (r *fakeRadio) Scan(_ []string, found func(PeerDescriptor)) error {
	stopped := make(chan struct{})
	r.mu.Lock()
	r.found = found
	r.stopped = stopped
	r.scans++
	r.mu.Unlock()
	r.scanning <- struct{}{}
	<-stopped
	return nil
}

func (r *fakeRadio) StopScan() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	if r.stopped == nil {
		return errors.New("not scanning")
	}
	close(r.stopped)
	r.stopped = nil
	return nil
}

func (r *fakeRadio) Connect(ctx context.Context, address string) (Link, error) {
	r.mu.Lock()
	r.connects = append(r.connects, address)
	fn := r.connectFn
	r.mu.Unlock()
	return fn(ctx, address)
}

func (r *fakeRadio) SetDisconnectHandler(h func(string)) {
	r.mu.Lock()
	r.onLost = h
	r.mu.Unlock()
}

// advertise delivers p to the running scan callback, if any.
func (r *fakeRadio) advertise(p PeerDescriptor) {
	r.mu.Lock()
	found := r.found
	r.mu.Unlock()
	if found != nil {
		found(p)
	}
}

func (r *fakeRadio) dropLink(address string) {
	r.mu.Lock()
	h := r.onLost
	r.mu.Unlock()
	h(address)
}

func (r *fakeRadio) connectCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connects)
}

func (r *fakeRadio) scanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans
}

type fakeLink struct {
	address  string
	services []Service
	err      error
	radio    *fakeRadio

	mu           sync.Mutex
	disconnected bool
}

func (l *fakeLink) Address() string { return l.address }

func (l *fakeLink) DiscoverServices([]string) ([]Service, error) {
	return l.services, l.err
}

func (l *fakeLink) Disconnect() error {
	l.mu.Lock()
	l.disconnected = true
	l.mu.Unlock()
	if l.radio != nil {
		l.radio.dropLink(l.address)
	}
	return nil
}

func (l *fakeLink) isDisconnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disconnected
}

type fakeService struct {
	uuid  string
	chars []Characteristic
	err   error
}

func (s *fakeService) UUID() string { return s.uuid }

func (s *fakeService) DiscoverCharacteristics([]string) ([]Characteristic, error) {
	return s.chars, s.err
}

type fakeChar struct {
	uuid string
	caps Capability

	mu     sync.Mutex
	writes [][]byte
	notify func([]byte)
}

func (c *fakeChar) UUID() string             { return c.uuid }
func (c *fakeChar) Capabilities() Capability { return c.caps }

func (c *fakeChar) WriteWithoutResponse(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (c *fakeChar) EnableNotifications(cb func([]byte)) error {
	c.mu.Lock()
	c.notify = cb
	c.mu.Unlock()
	return nil
}

func (c *fakeChar) written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

func (c *fakeChar) push(data []byte) bool {
	c.mu.Lock()
	cb := c.notify
	c.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(data)
	return true
}

// matHub wires a fake radio to one healthy mat.
func matHub() (*fakeRadio, *fakeLink, *fakeChar) {
	char := &fakeChar{uuid: CharacteristicUUID, caps: CapWriteWithoutResponse | CapNotify}
	svc := &fakeService{uuid: ServiceUUID, chars: []Characteristic{char}}
	radio := newFakeRadio()
	link := &fakeLink{address: "AA:BB:CC:DD:EE:01", services: []Service{svc}, radio: radio}
	radio.connectFn = func(context.Context, string) (Link, error) { return link, nil }
	return radio, link, char
}
