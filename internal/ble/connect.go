package ble

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tinygo.org/x/bluetooth"
)

// TinyGoRadio implements Radio on tinygo.org/x/bluetooth.
type TinyGoRadio struct {
	adapter *bluetooth.Adapter
	logger  *slog.Logger

	mu      sync.Mutex
	enabled bool
	onLost  func(address string)
	seen    map[string]bluetooth.Address
}

// NewTinyGoRadio wraps the platform's default adapter.
func NewTinyGoRadio(logger *slog.Logger) *TinyGoRadio {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &TinyGoRadio{
		adapter: bluetooth.DefaultAdapter,
		logger:  logger,
		seen:    make(map[string]bluetooth.Address),
	}
	r.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		r.mu.Lock()
		h := r.onLost
		r.mu.Unlock()
		if h != nil {
			h(device.Address.String())
		}
	})
	return r
}

// Enable powers the adapter once; a failure can be retried.
func (r *TinyGoRadio) Enable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enabled {
		return nil
	}
	if err := r.adapter.Enable(); err != nil {
		return fmt.Errorf("enable bluetooth: %w", err)
	}
	r.enabled = true
	return nil
}

func (r *TinyGoRadio) Scan(services []string, found func(PeerDescriptor)) error {
	wanted := make([]bluetooth.UUID, 0, len(services))
	for _, s := range services {
		u, err := bluetooth.ParseUUID(s)
		if err != nil {
			return fmt.Errorf("parse service uuid %q: %w", s, err)
		}
		wanted = append(wanted, u)
	}

	return r.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		p := PeerDescriptor{
			Name:    result.LocalName(),
			Address: result.Address.String(),
			RSSI:    result.RSSI,
		}
		r.mu.Lock()
		r.seen[p.Address] = result.Address
		r.mu.Unlock()

		// the advertisement only answers membership queries
		for i, u := range wanted {
			if result.HasServiceUUID(u) {
				p.Services = append(p.Services, services[i])
			}
		}
		found(p)
	})
}

func (r *TinyGoRadio) StopScan() error {
	return r.adapter.StopScan()
}

// Connect dials an address seen while scanning. The stack's connect is not
// cancellable; when ctx ends first, a late link is dropped.
func (r *TinyGoRadio) Connect(ctx context.Context, address string) (Link, error) {
	r.mu.Lock()
	addr, ok := r.seen[address]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("connect %s: address not seen in scan", address)
	}

	type result struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		device, err := r.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- result{device, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("connect %s: %w", address, res.err)
		}
		return &tinyGoLink{device: res.device, address: address}, nil
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.err == nil {
				dropLateLink(r.logger, address, res.device.Disconnect)
			}
		}()
		return nil, fmt.Errorf("connect %s: %w", address, ctx.Err())
	}
}

// dropLateLink closes a link whose connect finished after the caller
// gave up on it.
func dropLateLink(logger *slog.Logger, address string, disconnect func() error) {
	if err := disconnect(); err != nil {
		logger.Debug("disconnect late link", "address", address, "error", err)
	}
}

func (r *TinyGoRadio) SetDisconnectHandler(h func(address string)) {
	r.mu.Lock()
	r.onLost = h
	r.mu.Unlock()
}
