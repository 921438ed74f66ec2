package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/soundleap/soundleap-cli/internal/ble"
	"github.com/soundleap/soundleap-cli/internal/config"
	"github.com/soundleap/soundleap-cli/internal/protocol"
)

const closeTimeout = 2 * time.Second

// Session is a running connection manager plus the goroutine driving it.
type Session struct {
	*ble.Manager

	cfg    config.BLEConfig
	cancel context.CancelFunc
	done   chan error

	closeOnce sync.Once
	closeErr  error
}

// TargetFor builds the scan target for a user code from BLE config.
// Suffix matching compares the bare code; the other modes include the
// name prefix.
func TargetFor(cfg config.BLEConfig, code string) (ble.Target, error) {
	if err := ble.ValidateCode(code); err != nil {
		return ble.Target{}, err
	}
	mode, err := ble.ParseMatchMode(cfg.MatchMode)
	if err != nil {
		return ble.Target{}, err
	}

	pattern := cfg.NamePrefix + code
	if mode == ble.MatchSuffix {
		pattern = code
	}
	return ble.Target{
		ServiceID:        cfg.ServiceUUID,
		CharacteristicID: cfg.CharacteristicUUID,
		Filter:           ble.NameFilter{Pattern: pattern, Mode: mode},
	}, nil
}

// OpenSession starts a manager on radio. Close must be called.
func OpenSession(env *Env, radio ble.Radio) (*Session, error) {
	id, err := env.DeviceID()
	if err != nil {
		return nil, err
	}

	m := ble.NewManager(radio, id, ble.Options{
		ConnectTimeout: env.Config.BLE.ConnectTimeout,
		Logger:         env.Logger.With("component", "ble"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{Manager: m, cfg: env.Config.BLE, cancel: cancel, done: make(chan error, 1)}
	go func() {
		s.done <- m.Run(ctx)
	}()
	return s, nil
}

// Connect scans for the mat showing code and waits until the link is
// Ready, bounded by the configured scan timeout.
func (s *Session) Connect(ctx context.Context, code string) error {
	target, err := TargetFor(s.cfg, code)
	if err != nil {
		return err
	}
	if err := s.Start(ctx, target); err != nil {
		return err
	}

	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}
	if err := s.WaitFor(ctx, ble.StateReady); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("no mat found for code %s (state %s)", code, s.State())
		}
		return err
	}
	return nil
}

// Close tears down the link and stops the manager loop. It is safe to
// call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()

		err := s.Stop(ctx)
		if errors.Is(err, ble.ErrStopped) {
			err = nil
		}
		s.cancel()
		if runErr := <-s.done; runErr != nil && !errors.Is(runErr, context.Canceled) {
			err = errors.Join(err, runErr)
		}
		s.closeErr = err
	})
	return s.closeErr
}

// Dial connects to the mat showing code over the system adapter.
func Dial(ctx context.Context, env *Env, code string) (*Session, error) {
	s, err := OpenSession(env, ble.NewTinyGoRadio(env.Logger.With("component", "radio")))
	if err != nil {
		return nil, err
	}

	fmt.Printf("Scanning for mat %s...\n", code)
	if err := s.Connect(ctx, code); err != nil {
		s.Close()
		return nil, err
	}

	if conn, ok := s.Session(); ok {
		fmt.Printf("Connected to %s [%s]\n", conn.Peer.Name, conn.Peer.Address)
	}
	return s, nil
}

// WaitForStatus blocks until the hub reports a status that satisfies
// done, and returns it.
func WaitForStatus(ctx context.Context, m *ble.Manager, done func(protocol.Status) bool) (protocol.Status, error) {
	updates, unsubscribe := m.Subscribe()
	defer unsubscribe()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return protocol.Status{}, ble.ErrStopped
			}
			if u.Status != nil && done(*u.Status) {
				return *u.Status, nil
			}
			if u.State == ble.StateIdle {
				return protocol.Status{}, ble.ErrStopped
			}
		case <-ctx.Done():
			return protocol.Status{}, ctx.Err()
		}
	}
}
