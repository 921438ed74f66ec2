package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/soundleap/soundleap-cli/internal/protocol"
	"github.com/soundleap/soundleap-cli/internal/util"
)

const (
	eventQueueSize  = 256
	subscriberQueue = 32
)

// Options configures a Manager.
type Options struct {
	// ConnectTimeout bounds the link-level connect. Zero waits forever.
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// Manager owns the single connection to a mat hub. Radio callbacks and
// API calls are serialised through one loop started with Run.
type Manager struct {
	radio          Radio
	deviceID       protocol.DeviceID
	writer         *Writer
	logger         *slog.Logger
	connectTimeout time.Duration

	events  chan Event
	cmds    chan command
	done    chan struct{}
	running atomic.Bool
	state   atomic.Int32

	// mu guards everything below; the loop holds it while handling.
	mu      sync.RWMutex
	target  *Target
	conn    *ActiveConnection
	subs    map[int]chan Update
	nextSub int

	epoch         uint64
	scanner       Scanner
	cancelConnect context.CancelFunc
}

type command struct {
	fn    func() error
	reply chan error
}

// NewManager creates a manager that writes frames tagged with deviceID.
func NewManager(radio Radio, deviceID protocol.DeviceID, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		radio:          radio,
		deviceID:       deviceID,
		writer:         NewWriter(logger),
		logger:         logger,
		connectTimeout: opts.ConnectTimeout,
		events:         make(chan Event, eventQueueSize),
		cmds:           make(chan command),
		done:           make(chan struct{}),
		subs:           make(map[int]chan Update),
	}
}

// Run consumes events until ctx is cancelled. It may be called once.
func (m *Manager) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		m.mu.Lock()
		close(m.done)
		for id, ch := range m.subs {
			close(ch)
			delete(m.subs, id)
		}
		m.mu.Unlock()
	}()

	m.radio.SetDisconnectHandler(func(address string) {
		// may be invoked synchronously from Link.Disconnect on the loop
		go m.post(Event{Kind: EventDisconnected, Address: address})
	})

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			if m.State() != StateIdle {
				m.teardown()
			}
			m.mu.Unlock()
			return ctx.Err()
		case c := <-m.cmds:
			m.mu.Lock()
			c.reply <- c.fn()
			m.mu.Unlock()
		case ev := <-m.events:
			m.mu.Lock()
			m.handle(ev)
			m.mu.Unlock()
		}
	}
}

// State returns the current state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Target returns the target of the current run, if started.
func (m *Manager) Target() (Target, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.target == nil {
		return Target{}, false
	}
	return *m.target, true
}

// Session returns a snapshot of the active connection, if any.
func (m *Manager) Session() (ActiveConnection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.conn == nil {
		return ActiveConnection{}, false
	}
	return *m.conn, true
}

// DeviceID returns the identifier prefixed to every frame.
func (m *Manager) DeviceID() protocol.DeviceID {
	return m.deviceID
}

// Subscribe returns a stream of updates and a function to cancel it.
// Slow subscribers miss updates rather than blocking the loop.
func (m *Manager) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, subscriberQueue)

	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.done:
		close(ch)
		return ch, func() {}
	default:
	}

	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

// WaitFor blocks until the manager reaches want. A return to Idle with an
// error (scan failure) ends the wait with that error.
func (m *Manager) WaitFor(ctx context.Context, want State) error {
	updates, cancel := m.Subscribe()
	defer cancel()

	if m.State() == want {
		return nil
	}
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return ErrStopped
			}
			if u.State == want {
				return nil
			}
			if u.State == StateIdle && u.Err != nil {
				return u.Err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Start begins scanning for t. The adapter must be powered; otherwise
// ErrAdapterUnavailable is returned and the manager stays Idle.
func (m *Manager) Start(ctx context.Context, t Target) error {
	if err := t.validate(); err != nil {
		return err
	}
	return m.do(ctx, func() error {
		if m.State() != StateIdle {
			return ErrAlreadyStarted
		}
		if err := m.radio.Enable(); err != nil {
			m.logger.Warn("bluetooth adapter unavailable", "error", err)
			return fmt.Errorf("%w: %v", ErrAdapterUnavailable, err)
		}

		m.target = &t
		m.scanner = Scanner{ServiceID: t.ServiceID, Filter: t.Filter}
		m.logger.Info("scanning", "filter", t.Filter.String(), "service", t.ServiceID)
		m.startScan()
		return nil
	})
}

// Stop tears down any scan or link and returns to Idle.
func (m *Manager) Stop(ctx context.Context) error {
	return m.do(ctx, func() error {
		if m.State() == StateIdle {
			return nil
		}
		m.teardown()
		return nil
	})
}

// Send encodes payload with the device id and writes it. Outside Ready
// nothing is transmitted and ErrNotReady is returned.
func (m *Manager) Send(ctx context.Context, payload []byte, lineEnding bool) error {
	return m.do(ctx, func() error {
		frame := protocol.Encode(m.deviceID, payload, lineEnding)
		if err := m.writer.Write(m.conn, frame); err != nil {
			return err
		}
		ev := Event{Kind: EventWriteCompleted, N: len(frame), epoch: m.epoch}
		go m.post(ev)
		return nil
	})
}

// Write transmits data unframed: no device id, separator or line
// ending. It fails with ErrNotReady outside Ready, like Send.
func (m *Manager) Write(ctx context.Context, data []byte) error {
	return m.do(ctx, func() error {
		if err := m.writer.WriteRaw(m.conn, data); err != nil {
			return err
		}
		ev := Event{Kind: EventWriteCompleted, N: len(data), epoch: m.epoch}
		go m.post(ev)
		return nil
	})
}

// SendChunked splits payload into frames of at most size payload bytes,
// pausing delay between them.
func (m *Manager) SendChunked(ctx context.Context, payload []byte, size int, delay time.Duration, lineEnding bool) error {
	return chunked(ctx, payload, size, delay, func(chunk []byte) error {
		return m.Send(ctx, chunk, lineEnding)
	})
}

// WriteChunked is SendChunked for unframed writes. Game programs are
// uploaded this way.
func (m *Manager) WriteChunked(ctx context.Context, data []byte, size int, delay time.Duration) error {
	return chunked(ctx, data, size, delay, func(chunk []byte) error {
		return m.Write(ctx, chunk)
	})
}

func chunked(ctx context.Context, data []byte, size int, delay time.Duration, write func([]byte) error) error {
	chunks := protocol.Chunk(data, size)
	for i, chunk := range chunks {
		if i > 0 && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := write(chunk); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

func (m *Manager) do(ctx context.Context, fn func() error) error {
	c := command{fn: fn, reply: make(chan error, 1)}
	select {
	case m.cmds <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrStopped
	}
	select {
	case err := <-c.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) post(ev Event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

// postLossy drops the event when the queue is full. Advertisements repeat,
// and blocking here could stall a radio stack waiting in StopScan.
func (m *Manager) postLossy(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}

func (m *Manager) handle(ev Event) {
	if ev.Kind != EventDisconnected && ev.epoch != m.epoch {
		m.logger.Debug("dropping stale event", "kind", ev.Kind.String())
		if ev.Kind == EventConnected && ev.Link != nil {
			go ev.Link.Disconnect()
		}
		return
	}

	switch ev.Kind {
	case EventScanResult:
		m.onScanResult(ev)
	case EventConnected:
		m.onConnected(ev)
	case EventServicesDiscovered:
		m.onServicesDiscovered(ev)
	case EventCharacteristicsDiscovered:
		m.onCharacteristicsDiscovered(ev)
	case EventDisconnected:
		m.onDisconnected(ev)
	case EventWriteCompleted:
		m.logger.Debug("write completed", "bytes", ev.N)
	case EventNotification:
		m.onNotification(ev)
	}
}

func (m *Manager) startScan() {
	m.epoch++
	epoch := m.epoch
	m.setState(StateScanning, nil)

	services := []string{m.target.ServiceID}
	go func() {
		err := m.radio.Scan(services, func(p PeerDescriptor) {
			m.postLossy(Event{Kind: EventScanResult, Peer: p, epoch: epoch})
		})
		if err != nil {
			m.post(Event{Kind: EventScanResult, Err: err, epoch: epoch})
		}
	}()
}

func (m *Manager) onScanResult(ev Event) {
	if ev.Err != nil {
		m.logger.Error("scan failed", "error", ev.Err)
		m.target = nil
		m.setState(StateIdle, fmt.Errorf("scan: %w", ev.Err))
		return
	}
	// one candidate at a time
	if m.State() != StateScanning {
		return
	}

	p := ev.Peer
	if p.Name != "" {
		m.logger.Debug("found", "name", p.Name, "address", p.Address, "rssi", p.RSSI)
	}
	if !m.scanner.Matches(p) {
		return
	}

	if err := m.radio.StopScan(); err != nil {
		m.logger.Warn("stop scan", "error", err)
	}

	m.epoch++
	epoch := m.epoch
	m.conn = &ActiveConnection{ID: ulid.Make(), Peer: p, State: StateConnecting}
	m.setState(StateConnecting, nil)
	m.logger.Info("connecting", "session", m.conn.ID, "name", p.Name, "address", p.Address)

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if m.connectTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), m.connectTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	m.cancelConnect = cancel

	go func() {
		link, err := m.radio.Connect(ctx, p.Address)
		m.post(Event{Kind: EventConnected, Link: link, Err: err, epoch: epoch})
	}()
}

func (m *Manager) onConnected(ev Event) {
	if m.cancelConnect != nil {
		m.cancelConnect()
		m.cancelConnect = nil
	}
	if ev.Err == nil && ev.Link == nil {
		ev.Err = errors.New("no link")
	}
	if ev.Err != nil {
		m.logger.Warn("connect failed", "session", m.conn.ID, "error", ev.Err)
		m.publish(m.update(StateConnecting, StateConnecting, fmt.Errorf("connect: %w", ev.Err)))
		return
	}

	m.conn.Link = ev.Link
	m.logger.Info("connected", "session", m.conn.ID, "address", ev.Link.Address())

	link := ev.Link
	epoch := m.epoch
	services := []string{m.target.ServiceID}
	go func() {
		svcs, err := link.DiscoverServices(services)
		m.post(Event{Kind: EventServicesDiscovered, Services: svcs, Err: err, epoch: epoch})
	}()
}

func (m *Manager) onServicesDiscovered(ev Event) {
	var svc Service
	if ev.Err == nil {
		for _, s := range ev.Services {
			if sameUUID(s.UUID(), m.target.ServiceID) {
				svc = s
				break
			}
		}
	}
	if svc == nil {
		m.discoveryIncomplete("service", ev.Err)
		return
	}

	m.conn.Service = svc
	m.logger.Debug("found service", "session", m.conn.ID, "uuid", svc.UUID())

	epoch := m.epoch
	chars := []string{m.target.CharacteristicID}
	go func() {
		cs, err := svc.DiscoverCharacteristics(chars)
		m.post(Event{Kind: EventCharacteristicsDiscovered, Characteristics: cs, Err: err, epoch: epoch})
	}()
}

func (m *Manager) onCharacteristicsDiscovered(ev Event) {
	var char Characteristic
	if ev.Err == nil {
		for _, c := range ev.Characteristics {
			m.logger.Debug("found characteristic", "session", m.conn.ID, "uuid", c.UUID())
			if sameUUID(c.UUID(), m.target.CharacteristicID) && c.Capabilities().Has(CapWriteWithoutResponse) {
				char = c
				break
			}
		}
	}
	if char == nil {
		m.discoveryIncomplete("characteristic", ev.Err)
		return
	}

	m.conn.Characteristic = char
	m.conn.State = StateReady
	m.setState(StateReady, nil)
	m.logger.Info("ready", "session", m.conn.ID, "name", m.conn.Peer.Name)

	if char.Capabilities().Has(CapNotify) {
		epoch := m.epoch
		session := m.conn.ID
		go func() {
			err := char.EnableNotifications(func(buf []byte) {
				data := make([]byte, len(buf))
				copy(data, buf)
				m.post(Event{Kind: EventNotification, Data: data, epoch: epoch})
			})
			if err != nil {
				m.logger.Warn("enable notifications", "session", session, "error", err)
			}
		}()
	}
}

// discoveryIncomplete leaves the session in Connecting; callers re-issue the scan.
func (m *Manager) discoveryIncomplete(what string, err error) {
	if err != nil {
		m.logger.Warn("discovery failed", "session", m.conn.ID, "step", what, "error", err)
		err = fmt.Errorf("discover %s: %w", what, err)
	} else {
		m.logger.Warn("discovery incomplete", "session", m.conn.ID, "step", what)
		err = fmt.Errorf("discover %s: not found", what)
	}
	m.publish(m.update(StateConnecting, StateConnecting, err))
}

func (m *Manager) onDisconnected(ev Event) {
	// no link yet means the event belongs to an earlier session
	if m.conn == nil || m.conn.Link == nil {
		return
	}
	if ev.Address != "" && !sameUUID(ev.Address, m.conn.Peer.Address) {
		return
	}

	m.logger.Info("link lost", "session", m.conn.ID, "state", m.State().String())
	if m.cancelConnect != nil {
		m.cancelConnect()
		m.cancelConnect = nil
	}
	m.conn.State = StateDisconnected
	m.setState(StateDisconnected, nil)
	m.conn = nil

	m.startScan()
}

func (m *Manager) onNotification(ev Event) {
	st, err := protocol.ParseStatus(ev.Data)
	if err != nil {
		if util.IsTextData(ev.Data) {
			m.logger.Debug("notification", "text", string(ev.Data))
		} else {
			m.logger.Debug("notification", "dump", util.HexDump(ev.Data))
		}
		u := m.update(m.State(), m.State(), nil)
		u.Data = ev.Data
		m.publish(u)
		return
	}

	m.logger.Info("mat status", "status", st.String())
	u := m.update(m.State(), m.State(), nil)
	u.Status = &st
	u.Data = ev.Data
	m.publish(u)
}

func (m *Manager) teardown() {
	m.epoch++
	if m.cancelConnect != nil {
		m.cancelConnect()
		m.cancelConnect = nil
	}
	if m.State() == StateScanning {
		if err := m.radio.StopScan(); err != nil {
			m.logger.Warn("stop scan", "error", err)
		}
	}
	if m.conn != nil && m.conn.Link != nil {
		if err := m.conn.Link.Disconnect(); err != nil {
			m.logger.Warn("disconnect", "session", m.conn.ID, "error", err)
		}
	}
	m.conn = nil
	m.target = nil
	m.setState(StateIdle, nil)
	m.logger.Info("stopped")
}

func (m *Manager) setState(s State, err error) {
	prev := State(m.state.Swap(int32(s)))
	if prev == s && err == nil {
		return
	}
	m.publish(m.update(s, prev, err))
}

func (m *Manager) update(s, prev State, err error) Update {
	u := Update{State: s, Previous: prev, Err: err}
	if m.conn != nil {
		u.Session = m.conn.ID
		u.Peer = m.conn.Peer
	}
	return u
}

func (m *Manager) publish(u Update) {
	for _, ch := range m.subs {
		select {
		case ch <- u:
		default:
			m.logger.Debug("subscriber full, update dropped", "state", u.State.String())
		}
	}
}
