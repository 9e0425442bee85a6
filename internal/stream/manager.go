// Package stream manages the exchange's persistent streaming connection:
// subscription intents, socket lifecycle, heartbeats, and reconnect replay.
package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"kalshigo/pkg/core"
)

// Handler receives events routed to one subscription. Handlers run on a
// dedicated dispatch goroutine per subscription; a slow handler delays only
// its own subscription's delivery, never heartbeats or reconnection.
type Handler func(Event)

var errSocketClosed = errors.New("socket closed")

// Manager owns the streaming socket lifecycle. It records subscription
// intents in a Registry, replays them in order after every reconnect, and
// routes inbound frames back to subscriber callbacks by correlation id,
// server subscription id, or channel kind.
type Manager struct {
	cfg      *core.Config
	dialer   Dialer
	url      string
	signFn   func(ctx context.Context) (map[string]string, error)
	registry *Registry
	logger   zerolog.Logger
	state    atomic.Int32

	mu           sync.Mutex
	conn         Conn
	subs         map[int64]*subscriber
	bySID        map[int64]int64
	pendingUnsub map[int64]struct{}

	ready     chan struct{}
	readyOnce sync.Once
	stopCh    chan struct{}
	stopOnce  sync.Once
	errCh     chan error
	wg        sync.WaitGroup
}

type subscriber struct {
	intent    Intent
	handler   Handler
	ch        chan Event
	closeCh   chan struct{}
	closeOnce sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() { close(s.closeCh) })
}

// NewManager creates a Manager. signFn produces fresh authentication headers
// for each handshake; url is the full websocket endpoint.
func NewManager(cfg *core.Config, dialer Dialer, url string, signFn func(ctx context.Context) (map[string]string, error)) *Manager {
	return &Manager{
		cfg:          cfg,
		dialer:       dialer,
		url:          url,
		signFn:       signFn,
		registry:     NewRegistry(),
		logger:       zerolog.Nop(),
		subs:         make(map[int64]*subscriber),
		bySID:        make(map[int64]int64),
		pendingUnsub: make(map[int64]struct{}),
		ready:        make(chan struct{}),
		stopCh:       make(chan struct{}),
		errCh:        make(chan error, 16),
	}
}

// SetLogger configures the logger for the manager.
func (m *Manager) SetLogger(logger zerolog.Logger) {
	m.logger = logger
}

// State returns the current connection state.
func (m *Manager) State() ConnState {
	return ConnState(m.state.Load())
}

func (m *Manager) setState(s ConnState) {
	m.state.Store(int32(s))
}

// Errors returns the dedicated error channel, distinct from data delivery.
// Fatal errors (reconnect budget exhausted) and subscription command
// rejections arrive here. The channel is never closed.
func (m *Manager) Errors() <-chan error {
	return m.errCh
}

// Registry exposes the subscription registry, primarily for inspection.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Start launches the connection loop on its own goroutine. The loop dials,
// replays registry state, serves the socket, and reconnects with capped
// exponential backoff until Close or budget exhaustion.
func (m *Manager) Start(ctx context.Context) error {
	if !m.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		if m.State() == StateClosed {
			return core.ErrClientClosed
		}
		return errors.New("stream already started")
	}

	m.wg.Add(1)
	go m.run(ctx)
	return nil
}

// WaitConnected blocks until the first successful connection, shutdown, or
// context expiry.
func (m *Manager) WaitConnected(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-m.stopCh:
		return core.ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe records an intent and, when connected, sends the subscribe
// command immediately. It returns the intent's correlation id. The intent
// stays desired across reconnects until Unsubscribe or Close.
func (m *Manager) Subscribe(channel, marketTicker string, handler Handler) (int64, error) {
	if m.State() == StateClosed {
		return 0, core.ErrClientClosed
	}

	intent := m.registry.Add(channel, marketTicker)
	sub := &subscriber{
		intent:  intent,
		handler: handler,
		ch:      make(chan Event, m.cfg.StreamBufferSize),
		closeCh: make(chan struct{}),
	}

	m.mu.Lock()
	m.subs[intent.ID] = sub
	conn := m.conn
	m.mu.Unlock()

	m.wg.Add(1)
	go m.dispatchLoop(sub)

	if conn != nil && m.State() == StateConnected {
		m.sendSubscribe(conn, intent)
	}

	m.logger.Debug().
		Int64("id", intent.ID).
		Str("channel", channel).
		Str("ticker", marketTicker).
		Msg("subscription recorded")

	return intent.ID, nil
}

// Unsubscribe cancels the intent with the given correlation id. Calling it
// twice for the same id is a no-op the second time.
func (m *Manager) Unsubscribe(id int64) {
	m.registry.Remove(id)

	m.mu.Lock()
	sub, ok := m.subs[id]
	if ok {
		delete(m.subs, id)
	}
	var sid int64
	for s, corr := range m.bySID {
		if corr == id {
			sid = s
			delete(m.bySID, s)
			break
		}
	}
	conn := m.conn
	// A subscribe was already on the wire but its ack has not bound a sid
	// yet. Remember the id so the ack triggers the wire unsubscribe; without
	// this the server-side subscription would outlive the intent.
	if ok && sid == 0 && conn != nil {
		m.pendingUnsub[id] = struct{}{}
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	sub.close()

	if conn != nil && sid != 0 && m.State() == StateConnected {
		m.sendCommand(conn, Command{
			ID:     id,
			Cmd:    CmdUnsubscribe,
			Params: CommandParams{SIDs: []int64{sid}},
		})
	}

	m.logger.Debug().Int64("id", id).Msg("subscription removed")
}

// Close shuts the manager down permanently: the socket is released, the
// registry cleared, and no further reconnects are attempted.
func (m *Manager) Close() error {
	m.setState(StateClosed)
	m.shutdown()
	m.wg.Wait()
	return nil
}

// shutdown releases resources without waiting for goroutines; run calls it
// on its own exit paths, Close adds the wait.
func (m *Manager) shutdown() {
	m.stopOnce.Do(func() { close(m.stopCh) })

	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	subs := m.subs
	m.subs = make(map[int64]*subscriber)
	m.bySID = make(map[int64]int64)
	m.pendingUnsub = make(map[int64]struct{})
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	for _, sub := range subs {
		sub.close()
	}
	m.registry.Clear()
}

// transition moves to a non-terminal state. Closed is sticky: once the
// manager is closed, no loop activity may resurrect another state.
func (m *Manager) transition(s ConnState) {
	for {
		cur := m.State()
		if cur == StateClosed {
			return
		}
		if m.state.CompareAndSwap(int32(cur), int32(s)) {
			return
		}
	}
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	bo := backoff.NewExponentialBackOff()
	if m.cfg.ReconnectBaseWait > 0 {
		bo.InitialInterval = m.cfg.ReconnectBaseWait
	}
	if m.cfg.ReconnectMaxWait > 0 {
		bo.MaxInterval = m.cfg.ReconnectMaxWait
	}

	failures := 0
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			m.setState(StateClosed)
			m.shutdown()
			return
		default:
		}

		conn, err := m.dial(ctx)
		if err != nil {
			failures++
			m.logger.Warn().Err(err).
				Int("attempt", failures).
				Msg("handshake failed")

			if m.cfg.ReconnectMaxAttempts > 0 && failures >= m.cfg.ReconnectMaxAttempts {
				m.setState(StateClosed)
				m.reportError(&core.ConnectionExhaustedError{Attempts: failures, LastErr: err})
				m.shutdown()
				return
			}

			m.transition(StateReconnecting)
			if !m.sleep(ctx, bo) {
				return
			}
			m.transition(StateConnecting)
			continue
		}

		failures = 0
		bo.Reset()

		m.mu.Lock()
		m.conn = conn
		m.mu.Unlock()
		m.transition(StateConnected)
		m.logger.Info().Str("url", m.url).Msg("stream connected")

		// Desired state replay: every live intent, insertion order, once.
		m.replay(conn)
		m.readyOnce.Do(func() { close(m.ready) })

		err = m.serve(ctx, conn)

		// Server subscription ids are per-socket; the next connection
		// assigns fresh ones via new subscribed acks. Pending unsubscribes
		// die with the socket since cancelled intents are never replayed.
		m.mu.Lock()
		m.conn = nil
		m.bySID = make(map[int64]int64)
		m.pendingUnsub = make(map[int64]struct{})
		m.mu.Unlock()
		_ = conn.Close()

		select {
		case <-m.stopCh:
			return
		default:
		}
		if ctx.Err() != nil {
			m.setState(StateClosed)
			m.shutdown()
			return
		}

		m.transition(StateReconnecting)
		m.logger.Warn().Err(err).Msg("stream disconnected")

		if !m.sleep(ctx, bo) {
			return
		}
		m.transition(StateConnecting)
	}
}

func (m *Manager) dial(ctx context.Context) (Conn, error) {
	headers, err := m.signFn(ctx)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.dialer.Dial(dialCtx, m.url, headers)
}

// sleep waits out one backoff period. It returns false when the manager
// should stop. Context expiry performs the terminal cleanup itself since run
// returns immediately after.
func (m *Manager) sleep(ctx context.Context, bo *backoff.ExponentialBackOff) bool {
	wait := bo.NextBackOff()
	if wait == backoff.Stop {
		wait = m.cfg.ReconnectMaxWait
	}
	m.logger.Info().Dur("wait", wait).Msg("reconnecting after backoff")

	select {
	case <-m.stopCh:
		return false
	case <-ctx.Done():
		m.setState(StateClosed)
		m.shutdown()
		return false
	case <-time.After(wait):
		return true
	}
}

func (m *Manager) replay(conn Conn) {
	for _, intent := range m.registry.Snapshot() {
		m.sendSubscribe(conn, intent)
	}
}

func (m *Manager) serve(ctx context.Context, conn Conn) error {
	var pingC <-chan time.Time
	if m.cfg.PingInterval > 0 {
		ticker := time.NewTicker(m.cfg.PingInterval)
		defer ticker.Stop()
		pingC = ticker.C
	}

	for {
		select {
		case <-m.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-pingC:
			if err := conn.Ping(); err != nil {
				return err
			}
		case data, ok := <-conn.Receive():
			if !ok {
				return errSocketClosed
			}
			m.route(data)
		}
	}
}

// route classifies one inbound frame. Malformed frames and unknown
// correlation ids are dropped with a diagnostic, never fatal.
func (m *Manager) route(data []byte) {
	var ev Event
	if err := sonic.Unmarshal(data, &ev); err != nil {
		m.logger.Warn().Err(err).Msg("dropping malformed frame")
		return
	}
	if ev.Type == "" {
		m.logger.Warn().Msg("dropping frame without type")
		return
	}

	switch ev.Type {
	case EventSubscribed:
		m.handleSubscribed(ev)
	case EventUnsubscribed, EventOK:
		m.logger.Debug().Int64("id", ev.ID).Str("type", ev.Type).Msg("command acknowledged")
	case EventError:
		m.handleCommandError(ev)
	default:
		m.routeData(ev)
	}
}

func (m *Manager) handleSubscribed(ev Event) {
	var msg SubscribedMsg
	if err := sonic.Unmarshal(ev.Msg, &msg); err != nil {
		m.logger.Warn().Err(err).Msg("dropping malformed subscribed ack")
		return
	}

	m.mu.Lock()
	_, known := m.subs[ev.ID]
	if known {
		m.bySID[msg.SID] = ev.ID
	}
	_, cancelled := m.pendingUnsub[ev.ID]
	if cancelled {
		delete(m.pendingUnsub, ev.ID)
	}
	conn := m.conn
	m.mu.Unlock()

	if cancelled {
		// The intent was cancelled before this ack arrived; release the
		// server-side subscription now that it has a sid.
		if conn != nil {
			m.sendCommand(conn, Command{
				ID:     ev.ID,
				Cmd:    CmdUnsubscribe,
				Params: CommandParams{SIDs: []int64{msg.SID}},
			})
		}
		m.logger.Debug().Int64("id", ev.ID).Int64("sid", msg.SID).Msg("late ack for cancelled intent, unsubscribing")
		return
	}
	if !known {
		m.logger.Warn().Int64("id", ev.ID).Msg("subscribed ack for unknown correlation id")
		return
	}
	m.logger.Debug().
		Int64("id", ev.ID).
		Int64("sid", msg.SID).
		Str("channel", msg.Channel).
		Msg("subscription confirmed")
}

func (m *Manager) handleCommandError(ev Event) {
	var msg ErrorMsg
	_ = sonic.Unmarshal(ev.Msg, &msg)
	m.logger.Warn().
		Int64("id", ev.ID).
		Str("code", msg.Code).
		Str("msg", msg.Message).
		Msg("command rejected")
	m.reportError(&core.DecodeError{What: "command " + msg.Code, Err: errors.New(msg.Message)})
}

func (m *Manager) routeData(ev Event) {
	m.mu.Lock()
	var target *subscriber
	switch {
	case ev.SID != 0:
		if id, ok := m.bySID[ev.SID]; ok {
			target = m.subs[id]
		}
	case ev.ID != 0:
		target = m.subs[ev.ID]
	}
	var broadcast []*subscriber
	if target == nil && ev.SID == 0 && ev.ID == 0 {
		for _, sub := range m.subs {
			if sub.intent.Channel == ev.Type {
				broadcast = append(broadcast, sub)
			}
		}
	}
	m.mu.Unlock()

	if target != nil {
		m.deliver(target, ev)
		return
	}
	if len(broadcast) > 0 {
		for _, sub := range broadcast {
			m.deliver(sub, ev)
		}
		return
	}

	m.logger.Debug().
		Int64("id", ev.ID).
		Int64("sid", ev.SID).
		Str("type", ev.Type).
		Msg("dropping frame with no subscriber")
}

// deliver hands an event to one subscriber without blocking the read loop.
func (m *Manager) deliver(sub *subscriber, ev Event) {
	select {
	case <-sub.closeCh:
	case sub.ch <- ev:
	default:
		m.logger.Warn().
			Int64("id", sub.intent.ID).
			Str("channel", sub.intent.Channel).
			Msg("subscriber buffer full, dropping event")
	}
}

func (m *Manager) dispatchLoop(sub *subscriber) {
	defer m.wg.Done()
	for {
		select {
		case <-sub.closeCh:
			return
		case <-m.stopCh:
			return
		case ev := <-sub.ch:
			sub.handler(ev)
		}
	}
}

func (m *Manager) sendSubscribe(conn Conn, intent Intent) {
	m.sendCommand(conn, Command{
		ID:  intent.ID,
		Cmd: CmdSubscribe,
		Params: CommandParams{
			Channels:     []string{intent.Channel},
			MarketTicker: intent.MarketTicker,
		},
	})
}

func (m *Manager) sendCommand(conn Conn, cmd Command) {
	data, err := sonic.Marshal(cmd)
	if err != nil {
		m.logger.Error().Err(err).Msg("marshal command")
		return
	}
	if err := conn.Send(data); err != nil {
		m.logger.Error().Err(err).
			Int64("id", cmd.ID).
			Str("cmd", cmd.Cmd).
			Msg("send command failed")
	}
}

func (m *Manager) reportError(err error) {
	select {
	case m.errCh <- err:
	default:
		m.logger.Warn().Err(err).Msg("error channel full, dropping")
	}
}
