package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kalshigo/pkg/core"
)

type fakeConn struct {
	mu    sync.Mutex
	sent  [][]byte
	msgCh chan []byte
	once  sync.Once
	pings atomic.Int32
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgCh: make(chan []byte, 64)}
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Ping() error {
	c.pings.Add(1)
	return nil
}

func (c *fakeConn) Receive() <-chan []byte {
	return c.msgCh
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.msgCh) })
	return nil
}

// drop simulates the socket dying out from under the manager.
func (c *fakeConn) drop() {
	c.once.Do(func() { close(c.msgCh) })
}

func (c *fakeConn) inject(frame string) {
	c.msgCh <- []byte(frame)
}

func (c *fakeConn) commands(t *testing.T) []Command {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Command, 0, len(c.sent))
	for _, raw := range c.sent {
		var cmd Command
		require.NoError(t, sonic.Unmarshal(raw, &cmd))
		out = append(out, cmd)
	}
	return out
}

func (c *fakeConn) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type fakeDialer struct {
	mu       sync.Mutex
	failures int
	dials    int
	dialCh   chan *fakeConn
}

func newFakeDialer(failures int) *fakeDialer {
	return &fakeDialer{failures: failures, dialCh: make(chan *fakeConn, 8)}
}

func (d *fakeDialer) Dial(ctx context.Context, url string, headers map[string]string) (Conn, error) {
	d.mu.Lock()
	d.dials++
	fail := d.dials <= d.failures
	d.mu.Unlock()

	if fail {
		return nil, errors.New("connection refused")
	}
	conn := newFakeConn()
	d.dialCh <- conn
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) nextConn(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case conn := <-d.dialCh:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dial")
		return nil
	}
}

func testConfig() *core.Config {
	cfg := core.DefaultConfig(core.EnvDemo)
	cfg.PingInterval = 0
	cfg.ReconnectBaseWait = 5 * time.Millisecond
	cfg.ReconnectMaxWait = 20 * time.Millisecond
	cfg.StreamBufferSize = 16
	return cfg
}

func testSignFn(ctx context.Context) (map[string]string, error) {
	return map[string]string{"KALSHI-ACCESS-KEY": "test-key"}, nil
}

func newTestManager(cfg *core.Config, d Dialer) *Manager {
	return NewManager(cfg, d, "wss://example.test/trade-api/ws/v2", testSignFn)
}

func startManager(t *testing.T, m *Manager) {
	t.Helper()
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.WaitConnected(ctx))
}

func TestManagerSubscribeSendsCommand(t *testing.T) {
	dialer := newFakeDialer(0)
	m := newTestManager(testConfig(), dialer)
	startManager(t, m)
	conn := dialer.nextConn(t)

	id, err := m.Subscribe(ChannelTicker, "KXHIGHNY-25DEC31", func(Event) {})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return conn.sentCount() == 1 }, time.Second, 5*time.Millisecond)

	cmds := conn.commands(t)
	require.Len(t, cmds, 1)
	assert.Equal(t, id, cmds[0].ID)
	assert.Equal(t, CmdSubscribe, cmds[0].Cmd)
	assert.Equal(t, []string{ChannelTicker}, cmds[0].Params.Channels)
	assert.Equal(t, "KXHIGHNY-25DEC31", cmds[0].Params.MarketTicker)
}

func TestManagerRoutesDataBySID(t *testing.T) {
	dialer := newFakeDialer(0)
	m := newTestManager(testConfig(), dialer)
	startManager(t, m)
	conn := dialer.nextConn(t)

	got := make(chan Event, 1)
	id, err := m.Subscribe(ChannelTicker, "KXHIGHNY-25DEC31", func(ev Event) { got <- ev })
	require.NoError(t, err)

	conn.inject(fmt.Sprintf(`{"id":%d,"type":"subscribed","msg":{"channel":"ticker","sid":42}}`, id))
	conn.inject(`{"sid":42,"seq":1,"type":"ticker","msg":{"market_ticker":"KXHIGHNY-25DEC31","price":55}}`)

	select {
	case ev := <-got:
		assert.Equal(t, int64(42), ev.SID)
		assert.Equal(t, "ticker", ev.Type)
		assert.Equal(t, int64(1), ev.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestManagerReplaysIntentsInOrderOnReconnect(t *testing.T) {
	dialer := newFakeDialer(0)
	m := newTestManager(testConfig(), dialer)
	startManager(t, m)
	conn1 := dialer.nextConn(t)

	a, err := m.Subscribe(ChannelTicker, "A", func(Event) {})
	require.NoError(t, err)
	b, err := m.Subscribe(ChannelTrade, "B", func(Event) {})
	require.NoError(t, err)
	c, err := m.Subscribe(ChannelOrderbookDelta, "C", func(Event) {})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return conn1.sentCount() == 3 }, time.Second, 5*time.Millisecond)

	conn1.drop()
	conn2 := dialer.nextConn(t)

	assert.Eventually(t, func() bool { return m.State() == StateConnected }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return conn2.sentCount() == 3 }, time.Second, 5*time.Millisecond)

	cmds := conn2.commands(t)
	require.Len(t, cmds, 3)
	assert.Equal(t, []int64{a, b, c}, []int64{cmds[0].ID, cmds[1].ID, cmds[2].ID})
	for _, cmd := range cmds {
		assert.Equal(t, CmdSubscribe, cmd.Cmd)
	}

	// No duplicate replays after the connection settles.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, conn2.sentCount())
}

func TestManagerUnsubscribedIntentNotReplayed(t *testing.T) {
	dialer := newFakeDialer(0)
	m := newTestManager(testConfig(), dialer)
	startManager(t, m)
	conn1 := dialer.nextConn(t)

	a, err := m.Subscribe(ChannelTicker, "A", func(Event) {})
	require.NoError(t, err)
	b, err := m.Subscribe(ChannelTrade, "B", func(Event) {})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return conn1.sentCount() == 2 }, time.Second, 5*time.Millisecond)
	m.Unsubscribe(a)

	conn1.drop()
	conn2 := dialer.nextConn(t)

	assert.Eventually(t, func() bool { return conn2.sentCount() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	cmds := conn2.commands(t)
	require.Len(t, cmds, 1)
	assert.Equal(t, b, cmds[0].ID)
}

func TestManagerReconnectBudgetExhaustion(t *testing.T) {
	dialer := newFakeDialer(1000)
	cfg := testConfig().WithReconnect(time.Millisecond, 5*time.Millisecond, 3)
	m := newTestManager(cfg, dialer)

	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Close() })

	select {
	case err := <-m.Errors():
		var exhausted *core.ConnectionExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.ErrorIs(t, err, core.ErrConnectionExhausted)
	case <-time.After(2 * time.Second):
		t.Fatal("exhaustion error never reported")
	}

	assert.Eventually(t, func() bool { return m.State() == StateClosed }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, dialer.dialCount())

	_, err := m.Subscribe(ChannelTicker, "A", func(Event) {})
	assert.ErrorIs(t, err, core.ErrClientClosed)
}

func TestManagerRecoversWithinBudget(t *testing.T) {
	dialer := newFakeDialer(2)
	cfg := testConfig().WithReconnect(time.Millisecond, 5*time.Millisecond, 5)
	m := newTestManager(cfg, dialer)
	startManager(t, m)

	assert.Equal(t, StateConnected, m.State())
	assert.Equal(t, 3, dialer.dialCount())
}

func TestManagerDropsMalformedAndUnknownFrames(t *testing.T) {
	dialer := newFakeDialer(0)
	m := newTestManager(testConfig(), dialer)
	startManager(t, m)
	conn := dialer.nextConn(t)

	got := make(chan Event, 1)
	id, err := m.Subscribe(ChannelTicker, "A", func(ev Event) { got <- ev })
	require.NoError(t, err)

	conn.inject(fmt.Sprintf(`{"id":%d,"type":"subscribed","msg":{"channel":"ticker","sid":7}}`, id))
	conn.inject(`{not json`)
	conn.inject(`{"sid":999,"type":"ticker","msg":{}}`)
	conn.inject(`{"sid":7,"type":"ticker","msg":{"price":41}}`)

	select {
	case ev := <-got:
		assert.Equal(t, int64(7), ev.SID)
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame lost after malformed ones")
	}
	assert.Equal(t, StateConnected, m.State())
}

func TestManagerHeartbeat(t *testing.T) {
	dialer := newFakeDialer(0)
	cfg := testConfig()
	cfg.PingInterval = 10 * time.Millisecond
	m := newTestManager(cfg, dialer)
	startManager(t, m)
	conn := dialer.nextConn(t)

	assert.Eventually(t, func() bool { return conn.pings.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestManagerCloseIsTerminal(t *testing.T) {
	dialer := newFakeDialer(0)
	m := newTestManager(testConfig(), dialer)
	startManager(t, m)
	dialer.nextConn(t)

	_, err := m.Subscribe(ChannelTicker, "A", func(Event) {})
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.Equal(t, StateClosed, m.State())
	assert.Equal(t, 0, m.Registry().Len())

	_, err = m.Subscribe(ChannelTicker, "A", func(Event) {})
	assert.ErrorIs(t, err, core.ErrClientClosed)
	assert.ErrorIs(t, m.Start(context.Background()), core.ErrClientClosed)

	// No reconnect attempts after close.
	dials := dialer.dialCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, dials, dialer.dialCount())
}

func TestManagerRebindsSIDsAfterReconnect(t *testing.T) {
	dialer := newFakeDialer(0)
	m := newTestManager(testConfig(), dialer)
	startManager(t, m)
	conn1 := dialer.nextConn(t)

	got := make(chan Event, 4)
	id, err := m.Subscribe(ChannelTicker, "X", func(ev Event) { got <- ev })
	require.NoError(t, err)

	conn1.inject(fmt.Sprintf(`{"id":%d,"type":"subscribed","msg":{"channel":"ticker","sid":11}}`, id))
	conn1.inject(`{"sid":11,"type":"ticker","msg":{"price":40}}`)
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("pre-reconnect event lost")
	}

	conn1.drop()
	conn2 := dialer.nextConn(t)
	assert.Eventually(t, func() bool { return conn2.sentCount() == 1 }, time.Second, 5*time.Millisecond)

	// New socket, new server sid for the same intent.
	conn2.inject(fmt.Sprintf(`{"id":%d,"type":"subscribed","msg":{"channel":"ticker","sid":23}}`, id))
	conn2.inject(`{"sid":23,"type":"ticker","msg":{"price":44}}`)

	select {
	case ev := <-got:
		assert.Equal(t, int64(23), ev.SID)
	case <-time.After(2 * time.Second):
		t.Fatal("post-reconnect event lost")
	}
}

func TestManagerSubscribeBeforeConnectIsReplayedOnFirstConnect(t *testing.T) {
	dialer := newFakeDialer(0)
	m := newTestManager(testConfig(), dialer)

	id, err := m.Subscribe(ChannelFill, "", func(Event) {})
	require.NoError(t, err)

	startManager(t, m)
	conn := dialer.nextConn(t)

	assert.Eventually(t, func() bool { return conn.sentCount() == 1 }, time.Second, 5*time.Millisecond)
	cmds := conn.commands(t)
	assert.Equal(t, id, cmds[0].ID)
	assert.Equal(t, []string{ChannelFill}, cmds[0].Params.Channels)
}

func TestManagerUnsubscribeBeforeAckReleasesServerSubscription(t *testing.T) {
	dialer := newFakeDialer(0)
	m := newTestManager(testConfig(), dialer)
	startManager(t, m)
	conn := dialer.nextConn(t)

	id, err := m.Subscribe(ChannelTicker, "KXHIGHNY-25DEC31", func(Event) {})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return conn.sentCount() == 1 }, time.Second, 5*time.Millisecond)

	// Cancel before the server acknowledges. No sid is bound yet, so the
	// wire unsubscribe has to wait for the ack.
	m.Unsubscribe(id)
	cmds := conn.commands(t)
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdSubscribe, cmds[0].Cmd)

	conn.inject(fmt.Sprintf(`{"id":%d,"type":"subscribed","msg":{"channel":"ticker","sid":7}}`, id))

	assert.Eventually(t, func() bool { return conn.sentCount() == 2 }, time.Second, 5*time.Millisecond)
	cmds = conn.commands(t)
	require.Len(t, cmds, 2)
	assert.Equal(t, CmdUnsubscribe, cmds[1].Cmd)
	assert.Equal(t, id, cmds[1].ID)
	assert.Equal(t, []int64{7}, cmds[1].Params.SIDs)

	// The released sid must not route data anywhere.
	conn.inject(`{"sid":7,"seq":1,"type":"ticker","msg":{"price":55}}`)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, conn.sentCount())
}
