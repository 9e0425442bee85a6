package stream

// ConnState is the lifecycle state of the logical streaming connection.
// Subscription intents attach to the logical connection, not to any
// particular socket, so reconnects never change what callers observe.
type ConnState int32

const (
	// StateDisconnected indicates no connection has been started yet.
	StateDisconnected ConnState = iota
	// StateConnecting indicates a handshake is in progress.
	StateConnecting
	// StateConnected indicates an active socket.
	StateConnected
	// StateReconnecting indicates the socket dropped and a new handshake is
	// pending after backoff.
	StateReconnecting
	// StateClosed is terminal: entered only on explicit shutdown or an
	// exhausted reconnect budget.
	StateClosed
)

var stateNames = map[ConnState]string{
	StateDisconnected: "disconnected",
	StateConnecting:   "connecting",
	StateConnected:    "connected",
	StateReconnecting: "reconnecting",
	StateClosed:       "closed",
}

func (s ConnState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
