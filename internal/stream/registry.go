package stream

import "sync"

// Intent records a caller's desire to be subscribed to a channel. Intents
// live in the Registry from subscribe until explicit unsubscribe or shutdown;
// they survive reconnects and are re-sent, never recreated.
type Intent struct {
	// ID is the client-generated correlation id, unique for the life of the
	// logical connection.
	ID int64
	// Channel is the channel kind, e.g. "ticker" or "orderbook_delta".
	Channel string
	// MarketTicker optionally narrows the channel to one market.
	MarketTicker string
}

// Registry is the table of desired subscription state. It is mutated from
// whichever goroutine issues subscribe and unsubscribe calls and read from
// the connection manager, so all access is mutually exclusive.
type Registry struct {
	mu      sync.Mutex
	nextID  int64
	order   []int64
	intents map[int64]Intent
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		intents: make(map[int64]Intent),
	}
}

// Add records an intent and assigns its correlation id. Ids are a monotonic
// counter, so they never collide while a prior intent is outstanding.
func (r *Registry) Add(channel, marketTicker string) Intent {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	intent := Intent{
		ID:           r.nextID,
		Channel:      channel,
		MarketTicker: marketTicker,
	}
	r.order = append(r.order, intent.ID)
	r.intents[intent.ID] = intent
	return intent
}

// Remove deletes the intent with the given id. Removing an id twice is a
// no-op the second time.
func (r *Registry) Remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.intents[id]; !ok {
		return
	}
	delete(r.intents, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the intent with the given id.
func (r *Registry) Get(id int64) (Intent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.intents[id]
	return intent, ok
}

// Snapshot returns the live intents in insertion order. The connection
// manager replays this sequence after every reconnect; the stable ordering
// makes replays reproducible.
func (r *Registry) Snapshot() []Intent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Intent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.intents[id])
	}
	return out
}

// Len returns the number of live intents.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.intents)
}

// Clear empties the registry. Called only on terminal shutdown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.intents = make(map[int64]Intent)
}
