package menucache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// A typed read found (Hit) or did not find (Miss) a usable entry.
	Hit(kind string)
	Miss(kind string)

	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// GenStore errors (snapshot or bump).
	GenSnapshotError(count int, err error)
	GenBumpError(storageKey string, err error)

	// A provider call failed and will be tried again.
	Retry(op string, attempt int, err error)

	// A provider call gave up (retries exhausted or permanent error).
	BackendFailure(op, storageKey string, err error)

	// Both gen bump and delete failed during Delete (likely backend outage).
	InvalidateOutage(key string, bumpErr, delErr error)

	// A deferred invalidation was lost; the key stays stale until TTL.
	InvalidationDropped(key string, err error)

	// The keyspace was cleared.
	Flushed(prefix string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(string)                            {}
func (NopHooks) Miss(string)                           {}
func (NopHooks) SelfHeal(string, string)               {}
func (NopHooks) ProviderSetRejected(string)            {}
func (NopHooks) GenSnapshotError(int, error)           {}
func (NopHooks) GenBumpError(string, error)            {}
func (NopHooks) Retry(string, int, error)              {}
func (NopHooks) BackendFailure(string, string, error)  {}
func (NopHooks) InvalidateOutage(string, error, error) {}
func (NopHooks) InvalidationDropped(string, error)     {}
func (NopHooks) Flushed(string)                        {}

// MultiHooks fans every event out to each member in order.
type MultiHooks []Hooks

var _ Hooks = MultiHooks(nil)

func (m MultiHooks) Hit(kind string) {
	for _, h := range m {
		h.Hit(kind)
	}
}

func (m MultiHooks) Miss(kind string) {
	for _, h := range m {
		h.Miss(kind)
	}
}

func (m MultiHooks) SelfHeal(k, reason string) {
	for _, h := range m {
		h.SelfHeal(k, reason)
	}
}

func (m MultiHooks) ProviderSetRejected(k string) {
	for _, h := range m {
		h.ProviderSetRejected(k)
	}
}

func (m MultiHooks) GenSnapshotError(n int, err error) {
	for _, h := range m {
		h.GenSnapshotError(n, err)
	}
}

func (m MultiHooks) GenBumpError(k string, err error) {
	for _, h := range m {
		h.GenBumpError(k, err)
	}
}

func (m MultiHooks) Retry(op string, attempt int, err error) {
	for _, h := range m {
		h.Retry(op, attempt, err)
	}
}

func (m MultiHooks) BackendFailure(op, k string, err error) {
	for _, h := range m {
		h.BackendFailure(op, k, err)
	}
}

func (m MultiHooks) InvalidateOutage(k string, bumpErr, delErr error) {
	for _, h := range m {
		h.InvalidateOutage(k, bumpErr, delErr)
	}
}

func (m MultiHooks) InvalidationDropped(k string, err error) {
	for _, h := range m {
		h.InvalidationDropped(k, err)
	}
}

func (m MultiHooks) Flushed(prefix string) {
	for _, h := range m {
		h.Flushed(prefix)
	}
}
