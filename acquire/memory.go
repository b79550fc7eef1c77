package acquire

import (
	"sync"
	"time"

	"github.com/finsight-hq/finsight/models"
)

// hostEntry stores the method that last met the threshold for a host.
type hostEntry struct {
	method    models.Method
	expiresAt time.Time
}

// methodMemory remembers which acquisition method worked for each host, so
// repeat visits to render-heavy sites stop waiting on the fast path's
// content heuristics. Entries expire after the configured TTL; expired
// entries are dropped lazily on read.
type methodMemory struct {
	store sync.Map // host (string) -> *hostEntry
	ttl   time.Duration
}

func newMethodMemory(ttl time.Duration) *methodMemory {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &methodMemory{ttl: ttl}
}

// Preferred returns the remembered method for a host, if any.
func (m *methodMemory) Preferred(host string) (models.Method, bool) {
	val, ok := m.store.Load(host)
	if !ok {
		return "", false
	}
	entry := val.(*hostEntry)
	if time.Now().After(entry.expiresAt) {
		m.store.Delete(host)
		return "", false
	}
	return entry.method, true
}

// Record notes which method met the threshold for a host.
func (m *methodMemory) Record(host string, method models.Method) {
	m.store.Store(host, &hostEntry{
		method:    method,
		expiresAt: time.Now().Add(m.ttl),
	})
}

// Forget removes the memory for a host.
func (m *methodMemory) Forget(host string) {
	m.store.Delete(host)
}
