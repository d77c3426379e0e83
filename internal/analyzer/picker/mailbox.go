// internal/analyzer/picker/mailbox.go
package picker

import (
	"sync"

	"github.com/18999029117-create/weaver/api/schemas"
)

// Mailbox is the single-slot hand-off between the interaction surface and the
// polling host. A commit overwrites any unconsumed previous value; there is no
// queue, at most one pending pick is retained. Take-and-clear is atomic with
// respect to a concurrent commit, but a commit landing between a host's
// external read and clear cycle can be silently dropped -- that race is a
// documented property of the protocol, not a defect.
type Mailbox struct {
	mu   sync.Mutex
	slot *schemas.PickResult
}

// Put stores a pick result, overwriting any unconsumed one.
func (m *Mailbox) Put(r *schemas.PickResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot = r
}

// Take atomically returns and clears the slot; nil when empty.
func (m *Mailbox) Take() *schemas.PickResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.slot
	m.slot = nil
	return r
}
