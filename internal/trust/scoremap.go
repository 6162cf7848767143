package trust

import (
	"sync"

	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// scoreMap guards the userID → record index. Record contents are protected
// by the ledger's key mutex, this lock only covers map structure.
type scoreMap struct {
	mu      sync.RWMutex
	entries map[string]*models.TrustScore
}

func newScoreMap() *scoreMap {
	return &scoreMap{entries: make(map[string]*models.TrustScore)}
}

func (m *scoreMap) get(userID string) *models.TrustScore {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[userID]
}

func (m *scoreMap) put(userID string, ts *models.TrustScore) {
	m.mu.Lock()
	m.entries[userID] = ts
	m.mu.Unlock()
}

func (m *scoreMap) ids() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.entries))
	for id := range m.entries {
		out = append(out, id)
	}
	return out
}
