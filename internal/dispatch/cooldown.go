package dispatch

import (
	"sync"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// CooldownManager throttles repeated enforcement of the same action kind
// within a scope so a burst of triggers cannot hammer the same user.
type CooldownManager struct {
	mu        sync.RWMutex
	cooldowns map[string]map[models.ActionKind]int64
	duration  time.Duration
}

func NewCooldownManager(duration time.Duration) *CooldownManager {
	return &CooldownManager{
		cooldowns: make(map[string]map[models.ActionKind]int64),
		duration:  duration,
	}
}

func cooldownKey(scopeID, userID string) string {
	return scopeID + ":" + userID
}

func (cm *CooldownManager) CanExecute(scopeID, userID string, kind models.ActionKind) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	perKind, exists := cm.cooldowns[cooldownKey(scopeID, userID)]
	if !exists {
		return true
	}

	last, exists := perKind[kind]
	if !exists {
		return true
	}

	return time.Now().UnixNano()-last >= int64(cm.duration)
}

func (cm *CooldownManager) RecordExecution(scopeID, userID string, kind models.ActionKind) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	key := cooldownKey(scopeID, userID)
	if _, exists := cm.cooldowns[key]; !exists {
		cm.cooldowns[key] = make(map[models.ActionKind]int64)
	}
	cm.cooldowns[key][kind] = time.Now().UnixNano()
}

func (cm *CooldownManager) Reset(scopeID, userID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	delete(cm.cooldowns, cooldownKey(scopeID, userID))
}

func (cm *CooldownManager) RemainingCooldown(scopeID, userID string, kind models.ActionKind) time.Duration {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	perKind, exists := cm.cooldowns[cooldownKey(scopeID, userID)]
	if !exists {
		return 0
	}

	last, exists := perKind[kind]
	if !exists {
		return 0
	}

	remaining := int64(cm.duration) - (time.Now().UnixNano() - last)
	if remaining < 0 {
		return 0
	}
	return time.Duration(remaining)
}
