package watchdog

import (
	"sync/atomic"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
)

// Watchdog tracks heartbeats from the engine's background loops (dispatch
// pool, decay sweeper, expiry sweeper) and flags any loop that goes quiet.
// Components are registered during wiring, before Start; the map is never
// mutated afterwards so heartbeats need no lock.
type Watchdog struct {
	components    map[string]*componentHealth
	checkInterval time.Duration
	running       uint32
}

type componentHealth struct {
	name          string
	lastHeartbeat int64
	healthy       uint32
	threshold     time.Duration
}

func New(checkInterval time.Duration) *Watchdog {
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}
	return &Watchdog{
		components:    make(map[string]*componentHealth),
		checkInterval: checkInterval,
	}
}

func (w *Watchdog) Register(name string, threshold time.Duration) {
	w.components[name] = &componentHealth{
		name:      name,
		healthy:   1,
		threshold: threshold,
	}
}

func (w *Watchdog) Heartbeat(name string) {
	if comp, exists := w.components[name]; exists {
		atomic.StoreInt64(&comp.lastHeartbeat, time.Now().UnixNano())
		atomic.StoreUint32(&comp.healthy, 1)
	}
}

func (w *Watchdog) Start() {
	atomic.StoreUint32(&w.running, 1)
	go w.monitorLoop()
}

func (w *Watchdog) Stop() {
	atomic.StoreUint32(&w.running, 0)
}

func (w *Watchdog) monitorLoop() {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for atomic.LoadUint32(&w.running) == 1 {
		<-ticker.C
		w.checkAll()
	}
}

func (w *Watchdog) checkAll() {
	now := time.Now().UnixNano()

	for name, comp := range w.components {
		lastBeat := atomic.LoadInt64(&comp.lastHeartbeat)
		if lastBeat == 0 {
			// Component has not started beating yet.
			continue
		}

		elapsed := time.Duration(now - lastBeat)
		if elapsed > comp.threshold {
			atomic.StoreUint32(&comp.healthy, 0)
			logging.Error("watchdog: %s silent for %v", name, elapsed)
		}
	}
}

func (w *Watchdog) IsHealthy(name string) bool {
	if comp, exists := w.components[name]; exists {
		return atomic.LoadUint32(&comp.healthy) == 1
	}
	return false
}

func (w *Watchdog) Status() map[string]bool {
	status := make(map[string]bool, len(w.components))
	for name, comp := range w.components {
		status[name] = atomic.LoadUint32(&comp.healthy) == 1
	}
	return status
}
