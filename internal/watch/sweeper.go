package watch

import (
	"time"
)

// Sweeper runs SweepExpired on a fixed interval until stopped.
type Sweeper struct {
	registry  *Registry
	interval  time.Duration
	stop      chan struct{}
	heartbeat func()
}

func NewSweeper(registry *Registry, interval time.Duration, heartbeat func()) *Sweeper {
	return &Sweeper{
		registry:  registry,
		interval:  interval,
		stop:      make(chan struct{}),
		heartbeat: heartbeat,
	}
}

func (s *Sweeper) Start() {
	go s.loop()
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.registry.SweepExpired(now)
			if s.heartbeat != nil {
				s.heartbeat()
			}
		}
	}
}

func (s *Sweeper) Stop() {
	close(s.stop)
}
