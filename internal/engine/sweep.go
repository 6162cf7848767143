package engine

import (
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/trust"
)

// DecaySweeper periodically walks the ledger and drifts stale scores back
// toward the default.
type DecaySweeper struct {
	ledger    *trust.Ledger
	policy    trust.DecayPolicy
	interval  time.Duration
	stop      chan struct{}
	done      chan struct{}
	heartbeat func(name string)
}

func NewDecaySweeper(ledger *trust.Ledger, policy trust.DecayPolicy, interval time.Duration) *DecaySweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &DecaySweeper{
		ledger:   ledger,
		policy:   policy,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *DecaySweeper) SetHeartbeat(fn func(name string)) {
	s.heartbeat = fn
}

func (s *DecaySweeper) Start() {
	go s.runLoop()
}

func (s *DecaySweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *DecaySweeper) runLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if s.heartbeat != nil {
				s.heartbeat("decay")
			}
			decayed := s.ledger.ApplyDecay(now, s.policy)
			if decayed > 0 {
				logging.Debug("decay sweep adjusted %d scores", decayed)
			}
		case <-s.stop:
			return
		}
	}
}
