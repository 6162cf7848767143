package bootstrap

import (
	"github.com/BecasLan/BecasScore-sub005/internal/logging"
)

// Shutdown stops components in reverse dependency order: stop taking input
// first, drain the enforcement path, close outputs, then storage.
func Shutdown(c *Components) error {
	logging.Info("starting graceful shutdown...")

	if c.Session != nil {
		logging.Info("closing gateway session...")
		if err := c.Session.Close(); err != nil {
			logging.Warn("gateway close: %v", err)
		}
	}

	logging.Info("stopping sweepers...")
	c.Expiry.Stop()
	c.Decay.Stop()

	logging.Info("draining dispatch pool...")
	c.Pool.Stop()

	c.Watchdog.Stop()

	if c.Hub != nil {
		logging.Info("closing websocket hub...")
		if err := c.Hub.Close(); err != nil {
			logging.Warn("hub close: %v", err)
		}
	}
	if c.RedisPub != nil {
		if err := c.RedisPub.Close(); err != nil {
			logging.Warn("redis publisher close: %v", err)
		}
	}
	c.Bus.Close()

	if c.AuditLog != nil {
		logging.Info("closing audit log...")
		if err := c.AuditLog.Close(); err != nil {
			logging.Warn("audit close: %v", err)
		}
	}

	logging.Info("closing store...")
	if err := c.Store.Close(); err != nil {
		logging.Warn("store close: %v", err)
	}

	logging.Info("graceful shutdown complete")
	logging.Sync()
	return nil
}
