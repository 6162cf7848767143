package bootstrap

import (
	"fmt"
	"os"

	"github.com/BecasLan/BecasScore-sub005/internal/config"
	"github.com/BecasLan/BecasScore-sub005/internal/logging"
)

// Bootstrap owns startup ordering: config, logging, then component wiring.
type Bootstrap struct {
	Config      *config.Config
	Components  *Components
	initialized bool
}

func New() *Bootstrap {
	return &Bootstrap{}
}

func (b *Bootstrap) Initialize(configPath string) error {
	if err := b.loadConfig(configPath); err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	if err := logging.InitGlobalLogger(b.Config.LogMode); err != nil {
		return fmt.Errorf("logging init failed: %w", err)
	}

	if err := Wire(b); err != nil {
		return fmt.Errorf("component wiring failed: %w", err)
	}

	b.initialized = true
	logging.Info("bootstrap complete")
	return nil
}

func (b *Bootstrap) loadConfig(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("config load failed, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}

	if cfg.Bot.Token == "" {
		cfg.Bot.Token = os.Getenv("DISCORD_TOKEN")
	}
	if cfg.Classifier.APIKey == "" {
		cfg.Classifier.APIKey = os.Getenv("CLASSIFIER_API_KEY")
	}

	b.Config = cfg
	return nil
}

func (b *Bootstrap) Start() error {
	if !b.initialized {
		return fmt.Errorf("bootstrap not initialized")
	}
	return StartAll(b.Components)
}

func (b *Bootstrap) Shutdown() error {
	return Shutdown(b.Components)
}
