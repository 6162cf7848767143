package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	Bot        BotConfig        `json:"bot"`
	Engine     EngineConfig     `json:"engine"`
	Store      StoreConfig      `json:"store"`
	Classifier ClassifierConfig `json:"classifier"`
	Streams    StreamsConfig    `json:"streams"`
	Dispatch   DispatchConfig   `json:"dispatch"`
	Audit      AuditConfig      `json:"audit"`
	LogMode    string           `json:"log_mode"`
}

type BotConfig struct {
	Token    string `json:"token"`
	ClientID string `json:"client_id"`
}

type EngineConfig struct {
	DecayGraceDays       float64 `json:"decay_grace_days"`
	DecayRatePerDay      float64 `json:"decay_rate_per_day"`
	DecaySweepSeconds    int     `json:"decay_sweep_seconds"`
	ExpirySweepSeconds   int     `json:"expiry_sweep_seconds"`
	RedemptionCeiling    float64 `json:"redemption_ceiling"`
	CooldownSeconds      int     `json:"cooldown_seconds"`
	CoreViolationPenalty float64 `json:"core_violation_penalty"`
}

type StoreConfig struct {
	SQLitePath  string `json:"sqlite_path"`
	RedisAddr   string `json:"redis_addr"`
	RedisTTLSec int    `json:"redis_ttl_seconds"`
}

type ClassifierConfig struct {
	BaseURL      string `json:"base_url"`
	APIKey       string `json:"api_key"`
	TimeoutMs    int    `json:"timeout_ms"`
	MaxRetries   int    `json:"max_retries"`
	RetryDelayMs int    `json:"retry_delay_ms"`
}

type StreamsConfig struct {
	WebsocketAddr string `json:"websocket_addr"`
	RedisChannel  string `json:"redis_channel"`
	BufferSize    int    `json:"buffer_size"`
}

type DispatchConfig struct {
	WorkerCount  int    `json:"worker_count"`
	QueueSize    int    `json:"queue_size"`
	HTTPPoolSize int    `json:"http_pool_size"`
	APIBaseURL   string `json:"api_base_url"`
}

type AuditConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyFloors()
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DecayGraceDays:       7,
			DecayRatePerDay:      0.5,
			DecaySweepSeconds:    600,
			ExpirySweepSeconds:   60,
			RedemptionCeiling:    60,
			CooldownSeconds:      30,
			CoreViolationPenalty: 5,
		},
		Store: StoreConfig{
			SQLitePath:  "trustguard.db",
			RedisTTLSec: 3600,
		},
		Classifier: ClassifierConfig{
			TimeoutMs:    3000,
			MaxRetries:   2,
			RetryDelayMs: 300,
		},
		Streams: StreamsConfig{
			RedisChannel: "trustguard.events",
			BufferSize:   256,
		},
		Dispatch: DispatchConfig{
			WorkerCount:  4,
			QueueSize:    4096,
			HTTPPoolSize: 8,
			APIBaseURL:   "https://discord.com/api/v10",
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    "logs/audit.log",
		},
		LogMode: "dev",
	}
}

// applyFloors keeps a hand-edited config from zeroing out tunables the sweeps
// divide by.
func (c *Config) applyFloors() {
	if c.Engine.DecaySweepSeconds <= 0 {
		c.Engine.DecaySweepSeconds = 600
	}
	if c.Engine.ExpirySweepSeconds <= 0 {
		c.Engine.ExpirySweepSeconds = 60
	}
	if c.Classifier.TimeoutMs <= 0 {
		c.Classifier.TimeoutMs = 3000
	}
	if c.Dispatch.WorkerCount <= 0 {
		c.Dispatch.WorkerCount = 1
	}
	if c.Dispatch.QueueSize <= 0 {
		c.Dispatch.QueueSize = 1024
	}
	if c.Streams.BufferSize <= 0 {
		c.Streams.BufferSize = 256
	}
}
