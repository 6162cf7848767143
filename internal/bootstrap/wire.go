package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/actions"
	"github.com/BecasLan/BecasScore-sub005/internal/audit"
	"github.com/BecasLan/BecasScore-sub005/internal/bot"
	"github.com/BecasLan/BecasScore-sub005/internal/classifier"
	"github.com/BecasLan/BecasScore-sub005/internal/conditions"
	"github.com/BecasLan/BecasScore-sub005/internal/directory"
	"github.com/BecasLan/BecasScore-sub005/internal/dispatch"
	"github.com/BecasLan/BecasScore-sub005/internal/effector"
	"github.com/BecasLan/BecasScore-sub005/internal/engine"
	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/store"
	"github.com/BecasLan/BecasScore-sub005/internal/streams"
	"github.com/BecasLan/BecasScore-sub005/internal/trust"
	"github.com/BecasLan/BecasScore-sub005/internal/violations"
	"github.com/BecasLan/BecasScore-sub005/internal/watch"
	"github.com/BecasLan/BecasScore-sub005/internal/watchdog"
)

// Components is everything the engine runs. Wiring order matters: storage
// first, then the trust/violation state built on it, then the watch registry
// and dispatch path, and the gateway session last.
type Components struct {
	Store     store.Store
	Bus       *streams.Bus
	Hub       *streams.Hub
	RedisPub  *streams.RedisPublisher
	AuditLog  *audit.Log
	Ledger    *trust.Ledger
	Tracker   *violations.Tracker
	Conds     *conditions.Evaluator
	Directory directory.Directory
	Registry  *watch.Registry
	Queue     *dispatch.Queue
	Pool      *dispatch.Pool
	Engine    *engine.Engine
	Expiry    *watch.Sweeper
	Decay     *engine.DecaySweeper
	Watchdog  *watchdog.Watchdog
	Session   *bot.Session
	Ingestor  *bot.Ingestor
}

func Wire(b *Bootstrap) error {
	logging.Info("wiring components...")
	cfg := b.Config

	durable, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	var st store.Store = durable
	if cfg.Store.RedisAddr != "" {
		cached, err := store.NewCachedStore(durable, cfg.Store.RedisAddr, time.Duration(cfg.Store.RedisTTLSec)*time.Second)
		if err != nil {
			logging.Warn("redis cache unavailable, running on sqlite alone: %v", err)
		} else {
			st = cached
		}
	}

	bus := streams.NewBus(cfg.Streams.BufferSize)

	var hub *streams.Hub
	if cfg.Streams.WebsocketAddr != "" {
		hub = streams.NewHub(bus, cfg.Streams.WebsocketAddr)
	}

	var redisPub *streams.RedisPublisher
	if cfg.Store.RedisAddr != "" && cfg.Streams.RedisChannel != "" {
		redisPub, err = streams.NewRedisPublisher(cfg.Store.RedisAddr, cfg.Streams.RedisChannel)
		if err != nil {
			logging.Warn("redis stream publisher unavailable: %v", err)
			redisPub = nil
		}
	}

	var auditLog *audit.Log
	if cfg.Audit.Enabled {
		auditLog, err = audit.NewLog(cfg.Audit.Path)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
	}

	ledger := trust.NewLedger(st, bus.PublishTrust)
	tracker := violations.NewTracker(st)

	var cls classifier.Classifier
	if cfg.Classifier.BaseURL != "" {
		cls = classifier.NewHTTPClient(
			cfg.Classifier.BaseURL,
			cfg.Classifier.APIKey,
			time.Duration(cfg.Classifier.TimeoutMs)*time.Millisecond,
			cfg.Classifier.MaxRetries,
			time.Duration(cfg.Classifier.RetryDelayMs)*time.Millisecond,
		)
	} else {
		logging.Warn("no classifier configured, classified conditions run on heuristics only")
	}
	conds := conditions.NewEvaluator(cls, time.Duration(cfg.Classifier.TimeoutMs)*time.Millisecond)

	session, err := bot.NewSession(cfg.Bot.Token)
	if err != nil {
		return err
	}
	dir := directory.NewDiscordDirectory(session.Discord())

	registry := watch.NewRegistry(conds, dir, ledger, st)

	var rest *effector.RESTExecutor
	if cfg.Dispatch.APIBaseURL != "" {
		rest = effector.NewRESTExecutor(cfg.Dispatch.APIBaseURL, cfg.Bot.Token, cfg.Dispatch.HTTPPoolSize)
	}
	eff := effector.NewDiscordEffector(session.Discord(), rest)

	queue := dispatch.NewQueue(cfg.Dispatch.QueueSize)
	cooldowns := dispatch.NewCooldownManager(time.Duration(cfg.Engine.CooldownSeconds) * time.Second)
	pool := dispatch.NewPool(queue, actions.NewEvaluator(eff), cooldowns, auditLog, cfg.Dispatch.WorkerCount)

	eng := engine.New(cfg.Engine, ledger, tracker, conds, dir, queue, bus, auditLog)
	registry.SetTriggerHandler(eng.HandleTrigger)
	registry.SetRemoveHandler(eng.HandleWatchRemoved)
	pool.SetResultHandler(eng.HandleResult)

	wd := watchdog.New(30 * time.Second)
	wd.Register("dispatch", 2*time.Minute)
	wd.Register("decay", 3*time.Duration(cfg.Engine.DecaySweepSeconds)*time.Second)
	wd.Register("expiry", 3*time.Duration(cfg.Engine.ExpirySweepSeconds)*time.Second)
	pool.SetHeartbeat(wd.Heartbeat)

	expiry := watch.NewSweeper(registry, time.Duration(cfg.Engine.ExpirySweepSeconds)*time.Second, func() {
		wd.Heartbeat("expiry")
	})

	decay := engine.NewDecaySweeper(ledger, trust.DecayPolicy{
		GraceDays:  cfg.Engine.DecayGraceDays,
		RatePerDay: cfg.Engine.DecayRatePerDay,
	}, time.Duration(cfg.Engine.DecaySweepSeconds)*time.Second)
	decay.SetHeartbeat(wd.Heartbeat)

	ingestor := bot.NewIngestor(registry)
	session.AddHandler(ingestor.OnMessageCreate)

	b.Components = &Components{
		Store:     st,
		Bus:       bus,
		Hub:       hub,
		RedisPub:  redisPub,
		AuditLog:  auditLog,
		Ledger:    ledger,
		Tracker:   tracker,
		Conds:     conds,
		Directory: dir,
		Registry:  registry,
		Queue:     queue,
		Pool:      pool,
		Engine:    eng,
		Expiry:    expiry,
		Decay:     decay,
		Watchdog:  wd,
		Session:   session,
		Ingestor:  ingestor,
	}

	logging.Info("component wiring complete")
	return nil
}

func StartAll(c *Components) error {
	logging.Info("starting components...")

	c.Watchdog.Start()

	if c.Hub != nil {
		c.Hub.Start()
		logging.Info("websocket hub started")
	}
	if c.RedisPub != nil {
		c.RedisPub.Attach(c.Bus)
		logging.Info("redis stream publisher attached")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	restored := c.Registry.LoadPersisted(ctx)
	cancel()
	if restored > 0 {
		logging.Info("restored %d persisted watches", restored)
	}

	c.Pool.Start()
	c.Expiry.Start()
	c.Decay.Start()

	if err := c.Session.Connect(); err != nil {
		return fmt.Errorf("gateway connection failed: %w", err)
	}

	logging.Info("all components started")
	return nil
}
