package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AmplyBrain/internal/action"
	"AmplyBrain/internal/api"
	"AmplyBrain/internal/assistant"
	"AmplyBrain/internal/calendar"
	"AmplyBrain/internal/config"
	"AmplyBrain/internal/dispatch"
	"AmplyBrain/internal/memory"
	"AmplyBrain/internal/observability/alerting"
	"AmplyBrain/internal/observability/metrics"
	"AmplyBrain/pkg/logger"
	"AmplyBrain/pkg/plugin"
)

// main 是 Amply 助手守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("amplyd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("AMPLY_CONFIG")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logger.ToLogger()); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// 存储：记忆与日历共用同一个驱动选择。
	memStore, calStore, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = memStore.Close()
		_ = calStore.Close()
	}()

	// 动作执行层：注册表 + 内置执行器 + 插件贡献的执行器。
	registry := action.NewRegistry()
	action.RegisterInternalExecutors(registry)

	if cfg.Plugin.Enabled {
		manifest, err := plugin.LoadManagerConfig(cfg.Plugin.Manifest)
		if err != nil {
			return err
		}
		manager, err := plugin.NewManager(manifest, registry,
			plugin.WithResource("memory", memStore),
			plugin.WithResource("calendar", calStore),
		)
		if err != nil {
			return err
		}
		if err := manager.StartAll(ctx); err != nil {
			return err
		}
		defer func() { _ = manager.StopAll(context.Background()) }()
	}

	// 队列与派发器：auto 动作入队，单 worker 顺序执行。
	queue, err := buildQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = queue.Close() }()

	alerts := alerting.NewDispatcher(alerting.NewLogNotifier())
	collector := metrics.NewCollector()

	dispatcher := dispatch.NewDispatcher(registry, queue,
		dispatch.WithAlerts(alerts),
		dispatch.WithResultHook(func(result action.Result) {
			outcome := "ok"
			if !result.OK && result.Error != nil {
				outcome = string(result.Error.Code)
			}
			collector.ObserveAction(string(result.Kind), outcome)
		}),
	)
	dispatcher.Start(ctx)

	// 提醒扫描器随周期自转，也可通过 API 手动触发。
	scanner := calendar.NewScanner(calStore, cfg.Calendar.ScanLimit)
	go runScanLoop(ctx, scanner, cfg.Calendar.ScanInterval())

	orchestrator := assistant.New(assistant.WithMemoryStore(memStore))

	server := api.NewServer(cfg.Server.Address, orchestrator, registry,
		api.WithDispatcher(dispatcher),
		api.WithScanner(scanner),
		api.WithMetrics(collector),
		api.WithTimeouts(cfg.Server.ReadTimeout(), cfg.Server.WriteTimeout(), cfg.Server.ShutdownTimeout()),
	)

	if err := server.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func buildStores(ctx context.Context, cfg *config.Config) (memory.Store, calendar.Store, error) {
	switch cfg.Storage.Driver {
	case "mysql":
		memStore, err := memory.NewMySQLStore(ctx, memory.MySQLConfig{
			DSN:             cfg.Storage.MySQL.DSN,
			MaxOpenConns:    cfg.Storage.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.MySQL.ConnMaxLifetime(),
		})
		if err != nil {
			return nil, nil, err
		}
		calStore, err := calendar.NewMySQLStore(ctx, calendar.MySQLConfig{
			DSN:             cfg.Storage.MySQL.DSN,
			MaxOpenConns:    cfg.Storage.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.MySQL.ConnMaxLifetime(),
		})
		if err != nil {
			_ = memStore.Close()
			return nil, nil, err
		}
		return memStore, calStore, nil
	default:
		return memory.NewMemoryStore(), calendar.NewMemoryStore(), nil
	}
}

func buildQueue(ctx context.Context, cfg *config.Config) (dispatch.Queue, error) {
	switch cfg.Queue.Driver {
	case "redis":
		return dispatch.NewRedisQueue(ctx, dispatch.RedisConfig{
			Addr:     cfg.Queue.Redis.Addr,
			Password: cfg.Queue.Redis.Password,
			DB:       cfg.Queue.Redis.DB,
			Key:      cfg.Queue.Redis.Key,
		})
	case "rabbitmq":
		return dispatch.NewRabbitMQQueue(dispatch.RabbitMQConfig{
			URL:   cfg.Queue.RabbitMQ.URL,
			Queue: cfg.Queue.RabbitMQ.Queue,
		})
	default:
		return dispatch.NewMemoryQueue(cfg.Queue.Size), nil
	}
}

func runScanLoop(ctx context.Context, scanner *calendar.Scanner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := scanner.Run(ctx, now.UTC()); err != nil {
				logger.L().Error("提醒扫描失败", "error", err)
			}
		}
	}
}
