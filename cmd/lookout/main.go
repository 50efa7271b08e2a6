package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/api"
	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/chat"
	lookoutconfig "github.com/porramano/linkmagico-v6-prod-final-v2/internal/config"
	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/extract"
	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/fetch"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/cache"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/config"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/logging"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/monitoring"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/redis"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/server"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/version"
)

const sweepInterval = 10 * time.Minute

func main() {
	logger := logging.NewLoggerWithService("lookout")
	config.LoadEnv(logger)
	cfg := lookoutconfig.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthChecker := monitoring.NewHealthChecker("lookout", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("lookout", version.Version, version.GitCommit)
	hooks := metricsCollector.CacheHooks()

	results := cache.New[extract.Result](cache.Options{Name: "data", TTL: cfg.ExtractionCacheTTL}, hooks)
	sessions := cache.New[chat.Session](cache.Options{Name: "conversations", TTL: cfg.ConversationTTL}, hooks)
	intents := cache.New[chat.Intent](cache.Options{Name: "intents", TTL: cfg.IntentCacheTTL}, hooks)

	fetchOpts := []fetch.Option{
		fetch.WithLogger(logger),
		fetch.WithBlockPrivateNetworks(cfg.BlockPrivateNetworks),
		fetch.WithShellEscalation(cfg.EscalateClientShells),
		fetch.WithChallengeDelay(cfg.ChallengeDelay),
		fetch.WithBrowserBin(cfg.BrowserBin),
	}
	engine := extract.NewEngine(extract.Strategies{
		HTTP:       fetch.NewHTTP(fetchOpts...),
		Challenge:  fetch.NewChallenge(fetchOpts...),
		Playwright: fetch.NewPlaywright(fetchOpts...),
		Rod:        fetch.NewRod(fetchOpts...),
	}, results, extract.WithLogger(logger))

	sweepable := []cache.Sweeper{results, sessions, intents}
	sizes := map[string]func() int{
		"data":          results.Len,
		"conversations": sessions.Len,
		"intents":       intents.Len,
	}

	var instructions chat.InstructionStore
	if cfg.RedisURL != "" {
		client, err := redis.NewClientFromURL(ctx, cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer func() { _ = client.Close() }()
		healthChecker.AddCheck("redis", monitoring.RedisHealthCheck(client))
		instructions = chat.NewRedisInstructionStore(client, cfg.InstructionsTTL)
		logger.Info("Instruction store backed by Redis")
	} else {
		texts := cache.New[string](cache.Options{Name: "instructions", TTL: cfg.InstructionsTTL}, hooks)
		sizes["instructions"] = texts.Len
		sweepable = append(sweepable, texts)
		instructions = chat.NewMemoryInstructionStore(texts)
	}

	classifier := chat.NewIntentClassifier(intents)
	composer := chat.NewComposer(classifier, chat.WithComposerLogger(logger))
	conversations := chat.NewConversationStore(sessions, cfg.MaxHistoryMessages)
	chatService := chat.NewService(engine, instructions, conversations, composer,
		chat.WithServiceLogger(logger),
		chat.WithAssistantName(cfg.AssistantName),
	)

	for name, fn := range sizes {
		metricsCollector.TrackCacheSize(name, fn)
	}
	healthChecker.AddCheck("caches", monitoring.CacheHealthCheck(sizes))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"PORT": cfg.Port,
	}))

	go cache.RunSweeper(ctx, sweepInterval, func(name string, dropped int) {
		logger.WithFields(logging.Fields{"cache": name, "dropped": dropped}).Debug("Swept expired cache entries")
	}, sweepable...)

	app := server.SetupServiceRouter(logger, "lookout", healthChecker, metricsCollector)
	api.NewHandlers(engine, chatService, instructions, logger).Register(app)

	serverConfig := server.DefaultConfig("lookout", cfg.Port)
	if err := server.Serve(ctx, serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}
