package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/betbot/copybet/internal/decision"
	"github.com/betbot/copybet/internal/execution"
	"github.com/betbot/copybet/internal/ingest"
	"github.com/betbot/copybet/internal/matching"
	"github.com/betbot/copybet/internal/store"
	"github.com/betbot/copybet/internal/webhook"
	"github.com/betbot/copybet/pkg/config"
	"github.com/betbot/copybet/pkg/exchange"
	"github.com/betbot/copybet/pkg/logger"
	"github.com/betbot/copybet/pkg/shutdown"
	"github.com/betbot/copybet/pkg/syncgroup"
)

func main() {
	configPath := flag.String("config", os.Getenv("COPYBET_CONFIG"), "YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.OutputFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}); err != nil {
		log.Fatalf("init logger: %v", err)
	}

	db, err := store.OpenSQLite(cfg.Store.SQLitePath)
	if err != nil {
		logger.Errorf("open sqlite: %v", err)
		os.Exit(1)
	}
	dedup, err := store.OpenDedup(cfg.Store.DedupPath, time.Duration(cfg.Store.DedupTTLDays)*24*time.Hour)
	if err != nil {
		logger.Errorf("open dedup store: %v", err)
		os.Exit(1)
	}

	var signer *exchange.Signer
	if cfg.Exchange.PrivateKeyFile != "" {
		key, err := exchange.LoadPrivateKeyFile(cfg.Exchange.PrivateKeyFile)
		if err != nil {
			logger.Errorf("load exchange key: %v", err)
			os.Exit(1)
		}
		signer = exchange.NewSigner(cfg.Exchange.KeyID, key)
	}
	client := exchange.NewClient(cfg.Exchange.Host, signer)

	cache := matching.NewCandidateCache(
		&marketFetcher{client: client, limit: cfg.Matching.MarketFetchLimit},
		time.Duration(cfg.Matching.CandidateTTLSeconds)*time.Second,
	)
	matcher := matching.NewMatcher(cache, matching.DefaultGazetteer())

	mode := config.NewMode(cfg.Execution.Simulation)
	trades := store.NewTradeStore(db)
	executor := execution.NewExecutor(
		matcher,
		&execution.SimulatedOrderPort{Delay: time.Duration(cfg.Execution.SimulatedDelayMs) * time.Millisecond},
		&execution.LiveOrderPort{API: client, CostPerContractCents: int64(cfg.Execution.CostPerContractCents)},
		mode,
		trades,
	)

	settings := store.NewSettingsStore(db)
	ingestor := ingest.NewIngestor(
		ingest.NewClassifier(ingest.DefaultClassifierConfig()),
		ingest.NewParser(),
		dedup,
		settings,
		decision.NewEngine(),
		executor,
	)

	srv := webhook.NewServer(cfg.Webhook.Secret, ingestor, trades, settings)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	bg := syncgroup.NewSyncGroup()
	if cfg.Exchange.EnableStream && cfg.Exchange.WSURL != "" {
		stream := exchange.NewStream(cfg.Exchange.WSURL, signer, &cacheSink{cache: cache})
		bg.Add(func() { stream.Run(bgCtx) })
	}
	bg.Run()

	go func() {
		logger.Infof("copybet listening on %s (simulation=%v)", cfg.Server.Addr, mode.Simulation())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server error: %v", err)
		}
	}()

	mgr := shutdown.NewManager()
	mgr.OnShutdown(func(ctx context.Context, _ *sync.WaitGroup) {
		_ = httpSrv.Shutdown(ctx)
	})
	mgr.OnShutdown(func(ctx context.Context, _ *sync.WaitGroup) {
		bgCancel()
		bg.Wait()
	})
	mgr.OnShutdown(func(ctx context.Context, _ *sync.WaitGroup) {
		_ = dedup.Close()
		_ = db.Close()
	})

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mgr.Shutdown(ctx)
	logger.Info("server stopped")
}

// marketFetcher adapts the exchange client to the matcher cache.
type marketFetcher struct {
	client *exchange.Client
	limit  int
}

func (f *marketFetcher) FetchOpenMarkets(ctx context.Context) ([]matching.Candidate, error) {
	markets, err := f.client.SearchMarkets(ctx, exchange.MarketStatusOpen, f.limit)
	if err != nil {
		return nil, err
	}
	return toCandidates(markets), nil
}

// cacheSink feeds stream snapshots into the matcher cache.
type cacheSink struct {
	cache *matching.CandidateCache
}

func (s *cacheSink) WarmMarkets(markets []exchange.Market) {
	s.cache.Warm(toCandidates(markets))
}

func toCandidates(markets []exchange.Market) []matching.Candidate {
	out := make([]matching.Candidate, 0, len(markets))
	for _, m := range markets {
		out = append(out, matching.Candidate{Ticker: m.Ticker, Title: m.Title, Subtitle: m.Subtitle})
	}
	return out
}
