package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"muetbot/internal/chunker"
	"muetbot/internal/cleaner"
	"muetbot/internal/config"
	"muetbot/internal/crawler"
	"muetbot/internal/domain"
	"muetbot/internal/embedding"
	"muetbot/internal/index"
	"muetbot/internal/ingest"
	"muetbot/internal/llm"
	"muetbot/internal/loader"
	"muetbot/internal/scheduler"
	"muetbot/internal/server"
	"muetbot/internal/service"
	"muetbot/internal/vectorstore/bolt"
	"muetbot/internal/vectorstore/qdrant"
)

var exitWords = map[string]bool{"exit": true, "bye": true, "escape": true, "quit": true}

func main() {
	_ = godotenv.Load()

	var (
		cfgPath   string
		cliMode   bool
		ingestRun string
		verbose   bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/muetbot/config.yaml if not provided)")
	flag.BoolVar(&cliMode, "cli", false, "Run an interactive question loop instead of the HTTP server")
	flag.StringVar(&ingestRun, "ingest", "", "Run an ingest job and exit: discover, site, news or all")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := newApp(cfg)
	if err != nil {
		slog.Error("failed to assemble application", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case ingestRun != "":
		err = a.runIngest(ctx, ingestRun)
	case cliMode:
		err = a.runCLI(ctx)
	default:
		err = a.runServer(ctx)
	}
	if err != nil {
		slog.Error("muetbot exited with error", "error", err)
		os.Exit(1)
	}
}

// app groups the assembled components.
type app struct {
	cfg      *config.AppConfig
	site     *ingest.SiteIngestor
	news     *ingest.NewsIngestor
	discover *ingest.LinkDiscoverer
	pipeline *service.Pipeline
}

func newApp(cfg *config.AppConfig) (*app, error) {
	adapter := crawler.NewAdapter(
		time.Duration(cfg.Crawler.TimeoutSecs)*time.Second,
		cfg.Crawler.UserAgent,
		cleaner.New(),
	)
	site := ingest.NewSiteIngestor(adapter, ingest.SiteConfig{
		AllowedDomain:     cfg.Crawler.AllowedDomain,
		ExcludeSubstrings: cfg.Crawler.ExcludeSubstrings,
		RequestsPerSecond: cfg.Crawler.RequestsPerSecond,
	})
	news := ingest.NewNewsIngestor(adapter, ingest.NewsConfig{
		BaseURL:           cfg.News.BaseURL,
		MaxPages:          cfg.News.MaxPages,
		RequestsPerSecond: cfg.Crawler.RequestsPerSecond,
	})
	discover := ingest.NewLinkDiscoverer(adapter, ingest.DiscoverConfig{
		Roots:             cfg.Crawler.DiscoverRoots,
		AllowedDomain:     cfg.Crawler.AllowedDomain,
		MaxPages:          cfg.Crawler.DiscoverMaxPages,
		RequestsPerSecond: cfg.Crawler.RequestsPerSecond,
	})

	embedder, err := embedding.NewClient(embedding.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
		BatchSize: cfg.Embedder.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder init: %w", err)
	}
	model, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKeyEnv:   cfg.LLM.APIKeyEnv,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("language model init: %w", err)
	}

	docs := loader.New(loader.Config{
		MainDumpName:          cfg.Paths.SiteDump,
		ProspectusPath:        filepath.Join(cfg.Paths.DataDir, cfg.Paths.Prospectus),
		ProspectusFallbackURL: cfg.Paths.ProspectusFallbackURL,
	})
	splitter := chunker.NewRecursiveSplitter(cfg.Chunker.Size, cfg.Chunker.Overlap)
	builder := index.NewBuilder(embedder)

	storeBuilder := newStoreBuilder(cfg, docs, splitter, builder)
	pipeline := service.NewPipeline(storeBuilder, embedder, model, cfg.Retriever.TopK)

	return &app{cfg: cfg, site: site, news: news, discover: discover, pipeline: pipeline}, nil
}

// newStoreBuilder returns the closure the pipeline calls on every init
// and rebuild: load the dumps, split them, and materialize the index.
// A reusable non-empty persistent index short-circuits document
// loading entirely.
func newStoreBuilder(cfg *config.AppConfig, docs *loader.Loader, splitter *chunker.RecursiveSplitter, builder *index.Builder) service.StoreBuilder {
	indexPath := filepath.Join(cfg.Paths.DataDir, cfg.Paths.IndexPath)
	dumpPaths := []string{
		filepath.Join(cfg.Paths.DataDir, cfg.Paths.SiteDump),
		filepath.Join(cfg.Paths.DataDir, cfg.Paths.NewsDump),
	}

	return func(ctx context.Context, reuse bool) (domain.VectorStore, error) {
		if reuse && cfg.VectorStore.Type == "bolt" {
			if store, ok := openExistingIndex(indexPath); ok {
				return store, nil
			}
		}

		documents, err := docs.LoadAll(dumpPaths)
		if err != nil {
			return nil, fmt.Errorf("load documents: %w", err)
		}
		chunks, err := splitter.Split(documents)
		if err != nil {
			return nil, fmt.Errorf("split documents: %w", err)
		}
		slog.Info("prepared chunks", "documents", len(documents), "chunks", len(chunks))

		switch cfg.VectorStore.Type {
		case "bolt", "":
			return builder.BuildOrLoadBolt(ctx, indexPath, chunks, reuse)
		case "qdrant":
			qc := cfg.VectorStore.Qdrant
			if qc == nil {
				return nil, errors.New("qdrant vector store config missing")
			}
			store := qdrant.NewStorage(qdrant.Config{
				URL:        qc.URL,
				APIKey:     qc.APIKey,
				Collection: qc.Collection,
				Timeout:    time.Duration(qc.TimeoutSecs) * time.Second,
			})
			return builder.BuildOrLoadQdrant(ctx, store, chunks, reuse)
		case "memory":
			return builder.BuildMemory(ctx, chunks)
		default:
			return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
		}
	}
}

func openExistingIndex(path string) (domain.VectorStore, bool) {
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}
	store, err := bolt.Open(path)
	if err != nil {
		slog.Warn("existing index unreadable, will rebuild", "path", path, "error", err)
		return nil, false
	}
	count, err := store.Count()
	if err != nil || count == 0 {
		store.Close()
		return nil, false
	}
	slog.Info("loaded existing index", "path", path, "entries", count)
	return store, true
}

func (a *app) ingestSite(ctx context.Context) error {
	out := filepath.Join(a.cfg.Paths.DataDir, a.cfg.Paths.SiteDump)
	_, urls, err := a.site.Run(ctx, a.cfg.Crawler.SeedFile, out)
	if err != nil {
		return fmt.Errorf("site crawl: %w", err)
	}
	slog.Info("site crawl complete", "pages", len(urls), "output", out)
	return nil
}

func (a *app) ingestNews(ctx context.Context) error {
	out := filepath.Join(a.cfg.Paths.DataDir, a.cfg.Paths.NewsDump)
	articles, err := a.news.Run(ctx, out)
	if err != nil {
		return fmt.Errorf("news crawl: %w", err)
	}
	slog.Info("news crawl complete", "articles", len(articles), "output", out)
	return nil
}

func (a *app) runIngest(ctx context.Context, what string) error {
	switch what {
	case "discover":
		links, err := a.discover.Run(ctx, a.cfg.Crawler.SeedFile)
		if err != nil {
			return fmt.Errorf("link discovery: %w", err)
		}
		slog.Info("seed file written", "links", len(links), "output", a.cfg.Crawler.SeedFile)
		return nil
	case "site":
		return a.ingestSite(ctx)
	case "news":
		return a.ingestNews(ctx)
	case "all":
		if err := a.ingestSite(ctx); err != nil {
			return err
		}
		return a.ingestNews(ctx)
	default:
		return fmt.Errorf("unknown ingest job %q, want discover, site, news or all", what)
	}
}

func (a *app) runCLI(ctx context.Context) error {
	if err := a.pipeline.Init(ctx); err != nil {
		return fmt.Errorf("pipeline init: %w", err)
	}
	defer a.pipeline.Close()

	fmt.Println("MUETBOT ready. Ask a question, or type 'exit' to leave.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if exitWords[strings.ToLower(question)] {
			fmt.Println("Goodbye!")
			return nil
		}
		answer, err := a.pipeline.Answer(ctx, question)
		if err != nil {
			slog.Error("query failed", "error", err)
			continue
		}
		fmt.Println(answer)
	}
}

func (a *app) runServer(ctx context.Context) error {
	// A failed first build leaves the server up but answering 503,
	// the scheduler can repair it on the next refresh.
	if err := a.pipeline.Init(ctx); err != nil {
		slog.Error("initial index build failed, starting degraded", "error", err)
	}
	defer a.pipeline.Close()

	var sched *scheduler.Scheduler
	schedRunning := func() bool { return false }
	if a.cfg.Scheduler.Enabled {
		var fullCrawlAt time.Time
		if a.cfg.Scheduler.FullCrawlAt != "" {
			parsed, err := time.Parse(time.RFC3339, a.cfg.Scheduler.FullCrawlAt)
			if err != nil {
				slog.Warn("invalid full_crawl_at, skipping one-time crawl", "value", a.cfg.Scheduler.FullCrawlAt, "error", err)
			} else {
				fullCrawlAt = parsed
			}
		}
		sched = scheduler.New(scheduler.Config{
			NewsHour:    a.cfg.News.Hour,
			FullCrawlAt: fullCrawlAt,
		}, a.refreshNews, a.refreshSite)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("scheduler start: %w", err)
		}
		defer sched.Stop()
		schedRunning = sched.Running
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           server.New(a.pipeline, schedRunning, a.cfg.Server.StaticDir).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", a.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// refreshNews re-crawls the news listing and rebuilds the index.
func (a *app) refreshNews(ctx context.Context) error {
	if err := a.ingestNews(ctx); err != nil {
		return err
	}
	return a.pipeline.Rebuild(ctx)
}

// refreshSite runs the full site crawl and rebuilds the index.
func (a *app) refreshSite(ctx context.Context) error {
	if err := a.ingestSite(ctx); err != nil {
		return err
	}
	return a.pipeline.Rebuild(ctx)
}
