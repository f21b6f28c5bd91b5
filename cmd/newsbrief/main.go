// Command newsbrief fetches top headlines, filters them against a set of
// themes, summarizes the matches through a completion engine, and records
// the results in SQLite and a flat text file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hoanghai1803/newsbrief/internal/apiclient"
	"github.com/hoanghai1803/newsbrief/internal/config"
	"github.com/hoanghai1803/newsbrief/internal/news"
	"github.com/hoanghai1803/newsbrief/internal/output"
	"github.com/hoanghai1803/newsbrief/internal/pipeline"
	"github.com/hoanghai1803/newsbrief/internal/ratelimit"
	"github.com/hoanghai1803/newsbrief/internal/storage"
	"github.com/hoanghai1803/newsbrief/internal/summarize"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	async := flag.Bool("async", false, "summarize articles concurrently")
	background := flag.Bool("background", false, "run on a worker pool and detach from the fetch loop")
	themes := flag.String("themes", "", "comma-separated theme overrides")
	outPath := flag.String("output", "", "output file override")
	country := flag.String("country", "", "headline country override")
	category := flag.String("category", "", "headline category override")
	concurrency := flag.Int("concurrency", 0, "worker count override for async and background modes")
	debug := flag.Bool("debug", false, "enable debug logging")
	logFile := flag.String("log-file", "", "also write logs to this file")
	flag.Parse()

	// A missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	closeLogs, err := setupLogging(*debug, *logFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setting up logging:", err)
		os.Exit(1)
	}
	defer closeLogs()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg, *themes, *outPath, *country, *category, *concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *async, *background); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, async, background bool) error {
	db, err := storage.OpenDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		return err
	}
	store := storage.NewStore(db)

	// One limiter spaces calls per service; every outbound client shares it.
	limiter := ratelimit.New(cfg.MinRequestInterval())
	policy := apiclient.RetryPolicy{
		MaxAttempts: cfg.HTTP.MaxRetries,
		BaseDelay:   cfg.RetryDelay(),
		Multiplier:  2,
	}

	var source pipeline.Source
	switch cfg.News.Source {
	case "rss":
		source = news.NewRSSSource(cfg.News.FeedURL, cfg.Timeout(), limiter)
	default:
		api := apiclient.New(news.ServiceName, cfg.Timeout(), limiter, policy)
		source = news.NewClient(cfg.News.APIURL, cfg.News.APIKey, api)
	}

	summarizer := summarize.NewClient(
		cfg.CompletionsURL(),
		cfg.Summarize.APIKey,
		cfg.Summarize.EngineID,
		summarize.Options{
			MaxTokens:   cfg.Summarize.MaxTokens,
			Temperature: cfg.Summarize.Temperature,
		},
		apiclient.New(summarize.ServiceName, cfg.Timeout(), limiter, policy),
	)

	strategy := pipeline.StrategySequential
	switch {
	case background:
		strategy = pipeline.StrategyBackground
	case async:
		strategy = pipeline.StrategyConcurrent
	}

	runner := pipeline.NewRunner(
		pipeline.Config{
			Country:     cfg.News.Country,
			Category:    cfg.News.Category,
			Themes:      cfg.Pipeline.Themes,
			Strategy:    strategy,
			Concurrency: cfg.Pipeline.Concurrency,
		},
		pipeline.Deps{
			Source:     source,
			Summarizer: summarizer,
			Extractor:  news.NewExtractor(cfg.Timeout(), limiter),
			Articles:   store,
			Summaries:  store,
			Sink:       output.NewFileSink(cfg.Pipeline.OutputFile),
		},
	)

	var result *pipeline.RunResult
	if background {
		handle := runner.Start(ctx)
		slog.Info("run started in background", "concurrency", cfg.Pipeline.Concurrency)
		result, err = handle.Wait()
	} else {
		result, err = runner.Run(ctx)
	}
	if err != nil {
		return err
	}

	slog.Info("run finished",
		"summaries", len(result.Pairs),
		"failed", len(result.Failed),
		"output", cfg.Pipeline.OutputFile)
	if len(result.Failed) > 0 && len(result.Pairs) == 0 {
		return fmt.Errorf("all %d summarization attempts failed", len(result.Failed))
	}
	return nil
}

// applyFlagOverrides layers command-line flags on top of the loaded config.
// Flags beat both the config file and environment variables.
func applyFlagOverrides(cfg *config.Config, themes, outPath, country, category string, concurrency int) {
	if themes != "" {
		var parsed []string
		for _, theme := range strings.Split(themes, ",") {
			if theme = strings.TrimSpace(theme); theme != "" {
				parsed = append(parsed, theme)
			}
		}
		cfg.Pipeline.Themes = parsed
	}
	if outPath != "" {
		cfg.Pipeline.OutputFile = outPath
	}
	if country != "" {
		cfg.News.Country = country
	}
	if category != "" {
		cfg.News.Category = category
	}
	if concurrency > 0 {
		cfg.Pipeline.Concurrency = concurrency
	}
}

// setupLogging installs the default slog handler, optionally teeing output
// to a log file. The returned func closes the file.
func setupLogging(debug bool, logFile string) (func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closer := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file %q: %w", logFile, err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = func() { f.Close() }
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return closer, nil
}
