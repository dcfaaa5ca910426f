package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocorpus/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath      string
		outputPath      string
		teamID          string
		githubToken     string
		maxFiles        int
		maxChapters     int
		chapterPatterns string
		delayMin        time.Duration
		delayMax        time.Duration
		minContentChars int
		timeout         time.Duration
		userAgent       string
		contentType     string
		llmBaseURL      string
		llmModel        string
		llmKey          string
		maxTags         int
		cacheDir        string
		cacheClear      bool
		verbose         bool
	)

	flag.StringVar(&configPath, "config", os.Getenv("GOCORPUS_CONFIG"), "Path to YAML or JSON config file")
	flag.StringVar(&outputPath, "output", app.OutputDefault, "Path to write the JSON corpus ('-' for stdout)")
	flag.StringVar(&teamID, "team", os.Getenv("TEAM_ID"), "Team identifier stamped on the output envelope")
	flag.StringVar(&githubToken, "github.token", os.Getenv("GITHUB_TOKEN"), "GitHub API token (optional, raises rate limits)")
	flag.IntVar(&maxFiles, "max.files", app.MaxFilesDefault, "Maximum documentation files per repository directory")
	flag.IntVar(&maxChapters, "max.chapters", 0, "Maximum chapters per PDF (0 disables the cap)")
	flag.StringVar(&chapterPatterns, "pdf.chapterPatterns", "", "Comma-separated chapter heading regexes (overrides defaults)")
	flag.DurationVar(&delayMin, "delay.min", app.DelayMinDefault, "Minimum delay between page fetches")
	flag.DurationVar(&delayMax, "delay.max", app.DelayMaxDefault, "Maximum delay between page fetches")
	flag.IntVar(&minContentChars, "min.contentChars", 0, "Minimum markdown length to keep an extracted page (0 uses the default)")
	flag.DurationVar(&timeout, "timeout", app.TimeoutDefault, "Per-request HTTP timeout")
	flag.StringVar(&userAgent, "ua", "", "Custom User-Agent for HTTP requests")
	flag.StringVar(&contentType, "contentType", "", "Override content_type on every record")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL for tag enrichment")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name; empty disables tag enrichment")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.IntVar(&maxTags, "llm.maxTags", 0, "Maximum tags per record (0 uses the default)")
	flag.StringVar(&cacheDir, "cache.dir", os.Getenv("GOCORPUS_CACHE_DIR"), "Directory for the HTTP body cache; empty disables caching")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Usage = usage
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		Sources:             flag.Args(),
		OutputPath:          outputPath,
		TeamID:              teamID,
		GitHubToken:         githubToken,
		MaxFiles:            maxFiles,
		MaxChapters:         maxChapters,
		DelayMin:            delayMin,
		DelayMax:            delayMax,
		MinContentChars:     minContentChars,
		Timeout:             timeout,
		UserAgent:           userAgent,
		ContentTypeOverride: contentType,
		LLMBaseURL:          llmBaseURL,
		LLMModel:            llmModel,
		LLMAPIKey:           llmKey,
		MaxTags:             maxTags,
		CacheDir:            cacheDir,
		CacheClear:          cacheClear,
		Verbose:             verbose,
	}
	if s := strings.TrimSpace(chapterPatterns); s != "" {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.ChapterPatterns = append(cfg.ChapterPatterns, p)
			}
		}
	}

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("failed to load config file")
			os.Exit(2)
		}
		app.ApplyFileConfig(&cfg, fc)
	}

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		os.Exit(1)
	}
	if err := a.Run(ctx); err != nil {
		if errors.Is(err, app.ErrNoRecords) {
			log.Error().Msg("no records extracted from any source")
		} else {
			log.Error().Err(err).Msg("run failed")
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <source> [source...]\n\n", os.Args[0])
	fmt.Fprint(flag.CommandLine.Output(), `Sources may be blog URLs, GitHub repository URLs, Substack publications,
PDF files or Google Drive links, and markdown files or URLs. Each source is
routed to the matching extractor and the results are written as one JSON
corpus.

Flags:
`)
	flag.PrintDefaults()
}
