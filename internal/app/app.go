package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocorpus/internal/cache"
	"github.com/hyperifyio/gocorpus/internal/corpus"
	"github.com/hyperifyio/gocorpus/internal/enrich"
	"github.com/hyperifyio/gocorpus/internal/extractor"
	"github.com/hyperifyio/gocorpus/internal/fetch"
	"github.com/hyperifyio/gocorpus/internal/gdrive"
	"github.com/hyperifyio/gocorpus/internal/locate"
)

// Flag defaults, shared with the file-config overlay so an untouched flag
// can still be overridden from the config file.
const (
	OutputDefault   = "corpus.json"
	MaxFilesDefault = 50
	DelayMinDefault = 1 * time.Second
	DelayMaxDefault = 3 * time.Second
	TimeoutDefault  = 30 * time.Second
)

// ErrNoRecords is returned when a run produced zero records across all
// sources. Per the exit code policy, this results in a non-zero process
// exit.
var ErrNoRecords = errors.New("no records extracted")

type App struct {
	cfg      Config
	registry *extractor.Registry
	tagger   *enrich.Tagger
}

// New wires the shared fetch client, content locator and extractor registry.
// Registration order decides routing priority: the specific extractors come
// before the generic blog fallback.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	client := &fetch.Client{
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       3,
		PerRequestTimeout: cfg.Timeout,
	}
	if client.PerRequestTimeout == 0 {
		client.PerRequestTimeout = TimeoutDefault
	}
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.Clear(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		client.Cache = &cache.BodyCache{Dir: cfg.CacheDir}
	}

	locator := &locate.Locator{}
	downloader := &gdrive.Downloader{Client: client}

	// The flag layer supplies the politeness-delay defaults; a zero range
	// here means the caller explicitly disabled sleeping.
	delayMin, delayMax := cfg.DelayMin, cfg.DelayMax

	registry := extractor.NewRegistry()
	registry.Register(extractor.NewGitHub(client, extractor.GitHubConfig{
		APIBaseURL: cfg.GitHubAPIBaseURL,
		Token:      cfg.GitHubToken,
		MaxFiles:   cfg.MaxFiles,
	}))
	registry.Register(extractor.NewSubstack(client, locator, extractor.SubstackConfig{
		DelayMin:        delayMin,
		DelayMax:        delayMax,
		MinContentChars: cfg.MinContentChars,
	}))
	registry.Register(extractor.NewPDF(downloader, extractor.PDFConfig{
		ChapterPatterns: cfg.ChapterPatterns,
		MaxChapters:     cfg.MaxChapters,
		TempDir:         cfg.PDFTempDir,
	}))
	registry.Register(extractor.NewMarkdownFile(client))
	registry.Register(extractor.NewBlog(client, locator, extractor.BlogConfig{
		DelayMin:        delayMin,
		DelayMax:        delayMax,
		MinContentChars: cfg.MinContentChars,
	}))

	a := &App{cfg: cfg, registry: registry}
	if cfg.LLMModel != "" {
		a.tagger = &enrich.Tagger{
			Client:  enrich.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey),
			Model:   cfg.LLMModel,
			MaxTags: cfg.MaxTags,
		}
	}
	return a, nil
}

// Run extracts every configured source, applies post-processing and writes
// the corpus. Individual source failures are logged and skipped; only a run
// with zero records overall fails.
func (a *App) Run(ctx context.Context) error {
	a.registry.Reset()
	for _, source := range a.cfg.Sources {
		records, err := a.registry.Dispatch(ctx, source)
		if err != nil {
			if errors.Is(err, extractor.ErrNoHandler) {
				log.Warn().Str("source", source).Msg("skipping source: no extractor accepts it")
				continue
			}
			return fmt.Errorf("dispatch %s: %w", source, err)
		}
		log.Info().Str("source", source).Int("records", len(records)).Msg("source extracted")
	}

	records := a.registry.Records()
	if len(records) == 0 {
		return ErrNoRecords
	}

	a.postProcess(ctx, records)

	out := corpus.Output{TeamID: a.cfg.TeamID, Items: records}
	if err := a.write(out); err != nil {
		return err
	}
	log.Info().Int("records", len(records)).Str("output", a.cfg.OutputPath).Msg("corpus written")
	return nil
}

// postProcess applies the content-type override and, when a model is
// configured, fills in missing tags. Enrichment failures are logged and the
// record keeps its empty tag list.
func (a *App) postProcess(ctx context.Context, records []corpus.Record) {
	for i := range records {
		if a.cfg.ContentTypeOverride != "" {
			records[i].ContentType = a.cfg.ContentTypeOverride
		}
		if a.tagger != nil && len(records[i].Tags) == 0 {
			tags, err := a.tagger.Suggest(ctx, records[i].Title, records[i].Content)
			if err != nil {
				log.Warn().Err(err).Str("title", records[i].Title).Msg("tag enrichment failed")
				continue
			}
			if len(tags) > 0 {
				records[i].Tags = tags
			}
		}
	}
}

func (a *App) write(out corpus.Output) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	data = append(data, '\n')
	if a.cfg.OutputPath == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(a.cfg.OutputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(a.cfg.OutputPath, data, 0o644); err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}
	return nil
}
