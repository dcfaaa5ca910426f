package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Sources are the URLs and file paths to extract, in order.
	Sources []string
	// OutputPath receives the JSON corpus. "-" means stdout.
	OutputPath string
	TeamID     string

	// GitHub
	GitHubToken      string
	GitHubAPIBaseURL string
	MaxFiles         int

	// PDF
	MaxChapters     int
	ChapterPatterns []string
	PDFTempDir      string

	// Crawling. A [0,0] delay range disables the inter-request politeness
	// sleep entirely; the CLI supplies the 1s-3s defaults.
	DelayMin        time.Duration
	DelayMax        time.Duration
	MinContentChars int
	Timeout         time.Duration
	UserAgent       string

	// ContentTypeOverride, when set, replaces content_type on every record
	// after extraction.
	ContentTypeOverride string

	// LLM tag enrichment; disabled unless LLMModel is set.
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	MaxTags    int

	// Behavior
	CacheDir   string
	CacheClear bool
	Verbose    bool
}
