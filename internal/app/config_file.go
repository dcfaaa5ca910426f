package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections map naturally to flags.
type FileConfig struct {
	Sources []string `yaml:"sources" json:"sources"`
	Output  string   `yaml:"output" json:"output"`
	Team    string   `yaml:"team" json:"team"`

	GitHub struct {
		Token    string `yaml:"token" json:"token"`
		API      string `yaml:"api" json:"api"`
		MaxFiles int    `yaml:"maxFiles" json:"maxFiles"`
	} `yaml:"github" json:"github"`

	PDF struct {
		MaxChapters     int      `yaml:"maxChapters" json:"maxChapters"`
		ChapterPatterns []string `yaml:"chapterPatterns" json:"chapterPatterns"`
		TempDir         string   `yaml:"tempDir" json:"tempDir"`
	} `yaml:"pdf" json:"pdf"`

	Crawl struct {
		DelayMin        time.Duration `yaml:"delayMin" json:"delayMin"`
		DelayMax        time.Duration `yaml:"delayMax" json:"delayMax"`
		MinContentChars int           `yaml:"minContentChars" json:"minContentChars"`
		Timeout         time.Duration `yaml:"timeout" json:"timeout"`
		UserAgent       string        `yaml:"userAgent" json:"userAgent"`
	} `yaml:"crawl" json:"crawl"`

	ContentType string `yaml:"contentType" json:"contentType"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
		MaxTags int    `yaml:"maxTags" json:"maxTags"`
	} `yaml:"llm" json:"llm"`

	Cache struct {
		Dir   string `yaml:"dir" json:"dir"`
		Clear bool   `yaml:"clear" json:"clear"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// that are currently unset/zero in cfg. Flags should already have been
// parsed; this lets file config supply defaults while preserving explicit
// flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}

	if len(cfg.Sources) == 0 && len(fc.Sources) > 0 {
		cfg.Sources = append([]string{}, fc.Sources...)
	}
	if (cfg.OutputPath == "" || cfg.OutputPath == OutputDefault) && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.TeamID == "" && fc.Team != "" {
		cfg.TeamID = fc.Team
	}

	if cfg.GitHubToken == "" && fc.GitHub.Token != "" {
		cfg.GitHubToken = fc.GitHub.Token
	}
	if cfg.GitHubAPIBaseURL == "" && fc.GitHub.API != "" {
		cfg.GitHubAPIBaseURL = fc.GitHub.API
	}
	if (cfg.MaxFiles == 0 || cfg.MaxFiles == MaxFilesDefault) && fc.GitHub.MaxFiles > 0 {
		cfg.MaxFiles = fc.GitHub.MaxFiles
	}

	if cfg.MaxChapters == 0 && fc.PDF.MaxChapters > 0 {
		cfg.MaxChapters = fc.PDF.MaxChapters
	}
	if len(cfg.ChapterPatterns) == 0 && len(fc.PDF.ChapterPatterns) > 0 {
		cfg.ChapterPatterns = append([]string{}, fc.PDF.ChapterPatterns...)
	}
	if cfg.PDFTempDir == "" && fc.PDF.TempDir != "" {
		cfg.PDFTempDir = fc.PDF.TempDir
	}

	// Zero is a meaningful delay value (sleeping disabled), so only the
	// untouched flag defaults are overridable here.
	if cfg.DelayMin == DelayMinDefault && fc.Crawl.DelayMin > 0 {
		cfg.DelayMin = fc.Crawl.DelayMin
	}
	if cfg.DelayMax == DelayMaxDefault && fc.Crawl.DelayMax > 0 {
		cfg.DelayMax = fc.Crawl.DelayMax
	}
	if cfg.MinContentChars == 0 && fc.Crawl.MinContentChars > 0 {
		cfg.MinContentChars = fc.Crawl.MinContentChars
	}
	if (cfg.Timeout == 0 || cfg.Timeout == TimeoutDefault) && fc.Crawl.Timeout > 0 {
		cfg.Timeout = fc.Crawl.Timeout
	}
	if cfg.UserAgent == "" && fc.Crawl.UserAgent != "" {
		cfg.UserAgent = fc.Crawl.UserAgent
	}

	if cfg.ContentTypeOverride == "" && fc.ContentType != "" {
		cfg.ContentTypeOverride = fc.ContentType
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.MaxTags == 0 && fc.LLM.MaxTags > 0 {
		cfg.MaxTags = fc.LLM.MaxTags
	}

	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if len(cfg.Sources) == 0 {
		return errors.New("config: at least one source is required")
	}
	for _, s := range cfg.Sources {
		if strings.TrimSpace(s) == "" {
			return errors.New("config: empty source")
		}
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return errors.New("config: output path is required")
	}
	if cfg.MaxFiles < 0 || cfg.MaxChapters < 0 || cfg.MinContentChars < 0 || cfg.MaxTags < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.DelayMin < 0 || cfg.DelayMax < 0 || cfg.DelayMin > cfg.DelayMax {
		return errors.New("config: delay range must satisfy 0 <= min <= max")
	}
	return nil
}
