package extractor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocorpus/internal/corpus"
	"github.com/hyperifyio/gocorpus/internal/fetch"
	"github.com/hyperifyio/gocorpus/internal/identity"
)

// DefaultDocDirs are the conventional documentation directories scanned in a
// repository. A 404 on any of them just means "no files there".
var DefaultDocDirs = []string{"docs", "documentation", "doc", "wiki"}

// DefaultFileExtensions limit which documentation files are fetched.
var DefaultFileExtensions = []string{".md", ".markdown", ".txt", ".rst"}

// GitHubConfig tunes the GitHub extractor.
type GitHubConfig struct {
	// APIBaseURL overrides the GitHub API endpoint, for tests.
	APIBaseURL string
	// Token, when set, is sent as a bearer token.
	Token string
	// MaxFiles caps records per documentation directory. Default 50.
	MaxFiles       int
	FileExtensions []string
	DocDirs        []string
}

// GitHub extracts repository README and documentation-directory files via
// the GitHub REST API.
type GitHub struct {
	client *fetch.Client
	cfg    GitHubConfig
}

func NewGitHub(client *fetch.Client, cfg GitHubConfig) *GitHub {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.github.com"
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 50
	}
	if len(cfg.FileExtensions) == 0 {
		cfg.FileExtensions = DefaultFileExtensions
	}
	if len(cfg.DocDirs) == 0 {
		cfg.DocDirs = DefaultDocDirs
	}
	return &GitHub{client: client, cfg: cfg}
}

func (g *GitHub) Name() string { return "github" }

// CanHandle claims github.com URLs whose path has at least the owner/repo
// segments.
func (g *GitHub) CanHandle(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return false
	}
	return len(pathSegments(u.Path)) >= 2
}

func (g *GitHub) Extract(ctx context.Context, source string) []corpus.Record {
	u, err := url.Parse(source)
	if err != nil {
		log.Warn().Err(err).Str("url", source).Msg("github url parse failed")
		return nil
	}
	segments := pathSegments(u.Path)
	if len(segments) < 2 {
		// Owner-only URL: point the user at a concrete repository instead of
		// failing opaquely.
		owner := ""
		if len(segments) == 1 {
			owner = segments[0]
		}
		log.Error().Str("url", source).Msg("github url is missing the repository segment; use https://github.com/<owner>/<repo>")
		g.listPublicRepos(ctx, owner)
		return nil
	}
	owner, repo := segments[0], segments[1]

	records := g.extractReadme(ctx, owner, repo)
	records = append(records, g.extractDocs(ctx, owner, repo)...)
	return records
}

type githubFile struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	HTMLURL  string `json:"html_url"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (g *GitHub) extractReadme(ctx context.Context, owner, repo string) []corpus.Record {
	var file githubFile
	endpoint := fmt.Sprintf("%s/repos/%s/%s/readme", g.cfg.APIBaseURL, owner, repo)
	if err := g.getJSON(ctx, endpoint, &file); err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			log.Warn().Str("repo", owner+"/"+repo).Msg("readme not found")
		} else {
			log.Error().Err(err).Str("repo", owner+"/"+repo).Msg("readme fetch failed")
		}
		return nil
	}
	content, err := decodeContent(file)
	if err != nil {
		log.Error().Err(err).Str("repo", owner+"/"+repo).Msg("readme decode failed")
		return nil
	}
	return []corpus.Record{g.record(owner, repo, file, content)}
}

func (g *GitHub) extractDocs(ctx context.Context, owner, repo string) []corpus.Record {
	var out []corpus.Record
	for _, dir := range g.cfg.DocDirs {
		endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", g.cfg.APIBaseURL, owner, repo, dir)
		var entries []githubFile
		if err := g.getJSON(ctx, endpoint, &entries); err != nil {
			if !errors.Is(err, fetch.ErrNotFound) {
				log.Warn().Err(err).Str("dir", dir).Str("repo", owner+"/"+repo).Msg("doc directory listing failed")
			}
			continue
		}
		count := 0
		for _, entry := range entries {
			if entry.Type != "file" || !g.extensionAllowed(entry.Name) {
				continue
			}
			var file githubFile
			if err := g.getJSON(ctx, entry.URL, &file); err != nil {
				log.Warn().Err(err).Str("path", entry.Path).Msg("doc file fetch failed")
				continue
			}
			content, err := decodeContent(file)
			if err != nil {
				log.Warn().Err(err).Str("path", entry.Path).Msg("doc file decode failed")
				continue
			}
			out = append(out, g.record(owner, repo, file, content))
			count++
			if count >= g.cfg.MaxFiles {
				break
			}
		}
	}
	return out
}

func (g *GitHub) record(owner, repo string, file githubFile, content string) corpus.Record {
	title := firstHeading(content)
	if title == "" {
		title = fmt.Sprintf("%s - %s", repo, file.Name)
	}
	return corpus.Record{
		ID:          identity.ID(file.HTMLURL, title, 0),
		Title:       title,
		Content:     content,
		SourceURL:   file.HTMLURL,
		ContentType: corpus.TypeDocumentation,
		Author:      owner,
		Tags:        []string{},
		Metadata: map[string]string{
			"repository": owner + "/" + repo,
			"file_path":  file.Path,
			"platform":   "GitHub",
		},
	}
}

// listPublicRepos logs the owner's public repositories as guidance when the
// input lacked a repository segment. Best effort, never fatal.
func (g *GitHub) listPublicRepos(ctx context.Context, owner string) {
	if owner == "" {
		return
	}
	var repos []struct {
		FullName string `json:"full_name"`
	}
	endpoint := fmt.Sprintf("%s/users/%s/repos", g.cfg.APIBaseURL, owner)
	if err := g.getJSON(ctx, endpoint, &repos); err != nil {
		log.Debug().Err(err).Str("owner", owner).Msg("public repository listing failed")
		return
	}
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.FullName)
	}
	log.Info().Strs("repositories", names).Str("owner", owner).Msg("public repositories for owner")
}

func (g *GitHub) getJSON(ctx context.Context, endpoint string, v any) error {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if g.cfg.Token != "" {
		headers["Authorization"] = "Bearer " + g.cfg.Token
	}
	body, _, err := g.client.GetWithHeaders(ctx, endpoint, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func (g *GitHub) extensionAllowed(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range g.cfg.FileExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func decodeContent(file githubFile) (string, error) {
	if file.Encoding != "base64" || file.Content == "" {
		return "", fmt.Errorf("unexpected content encoding %q", file.Encoding)
	}
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, file.Content)
	raw, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	return string(raw), nil
}

// firstHeading returns the text of the first markdown heading line, if any.
func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
	}
	return ""
}

func pathSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
