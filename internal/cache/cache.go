package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry records what was stored alongside a body so a repeated run can reuse
// the response without hitting the network.
type Entry struct {
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	SavedAt     time.Time `json:"saved_at"`
}

// BodyCache stores fetched bodies on disk as <key>.meta.json and <key>.body
// where key is sha256(url). It is a simple, deterministic cache with no
// eviction policy; Clear removes everything.
type BodyCache struct {
	Dir string
}

func (c *BodyCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return os.MkdirAll(c.Dir, 0o755)
}

func (c *BodyCache) key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (c *BodyCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *BodyCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// Load returns the cached body and content type for url, or ok=false when
// the entry is absent or unreadable.
func (c *BodyCache) Load(url string) (body []byte, contentType string, ok bool) {
	if c == nil || c.Dir == "" {
		return nil, "", false
	}
	key := c.key(url)
	mf, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return nil, "", false
	}
	var e Entry
	if err := json.Unmarshal(mf, &e); err != nil {
		return nil, "", false
	}
	b, err := os.ReadFile(c.bodyPath(key))
	if err != nil {
		return nil, "", false
	}
	return b, e.ContentType, true
}

// Save stores a new cache entry to disk.
func (c *BodyCache) Save(url string, contentType string, body []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	key := c.key(url)
	if err := os.WriteFile(c.bodyPath(key), body, 0o644); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta := Entry{URL: url, ContentType: contentType, SavedAt: time.Now().UTC()}
	mb, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := os.WriteFile(c.metaPath(key), mb, 0o644); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

// Clear removes the cache directory contents. A missing directory is fine.
func Clear(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
