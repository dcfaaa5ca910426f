package cache

import (
	"testing"
)

func TestBodyCache_SaveLoad(t *testing.T) {
	c := &BodyCache{Dir: t.TempDir()}
	url := "https://example.com/page"
	if err := c.Save(url, "text/html", []byte("<html>hi</html>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	body, ct, ok := c.Load(url)
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if ct != "text/html" {
		t.Fatalf("content type mismatch: %q", ct)
	}
	if string(body) != "<html>hi</html>" {
		t.Fatalf("body mismatch: %q", string(body))
	}
}

func TestBodyCache_MissAndNilSafe(t *testing.T) {
	c := &BodyCache{Dir: t.TempDir()}
	if _, _, ok := c.Load("https://example.com/missing"); ok {
		t.Fatalf("expected miss for unknown url")
	}
	var nilCache *BodyCache
	if _, _, ok := nilCache.Load("https://example.com/x"); ok {
		t.Fatalf("nil cache must behave as a miss")
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	c := &BodyCache{Dir: dir}
	if err := c.Save("https://example.com/a", "text/html", []byte("a")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := Clear(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, _, ok := c.Load("https://example.com/a"); ok {
		t.Fatalf("expected miss after clear")
	}
	if err := Clear(dir + "-missing"); err != nil {
		t.Fatalf("clearing a missing dir must not fail: %v", err)
	}
}
