package identity

import "testing"

func TestID_Idempotent(t *testing.T) {
	a := ID("https://example.com/post", "A Post", 0)
	b := ID("https://example.com/post", "A Post", 0)
	if a != b {
		t.Fatalf("same inputs must yield the same id: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestID_DistinctTitles(t *testing.T) {
	a := ID("https://example.com/book.pdf", "Chapter 1: Intro", 1)
	b := ID("https://example.com/book.pdf", "Chapter 2: Depth", 2)
	if a == b {
		t.Fatalf("distinct titles for the same source must yield distinct ids")
	}
}

func TestID_DistinctParts(t *testing.T) {
	a := ID("https://example.com/book.pdf", "Chapter 1", 1)
	b := ID("https://example.com/book.pdf", "Chapter 1", 2)
	if a == b {
		t.Fatalf("distinct part indices must yield distinct ids")
	}
}

func TestID_SeparatorNotAmbiguous(t *testing.T) {
	// Moving bytes between source and title must change the hash.
	a := ID("https://example.com/ab", "c", 0)
	b := ID("https://example.com/a", "bc", 0)
	if a == b {
		t.Fatalf("field boundaries must be part of the canonical string")
	}
}
