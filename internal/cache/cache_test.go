package cache

import (
	"testing"

	"github.com/jamplate/jamplate/internal/instruction"
)

func TestHashContentIsStableAndContentSensitive(t *testing.T) {
	a := HashContent("hello")
	b := HashContent("hello")
	if a != b {
		t.Fatalf("hash of identical content differs: %q vs %q", a, b)
	}
	c := HashContent("hello!")
	if a == c {
		t.Fatal("expected different content to hash differently")
	}
}

func TestGetPutEvict(t *testing.T) {
	c := New()
	hash := HashContent("doc")

	if _, ok := c.Get(hash); ok {
		t.Fatal("expected a miss on an empty cache")
	}

	root := instruction.Idle{}
	c.Put(hash, root)
	if got, ok := c.Get(hash); !ok || got != root {
		t.Fatalf("expected a hit returning the same instruction, got %v, %v", got, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}

	c.Evict(hash)
	if _, ok := c.Get(hash); ok {
		t.Fatal("expected a miss after eviction")
	}
	if c.Len() != 0 {
		t.Fatalf("len = %d, want 0 after eviction", c.Len())
	}
}

func TestPutReplacesExistingEntry(t *testing.T) {
	c := New()
	hash := HashContent("doc")
	c.Put(hash, instruction.Idle{})
	c.Put(hash, instruction.Pop{})
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1 (re-putting the same hash must not grow the cache)", c.Len())
	}
	got, _ := c.Get(hash)
	if _, ok := got.(instruction.Pop); !ok {
		t.Fatalf("expected the second Put to win, got %#v", got)
	}
}
