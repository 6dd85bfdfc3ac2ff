package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jamplate/jamplate/internal/environment"
	"github.com/jamplate/jamplate/internal/spec"
)

func TestWatcherRecompilesOnlyWhenContentChanges(t *testing.T) {
	env := environment.New(spec.ArithmeticBundle(), nil)
	hub := NewHub()
	go hub.Run()

	var mu sync.Mutex
	content := "1 + 1"
	reads := 0
	loader := func(name string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		reads++
		return content, nil
	}

	w := NewWatcher(env, hub, loader, 5*time.Millisecond)

	if err := w.poll("doc"); err != nil {
		t.Fatalf("first poll: %v", err)
	}
	comp, ok := env.Get("doc")
	if !ok {
		t.Fatal("expected doc to be compiled after the first poll")
	}
	firstRoot := comp.Root

	if err := w.poll("doc"); err != nil {
		t.Fatalf("second poll (unchanged content): %v", err)
	}
	comp, _ = env.Get("doc")
	if comp.Root != firstRoot {
		t.Fatal("expected an unchanged-content poll to leave the compiled root untouched")
	}

	mu.Lock()
	content = "2 + 2"
	mu.Unlock()
	if err := w.poll("doc"); err != nil {
		t.Fatalf("third poll (changed content): %v", err)
	}
	comp, _ = env.Get("doc")
	if comp.Root == firstRoot {
		t.Fatal("expected a content change to recompile")
	}
}

func TestWatcherRunStopsOnContextCancel(t *testing.T) {
	env := environment.New(spec.ArithmeticBundle(), nil)
	hub := NewHub()
	go hub.Run()

	loader := func(name string) (string, error) { return "1", nil }
	w := NewWatcher(env, hub, loader, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, "doc") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
