package watch

import (
	"context"
	"time"

	"github.com/jamplate/jamplate/internal/cache"
	"github.com/jamplate/jamplate/internal/document"
	"github.com/jamplate/jamplate/internal/environment"
	"github.com/jamplate/jamplate/internal/logging"
)

// Loader fetches name's current content from wherever the caller's
// document source lives. spec.md §1 names concrete file-system
// document loaders an out-of-scope collaborator, so Watcher only ever
// depends on this narrow function type rather than touching a
// filesystem itself.
type Loader func(name string) (string, error)

// Watcher polls one document's Loader on an interval, recompiles it
// through env whenever its content hash changes, and broadcasts the
// freshly rendered output over hub.
type Watcher struct {
	env      *environment.Environment
	hub      *Hub
	load     Loader
	interval time.Duration

	lastHash map[string]string
}

// NewWatcher builds a Watcher driving env, broadcasting through hub,
// polling every interval.
func NewWatcher(env *environment.Environment, hub *Hub, load Loader, interval time.Duration) *Watcher {
	return &Watcher{
		env:      env,
		hub:      hub,
		load:     load,
		interval: interval,
		lastHash: map[string]string{},
	}
}

// Run polls name on w.interval until ctx is done, recompiling and
// broadcasting whenever the loaded content changes.
func (w *Watcher) Run(ctx context.Context, name string) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if err := w.poll(name); err != nil {
		logging.Warn("initial watch poll failed", "document", name, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.poll(name); err != nil {
				logging.Warn("watch poll failed", "document", name, "error", err)
				w.hub.Broadcast(RenderMessage{Type: "error", Document: name, Message: err.Error()})
			}
		}
	}
}

func (w *Watcher) poll(name string) error {
	content, err := w.load(name)
	if err != nil {
		return err
	}
	hash := cache.HashContent(content)
	if w.lastHash[name] == hash {
		return nil
	}
	w.lastHash[name] = hash

	doc := document.New(name, content)
	if _, err := w.env.Compile(doc); err != nil {
		return err
	}
	output, err := w.env.Execute(name)
	if err != nil {
		return err
	}
	logging.WatchEvent("recompiled", name, 0)
	w.hub.Broadcast(RenderMessage{Type: "render", Document: name, Output: output})
	return nil
}
