package flow

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ScriptLoader performs the actual load of a vendor script.
type ScriptLoader interface {
	Load(ctx context.Context, scriptID, scriptURL string) error
}

// HTTPScriptLoader fetches the script over HTTP. It is the production
// loader used to warm a vendor SDK before its adapter initializes.
type HTTPScriptLoader struct {
	Client *http.Client
}

func (l *HTTPScriptLoader) Load(ctx context.Context, scriptID, scriptURL string) error {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, "GET", scriptURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch script: status %d", resp.StatusCode)
	}
	return nil
}

// ScriptRegistry is an idempotent loader for third-party scripts. A
// script id is registered only after its load succeeded, so a failed
// load may be retried by a later call. Registered ids form an
// append-only set for the life of the process.
type ScriptRegistry struct {
	loader ScriptLoader
	logger *logrus.Logger

	mu     sync.Mutex
	loaded map[string]bool
	group  singleflight.Group
}

// NewScriptRegistry initializes a registry around the given loader.
func NewScriptRegistry(loader ScriptLoader, logger *logrus.Logger) *ScriptRegistry {
	if logger == nil {
		logger = logrus.New()
	}
	return &ScriptRegistry{
		loader: loader,
		logger: logger,
		loaded: make(map[string]bool),
	}
}

// EnsureLoaded loads scriptURL under scriptID exactly once. The
// returned channel fires nil once the script is available — immediately
// when the id is already registered — or the load error otherwise.
// Concurrent calls for the same id share a single load.
func (r *ScriptRegistry) EnsureLoaded(ctx context.Context, scriptID, scriptURL string) <-chan error {
	ch := make(chan error, 1)

	r.mu.Lock()
	if r.loaded[scriptID] {
		r.mu.Unlock()
		ch <- nil
		return ch
	}
	r.mu.Unlock()

	go func() {
		_, err, _ := r.group.Do(scriptID, func() (interface{}, error) {
			r.mu.Lock()
			done := r.loaded[scriptID]
			r.mu.Unlock()
			if done {
				return nil, nil
			}
			if err := r.loader.Load(ctx, scriptID, scriptURL); err != nil {
				r.logger.WithError(err).WithField("script_id", scriptID).Error("Script load failed")
				return nil, &ScriptLoadError{ScriptID: scriptID, Err: err}
			}
			r.mu.Lock()
			r.loaded[scriptID] = true
			r.mu.Unlock()
			r.logger.WithField("script_id", scriptID).Debug("Script loaded")
			return nil, nil
		})
		ch <- err
	}()
	return ch
}

// IsLoaded reports whether scriptID finished loading.
func (r *ScriptRegistry) IsLoaded(scriptID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded[scriptID]
}
