// Package rates provides the conversion rate table: static configuration
// loaded from a YAML file, swapped atomically on reload so no conversion
// ever observes a partially updated table.
package rates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/paycrew/contractor-bfa-go/internal/domain"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Table is a hot-reloadable rate table. Readers get immutable snapshots;
// Reload replaces the whole table in one atomic pointer swap.
type Table struct {
	path    string
	current atomic.Pointer[domain.RateTable]
	logger  *zap.Logger
}

// Default returns the built-in table used when no rates file is configured.
func Default() *domain.RateTable {
	return &domain.RateTable{
		Base: "USD",
		Rates: map[string]float64{
			"USD": 1,
			"CAD": 0.75,
			"EUR": 1.1,
			"GBP": 1.27,
		},
	}
}

// Load parses a rate table from a YAML file.
func Load(path string) (*domain.RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rates: read %s: %w", path, err)
	}

	var t domain.RateTable
	if err := unmarshalYAML(data, &t); err != nil {
		return nil, fmt.Errorf("rates: parse %s: %w", path, err)
	}
	if t.Base == "" {
		return nil, fmt.Errorf("rates: %s: base currency is required", path)
	}
	if len(t.Rates) == 0 {
		return nil, fmt.Errorf("rates: %s: at least one rate is required", path)
	}
	for code, rate := range t.Rates {
		if rate <= 0 {
			return nil, fmt.Errorf("rates: %s: rate for %s must be positive, got %v", path, code, rate)
		}
	}
	if _, ok := t.Rates[t.Base]; !ok {
		t.Rates[t.Base] = 1
	}
	return &t, nil
}

// New creates a Table. With an empty path the built-in default table is
// used and Reload/Watch are no-ops.
func New(path string, logger *zap.Logger) (*Table, error) {
	t := &Table{path: path, logger: logger}

	if path == "" {
		t.current.Store(Default())
		return t, nil
	}

	loaded, err := Load(path)
	if err != nil {
		return nil, err
	}
	t.current.Store(loaded)
	return t, nil
}

// Current returns the current table snapshot. The snapshot is never
// mutated after the store; callers may hold it across calls.
func (t *Table) Current() *domain.RateTable {
	return t.current.Load()
}

// Reload re-reads the rates file and swaps the table. On parse failure the
// previous table stays in place.
func (t *Table) Reload() error {
	if t.path == "" {
		return nil
	}
	loaded, err := Load(t.path)
	if err != nil {
		return err
	}
	t.current.Store(loaded)
	t.logger.Info("rate table reloaded",
		zap.String("path", t.path),
		zap.String("base", loaded.Base),
		zap.Int("currencies", len(loaded.Rates)),
	)
	return nil
}

// Watch reloads the table whenever the rates file changes, until ctx is
// done. Editors often replace files via rename, so the watch is on the
// directory and filtered by name.
func (t *Table) Watch(ctx context.Context) error {
	if t.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("rates: watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(t.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("rates: watch %s: %w", dir, err)
	}

	target := filepath.Clean(t.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := t.Reload(); err != nil {
				t.logger.Warn("rate table reload failed, keeping previous table",
					zap.String("path", t.path),
					zap.Error(err),
				)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("rates watcher error", zap.Error(err))
		}
	}
}
