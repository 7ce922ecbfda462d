package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.barcircle.dev/web/core/log"
)

// ManagerImpl merges source snapshots; later sources win over earlier ones.
type ManagerImpl struct {
	logger   log.Logger
	sources  []Source
	debounce time.Duration

	mu       sync.RWMutex
	layers   []map[string]string
	snapshot map[string]string

	subsMu     sync.RWMutex
	updateSubs map[int]func(map[string]string)
	nextSubID  int
}

// NewManager creates a new configuration manager.
func NewManager(logger log.Logger, sources []Source, debounce time.Duration) (*ManagerImpl, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("at least one source is required")
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	return &ManagerImpl{
		logger:     logger,
		sources:    sources,
		debounce:   debounce,
		layers:     make([]map[string]string, len(sources)),
		snapshot:   make(map[string]string),
		updateSubs: make(map[int]func(map[string]string)),
	}, nil
}

// Initialize loads every source and starts watching until ctx is done.
func (m *ManagerImpl) Initialize(ctx context.Context) error {
	for i, source := range m.sources {
		layer, err := source.Load(ctx)
		if err != nil {
			return fmt.Errorf("source %d load failed: %w", i, err)
		}
		m.layers[i] = layer
	}

	m.mu.Lock()
	m.snapshot = merge(m.layers)
	keys := len(m.snapshot)
	m.mu.Unlock()
	m.logger.Debug("configuration loaded", log.Int("keys", keys), log.Int("sources", len(m.sources)))

	for i, source := range m.sources {
		updates, err := source.Watch(ctx)
		if err != nil {
			return fmt.Errorf("source %d watch failed: %w", i, err)
		}
		go m.watchSource(ctx, i, updates)
	}
	return nil
}

func (m *ManagerImpl) watchSource(ctx context.Context, index int, updates <-chan map[string]string) {
	var (
		timer   *time.Timer
		pending map[string]string
		pmu     sync.Mutex
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			pmu.Lock()
			pending = snapshot
			pmu.Unlock()

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(m.debounce, func() {
				pmu.Lock()
				update := pending
				pmu.Unlock()
				m.applyUpdate(index, update)
			})
		}
	}
}

func (m *ManagerImpl) applyUpdate(index int, update map[string]string) {
	m.mu.Lock()
	m.layers[index] = update
	merged := merge(m.layers)
	m.snapshot = merged
	m.mu.Unlock()

	m.logger.Info("configuration updated", log.Int("source", index), log.Int("keys", len(merged)))
	m.notifySubscribers(merged)
}

// merge keeps only non-empty values so an empty file key cannot mask the environment.
func merge(layers []map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			if v != "" {
				merged[k] = v
			}
		}
	}
	return merged
}

func (m *ManagerImpl) notifySubscribers(snapshot map[string]string) {
	m.subsMu.RLock()
	subs := make([]func(map[string]string), 0, len(m.updateSubs))
	for _, fn := range m.updateSubs {
		subs = append(subs, fn)
	}
	m.subsMu.RUnlock()

	for _, fn := range subs {
		fn(copyMap(snapshot))
	}
}

// Snapshot returns a copy of the current configuration.
func (m *ManagerImpl) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyMap(m.snapshot)
}

// Value returns the value for a key and whether it exists.
func (m *ManagerImpl) Value(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.snapshot[key]
	return value, ok
}

// Bind decodes the current snapshot into target.
func (m *ManagerImpl) Bind(target any) error {
	return BindToStruct(m.Snapshot(), target)
}

// OnUpdate subscribes to configuration update events.
func (m *ManagerImpl) OnUpdate(fn func(snapshot map[string]string)) func() {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	m.updateSubs[id] = fn

	return func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		delete(m.updateSubs, id)
	}
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
