package store

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/jmylchreest/fairway/internal/page"
)

// DefaultCollectionKey is the KV key holding the serialized assignments.
const DefaultCollectionKey = "fairway.pageThemes"

// Assignment is a persisted page path to theme key override.
type Assignment struct {
	PagePath string `json:"pagePath" yaml:"page_path"`
	ThemeID  string `json:"themeId" yaml:"theme_id"`
}

// ChangeType indicates the type of assignment change.
type ChangeType int

const (
	// ChangeTypeUpsert indicates a single assignment was created or replaced.
	ChangeTypeUpsert ChangeType = iota
	// ChangeTypeReset indicates all assignments were removed.
	ChangeTypeReset
	// ChangeTypeHydrate indicates the collection was reloaded from storage.
	ChangeTypeHydrate
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeTypeUpsert:
		return "upsert"
	case ChangeTypeReset:
		return "reset"
	case ChangeTypeHydrate:
		return "hydrate"
	default:
		return "unknown"
	}
}

// ChangeEvent signals an assignment change. PagePath and ThemeID are set
// for upserts only.
type ChangeEvent struct {
	Type     ChangeType
	PagePath string
	ThemeID  string
}

// Options configures an Assignments service.
type Options struct {
	CollectionKey string           // Defaults to DefaultCollectionKey
	Classifier    *page.Classifier // Page groups for equivalence lookups
	Logger        *slog.Logger
}

// Assignments is the only public surface over the persisted page theme
// assignments. Readers and writers go through it rather than touching the
// KV directly.
//
// Persistence failures never reach callers: reads degrade to an empty
// collection and failed writes are logged while the session keeps the
// intended change in memory.
type Assignments struct {
	mu         sync.Mutex
	kv         KV
	key        string
	classifier *page.Classifier
	logger     *slog.Logger

	items   []Assignment
	dirty   bool  // in-memory items hold changes the KV rejected
	lastErr error // most recent persistence error

	subscribers []chan ChangeEvent
	closed      bool
}

// NewAssignments creates an assignment service over kv.
func NewAssignments(kv KV, opts Options) *Assignments {
	if opts.CollectionKey == "" {
		opts.CollectionKey = DefaultCollectionKey
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Classifier == nil {
		opts.Classifier = page.NewClassifier(nil)
	}

	return &Assignments{
		kv:         kv,
		key:        opts.CollectionKey,
		classifier: opts.Classifier,
		logger:     opts.Logger,
	}
}

// GetAll returns every assignment in stored order. A missing or corrupt
// collection yields an empty slice.
func (a *Assignments) GetAll() []Assignment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.loadLocked())
}

// Upsert sets the theme for the exact page path, replacing any existing
// entry for that path, and persists the full collection.
func (a *Assignments) Upsert(pagePath, themeID string) {
	pagePath = page.Normalize(pagePath)

	a.mu.Lock()
	items := slices.Clone(a.loadLocked())

	idx := slices.IndexFunc(items, func(as Assignment) bool {
		return as.PagePath == pagePath
	})
	if idx >= 0 {
		items[idx].ThemeID = themeID
	} else {
		items = append(items, Assignment{PagePath: pagePath, ThemeID: themeID})
	}
	a.items = items
	a.persistLocked()
	a.mu.Unlock()

	a.logger.Debug("theme assignment saved", "page", pagePath, "theme", themeID)
	a.notifyChange(ChangeEvent{Type: ChangeTypeUpsert, PagePath: pagePath, ThemeID: themeID})
}

// ResetAll removes every assignment unconditionally.
func (a *Assignments) ResetAll() {
	a.mu.Lock()
	a.items = nil
	if err := a.kv.Delete(a.key); err != nil {
		a.lastErr = err
		a.dirty = true
		a.logger.Warn("failed to clear theme assignments", "key", a.key, "error", err)
	} else {
		a.lastErr = nil
		a.dirty = false
	}
	a.mu.Unlock()

	a.logger.Debug("theme assignments reset")
	a.notifyChange(ChangeEvent{Type: ChangeTypeReset})
}

// FindForPath returns the first stored assignment whose page is equivalent
// to path under the page group rules.
func (a *Assignments) FindForPath(path string) (Assignment, bool) {
	return a.FindFor(a.classifier.Identify(path))
}

// FindFor returns the first stored assignment equivalent to id.
func (a *Assignments) FindFor(id page.Identity) (Assignment, bool) {
	a.mu.Lock()
	items := a.loadLocked()
	a.mu.Unlock()

	for _, as := range items {
		if page.Equivalent(a.classifier.Identify(as.PagePath), id) {
			return as, true
		}
	}
	return Assignment{}, false
}

// Hydrate discards in-memory state and reloads the collection from storage.
// Used when the backing store is changed by another process.
func (a *Assignments) Hydrate() {
	a.mu.Lock()
	a.dirty = false
	a.items = a.readLocked()
	count := len(a.items)
	a.mu.Unlock()

	a.logger.Debug("theme assignments hydrated", "count", count)
	a.notifyChange(ChangeEvent{Type: ChangeTypeHydrate})
}

// Err returns the most recent persistence error, or nil if the last write
// succeeded.
func (a *Assignments) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Classifier returns the page classifier used for equivalence lookups.
func (a *Assignments) Classifier() *page.Classifier {
	return a.classifier
}

// Subscribe returns a channel that receives change events.
func (a *Assignments) Subscribe() <-chan ChangeEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan ChangeEvent, 16)
	if a.closed {
		close(ch)
		return ch
	}
	a.subscribers = append(a.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (a *Assignments) Unsubscribe(ch <-chan ChangeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, sub := range a.subscribers {
		if sub == ch {
			a.subscribers = slices.Delete(a.subscribers, i, i+1)
			close(sub)
			return
		}
	}
}

// Close closes all subscriber channels and the underlying KV.
func (a *Assignments) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	for _, ch := range a.subscribers {
		close(ch)
	}
	a.subscribers = nil

	return a.kv.Close()
}

// notifyChange sends an event to all subscribers without blocking.
func (a *Assignments) notifyChange(event ChangeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, ch := range a.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber not keeping up; drop the event
		}
	}
}

// loadLocked returns the session's view of the collection, re-reading
// storage unless a failed write left unsaved changes in memory.
func (a *Assignments) loadLocked() []Assignment {
	if a.dirty {
		return a.items
	}
	a.items = a.readLocked()
	return a.items
}

// readLocked deserializes the persisted collection. Absent, unreadable or
// malformed data is treated as no assignments.
func (a *Assignments) readLocked() []Assignment {
	data, ok, err := a.kv.Get(a.key)
	if err != nil {
		a.logger.Warn("failed to read theme assignments, treating as empty", "key", a.key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var raw []Assignment
	if err := json.Unmarshal(data, &raw); err != nil {
		a.logger.Warn("corrupt theme assignments, treating as empty", "key", a.key, "error", err)
		return nil
	}

	// Enforce one entry per path even if the stored data was edited by hand:
	// the first position is kept, the last value wins.
	items := make([]Assignment, 0, len(raw))
	index := make(map[string]int, len(raw))
	for _, as := range raw {
		if as.PagePath == "" || as.ThemeID == "" {
			continue
		}
		if i, seen := index[as.PagePath]; seen {
			items[i].ThemeID = as.ThemeID
			continue
		}
		index[as.PagePath] = len(items)
		items = append(items, as)
	}
	return items
}

// persistLocked writes the in-memory collection back to storage.
func (a *Assignments) persistLocked() {
	data, err := json.Marshal(a.items)
	if err == nil {
		err = a.kv.Set(a.key, data)
	}
	if err != nil {
		a.lastErr = err
		a.dirty = true
		a.logger.Warn("failed to persist theme assignments, change kept for this session only",
			"key", a.key, "error", err)
		return
	}
	a.lastErr = nil
	a.dirty = false
}
