// Package resolver decides which theme applies to a page and applies it by
// setting the document's root theme marker.
package resolver

import (
	"sync"

	"github.com/jmylchreest/fairway/internal/theme"
)

// Document is the rendered document whose root marker drives styling.
// The resolver only ever sets the marker; the stylesheet does the rest.
type Document interface {
	// SetMarker sets the root theme marker.
	SetMarker(key string)

	// Marker returns the current root theme marker.
	Marker() string

	// TokenValue returns the computed value of a color token under the
	// currently applied marker, or "" when it does not resolve.
	TokenValue(token string) string
}

// Cell is an in-process Document: a single current-theme slot whose token
// values are computed from the registry. Latest SetMarker wins.
type Cell struct {
	mu       sync.RWMutex
	key      string
	registry *theme.Registry
	onChange []func(key string)
}

// NewCell creates a cell holding the registry's default key.
func NewCell(registry *theme.Registry) *Cell {
	return &Cell{
		key:      registry.DefaultKey(),
		registry: registry,
	}
}

// SetMarker sets the marker and notifies change listeners when it differs.
func (c *Cell) SetMarker(key string) {
	c.mu.Lock()
	changed := c.key != key
	c.key = key
	listeners := c.onChange
	c.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(key)
		}
	}
}

// Marker returns the current marker.
func (c *Cell) Marker() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key
}

// TokenValue returns the color token value for the current marker.
func (c *Cell) TokenValue(token string) string {
	c.mu.RLock()
	key := c.key
	c.mu.RUnlock()

	t, ok := c.registry.Get(key)
	if !ok {
		return ""
	}
	return t.Color(token)
}

// OnChange registers a callback invoked after the marker changes.
// Callbacks run on the goroutine that called SetMarker.
func (c *Cell) OnChange(fn func(key string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}
