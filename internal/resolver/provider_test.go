package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fairway/internal/store"
	"github.com/jmylchreest/fairway/internal/theme"
)

func TestProvider_Mount(t *testing.T) {
	f := newFixture(t, -1)
	f.assignments.Upsert("contact", "sand")

	p := NewProvider(f.resolver, f.assignments, nil, nil)

	assert.Equal(t, "sand", p.Mount("/contact", ""))
	assert.Equal(t, "sand", p.Theme())

	assert.Equal(t, "midnight", p.Mount("/contact", "midnight"))
	assert.Equal(t, "golf", p.Mount("/", ""))

	id, mounted := p.Current()
	assert.True(t, mounted)
	assert.Equal(t, "/", id.Path)
}

func TestProvider_AssignReappliesMountedPage(t *testing.T) {
	f := newFixture(t, -1)
	p := NewProvider(f.resolver, f.assignments, nil, nil)

	p.Mount("new-build-golf-properties-costa-blanca", "")
	require.Equal(t, "golf", p.Theme())

	// Assigning an equivalent variant page re-applies immediately.
	require.NoError(t, p.Assign("new-build-golf-properties-costa-blanca-modern", "midnight"))
	assert.Equal(t, "midnight", p.Theme())

	// Assigning an unrelated page leaves the mounted theme alone.
	require.NoError(t, p.Assign("contact", "sand"))
	assert.Equal(t, "midnight", p.Theme())
}

func TestProvider_AssignKeepsExplicit(t *testing.T) {
	f := newFixture(t, -1)
	p := NewProvider(f.resolver, f.assignments, nil, nil)

	p.Mount("/", "coastal")
	require.NoError(t, p.Assign("/", "midnight"))

	assert.Equal(t, "coastal", p.Theme(), "explicit request outranks the assignment")
}

func TestProvider_AssignRejectsUnknownTheme(t *testing.T) {
	f := newFixture(t, -1)
	p := NewProvider(f.resolver, f.assignments, nil, nil)

	err := p.Assign("/", "nope")
	assert.ErrorIs(t, err, theme.ErrThemeNotFound)
	assert.Empty(t, f.assignments.GetAll())
}

func TestProvider_Reset(t *testing.T) {
	f := newFixture(t, -1)
	p := NewProvider(f.resolver, f.assignments, nil, nil)

	p.Mount("/", "")
	require.NoError(t, p.Assign("/", "midnight"))
	require.Equal(t, "midnight", p.Theme())

	p.Reset()
	assert.Equal(t, "golf", p.Theme())
	assert.Empty(t, f.assignments.GetAll())
}

func TestProvider_RefreshUnmounted(t *testing.T) {
	f := newFixture(t, -1)
	p := NewProvider(f.resolver, f.assignments, nil, nil)

	assert.Equal(t, "golf", p.Refresh())
	_, mounted := p.Current()
	assert.False(t, mounted)
}

func TestProvider_WatchExternalChange(t *testing.T) {
	f := newFixture(t, -1)
	p := NewProvider(f.resolver, f.assignments, nil, nil)
	p.Mount("/", "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Watch(ctx)
		close(done)
	}()

	// Another process writes the store; the file watcher rehydrates.
	require.NoError(t, f.kv.Set(store.DefaultCollectionKey,
		[]byte(`[{"pagePath":"/","themeId":"sand"}]`)))
	require.Eventually(t, func() bool {
		f.assignments.Hydrate()
		return p.Theme() == "sand"
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestProvider_WatchStopsOnClose(t *testing.T) {
	f := newFixture(t, -1)
	p := NewProvider(f.resolver, f.assignments, nil, nil)

	events := p.Subscribe()
	done := make(chan struct{})
	go func() {
		p.Follow(context.Background(), events)
		close(done)
	}()

	require.NoError(t, f.assignments.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after close")
	}
}

func TestProvider_FollowSeesChangeMadeDuringMount(t *testing.T) {
	f := newFixture(t, -1)
	p := NewProvider(f.resolver, f.assignments, nil, nil)

	events := p.Subscribe()
	require.Equal(t, "golf", p.Mount("new-build-golf-properties-costa-blanca", ""))

	// Written after Mount resolved but before anything consumes events.
	f.assignments.Upsert("new-build-golf-properties-murcia", "sand")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Follow(ctx, events)

	assert.Eventually(t, func() bool { return p.Theme() == "sand" }, time.Second, 10*time.Millisecond)
}

func TestProvider_DocumentChangeListener(t *testing.T) {
	f := newFixture(t, -1)
	cell := NewCell(theme.Builtin())
	var applied []string
	cell.OnChange(func(key string) { applied = append(applied, key) })

	p := NewProvider(f.resolver, f.assignments, cell, nil)
	p.Mount("/", "")
	require.NoError(t, p.Assign("/", "midnight"))

	assert.Equal(t, []string{"midnight"}, applied)
	assert.Same(t, cell, p.Document())
}
