package theme

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_DefaultTheme(t *testing.T) {
	r := Builtin()

	assert.Equal(t, "golf", r.DefaultKey())
	def, ok := r.Get(r.DefaultKey())
	require.True(t, ok)
	assert.Equal(t, "Golf Green", def.Name)
	assert.Equal(t, "#1f6f43", def.Color(PrimaryToken))
}

func TestBuiltin_ListDefaultFirst(t *testing.T) {
	infos := Builtin().List()

	require.NotEmpty(t, infos)
	assert.Equal(t, "golf", infos[0].Key)

	keys := Builtin().Keys()
	assert.Contains(t, keys, "midnight")
	assert.Contains(t, keys, "coastal")
	assert.Contains(t, keys, "sand")
	assert.NotContains(t, keys, "base", "partials should not be listed")
}

func TestBuiltin_GetUnknown(t *testing.T) {
	r := Builtin()

	th, ok := r.Get("nonexistent-theme")
	assert.False(t, ok)
	assert.Nil(t, th)
	assert.False(t, r.Has("nonexistent-theme"))
	assert.False(t, r.Has(""))
}

func TestBuiltin_InheritsBaseElements(t *testing.T) {
	coastal, ok := Builtin().Get("coastal")
	require.True(t, ok)

	btn, ok := coastal.Elements["button"]
	require.True(t, ok, "button should be inherited from the base partial")
	assert.Equal(t, ".btn", btn.Selector)
	assert.Equal(t, "$primary", btn.Background)
	assert.Equal(t, "#ffffff", coastal.Color("white"))
}

func TestBuiltin_OverridesElements(t *testing.T) {
	sand, ok := Builtin().Get("sand")
	require.True(t, ok)

	assert.Equal(t, "4px", sand.Elements["button"].Radius)
	_, hasFocus := sand.Elements["button"].States["focus-visible"]
	assert.False(t, hasFocus, "child element definitions replace the parent's")
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files fstest.MapFS
		want  string
	}{
		{
			name: "missing default",
			files: fstest.MapFS{
				"other.toml": {Data: []byte("key = \"other\"\n[colors]\nprimary = \"#000\"\n")},
			},
			want: "default theme",
		},
		{
			name: "missing primary",
			files: fstest.MapFS{
				"golf.toml": {Data: []byte("key = \"golf\"\n[colors]\naccent = \"#000\"\n")},
			},
			want: "missing \"primary\"",
		},
		{
			name: "key mismatch",
			files: fstest.MapFS{
				"golf.toml": {Data: []byte("key = \"green\"\n[colors]\nprimary = \"#000\"\n")},
			},
			want: "does not match file name",
		},
		{
			name: "circular extends",
			files: fstest.MapFS{
				"golf.toml": {Data: []byte("key = \"golf\"\nextends = \"a\"\n[colors]\nprimary = \"#000\"\n")},
				"_a.toml":   {Data: []byte("key = \"a\"\nextends = \"b\"\n")},
				"_b.toml":   {Data: []byte("key = \"b\"\nextends = \"a\"\n")},
			},
			want: "circular extends",
		},
		{
			name: "unknown parent",
			files: fstest.MapFS{
				"golf.toml": {Data: []byte("key = \"golf\"\nextends = \"gone\"\n[colors]\nprimary = \"#000\"\n")},
			},
			want: "theme not found",
		},
		{
			name: "unknown breakpoint",
			files: fstest.MapFS{
				"golf.toml": {Data: []byte("key = \"golf\"\n[colors]\nprimary = \"#000\"\n[elements.h1.responsive.xl]\nsize = \"1rem\"\n")},
			},
			want: "unknown breakpoint",
		},
		{
			name: "invalid key",
			files: fstest.MapFS{
				"Golf.toml": {Data: []byte("key = \"Golf\"\n[colors]\nprimary = \"#000\"\n")},
			},
			want: "invalid theme key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.files, "golf")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewRegistry_Extends(t *testing.T) {
	files := fstest.MapFS{
		"_base.toml": {Data: []byte("key = \"base\"\n[colors]\nprimary = \"#111\"\ntext = \"#222\"\n")},
		"golf.toml":  {Data: []byte("key = \"golf\"\nname = \"Golf\"\nextends = \"base\"\n[colors]\nprimary = \"#0f0\"\n")},
	}

	r, err := NewRegistry(files, "golf")
	require.NoError(t, err)

	golf, ok := r.Get("golf")
	require.True(t, ok)
	assert.Equal(t, "#0f0", golf.Color("primary"))
	assert.Equal(t, "#222", golf.Color("text"))
	assert.Equal(t, []Info{{Key: "golf", Name: "Golf"}}, r.List())
}

func TestTheme_ColorTokensSorted(t *testing.T) {
	golf, ok := Builtin().Get("golf")
	require.True(t, ok)

	tokens := golf.ColorTokens()
	assert.Contains(t, tokens, PrimaryToken)
	assert.IsIncreasing(t, tokens)
}
