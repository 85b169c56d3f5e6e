// Package theme holds the built-in theme registry for fairway sites.
// Themes are embedded TOML definitions loaded once at startup; the registry
// also renders the static stylesheet that selects on the data-theme marker.
package theme
