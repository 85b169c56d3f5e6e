package page

import (
	"bytes"
	_ "embed"
)

// DefaultManifest is the bundled golf developments site.
//
//go:embed site.yaml
var DefaultManifest []byte

// LoadDefaultManifest parses the bundled manifest.
func LoadDefaultManifest() (*Manifest, error) {
	return ParseManifest(bytes.NewReader(DefaultManifest))
}
