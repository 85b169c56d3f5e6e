package page

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SectionType identifies a reusable page section component.
type SectionType string

const (
	SectionFeatures SectionType = "features"
	SectionCarousel SectionType = "carousel"
	SectionContact  SectionType = "contact"
	SectionText     SectionType = "text"
)

// ValidSections lists all recognized section types.
var ValidSections = map[SectionType]bool{
	SectionFeatures: true,
	SectionCarousel: true,
	SectionContact:  true,
	SectionText:     true,
}

// Manifest is the site description loaded from YAML.
type Manifest struct {
	Site   SiteInfo    `yaml:"site"`
	Groups []GroupRule `yaml:"groups"`
	Routes []Route     `yaml:"routes"`
}

// SiteInfo holds site-wide settings.
type SiteInfo struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	Lang    string `yaml:"lang"`
	Email   string `yaml:"email"`
}

// Route describes one landing page.
type Route struct {
	Path     string    `yaml:"path" json:"path"`
	Name     string    `yaml:"name" json:"name"`
	Title    string    `yaml:"title" json:"title,omitempty"`
	Theme    string    `yaml:"theme" json:"theme,omitempty"` // Explicit theme request for this route
	Hero     Hero      `yaml:"hero" json:"-"`
	Sections []Section `yaml:"sections" json:"-"`

	// Group is computed from the manifest's group rules at load time.
	Group Group `yaml:"-" json:"group,omitempty"`
}

// Hero is the headline block at the top of a page.
type Hero struct {
	Heading    string `yaml:"heading"`
	Subheading string `yaml:"subheading"`
	Image      string `yaml:"image"`
	CTALabel   string `yaml:"cta_label"`
	CTAHref    string `yaml:"cta_href"`
}

// Section is one content block rendered by a section component.
type Section struct {
	Type    SectionType `yaml:"type"`
	ID      string      `yaml:"id"`
	Heading string      `yaml:"heading"`
	Text    string      `yaml:"text"`
	Items   []Item      `yaml:"items"`
}

// Item is an entry in a feature grid or carousel.
type Item struct {
	Title   string `yaml:"title"`
	Text    string `yaml:"text"`
	Icon    string `yaml:"icon"`
	Image   string `yaml:"image"`
	Caption string `yaml:"caption"`
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads a manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseManifest(f)
}

func (m *Manifest) validate() error {
	if len(m.Routes) == 0 {
		return fmt.Errorf("manifest has no routes")
	}

	seen := make(map[string]bool)
	for i, r := range m.Routes {
		p := Normalize(r.Path)
		if seen[p] {
			return fmt.Errorf("route %d: duplicate path %q", i, p)
		}
		seen[p] = true

		for _, s := range r.Sections {
			if !ValidSections[s.Type] {
				return fmt.Errorf("route %q: unknown section type %q", p, s.Type)
			}
		}
	}
	return nil
}
