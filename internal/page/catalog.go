package page

// Catalog enumerates the site's routes. It is built once from a manifest
// and is read-only afterwards.
type Catalog struct {
	site       SiteInfo
	classifier *Classifier
	routes     []Route
	byPath     map[string]int
}

// NewCatalog normalizes the manifest's routes and tags each with its group.
func NewCatalog(m *Manifest) *Catalog {
	c := &Catalog{
		site:       m.Site,
		classifier: NewClassifier(m.Groups),
		routes:     make([]Route, 0, len(m.Routes)),
		byPath:     make(map[string]int, len(m.Routes)),
	}

	for _, r := range m.Routes {
		id := c.classifier.Identify(r.Path)
		r.Path = id.Path
		r.Group = id.Group
		if r.Name == "" {
			r.Name = r.Path
		}
		c.byPath[r.Path] = len(c.routes)
		c.routes = append(c.routes, r)
	}

	return c
}

// Site returns the site-wide settings.
func (c *Catalog) Site() SiteInfo {
	return c.site
}

// Routes returns all routes in manifest order.
func (c *Catalog) Routes() []Route {
	out := make([]Route, len(c.routes))
	copy(out, c.routes)
	return out
}

// Lookup finds the route for path. Returns false if the path is not in the
// manifest.
func (c *Catalog) Lookup(path string) (Route, bool) {
	idx, ok := c.byPath[Normalize(path)]
	if !ok {
		return Route{}, false
	}
	return c.routes[idx], true
}

// Identify classifies any path, including paths not in the manifest.
func (c *Catalog) Identify(path string) Identity {
	return c.classifier.Identify(path)
}

// Classifier returns the group classifier built from the manifest.
func (c *Catalog) Classifier() *Classifier {
	return c.classifier
}
