// Package page models page identity for theming: path normalization,
// page groups and the route catalog loaded from the site manifest.
package page

import "strings"

// Root is the normalized path of the home page.
const Root = "/"

// Group tags routes that are variants of the same page for theming.
// The zero value means the page belongs to no group.
type Group string

// Identity is a normalized page path plus its group tag.
type Identity struct {
	Path  string
	Group Group
}

// Normalize strips leading and trailing slashes from a page path.
// Empty paths and "/" normalize to Root.
func Normalize(path string) string {
	p := strings.TrimSpace(path)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return Root
	}
	return p
}

// Equivalent reports whether two identities name the same page for theming:
// their paths are equal, or both carry the same group tag.
func Equivalent(a, b Identity) bool {
	if a.Path == b.Path {
		return true
	}
	return a.Group != "" && a.Group == b.Group
}

// GroupRule assigns a group to every path containing Token.
type GroupRule struct {
	Name  Group  `yaml:"name" json:"name"`
	Token string `yaml:"token" json:"token"`
}

// Classifier computes group tags from a fixed list of rules.
// Rules are evaluated in order; the first match wins.
type Classifier struct {
	rules []GroupRule
}

// NewClassifier creates a classifier. Rules with an empty name or token
// are ignored.
func NewClassifier(rules []GroupRule) *Classifier {
	c := &Classifier{}
	for _, r := range rules {
		if r.Name == "" || r.Token == "" {
			continue
		}
		c.rules = append(c.rules, r)
	}
	return c
}

// Identify normalizes path and tags it with its group.
func (c *Classifier) Identify(path string) Identity {
	p := Normalize(path)
	return Identity{Path: p, Group: c.groupOf(p)}
}

func (c *Classifier) groupOf(path string) Group {
	if c == nil {
		return ""
	}
	for _, r := range c.rules {
		if strings.Contains(path, r.Token) {
			return r.Name
		}
	}
	return ""
}

// Rules returns the classifier's rules.
func (c *Classifier) Rules() []GroupRule {
	if c == nil {
		return nil
	}
	out := make([]GroupRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// URL returns the absolute URL path for a normalized page path.
func URL(path string) string {
	p := Normalize(path)
	if p == Root {
		return Root
	}
	return "/" + p
}
