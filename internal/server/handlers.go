package server

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/jmylchreest/fairway/internal/page"
	"github.com/jmylchreest/fairway/internal/resolver"
	"github.com/jmylchreest/fairway/internal/site"
	"github.com/jmylchreest/fairway/internal/store"
)

// PageView is a catalog route with its effective theme.
type PageView struct {
	Path   string          `json:"path"`
	URL    string          `json:"url"`
	Name   string          `json:"name"`
	Group  page.Group      `json:"group,omitempty"`
	Theme  string          `json:"theme"`
	Source resolver.Source `json:"source"`
}

// ResolveView is the reply to a resolve request.
type ResolveView struct {
	Path   string          `json:"path"`
	Group  page.Group      `json:"group,omitempty"`
	Theme  string          `json:"theme"`
	Source resolver.Source `json:"source"`
}

type cachedPage struct {
	body  []byte
	theme string
}

const themeHeader = "X-Fairway-Theme"

func (s *Server) handlePage(c *gin.Context) {
	path := page.Normalize(c.Request.URL.Path)
	explicit := c.Query("theme")
	key := path + "\x00" + explicit

	if s.cacheTTL > 0 {
		if v, ok := s.pages.Get(key); ok {
			cp := v.(cachedPage)
			c.Header(themeHeader, cp.theme)
			c.Data(http.StatusOK, "text/html; charset=utf-8", cp.body)
			return
		}
	}

	var buf bytes.Buffer
	res, err := s.renderer.RenderPage(&buf, path, explicit, true)
	if err != nil {
		if errors.Is(err, site.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("failed to render page", "page", path, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to render page")
		return
	}

	if s.cacheTTL > 0 {
		s.pages.Set(key, cachedPage{body: buf.Bytes(), theme: res.Theme}, cache.DefaultExpiration)
	}
	c.Header(themeHeader, res.Theme)
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleStylesheet(c *gin.Context) {
	c.Data(http.StatusOK, "text/css; charset=utf-8", s.stylesheet)
}

func (s *Server) handleThemes(c *gin.Context) {
	respondSuccess(c, gin.H{
		"default": s.registry.DefaultKey(),
		"themes":  s.registry.List(),
	})
}

func (s *Server) handlePages(c *gin.Context) {
	routes := s.renderer.Catalog().Routes()
	views := make([]PageView, 0, len(routes))
	for _, r := range routes {
		res := s.renderer.Resolve(r.Path, "")
		views = append(views, PageView{
			Path:   r.Path,
			URL:    page.URL(r.Path),
			Name:   r.Name,
			Group:  r.Group,
			Theme:  res.Theme,
			Source: res.Source,
		})
	}
	respondSuccess(c, views)
}

func (s *Server) handleGetAssignments(c *gin.Context) {
	respondSuccess(c, s.assignments.GetAll())
}

func (s *Server) handlePutAssignment(c *gin.Context) {
	var req store.Assignment
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.PagePath == "" || req.ThemeID == "" {
		respondError(c, http.StatusBadRequest, "pagePath and themeId are required")
		return
	}
	if !s.registry.Has(req.ThemeID) {
		respondError(c, http.StatusNotFound, "theme not found: "+req.ThemeID)
		return
	}

	s.assignments.Upsert(req.PagePath, req.ThemeID)
	s.pages.Flush()

	req.PagePath = page.Normalize(req.PagePath)
	if err := s.assignments.Err(); err != nil {
		respond(c, http.StatusOK, "success", "saved for this session only: "+err.Error(), req)
		return
	}
	respondSuccess(c, req)
}

func (s *Server) handleResetAssignments(c *gin.Context) {
	s.assignments.ResetAll()
	s.pages.Flush()
	respondSuccess(c, []store.Assignment{})
}

func (s *Server) handleResolve(c *gin.Context) {
	path := c.Query("path")
	id := s.renderer.Catalog().Identify(path)
	res := s.renderer.Resolve(path, c.Query("theme"))

	respondSuccess(c, ResolveView{
		Path:   id.Path,
		Group:  id.Group,
		Theme:  res.Theme,
		Source: res.Source,
	})
}
