package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fairway/internal/page"
	"github.com/jmylchreest/fairway/internal/resolver"
	"github.com/jmylchreest/fairway/internal/site"
	"github.com/jmylchreest/fairway/internal/store"
	"github.com/jmylchreest/fairway/internal/theme"
)

func newTestServer(t *testing.T) (*Server, *store.Assignments) {
	t.Helper()

	m, err := page.LoadDefaultManifest()
	require.NoError(t, err)
	catalog := page.NewCatalog(m)

	assignments := store.NewAssignments(store.NewMemoryKV(), store.Options{Classifier: catalog.Classifier()})
	t.Cleanup(func() { assignments.Close() })

	res := resolver.New(theme.Builtin(), assignments, resolver.Options{VerifyDelay: -1})
	renderer, err := site.NewRenderer(catalog, res, nil)
	require.NoError(t, err)

	return New(renderer, res, assignments, Options{}), assignments
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) Response {
	t.Helper()
	var raw struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if v != nil {
		require.NoError(t, json.Unmarshal(raw.Data, v))
	}
	return Response{Status: raw.Status, Message: raw.Message}
}

func TestPage_RendersResolvedTheme(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-theme="golf"`)
	assert.Equal(t, "golf", rec.Header().Get(themeHeader))
	assert.Contains(t, rec.Body.String(), "/ws?page=")

	rec = doRequest(t, s, http.MethodGet, "/developments?theme=midnight", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-theme="midnight"`)
}

func TestPage_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/no-such-page", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPage_CacheFlushedOnAssignment(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/new-build-golf-properties-murcia", "")
	require.Contains(t, rec.Body.String(), `data-theme="golf"`)

	rec = doRequest(t, s, http.MethodPut, "/api/assignments",
		`{"pagePath":"new-build-golf-properties-costa-blanca-modern","themeId":"midnight"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/new-build-golf-properties-murcia", "")
	assert.Contains(t, rec.Body.String(), `data-theme="midnight"`)
}

func TestStylesheet(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/assets/themes.css", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), theme.Selector("sand"))
}

func TestAPI_Themes(t *testing.T) {
	s, _ := newTestServer(t)

	var data struct {
		Default string       `json:"default"`
		Themes  []theme.Info `json:"themes"`
	}
	resp := decodeData(t, doRequest(t, s, http.MethodGet, "/api/themes", ""), &data)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "golf", data.Default)
	assert.Equal(t, theme.Builtin().List(), data.Themes)
}

func TestAPI_Pages(t *testing.T) {
	s, _ := newTestServer(t)

	var pages []PageView
	decodeData(t, doRequest(t, s, http.MethodGet, "/api/pages", ""), &pages)

	require.Len(t, pages, 6)
	assert.Equal(t, PageView{Path: "/", URL: "/", Name: "Home", Theme: "golf", Source: resolver.SourceDefault}, pages[0])

	var contact PageView
	for _, p := range pages {
		if p.Path == "contact" {
			contact = p
		}
	}
	assert.Equal(t, "coastal", contact.Theme)
	assert.Equal(t, resolver.SourceExplicit, contact.Source)
}

func TestAPI_Assignments(t *testing.T) {
	s, assignments := newTestServer(t)

	rec := doRequest(t, s, http.MethodPut, "/api/assignments", `{"pagePath":"/contact/","themeId":"sand"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var saved store.Assignment
	decodeData(t, rec, &saved)
	assert.Equal(t, store.Assignment{PagePath: "contact", ThemeID: "sand"}, saved)

	var all []store.Assignment
	decodeData(t, doRequest(t, s, http.MethodGet, "/api/assignments", ""), &all)
	assert.Equal(t, []store.Assignment{{PagePath: "contact", ThemeID: "sand"}}, all)

	rec = doRequest(t, s, http.MethodDelete, "/api/assignments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, assignments.GetAll())
}

func TestAPI_PutAssignmentErrors(t *testing.T) {
	s, assignments := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"pagePath":`, http.StatusBadRequest},
		{"missing theme", `{"pagePath":"/"}`, http.StatusBadRequest},
		{"unknown theme", `{"pagePath":"/","themeId":"nope"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPut, "/api/assignments", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			resp := decodeData(t, rec, nil)
			assert.Equal(t, "error", resp.Status)
		})
	}
	assert.Empty(t, assignments.GetAll())
}

func TestAPI_Resolve(t *testing.T) {
	s, assignments := newTestServer(t)
	assignments.Upsert("new-build-golf-properties-costa-blanca-modern", "midnight")

	tests := []struct {
		target string
		want   ResolveView
	}{
		{"/api/resolve?path=new-build-golf-properties-costa-blanca",
			ResolveView{Path: "new-build-golf-properties-costa-blanca", Group: "golf-landing", Theme: "midnight", Source: resolver.SourceAssignment}},
		{"/api/resolve?path=/&theme=nonexistent-theme",
			ResolveView{Path: "/", Theme: "golf", Source: resolver.SourceDefault}},
		{"/api/resolve?path=/&theme=sand",
			ResolveView{Path: "/", Theme: "sand", Source: resolver.SourceExplicit}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			var got ResolveView
			decodeData(t, doRequest(t, s, http.MethodGet, tt.target, ""), &got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func readApply(t *testing.T, conn *websocket.Conn) ApplyMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ApplyMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebsocket_PushesEquivalentChanges(t *testing.T) {
	s, assignments := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?page=new-build-golf-properties-costa-blanca"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, ApplyMessage{Type: "apply", Theme: "golf"}, readApply(t, conn))
	require.Eventually(t, func() bool { return s.Hub().Count() == 1 }, time.Second, 10*time.Millisecond)

	// An unrelated page does not trigger a push; the variant page does.
	assignments.Upsert("contact", "sand")
	assignments.Upsert("new-build-golf-properties-costa-blanca-modern", "midnight")

	assert.Equal(t, ApplyMessage{Type: "apply", Theme: "midnight"}, readApply(t, conn))

	assignments.ResetAll()
	assert.Equal(t, ApplyMessage{Type: "apply", Theme: "golf"}, readApply(t, conn))
}

func TestWebsocket_KeepsExplicitTheme(t *testing.T) {
	s, assignments := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	assignments.Upsert("developments", "sand")

	resp, err := http.Get(ts.URL + "/developments?theme=midnight")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	html := string(body)
	require.Contains(t, html, `data-theme="midnight"`)
	require.Contains(t, html, `var explicit = "midnight";`)

	// The socket URL the page script builds for this request.
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?page=developments&theme=midnight"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, ApplyMessage{Type: "apply", Theme: "midnight"}, readApply(t, conn))

	// A stored change for the page re-applies, but the explicit key still wins.
	assignments.Upsert("developments", "coastal")
	assignments.ResetAll()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var msg ApplyMessage
	assert.Error(t, conn.ReadJSON(&msg), "explicit theme should not be replaced")
}

func TestWebsocket_RequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/ws?page=/", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	s, _ := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/themes")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
