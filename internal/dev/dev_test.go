package dev

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seriva/microtastic/internal/config"
)

func testProject(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName),
		[]byte(`{"name": "demo", "deps": {"lit": "https://esm.sh/lit"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func testServer(t *testing.T, files map[string]string, options Options) (*Server, *httptest.Server) {
	t.Helper()
	if options.Registry == nil {
		options.Registry = prometheus.NewRegistry()
	}
	s := NewServer(testProject(t, files), options)
	ts := httptest.NewServer(s.router())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestServeHTMLInjectsReloadAndImportMap(t *testing.T) {
	_, ts := testServer(t, map[string]string{
		"src/index.html": `<html><head><title>x</title></head><body></body></html>`,
	}, Options{})

	status, body := get(t, ts.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, "/__reload.js") {
		t.Error("reload script not injected")
	}
	if !strings.Contains(body, "importmap") || !strings.Contains(body, "https://esm.sh/lit") {
		t.Error("import map not injected")
	}
	if i := strings.Index(body, "</head>"); i < 0 || strings.Index(body, "/__reload.js") > i {
		t.Error("injection landed outside head")
	}
}

func TestServeStaticFile(t *testing.T) {
	_, ts := testServer(t, map[string]string{
		"src/main.js": "export const x = 1;",
	}, Options{})

	status, body := get(t, ts.URL+"/main.js")
	if status != http.StatusOK || !strings.Contains(body, "x = 1") {
		t.Fatalf("status = %d, body = %q", status, body)
	}
}

func TestServeRejectsTraversal(t *testing.T) {
	_, ts := testServer(t, map[string]string{"src/main.js": ""}, Options{})

	req, _ := http.NewRequest("GET", ts.URL, nil)
	req.URL.Path = "/../app.json"
	req.URL.RawPath = "/../app.json"
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if strings.Contains(string(body), "demo") {
			t.Error("traversal escaped the source directory")
		}
	}
}

func TestReloadScriptEndpoint(t *testing.T) {
	_, ts := testServer(t, map[string]string{"src/main.js": ""}, Options{})
	status, body := get(t, ts.URL+"/__reload.js")
	if status != http.StatusOK || !strings.Contains(body, "WebSocket") {
		t.Fatalf("status = %d", status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := testServer(t, map[string]string{"src/main.js": ""}, Options{})
	status, _ := get(t, ts.URL+"/metrics")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
}

func TestReloadBroadcast(t *testing.T) {
	s, ts := testServer(t, map[string]string{"src/main.js": ""}, Options{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/__reload"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.reload.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.reload.NotifyReload()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ReloadMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != ReloadTypeFull {
		t.Errorf("msg = %+v", msg)
	}
}

func TestHandleChangesRebuildError(t *testing.T) {
	s, ts := testServer(t, map[string]string{"src/main.js": ""}, Options{
		Rebuild: func(context.Context) error { return stderrors.New("bundle exploded") },
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/__reload"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.reload.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.handleChanges([]string{"src/main.js"})
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ReloadMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != ReloadTypeError || !strings.Contains(msg.Error, "bundle exploded") {
		t.Errorf("msg = %+v", msg)
	}
}

func TestWatcherReportsDebouncedBatch(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.js")
	if err := os.WriteFile(file, []byte("1"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(WatcherConfig{
		Paths:    []string{dir},
		Interval: 10 * time.Millisecond,
		Debounce: 20 * time.Millisecond,
	})
	batches := make(chan []string, 4)
	w.OnChange(func(paths []string) { batches <- paths })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Let the initial scan finish, then modify the file.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(file, []byte("22"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.js"), []byte("3"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-batches:
		if len(paths) == 0 {
			t.Fatal("empty batch")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherIgnoresPatterns(t *testing.T) {
	w := NewWatcher(WatcherConfig{Paths: nil})
	for _, p := range []string{"/x/node_modules", "/x/a.swp", "/x/b.tmp", "/x/.git"} {
		if !w.shouldIgnore(p) {
			t.Errorf("%s not ignored", p)
		}
	}
	if w.shouldIgnore("/x/main.js") {
		t.Error("main.js ignored")
	}
}

func TestStatusClass(t *testing.T) {
	if statusClass(204) != "2xx" || statusClass(404) != "4xx" || statusClass(500) != "5xx" {
		t.Error("status class mapping wrong")
	}
}
