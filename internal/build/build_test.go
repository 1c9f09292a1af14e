package build

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/seriva/microtastic/internal/config"
	toolerrors "github.com/seriva/microtastic/internal/errors"
)

// fakeEsbuild writes a stand-in bundler script that emits a fixed bundle,
// so builds run without a real esbuild install.
func fakeEsbuild(t *testing.T, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake bundler script requires a POSIX shell")
	}
	script := `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    --outfile=*) printf 'export const app = 1;\n' > "${arg#--outfile=}" ;;
  esac
done
exit ` + string(rune('0'+exitCode)) + "\n"
	path := filepath.Join(t.TempDir(), "esbuild")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func project(t *testing.T, appJSON string, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(appJSON), 0644); err != nil {
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

func TestBuildProducesHashedOutput(t *testing.T) {
	esbuild := fakeEsbuild(t, 0)
	cfg := project(t, `{
		"name": "demo",
		"build": {"esbuild": "`+esbuild+`"},
		"deps": {"lit": "https://esm.sh/lit"}
	}`, map[string]string{
		"src/main.js":    "console.log(1)",
		"src/style.css":  "body { margin: 0 }",
		"src/index.html": `<html><head></head><body><script type="module" src="main.js"></script><link href="style.css"></body></html>`,
	})

	result, err := New(cfg, Options{Minify: true, Hash: true}).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(result.Bundle), "app.") ||
		filepath.Base(result.Bundle) == "app.js" {
		t.Errorf("bundle not hashed: %s", result.Bundle)
	}
	if _, err := os.Stat(result.Bundle); err != nil {
		t.Fatalf("bundle missing: %v", err)
	}

	cssOut, ok := result.Manifest["style.css"]
	if !ok || cssOut == "style.css" {
		t.Errorf("css not hashed in manifest: %v", result.Manifest)
	}
	if _, err := os.Stat(filepath.Join(cfg.DistDir(), cssOut)); err != nil {
		t.Errorf("hashed css missing: %v", err)
	}

	index, err := os.ReadFile(filepath.Join(cfg.DistDir(), "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	html := string(index)
	if !strings.Contains(html, result.Manifest["main.js"]) {
		t.Error("index.html not rewritten to hashed bundle")
	}
	if !strings.Contains(html, "importmap") || !strings.Contains(html, "https://esm.sh/lit") {
		t.Error("import map not injected")
	}

	if _, err := os.Stat(filepath.Join(cfg.DistDir(), "manifest.json")); err != nil {
		t.Errorf("manifest.json missing: %v", err)
	}
}

func TestBuildWithoutHash(t *testing.T) {
	esbuild := fakeEsbuild(t, 0)
	cfg := project(t, `{"name": "demo", "build": {"esbuild": "`+esbuild+`"}}`, map[string]string{
		"src/main.js":    "console.log(1)",
		"src/index.html": `<html><head></head><body></body></html>`,
	})

	result, err := New(cfg, Options{}).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if filepath.Base(result.Bundle) != "app.js" {
		t.Errorf("dev build renamed bundle: %s", result.Bundle)
	}
}

func TestBuildBundlerFailure(t *testing.T) {
	esbuild := fakeEsbuild(t, 1)
	cfg := project(t, `{"name": "demo", "build": {"esbuild": "`+esbuild+`"}}`, map[string]string{
		"src/main.js": "syntax error here",
	})

	_, err := New(cfg, Options{}).Build(context.Background())
	var te *toolerrors.ToolError
	if !stderrors.As(err, &te) || te.Code != "E121" {
		t.Fatalf("err = %v, want E121", err)
	}
}

func TestBuildMissingEsbuild(t *testing.T) {
	cfg := project(t, `{"name": "demo"}`, map[string]string{
		"src/main.js": "console.log(1)",
	})
	t.Setenv("PATH", t.TempDir())

	_, err := New(cfg, Options{}).Build(context.Background())
	var te *toolerrors.ToolError
	if !stderrors.As(err, &te) || te.Code != "E120" {
		t.Fatalf("err = %v, want E120", err)
	}
}

func TestImportMap(t *testing.T) {
	if got := ImportMap(nil); got != "" {
		t.Errorf("ImportMap(nil) = %q", got)
	}
	got := ImportMap(map[string]string{"preact": "https://esm.sh/preact"})
	if !strings.Contains(got, `"imports"`) || !strings.Contains(got, "preact") {
		t.Errorf("ImportMap = %q", got)
	}
}

func TestCleanRemovesDist(t *testing.T) {
	esbuild := fakeEsbuild(t, 0)
	cfg := project(t, `{"name": "demo", "build": {"esbuild": "`+esbuild+`"}}`, map[string]string{
		"src/main.js":    "console.log(1)",
		"src/index.html": `<html><head></head><body></body></html>`,
	})
	b := New(cfg, Options{})
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := b.Clean(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cfg.DistDir()); !os.IsNotExist(err) {
		t.Error("dist survived Clean")
	}
}
