// Package build produces the release output: the application entry bundled
// through esbuild, static assets copied under content-hashed names, and an
// index.html rewritten to reference them.
package build

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/seriva/microtastic/internal/config"
	"github.com/seriva/microtastic/internal/errors"
)

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// Bundle is the path to the hashed application bundle.
	Bundle string

	// BundleSize is the bundle size in bytes.
	BundleSize int64

	// Manifest maps source-relative paths to their hashed output paths.
	Manifest map[string]string
}

// Options configures the builder.
type Options struct {
	// Minify enables minification.
	Minify bool

	// SourceMaps enables source map generation.
	SourceMaps bool

	// Hash enables content-hashed output names. Dev builds turn it off so
	// the reload loop rewrites the same files.
	Hash bool

	// OnProgress is called with a description of each build step.
	OnProgress func(step string)
}

// Builder runs production builds.
type Builder struct {
	config  *config.Config
	options Options
}

// New creates a builder for the given project.
func New(cfg *config.Config, options Options) *Builder {
	return &Builder{config: cfg, options: options}
}

// Build cleans the output directory and produces a full release build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	if err := b.Clean(); err != nil {
		return nil, errors.New("E122").Wrap(err)
	}
	if err := os.MkdirAll(b.config.DistDir(), 0755); err != nil {
		return nil, errors.New("E122").Wrap(err)
	}

	manifest := map[string]string{}

	b.progress("Bundling " + b.config.Build.Entry + "...")
	bundle, size, err := b.bundle(ctx, manifest)
	if err != nil {
		return nil, err
	}

	b.progress("Copying assets...")
	if err := b.copyAssets(manifest); err != nil {
		return nil, errors.New("E122").Wrap(err)
	}

	b.progress("Rewriting index.html...")
	if err := b.writeIndex(manifest); err != nil {
		return nil, err
	}

	b.progress("Writing manifest...")
	if err := b.writeManifest(manifest); err != nil {
		return nil, errors.New("E122").Wrap(err)
	}

	return &Result{
		Duration:   time.Since(start),
		Bundle:     bundle,
		BundleSize: size,
		Manifest:   manifest,
	}, nil
}

// bundle runs esbuild over the application entry.
func (b *Builder) bundle(ctx context.Context, manifest map[string]string) (string, int64, error) {
	esbuild, err := b.esbuildPath()
	if err != nil {
		return "", 0, err
	}

	outputFile := filepath.Join(b.config.DistDir(), "app.js")
	args := []string{
		b.config.EntryFile(),
		"--bundle",
		"--format=esm",
		"--target=" + b.config.Build.Target,
		"--outfile=" + outputFile,
	}
	if b.options.Minify {
		args = append(args, "--minify")
	}
	if b.options.SourceMaps {
		args = append(args, "--sourcemap")
	}
	// Deps resolve through the import map at runtime, not the bundle.
	for _, name := range depNames(b.config.Deps) {
		args = append(args, "--external:"+name)
	}

	cmd := exec.CommandContext(ctx, esbuild, args...)
	cmd.Dir = b.config.Dir()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", 0, errors.New("E121").
			WithDetail(strings.TrimSpace(stderr.String())).
			Wrap(err)
	}

	info, err := os.Stat(outputFile)
	if err != nil {
		return "", 0, errors.New("E122").Wrap(err)
	}

	name := "app.js"
	if b.options.Hash {
		hash, err := hashFile(outputFile)
		if err != nil {
			return "", 0, errors.New("E122").Wrap(err)
		}
		name = fmt.Sprintf("app.%s.js", hash[:8])
		hashed := filepath.Join(b.config.DistDir(), name)
		if err := os.Rename(outputFile, hashed); err != nil {
			return "", 0, errors.New("E122").Wrap(err)
		}
		outputFile = hashed
	}
	manifest[b.config.Build.Entry] = name

	return outputFile, info.Size(), nil
}

// esbuildPath resolves the bundler executable: explicit config path first,
// then PATH.
func (b *Builder) esbuildPath() (string, error) {
	if b.config.Build.Esbuild != "" {
		return b.config.Build.Esbuild, nil
	}
	path, err := exec.LookPath("esbuild")
	if err != nil {
		return "", errors.New("E120").Wrap(err)
	}
	return path, nil
}

// copyAssets copies everything under src except JavaScript (bundled) and
// index.html (rewritten) into dist, hashing names when enabled.
func (b *Builder) copyAssets(manifest map[string]string) error {
	srcDir := b.config.SrcDir()
	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		ext := strings.ToLower(filepath.Ext(relPath))
		if ext == ".js" || ext == ".mjs" || relPath == "index.html" {
			return nil
		}

		outName := relPath
		if b.options.Hash {
			hash, err := hashFile(path)
			if err != nil {
				return err
			}
			base := strings.TrimSuffix(relPath, ext)
			outName = fmt.Sprintf("%s.%s%s", base, hash[:8], ext)
		}

		destPath := filepath.Join(b.config.DistDir(), filepath.FromSlash(outName))
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}
		if err := copyFile(path, destPath); err != nil {
			return err
		}
		manifest[relPath] = outName
		return nil
	})
}

// writeIndex copies index.html into dist with asset references rewritten to
// their hashed names and the dependency import map injected.
func (b *Builder) writeIndex(manifest map[string]string) error {
	srcIndex := filepath.Join(b.config.SrcDir(), "index.html")
	data, err := os.ReadFile(srcIndex)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.CategoryBuild, "no index.html in %s", b.config.Src)
		}
		return errors.New("E122").Wrap(err)
	}

	html := string(data)
	for src, out := range manifest {
		if src != out {
			html = strings.ReplaceAll(html, src, out)
		}
	}
	if im := ImportMap(b.config.Deps); im != "" {
		html = injectBeforeHeadClose(html, im)
	}

	return os.WriteFile(filepath.Join(b.config.DistDir(), "index.html"), []byte(html), 0644)
}

func (b *Builder) writeManifest(manifest map[string]string) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(b.config.DistDir(), "manifest.json"), append(data, '\n'), 0644)
}

func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

// Clean removes the build output directory.
func (b *Builder) Clean() error {
	return os.RemoveAll(b.config.DistDir())
}

// ImportMap renders the deps table as an import map script tag. Empty deps
// yield an empty string.
func ImportMap(deps map[string]string) string {
	if len(deps) == 0 {
		return ""
	}
	imports := map[string]map[string]string{"imports": deps}
	data, err := json.MarshalIndent(imports, "", "  ")
	if err != nil {
		return ""
	}
	return "<script type=\"importmap\">\n" + string(data) + "\n</script>"
}

func injectBeforeHeadClose(html, snippet string) string {
	if i := strings.Index(html, "</head>"); i >= 0 {
		return html[:i] + snippet + "\n" + html[i:]
	}
	return snippet + "\n" + html
}

func depNames(deps map[string]string) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hashFile returns the SHA256 hash of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
