// Package config loads and validates the app.json project file that drives
// the microtastic command line tool.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/seriva/microtastic/internal/errors"
)

const (
	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "app.json"

	// DefaultPort is the default development server port.
	DefaultPort = 3000

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultSrc is the default source directory.
	DefaultSrc = "src"

	// DefaultDist is the default build output directory.
	DefaultDist = "dist"

	// DefaultEntry is the default application entry module, relative to Src.
	DefaultEntry = "main.js"
)

// Config is the parsed app.json.
type Config struct {
	// Name is the project name, used in page titles and scaffolding.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Src is the source directory served in dev and bundled for release.
	Src string `json:"src,omitempty"`

	// Dist is the build output directory.
	Dist string `json:"dist,omitempty"`

	// Deps maps bare import names to URLs, mirrored into an import map.
	Deps map[string]string `json:"deps,omitempty"`

	// Dev contains development server settings.
	Dev DevConfig `json:"dev,omitempty"`

	// Build contains production build settings.
	Build BuildConfig `json:"build,omitempty"`

	// Deploy contains release upload settings.
	Deploy DeployConfig `json:"deploy,omitempty"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Watch contains extra paths to watch beyond Src.
	Watch []string `json:"watch,omitempty"`

	// DebounceMs is the quiet period before a change triggers a reload.
	DebounceMs int `json:"debounceMs,omitempty"`
}

// BuildConfig contains production build settings.
type BuildConfig struct {
	// Entry is the application entry module, relative to Src.
	Entry string `json:"entry,omitempty"`

	// Esbuild is the path to the esbuild executable. Empty means PATH lookup.
	Esbuild string `json:"esbuild,omitempty"`

	// Minify enables minification.
	Minify *bool `json:"minify,omitempty"`

	// SourceMaps enables source map generation.
	SourceMaps bool `json:"sourceMaps,omitempty"`

	// Target is the esbuild target (e.g. "es2020").
	Target string `json:"target,omitempty"`
}

// DeployConfig contains release upload settings.
type DeployConfig struct {
	// Bucket is the S3 bucket receiving the build output.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is the key prefix inside the bucket.
	Prefix string `json:"prefix,omitempty"`

	// Region is the AWS region. Empty falls back to the SDK default chain.
	Region string `json:"region,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	minify := true
	return &Config{
		Version: "0.1.0",
		Src:     DefaultSrc,
		Dist:    DefaultDist,
		Dev: DevConfig{
			Port:       DefaultPort,
			Host:       DefaultHost,
			DebounceMs: 100,
		},
		Build: BuildConfig{
			Entry:  DefaultEntry,
			Minify: &minify,
			Target: "es2020",
		},
	}
}

// Load reads app.json from the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFromWorkingDir reads app.json from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Newf(errors.CategoryConfig, "cannot determine working directory: %v", err)
	}
	return Load(wd)
}

// LoadFile reads configuration from the specified file path, applies
// defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("Looked for " + path)
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail(err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Newf(errors.CategoryConfig, "cannot encode app.json: %v", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Newf(errors.CategoryConfig, "cannot write %s: %v", path, err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the project root, the directory containing app.json.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// SrcDir returns the absolute source directory.
func (c *Config) SrcDir() string {
	return filepath.Join(c.Dir(), c.Src)
}

// DistDir returns the absolute build output directory.
func (c *Config) DistDir() string {
	return filepath.Join(c.Dir(), c.Dist)
}

// EntryFile returns the absolute application entry module.
func (c *Config) EntryFile() string {
	return filepath.Join(c.SrcDir(), c.Build.Entry)
}

func (c *Config) applyDefaults() {
	if c.Src == "" {
		c.Src = DefaultSrc
	}
	if c.Dist == "" {
		c.Dist = DefaultDist
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.DebounceMs <= 0 {
		c.Dev.DebounceMs = 100
	}
	if c.Build.Entry == "" {
		c.Build.Entry = DefaultEntry
	}
	if c.Build.Minify == nil {
		minify := true
		c.Build.Minify = &minify
	}
	if c.Build.Target == "" {
		c.Build.Target = "es2020"
	}
}

// Validate checks the configuration for problems that would break a later
// command in a confusing way.
func (c *Config) Validate() error {
	var problems []string

	if c.Name == "" {
		problems = append(problems, "name must not be empty")
	}
	if c.Dev.Port < 1 || c.Dev.Port > 65535 {
		problems = append(problems, fmt.Sprintf("dev.port %d out of range", c.Dev.Port))
	}
	if filepath.IsAbs(c.Src) {
		problems = append(problems, "src must be relative to the project root")
	}
	if filepath.IsAbs(c.Dist) {
		problems = append(problems, "dist must be relative to the project root")
	}
	if c.Src == c.Dist {
		problems = append(problems, "src and dist must differ")
	}
	for name, url := range c.Deps {
		if name == "" || url == "" {
			problems = append(problems, "deps entries need both a name and a URL")
			break
		}
	}

	if len(problems) > 0 {
		return errors.New("E102").
			WithDetail(strings.Join(problems, "; "))
	}
	return nil
}
