// Package config loads the pagemill configuration: a YAML file validated
// against an embedded CUE schema, with sane defaults for every field.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/pagemill/pagemill/internal/scan"
	"github.com/pagemill/pagemill/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// Config is the complete runtime configuration.
type Config struct {
	// ContentRoot holds the page artifacts; ShareDir receives exports.
	ContentRoot string `yaml:"content_root"`
	ShareDir    string `yaml:"share_dir"`
	Database    string `yaml:"database"`

	// PreviewSize bounds the longest edge of preview images, in pixels.
	PreviewSize int `yaml:"preview_size"`

	// Defaults applied to newly inserted pages.
	DefaultPaper     string `yaml:"default_paper"`
	PaperOrientation string `yaml:"paper_orientation"`
	ColorProfile     string `yaml:"color_profile"`
	StrongShadows    bool   `yaml:"strong_shadows"`
	AutoOrient       bool   `yaml:"auto_orient"`

	// DetectorData is the engine-specific orientation detector model path;
	// empty disables text-orientation detection.
	DetectorData string `yaml:"detector_data"`

	// Languages is the default OCR language set, BCP 47 or tesseract codes.
	Languages []string `yaml:"languages"`

	GCInterval   string `yaml:"gc_interval"`
	PollInterval string `yaml:"poll_interval"`

	// CacheBytes bounds the in-memory decoded picture cache.
	CacheBytes int64 `yaml:"cache_bytes"`
}

// Default returns the built-in configuration, rooted under dir.
func Default(dir string) Config {
	return Config{
		ContentRoot:      dir + "/content",
		ShareDir:         dir + "/share",
		Database:         dir + "/pagemill.db",
		PreviewSize:      512,
		DefaultPaper:     scan.PaperA4.String(),
		PaperOrientation: scan.PaperAuto.String(),
		ColorProfile:     scan.ProfileOriginal.String(),
		StrongShadows:    false,
		AutoOrient:       false,
		Languages:        []string{"eng"},
		GCInterval:       "30s",
		PollInterval:     "2s",
		CacheBytes:       64 << 20,
	}
}

// Load reads path, overlays it onto the defaults and validates the result.
// A missing file yields the plain defaults.
func Load(path, baseDir string) (Config, error) {
	cfg := Default(baseDir)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate unifies the configuration with the embedded schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup schema: %w", err)
	}

	val := ctx.Encode(toSchemaMap(c))
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Durations are strings in the schema; check they parse.
	for _, d := range []string{c.GCInterval, c.PollInterval} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

// toSchemaMap mirrors the YAML field names the schema constrains.
func toSchemaMap(c Config) map[string]any {
	langs := c.Languages
	if langs == nil {
		langs = []string{}
	}
	return map[string]any{
		"content_root":      c.ContentRoot,
		"share_dir":         c.ShareDir,
		"database":          c.Database,
		"preview_size":      c.PreviewSize,
		"default_paper":     c.DefaultPaper,
		"paper_orientation": c.PaperOrientation,
		"color_profile":     c.ColorProfile,
		"strong_shadows":    c.StrongShadows,
		"auto_orient":       c.AutoOrient,
		"detector_data":     c.DetectorData,
		"languages":         langs,
		"gc_interval":       c.GCInterval,
		"poll_interval":     c.PollInterval,
		"cache_bytes":       c.CacheBytes,
	}
}

// PageDefaults converts the insertion defaults to their store form.
// Validate has already constrained the names, so parse errors are
// programmer errors surfaced as such.
func (c Config) PageDefaults() (store.PageDefaults, error) {
	size, err := scan.ParsePaperSize(c.DefaultPaper)
	if err != nil {
		return store.PageDefaults{}, err
	}
	orient, err := scan.ParsePaperOrientation(c.PaperOrientation)
	if err != nil {
		return store.PageDefaults{}, err
	}
	profile, err := scan.ParseColorProfile(c.ColorProfile)
	if err != nil {
		return store.PageDefaults{}, err
	}
	return store.PageDefaults{
		Profile:       profile,
		StrongShadows: c.StrongShadows,
		AutoOrient:    c.AutoOrient,
		Paper:         scan.PredefinedPaper(size),
		PaperOrient:   orient,
	}, nil
}

// GCEvery returns the parsed garbage collection interval.
func (c Config) GCEvery() time.Duration {
	d, err := time.ParseDuration(c.GCInterval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// PollEvery returns the parsed watcher poll interval.
func (c Config) PollEvery() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// LanguageList joins the configured languages for the recognizer, falling
// back to English when unset.
func (c Config) LanguageList() string {
	if len(c.Languages) == 0 {
		return "eng"
	}
	return strings.Join(c.Languages, ",")
}
