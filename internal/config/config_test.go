package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemill/pagemill/internal/scan"
)

func TestDefault_Validates(t *testing.T) {
	cfg := Default(t.TempDir())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nope.yaml"), dir)
	require.NoError(t, err)
	assert.Equal(t, Default(dir), cfg)
}

func TestLoad_OverlaysYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
preview_size: 256
default_paper: Letter
color_profile: Bitonal
languages: [eng, deu]
`), 0o644))

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.PreviewSize)
	assert.Equal(t, "Letter", cfg.DefaultPaper)
	assert.Equal(t, "Bitonal", cfg.ColorProfile)
	assert.Equal(t, "eng,deu", cfg.LanguageList())

	// Untouched fields keep their defaults.
	assert.Equal(t, Default(dir).GCInterval, cfg.GCInterval)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"bad paper":    "default_paper: A17\n",
		"bad profile":  "color_profile: Sepia\n",
		"bad preview":  "preview_size: 0\n",
		"bad interval": "gc_interval: soon\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path, dir)
			assert.Error(t, err)
		})
	}
}

func TestPageDefaults(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.DefaultPaper = "Legal"
	cfg.ColorProfile = "Monochrome"
	cfg.StrongShadows = true

	def, err := cfg.PageDefaults()
	require.NoError(t, err)
	assert.Equal(t, scan.PredefinedPaper(scan.PaperLegal), def.Paper)
	assert.Equal(t, scan.ProfileMonochrome, def.Profile)
	assert.True(t, def.StrongShadows)
}
