package tess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"eng", "eng"},
		{"chi_sim", "chi_sim"},
		{"en", "eng"},
		{"en-US", "eng"},
		{"de-AT", "deu"},
		{"zh", "chi_sim"},
		{"is", "isl"}, // not in the override table, falls back to ISO 639-2/T
	}
	for _, c := range cases {
		assert.Equal(t, c.want, normalizeLanguage(c.in), "input %q", c.in)
	}
}

func TestNormalizeLanguagesDropsEmpty(t *testing.T) {
	got := normalizeLanguages([]string{" en ", "", "deu"})
	assert.Equal(t, []string{"eng", "deu"}, got)
}
