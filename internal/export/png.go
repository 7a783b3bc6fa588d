package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// pngWriter copies each page's existing output artifact verbatim. No
// re-encoding: the Output stage already rendered the page onto its paper.
type pngWriter struct{}

func (pngWriter) Write(dir, title string, pages []Page) ([]string, error) {
	var out []string
	for i, p := range pages {
		data, err := os.ReadFile(p.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("read output artifact: %w", err)
		}
		dst := filepath.Join(dir, pageFileName(title, i, len(pages), "png"))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", dst, err)
		}
		out = append(out, dst)
	}
	return out, nil
}
