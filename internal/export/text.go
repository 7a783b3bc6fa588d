package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// textWriter concatenates the modified recognized texts into one file, one
// blank-line-separated block per page. Pages without ready text are skipped.
type textWriter struct{}

func (textWriter) Write(dir, title string, pages []Page) ([]string, error) {
	var blocks []string
	for _, p := range pages {
		if !p.Text.Ready() {
			continue
		}
		blocks = append(blocks, strings.TrimRight(string(p.Text), "\n"))
	}

	dst := filepath.Join(dir, title+".txt")
	content := strings.Join(blocks, "\n\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(dst, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", dst, err)
	}
	return []string{dst}, nil
}
