package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// pdfWriter assembles one PDF from the rendered page images, appending one
// page per import so every page keeps its own paper dimensions. Pages with
// ready text get it layered on at zero opacity, which makes the PDF
// searchable without changing its appearance.
type pdfWriter struct{}

func (pdfWriter) Write(dir, title string, pages []Page) ([]string, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf export: empty session")
	}

	work, err := os.MkdirTemp(dir, "pdf-")
	if err != nil {
		return nil, fmt.Errorf("pdf export: %w", err)
	}
	defer os.RemoveAll(work)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	dst := filepath.Join(dir, title+".pdf")
	for i, p := range pages {
		img := filepath.Join(work, fmt.Sprintf("page-%d.png", i))
		if err := os.WriteFile(img, p.Rendered, 0o644); err != nil {
			return nil, fmt.Errorf("pdf export: stage page %d: %w", i, err)
		}

		spec := fmt.Sprintf("dim:%.1f %.1f, pos:c, sc:1.0 rel", p.WidthMM, p.HeightMM)
		imp, err := api.Import(spec, types.MILLIMETRES)
		if err != nil {
			return nil, fmt.Errorf("pdf export: import spec page %d: %w", i, err)
		}
		// The first import creates dst; later ones append to it.
		if err := api.ImportImagesFile([]string{img}, dst, imp, conf); err != nil {
			return nil, fmt.Errorf("pdf export: import page %d: %w", i, err)
		}
	}

	for i, p := range pages {
		if !p.Text.Ready() {
			continue
		}
		pageSel := []string{strconv.Itoa(i + 1)}
		desc := "font:Helvetica, points:10, pos:c, op:0"
		if err := api.AddTextWatermarksFile(dst, dst, pageSel, true, string(p.Text), desc, conf); err != nil {
			return nil, fmt.Errorf("pdf export: text layer page %d: %w", i, err)
		}
	}

	return []string{dst}, nil
}
