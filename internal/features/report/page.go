package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"orderviz/internal/features/aggregate"
	"orderviz/internal/infra/fs"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

const PageFile = "index.html"

// Page is the status page of one run: either the charts, or one error.
type Page struct {
	Title       string
	Source      string
	RunID       string
	GeneratedAt time.Time
	Charts      []ChartLink
	Workbook    string // relative link, optional
	Error       string
	// FailedStep heads the error message, "Render failed" when empty.
	FailedStep  string
}

type ChartLink struct {
	Title string
	File  string // relative to the page
	Stats *aggregate.Stats
}

// WritePage renders index.html into dir and returns its path. A page
// carrying an error never lists charts.
func WritePage(dir string, p Page) (string, error) {
	if p.Title == "" {
		p.Title = "Food Delivery Orders"
	}
	if p.GeneratedAt.IsZero() {
		p.GeneratedAt = time.Now()
	}
	if p.Error != "" {
		if p.FailedStep == "" {
			p.FailedStep = "Render failed"
		}
		p.Charts = nil
		p.Workbook = ""
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}

	path := filepath.Join(dir, PageFile)
	if err := fs.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}
