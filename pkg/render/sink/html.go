package sink

import (
	"bytes"
	"html/template"

	"github.com/matzehuels/justified/pkg/justify"
	"github.com/matzehuels/justified/pkg/render"
)

var pageTemplate = template.Must(template.New("gallery").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  body { margin: 0; padding: {{.Gap}}px; background: #fafafa; font-family: sans-serif; }
  .gallery { display: flex; flex-direction: column; gap: {{.Gap}}px; width: {{.Width}}px; }
  .row { display: flex; gap: {{.Gap}}px; }
  .row > * { flex: 0 0 auto; display: block; }
  .row img { object-fit: cover; }
  .placeholder { display: flex; align-items: center; justify-content: center; color: #fff; font-size: 12px; overflow: hidden; }
</style>
</head>
<body>
<div class="gallery">
{{- range .Rows}}
  <div class="row{{if .Final}} row-final{{end}}">
  {{- range .Cells}}
    {{- if .Src}}
    <img src="{{.Src}}" alt="{{.ID}}" loading="lazy" width="{{.Width}}" height="{{.Height}}" style="width: {{.Width}}px; height: {{.Height}}px">
    {{- else}}
    <div class="placeholder" title="{{.ID}}" style="width: {{.Width}}px; height: {{.Height}}px; background: {{.Color}}">{{.ID}}</div>
    {{- end}}
  {{- end}}
  </div>
{{- end}}
</div>
</body>
</html>
`))

// HTMLOption configures [RenderHTML].
type HTMLOption func(*htmlRenderer)

type htmlRenderer struct {
	title  string
	source SourceFunc
}

// WithTitle sets the page title.
func WithTitle(title string) HTMLOption { return func(r *htmlRenderer) { r.title = title } }

// WithHTMLSource sets image URLs for the <img> elements. Items without a URL
// render as placeholders.
func WithHTMLSource(fn SourceFunc) HTMLOption { return func(r *htmlRenderer) { r.source = fn } }

// RenderHTML renders the layout as a static HTML page: one flex row per
// layout row, each image sized to its cell and cropped with object-fit: cover.
func RenderHTML(l justify.Layout, opts ...HTMLOption) ([]byte, error) {
	r := htmlRenderer{title: "Gallery"}
	for _, opt := range opts {
		opt(&r)
	}

	s := &htmlSurface{r: r, page: htmlPage{Title: r.title, Gap: l.Gap}}
	if err := render.Apply(l, s); err != nil {
		return nil, err
	}
	return s.out.Bytes(), nil
}

type htmlPage struct {
	Title string
	Width float64
	Gap   float64
	Rows  []htmlRow
}

type htmlRow struct {
	Final bool
	Cells []htmlCell
}

type htmlCell struct {
	ID     string
	Src    string
	Color  template.CSS
	Width  int
	Height int
}

type htmlSurface struct {
	r    htmlRenderer
	page htmlPage
	out  bytes.Buffer
}

func (s *htmlSurface) Begin(width, _ float64) error {
	s.page.Width = width
	return nil
}

func (s *htmlSurface) Place(c render.Cell) error {
	for len(s.page.Rows) <= c.Row {
		s.page.Rows = append(s.page.Rows, htmlRow{})
	}
	row := &s.page.Rows[c.Row]
	row.Final = c.Final

	cell := htmlCell{ID: c.ID, Width: c.Width, Height: c.Height}
	if s.r.source != nil {
		cell.Src = s.r.source(c.ID)
	}
	if cell.Src == "" {
		cell.Color = template.CSS(hexColor(placeholderColor(c.ID)))
	}
	row.Cells = append(row.Cells, cell)
	return nil
}

func (s *htmlSurface) End() error {
	return pageTemplate.Execute(&s.out, s.page)
}
