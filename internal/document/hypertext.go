package document

import (
	"bytes"
	"embed"
	"html/template"

	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
)

//go:embed templates/document.html.tmpl
var templateFS embed.FS

var documentTemplate = template.Must(template.ParseFS(templateFS, "templates/document.html.tmpl"))

// Hypertext renders a single self-contained HTML document.
type Hypertext struct {
	// plain emits simpler markup for conversion: headings instead of the
	// styled header grid, and <br> for remark line breaks.
	plain bool
}

func NewHypertext() *Hypertext {
	return &Hypertext{}
}

func (h *Hypertext) Format() Format {
	return FormatHypertext
}

type pageView struct {
	Title     string
	Generated string
	Cover     bool
	Plain     bool
	Headers   []string
	Groups    []IndexGroup
	Tables    []tableView
}

type tableView struct {
	Name        string
	Description string
	Remark      string
	RemarkLines []string
	Rows        [][]cellView
}

type cellView struct {
	Value string
	Left  bool
}

func (h *Hypertext) Render(tables []schema.TableDefinition, opts Options) ([]byte, error) {
	sorted := sortTables(tables)

	page := pageView{
		Title:   opts.title(),
		Cover:   opts.CoverPage && len(sorted) > 0,
		Plain:   h.plain,
		Headers: ColumnHeaders,
		Tables:  make([]tableView, 0, len(sorted)),
	}
	if page.Cover {
		page.Generated = opts.generatedDate()
		page.Groups = BuildIndex(tableNames(sorted))
	}

	for _, table := range sorted {
		view := tableView{
			Name:        table.Name,
			Description: table.Description,
			Remark:      table.Remark,
		}
		if table.Remark != "" {
			view.RemarkLines = remarkLines(table.Remark)
		}
		for _, col := range table.Columns {
			values := ColumnCells(col)
			row := make([]cellView, len(values))
			for i, v := range values {
				row[i] = cellView{Value: v, Left: leftAligned(i)}
			}
			view.Rows = append(view.Rows, row)
		}
		page.Tables = append(page.Tables, view)
		opts.notify(table.Name)
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, page); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeExport, "failed to render HTML document")
	}
	return buf.Bytes(), nil
}
