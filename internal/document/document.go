// Package document renders table definitions into spreadsheet, hypertext
// and Markdown documents.
package document

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
)

type Format string

const (
	FormatSpreadsheet Format = "xlsx"
	FormatHypertext   Format = "html"
	FormatMarkdown    Format = "md"
)

// Options control one render. GeneratedAt is the only time-dependent input
// and appears once, on the cover page.
type Options struct {
	CoverPage   bool
	Title       string
	GeneratedAt time.Time
	// OnTable, when set, is called after each table section is rendered.
	OnTable func(name string)
}

type Renderer interface {
	Format() Format
	Render(tables []schema.TableDefinition, opts Options) ([]byte, error)
}

// ParseFormat accepts the format names and common file extensions.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), ".")) {
	case "", "xlsx", "excel", "spreadsheet":
		return FormatSpreadsheet, nil
	case "html", "htm", "hypertext":
		return FormatHypertext, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", apperrors.Newf(apperrors.ErrTypeValidation, "unsupported document format: %s", value).
			WithSuggestion("Use xlsx, html or md")
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "", false
	}
	format, err := ParseFormat(path[idx+1:])
	if err != nil {
		return "", false
	}
	return format, true
}

func (f Format) Extension() string {
	return "." + string(f)
}

// DefaultFileName is table-definitions_YYYYMMDD plus the format extension.
func DefaultFileName(format Format, at time.Time) string {
	return fmt.Sprintf("table-definitions_%s%s", at.Format("20060102"), format.Extension())
}

func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatSpreadsheet:
		return NewSpreadsheet(), nil
	case FormatHypertext:
		return NewHypertext(), nil
	case FormatMarkdown:
		return NewMarkdown(), nil
	default:
		return nil, apperrors.Newf(apperrors.ErrTypeValidation, "unsupported document format: %s", format)
	}
}

func (o Options) notify(name string) {
	if o.OnTable != nil {
		o.OnTable(name)
	}
}

func (o Options) title() string {
	if strings.TrimSpace(o.Title) == "" {
		return "Database"
	}
	return o.Title
}

func (o Options) generatedDate() string {
	return o.GeneratedAt.Format("2006-01-02")
}
