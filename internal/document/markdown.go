package document

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
)

// Markdown converts the plain hypertext document to CommonMark with
// pipe tables.
type Markdown struct {
	html *Hypertext
	conv *converter.Converter
}

func NewMarkdown() *Markdown {
	return &Markdown{
		html: &Hypertext{plain: true},
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (m *Markdown) Format() Format {
	return FormatMarkdown
}

func (m *Markdown) Render(tables []schema.TableDefinition, opts Options) ([]byte, error) {
	page, err := m.html.Render(tables, opts)
	if err != nil {
		return nil, err
	}

	out, err := m.conv.ConvertString(string(page))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeExport, "failed to convert document to Markdown")
	}
	return []byte(out + "\n"), nil
}
