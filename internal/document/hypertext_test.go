package document_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/tabledef/internal/document"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
)

func renderHTML(t *testing.T, tables []schema.TableDefinition, opts document.Options) string {
	t.Helper()
	out, err := document.NewHypertext().Render(tables, opts)
	require.NoError(t, err)
	return string(out)
}

func TestHypertextIsDeterministic(t *testing.T) {
	opts := document.Options{CoverPage: true, Title: "Shop", GeneratedAt: generatedAt}

	first := renderHTML(t, sampleTables(), opts)
	second := renderHTML(t, sampleTables(), opts)
	assert.Equal(t, first, second)
}

func TestHypertextTimestampIsIsolated(t *testing.T) {
	a := renderHTML(t, sampleTables(), document.Options{CoverPage: true, GeneratedAt: generatedAt})
	b := renderHTML(t, sampleTables(), document.Options{CoverPage: true, GeneratedAt: generatedAt.Add(48 * time.Hour)})

	linesA, linesB := strings.Split(a, "\n"), strings.Split(b, "\n")
	require.Equal(t, len(linesA), len(linesB))

	var diffs []string
	for i := range linesA {
		if linesA[i] != linesB[i] {
			diffs = append(diffs, linesA[i])
		}
	}
	assert.Equal(t, []string{`<p class="cover-info">Generated: 2025-03-14</p>`}, diffs)
	assert.Equal(t, 1, strings.Count(a, "2025-03-14"))
}

func TestHypertextOrderingAndAnchors(t *testing.T) {
	out := renderHTML(t, sampleTables(), document.Options{CoverPage: true, GeneratedAt: generatedAt})

	assert.Contains(t, out, `<div id="cover" class="cover-page">`)
	alpha := strings.Index(out, `<div id="Alpha"`)
	apple := strings.Index(out, `<div id="apple"`)
	banana := strings.Index(out, `<div id="Banana"`)
	require.True(t, alpha > 0 && apple > 0 && banana > 0)
	assert.True(t, alpha < apple && apple < banana, "sections are sorted by name")

	assert.Contains(t, out, `<a href="#Alpha">Alpha</a>`)
	assert.Equal(t, 3, strings.Count(out, `<a href="#cover">`))
	assert.Equal(t, 2, strings.Count(out, `class="cover-group-header"`))
	assert.Contains(t, out, `<th>ColumnName</th>`)
	assert.Contains(t, out, `<td class="left">Code</td>`)
}

func TestHypertextRemarkBlocks(t *testing.T) {
	out := renderHTML(t, sampleTables(), document.Options{CoverPage: true, GeneratedAt: generatedAt})

	assert.Equal(t, 1, strings.Count(out, `class="remark-section"`))
	assert.Contains(t, out, "<div class=\"remark-content\">line one\nline two</div>")
}

func TestHypertextEscapesUserText(t *testing.T) {
	table := schema.TableDefinition{
		Name:        `Evil"Table`,
		Description: "<script>alert(1)</script>",
		Remark:      "a & b < c",
		Columns:     []schema.ColumnDefinition{{Name: "<b>x</b>", Type: "int"}},
	}
	out := renderHTML(t, []schema.TableDefinition{table}, document.Options{CoverPage: true, GeneratedAt: generatedAt})

	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<b>x</b>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "a &amp; b &lt; c")
	assert.Contains(t, out, `id="Evil&#34;Table"`)
}

func TestHypertextSkipsCoverForEmptyList(t *testing.T) {
	out := renderHTML(t, nil, document.Options{CoverPage: true, GeneratedAt: generatedAt})

	assert.NotContains(t, out, `id="cover"`)
	assert.NotContains(t, out, "Generated")
}

func TestHypertextWithoutCoverHasNoBackLinks(t *testing.T) {
	out := renderHTML(t, sampleTables(), document.Options{CoverPage: false, GeneratedAt: generatedAt})

	assert.NotContains(t, out, `id="cover"`)
	assert.NotContains(t, out, `href="#cover"`)
}

func TestMarkdownRendering(t *testing.T) {
	out, err := document.NewMarkdown().Render([]schema.TableDefinition{userTable()}, document.Options{CoverPage: true, Title: "WiseM", GeneratedAt: generatedAt})
	require.NoError(t, err)
	md := string(out)

	assert.Contains(t, md, "WiseM")
	assert.Contains(t, md, "## User")
	assert.Contains(t, md, "ColumnName")
	assert.Contains(t, md, "Identity(1,1)")
	assert.Contains(t, md, "REMARK")
	assert.NotContains(t, md, "<style")
	assert.NotContains(t, md, "<table")
}
