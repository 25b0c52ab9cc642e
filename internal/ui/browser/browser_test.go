package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/tabledef/internal/app"
	"github.com/kadirbelkuyu/tabledef/internal/config"
	"github.com/kadirbelkuyu/tabledef/internal/document"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
	"github.com/kadirbelkuyu/tabledef/internal/selection"
	"github.com/kadirbelkuyu/tabledef/pkg/logger"
)

type memoryResolver struct {
	tables  map[string]schema.TableDefinition
	lookups int
}

func (r *memoryResolver) NormalizeName(raw string) string {
	return schema.NormalizeName(raw)
}

func (r *memoryResolver) Resolve(_ context.Context, entries []schema.SelectionEntry) (*schema.Resolution, error) {
	r.lookups++
	res := &schema.Resolution{}
	for _, e := range entries {
		def, ok := r.tables[e.TableName]
		if !ok {
			res.Missing = append(res.Missing, e.TableName)
			continue
		}
		def.Remark = e.Remark
		res.Definitions = append(res.Definitions, def)
	}
	return res, nil
}

func userTable() schema.TableDefinition {
	one := 1
	return schema.TableDefinition{
		Name:        "User",
		Description: "members",
		Columns: []schema.ColumnDefinition{
			{Name: "Id", Type: "int", Computed: "Identity(1,1)", PrimaryKey: &one},
			{Name: "Name", Type: "nvarchar", Length: "50", Nullable: true},
		},
	}
}

func newTestBrowser(t *testing.T, defs ...schema.TableDefinition) (*browser, *app.Session, *memoryResolver) {
	t.Helper()

	resolver := &memoryResolver{tables: make(map[string]schema.TableDefinition)}
	for _, def := range defs {
		resolver.tables[def.Name] = def
	}
	session := app.NewSession(resolver, logger.Discard())

	cfg := &config.Config{
		Database: config.DatabaseConfig{Type: config.TypePostgres, Database: "sales"},
		Document: config.DocumentConfig{OutputDir: t.TempDir()},
	}
	require.NoError(t, cfg.Complete())

	b := newBrowser(context.Background(), nil, session, cfg)
	b.async = func(fn func()) { fn() }
	t.Cleanup(session.Selection().OnChange(func(selection.Change) { b.refreshList() }))

	return b, session, resolver
}

func statusText(b *browser) string {
	return b.status.GetText(true)
}

func TestSearchPreviewsUnselectedTable(t *testing.T) {
	b, session, _ := newTestBrowser(t, userTable())

	b.search("user")

	require.NotNil(t, b.preview)
	assert.Equal(t, "ColumnName", b.grid.GetCell(0, 0).Text)
	assert.Equal(t, "Id", b.grid.GetCell(1, 0).Text)
	assert.Equal(t, "Identity(1,1)", b.grid.GetCell(1, 2).Text)
	assert.Equal(t, "Y", b.grid.GetCell(2, 6).Text)
	assert.Contains(t, b.details.GetText(true), "(not selected)")
	assert.Contains(t, statusText(b), "Press 'a' to add User")
	assert.Equal(t, 0, session.Selection().Len())
}

func TestSearchNotFound(t *testing.T) {
	b, _, _ := newTestBrowser(t)

	b.search("ghost")

	assert.Nil(t, b.preview)
	assert.Contains(t, statusText(b), "No table named Ghost was found.")
}

func TestAddPreviewStoresRemark(t *testing.T) {
	b, session, _ := newTestBrowser(t, userTable())

	b.search("user")
	b.addPreview("first\nsecond")

	require.Equal(t, 1, b.list.GetItemCount())
	main, _ := b.list.GetItemText(0)
	assert.Equal(t, "User", main)

	def, ok := session.Selection().Get("User")
	require.True(t, ok)
	assert.Equal(t, "first\nsecond", def.Remark)
	assert.Contains(t, b.details.GetText(true), "(selected)")
	assert.Contains(t, statusText(b), "User added. 1 tables selected.")
}

func TestAddWithoutPreview(t *testing.T) {
	b, session, _ := newTestBrowser(t)

	b.addPreview("ignored")

	assert.Equal(t, 0, session.Selection().Len())
	assert.Contains(t, statusText(b), "Search a table first.")
}

func TestSearchSelectedTableSkipsDatabase(t *testing.T) {
	b, session, resolver := newTestBrowser(t, userTable())
	session.Add(userTable(), "kept")

	b.search("USER")

	assert.Equal(t, 0, resolver.lookups)
	require.NotNil(t, b.preview)
	assert.Equal(t, "kept", b.preview.Remark)
}

func TestRemoveClearsPreview(t *testing.T) {
	b, session, _ := newTestBrowser(t)
	session.Add(userTable(), "")
	b.reopen("User")

	b.removeTable("User")

	assert.Equal(t, 0, b.list.GetItemCount())
	assert.Nil(t, b.preview)
	assert.Equal(t, "Selection (0)", b.list.GetTitle())
}

func TestReopenOutOfSyncResetsSelection(t *testing.T) {
	b, session, _ := newTestBrowser(t)
	session.Add(userTable(), "")

	b.reopen("Order")

	assert.Equal(t, 0, session.Selection().Len())
	assert.Equal(t, 0, b.list.GetItemCount())
	assert.Contains(t, statusText(b), "out of sync")
}

func TestSaveAndLoad(t *testing.T) {
	order := schema.TableDefinition{Name: "Order", Columns: []schema.ColumnDefinition{{Name: "Id", Type: "int"}}}
	b, session, _ := newTestBrowser(t, userTable(), order)
	session.Add(order, "")
	session.Add(userTable(), "test")

	path := filepath.Join(t.TempDir(), "tables.json")
	b.saveTo(path)
	require.FileExists(t, path)
	assert.Contains(t, statusText(b), "Saved 2 tables")

	restored, restoredSession, _ := newTestBrowser(t, userTable(), order)
	restored.loadFrom(path)

	assert.Equal(t, []string{"User", "Order"}, restoredSession.Selection().Names())
	assert.Equal(t, 2, restored.list.GetItemCount())
	require.NotNil(t, restored.preview)
	assert.Equal(t, "User", restored.preview.Name)
	assert.Contains(t, statusText(restored), "Loaded 2 tables.")
}

func TestLoadFailureKeepsSelection(t *testing.T) {
	b, session, _ := newTestBrowser(t)
	session.Add(userTable(), "")

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	b.loadFrom(path)

	assert.Equal(t, []string{"User"}, session.Selection().Names())
	assert.Contains(t, statusText(b), "format")
}

func TestExportToDefaultPath(t *testing.T) {
	b, session, _ := newTestBrowser(t)
	session.Add(userTable(), "")

	b.exportTo(document.FormatHypertext, "", true)

	entries, err := os.ReadDir(b.cfg.Document.OutputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^table-definitions_\d{8}\.html$`, entries[0].Name())
	assert.Contains(t, statusText(b), "Exported 1 tables")
}

func TestExportEmptySelectionReportsError(t *testing.T) {
	b, _, _ := newTestBrowser(t)

	b.exportTo(document.FormatSpreadsheet, "", true)

	entries, err := os.ReadDir(b.cfg.Document.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Contains(t, statusText(b), "no tables to export")
}

func TestKeysPassThroughWhileModalIsOpen(t *testing.T) {
	b, _, _ := newTestBrowser(t)

	b.promptSearch()
	require.True(t, b.pages.HasPage(modalPage))

	event := tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)
	assert.Same(t, event, b.handleKey(event))

	b.closeModal()
	assert.False(t, b.pages.HasPage(modalPage))
}

func TestDetailsEscapeTags(t *testing.T) {
	text := detailsText(schema.TableDefinition{Name: "Evil[red]", Remark: "[::b]loud"}, true)

	assert.Contains(t, text, tview.Escape("Evil[red]"))
	assert.Contains(t, text, tview.Escape("[::b]loud"))
}

func TestDefinitionRows(t *testing.T) {
	rows := definitionRows(userTable())

	require.Len(t, rows, 3)
	assert.Equal(t, document.ColumnHeaders, rows[0])
	assert.Equal(t, []string{"Name", "nvarchar", "", "50", "", "", "Y", "", ""}, rows[2])
}
