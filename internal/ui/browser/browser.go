package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/kadirbelkuyu/tabledef/internal/app"
	"github.com/kadirbelkuyu/tabledef/internal/config"
	"github.com/kadirbelkuyu/tabledef/internal/document"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
	"github.com/kadirbelkuyu/tabledef/internal/selection"
)

const (
	mainPage  = "main"
	modalPage = "modal"
)

// browser is the terminal UI over one session. Every session mutation runs
// on the tview event loop; only database lookups run in goroutines.
type browser struct {
	ctx     context.Context
	app     *tview.Application
	session *app.Session
	cfg     *config.Config
	async   func(func())

	pages   *tview.Pages
	list    *tview.List
	grid    *tview.Table
	details *tview.TextView
	status  *tview.TextView

	preview    *schema.TableDefinition
	rebuilding bool
}

// Run blocks until the user quits the browser.
func Run(ctx context.Context, session *app.Session, cfg *config.Config) error {
	tv := tview.NewApplication()
	b := newBrowser(ctx, tv, session, cfg)

	stop := session.Selection().OnChange(func(selection.Change) { b.refreshList() })
	defer stop()

	b.refreshList()
	if names := session.Selection().Names(); len(names) > 0 {
		b.reopen(names[0])
	}

	tv.SetRoot(b.pages, true).SetInputCapture(b.handleKey)
	if err := tv.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func newBrowser(ctx context.Context, tv *tview.Application, session *app.Session, cfg *config.Config) *browser {
	b := &browser{
		ctx:     ctx,
		app:     tv,
		session: session,
		cfg:     cfg,
		async:   func(fn func()) { go fn() },
		pages:   tview.NewPages(),
		list:    tview.NewList().ShowSecondaryText(false),
		grid:    tview.NewTable().SetFixed(1, 1).SetSelectable(true, false),
		details: tview.NewTextView().SetDynamicColors(true).SetWrap(true),
		status:  tview.NewTextView().SetDynamicColors(true),
	}

	b.list.SetChangedFunc(func(index int, main, secondary string, shortcut rune) {
		if !b.rebuilding {
			b.reopen(main)
		}
	})
	b.list.SetSelectedFunc(func(index int, main, secondary string, shortcut rune) {
		b.reopen(main)
	})

	b.list.SetBorder(true).SetTitle(listTitle(0))
	b.grid.SetBorder(true).SetTitle("Definition")
	b.details.SetBorder(true).SetTitle("Details")
	b.status.SetText(helpText)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewFlex().SetDirection(tview.FlexColumn).
			AddItem(b.list, 32, 1, true).
			AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
				AddItem(b.grid, 0, 3, false).
				AddItem(b.details, 8, 1, false),
				0, 3, false),
			0, 1, true).
		AddItem(b.status, 1, 0, false)

	b.pages.AddPage(mainPage, layout, true, true)
	return b
}

func (b *browser) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if front, _ := b.pages.GetFrontPage(); front != mainPage {
		return event
	}

	if event.Key() == tcell.KeyDelete {
		b.confirmRemove()
		return nil
	}
	if event.Key() != tcell.KeyRune {
		return event
	}

	switch event.Rune() {
	case 'q', 'Q':
		b.app.Stop()
	case '/':
		b.promptSearch()
	case 'a', 'A':
		b.promptRemark()
	case 'd', 'D':
		b.confirmRemove()
	case 's', 'S':
		b.promptPath("Save selection", selection.DefaultFileName, b.saveTo)
	case 'l', 'L':
		b.promptPath("Load selection", selection.DefaultFileName, b.loadFrom)
	case 'e', 'E':
		b.promptExport()
	default:
		return event
	}
	return nil
}

func (b *browser) refreshList() {
	current := b.currentName()
	names := b.session.Selection().Names()

	b.rebuilding = true
	b.list.Clear()
	for _, name := range names {
		b.list.AddItem(name, "", 0, nil)
	}
	for i, name := range names {
		if name == current {
			b.list.SetCurrentItem(i)
			break
		}
	}
	b.rebuilding = false

	b.list.SetTitle(listTitle(len(names)))
}

func (b *browser) currentName() string {
	idx := b.list.GetCurrentItem()
	if idx < 0 || idx >= b.list.GetItemCount() {
		return ""
	}
	main, _ := b.list.GetItemText(idx)
	return main
}

func (b *browser) selectName(name string) {
	for i := 0; i < b.list.GetItemCount(); i++ {
		if main, _ := b.list.GetItemText(i); main == name {
			b.rebuilding = true
			b.list.SetCurrentItem(i)
			b.rebuilding = false
			return
		}
	}
}

func (b *browser) reopen(name string) {
	def, err := b.session.Reopen(name)
	if err != nil {
		b.clearPreview()
		b.setError(err)
		return
	}
	b.showDefinition(def, true)
}

func (b *browser) showDefinition(def schema.TableDefinition, selected bool) {
	b.preview = &def

	b.grid.Clear()
	for r, row := range definitionRows(def) {
		for c, value := range row {
			cell := tview.NewTableCell(value).SetExpansion(1)
			if r == 0 {
				cell.SetSelectable(false).SetAlign(tview.AlignCenter).SetAttributes(tcell.AttrBold)
			}
			b.grid.SetCell(r, c, cell)
		}
	}
	b.grid.SetTitle("Definition: " + def.Name)
	b.details.SetText(detailsText(def, selected))
}

func (b *browser) clearPreview() {
	b.preview = nil
	b.grid.Clear()
	b.grid.SetTitle("Definition")
	b.details.SetText("")
}

func (b *browser) setStatus(text string) {
	b.status.SetText(text)
}

func (b *browser) setError(err error) {
	b.status.SetText("[red]" + tview.Escape(err.Error()))
}

// search shows a selected table straight away and queries the database
// for anything else.
func (b *browser) search(raw string) {
	name := b.session.NormalizeName(raw)
	if name == "" {
		return
	}

	if def, ok := b.session.Selection().Find(name); ok {
		b.selectName(def.Name)
		b.showDefinition(def, true)
		b.setStatus(helpText)
		return
	}

	b.setStatus(fmt.Sprintf("Searching %s...", tview.Escape(name)))
	b.async(func() {
		def, err := b.session.Lookup(b.ctx, name)
		queueUpdate(b.app, func() {
			if errors.Is(err, app.ErrTableNotFound) {
				b.setStatus(fmt.Sprintf("[red]No table named %s was found.", tview.Escape(name)))
				return
			}
			if err != nil {
				b.setError(err)
				return
			}
			b.showDefinition(def, false)
			b.setStatus("Press 'a' to add " + tview.Escape(def.Name) + " to the selection.")
		})
	})
}

// addPreview stores the previewed table with remark.
func (b *browser) addPreview(remark string) {
	if b.preview == nil {
		b.setStatus("[yellow]Search a table first.")
		return
	}

	def := *b.preview
	b.session.Add(def, remark)
	b.selectName(def.Name)

	stored, _ := b.session.Selection().Get(def.Name)
	b.showDefinition(stored, true)
	b.setStatus(fmt.Sprintf("%s added. %d tables selected.", tview.Escape(def.Name), b.session.Selection().Len()))
}

func (b *browser) removeTable(name string) {
	if b.session.Remove(name) == 0 {
		return
	}
	if b.preview != nil && b.preview.Name == name {
		b.clearPreview()
	}
	b.setStatus(fmt.Sprintf("Removed %s. %d tables remain.", tview.Escape(name), b.session.Selection().Len()))
}

func (b *browser) saveTo(path string) {
	if err := b.session.Save(path); err != nil {
		b.setError(err)
		return
	}
	b.setStatus(fmt.Sprintf("Saved %d tables to %s.", b.session.Selection().Len(), tview.Escape(path)))
}

func (b *browser) loadFrom(path string) {
	b.setStatus("Loading " + tview.Escape(path) + "...")
	b.async(func() {
		pending, err := b.session.PrepareLoad(b.ctx, path)
		queueUpdate(b.app, func() {
			if err != nil {
				b.setError(err)
				return
			}

			result := b.session.Apply(pending)
			b.clearPreview()
			if names := b.session.Selection().Names(); len(names) > 0 {
				b.selectName(names[0])
				b.reopen(names[0])
			}

			text := fmt.Sprintf("Loaded %d tables.", result.Loaded)
			if len(result.Missing) > 0 {
				text += " [yellow]Not found: " + tview.Escape(strings.Join(result.Missing, ", "))
			}
			b.setStatus(text)
		})
	})
}

func (b *browser) exportTo(format document.Format, path string, cover bool) {
	if strings.TrimSpace(path) == "" {
		path = b.session.DefaultExportPath(b.cfg.Document.OutputDir, format)
	}

	meta, err := b.session.Export(app.ExportRequest{
		Format:    format,
		Path:      path,
		CoverPage: cover,
		Title:     b.cfg.DocumentTitle(),
	})
	if err != nil {
		b.setError(err)
		return
	}
	b.setStatus(fmt.Sprintf("[green]Exported %d tables to %s (%d bytes).", b.session.Selection().Len(), tview.Escape(meta.Location), meta.Size))
}

func (b *browser) closeModal() {
	b.pages.RemovePage(modalPage)
	b.focus(b.list)
}

func (b *browser) showModal(content tview.Primitive, width, height int, focus tview.Primitive) {
	b.pages.AddPage(modalPage, newModal(content, width, height), true, true)
	b.focus(focus)
}

func (b *browser) focus(p tview.Primitive) {
	if b.app != nil {
		b.app.SetFocus(p)
	}
}

func (b *browser) promptSearch() {
	input := tview.NewInputField().SetLabel("Table: ").SetFieldWidth(40)
	input.SetDoneFunc(func(key tcell.Key) {
		text := input.GetText()
		b.closeModal()
		if key == tcell.KeyEnter {
			b.search(text)
		}
	})
	input.SetBorder(true).SetTitle("Search")

	b.showModal(input, 50, 3, input)
}

func (b *browser) promptRemark() {
	if b.preview == nil {
		b.setStatus("[yellow]Search a table first.")
		return
	}

	const label = "Remark"
	form := tview.NewForm().
		AddTextArea(label, b.preview.Remark, 60, 6, 0, nil)
	form.AddButton("Save", func() {
		remark := form.GetFormItemByLabel(label).(*tview.TextArea).GetText()
		b.closeModal()
		b.addPreview(remark)
	}).
		AddButton("Cancel", b.closeModal).
		SetCancelFunc(b.closeModal)
	form.SetBorder(true).SetTitle("Add " + b.preview.Name)

	b.showModal(form, 76, 12, form)
}

func (b *browser) confirmRemove() {
	name := b.currentName()
	if name == "" {
		return
	}

	modal := tview.NewModal().
		SetText(fmt.Sprintf("Remove %s from the selection?", name)).
		AddButtons([]string{"Remove", "Cancel"}).
		SetDoneFunc(func(index int, label string) {
			b.closeModal()
			if label == "Remove" {
				b.removeTable(name)
			}
		})

	b.pages.AddPage(modalPage, modal, true, true)
	b.focus(modal)
}

func (b *browser) promptPath(title, initial string, done func(path string)) {
	input := tview.NewInputField().SetLabel("File: ").SetText(initial).SetFieldWidth(60)
	input.SetDoneFunc(func(key tcell.Key) {
		path := strings.TrimSpace(input.GetText())
		b.closeModal()
		if key == tcell.KeyEnter && path != "" {
			done(path)
		}
	})
	input.SetBorder(true).SetTitle(title)

	b.showModal(input, 72, 3, input)
}

func (b *browser) promptExport() {
	const (
		formatLabel = "Format"
		pathLabel   = "Output (blank for default)"
		coverLabel  = "Index page"
	)

	form := tview.NewForm().
		AddDropDown(formatLabel, exportLabels, 0, nil).
		AddInputField(pathLabel, "", 50, nil, nil).
		AddCheckbox(coverLabel, b.cfg.CoverPageEnabled(), nil)
	form.AddButton("Export", func() {
		index, _ := form.GetFormItemByLabel(formatLabel).(*tview.DropDown).GetCurrentOption()
		if index < 0 {
			index = 0
		}
		path := strings.TrimSpace(form.GetFormItemByLabel(pathLabel).(*tview.InputField).GetText())
		cover := form.GetFormItemByLabel(coverLabel).(*tview.Checkbox).IsChecked()

		b.closeModal()
		b.exportTo(exportFormats[index], path, cover)
	}).
		AddButton("Cancel", b.closeModal).
		SetCancelFunc(b.closeModal)
	form.SetBorder(true).SetTitle("Export")

	b.showModal(form, 80, 11, form)
}
