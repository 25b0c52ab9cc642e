package browser

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/kadirbelkuyu/tabledef/internal/document"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
)

const helpText = "'/' search  'a' add or edit remark  'd' remove  's' save  'l' load  'e' export  'q' quit"

var exportFormats = []document.Format{
	document.FormatSpreadsheet,
	document.FormatHypertext,
	document.FormatMarkdown,
}

var exportLabels = []string{"Spreadsheet (.xlsx)", "Web page (.html)", "Markdown (.md)"}

// definitionRows is the grid shown for a table, header row first.
func definitionRows(def schema.TableDefinition) [][]string {
	rows := make([][]string, 0, len(def.Columns)+1)
	rows = append(rows, document.ColumnHeaders)
	for _, col := range def.Columns {
		rows = append(rows, document.ColumnCells(col))
	}
	return rows
}

func detailsText(def schema.TableDefinition, selected bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[::b]%s[-:-:-]", tview.Escape(def.Name))
	if selected {
		b.WriteString("  [green](selected)[-]")
	} else {
		b.WriteString("  [yellow](not selected)[-]")
	}
	b.WriteString("\n")

	if def.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", tview.Escape(def.Description))
	}
	fmt.Fprintf(&b, "Columns: %d\n", len(def.Columns))
	if def.Remark != "" {
		fmt.Fprintf(&b, "Remark:\n%s\n", tview.Escape(def.Remark))
	}
	return b.String()
}

func listTitle(count int) string {
	return fmt.Sprintf("Selection (%d)", count)
}
