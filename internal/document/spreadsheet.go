package document

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
)

const (
	// IndexSheetName is the cover sheet; no table sheet may take this name.
	IndexSheetName = "Index"

	maxSheetNameLen = 31
	suffixLen       = 9 // "~" + 8 hex digits

	primaryColor = "2D4155"
	headerColor  = "CCFFCC"
	remarkColor  = "FFFFE0"
	linkColor    = "0066CC"
	fontFamily   = "Calibri"
)

var reservedSheetNames = map[string]struct{}{
	strings.ToLower(IndexSheetName): {},
	"history":                       {},
}

// gridWidths are the A..I column widths of a table sheet.
var gridWidths = []float64{20, 10, 15, 10, 7, 7, 7, 7, 35}

// Spreadsheet renders one worksheet per table, preceded by an optional
// index sheet.
type Spreadsheet struct{}

func NewSpreadsheet() *Spreadsheet {
	return &Spreadsheet{}
}

func (s *Spreadsheet) Format() Format {
	return FormatSpreadsheet
}

func (s *Spreadsheet) Render(tables []schema.TableDefinition, opts Options) ([]byte, error) {
	sorted := sortTables(tables)
	withCover := opts.CoverPage && len(sorted) > 0
	sheets := SheetNames(tableNames(sorted))

	f := excelize.NewFile()
	defer f.Close()

	w := &workbook{f: f, sheets: sheets, withCover: withCover}
	if err := w.prepare(sorted, opts); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeExport, "failed to prepare workbook")
	}

	if withCover {
		if err := w.writeCover(sorted, opts); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTypeExport, "failed to write index sheet")
		}
	}

	for _, table := range sorted {
		if err := w.writeTable(table); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrTypeExport, "failed to write sheet for %s", table.Name)
		}
		opts.notify(table.Name)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeExport, "failed to encode workbook")
	}
	return buf.Bytes(), nil
}

type workbook struct {
	f         *excelize.File
	sheets    map[string]string
	withCover bool
	styles    styleSet
}

type styleSet struct {
	label, header, cellCenter, cellLeft, remarkLabel, remark int
	coverTitle, coverInfo, groupHeader, link, backLink       int
}

// prepare creates every sheet up front so hyperlinks can point forward.
func (w *workbook) prepare(tables []schema.TableDefinition, opts Options) error {
	var order []string
	if w.withCover {
		order = append(order, IndexSheetName)
	}
	for _, table := range tables {
		order = append(order, w.sheets[table.Name])
	}

	if len(order) == 0 {
		return w.f.SetDocProps(w.docProps(opts))
	}

	if err := w.f.SetSheetName(w.f.GetSheetName(0), order[0]); err != nil {
		return err
	}
	for _, name := range order[1:] {
		if _, err := w.f.NewSheet(name); err != nil {
			return err
		}
	}
	w.f.SetActiveSheet(0)

	hideGrid := false
	for _, name := range order {
		if err := w.f.SetSheetView(name, 0, &excelize.ViewOptions{ShowGridLines: &hideGrid}); err != nil {
			return err
		}
	}

	if err := w.buildStyles(); err != nil {
		return err
	}
	return w.f.SetDocProps(w.docProps(opts))
}

// docProps carries no timestamps; the cover cell C5 is the only
// time-dependent value in the workbook.
func (w *workbook) docProps(opts Options) *excelize.DocProperties {
	return &excelize.DocProperties{
		Title:   fmt.Sprintf("%s %s", opts.title(), documentHeading),
		Creator: "tabledef",
	}
}

func (w *workbook) buildStyles() error {
	thin := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	font := &excelize.Font{Family: fontFamily, Size: 9}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	left := &excelize.Alignment{Horizontal: "left", Vertical: "center"}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}

	defs := []struct {
		target *int
		style  *excelize.Style
	}{
		{&w.styles.label, &excelize.Style{Border: thin, Fill: fill(headerColor), Font: &excelize.Font{Family: fontFamily, Size: 9, Bold: true}, Alignment: center}},
		{&w.styles.header, &excelize.Style{Border: thin, Fill: fill(headerColor), Font: &excelize.Font{Family: fontFamily, Size: 9, Bold: true}, Alignment: center}},
		{&w.styles.cellCenter, &excelize.Style{Border: thin, Font: font, Alignment: center}},
		{&w.styles.cellLeft, &excelize.Style{Border: thin, Font: font, Alignment: left}},
		{&w.styles.remarkLabel, &excelize.Style{Font: &excelize.Font{Family: fontFamily, Size: 14, Bold: true}, Alignment: center}},
		{&w.styles.remark, &excelize.Style{Border: thin, Fill: fill(remarkColor), Font: font, Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true}}},
		{&w.styles.coverTitle, &excelize.Style{Fill: fill(primaryColor), Font: &excelize.Font{Family: fontFamily, Size: 22, Bold: true, Color: "FFFFFF"}, Alignment: center}},
		{&w.styles.coverInfo, &excelize.Style{Font: &excelize.Font{Family: fontFamily, Size: 12, Bold: true, Color: "808080"}, Alignment: left}},
		{&w.styles.groupHeader, &excelize.Style{Fill: fill("F5F5F5"), Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}}, Font: &excelize.Font{Family: fontFamily, Size: 14, Bold: true, Color: primaryColor}, Alignment: left}},
		{&w.styles.link, &excelize.Style{Font: &excelize.Font{Family: fontFamily, Size: 9, Color: linkColor}, Alignment: left}},
		{&w.styles.backLink, &excelize.Style{Font: &excelize.Font{Family: fontFamily, Size: 9, Color: linkColor, Underline: "single"}, Alignment: center}},
	}

	for _, def := range defs {
		id, err := w.f.NewStyle(def.style)
		if err != nil {
			return err
		}
		*def.target = id
	}
	return nil
}

func (w *workbook) writeCover(tables []schema.TableDefinition, opts Options) error {
	f, sheet := w.f, IndexSheetName

	tabColor := primaryColor
	if err := f.SetSheetProps(sheet, &excelize.SheetPropsOptions{TabColorRGB: &tabColor}); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 3); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "J", 25); err != nil {
		return err
	}

	if err := f.MergeCell(sheet, "B2", "J3"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "B2", fmt.Sprintf("[ %s ] %s", opts.title(), documentHeading)); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B2", "J3", w.styles.coverTitle); err != nil {
		return err
	}
	for _, row := range []int{2, 3} {
		if err := f.SetRowHeight(sheet, row, 30); err != nil {
			return err
		}
	}

	if err := f.SetCellValue(sheet, "B5", "Generated"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "C5", opts.generatedDate()); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B5", "C5", w.styles.coverInfo); err != nil {
		return err
	}

	row := 7
	for _, group := range BuildIndex(tableNames(tables)) {
		start, end := cell(2, row), cell(10, row)
		if err := f.MergeCell(sheet, start, end); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, start, fmt.Sprintf("   [ %s ]", group.Key)); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, start, end, w.styles.groupHeader); err != nil {
			return err
		}
		row += 2

		col := 2
		for _, name := range group.Names {
			target := cell(col, row)
			if err := f.SetCellValue(sheet, target, name); err != nil {
				return err
			}
			if err := f.SetCellHyperLink(sheet, target, sheetLink(w.sheets[name]), "Location"); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, target, target, w.styles.link); err != nil {
				return err
			}

			col++
			if col > 10 {
				col = 2
				row++
			}
		}
		row += 2
	}

	return nil
}

func (w *workbook) writeTable(table schema.TableDefinition) error {
	f, sheet := w.f, w.sheets[table.Name]

	for i, width := range gridWidths {
		name := columnName(i + 1)
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "J", "J", 20); err != nil {
		return err
	}

	header := []struct {
		ref   string
		value string
	}{
		{"A1", "TableName"},
		{"B1", table.Name},
		{"E1", "Desc."},
		{"F1", table.Description},
	}
	for _, c := range header {
		if err := f.SetCellValue(sheet, c.ref, c.value); err != nil {
			return err
		}
	}
	if err := f.MergeCell(sheet, "B1", "D1"); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "F1", "I1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B1", "D1", w.styles.cellLeft); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "F1", "I1", w.styles.cellLeft); err != nil {
		return err
	}
	for _, ref := range []string{"A1", "E1"} {
		if err := f.SetCellStyle(sheet, ref, ref, w.styles.label); err != nil {
			return err
		}
	}

	if w.withCover {
		if err := f.SetCellValue(sheet, "J1", backLinkLabel); err != nil {
			return err
		}
		if err := f.SetCellHyperLink(sheet, "J1", sheetLink(IndexSheetName), "Location"); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "J1", "J1", w.styles.backLink); err != nil {
			return err
		}
	}

	headers := make([]interface{}, len(ColumnHeaders))
	for i, h := range ColumnHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheet, "A2", &headers); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A2", "I2", w.styles.header); err != nil {
		return err
	}

	for i, col := range table.Columns {
		row := i + 3
		values := ColumnCells(col)
		cells := make([]interface{}, len(values))
		for j, v := range values {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheet, cell(1, row), &cells); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(9, row), w.styles.cellCenter); err != nil {
			return err
		}
		for j := range values {
			if leftAligned(j) {
				if err := f.SetCellStyle(sheet, cell(j+1, row), cell(j+1, row), w.styles.cellLeft); err != nil {
					return err
				}
			}
		}
	}

	for row := 1; row <= len(table.Columns)+2; row++ {
		if err := f.SetRowHeight(sheet, row, 20); err != nil {
			return err
		}
	}

	if table.Remark == "" {
		return nil
	}

	row := len(table.Columns) + 4
	if err := f.SetCellValue(sheet, cell(1, row), remarkLabel); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell(1, row), cell(1, row), w.styles.remarkLabel); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, cell(2, row), cell(9, row)); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell(2, row), table.Remark); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell(2, row), cell(9, row), w.styles.remark); err != nil {
		return err
	}
	return f.SetRowHeight(sheet, row, float64(15*len(remarkLines(table.Remark))))
}

// SheetNames maps every table name to a valid, unique worksheet name.
// Names that had to be altered, or that collide ignoring case with an
// earlier sheet, get a suffix derived from the original name. The result
// depends only on the input.
func SheetNames(names []string) map[string]string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.SliceStable(sorted, func(i, j int) bool { return lessName(sorted[i], sorted[j]) })

	used := make(map[string]struct{}, len(sorted))
	for name := range reservedSheetNames {
		used[name] = struct{}{}
	}

	out := make(map[string]string, len(sorted))
	for _, name := range sorted {
		if _, done := out[name]; done {
			continue
		}
		base := sanitizeSheetName(name)
		sheet := base
		if sheet != name || sheet == "" || isUsed(used, sheet) {
			sheet = withHashSuffix(base, name)
		}
		for i := 1; isUsed(used, sheet); i++ {
			sheet = withHashSuffix(base, fmt.Sprintf("%s#%d", name, i))
		}
		used[strings.ToLower(sheet)] = struct{}{}
		out[name] = sheet
	}
	return out
}

func sanitizeSheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	cleaned = strings.Trim(cleaned, "'")
	return truncateRunes(cleaned, maxSheetNameLen)
}

func withHashSuffix(base, original string) string {
	h := fnv.New32a()
	h.Write([]byte(original))
	return fmt.Sprintf("%s~%08x", truncateRunes(base, maxSheetNameLen-suffixLen), h.Sum32())
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func isUsed(used map[string]struct{}, sheet string) bool {
	_, ok := used[strings.ToLower(sheet)]
	return ok
}

func sheetLink(sheet string) string {
	return fmt.Sprintf("'%s'!A1", strings.ReplaceAll(sheet, "'", "''"))
}

func cell(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}

func columnName(col int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return name
}
