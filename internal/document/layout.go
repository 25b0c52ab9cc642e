package document

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/kadirbelkuyu/tabledef/internal/schema"
)

// ColumnHeaders is the fixed grid header, in order.
var ColumnHeaders = []string{"ColumnName", "Type", "Computed", "Length", "Prec", "Scale", "Nullable", "Pk", "Description"}

const (
	documentHeading = "Table Definitions"
	backLinkLabel   = "Back to index"
	remarkLabel     = "REMARK"
	nullableMark    = "Y"
)

// IndexGroup is one letter section of the cover page.
type IndexGroup struct {
	Key   string
	Names []string
}

func lessName(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// sortTables returns tables ordered by name without touching the input.
func sortTables(tables []schema.TableDefinition) []schema.TableDefinition {
	sorted := make([]schema.TableDefinition, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessName(sorted[i].Name, sorted[j].Name)
	})
	return sorted
}

// BuildIndex groups names by their upper-cased first character.
func BuildIndex(names []string) []IndexGroup {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.SliceStable(sorted, func(i, j int) bool { return lessName(sorted[i], sorted[j]) })

	var groups []IndexGroup
	pos := make(map[string]int)
	for _, name := range sorted {
		key := indexKey(name)
		i, ok := pos[key]
		if !ok {
			i = len(groups)
			pos[key] = i
			groups = append(groups, IndexGroup{Key: key})
		}
		groups[i].Names = append(groups[i].Names, name)
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

func indexKey(name string) string {
	for _, r := range name {
		return string(unicode.ToUpper(r))
	}
	return ""
}

func tableNames(tables []schema.TableDefinition) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

// ColumnCells renders one column as the grid cells under ColumnHeaders.
func ColumnCells(col schema.ColumnDefinition) []string {
	nullable := ""
	if col.Nullable {
		nullable = nullableMark
	}
	return []string{
		col.Name,
		col.Type,
		col.Computed,
		col.Length,
		optionalInt(col.Precision),
		optionalInt(col.Scale),
		nullable,
		optionalInt(col.PrimaryKey),
		col.Description,
	}
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// leftAligned reports whether grid column i is left-aligned.
func leftAligned(i int) bool {
	return i == 0 || i == len(ColumnHeaders)-1
}

func remarkLines(remark string) []string {
	remark = strings.ReplaceAll(remark, "\r\n", "\n")
	return strings.Split(remark, "\n")
}
