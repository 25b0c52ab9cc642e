package schema

import (
	"strings"
	"unicode"
)

// ComputedMarker is the Computed value reported for true computed columns.
const ComputedMarker = "ComputedColumn"

const (
	LengthAuto = "auto"
	LengthMax  = "max"
)

type TableDefinition struct {
	Name        string
	Description string
	Remark      string
	Columns     []ColumnDefinition
}

type ColumnDefinition struct {
	Name        string
	Type        string
	Computed    string
	Length      string
	Precision   *int
	Scale       *int
	Nullable    bool
	PrimaryKey  *int
	Description string
}

// SelectionEntry is the persisted form of a table in the working set.
type SelectionEntry struct {
	TableName string `json:"TableName"`
	Remark    string `json:"Remark"`
}

// Name is the table name as sent to the database, without surrounding
// whitespace.
func (e SelectionEntry) Name() string {
	return strings.TrimSpace(e.TableName)
}

func (t TableDefinition) Entry() SelectionEntry {
	return SelectionEntry{TableName: t.Name, Remark: t.Remark}
}

// Clone returns a copy that shares no memory with t.
func (t TableDefinition) Clone() TableDefinition {
	out := t
	if t.Columns != nil {
		out.Columns = make([]ColumnDefinition, len(t.Columns))
		for i, col := range t.Columns {
			out.Columns[i] = col.clone()
		}
	}
	return out
}

func (c ColumnDefinition) clone() ColumnDefinition {
	out := c
	out.Precision = cloneInt(c.Precision)
	out.Scale = cloneInt(c.Scale)
	out.PrimaryKey = cloneInt(c.PrimaryKey)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// NormalizeName trims a user-typed table name and upper-cases its first
// character. The rest of the name is left untouched.
func NormalizeName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
