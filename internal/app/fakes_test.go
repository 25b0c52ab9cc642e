package app

import (
	"context"
	"strings"

	"github.com/kadirbelkuyu/tabledef/internal/schema"
)

// fakeResolver serves definitions from memory and records every lookup.
type fakeResolver struct {
	tables map[string]schema.TableDefinition
	err    error
	calls  [][]string
}

func newFakeResolver(defs ...schema.TableDefinition) *fakeResolver {
	r := &fakeResolver{tables: make(map[string]schema.TableDefinition)}
	for _, def := range defs {
		r.tables[def.Name] = def
	}
	return r
}

func (r *fakeResolver) NormalizeName(raw string) string {
	return schema.NormalizeName(raw)
}

func (r *fakeResolver) Resolve(_ context.Context, entries []schema.SelectionEntry) (*schema.Resolution, error) {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.TableName
	}
	r.calls = append(r.calls, names)

	if r.err != nil {
		return nil, r.err
	}

	res := &schema.Resolution{}
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.TableName] {
			continue
		}
		seen[e.TableName] = true

		def, ok := r.tables[e.TableName]
		if !ok {
			res.Missing = append(res.Missing, e.TableName)
			continue
		}
		def = def.Clone()
		def.Remark = e.Remark
		res.Definitions = append(res.Definitions, def)
	}
	return res, nil
}

func table(name string, columns ...string) schema.TableDefinition {
	def := schema.TableDefinition{Name: name, Description: strings.ToLower(name) + " table"}
	for _, col := range columns {
		def.Columns = append(def.Columns, schema.ColumnDefinition{Name: col, Type: "int"})
	}
	return def
}
