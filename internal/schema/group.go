package schema

import "strings"

// groupRows folds ordered introspection rows into one definition per table
// name, keeping first-seen table order and row order within each table.
func groupRows(rows []rawColumn, requested []SelectionEntry) []TableDefinition {
	var tables []TableDefinition
	index := make(map[string]int)

	for _, raw := range rows {
		pos, ok := index[raw.TableName]
		if !ok {
			pos = len(tables)
			index[raw.TableName] = pos
			tables = append(tables, TableDefinition{
				Name:        raw.TableName,
				Description: raw.TableDesc.String,
				Remark:      remarkFor(raw.TableName, requested),
			})
		}
		tables[pos].Columns = append(tables[pos].Columns, decodeColumn(raw))
	}

	return tables
}

// remarkFor returns the remark of the requested entry for name. An exact
// match wins over a case-insensitive one, since servers with
// case-insensitive collations may return a differently cased name.
func remarkFor(name string, requested []SelectionEntry) string {
	for _, entry := range requested {
		if entry.Name() == name {
			return entry.Remark
		}
	}
	for _, entry := range requested {
		if strings.EqualFold(entry.Name(), name) {
			return entry.Remark
		}
	}
	return ""
}

// missingNames lists requested names that produced no definition.
func missingNames(requested []SelectionEntry, tables []TableDefinition) []string {
	var missing []string
	for _, entry := range requested {
		name := entry.Name()
		if name == "" {
			continue
		}
		found := false
		for _, table := range tables {
			if strings.EqualFold(table.Name, name) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, name)
		}
	}
	return missing
}
