package selection

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"
	"github.com/kadirbelkuyu/tabledef/internal/fileio"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
)

// DefaultFileName is offered when the user saves without naming a file.
const DefaultFileName = "tables.json"

const tablesKey = "Tables"

type document struct {
	Tables []schema.SelectionEntry `json:"Tables"`
}

// Marshal encodes entries as {"Tables":[{"TableName":..,"Remark":..}]}.
func Marshal(entries []schema.SelectionEntry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, apperrors.New(apperrors.ErrTypeValidation, "there are no tables to save").
			WithSuggestion("Add at least one table before saving")
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(document{Tables: entries}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeInternal, "failed to encode selection")
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a persisted selection, rejecting structurally invalid
// documents before returning anything.
func Unmarshal(data []byte) ([]schema.SelectionEntry, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, formatError(err, "selection file is not a JSON object")
	}

	raw, ok := root[tablesKey]
	if !ok {
		return nil, formatError(nil, `selection file has no "Tables" key`)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, formatError(err, `"Tables" must be an array`)
	}

	entries := make([]schema.SelectionEntry, 0, len(items))
	for i, item := range items {
		entry, err := decodeEntry(item)
		if err != nil {
			return nil, formatError(err, "invalid entry %d", i)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func decodeEntry(item json.RawMessage) (schema.SelectionEntry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return schema.SelectionEntry{}, apperrors.New(apperrors.ErrTypeFormat, "entry is not an object")
	}

	var entry schema.SelectionEntry
	name, ok := fields["TableName"]
	if !ok || isNull(name) {
		return entry, apperrors.New(apperrors.ErrTypeFormat, "TableName is missing")
	}
	if err := json.Unmarshal(name, &entry.TableName); err != nil {
		return entry, apperrors.New(apperrors.ErrTypeFormat, "TableName must be a string")
	}
	if strings.TrimSpace(entry.TableName) == "" {
		return entry, apperrors.New(apperrors.ErrTypeFormat, "TableName is empty")
	}

	if remark, ok := fields["Remark"]; ok && !isNull(remark) {
		if err := json.Unmarshal(remark, &entry.Remark); err != nil {
			return entry, apperrors.New(apperrors.ErrTypeFormat, "Remark must be a string")
		}
	}

	return entry, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func formatError(cause error, format string, args ...any) error {
	return apperrors.Wrapf(cause, apperrors.ErrTypeFormat, format, args...)
}

// SaveFile validates entries and writes them atomically to path.
func SaveFile(path string, entries []schema.SelectionEntry) error {
	data, err := Marshal(entries)
	if err != nil {
		return err
	}

	if err := fileio.WriteAtomic(path, data, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeExport, "failed to save selection")
	}
	return nil
}

func LoadFile(path string) ([]schema.SelectionEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrTypeFormat, "failed to read selection file %s", path)
	}
	return Unmarshal(data)
}
