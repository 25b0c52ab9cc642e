package schema

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// unboundedLength is the max-length sentinel both dialects report for
// varchar(max) style columns.
const unboundedLength = -1

// rawColumn is one introspection row before decoding.
type rawColumn struct {
	TableName     string
	TableDesc     sql.NullString
	ColumnName    string
	DataType      string
	IsComputed    bool
	IsIdentity    bool
	IdentSeed     sql.NullString
	IdentIncr     sql.NullString
	ColumnDefault sql.NullString
	MaxLength     sql.NullInt64
	Precision     sql.NullInt64
	Scale         sql.NullInt64
	IsNullable    bool
	PkOrdinal     sql.NullInt64
	ColumnDesc    sql.NullString
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanColumn(rows rowScanner) (rawColumn, error) {
	var raw rawColumn
	err := rows.Scan(
		&raw.TableName,
		&raw.TableDesc,
		&raw.ColumnName,
		&raw.DataType,
		&raw.IsComputed,
		&raw.IsIdentity,
		&raw.IdentSeed,
		&raw.IdentIncr,
		&raw.ColumnDefault,
		&raw.MaxLength,
		&raw.Precision,
		&raw.Scale,
		&raw.IsNullable,
		&raw.PkOrdinal,
		&raw.ColumnDesc,
	)
	return raw, err
}

func decodeColumn(raw rawColumn) ColumnDefinition {
	return ColumnDefinition{
		Name:        raw.ColumnName,
		Type:        strings.ToLower(raw.DataType),
		Computed:    decodeComputed(raw),
		Length:      decodeLength(raw),
		Precision:   nullInt(raw.Precision),
		Scale:       nullInt(raw.Scale),
		Nullable:    raw.IsNullable,
		PrimaryKey:  nullInt(raw.PkOrdinal),
		Description: raw.ColumnDesc.String,
	}
}

// decodeComputed applies computed > identity > default precedence.
func decodeComputed(raw rawColumn) string {
	switch {
	case raw.IsComputed:
		return ComputedMarker
	case raw.IsIdentity:
		return fmt.Sprintf("Identity(%s,%s)", identityPart(raw.IdentSeed), identityPart(raw.IdentIncr))
	case raw.ColumnDefault.Valid:
		return stripDefaultParens(raw.ColumnDefault.String)
	default:
		return ""
	}
}

func identityPart(v sql.NullString) string {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return "1"
	}
	return strings.TrimSpace(v.String)
}

// stripDefaultParens unwraps "((0))" to "0" and "(getdate())" to "getdate()".
// Anything else is returned as-is.
func stripDefaultParens(def string) string {
	switch {
	case len(def) >= 4 && strings.HasPrefix(def, "((") && strings.HasSuffix(def, "))"):
		return def[2 : len(def)-2]
	case len(def) >= 2 && strings.HasPrefix(def, "(") && strings.HasSuffix(def, ")"):
		return def[1 : len(def)-1]
	default:
		return def
	}
}

func decodeLength(raw rawColumn) string {
	if raw.IsComputed {
		return LengthAuto
	}
	if !raw.MaxLength.Valid {
		return ""
	}
	if raw.MaxLength.Int64 == unboundedLength {
		return LengthMax
	}
	return strconv.FormatInt(raw.MaxLength.Int64, 10)
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
