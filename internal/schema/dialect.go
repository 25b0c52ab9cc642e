package schema

import (
	"strings"

	"github.com/lib/pq"

	"github.com/kadirbelkuyu/tabledef/internal/config"
)

// dialect builds the single batched introspection query for one engine.
// Both queries return the columns scanned by scanColumn, ordered by table
// name and ordinal position.
type dialect interface {
	name() string
	columnsQuery(names []string, schemaName string) (string, []any)
}

func dialectFor(cfg *config.Config) dialect {
	if cfg.Database.Type == config.TypeSQLServer {
		return sqlServerDialect{}
	}
	return postgresDialect{driver: cfg.Database.Driver}
}

// nameList joins names the way STRING_SPLIT splits them back apart, so a
// SQL Server name containing a comma cannot be requested.
func nameList(names []string) string {
	return strings.Join(names, ",")
}

type postgresDialect struct {
	driver string
}

func (postgresDialect) name() string { return config.TypePostgres }

const postgresColumnsQuery = `
SELECT
    c.table_name,
    COALESCE(obj_description(cls.oid, 'pg_class'), '')                AS table_desc,
    c.column_name,
    LOWER(c.data_type)                                               AS data_type,
    (c.is_generated = 'ALWAYS')                                      AS is_computed,
    (c.is_identity = 'YES')                                          AS is_identity,
    c.identity_start,
    c.identity_increment,
    c.column_default,
    CASE
        WHEN c.data_type = 'text' THEN -1
        WHEN c.data_type IN ('character varying', 'bit varying')
             AND c.character_maximum_length IS NULL THEN -1
        ELSE c.character_maximum_length
    END                                                              AS max_length,
    c.numeric_precision,
    c.numeric_scale,
    (c.is_nullable = 'YES')                                          AS is_nullable,
    pk.ordinal_position                                              AS pk_ordinal,
    COALESCE(col_description(cls.oid, att.attnum), '')               AS column_desc
FROM information_schema.columns c
JOIN pg_catalog.pg_namespace ns
  ON ns.nspname = c.table_schema
JOIN pg_catalog.pg_class cls
  ON cls.relname = c.table_name
 AND cls.relnamespace = ns.oid
JOIN pg_catalog.pg_attribute att
  ON att.attrelid = cls.oid
 AND att.attname = c.column_name
LEFT JOIN (
    SELECT kcu.table_schema, kcu.table_name, kcu.column_name, kcu.ordinal_position
    FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu
      ON kcu.constraint_name = tc.constraint_name
     AND kcu.table_schema = tc.table_schema
     AND kcu.table_name = tc.table_name
    WHERE tc.constraint_type = 'PRIMARY KEY'
) pk
  ON pk.table_schema = c.table_schema
 AND pk.table_name = c.table_name
 AND pk.column_name = c.column_name
WHERE c.table_schema = $1
  AND c.table_name = ANY($2::text[])
ORDER BY c.table_name, c.ordinal_position`

// columnsQuery binds the names as a text array; pgx encodes []string
// natively while lib/pq needs its array wrapper.
func (d postgresDialect) columnsQuery(names []string, schemaName string) (string, []any) {
	var list any = pq.Array(names)
	if d.driver == config.DriverPGX {
		list = names
	}
	return postgresColumnsQuery, []any{schemaName, list}
}

type sqlServerDialect struct{}

func (sqlServerDialect) name() string { return config.TypeSQLServer }

const sqlServerColumnsQuery = `
SELECT
    C.TABLE_NAME,
    COALESCE(CAST(EP_T.value AS NVARCHAR(4000)), '')                         AS TABLE_DESC,
    C.COLUMN_NAME,
    LOWER(C.DATA_TYPE)                                                       AS DATA_TYPE,
    CAST(CASE WHEN CC.definition IS NOT NULL THEN 1 ELSE 0 END AS BIT)       AS IS_COMPUTED,
    CAST(COALESCE(COLUMNPROPERTY(OBJECT_ID(QUOTENAME(C.TABLE_SCHEMA) + '.' + QUOTENAME(C.TABLE_NAME)), C.COLUMN_NAME, 'IsIdentity'), 0) AS BIT) AS IS_IDENTITY,
    CAST(IDENT_SEED(QUOTENAME(C.TABLE_SCHEMA) + '.' + QUOTENAME(C.TABLE_NAME)) AS VARCHAR(40)) AS IDENT_SEED,
    CAST(IDENT_INCR(QUOTENAME(C.TABLE_SCHEMA) + '.' + QUOTENAME(C.TABLE_NAME)) AS VARCHAR(40)) AS IDENT_INCR,
    C.COLUMN_DEFAULT,
    C.CHARACTER_MAXIMUM_LENGTH,
    C.NUMERIC_PRECISION,
    C.NUMERIC_SCALE,
    CAST(CASE WHEN C.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END AS BIT)           AS IS_NULLABLE,
    PK.PK_ORDER,
    COALESCE(CAST(EP.value AS NVARCHAR(4000)), '')                           AS COLUMN_DESC
FROM INFORMATION_SCHEMA.COLUMNS C
LEFT JOIN sys.columns SC
       ON SC.object_id = OBJECT_ID(QUOTENAME(C.TABLE_SCHEMA) + '.' + QUOTENAME(C.TABLE_NAME))
      AND SC.name = C.COLUMN_NAME
LEFT JOIN sys.computed_columns CC
       ON CC.object_id = SC.object_id
      AND CC.column_id = SC.column_id
LEFT JOIN (
    SELECT KU.TABLE_CATALOG, KU.TABLE_SCHEMA, KU.TABLE_NAME, KU.COLUMN_NAME, KU.ORDINAL_POSITION AS PK_ORDER
    FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS TC
    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE KU
      ON TC.CONSTRAINT_TYPE = 'PRIMARY KEY'
     AND TC.CONSTRAINT_NAME = KU.CONSTRAINT_NAME
     AND TC.TABLE_SCHEMA = KU.TABLE_SCHEMA
) PK
       ON PK.TABLE_CATALOG = C.TABLE_CATALOG
      AND PK.TABLE_SCHEMA = C.TABLE_SCHEMA
      AND PK.TABLE_NAME = C.TABLE_NAME
      AND PK.COLUMN_NAME = C.COLUMN_NAME
LEFT JOIN sys.extended_properties EP
       ON EP.major_id = SC.object_id
      AND EP.minor_id = SC.column_id
      AND EP.name = 'MS_Description'
LEFT JOIN sys.extended_properties EP_T
       ON EP_T.major_id = SC.object_id
      AND EP_T.minor_id = 0
      AND EP_T.name = 'MS_Description'
WHERE C.TABLE_SCHEMA = @p1
  AND C.TABLE_NAME IN (SELECT TRIM(value) FROM STRING_SPLIT(@p2, ','))
ORDER BY C.TABLE_NAME, C.ORDINAL_POSITION`

func (sqlServerDialect) columnsQuery(names []string, schemaName string) (string, []any) {
	return sqlServerColumnsQuery, []any{schemaName, nameList(names)}
}
