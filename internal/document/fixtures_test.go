package document_test

import (
	"time"

	"github.com/kadirbelkuyu/tabledef/internal/schema"
)

var generatedAt = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func userTable() schema.TableDefinition {
	return schema.TableDefinition{
		Name:   "User",
		Remark: "test",
		Columns: []schema.ColumnDefinition{
			{Name: "Id", Type: "int", Computed: "Identity(1,1)", PrimaryKey: intPtr(1)},
			{Name: "Name", Type: "nvarchar", Length: "50", Nullable: true},
		},
	}
}

func sampleTables() []schema.TableDefinition {
	return []schema.TableDefinition{
		{
			Name:        "Banana",
			Description: "fruit <stock>",
			Remark:      "line one\nline two",
			Columns: []schema.ColumnDefinition{
				{Name: "Id", Type: "int", PrimaryKey: intPtr(1)},
			},
		},
		{
			Name: "apple",
			Columns: []schema.ColumnDefinition{
				{Name: "Id", Type: "int", PrimaryKey: intPtr(1)},
				{Name: "Total", Type: "decimal", Computed: "ComputedColumn", Length: "auto", Precision: intPtr(18), Scale: intPtr(2)},
			},
		},
		{
			Name:        "Alpha",
			Description: "first",
			Columns: []schema.ColumnDefinition{
				{Name: "Code", Type: "varchar", Length: "max", Nullable: true, Description: "free text"},
			},
		},
	}
}
