package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/tabledef/internal/app"
	"github.com/kadirbelkuyu/tabledef/internal/config"
	"github.com/kadirbelkuyu/tabledef/internal/database"
	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"
	"github.com/kadirbelkuyu/tabledef/pkg/logger"
)

var columnHeaders = []string{
	"TABLE_NAME", "TABLE_DESC", "COLUMN_NAME", "DATA_TYPE", "IS_COMPUTED", "IS_IDENTITY",
	"IDENT_SEED", "IDENT_INCR", "COLUMN_DEFAULT", "CHARACTER_MAXIMUM_LENGTH",
	"NUMERIC_PRECISION", "NUMERIC_SCALE", "IS_NULLABLE", "PK_ORDER", "COLUMN_DESC",
}

func newMockService(t *testing.T) (*app.Service, sqlmock.Sqlmock, *config.Config, *bytes.Buffer) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg, err := config.ParseConfig([]byte("database:\n  type: sqlserver\n  host: db.internal\n  database: WiseM\n"))
	require.NoError(t, err)

	var out bytes.Buffer
	svc := app.NewServiceWithConnector(&out, logger.Discard(), func(context.Context, *config.Config) (*database.Connection, error) {
		return database.Wrap(db, cfg), nil
	})
	return svc, mock, cfg, &out
}

func TestCheckPrintsServerVersion(t *testing.T) {
	svc, mock, cfg, out := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT @@VERSION")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("Microsoft SQL Server 2022\n\tCopyright (C) 2022"))
	mock.ExpectClose()

	require.NoError(t, svc.Check(context.Background(), cfg))

	assert.Contains(t, out.String(), "Server: db.internal:1433 (sqlserver)")
	assert.Contains(t, out.String(), "Database: WiseM")
	assert.Contains(t, out.String(), "Version: Microsoft SQL Server 2022\n")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShowReportsMissingNames(t *testing.T) {
	svc, mock, cfg, out := newMockService(t)

	rows := sqlmock.NewRows(columnHeaders).
		AddRow("User", "members", "Id", "int", false, true, "1", "1", nil, nil, nil, nil, false, int64(1), "").
		AddRow("User", "members", "Name", "nvarchar", false, false, nil, nil, nil, int64(50), nil, nil, true, nil, "")
	mock.ExpectQuery(regexp.QuoteMeta("STRING_SPLIT(@p2, ',')")).
		WithArgs("dbo", "User,Ghost").
		WillReturnRows(rows)
	mock.ExpectClose()

	require.NoError(t, svc.Show(context.Background(), cfg, []string{"user", "ghost"}))

	assert.Contains(t, out.String(), "Table: User")
	assert.Contains(t, out.String(), "Description: members")
	assert.Regexp(t, `Id\s+int\s+Identity\(1,1\)`, out.String())
	assert.Contains(t, out.String(), "Not found: Ghost")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShowFailsWhenNothingMatches(t *testing.T) {
	svc, mock, cfg, _ := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta("STRING_SPLIT(@p2, ',')")).
		WithArgs("dbo", "Ghost").
		WillReturnRows(sqlmock.NewRows(columnHeaders))

	err := svc.Show(context.Background(), cfg, []string{"ghost"})
	require.ErrorIs(t, err, app.ErrTableNotFound)
}

func TestShowRequiresNames(t *testing.T) {
	svc, _, cfg, _ := newMockService(t)

	err := svc.Show(context.Background(), cfg, []string{" "})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestExportMergesSelectionFileAndNames(t *testing.T) {
	svc, mock, cfg, out := newMockService(t)
	dir := t.TempDir()

	selectionPath := filepath.Join(dir, "tables.json")
	require.NoError(t, os.WriteFile(selectionPath, []byte(`{"Tables":[{"TableName":"User","Remark":"test"}]}`), 0o644))

	rows := sqlmock.NewRows(columnHeaders).
		AddRow("Order", "", "Id", "int", false, false, nil, nil, nil, nil, nil, nil, false, int64(1), "").
		AddRow("User", "", "Id", "int", false, true, "1", "1", nil, nil, nil, nil, false, int64(1), "")
	mock.ExpectQuery(regexp.QuoteMeta("STRING_SPLIT(@p2, ',')")).
		WithArgs("dbo", "User,Order").
		WillReturnRows(rows)
	mock.ExpectClose()

	output := filepath.Join(dir, "docs", "definitions.html")
	err := svc.Export(context.Background(), cfg, app.ExportOptions{
		SelectionPath: selectionPath,
		Names:         []string{"order"},
		OutputPath:    output,
		CoverPage:     true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `id="User"`)
	assert.Contains(t, string(data), `id="Order"`)
	assert.Contains(t, string(data), "test")

	assert.Contains(t, out.String(), "Export completed successfully.")
	assert.Contains(t, out.String(), "Tables: 2")
	assert.Contains(t, out.String(), "File: "+output)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportWithoutTablesFails(t *testing.T) {
	svc, _, cfg, _ := newMockService(t)

	err := svc.Export(context.Background(), cfg, app.ExportOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestExportBadSelectionFileDoesNotConnect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	connected := false
	svc := app.NewServiceWithConnector(&bytes.Buffer{}, logger.Discard(), func(context.Context, *config.Config) (*database.Connection, error) {
		connected = true
		return nil, nil
	})

	err := svc.Export(context.Background(), &config.Config{}, app.ExportOptions{SelectionPath: path})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFormat))
	assert.False(t, connected)
}

func TestExportMissingTablesOnly(t *testing.T) {
	svc, mock, cfg, out := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta("STRING_SPLIT(@p2, ',')")).
		WithArgs("dbo", "Ghost").
		WillReturnRows(sqlmock.NewRows(columnHeaders))

	output := filepath.Join(t.TempDir(), "defs.xlsx")
	err := svc.Export(context.Background(), cfg, app.ExportOptions{Names: []string{"ghost"}, OutputPath: output})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	assert.Contains(t, out.String(), "Skipping Ghost: table not found")
	assert.NoFileExists(t, output)
}

func TestBrowsePreloadsSelection(t *testing.T) {
	svc, mock, cfg, _ := newMockService(t)

	path := filepath.Join(t.TempDir(), "tables.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Tables":[{"TableName":"User","Remark":"test"}]}`), 0o644))

	rows := sqlmock.NewRows(columnHeaders).
		AddRow("User", "", "Id", "int", false, false, nil, nil, nil, nil, nil, nil, false, nil, "")
	mock.ExpectQuery(regexp.QuoteMeta("STRING_SPLIT(@p2, ',')")).
		WithArgs("dbo", "User").
		WillReturnRows(rows)
	mock.ExpectClose()

	var names []string
	err := svc.Browse(context.Background(), cfg, path, func(_ context.Context, session *app.Session, _ *config.Config) error {
		names = session.Selection().Names()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"User"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}
