package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kadirbelkuyu/tabledef/internal/config"
	"github.com/kadirbelkuyu/tabledef/internal/database"
	"github.com/kadirbelkuyu/tabledef/internal/document"
	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"
	"github.com/kadirbelkuyu/tabledef/internal/fileio"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
	"github.com/kadirbelkuyu/tabledef/internal/selection"
	"github.com/kadirbelkuyu/tabledef/pkg/logger"
	"github.com/kadirbelkuyu/tabledef/pkg/progress"
)

// Connector opens a database for a config. Tests swap in sqlmock.
type Connector func(ctx context.Context, cfg *config.Config) (*database.Connection, error)

// Service runs the non-interactive commands.
type Service struct {
	out      io.Writer
	logger   *logger.Logger
	connect  Connector
	progress bool
}

func NewService(log *logger.Logger) *Service {
	return &Service{
		out:      os.Stdout,
		logger:   log,
		connect:  database.NewConnection,
		progress: true,
	}
}

// NewServiceWithConnector is NewService writing to out through connect,
// without terminal progress output.
func NewServiceWithConnector(out io.Writer, log *logger.Logger, connect Connector) *Service {
	return &Service{out: out, logger: log, connect: connect}
}

// ExportOptions drives Export. Names and the selection file are merged,
// selection entries first.
type ExportOptions struct {
	SelectionPath string
	Names         []string
	Format        document.Format
	OutputPath    string
	CoverPage     bool
}

func (s *Service) openSession(ctx context.Context, cfg *config.Config) (*Session, *database.Connection, error) {
	conn, err := s.connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	resolver := schema.NewService(conn, cfg, s.logger)
	return NewSession(resolver, s.logger), conn, nil
}

// Check connects and prints the server version.
func (s *Service) Check(ctx context.Context, cfg *config.Config) error {
	s.logger.Info("Checking database connection...")

	conn, err := s.connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	version, err := conn.ServerVersion(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Connection succeeded.")
	fmt.Fprintf(s.out, "Server: %s (%s)\n", formatServerLabel(cfg), cfg.Database.Type)
	fmt.Fprintf(s.out, "Database: %s\n", displayValue(conn.GetDatabaseName(), "n/a"))
	fmt.Fprintf(s.out, "Schema: %s\n", displayValue(cfg.Database.Schema, "n/a"))
	fmt.Fprintf(s.out, "Version: %s\n", firstLine(version))
	return nil
}

// Show prints the definitions of names. Unknown names are reported, not
// treated as failures, unless none of the names exist.
func (s *Service) Show(ctx context.Context, cfg *config.Config, names []string) error {
	session, conn, err := s.openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	entries := entriesFromNames(session.resolver, names)
	if len(entries) == 0 {
		return apperrors.New(apperrors.ErrTypeValidation, "no table names given")
	}

	var res *schema.Resolution
	err = s.withSpinner("Reading table definitions", func() error {
		var resolveErr error
		res, resolveErr = session.resolver.Resolve(ctx, entries)
		return resolveErr
	})
	if err != nil {
		return err
	}

	for _, def := range res.Definitions {
		printDefinition(s.out, def)
	}
	if len(res.Missing) > 0 {
		fmt.Fprintf(s.out, "Not found: %s\n", strings.Join(res.Missing, ", "))
	}
	if !res.Found() {
		return fmt.Errorf("%w: %s", ErrTableNotFound, strings.Join(res.Missing, ", "))
	}
	return nil
}

// Export resolves the requested tables and writes one document.
func (s *Service) Export(ctx context.Context, cfg *config.Config, opts ExportOptions) error {
	var entries []schema.SelectionEntry
	if opts.SelectionPath != "" {
		loaded, err := selection.LoadFile(opts.SelectionPath)
		if err != nil {
			return err
		}
		entries = loaded
	}

	session, conn, err := s.openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	entries = append(entries, entriesFromNames(session.resolver, opts.Names)...)
	if len(entries) == 0 {
		return apperrors.New(apperrors.ErrTypeValidation, "nothing to export").
			WithSuggestion("Pass table names or --selection tables.json")
	}

	var loaded *LoadResult
	err = s.withSpinner(fmt.Sprintf("Reading %d table definitions", len(entries)), func() error {
		var loadErr error
		loaded, loadErr = session.LoadEntries(ctx, entries)
		return loadErr
	})
	if err != nil {
		return err
	}
	for _, name := range loaded.Missing {
		fmt.Fprintf(s.out, "Skipping %s: table not found\n", name)
	}

	format := opts.Format
	if format == "" {
		format = formatForPath(opts.OutputPath)
	}
	path := opts.OutputPath
	if path == "" {
		path = session.DefaultExportPath(cfg.Document.OutputDir, format)
	}

	req := ExportRequest{
		Format:    format,
		Path:      path,
		CoverPage: opts.CoverPage,
		Title:     cfg.DocumentTitle(),
	}
	var bar *progress.Bar
	if s.progress {
		bar = progress.NewBar(int64(loaded.Loaded), "Rendering")
		req.OnTable = func(name string) {
			bar.Describe(name)
			bar.Increment()
		}
	}

	meta, err := session.Export(req)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	printMetadata(s.out, "Export completed successfully.", loaded.Loaded, meta)
	return nil
}

func (s *Service) withSpinner(label string, fn func() error) error {
	if !s.progress {
		return fn()
	}
	return progress.NewSpinner(label).Run(fn)
}

func entriesFromNames(resolver Resolver, names []string) []schema.SelectionEntry {
	entries := make([]schema.SelectionEntry, 0, len(names))
	for _, raw := range names {
		if name := resolver.NormalizeName(raw); name != "" {
			entries = append(entries, schema.SelectionEntry{TableName: name})
		}
	}
	return entries
}

// formatForPath picks the format from the output extension, spreadsheet
// when there is none.
func formatForPath(path string) document.Format {
	if format, ok := document.FormatFromPath(path); ok {
		return format
	}
	return document.FormatSpreadsheet
}

func printDefinition(out io.Writer, def schema.TableDefinition) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Table: %s\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", def.Description)
	}
	fmt.Fprintln(out, strings.Repeat("=", 80))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(document.ColumnHeaders, "\t"))
	for _, col := range def.Columns {
		fmt.Fprintln(w, strings.Join(document.ColumnCells(col), "\t"))
	}
	w.Flush()

	if def.Remark != "" {
		fmt.Fprintln(out, strings.Repeat("-", 80))
		fmt.Fprintf(out, "Remark: %s\n", def.Remark)
	}
}

func printMetadata(out io.Writer, headline string, tables int, meta *fileio.Metadata) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, headline)
	fmt.Fprintf(out, "Tables: %d\n", tables)
	fmt.Fprintf(out, "File: %s\n", meta.Location)
	fmt.Fprintf(out, "Size: %d bytes\n", meta.Size)
	fmt.Fprintf(out, "Checksum: %s\n", shortChecksum(meta.Checksum))
	fmt.Fprintf(out, "Duration: %s\n", meta.Duration().Round(time.Millisecond))
}

func shortChecksum(checksum string) string {
	if len(checksum) <= 16 {
		return checksum
	}
	return checksum[:16] + "..."
}

func formatServerLabel(cfg *config.Config) string {
	host := strings.TrimSpace(cfg.Database.Host)
	if host == "" {
		host = "localhost"
	}

	if cfg.Database.Port > 0 {
		return fmt.Sprintf("%s:%d", host, cfg.Database.Port)
	}

	return host
}

func displayValue(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func firstLine(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, "\r\n"); i >= 0 {
		return strings.TrimSpace(value[:i])
	}
	return value
}

// Browse opens a session, optionally preloaded from a selection file, and
// hands it to the terminal UI.
func (s *Service) Browse(ctx context.Context, cfg *config.Config, selectionPath string, run BrowseFunc) error {
	session, conn, err := s.openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if selectionPath != "" {
		result, err := session.Load(ctx, selectionPath)
		if err != nil {
			return err
		}
		for _, name := range result.Missing {
			s.logger.Warnf("Skipping %s: table not found", name)
		}
	}

	return run(ctx, session, cfg)
}
