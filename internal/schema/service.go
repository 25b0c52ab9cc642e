package schema

import (
	"context"
	"strings"
	"time"

	"github.com/kadirbelkuyu/tabledef/internal/config"
	"github.com/kadirbelkuyu/tabledef/internal/database"
	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"
	"github.com/kadirbelkuyu/tabledef/pkg/logger"
)

// Service turns requested table names into table definitions with one
// introspection query per request.
type Service struct {
	exec       database.Executor
	dialect    dialect
	schemaName string
	capitalize bool
	timeout    time.Duration
	logger     *logger.Logger
}

// Resolution is the outcome of Resolve. Missing holds requested names that
// matched no table; it is informational, not an error.
type Resolution struct {
	Definitions []TableDefinition
	Missing     []string
}

func (r *Resolution) Found() bool {
	return len(r.Definitions) > 0
}

func NewService(exec database.Executor, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		exec:       exec,
		dialect:    dialectFor(cfg),
		schemaName: cfg.Database.Schema,
		capitalize: cfg.CapitalizeNames(),
		timeout:    cfg.QueryTimeoutDuration(),
		logger:     log,
	}
}

// NormalizeName applies the configured rule to a raw user-supplied name.
func (s *Service) NormalizeName(raw string) string {
	if !s.capitalize {
		return strings.TrimSpace(raw)
	}
	return NormalizeName(raw)
}

// FetchDefinitions loads every requested table that exists. Requested
// names with no matching rows are silently absent from the result.
func (s *Service) FetchDefinitions(ctx context.Context, entries []SelectionEntry) ([]TableDefinition, error) {
	names := uniqueNames(entries)
	if len(names) == 0 {
		return nil, nil
	}

	query, args := s.dialect.columnsQuery(names, s.schemaName)
	s.logger.Debugf("Introspecting %d tables on %s (schema %s)", len(names), s.dialect.name(), s.schemaName)
	s.logger.Debugf("SQL: %s", query)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	rows, err := s.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyQueryError(err, "failed to query column metadata")
	}
	defer rows.Close()

	var raws []rawColumn
	for rows.Next() {
		raw, err := scanColumn(rows)
		if err != nil {
			return nil, classifyQueryError(err, "failed to read column metadata")
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyQueryError(err, "failed to iterate column metadata")
	}

	tables := groupRows(raws, entries)
	s.logger.Debugf("Loaded %d of %d tables (%d columns) in %s", len(tables), len(names), len(raws), time.Since(started).Round(time.Millisecond))

	return tables, nil
}

// Resolve is FetchDefinitions plus a report of names that matched nothing.
func (s *Service) Resolve(ctx context.Context, entries []SelectionEntry) (*Resolution, error) {
	tables, err := s.FetchDefinitions(ctx, entries)
	if err != nil {
		return nil, err
	}

	res := &Resolution{
		Definitions: tables,
		Missing:     missingNames(entries, tables),
	}
	for _, name := range res.Missing {
		s.logger.Warnf("Table not found: %s", name)
	}
	return res, nil
}

// EntriesFromNames normalizes raw names into entries without remarks.
func (s *Service) EntriesFromNames(raw []string) []SelectionEntry {
	entries := make([]SelectionEntry, 0, len(raw))
	for _, name := range raw {
		name = s.NormalizeName(name)
		if name == "" {
			continue
		}
		entries = append(entries, SelectionEntry{TableName: name})
	}
	return entries
}

func uniqueNames(entries []SelectionEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func classifyQueryError(err error, message string) error {
	if database.IsConnectionError(err) {
		return apperrors.Wrap(err, apperrors.ErrTypeConnection, message).
			WithSuggestion("Run 'tabledef check' to verify the connection settings")
	}
	return apperrors.Wrap(err, apperrors.ErrTypeQuery, message)
}
