package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kadirbelkuyu/tabledef/internal/document"
	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"
	"github.com/kadirbelkuyu/tabledef/internal/fileio"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
	"github.com/kadirbelkuyu/tabledef/internal/selection"
	"github.com/kadirbelkuyu/tabledef/pkg/logger"
)

var (
	// ErrTableNotFound is returned when a searched name matches no table.
	ErrTableNotFound = apperrors.New(apperrors.ErrTypeNotFound, "table not found")

	// ErrSelectionOutOfSync is returned when a table picked from a list is no
	// longer in the selection. The selection is cleared before returning it.
	ErrSelectionOutOfSync = apperrors.New(apperrors.ErrTypeInternal, "table list and selection are out of sync; the selection was reset")
)

// Resolver is the schema lookup a Session needs.
type Resolver interface {
	NormalizeName(raw string) string
	Resolve(ctx context.Context, entries []schema.SelectionEntry) (*schema.Resolution, error)
}

// Session owns one user's working set. It is not safe for concurrent use.
type Session struct {
	resolver Resolver
	set      *selection.Set
	logger   *logger.Logger
	now      func() time.Time
}

func NewSession(resolver Resolver, log *logger.Logger) *Session {
	return &Session{
		resolver: resolver,
		set:      selection.NewSet(),
		logger:   log,
		now:      time.Now,
	}
}

func (s *Session) Selection() *selection.Set {
	return s.set
}

// SearchResult is a definition found by Search. InSelection is true when it
// came from the working set rather than the database.
type SearchResult struct {
	Definition  schema.TableDefinition
	InSelection bool
}

// Search looks a raw user-typed name up, preferring the working set.
func (s *Session) Search(ctx context.Context, raw string) (*SearchResult, error) {
	name := s.resolver.NormalizeName(raw)
	if name == "" {
		return nil, apperrors.New(apperrors.ErrTypeValidation, "table name is empty")
	}

	if def, ok := s.set.Find(name); ok {
		return &SearchResult{Definition: def, InSelection: true}, nil
	}

	def, err := s.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Definition: def}, nil
}

// Lookup queries the database for one table without touching the working
// set, so it may run off the goroutine that owns the session.
func (s *Session) Lookup(ctx context.Context, raw string) (schema.TableDefinition, error) {
	name := s.resolver.NormalizeName(raw)
	if name == "" {
		return schema.TableDefinition{}, apperrors.New(apperrors.ErrTypeValidation, "table name is empty")
	}

	res, err := s.resolver.Resolve(ctx, []schema.SelectionEntry{{TableName: name}})
	if err != nil {
		return schema.TableDefinition{}, err
	}
	if !res.Found() {
		return schema.TableDefinition{}, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return res.Definitions[0], nil
}

func (s *Session) NormalizeName(raw string) string {
	return s.resolver.NormalizeName(raw)
}

// Add stores def with remark at the front of the working set.
func (s *Session) Add(def schema.TableDefinition, remark string) {
	def.Remark = remark
	s.set.Add(def)
	s.logger.Debugf("Added %s to the selection (%d tables)", def.Name, s.set.Len())
}

func (s *Session) Remove(names ...string) int {
	removed := s.set.Remove(names...)
	s.logger.Debugf("Removed %d tables from the selection", removed)
	return removed
}

// Reopen returns the stored definition for name. A name that is not in the
// working set means the caller's view is stale: the set is cleared and
// ErrSelectionOutOfSync returned.
func (s *Session) Reopen(name string) (schema.TableDefinition, error) {
	def, ok := s.set.Get(name)
	if !ok {
		s.set.Clear()
		s.logger.Warnf("Selection out of sync on %s; cleared", name)
		return schema.TableDefinition{}, ErrSelectionOutOfSync
	}
	return def, nil
}

// LoadResult reports what a Load restored.
type LoadResult struct {
	Loaded  int
	Missing []string
}

// PendingLoad holds resolved tables that have not replaced the working set
// yet.
type PendingLoad struct {
	tables  []schema.TableDefinition
	missing []string
}

// Load replaces the working set with the tables listed in a selection file.
// The current set is untouched unless the file parses and every lookup
// succeeds.
func (s *Session) Load(ctx context.Context, path string) (*LoadResult, error) {
	pending, err := s.PrepareLoad(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Apply(pending), nil
}

func (s *Session) LoadEntries(ctx context.Context, entries []schema.SelectionEntry) (*LoadResult, error) {
	pending, err := s.Prepare(ctx, entries)
	if err != nil {
		return nil, err
	}
	return s.Apply(pending), nil
}

// PrepareLoad reads and resolves a selection file. Like Lookup it leaves
// the working set alone.
func (s *Session) PrepareLoad(ctx context.Context, path string) (*PendingLoad, error) {
	entries, err := selection.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Prepare(ctx, entries)
}

func (s *Session) Prepare(ctx context.Context, entries []schema.SelectionEntry) (*PendingLoad, error) {
	res, err := s.resolver.Resolve(ctx, entries)
	if err != nil {
		return nil, err
	}
	return &PendingLoad{tables: inRequestOrder(entries, res.Definitions), missing: res.Missing}, nil
}

// Apply swaps the prepared tables into the working set.
func (s *Session) Apply(pending *PendingLoad) *LoadResult {
	s.set.ReplaceAll(pending.tables)
	s.logger.Infof("Loaded %d tables", s.set.Len())
	return &LoadResult{Loaded: s.set.Len(), Missing: pending.missing}
}

// Save writes the working set as a selection file.
func (s *Session) Save(path string) error {
	if err := selection.SaveFile(path, s.set.Entries()); err != nil {
		return err
	}
	s.logger.Infof("Saved %d tables to %s", s.set.Len(), path)
	return nil
}

// ExportRequest describes one document export.
type ExportRequest struct {
	Format    document.Format
	Path      string
	CoverPage bool
	Title     string
	OnTable   func(name string)
}

// Export renders the working set and writes it atomically to req.Path.
func (s *Session) Export(req ExportRequest) (*fileio.Metadata, error) {
	if s.set.Len() == 0 {
		return nil, apperrors.New(apperrors.ErrTypeValidation, "there are no tables to export").
			WithSuggestion("Add tables or load a selection file first")
	}
	if strings.TrimSpace(req.Path) == "" {
		return nil, apperrors.New(apperrors.ErrTypeValidation, "export path is empty")
	}

	renderer, err := document.NewRenderer(req.Format)
	if err != nil {
		return nil, err
	}

	started := s.now()
	data, err := renderer.Render(s.set.Tables(), document.Options{
		CoverPage:   req.CoverPage,
		Title:       req.Title,
		GeneratedAt: started,
		OnTable:     req.OnTable,
	})
	if err != nil {
		return nil, err
	}

	if err := fileio.WriteAtomic(req.Path, data, 0o644); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeExport, "failed to write document")
	}

	meta, err := fileio.BuildMetadata(req.Path, started)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeExport, "failed to inspect exported document")
	}

	s.logger.Infof("Exported %d tables to %s", s.set.Len(), req.Path)
	return meta, nil
}

// DefaultExportPath places the dated default file name under dir.
func (s *Session) DefaultExportPath(dir string, format document.Format) string {
	return filepath.Join(dir, document.DefaultFileName(format, s.now()))
}

// inRequestOrder orders defs the way their names appear in entries, so a
// loaded selection keeps its saved order.
func inRequestOrder(entries []schema.SelectionEntry, defs []schema.TableDefinition) []schema.TableDefinition {
	byName := make(map[string]schema.TableDefinition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}

	ordered := make([]schema.TableDefinition, 0, len(defs))
	used := make(map[string]bool, len(defs))
	for _, entry := range entries {
		name := entry.Name()
		def, ok := byName[name]
		if !ok || used[def.Name] {
			ok = false
			for _, candidate := range defs {
				if !used[candidate.Name] && strings.EqualFold(candidate.Name, name) {
					def, ok = candidate, true
					break
				}
			}
		}
		if !ok {
			continue
		}
		used[def.Name] = true
		ordered = append(ordered, def)
	}

	for _, def := range defs {
		if !used[def.Name] {
			ordered = append(ordered, def)
		}
	}
	return ordered
}
