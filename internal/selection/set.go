package selection

import (
	"strings"

	"github.com/kadirbelkuyu/tabledef/internal/schema"
)

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeReplaced ChangeKind = "replaced"
	ChangeCleared  ChangeKind = "cleared"
)

// Change describes one completed mutation of a Set.
type Change struct {
	Kind  ChangeKind
	Names []string
	Len   int
}

// Set is the ordered working set of table definitions, unique by name and
// most recently added first. It is not safe for concurrent use.
type Set struct {
	tables    []schema.TableDefinition
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn func(Change)
}

func NewSet() *Set {
	return &Set{}
}

// OnChange registers fn to be called after every mutation. The returned
// func unregisters it.
func (s *Set) OnChange(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	return func() {
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Add replaces any entry with the same name and puts def at the front.
func (s *Set) Add(def schema.TableDefinition) {
	next := make([]schema.TableDefinition, 0, len(s.tables)+1)
	next = append(next, def.Clone())
	for _, existing := range s.tables {
		if existing.Name != def.Name {
			next = append(next, existing)
		}
	}
	s.tables = next
	s.notify(ChangeAdded, []string{def.Name})
}

// Remove deletes the named entries and reports how many were present.
func (s *Set) Remove(names ...string) int {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[name] = struct{}{}
	}

	kept := make([]schema.TableDefinition, 0, len(s.tables))
	var removed []string
	for _, table := range s.tables {
		if _, ok := drop[table.Name]; ok {
			removed = append(removed, table.Name)
			continue
		}
		kept = append(kept, table)
	}

	if len(removed) == 0 {
		return 0
	}
	s.tables = kept
	s.notify(ChangeRemoved, removed)
	return len(removed)
}

// ReplaceAll discards the current contents and stores defs in order. A
// later duplicate of a name is dropped.
func (s *Set) ReplaceAll(defs []schema.TableDefinition) {
	next := make([]schema.TableDefinition, 0, len(defs))
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if _, ok := seen[def.Name]; ok {
			continue
		}
		seen[def.Name] = struct{}{}
		next = append(next, def.Clone())
	}
	s.tables = next
	s.notify(ChangeReplaced, s.Names())
}

func (s *Set) Clear() {
	if len(s.tables) == 0 {
		return
	}
	names := s.Names()
	s.tables = nil
	s.notify(ChangeCleared, names)
}

func (s *Set) Len() int {
	return len(s.tables)
}

func (s *Set) Contains(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Get returns a copy of the entry with exactly this name.
func (s *Set) Get(name string) (schema.TableDefinition, bool) {
	for _, table := range s.tables {
		if table.Name == name {
			return table.Clone(), true
		}
	}
	return schema.TableDefinition{}, false
}

// Find looks a name up ignoring case.
func (s *Set) Find(name string) (schema.TableDefinition, bool) {
	name = strings.TrimSpace(name)
	if def, ok := s.Get(name); ok {
		return def, true
	}
	for _, table := range s.tables {
		if strings.EqualFold(table.Name, name) {
			return table.Clone(), true
		}
	}
	return schema.TableDefinition{}, false
}

// Tables returns copies of all entries in set order.
func (s *Set) Tables() []schema.TableDefinition {
	out := make([]schema.TableDefinition, len(s.tables))
	for i, table := range s.tables {
		out[i] = table.Clone()
	}
	return out
}

func (s *Set) Entries() []schema.SelectionEntry {
	out := make([]schema.SelectionEntry, len(s.tables))
	for i, table := range s.tables {
		out[i] = table.Entry()
	}
	return out
}

func (s *Set) Names() []string {
	out := make([]string, len(s.tables))
	for i, table := range s.tables {
		out[i] = table.Name
	}
	return out
}

func (s *Set) notify(kind ChangeKind, names []string) {
	change := Change{Kind: kind, Names: names, Len: len(s.tables)}
	for _, l := range s.listeners {
		l.fn(change)
	}
}
