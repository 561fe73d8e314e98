package schema

import "sort"

// Schema is a snapshot of table names in declaration order together with the
// child -> parents foreign-key relation between them.
type Schema struct {
	tables []string
	index  map[string]int
	deps   map[string]map[string]struct{}
}

func newSchema() *Schema {
	return &Schema{
		index: make(map[string]int),
		deps:  make(map[string]map[string]struct{}),
	}
}

// New builds a schema from plain values. Duplicate table names collapse into
// the first occurrence. Dependencies may name tables outside the list; those
// are kept but never influence ordering.
func New(tables []string, deps map[string][]string) *Schema {
	s := newSchema()
	for _, t := range tables {
		s.addTable(t)
	}
	for child, parents := range deps {
		for _, p := range parents {
			s.addDependency(child, p)
		}
	}
	return s
}

func (s *Schema) addTable(name string) {
	if _, ok := s.index[name]; ok {
		return
	}
	s.index[name] = len(s.tables)
	s.tables = append(s.tables, name)
}

func (s *Schema) addDependency(child, parent string) {
	set, ok := s.deps[child]
	if !ok {
		set = make(map[string]struct{})
		s.deps[child] = set
	}
	set[parent] = struct{}{}
}

// Len returns the number of declared tables.
func (s *Schema) Len() int {
	return len(s.tables)
}

// TableList returns table names in declaration order.
func (s *Schema) TableList() []string {
	out := make([]string, len(s.tables))
	copy(out, s.tables)
	return out
}

// Dependencies returns the parents referenced by table. Declared parents come
// first in declaration order, undeclared ones follow alphabetically.
func (s *Schema) Dependencies(table string) []string {
	set := s.deps[table]
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		ii, iok := s.index[out[i]]
		ji, jok := s.index[out[j]]
		switch {
		case iok && jok:
			return ii < ji
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// DependencyMap returns a copy of the child -> parents relation.
func (s *Schema) DependencyMap() map[string][]string {
	out := make(map[string][]string, len(s.deps))
	for child := range s.deps {
		out[child] = s.Dependencies(child)
	}
	return out
}

// DeletionOrder returns every table with dependents ahead of the tables they
// reference.
func (s *Schema) DeletionOrder() []string {
	return s.Deletion().Order
}

// RestoreOrder returns every table with referenced tables ahead of their
// dependents, the order in which rows can be inserted again.
func (s *Schema) RestoreOrder() []string {
	return s.Restore().Order
}

// Deletion computes the deletion order and reports whether a reference cycle
// forced the fallback.
func (s *Schema) Deletion() Ordering {
	return s.deletionOrder()
}

// Restore computes the insertion order and reports whether a reference cycle
// forced the fallback.
func (s *Schema) Restore() Ordering {
	return s.restoreOrder()
}
