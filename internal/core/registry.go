package core

// registry.go holds the immutable table registry.
//
// The registry is built once at startup from a fixed list of descriptors and
// passed explicitly to every component. NewRegistry checks the dependency
// contract up front: a table may only reference tables in the same or a lower
// tier, so walking the registry in tier order always applies parents first.

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MaxTier is the highest dependency tier a table may declare.
const MaxTier = 3

// Registry is an ordered, read-only set of table descriptors.
type Registry struct {
	ordered  []TableDescriptor
	byKey    map[string]int
	byTarget map[string]int
}

// NewRegistry validates descs and returns a registry ordered by tier, keeping
// declaration order within a tier. All problems are reported together.
func NewRegistry(descs ...TableDescriptor) (*Registry, error) {
	var errs []string

	byKey := make(map[string]int, len(descs))
	byTarget := make(map[string]int, len(descs))
	for i, d := range descs {
		if d.Key == "" {
			errs = append(errs, fmt.Sprintf("descriptor %d: key is required", i))
		} else if _, dup := byKey[d.Key]; dup {
			errs = append(errs, fmt.Sprintf("%s: duplicate key", d.Key))
		} else {
			byKey[d.Key] = i
		}

		if d.TargetTable == "" {
			errs = append(errs, fmt.Sprintf("%s: target table is required", d.Key))
		} else if _, dup := byTarget[d.TargetTable]; dup {
			errs = append(errs, fmt.Sprintf("%s: duplicate target table %q", d.Key, d.TargetTable))
		} else {
			byTarget[d.TargetTable] = i
		}

		if d.Tier < 0 || d.Tier > MaxTier {
			errs = append(errs, fmt.Sprintf("%s: tier %d out of range 0..%d", d.Key, d.Tier, MaxTier))
		}
		if d.SelfRefColumn != "" && d.Tier < 1 {
			errs = append(errs, fmt.Sprintf("%s: self-referencing table must be tier >= 1", d.Key))
		}
	}

	for _, d := range descs {
		for _, fk := range d.ForeignKeys {
			idx, ok := byTarget[fk.RefTable]
			if !ok {
				continue
			}
			if ref := descs[idx]; ref.Tier > d.Tier {
				errs = append(errs, fmt.Sprintf("%s: foreign key %s references %s in higher tier %d",
					d.Key, fk.Column, fk.RefTable, ref.Tier))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.New("invalid table registry:\n  - " + strings.Join(errs, "\n  - "))
	}

	ordered := make([]TableDescriptor, len(descs))
	for i, d := range descs {
		d.ForeignKeys = slices.Clone(d.ForeignKeys)
		d.Columns = slices.Clone(d.Columns)
		ordered[i] = d
	}
	slices.SortStableFunc(ordered, func(a, b TableDescriptor) int {
		return a.Tier - b.Tier
	})

	r := &Registry{
		ordered:  ordered,
		byKey:    make(map[string]int, len(ordered)),
		byTarget: make(map[string]int, len(ordered)),
	}
	for i, d := range ordered {
		r.byKey[d.Key] = i
		r.byTarget[d.TargetTable] = i
	}
	return r, nil
}

// ForEachInTierOrder returns the descriptors by ascending tier. The slice is
// a copy and may be modified by the caller.
func (r *Registry) ForEachInTierOrder() []TableDescriptor {
	return slices.Clone(r.ordered)
}

// FindByTargetTable returns the descriptor whose target table is name.
func (r *Registry) FindByTargetTable(name string) (TableDescriptor, bool) {
	i, ok := r.byTarget[name]
	if !ok {
		return TableDescriptor{}, false
	}
	return r.ordered[i], true
}

// Get returns the descriptor registered under key.
func (r *Registry) Get(key string) (TableDescriptor, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return TableDescriptor{}, false
	}
	return r.ordered[i], true
}

// Len returns the number of registered tables.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// TargetTables returns every target table name in tier order.
func (r *Registry) TargetTables() []string {
	names := make([]string, len(r.ordered))
	for i, d := range r.ordered {
		names[i] = d.TargetTable
	}
	return names
}
