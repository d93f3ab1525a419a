package ecs

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// ComponentTypeId identifies one component type within a TypeRegistry.
type ComponentTypeId uint16

// GroupId identifies one canonical set of component types. Group ids are numbered
// independently of component type ids.
type GroupId uint16

// TypeRegistry hands out stable ids for component types and component type sets.
// Each Store holds its own registry (or one shared explicitly), so independent
// stores never share numbering.
type TypeRegistry struct {
	ids    map[reflect.Type]ComponentTypeId
	types  []reflect.Type
	groups map[string]GroupId
	sets   [][]ComponentTypeId
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		ids:    make(map[reflect.Type]ComponentTypeId),
		groups: make(map[string]GroupId),
	}
}

// TypeOf returns the id for t, assigning the next sequential id the first time t is seen.
func (r *TypeRegistry) TypeOf(t reflect.Type) ComponentTypeId {
	if id, ok := r.ids[t]; ok {
		return id
	}
	id := ComponentTypeId(len(r.types))
	r.ids[t] = id
	r.types = append(r.types, t)
	return id
}

// Lookup returns the id for t without assigning one.
func (r *TypeRegistry) Lookup(t reflect.Type) (ComponentTypeId, bool) {
	id, ok := r.ids[t]
	return id, ok
}

// Type returns the Go type registered under id, or nil.
func (r *TypeRegistry) Type(id ComponentTypeId) reflect.Type {
	if int(id) >= len(r.types) {
		return nil
	}
	return r.types[id]
}

// TypeName returns a printable name for id.
func (r *TypeRegistry) TypeName(id ComponentTypeId) string {
	if t := r.Type(id); t != nil {
		return t.String()
	}
	return "#" + strconv.Itoa(int(id))
}

// Len returns the number of component types seen so far.
func (r *TypeRegistry) Len() int {
	return len(r.types)
}

// ComponentTypeOf returns the id for T in r.
func ComponentTypeOf[T any](r *TypeRegistry) ComponentTypeId {
	return r.TypeOf(reflect.TypeFor[T]())
}

// GroupIdFor returns the group id of the set formed by ids. The set is canonicalized
// by sorting, so the same types in any order map to one group id. Duplicates are
// collapsed.
func (r *TypeRegistry) GroupIdFor(ids []ComponentTypeId) GroupId {
	canonical := canonicalTypeSet(ids)
	key := groupKey(canonical)
	if id, ok := r.groups[key]; ok {
		return id
	}
	id := GroupId(len(r.sets))
	r.groups[key] = id
	r.sets = append(r.sets, canonical)
	return id
}

// LookupGroup returns the group id of the set formed by ids without assigning one.
func (r *TypeRegistry) LookupGroup(ids []ComponentTypeId) (GroupId, bool) {
	id, ok := r.groups[groupKey(canonicalTypeSet(ids))]
	return id, ok
}

// GroupTypes returns the canonical component ids of group id.
func (r *TypeRegistry) GroupTypes(id GroupId) []ComponentTypeId {
	if int(id) >= len(r.sets) {
		return nil
	}
	return slices.Clone(r.sets[id])
}

// GroupOf returns the group id for the given Go types, assigning component ids as needed.
func GroupOf(r *TypeRegistry, types ...reflect.Type) GroupId {
	ids := make([]ComponentTypeId, len(types))
	for i, t := range types {
		ids[i] = r.TypeOf(t)
	}
	return r.GroupIdFor(ids)
}

func canonicalTypeSet(ids []ComponentTypeId) []ComponentTypeId {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

func groupKey(ids []ComponentTypeId) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(id)))
	}
	return b.String()
}
