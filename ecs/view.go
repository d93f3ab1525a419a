package ecs

import (
	"iter"
	"reflect"
	"slices"

	"github.com/rotisserie/eris"
)

// viewBase is the type-erased part of a view: the individual pools of its types,
// in type-parameter order, and the store they belong to.
//
// Entities whose components sit in individual pools are found by walking the
// smallest bound pool and checking the others. Entities stored in a group are found
// by walking every group whose mask covers the view's types.
type viewBase struct {
	store *Store
	types []ComponentTypeId
	mask  Signature
	pools []iComponentStorage
}

func newViewBase(s *Store, types ...reflect.Type) (viewBase, error) {
	v := viewBase{
		store: s,
		types: make([]ComponentTypeId, len(types)),
		pools: make([]iComponentStorage, len(types)),
	}
	for i, t := range types {
		id, ok := s.registry.Lookup(t)
		if !ok || s.pool(id) == nil {
			return viewBase{}, eris.Wrapf(ErrUnregisteredType, "component %s", t)
		}
		v.types[i] = id
		v.pools[i] = s.pool(id)
		v.mask.Set(id)
	}
	return v, nil
}

// driver returns the bound pool with the fewest entities.
func (v *viewBase) driver() iComponentStorage {
	return smallestPool(v.pools)
}

// groups returns the registered groups holding every type of the view, by group id.
func (v *viewBase) groups() []*MultiSparseSet {
	var out []*MultiSparseSet
	for _, ms := range v.store.groups {
		if ms.mask.ContainsAll(v.mask) {
			out = append(out, ms)
		}
	}
	slices.SortFunc(out, func(a, b *MultiSparseSet) int {
		return int(a.group) - int(b.group)
	})
	return out
}

// each calls pooled for every matching entity stored in individual pools and, for
// every matching group, calls grouped once to obtain a per-row callback. Either
// callback returning false stops the walk. The store rejects structural mutations
// until each returns.
func (v *viewBase) each(pooled func(EntityId) bool, grouped func(*MultiSparseSet) func(EntityId, int) bool) {
	v.store.iterating++
	defer func() { v.store.iterating-- }()

	driver := v.driver()
outer:
	for _, id := range driver.Entities() {
		for _, pool := range v.pools {
			if pool != driver && !pool.Contains(id) {
				continue outer
			}
		}
		if !pooled(id) {
			return
		}
	}

	for _, ms := range v.groups() {
		fn := grouped(ms)
		for row, id := range ms.Entities() {
			if !fn(id, row) {
				return
			}
		}
	}
}

func (v *viewBase) count() int {
	n := 0
	v.each(func(EntityId) bool {
		n++
		return true
	}, func(*MultiSparseSet) func(EntityId, int) bool {
		return func(EntityId, int) bool {
			n++
			return true
		}
	})
	return n
}

func (v *viewBase) entities() []EntityId {
	var out []EntityId
	v.each(func(id EntityId) bool {
		out = append(out, id)
		return true
	}, func(*MultiSparseSet) func(EntityId, int) bool {
		return func(id EntityId, _ int) bool {
			out = append(out, id)
			return true
		}
	})
	return out
}

// View1 iterates every entity carrying A.
type View1[A any] struct {
	base viewBase
	a    *SparseSet[A]
}

// NewView1 binds a view to the pool of A.
func NewView1[A any](s *Store) (*View1[A], error) {
	base, err := newViewBase(s, reflect.TypeFor[A]())
	if err != nil {
		return nil, err
	}
	return &View1[A]{
		base: base,
		a:    base.pools[0].(*SparseSet[A]),
	}, nil
}

// Each calls fn for every entity with A. Structural mutations of the store fail
// with ErrIterationInProgress while fn runs; queue them on a Commands buffer.
func (v *View1[A]) Each(fn func(EntityId, *A)) {
	for id, a := range v.Iter() {
		fn(id, a)
	}
}

// Iter returns an iterator over entities with A and a pointer to their A.
func (v *View1[A]) Iter() iter.Seq2[EntityId, *A] {
	return func(yield func(EntityId, *A) bool) {
		v.base.each(func(id EntityId) bool {
			return yield(id, v.a.ptr(id))
		}, func(ms *MultiSparseSet) func(EntityId, int) bool {
			ca, _ := columnOf[A](ms, v.base.types[0])
			return func(id EntityId, row int) bool {
				return yield(id, &ca.data[row])
			}
		})
	}
}

// Len counts the matching entities.
func (v *View1[A]) Len() int {
	return v.base.count()
}

// Entities returns a copy of the matching ids.
func (v *View1[A]) Entities() []EntityId {
	return v.base.entities()
}

// View2 iterates every entity carrying both A and B.
type View2[A, B any] struct {
	base viewBase
	a    *SparseSet[A]
	b    *SparseSet[B]
}

// NewView2 binds a view to the pools of A and B.
func NewView2[A, B any](s *Store) (*View2[A, B], error) {
	base, err := newViewBase(s, reflect.TypeFor[A](), reflect.TypeFor[B]())
	if err != nil {
		return nil, err
	}
	return &View2[A, B]{
		base: base,
		a:    base.pools[0].(*SparseSet[A]),
		b:    base.pools[1].(*SparseSet[B]),
	}, nil
}

// Each calls fn for every entity with A and B, passing pointers in type-parameter order.
func (v *View2[A, B]) Each(fn func(EntityId, *A, *B)) {
	v.base.each(func(id EntityId) bool {
		fn(id, v.a.ptr(id), v.b.ptr(id))
		return true
	}, func(ms *MultiSparseSet) func(EntityId, int) bool {
		ca, _ := columnOf[A](ms, v.base.types[0])
		cb, _ := columnOf[B](ms, v.base.types[1])
		return func(id EntityId, row int) bool {
			fn(id, &ca.data[row], &cb.data[row])
			return true
		}
	})
}

func (v *View2[A, B]) Len() int {
	return v.base.count()
}

func (v *View2[A, B]) Entities() []EntityId {
	return v.base.entities()
}

// View3 iterates every entity carrying A, B and C.
type View3[A, B, C any] struct {
	base viewBase
	a    *SparseSet[A]
	b    *SparseSet[B]
	c    *SparseSet[C]
}

// NewView3 binds a view to the pools of A, B and C.
func NewView3[A, B, C any](s *Store) (*View3[A, B, C], error) {
	base, err := newViewBase(s, reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]())
	if err != nil {
		return nil, err
	}
	return &View3[A, B, C]{
		base: base,
		a:    base.pools[0].(*SparseSet[A]),
		b:    base.pools[1].(*SparseSet[B]),
		c:    base.pools[2].(*SparseSet[C]),
	}, nil
}

func (v *View3[A, B, C]) Each(fn func(EntityId, *A, *B, *C)) {
	v.base.each(func(id EntityId) bool {
		fn(id, v.a.ptr(id), v.b.ptr(id), v.c.ptr(id))
		return true
	}, func(ms *MultiSparseSet) func(EntityId, int) bool {
		ca, _ := columnOf[A](ms, v.base.types[0])
		cb, _ := columnOf[B](ms, v.base.types[1])
		cc, _ := columnOf[C](ms, v.base.types[2])
		return func(id EntityId, row int) bool {
			fn(id, &ca.data[row], &cb.data[row], &cc.data[row])
			return true
		}
	})
}

func (v *View3[A, B, C]) Len() int {
	return v.base.count()
}

func (v *View3[A, B, C]) Entities() []EntityId {
	return v.base.entities()
}

// View4 iterates every entity carrying A, B, C and D.
type View4[A, B, C, D any] struct {
	base viewBase
	a    *SparseSet[A]
	b    *SparseSet[B]
	c    *SparseSet[C]
	d    *SparseSet[D]
}

// NewView4 binds a view to the pools of A, B, C and D.
func NewView4[A, B, C, D any](s *Store) (*View4[A, B, C, D], error) {
	base, err := newViewBase(s, reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C](), reflect.TypeFor[D]())
	if err != nil {
		return nil, err
	}
	return &View4[A, B, C, D]{
		base: base,
		a:    base.pools[0].(*SparseSet[A]),
		b:    base.pools[1].(*SparseSet[B]),
		c:    base.pools[2].(*SparseSet[C]),
		d:    base.pools[3].(*SparseSet[D]),
	}, nil
}

func (v *View4[A, B, C, D]) Each(fn func(EntityId, *A, *B, *C, *D)) {
	v.base.each(func(id EntityId) bool {
		fn(id, v.a.ptr(id), v.b.ptr(id), v.c.ptr(id), v.d.ptr(id))
		return true
	}, func(ms *MultiSparseSet) func(EntityId, int) bool {
		ca, _ := columnOf[A](ms, v.base.types[0])
		cb, _ := columnOf[B](ms, v.base.types[1])
		cc, _ := columnOf[C](ms, v.base.types[2])
		cd, _ := columnOf[D](ms, v.base.types[3])
		return func(id EntityId, row int) bool {
			fn(id, &ca.data[row], &cb.data[row], &cc.data[row], &cd.data[row])
			return true
		}
	})
}

func (v *View4[A, B, C, D]) Len() int {
	return v.base.count()
}

func (v *View4[A, B, C, D]) Entities() []EntityId {
	return v.base.entities()
}
