package ecs

import (
	"reflect"
	"slices"

	"github.com/rotisserie/eris"
)

// Groups pack component types that an entity usually carries together into one
// MultiSparseSet. A group is keyed by its sorted type set, so RegisterGroup2[A, B]
// and RegisterGroup2[B, A] name the same group. An entity is stored in a group
// only while its signature is exactly the group's mask.

// RegisterGroup2 registers the group {A, B}, registering A and B individually if needed.
func RegisterGroup2[A, B any](s *Store) error {
	return s.registerGroup(typesOf2[A, B](), func() error {
		if err := ensureComponent[A](s); err != nil {
			return err
		}
		return ensureComponent[B](s)
	})
}

// RegisterGroup3 registers the group {A, B, C}.
func RegisterGroup3[A, B, C any](s *Store) error {
	return s.registerGroup(typesOf3[A, B, C](), func() error {
		if err := ensureComponent[A](s); err != nil {
			return err
		}
		if err := ensureComponent[B](s); err != nil {
			return err
		}
		return ensureComponent[C](s)
	})
}

// RegisterGroup4 registers the group {A, B, C, D}.
func RegisterGroup4[A, B, C, D any](s *Store) error {
	return s.registerGroup(typesOf4[A, B, C, D](), func() error {
		if err := ensureComponent[A](s); err != nil {
			return err
		}
		if err := ensureComponent[B](s); err != nil {
			return err
		}
		if err := ensureComponent[C](s); err != nil {
			return err
		}
		return ensureComponent[D](s)
	})
}

// AddGroup2 attaches a and b to id in one step.
func AddGroup2[A, B any](s *Store, id EntityId, a A, b B) error {
	ms, ids, sig, err := s.prepareGroupAdd(id, typesOf2[A, B]())
	if err != nil {
		return err
	}
	if sig.IsZero() {
		ca, okA := columnOf[A](ms, ids[0])
		cb, okB := columnOf[B](ms, ids[1])
		if !okA || !okB {
			return s.fail(eris.Wrapf(ErrCorruptState, "group %d columns do not match its types", ms.group))
		}
		return s.insertGroupRow(ms, id, func() {
			ca.data = append(ca.data, a)
			cb.data = append(cb.data, b)
		})
	}
	return s.addGroupIndividually(id, sig, ms, func() error {
		if err := addToPool(s, ids[0], id, a); err != nil {
			return err
		}
		return addToPool(s, ids[1], id, b)
	})
}

// AddGroup3 attaches a, b and c to id in one step.
func AddGroup3[A, B, C any](s *Store, id EntityId, a A, b B, c C) error {
	ms, ids, sig, err := s.prepareGroupAdd(id, typesOf3[A, B, C]())
	if err != nil {
		return err
	}
	if sig.IsZero() {
		ca, okA := columnOf[A](ms, ids[0])
		cb, okB := columnOf[B](ms, ids[1])
		cc, okC := columnOf[C](ms, ids[2])
		if !okA || !okB || !okC {
			return s.fail(eris.Wrapf(ErrCorruptState, "group %d columns do not match its types", ms.group))
		}
		return s.insertGroupRow(ms, id, func() {
			ca.data = append(ca.data, a)
			cb.data = append(cb.data, b)
			cc.data = append(cc.data, c)
		})
	}
	return s.addGroupIndividually(id, sig, ms, func() error {
		if err := addToPool(s, ids[0], id, a); err != nil {
			return err
		}
		if err := addToPool(s, ids[1], id, b); err != nil {
			return err
		}
		return addToPool(s, ids[2], id, c)
	})
}

// AddGroup4 attaches a, b, c and d to id in one step.
func AddGroup4[A, B, C, D any](s *Store, id EntityId, a A, b B, c C, d D) error {
	ms, ids, sig, err := s.prepareGroupAdd(id, typesOf4[A, B, C, D]())
	if err != nil {
		return err
	}
	if sig.IsZero() {
		ca, okA := columnOf[A](ms, ids[0])
		cb, okB := columnOf[B](ms, ids[1])
		cc, okC := columnOf[C](ms, ids[2])
		cd, okD := columnOf[D](ms, ids[3])
		if !okA || !okB || !okC || !okD {
			return s.fail(eris.Wrapf(ErrCorruptState, "group %d columns do not match its types", ms.group))
		}
		return s.insertGroupRow(ms, id, func() {
			ca.data = append(ca.data, a)
			cb.data = append(cb.data, b)
			cc.data = append(cc.data, c)
			cd.data = append(cd.data, d)
		})
	}
	return s.addGroupIndividually(id, sig, ms, func() error {
		if err := addToPool(s, ids[0], id, a); err != nil {
			return err
		}
		if err := addToPool(s, ids[1], id, b); err != nil {
			return err
		}
		if err := addToPool(s, ids[2], id, c); err != nil {
			return err
		}
		return addToPool(s, ids[3], id, d)
	})
}

// GetGroupComponents2 returns id's A and B from the group {A, B}. The entity must
// carry exactly those components.
func GetGroupComponents2[A, B any](s *Store, id EntityId) (*A, *B, error) {
	ms, ids, row, err := s.groupRow(id, typesOf2[A, B]())
	if err != nil {
		return nil, nil, err
	}
	ca, okA := columnOf[A](ms, ids[0])
	cb, okB := columnOf[B](ms, ids[1])
	if !okA || !okB {
		return nil, nil, s.fail(eris.Wrapf(ErrCorruptState, "group %d columns do not match its types", ms.group))
	}
	return &ca.data[row], &cb.data[row], nil
}

// GetGroupComponents3 returns id's A, B and C from the group {A, B, C}.
func GetGroupComponents3[A, B, C any](s *Store, id EntityId) (*A, *B, *C, error) {
	ms, ids, row, err := s.groupRow(id, typesOf3[A, B, C]())
	if err != nil {
		return nil, nil, nil, err
	}
	ca, okA := columnOf[A](ms, ids[0])
	cb, okB := columnOf[B](ms, ids[1])
	cc, okC := columnOf[C](ms, ids[2])
	if !okA || !okB || !okC {
		return nil, nil, nil, s.fail(eris.Wrapf(ErrCorruptState, "group %d columns do not match its types", ms.group))
	}
	return &ca.data[row], &cb.data[row], &cc.data[row], nil
}

// GetGroupComponents4 returns id's A, B, C and D from the group {A, B, C, D}.
func GetGroupComponents4[A, B, C, D any](s *Store, id EntityId) (*A, *B, *C, *D, error) {
	ms, ids, row, err := s.groupRow(id, typesOf4[A, B, C, D]())
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ca, okA := columnOf[A](ms, ids[0])
	cb, okB := columnOf[B](ms, ids[1])
	cc, okC := columnOf[C](ms, ids[2])
	cd, okD := columnOf[D](ms, ids[3])
	if !okA || !okB || !okC || !okD {
		return nil, nil, nil, nil, s.fail(eris.Wrapf(ErrCorruptState, "group %d columns do not match its types", ms.group))
	}
	return &ca.data[row], &cb.data[row], &cc.data[row], &cd.data[row], nil
}

// Group returns the store of a registered group, or nil.
func (s *Store) Group(id GroupId) *MultiSparseSet {
	return s.groups[id]
}

func (s *Store) registerGroup(types []reflect.Type, ensure func() error) error {
	if err := s.checkMutable(); err != nil {
		return err
	}
	ids := make([]ComponentTypeId, len(types))
	for i, t := range types {
		ids[i] = s.registry.TypeOf(t)
	}
	if len(canonicalTypeSet(ids)) < 2 {
		return eris.Wrapf(ErrInvalidGroup, "types %v", types)
	}

	groupId := s.registry.GroupIdFor(ids)
	if s.groups[groupId] != nil {
		return eris.Wrapf(ErrAlreadyRegistered, "group %v", types)
	}
	// Check the whole set first so a rejected group registers none of its members.
	for i, typeId := range ids {
		if int(typeId) >= s.opts.MaxComponentTypes {
			return eris.Wrapf(ErrCapacityExceeded, "group %v: component %s over the limit of %d component types",
				types, types[i], s.opts.MaxComponentTypes)
		}
	}
	if err := ensure(); err != nil {
		return err
	}
	return s.installGroup(groupId)
}

// installGroup creates the group's store and moves in every entity whose
// signature already equals the group mask.
func (s *Store) installGroup(groupId GroupId) error {
	types := s.registry.GroupTypes(groupId)
	pools := make([]iComponentStorage, len(types))
	for i, typeId := range types {
		pools[i] = s.pool(typeId)
	}
	ms := newMultiSparseSet(groupId, types, pools)
	s.groups[groupId] = ms
	s.groupByMask[ms.mask] = ms

	driver := smallestPool(pools)
	candidates := slices.Clone(driver.Entities())
	adopted := 0
	for _, id := range candidates {
		sig, ok := s.signatures.Get(id)
		if !ok || sig != ms.mask {
			continue
		}
		if err := ms.absorb(id, pools); err != nil {
			return s.fail(err)
		}
		adopted++
	}

	names := make([]string, len(types))
	for i, typeId := range types {
		names[i] = s.registry.TypeName(typeId)
	}
	s.logger.Debug().Int("group_id", int(groupId)).Strs("components", names).Int("adopted", adopted).
		Msg("registered group")
	return nil
}

// lookupGroup finds the registered group for the set of types.
func (s *Store) lookupGroup(types []reflect.Type) (*MultiSparseSet, []ComponentTypeId, error) {
	ids := make([]ComponentTypeId, len(types))
	for i, t := range types {
		id, ok := s.registry.Lookup(t)
		if !ok {
			return nil, nil, eris.Wrapf(ErrUnregisteredGroup, "group %v", types)
		}
		ids[i] = id
	}
	groupId, ok := s.registry.LookupGroup(ids)
	if !ok || s.groups[groupId] == nil {
		return nil, nil, eris.Wrapf(ErrUnregisteredGroup, "group %v", types)
	}
	return s.groups[groupId], ids, nil
}

func (s *Store) groupRow(id EntityId, types []reflect.Type) (*MultiSparseSet, []ComponentTypeId, int, error) {
	ms, ids, err := s.lookupGroup(types)
	if err != nil {
		return nil, nil, 0, err
	}
	sig, err := s.signature(id)
	if err != nil {
		return nil, nil, 0, err
	}
	if sig != ms.mask {
		return nil, nil, 0, eris.Wrapf(ErrSignatureMismatch, "entity %d carries %d components, group %d has %d",
			id, sig.Count(), ms.group, ms.mask.Count())
	}
	row, err := ms.row(id)
	if err != nil {
		return nil, nil, 0, s.fail(eris.Wrapf(ErrCorruptState, "entity %d: %v", id, err))
	}
	return ms, ids, row, nil
}

func (s *Store) prepareGroupAdd(id EntityId, types []reflect.Type) (*MultiSparseSet, []ComponentTypeId, Signature, error) {
	if err := s.checkMutable(); err != nil {
		return nil, nil, Signature{}, err
	}
	sig, err := s.signature(id)
	if err != nil {
		return nil, nil, Signature{}, err
	}
	ms, ids, err := s.lookupGroup(types)
	if err != nil {
		return nil, nil, Signature{}, err
	}
	for _, typeId := range ids {
		if sig.Has(typeId) {
			return nil, nil, Signature{}, eris.Wrapf(ErrDuplicateComponent, "entity %d already has %s",
				id, s.registry.TypeName(typeId))
		}
	}
	return ms, ids, sig, nil
}

// insertGroupRow writes a full row straight into ms for an entity with no components.
func (s *Store) insertGroupRow(ms *MultiSparseSet, id EntityId, fill func()) error {
	if err := ms.insertRow(id, fill); err != nil {
		return s.fail(eris.Wrapf(ErrCorruptState, "entity %d: %v", id, err))
	}
	s.signatures.Set(id, ms.mask)
	return nil
}

// addGroupIndividually adds a group's components to an entity that already
// carries other components, then settles it into whichever group now matches.
func (s *Store) addGroupIndividually(id EntityId, sig Signature, ms *MultiSparseSet, add func() error) error {
	if err := s.leaveGroup(id, sig); err != nil {
		return err
	}
	if err := add(); err != nil {
		return s.fail(eris.Wrapf(ErrCorruptState, "entity %d: %v", id, err))
	}
	return s.transition(id, sig.Or(ms.mask))
}

func addToPool[T any](s *Store, typeId ComponentTypeId, id EntityId, value T) error {
	set, ok := s.pool(typeId).(*SparseSet[T])
	if !ok {
		return eris.Wrapf(ErrUnregisteredType, "component %s", s.registry.TypeName(typeId))
	}
	return set.Add(id, value)
}

func smallestPool(pools []iComponentStorage) iComponentStorage {
	smallest := pools[0]
	for _, pool := range pools[1:] {
		if pool.Len() < smallest.Len() {
			smallest = pool
		}
	}
	return smallest
}

func typesOf2[A, B any]() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()}
}

func typesOf3[A, B, C any]() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()}
}

func typesOf4[A, B, C, D any]() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C](), reflect.TypeFor[D]()}
}
