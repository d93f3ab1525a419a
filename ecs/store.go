package ecs

import (
	"errors"
	"reflect"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Store owns the entities of one world together with their component pools.
//
// Each component of an entity lives in exactly one place. When the entity's
// signature equals the mask of a registered group, all of its components live in
// that group's MultiSparseSet; otherwise each lives in the SparseSet of its type.
// Adding or removing components moves data between the two so this always holds.
//
// A Store is not safe for concurrent use.
type Store struct {
	registry   *TypeRegistry
	opts       Options
	logger     zerolog.Logger
	entities   *entityAllocator
	signatures *SignatureTable

	pools       []iComponentStorage
	groups      map[GroupId]*MultiSparseSet
	groupByMask map[Signature]*MultiSparseSet

	iterating int
	corrupt   error
}

// NewStore creates a store that numbers its component types with registry. A nil
// registry gets a fresh one.
func NewStore(registry *TypeRegistry, opts ...StoreOption) *Store {
	if registry == nil {
		registry = NewTypeRegistry()
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.normalize()

	return &Store{
		registry:    registry,
		opts:        o,
		logger:      o.Logger,
		entities:    newEntityAllocator(o.MaxEntities),
		signatures:  newSignatureTable(256),
		groups:      make(map[GroupId]*MultiSparseSet),
		groupByMask: make(map[Signature]*MultiSparseSet),
	}
}

// Registry returns the type registry numbering this store's components.
func (s *Store) Registry() *TypeRegistry {
	return s.registry
}

// Options returns the limits the store was built with.
func (s *Store) Options() Options {
	return s.opts
}

// CreateEntity allocates an id with an empty signature.
func (s *Store) CreateEntity() (EntityId, error) {
	if s.corrupt != nil {
		return InvalidEntity, s.corrupt
	}
	id, err := s.entities.create()
	if err != nil {
		return InvalidEntity, err
	}
	s.signatures.Init(id)
	return id, nil
}

// DestroyEntity strips every component from id and recycles the id. Destroying an
// unknown entity logs a warning and does nothing.
func (s *Store) DestroyEntity(id EntityId) error {
	if err := s.checkMutable(); err != nil {
		return err
	}
	sig, ok := s.signatures.Get(id)
	if !ok {
		s.logger.Warn().Uint64("entity", uint64(id)).Msg("destroy of unknown entity ignored")
		return nil
	}

	if ms := s.groupByMask[sig]; ms != nil {
		if !ms.Remove(id) {
			return s.fail(eris.Wrapf(ErrCorruptState, "entity %d missing from group %d", id, ms.group))
		}
	} else {
		for _, typeId := range sig.Ids() {
			pool := s.pool(typeId)
			if pool == nil || !pool.RemoveEntity(id) {
				return s.fail(eris.Wrapf(ErrCorruptState, "entity %d signature has %s but pool does not",
					id, s.registry.TypeName(typeId)))
			}
		}
	}

	s.signatures.Delete(id)
	s.entities.destroy(id)
	return nil
}

// Alive reports whether id refers to a live entity.
func (s *Store) Alive(id EntityId) bool {
	return s.signatures.Has(id)
}

// Signature returns the component signature of a live entity.
func (s *Store) Signature(id EntityId) (Signature, bool) {
	return s.signatures.Get(id)
}

// EntityCount returns the number of live entities.
func (s *Store) EntityCount() int {
	return s.signatures.Len()
}

// Corrupt returns the error that poisoned the store, if any.
func (s *Store) Corrupt() error {
	return s.corrupt
}

// RegisterComponent allocates the pool for T.
func RegisterComponent[T any](s *Store) error {
	typeId := ComponentTypeOf[T](s.registry)
	return s.registerPool(typeId, func() iComponentStorage {
		return NewSparseSet[T](typeId)
	})
}

// ensureComponent registers T unless it already has a pool.
func ensureComponent[T any](s *Store) error {
	typeId := ComponentTypeOf[T](s.registry)
	if s.pool(typeId) != nil {
		return nil
	}
	return RegisterComponent[T](s)
}

func (s *Store) registerPool(typeId ComponentTypeId, factory func() iComponentStorage) error {
	name := s.registry.TypeName(typeId)
	if int(typeId) >= s.opts.MaxComponentTypes {
		return eris.Wrapf(ErrCapacityExceeded, "component %s: limit of %d component types", name, s.opts.MaxComponentTypes)
	}
	if s.pool(typeId) != nil {
		return eris.Wrapf(ErrAlreadyRegistered, "component %s", name)
	}
	for len(s.pools) <= int(typeId) {
		s.pools = append(s.pools, nil)
	}
	s.pools[typeId] = factory()

	s.logger.Debug().Str("component", name).Int("component_id", int(typeId)).Msg("registered component")
	return nil
}

// AddComponent attaches value to id.
func AddComponent[T any](s *Store, id EntityId, value T) error {
	if err := s.checkMutable(); err != nil {
		return err
	}
	sig, err := s.signature(id)
	if err != nil {
		return err
	}
	set, typeId, err := poolFor[T](s)
	if err != nil {
		return err
	}
	if sig.Has(typeId) {
		return eris.Wrapf(ErrDuplicateComponent, "entity %d already has %s", id, s.registry.TypeName(typeId))
	}

	if err := s.leaveGroup(id, sig); err != nil {
		return err
	}
	if err := set.Add(id, value); err != nil {
		return s.fail(eris.Wrapf(ErrCorruptState, "entity %d: %v", id, err))
	}
	return s.transition(id, sig.With(typeId))
}

// RemoveComponent detaches T from id. Removing a component the entity does not
// have, or from an unknown entity, is a no-op.
func RemoveComponent[T any](s *Store, id EntityId) error {
	if err := s.checkMutable(); err != nil {
		return err
	}
	sig, ok := s.signatures.Get(id)
	if !ok {
		return nil
	}
	typeId, ok := s.registry.Lookup(reflect.TypeFor[T]())
	if !ok {
		return nil
	}
	// The registry may number types this store never gave a pool.
	pool := s.pool(typeId)
	if pool == nil || !sig.Has(typeId) {
		return nil
	}

	if err := s.leaveGroup(id, sig); err != nil {
		return err
	}
	if !pool.RemoveEntity(id) {
		return s.fail(eris.Wrapf(ErrCorruptState, "entity %d signature has %s but pool does not",
			id, s.registry.TypeName(typeId)))
	}
	return s.transition(id, sig.Without(typeId))
}

// GetComponent returns a pointer to id's T. The pointer is valid until the next
// structural change to the pool holding it; prefer ReadComponent for values kept
// across calls.
func GetComponent[T any](s *Store, id EntityId) (*T, error) {
	sig, err := s.signature(id)
	if err != nil {
		return nil, err
	}
	set, typeId, err := poolFor[T](s)
	if err != nil {
		return nil, err
	}
	if !sig.Has(typeId) {
		return nil, eris.Wrapf(ErrNotFound, "entity %d has no %s", id, s.registry.TypeName(typeId))
	}

	if ms := s.groupByMask[sig]; ms != nil {
		col, ok := columnOf[T](ms, typeId)
		if !ok {
			return nil, s.fail(eris.Wrapf(ErrCorruptState, "group %d has no column for %s", ms.group, s.registry.TypeName(typeId)))
		}
		row, err := ms.row(id)
		if err != nil {
			return nil, s.fail(eris.Wrapf(ErrCorruptState, "entity %d: %v", id, err))
		}
		return &col.data[row], nil
	}

	ptr := set.ptr(id)
	if ptr == nil {
		return nil, s.fail(eris.Wrapf(ErrCorruptState, "entity %d signature has %s but pool does not",
			id, s.registry.TypeName(typeId)))
	}
	return ptr, nil
}

// ReadComponent returns a copy of id's T.
func ReadComponent[T any](s *Store, id EntityId) (T, error) {
	ptr, err := GetComponent[T](s, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return *ptr, nil
}

// SetComponent replaces the value of a component id already has.
func SetComponent[T any](s *Store, id EntityId, value T) error {
	if s.corrupt != nil {
		return s.corrupt
	}
	ptr, err := GetComponent[T](s, id)
	if err != nil {
		return err
	}
	*ptr = value
	return nil
}

// HasComponent reports whether id currently carries T.
func HasComponent[T any](s *Store, id EntityId) bool {
	sig, ok := s.signatures.Get(id)
	if !ok {
		return false
	}
	typeId, ok := s.registry.Lookup(reflect.TypeFor[T]())
	return ok && s.pool(typeId) != nil && sig.Has(typeId)
}

func poolFor[T any](s *Store) (*SparseSet[T], ComponentTypeId, error) {
	t := reflect.TypeFor[T]()
	typeId, ok := s.registry.Lookup(t)
	if !ok || s.pool(typeId) == nil {
		return nil, 0, eris.Wrapf(ErrUnregisteredType, "component %s", t)
	}
	set, ok := s.pool(typeId).(*SparseSet[T])
	if !ok {
		return nil, 0, eris.Wrapf(ErrUnregisteredType, "component %s has a foreign pool", t)
	}
	return set, typeId, nil
}

func (s *Store) pool(id ComponentTypeId) iComponentStorage {
	if int(id) >= len(s.pools) {
		return nil
	}
	return s.pools[id]
}

func (s *Store) signature(id EntityId) (Signature, error) {
	sig, ok := s.signatures.Get(id)
	if !ok {
		return Signature{}, eris.Wrapf(ErrUnknownEntity, "entity %d", id)
	}
	return sig, nil
}

// groupPools returns the individual pools of ms's types in canonical order.
func (s *Store) groupPools(ms *MultiSparseSet) []iComponentStorage {
	pools := make([]iComponentStorage, len(ms.types))
	for i, typeId := range ms.types {
		pools[i] = s.pool(typeId)
	}
	return pools
}

// leaveGroup moves id's components back into their individual pools if sig puts
// id in a group.
func (s *Store) leaveGroup(id EntityId, sig Signature) error {
	ms := s.groupByMask[sig]
	if ms == nil {
		return nil
	}
	if err := ms.release(id, s.groupPools(ms)); err != nil {
		return s.fail(err)
	}
	return nil
}

// transition records sig for id and moves its components into the group whose
// mask sig matches, if there is one. The components must be in their individual pools.
func (s *Store) transition(id EntityId, sig Signature) error {
	s.signatures.Set(id, sig)
	ms := s.groupByMask[sig]
	if ms == nil {
		return nil
	}
	if err := ms.absorb(id, s.groupPools(ms)); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Store) checkMutable() error {
	if s.corrupt != nil {
		return s.corrupt
	}
	if s.iterating > 0 {
		return ErrIterationInProgress
	}
	return nil
}

// fail poisons the store when err reports corruption and returns err.
func (s *Store) fail(err error) error {
	if errors.Is(err, ErrCorruptState) {
		s.logger.Error().Err(err).Msg("store state is corrupt")
		if s.corrupt == nil {
			s.corrupt = err
		}
	}
	return err
}
