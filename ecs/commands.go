package ecs

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Commands buffers structural changes so they can be requested while a view is
// iterating and applied afterwards with Flush.
type Commands struct {
	destroys []EntityId
	removes  []entityCommand
	adds     []entityCommand
	defers   []func()
}

type entityCommand struct {
	entity EntityId
	apply  func(*Store) error
}

// NewCommands returns an empty buffer.
func NewCommands() *Commands {
	return &Commands{}
}

// Destroy queues the destruction of entity.
func (c *Commands) Destroy(entity EntityId) {
	c.destroys = append(c.destroys, entity)
}

// Defer queues fn to run after every other queued command.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// QueueAdd queues attaching value to entity.
func QueueAdd[T any](c *Commands, entity EntityId, value T) {
	c.adds = append(c.adds, entityCommand{
		entity: entity,
		apply: func(s *Store) error {
			return AddComponent(s, entity, value)
		},
	})
}

// QueueRemove queues detaching T from entity.
func QueueRemove[T any](c *Commands, entity EntityId) {
	c.removes = append(c.removes, entityCommand{
		entity: entity,
		apply: func(s *Store) error {
			return RemoveComponent[T](s, entity)
		},
	})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.destroys) + len(c.removes) + len(c.adds) + len(c.defers)
}

// Flush applies the queued commands to store, then resets the buffer. Destroys
// run first, then removes, adds and deferred functions. Removes and adds aimed at
// an entity destroyed in the same flush are dropped. Every command is attempted;
// the failures are joined into the returned error.
func (c *Commands) Flush(store *Store) error {
	var errs []error
	destroyed := make(map[EntityId]bool, len(c.destroys))

	for _, id := range c.destroys {
		if destroyed[id] {
			continue
		}
		if err := store.DestroyEntity(id); err != nil {
			errs = append(errs, eris.Wrapf(err, "destroy entity %d", id))
		}
		destroyed[id] = true
	}

	for _, cmds := range [][]entityCommand{c.removes, c.adds} {
		for _, cmd := range cmds {
			if destroyed[cmd.entity] {
				continue
			}
			if err := cmd.apply(store); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, fn := range c.defers {
		fn()
	}

	c.destroys = c.destroys[:0]
	c.removes = c.removes[:0]
	c.adds = c.adds[:0]
	c.defers = c.defers[:0]

	return errors.Join(errs...)
}
