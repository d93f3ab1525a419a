package main

import (
	"errors"
	"math/rand"

	"github.com/plus3/sparsecs/ecs"
)

type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Health struct {
	Current, Max int
}

type Lifetime struct {
	Frames int
}

type Team uint8

func registerComponents(store *ecs.Store, grouped bool) error {
	if grouped {
		if err := ecs.RegisterGroup2[Position, Velocity](store); err != nil {
			return err
		}
		if err := ecs.RegisterGroup3[Position, Velocity, Health](store); err != nil {
			return err
		}
	}
	for _, register := range []func(*ecs.Store) error{
		ecs.RegisterComponent[Position],
		ecs.RegisterComponent[Velocity],
		ecs.RegisterComponent[Health],
		ecs.RegisterComponent[Lifetime],
		ecs.RegisterComponent[Team],
	} {
		if err := register(store); err != nil && !errors.Is(err, ecs.ErrAlreadyRegistered) {
			return err
		}
	}
	return nil
}

// simulation holds the random workload: the live entity list and the views its systems walk.
type simulation struct {
	store   *ecs.Store
	rng     *rand.Rand
	grouped bool
	target  int
	live    []ecs.EntityId

	movers *ecs.View2[Position, Velocity]
	damage *ecs.View2[Health, Team]
	ageing *ecs.View1[Lifetime]
}

func newSimulation(store *ecs.Store, rng *rand.Rand, grouped bool, target int) (*simulation, error) {
	movers, err := ecs.NewView2[Position, Velocity](store)
	if err != nil {
		return nil, err
	}
	damage, err := ecs.NewView2[Health, Team](store)
	if err != nil {
		return nil, err
	}
	ageing, err := ecs.NewView1[Lifetime](store)
	if err != nil {
		return nil, err
	}
	return &simulation{
		store:   store,
		rng:     rng,
		grouped: grouped,
		target:  target,
		movers:  movers,
		damage:  damage,
		ageing:  ageing,
	}, nil
}

func (s *simulation) spawn() error {
	id, err := s.store.CreateEntity()
	if err != nil {
		return err
	}
	s.live = append(s.live, id)

	pos := Position{X: s.rng.Float32() * 100, Y: s.rng.Float32() * 100}
	vel := Velocity{DX: s.rng.Float32() - 0.5, DY: s.rng.Float32() - 0.5}
	switch s.rng.Intn(4) {
	case 0:
		if s.grouped {
			return ecs.AddGroup2(s.store, id, pos, vel)
		}
		if err := ecs.AddComponent(s.store, id, pos); err != nil {
			return err
		}
		return ecs.AddComponent(s.store, id, vel)
	case 1:
		hp := Health{Current: 100, Max: 100}
		if s.grouped {
			return ecs.AddGroup3(s.store, id, pos, vel, hp)
		}
		if err := ecs.AddComponent(s.store, id, pos); err != nil {
			return err
		}
		if err := ecs.AddComponent(s.store, id, vel); err != nil {
			return err
		}
		return ecs.AddComponent(s.store, id, hp)
	case 2:
		if err := ecs.AddComponent(s.store, id, pos); err != nil {
			return err
		}
		return ecs.AddComponent(s.store, id, Team(s.rng.Intn(4)))
	default:
		if err := ecs.AddComponent(s.store, id, Lifetime{Frames: 1 + s.rng.Intn(120)}); err != nil {
			return err
		}
		if err := ecs.AddComponent(s.store, id, Health{Current: 50, Max: 100}); err != nil {
			return err
		}
		return ecs.AddComponent(s.store, id, Team(s.rng.Intn(4)))
	}
}

// systems returns the frame phases in execution order.
func (s *simulation) systems(churn int) []System {
	return []System{
		&movementSystem{view: s.movers},
		&damageSystem{view: s.damage},
		&ageingSystem{view: s.ageing},
		&churnSystem{sim: s, n: churn},
	}
}

type movementSystem struct {
	view *ecs.View2[Position, Velocity]
}

func (m *movementSystem) Name() string { return "movement" }

func (m *movementSystem) Execute(frame *UpdateFrame) error {
	m.view.Each(func(_ ecs.EntityId, p *Position, v *Velocity) {
		p.X += v.DX * frame.DeltaTime
		p.Y += v.DY * frame.DeltaTime
	})
	return nil
}

type damageSystem struct {
	view *ecs.View2[Health, Team]
}

func (d *damageSystem) Name() string { return "damage" }

func (d *damageSystem) Execute(frame *UpdateFrame) error {
	d.view.Each(func(id ecs.EntityId, h *Health, t *Team) {
		h.Current -= int(*t) + 1
		if h.Current <= 0 {
			frame.Commands.Destroy(id)
		}
	})
	return nil
}

// ageingSystem turns expired Lifetime entities into movers.
type ageingSystem struct {
	view *ecs.View1[Lifetime]
}

func (a *ageingSystem) Name() string { return "ageing" }

func (a *ageingSystem) Execute(frame *UpdateFrame) error {
	a.view.Each(func(id ecs.EntityId, l *Lifetime) {
		l.Frames--
		if l.Frames <= 0 {
			ecs.QueueRemove[Lifetime](frame.Commands, id)
			ecs.QueueAdd(frame.Commands, id, Velocity{DX: 1})
		}
	})
	return nil
}

type churnSystem struct {
	sim *simulation
	n   int
}

func (c *churnSystem) Name() string { return "churn" }

func (c *churnSystem) Execute(*UpdateFrame) error {
	return c.sim.churn(c.n)
}

func (s *simulation) churn(n int) error {
	alive := s.live[:0]
	for _, id := range s.live {
		if s.store.Alive(id) {
			alive = append(alive, id)
		}
	}
	s.live = alive

	for i := 0; i < n && len(s.live) > 0; i++ {
		j := s.rng.Intn(len(s.live))
		id := s.live[j]
		s.live[j] = s.live[len(s.live)-1]
		s.live = s.live[:len(s.live)-1]

		if s.rng.Intn(2) == 0 {
			if err := ecs.RemoveComponent[Velocity](s.store, id); err != nil {
				return err
			}
			s.live = append(s.live, id)
			continue
		}
		if err := s.store.DestroyEntity(id); err != nil {
			return err
		}
	}

	limit := min(s.target, s.store.Options().MaxEntities)
	for len(s.live) < limit {
		if err := s.spawn(); err != nil {
			return err
		}
	}
	return nil
}
