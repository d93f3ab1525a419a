package ecs

import (
	"slices"

	"github.com/rs/zerolog"
)

// StoreStats is a snapshot of a store's size.
type StoreStats struct {
	EntityCount    int
	HighWater      uint64
	FreeIds        int
	ComponentTypes int
	GroupCount     int
	Pools          []PoolStats
	Groups         []GroupStats
}

// PoolStats describes one individual component pool.
type PoolStats struct {
	Id    ComponentTypeId
	Name  string
	Count int
}

// GroupStats describes one group store.
type GroupStats struct {
	Id         GroupId
	Components []string
	Count      int
}

// CollectStats gathers entity, pool and group counts.
func (s *Store) CollectStats() StoreStats {
	stats := StoreStats{
		EntityCount: s.signatures.Len(),
		HighWater:   s.entities.highWater(),
		FreeIds:     len(s.entities.freeList),
		GroupCount:  len(s.groups),
	}

	for id, pool := range s.pools {
		if pool == nil {
			continue
		}
		stats.ComponentTypes++
		stats.Pools = append(stats.Pools, PoolStats{
			Id:    ComponentTypeId(id),
			Name:  s.registry.TypeName(ComponentTypeId(id)),
			Count: pool.Len(),
		})
	}

	for id, ms := range s.groups {
		names := make([]string, len(ms.types))
		for i, typeId := range ms.types {
			names[i] = s.registry.TypeName(typeId)
		}
		stats.Groups = append(stats.Groups, GroupStats{
			Id:         id,
			Components: names,
			Count:      ms.Len(),
		})
	}
	slices.SortFunc(stats.Groups, func(a, b GroupStats) int {
		return int(a.Id) - int(b.Id)
	})

	return stats
}

// LogStats writes the store's pool and group breakdown to its logger.
func (s *Store) LogStats(level zerolog.Level) {
	stats := s.CollectStats()

	pools := zerolog.Arr()
	for _, p := range stats.Pools {
		pools = pools.Dict(zerolog.Dict().
			Int("component_id", int(p.Id)).
			Str("component_name", p.Name).
			Int("count", p.Count))
	}

	groups := zerolog.Arr()
	for _, g := range stats.Groups {
		groups = groups.Dict(zerolog.Dict().
			Int("group_id", int(g.Id)).
			Strs("components", g.Components).
			Int("count", g.Count))
	}

	s.logger.WithLevel(level).
		Int("total_entities", stats.EntityCount).
		Int("free_ids", stats.FreeIds).
		Int("total_components", stats.ComponentTypes).
		Array("components", pools).
		Int("total_groups", stats.GroupCount).
		Array("groups", groups).
		Msg("store stats")
}
