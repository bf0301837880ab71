package ecs

import "sort"

// WorldStats is a point-in-time summary of a World.
type WorldStats struct {
	EntityCount      int
	EntityGeneration uint64
	TableCount       int
	ComponentCount   int
	Tables           []TableStats
}

// TableStats describes a single component table.
type TableStats struct {
	Type       string
	Count      int
	Generation uint64
}

// CollectStats gathers entity and per-table statistics. Tables are sorted by
// type name.
func (w *World) CollectStats() *WorldStats {
	stats := &WorldStats{
		EntityCount:      w.entities.Count(),
		EntityGeneration: w.entities.Generation(),
		TableCount:       len(w.ordered),
		Tables:           make([]TableStats, 0, len(w.ordered)),
	}
	for _, table := range w.ordered {
		stats.ComponentCount += table.Len()
		stats.Tables = append(stats.Tables, TableStats{
			Type:       table.Type().String(),
			Count:      table.Len(),
			Generation: table.Generation(),
		})
	}
	sort.Slice(stats.Tables, func(i, j int) bool {
		return stats.Tables[i].Type < stats.Tables[j].Type
	})
	return stats
}
