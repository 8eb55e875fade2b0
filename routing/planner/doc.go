// Package planner provides the route planning core for the ship routing server.
//
// The planner package implements:
//   - Grid models with per-cell traversal weights (weight 0 is impassable)
//   - Edge cost policies (inverse weight, terrain multiplier)
//   - Manhattan and Euclidean heuristics
//   - A* search over 4- or 8-connected neighbors
//   - Step-by-step searches for presenters that animate the exploration
//   - Scenario files describing a grid and the planner knobs
//
// Core Types:
//
// GridSource is the read-only view of a grid consumed by the search. WeightGrid
// and TerrainGrid are the two concrete grids. Planner holds a grid and the
// configured knobs and is safe for concurrent use as long as the grid is not
// mutated. Search owns the transient state of a single search.
//
// Usage:
//
//	grid, err := planner.NewWeightGrid(weights)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	p, err := planner.NewPlanner(grid,
//		planner.WithConnectivity(planner.FourConnected),
//		planner.WithHeuristic(planner.Manhattan),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := p.FindPath(ctx, planner.Cell{Row: 0, Col: 0}, planner.Cell{Row: 4, Col: 4})
//	if errors.Is(err, planner.ErrUnreachable) {
//		// no path found
//	}
//
// Open Set Ordering:
//
// The open set is ordered by f = g + h. Ties are broken by the lower h, then by
// the lower linear index (row*width+col), so equal-cost searches always return
// the same path.
package planner
