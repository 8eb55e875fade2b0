package planner

import (
	"fmt"
	"math"
)

// Heuristic returns the estimated cost from one cell to another
type Heuristic func(from, to Cell) float64

// ManhattanDistance is the L1 distance between two cells
func ManhattanDistance(from, to Cell) float64 {
	return float64(abs(from.Row-to.Row) + abs(from.Col-to.Col))
}

// EuclideanDistance is the straight-line distance between two cells
func EuclideanDistance(from, to Cell) float64 {
	dr := float64(from.Row - to.Row)
	dc := float64(from.Col - to.Col)
	return math.Sqrt(dr*dr + dc*dc)
}

// HeuristicFor returns the heuristic function for a kind
func HeuristicFor(kind HeuristicKind) (Heuristic, error) {
	switch kind {
	case Manhattan:
		return ManhattanDistance, nil
	case Euclidean:
		return EuclideanDistance, nil
	default:
		return nil, fmt.Errorf("%w: unknown heuristic %q", ErrInvalidOption, kind)
	}
}

type offset struct{ dr, dc int }

var (
	// right, down, left, up
	orthogonalOffsets = []offset{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

	// right, left, down, up, then the four diagonals
	allOffsets = []offset{
		{0, 1}, {0, -1}, {1, 0}, {-1, 0},
		{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
	}
)

func neighborOffsets(c Connectivity) []offset {
	if c == EightConnected {
		return allOffsets
	}
	return orthogonalOffsets
}

// EdgeCost returns the cost of stepping from one cell onto an adjacent passable
// cell under the given policy
func EdgeCost(grid GridSource, policy CostPolicy, from, to Cell) float64 {
	switch policy {
	case TerrainMultiplier:
		cost := BaseCost
		if sr, ok := grid.(ShallowReporter); ok && sr.IsShallow(to.Row, to.Col) {
			cost = ShallowCost
		}
		if from.Row != to.Row && from.Col != to.Col {
			cost *= DiagonalFactor
		}
		return cost
	default:
		return 1 / grid.Weight(to.Row, to.Col)
	}
}

// PathCost sums the edge costs along a path. It returns an error when the
// path leaves the grid, steps onto an impassable cell or jumps between
// cells that are not adjacent under the connectivity.
func PathCost(grid GridSource, policy CostPolicy, connectivity Connectivity, path []Cell) (float64, error) {
	total := 0.0
	for i, c := range path {
		if !Passable(grid, c) {
			return 0, fmt.Errorf("path step %d at (%d,%d) is impassable", i, c.Row, c.Col)
		}
		if i == 0 {
			continue
		}
		prev := path[i-1]
		if !adjacent(prev, c, connectivity) {
			return 0, fmt.Errorf("path step %d: (%d,%d) -> (%d,%d) is not a %s-connected move", i, prev.Row, prev.Col, c.Row, c.Col, connectivity)
		}
		total += EdgeCost(grid, policy, prev, c)
	}
	return total, nil
}

func adjacent(a, b Cell, connectivity Connectivity) bool {
	dr, dc := abs(a.Row-b.Row), abs(a.Col-b.Col)
	if connectivity == EightConnected {
		return dr <= 1 && dc <= 1 && dr+dc > 0
	}
	return dr+dc == 1
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
