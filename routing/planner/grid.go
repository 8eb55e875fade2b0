package planner

import (
	"fmt"
	"math"
)

// GridSource supplies dimensions and per-cell traversal weights.
// It must not change while a search is running.
type GridSource interface {
	Width() int
	Height() int
	Weight(row, col int) float64
}

// ShallowReporter is implemented by grids that classify cells as shallow
// terrain for the TerrainMultiplier policy
type ShallowReporter interface {
	IsShallow(row, col int) bool
}

// Index converts a cell to its linear index for a grid of the given width
func Index(c Cell, width int) int {
	return c.Row*width + c.Col
}

// CellAt converts a linear index back to a cell for a grid of the given width
func CellAt(index, width int) Cell {
	return Cell{Row: index / width, Col: index % width}
}

// InBounds reports whether c lies inside the grid
func InBounds(grid GridSource, c Cell) bool {
	return c.Row >= 0 && c.Row < grid.Height() && c.Col >= 0 && c.Col < grid.Width()
}

// Passable reports whether c is inside the grid and has a positive weight
func Passable(grid GridSource, c Cell) bool {
	return InBounds(grid, c) && grid.Weight(c.Row, c.Col) > 0
}

// Values copies the weights of any grid into a row-major matrix
func Values(grid GridSource) [][]float64 {
	values := make([][]float64, grid.Height())
	for row := range values {
		values[row] = make([]float64, grid.Width())
		for col := range values[row] {
			values[row][col] = grid.Weight(row, col)
		}
	}
	return values
}

func validateDimensions(width, height int) error {
	if width < MinGridSize || width > MaxGridSize {
		return fmt.Errorf("%w: width must be between %d and %d, got %d", ErrInvalidGrid, MinGridSize, MaxGridSize, width)
	}
	if height < MinGridSize || height > MaxGridSize {
		return fmt.Errorf("%w: height must be between %d and %d, got %d", ErrInvalidGrid, MinGridSize, MaxGridSize, height)
	}
	return nil
}

// WeightGrid is a dense grid of openness weights
type WeightGrid struct {
	width   int
	height  int
	weights []float64
}

// NewWeightGrid builds a grid from a rectangular matrix of non-negative weights.
// The matrix is copied.
func NewWeightGrid(weights [][]float64) (*WeightGrid, error) {
	height := len(weights)
	if height == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidGrid)
	}
	width := len(weights[0])
	if err := validateDimensions(width, height); err != nil {
		return nil, err
	}

	g := &WeightGrid{
		width:   width,
		height:  height,
		weights: make([]float64, 0, width*height),
	}
	for row, values := range weights {
		if len(values) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrInvalidGrid, row, len(values), width)
		}
		for col, w := range values {
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return nil, fmt.Errorf("%w: weight at (%d,%d) must be finite and >= 0, got %v", ErrInvalidGrid, row, col, w)
			}
			g.weights = append(g.weights, w)
		}
	}
	return g, nil
}

// NewUniformWeightGrid builds a width x height grid with every weight set to w
func NewUniformWeightGrid(width, height int, w float64) (*WeightGrid, error) {
	if err := validateDimensions(width, height); err != nil {
		return nil, err
	}
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return nil, fmt.Errorf("%w: weight must be finite and >= 0, got %v", ErrInvalidGrid, w)
	}
	g := &WeightGrid{width: width, height: height, weights: make([]float64, width*height)}
	for i := range g.weights {
		g.weights[i] = w
	}
	return g, nil
}

func (g *WeightGrid) Width() int  { return g.width }
func (g *WeightGrid) Height() int { return g.height }

func (g *WeightGrid) Weight(row, col int) float64 {
	return g.weights[row*g.width+col]
}

// SetWeight changes a single weight. It must not be called during a search.
func (g *WeightGrid) SetWeight(c Cell, w float64) error {
	if !InBounds(g, c) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, c.Row, c.Col)
	}
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return fmt.Errorf("%w: weight must be finite and >= 0, got %v", ErrInvalidGrid, w)
	}
	g.weights[Index(c, g.width)] = w
	return nil
}

// TerrainGrid is a categorical grid: every cell is open water, shallow water or
// an obstacle. Membership is kept in sets keyed by Cell.
type TerrainGrid struct {
	width     int
	height    int
	obstacles map[Cell]struct{}
	shallow   map[Cell]struct{}
}

// NewTerrainGrid builds an all-open terrain grid
func NewTerrainGrid(width, height int) (*TerrainGrid, error) {
	if err := validateDimensions(width, height); err != nil {
		return nil, err
	}
	return &TerrainGrid{
		width:     width,
		height:    height,
		obstacles: make(map[Cell]struct{}),
		shallow:   make(map[Cell]struct{}),
	}, nil
}

func (g *TerrainGrid) Width() int  { return g.width }
func (g *TerrainGrid) Height() int { return g.height }

// Weight is 0 for obstacles and 1 otherwise
func (g *TerrainGrid) Weight(row, col int) float64 {
	if _, blocked := g.obstacles[Cell{Row: row, Col: col}]; blocked {
		return 0
	}
	return 1
}

func (g *TerrainGrid) IsObstacle(row, col int) bool {
	_, blocked := g.obstacles[Cell{Row: row, Col: col}]
	return blocked
}

func (g *TerrainGrid) IsShallow(row, col int) bool {
	_, ok := g.shallow[Cell{Row: row, Col: col}]
	return ok
}

// SetObstacle marks c as impassable. An obstacle is never shallow.
func (g *TerrainGrid) SetObstacle(c Cell) error {
	if !InBounds(g, c) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, c.Row, c.Col)
	}
	g.obstacles[c] = struct{}{}
	delete(g.shallow, c)
	return nil
}

// SetShallow marks c as shallow water. Obstacles are left untouched.
func (g *TerrainGrid) SetShallow(c Cell) error {
	if !InBounds(g, c) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, c.Row, c.Col)
	}
	if _, blocked := g.obstacles[c]; blocked {
		return nil
	}
	g.shallow[c] = struct{}{}
	return nil
}

// ShallowCells returns the shallow cells in row-major order
func (g *TerrainGrid) ShallowCells() []Cell {
	cells := make([]Cell, 0, len(g.shallow))
	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			if g.IsShallow(row, col) {
				cells = append(cells, Cell{Row: row, Col: col})
			}
		}
	}
	return cells
}
