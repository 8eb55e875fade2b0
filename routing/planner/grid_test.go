package planner

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewWeightGrid(t *testing.T) {
	tests := []struct {
		name    string
		weights [][]float64
		wantErr bool
	}{
		{name: "valid", weights: [][]float64{{1, 0.5}, {0, 1}}},
		{name: "single cell", weights: [][]float64{{1}}},
		{name: "no rows", weights: [][]float64{}, wantErr: true},
		{name: "empty row", weights: [][]float64{{}}, wantErr: true},
		{name: "ragged", weights: [][]float64{{1, 1}, {1}}, wantErr: true},
		{name: "negative weight", weights: [][]float64{{1, -0.5}}, wantErr: true},
		{name: "NaN weight", weights: [][]float64{{math.NaN()}}, wantErr: true},
		{name: "infinite weight", weights: [][]float64{{math.Inf(1)}}, wantErr: true},
		{name: "too wide", weights: [][]float64{make([]float64, MaxGridSize+1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := NewWeightGrid(tt.weights)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidGrid) {
					t.Fatalf("Expected ErrInvalidGrid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.weights, Values(grid)); diff != "" {
				t.Errorf("Weights mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWeightGrid_CopiesInput(t *testing.T) {
	weights := [][]float64{{1, 1}, {1, 1}}
	grid, err := NewWeightGrid(weights)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}
	weights[0][0] = 0

	if grid.Weight(0, 0) != 1 {
		t.Error("Grid should not alias the input matrix")
	}
}

func TestWeightGrid_SetWeight(t *testing.T) {
	grid := uniformGrid(t, 3, 2)

	if err := grid.SetWeight(Cell{1, 2}, 0.25); err != nil {
		t.Fatalf("SetWeight failed: %v", err)
	}
	if grid.Weight(1, 2) != 0.25 {
		t.Errorf("Expected 0.25, got %v", grid.Weight(1, 2))
	}
	if err := grid.SetWeight(Cell{2, 0}, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
	if err := grid.SetWeight(Cell{0, 0}, -1); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("Expected ErrInvalidGrid, got %v", err)
	}
}

func TestIndexConversion(t *testing.T) {
	const width = 7
	for i := 0; i < width*4; i++ {
		c := CellAt(i, width)
		if got := Index(c, width); got != i {
			t.Errorf("Index(CellAt(%d)) = %d", i, got)
		}
	}
	if c := CellAt(15, width); c != (Cell{2, 1}) {
		t.Errorf("CellAt(15) = %v, want (2,1)", c)
	}
}

func TestBounds(t *testing.T) {
	grid := uniformGrid(t, 4, 2)
	if err := grid.SetWeight(Cell{1, 3}, 0); err != nil {
		t.Fatalf("SetWeight failed: %v", err)
	}

	tests := []struct {
		cell         Cell
		wantInBounds bool
		wantPassable bool
	}{
		{Cell{0, 0}, true, true},
		{Cell{1, 3}, true, false},
		{Cell{2, 0}, false, false},
		{Cell{0, 4}, false, false},
		{Cell{-1, 0}, false, false},
		{Cell{0, -1}, false, false},
	}

	for _, tt := range tests {
		if got := InBounds(grid, tt.cell); got != tt.wantInBounds {
			t.Errorf("InBounds(%v) = %v, want %v", tt.cell, got, tt.wantInBounds)
		}
		if got := Passable(grid, tt.cell); got != tt.wantPassable {
			t.Errorf("Passable(%v) = %v, want %v", tt.cell, got, tt.wantPassable)
		}
	}
}

func TestTerrainGrid(t *testing.T) {
	grid, err := NewTerrainGrid(4, 3)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}

	if err := grid.SetShallow(Cell{0, 1}); err != nil {
		t.Fatalf("SetShallow failed: %v", err)
	}
	if err := grid.SetShallow(Cell{2, 3}); err != nil {
		t.Fatalf("SetShallow failed: %v", err)
	}
	if err := grid.SetObstacle(Cell{1, 1}); err != nil {
		t.Fatalf("SetObstacle failed: %v", err)
	}

	t.Run("weights", func(t *testing.T) {
		if grid.Weight(1, 1) != 0 {
			t.Error("Obstacle should have weight 0")
		}
		if grid.Weight(0, 1) != 1 || grid.Weight(0, 0) != 1 {
			t.Error("Water should have weight 1")
		}
	})

	t.Run("shallow on obstacle is ignored", func(t *testing.T) {
		if err := grid.SetShallow(Cell{1, 1}); err != nil {
			t.Fatalf("SetShallow failed: %v", err)
		}
		if grid.IsShallow(1, 1) {
			t.Error("An obstacle cannot be shallow")
		}
	})

	t.Run("obstacle clears shallow", func(t *testing.T) {
		if err := grid.SetObstacle(Cell{2, 3}); err != nil {
			t.Fatalf("SetObstacle failed: %v", err)
		}
		if grid.IsShallow(2, 3) || !grid.IsObstacle(2, 3) {
			t.Error("(2,3) should be an obstacle and not shallow")
		}
	})

	t.Run("shallow cells in row-major order", func(t *testing.T) {
		if err := grid.SetShallow(Cell{0, 0}); err != nil {
			t.Fatalf("SetShallow failed: %v", err)
		}
		want := []Cell{{0, 0}, {0, 1}}
		if diff := cmp.Diff(want, grid.ShallowCells()); diff != "" {
			t.Errorf("Shallow cells mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("out of bounds", func(t *testing.T) {
		if err := grid.SetObstacle(Cell{3, 0}); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Expected ErrOutOfBounds, got %v", err)
		}
		if err := grid.SetShallow(Cell{0, 4}); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Expected ErrOutOfBounds, got %v", err)
		}
	})
}

func TestEdgeCost(t *testing.T) {
	weights, err := NewWeightGrid([][]float64{{1, 0.5}, {0.25, 1}})
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}
	terrain, err := NewTerrainGrid(2, 2)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}
	if err := terrain.SetShallow(Cell{1, 1}); err != nil {
		t.Fatalf("SetShallow failed: %v", err)
	}

	tests := []struct {
		name   string
		grid   GridSource
		policy CostPolicy
		from   Cell
		to     Cell
		want   float64
	}{
		{"inverse open", weights, InverseWeight, Cell{0, 1}, Cell{0, 0}, 1},
		{"inverse half", weights, InverseWeight, Cell{0, 0}, Cell{0, 1}, 2},
		{"inverse quarter", weights, InverseWeight, Cell{0, 0}, Cell{1, 0}, 4},
		{"terrain orthogonal", terrain, TerrainMultiplier, Cell{0, 0}, Cell{0, 1}, BaseCost},
		{"terrain shallow", terrain, TerrainMultiplier, Cell{0, 1}, Cell{1, 1}, ShallowCost},
		{"terrain diagonal", terrain, TerrainMultiplier, Cell{1, 1}, Cell{0, 0}, math.Sqrt2},
		{"terrain shallow diagonal", terrain, TerrainMultiplier, Cell{0, 0}, Cell{1, 1}, ShallowCost * math.Sqrt2},
		{"terrain policy on plain grid", weights, TerrainMultiplier, Cell{0, 0}, Cell{0, 1}, BaseCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EdgeCost(tt.grid, tt.policy, tt.from, tt.to)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("EdgeCost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPathCost(t *testing.T) {
	grid := uniformGrid(t, 3, 3)
	if err := grid.SetWeight(Cell{1, 1}, 0); err != nil {
		t.Fatalf("SetWeight failed: %v", err)
	}

	tests := []struct {
		name         string
		connectivity Connectivity
		path         []Cell
		want         float64
		wantErr      bool
	}{
		{"empty", FourConnected, nil, 0, false},
		{"single cell", FourConnected, []Cell{{0, 0}}, 0, false},
		{"orthogonal", FourConnected, []Cell{{0, 0}, {0, 1}, {0, 2}, {1, 2}}, 3, false},
		{"diagonal in four", FourConnected, []Cell{{0, 1}, {1, 2}}, 0, true},
		{"diagonal in eight", EightConnected, []Cell{{0, 1}, {1, 2}}, 1, false},
		{"jump", EightConnected, []Cell{{0, 0}, {0, 2}}, 0, true},
		{"repeated cell", FourConnected, []Cell{{0, 0}, {0, 0}}, 0, true},
		{"through obstacle", FourConnected, []Cell{{0, 1}, {1, 1}}, 0, true},
		{"off grid", FourConnected, []Cell{{0, 2}, {0, 3}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PathCost(grid, InverseWeight, tt.connectivity, tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got cost %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PathCost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeuristics(t *testing.T) {
	a, b := Cell{0, 0}, Cell{3, 4}
	if got := ManhattanDistance(a, b); got != 7 {
		t.Errorf("ManhattanDistance = %v, want 7", got)
	}
	if got := EuclideanDistance(a, b); got != 5 {
		t.Errorf("EuclideanDistance = %v, want 5", got)
	}
	if _, err := HeuristicFor("octile"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("Expected ErrInvalidOption, got %v", err)
	}
}
