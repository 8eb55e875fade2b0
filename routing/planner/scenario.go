package planner

import (
	"encoding/json"
	"fmt"
	"os"
)

// Layout legend
const (
	LandChar    = '#'
	OpenChar    = '.'
	ShallowChar = '~'

	OpenWeight    = 1.0
	ShallowWeight = 0.5
)

// Scenario describes a grid and the planner knobs used to route over it.
// The grid is given either as a layout of legend characters or as an
// explicit weight matrix.
type Scenario struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	Layout       []string      `json:"layout,omitempty"`
	Weights      [][]float64   `json:"weights,omitempty"`
	Connectivity Connectivity  `json:"connectivity"`
	CostPolicy   CostPolicy    `json:"cost_policy"`
	Heuristic    HeuristicKind `json:"heuristic"`
	Start        *Cell         `json:"start,omitempty"`
	Goal         *Cell         `json:"goal,omitempty"`
}

// LayoutWeight maps a legend character to its weight. Digits 1-9 are partially
// open water with weight n/10.
func LayoutWeight(ch rune) (float64, bool) {
	switch {
	case ch == LandChar:
		return 0, true
	case ch == OpenChar:
		return OpenWeight, true
	case ch == ShallowChar:
		return ShallowWeight, true
	case ch >= '1' && ch <= '9':
		return float64(ch-'0') / 10, true
	default:
		return 0, false
	}
}

// ValidateScenario validates a scenario for correctness and routability of its
// default endpoints
func ValidateScenario(s *Scenario) error {
	if s == nil {
		return fmt.Errorf("%w: scenario cannot be nil", ErrInvalidScenario)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if s.Width < MinGridSize || s.Width > MaxGridSize {
		return fmt.Errorf("%w: width must be between %d and %d, got %d", ErrInvalidScenario, MinGridSize, MaxGridSize, s.Width)
	}
	if s.Height < MinGridSize || s.Height > MaxGridSize {
		return fmt.Errorf("%w: height must be between %d and %d, got %d", ErrInvalidScenario, MinGridSize, MaxGridSize, s.Height)
	}

	hasLayout, hasWeights := len(s.Layout) > 0, len(s.Weights) > 0
	if hasLayout == hasWeights {
		return fmt.Errorf("%w: exactly one of layout or weights is required", ErrInvalidScenario)
	}

	if hasLayout {
		if len(s.Layout) != s.Height {
			return fmt.Errorf("%w: layout must have %d rows to match height, got %d", ErrInvalidScenario, s.Height, len(s.Layout))
		}
		for i, row := range s.Layout {
			if len(row) != s.Width {
				return fmt.Errorf("%w: row %d must have %d characters to match width, got %d", ErrInvalidScenario, i+1, s.Width, len(row))
			}
			for j, ch := range row {
				if _, ok := LayoutWeight(ch); !ok {
					return fmt.Errorf("%w: invalid character '%c' at row %d, col %d", ErrInvalidScenario, ch, i+1, j+1)
				}
			}
		}
	} else {
		if len(s.Weights) != s.Height {
			return fmt.Errorf("%w: weights must have %d rows to match height, got %d", ErrInvalidScenario, s.Height, len(s.Weights))
		}
		for i, row := range s.Weights {
			if len(row) != s.Width {
				return fmt.Errorf("%w: weights row %d must have %d values to match width, got %d", ErrInvalidScenario, i+1, s.Width, len(row))
			}
		}
		if s.CostPolicy == TerrainMultiplier {
			return fmt.Errorf("%w: cost_policy %q requires a layout", ErrInvalidScenario, TerrainMultiplier)
		}
	}

	if err := s.PlannerOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	grid, err := s.Grid()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	endpoints := []struct {
		name string
		cell *Cell
	}{{"start", s.Start}, {"goal", s.Goal}}
	for _, ep := range endpoints {
		if ep.cell == nil {
			continue
		}
		c := *ep.cell
		if !InBounds(grid, c) {
			return fmt.Errorf("%w: %s (%d,%d) is out of bounds", ErrInvalidScenario, ep.name, c.Row, c.Col)
		}
		if !Passable(grid, c) {
			return fmt.Errorf("%w: %s (%d,%d) is impassable", ErrInvalidScenario, ep.name, c.Row, c.Col)
		}
	}

	return nil
}

// PlannerOptions returns the knobs of the scenario. Empty knobs take the
// planner defaults.
func (s *Scenario) PlannerOptions() Options {
	opts := DefaultOptions()
	if s.Connectivity != "" {
		opts.Connectivity = s.Connectivity
	}
	if s.CostPolicy != "" {
		opts.CostPolicy = s.CostPolicy
	}
	if s.Heuristic != "" {
		opts.Heuristic = s.Heuristic
	}
	return opts
}

// Options returns the knobs as planner options, for use with NewPlanner
func (s *Scenario) Options() []Option {
	opts := s.PlannerOptions()
	return []Option{
		WithConnectivity(opts.Connectivity),
		WithCostPolicy(opts.CostPolicy),
		WithHeuristic(opts.Heuristic),
	}
}

// DefaultEndpoints returns the scenario's start and goal, falling back to the
// first and last cells of the grid
func (s *Scenario) DefaultEndpoints() (Cell, Cell) {
	start := Cell{Row: 0, Col: 0}
	goal := Cell{Row: s.Height - 1, Col: s.Width - 1}
	if s.Start != nil {
		start = *s.Start
	}
	if s.Goal != nil {
		goal = *s.Goal
	}
	return start, goal
}

// Grid builds the grid described by the scenario: a TerrainGrid for the
// terrain multiplier policy, a WeightGrid otherwise
func (s *Scenario) Grid() (GridSource, error) {
	if s.CostPolicy == TerrainMultiplier {
		return s.terrainGrid()
	}
	if len(s.Weights) > 0 {
		return NewWeightGrid(s.Weights)
	}

	weights := make([][]float64, len(s.Layout))
	for row, line := range s.Layout {
		weights[row] = make([]float64, 0, len(line))
		for col, ch := range line {
			w, ok := LayoutWeight(ch)
			if !ok {
				return nil, fmt.Errorf("%w: invalid character '%c' at (%d,%d)", ErrInvalidGrid, ch, row, col)
			}
			weights[row] = append(weights[row], w)
		}
	}
	return NewWeightGrid(weights)
}

func (s *Scenario) terrainGrid() (*TerrainGrid, error) {
	grid, err := NewTerrainGrid(s.Width, s.Height)
	if err != nil {
		return nil, err
	}
	for row, line := range s.Layout {
		for col, ch := range line {
			c := Cell{Row: row, Col: col}
			switch ch {
			case LandChar:
				err = grid.SetObstacle(c)
			case ShallowChar:
				err = grid.SetShallow(c)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return grid, nil
}

// NewPlannerFor builds the grid and a planner for the scenario
func NewPlannerFor(s *Scenario, extra ...Option) (*Planner, error) {
	grid, err := s.Grid()
	if err != nil {
		return nil, err
	}
	return NewPlanner(grid, append(s.Options(), extra...)...)
}

// LoadScenarioFile reads and validates a scenario JSON file
func LoadScenarioFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file '%s': %w", path, err)
	}

	if err := ValidateScenario(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
