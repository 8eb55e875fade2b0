package planner

import "math"

// Connectivity selects which neighbors are reachable in one step
type Connectivity string

const (
	FourConnected  Connectivity = "four"
	EightConnected Connectivity = "eight"
)

// CostPolicy selects how the cost of entering a cell is computed
type CostPolicy string

const (
	// InverseWeight charges 1/weight to enter a cell
	InverseWeight CostPolicy = "inverse_weight"
	// TerrainMultiplier charges BaseCost, or ShallowCost on shallow cells,
	// scaled by DiagonalFactor on diagonal steps
	TerrainMultiplier CostPolicy = "terrain_multiplier"
)

// HeuristicKind selects the distance estimate used to order the open set
type HeuristicKind string

const (
	Manhattan HeuristicKind = "manhattan"
	Euclidean HeuristicKind = "euclidean"
)

// EventKind classifies a cell reported to a presenter
type EventKind string

const (
	FrontierDiscovered EventKind = "frontier_discovered"
	FrontierFinalized  EventKind = "frontier_finalized"
	PathMember         EventKind = "path_member"
)

const (
	BaseCost       = 1.0
	ShallowCost    = 1.5
	DiagonalFactor = math.Sqrt2

	// Validation constants
	MinGridSize = 1
	MaxGridSize = 256
)

// Cell is a grid coordinate
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Event reports a cell whose search status changed
type Event struct {
	Cell Cell      `json:"cell"`
	Kind EventKind `json:"kind"`
}

// Observer receives expansion events. It must not mutate the grid.
type Observer func(Event)

// Result is the outcome of a successful search
type Result struct {
	Path     []Cell  `json:"path"`
	Cost     float64 `json:"cost"`
	Expanded int     `json:"expanded"`
}

// StepResult describes a single expansion of a Search
type StepResult struct {
	Step    int     `json:"step"`
	Current Cell    `json:"current"`
	Events  []Event `json:"events,omitempty"`
	Done    bool    `json:"done"`
	Found   bool    `json:"found"`
	Path    []Cell  `json:"path,omitempty"`
	Cost    float64 `json:"cost,omitempty"`
}
