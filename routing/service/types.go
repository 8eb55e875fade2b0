package service

import (
	"errors"
	"time"

	"github.com/wricardo/shiproute/routing/planner"
)

// Limits for AdvanceSearch
const (
	MinAdvanceSteps = 1
	MaxAdvanceSteps = 500
)

var ErrInvalidSteps = errors.New("invalid step count")

// RouteRequest names the endpoints of a route by linear index (row*width+col).
// A nil endpoint falls back to the scenario default.
type RouteRequest struct {
	Start *int `json:"start,omitempty"`
	End   *int `json:"end,omitempty"`
}

// RouteResult contains the outcome of a one-shot route
type RouteResult struct {
	Scenario   string         `json:"scenario"`
	Path       []int          `json:"path"`
	Cells      []planner.Cell `json:"cells"`
	Cost       float64        `json:"cost"`
	Expanded   int            `json:"expanded"`
	GridValues [][]float64    `json:"grid_values"`
}

// GridInfo describes the grid of a scenario
type GridInfo struct {
	Scenario     string                `json:"scenario"`
	Name         string                `json:"name"`
	Width        int                   `json:"width"`
	Height       int                   `json:"height"`
	Size         int                   `json:"size"`
	GridValues   [][]float64           `json:"grid_values"`
	Shallow      []planner.Cell        `json:"shallow,omitempty"`
	Connectivity planner.Connectivity  `json:"connectivity"`
	CostPolicy   planner.CostPolicy    `json:"cost_policy"`
	Heuristic    planner.HeuristicKind `json:"heuristic"`
	Start        planner.Cell          `json:"start"`
	Goal         planner.Cell          `json:"goal"`
}

// SearchInfo provides a snapshot of a step-driven search
type SearchInfo struct {
	ID             string         `json:"id"`
	ScenarioID     string         `json:"scenario_id"`
	Start          planner.Cell   `json:"start"`
	Goal           planner.Cell   `json:"goal"`
	Steps          int            `json:"steps"`
	Done           bool           `json:"done"`
	Found          bool           `json:"found"`
	Error          string         `json:"error,omitempty"`
	Path           []planner.Cell `json:"path,omitempty"`
	Cost           float64        `json:"cost,omitempty"`
	Open           []planner.Cell `json:"open"`
	Visited        []planner.Cell `json:"visited"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
}

// AdvanceResult contains the steps performed by one AdvanceSearch call
type AdvanceResult struct {
	SearchID       string               `json:"search_id"`
	RequestedSteps int                  `json:"requested_steps"`
	StepsExecuted  int                  `json:"steps_executed"`
	Steps          []planner.StepResult `json:"steps"`
	Search         *SearchInfo          `json:"search"`
}

// ScenarioInfo provides information about a scenario file
type ScenarioInfo struct {
	Filename     string                `json:"filename"`
	ScenarioID   string                `json:"scenario_id"` // identifier used in routes and searches
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Width        int                   `json:"width"`
	Height       int                   `json:"height"`
	Connectivity planner.Connectivity  `json:"connectivity"`
	CostPolicy   planner.CostPolicy    `json:"cost_policy"`
	Heuristic    planner.HeuristicKind `json:"heuristic"`
}
