// Command analyze prints quick, human-readable summaries of the scenario files
// in the project's configs directory. It reports dimensions and planner knobs,
// counts land, shallow and partially open cells, and routes between the
// default endpoints to show the cost, length and detour of the route.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wricardo/shiproute/routing/planner"
)

// ScenarioSummary holds the figures printed for one scenario.
type ScenarioSummary struct {
	Name          string
	Width, Height int
	Land          int
	Shallow       int
	Partial       int
	Open          int

	Start, Goal planner.Cell
	Routed      bool
	RouteErr    error
	PathLength  int
	Cost        float64
	Expanded    int
}

// Passable returns the share of cells a route may enter
func (s ScenarioSummary) Passable() float64 {
	total := s.Width * s.Height
	if total == 0 {
		return 0
	}
	return float64(total-s.Land) / float64(total)
}

// Detour returns the path length relative to the Manhattan distance between
// the endpoints
func (s ScenarioSummary) Detour() float64 {
	d := abs(s.Start.Row-s.Goal.Row) + abs(s.Start.Col-s.Goal.Col)
	if d == 0 || s.PathLength == 0 {
		return 1
	}
	return float64(s.PathLength-1) / float64(d)
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No scenario files found in %s\n", configDir)
		os.Exit(1)
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analyzeScenario(os.Stdout, file)
	}
}

// analyzeScenario loads a scenario file and prints its summary. It returns
// nil when the file cannot be loaded.
func analyzeScenario(w io.Writer, path string) *ScenarioSummary {
	scenario, err := planner.LoadScenarioFile(path)
	if err != nil {
		fmt.Fprintf(w, "Error loading scenario: %v\n", err)
		return nil
	}

	summary, err := summarize(scenario)
	if err != nil {
		fmt.Fprintf(w, "Error building grid: %v\n", err)
		return nil
	}

	opts := scenario.PlannerOptions()
	fmt.Fprintf(w, "Name: %s\n", summary.Name)
	fmt.Fprintf(w, "Grid: %d x %d\n", summary.Height, summary.Width)
	fmt.Fprintf(w, "Knobs: %s / %s / %s\n", opts.Connectivity, opts.CostPolicy, opts.Heuristic)
	fmt.Fprintf(w, "Land: %d  Shallow: %d  Partial: %d  Open: %d\n", summary.Land, summary.Shallow, summary.Partial, summary.Open)
	fmt.Fprintf(w, "Passable: %.1f%%\n", summary.Passable()*100)
	fmt.Fprintf(w, "Default route: (%d,%d) -> (%d,%d)\n", summary.Start.Row, summary.Start.Col, summary.Goal.Row, summary.Goal.Col)

	if summary.Routed {
		fmt.Fprintf(w, "✅ Route: %d cells, cost %.3f, %d expanded, detour x%.2f\n",
			summary.PathLength, summary.Cost, summary.Expanded, summary.Detour())
	} else {
		fmt.Fprintf(w, "⚠️  WARNING: default endpoints are not connected: %v\n", summary.RouteErr)
	}

	return summary
}

// summarize counts the cells of a scenario and routes between its default
// endpoints
func summarize(scenario *planner.Scenario) (*ScenarioSummary, error) {
	p, err := planner.NewPlannerFor(scenario)
	if err != nil {
		return nil, err
	}
	grid := p.Grid()

	summary := &ScenarioSummary{
		Name:   scenario.Name,
		Width:  grid.Width(),
		Height: grid.Height(),
	}

	terrain, _ := grid.(*planner.TerrainGrid)
	for row := 0; row < grid.Height(); row++ {
		for col := 0; col < grid.Width(); col++ {
			weight := grid.Weight(row, col)
			switch {
			case weight == 0:
				summary.Land++
			case terrain != nil && terrain.IsShallow(row, col):
				summary.Shallow++
			case weight < 1:
				summary.Partial++
			default:
				summary.Open++
			}
		}
	}

	summary.Start, summary.Goal = scenario.DefaultEndpoints()
	result, err := p.FindPath(context.Background(), summary.Start, summary.Goal)
	if err != nil {
		summary.RouteErr = err
		return summary, nil
	}

	summary.Routed = true
	summary.PathLength = len(result.Path)
	summary.Cost = result.Cost
	summary.Expanded = result.Expanded
	return summary, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
