// Command validate provides a small CLI that validates scenario JSON files in
// the ../configs directory. It checks:
//   - JSON structure, dimensions and layout characters (# . ~ 1-9)
//   - Planner knobs (connectivity, cost policy, heuristic)
//   - Default start and goal are in bounds and on water
//   - Connectivity: the default goal is reachable from the default start
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/shiproute/routing/planner"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateScenario loads and validates a single scenario file. Structural
// checks are those the server applies when loading; connectivity of the
// default endpoints is checked on top.
func validateScenario(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	scenario, err := planner.LoadScenarioFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	p, err := planner.NewPlannerFor(scenario)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to build planner: %v", err))
		return result
	}

	opts := p.Options()
	grid := p.Grid()
	start, goal := scenario.DefaultEndpoints()
	connectivity := validateConnectivity(p, start, goal)
	result.Valid = connectivity.Valid
	result.Errors = append(result.Errors, connectivity.Errors...)

	// Add informational data
	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", scenario.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", grid.Height(), grid.Width()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Knobs: %s / %s / %s", opts.Connectivity, opts.CostPolicy, opts.Heuristic))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Start: (%d,%d)  Goal: (%d,%d)", start.Row, start.Col, goal.Row, goal.Col))
	}

	return result
}

// validateConnectivity routes from start to goal with the scenario's planner,
// so reachability follows the same neighbor rules the server uses.
func validateConnectivity(p *planner.Planner, start, goal planner.Cell) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if p == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "Cannot validate connectivity: no planner")
		return result
	}

	grid := p.Grid()
	for _, ep := range []struct {
		name string
		cell planner.Cell
	}{{"start", start}, {"goal", goal}} {
		if !planner.InBounds(grid, ep.cell) || !planner.Passable(grid, ep.cell) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Default %s (%d,%d) is not on water", ep.name, ep.cell.Row, ep.cell.Col))
		}
	}
	if !result.Valid {
		return result
	}

	route, err := p.FindPath(context.Background(), start, goal)
	switch {
	case errors.Is(err, planner.ErrUnreachable):
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Connectivity failure: goal (%d,%d) unreachable from start (%d,%d)",
			goal.Row, goal.Col, start.Row, start.Col))
		return result
	case err != nil:
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Route check failed: %v", err))
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: goal reachable in %d cells, cost %.3f", len(route.Path), route.Cost))
	return result
}

// main scans ../configs (or the directory given as the first argument) for
// *.json files and validates each one, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding scenario files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateScenario(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All scenarios are valid!")
	} else {
		fmt.Println("❌ Some scenarios have errors")
		os.Exit(1)
	}
}
