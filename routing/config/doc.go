// Package config provides scenario management for the ship routing planner.
//
// The config package handles:
//   - Loading scenarios from JSON files
//   - Scenario validation
//   - Default scenario management
//   - Scenario discovery and listing
//
// Scenario Format:
//
// Scenarios are stored as JSON files in the configs directory. Each scenario
// defines a grid, either as a layout of legend characters or as an explicit
// weight matrix, together with the planner knobs and optional default
// endpoints:
//
//	#    land (impassable)
//	.    open water, weight 1.0
//	~    shallow water, weight 0.5 (penalized under terrain_multiplier)
//	1-9  partially open water, weight n/10
//
// Available Scenarios:
//   - classic: 32x32 open sea of varying openness with three land masses,
//     4-connected, inverse weight, Manhattan
//   - east_coast: 50x50 coastline with a shallow shelf and islands,
//     8-connected, terrain multiplier, Euclidean
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific scenario
//	scenario, err := manager.LoadScenario("east_coast")
//
//	// Get default scenario
//	defaultScenario := manager.GetDefault()
//
//	// List available scenarios
//	scenarios, err := manager.ListScenarios()
package config
