// Package service provides the routing operations shared by every transport.
//
// RouteService is the main interface. It answers one-shot route requests,
// describes scenario grids and drives step-driven searches that are kept
// between calls. SearchManager stores those searches and ScenarioManager
// loads the scenario files they are planned on.
//
// Scenarios are compiled into a grid and a planner once and cached, so
// repeated requests against the same scenario share the same read-only grid.
// Each step-driven search carries its own cancellable context; deleting or
// expiring the search cancels it.
package service
