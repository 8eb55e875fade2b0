// Package api provides the HTTP REST API of the ship routing server.
//
// Endpoints:
//
// Original routing contract (default scenario, linear cell indices):
//   - GET /           - Liveness message
//   - GET /health     - Health check
//   - POST /find_route - {"start": 165, "end": 1023} -> {"path": [...], "grid_values": [[...]], ...}
//   - GET /grid_info  - Grid size and values (?scenario=name for another scenario)
//
// Scenarios:
//   - GET /api/scenarios               - List scenarios
//   - POST /api/scenarios              - Validate and save a scenario
//   - GET /api/scenarios/{name}        - Get a scenario
//   - GET /api/scenarios/{name}/grid   - Grid values and knobs
//   - POST /api/scenarios/{name}/route - Route with optional start/end
//
// Step-driven searches:
//   - POST /api/searches              - Start a search {"scenario_id", "start", "end"}
//   - GET /api/searches               - List searches
//   - GET /api/searches/{id}          - Search snapshot (open set, visited, path)
//   - DELETE /api/searches/{id}       - Cancel and remove a search
//   - POST /api/searches/{id}/advance - Perform {"steps": n} expansions (1..500)
//   - GET /ws?search={id}             - Stream the steps of a search
//
// Error Handling:
//
// Errors are returned as JSON {"error": "message"}. Out-of-bounds or
// impassable endpoints and invalid input map to 400, an unreachable goal to
// 422 with "no path found", unknown scenarios and searches to 404.
package api
