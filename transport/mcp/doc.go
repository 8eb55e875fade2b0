// Package mcp exposes the ship routing REST API as Model Context Protocol
// tools.
//
// The Client is a thin proxy: every tool call becomes one or two HTTP
// requests against a running API server, and the JSON answer is rendered as
// text for the agent. Grids up to 64x64 are drawn with the scenario legend
// ('#' land, '.' open water, '~' shallow, digits for partial weights) and
// routes are overlaid with S, G and '*'.
//
// MCP Tools:
//   - find_route: one-shot route between two linear cell indices
//   - grid_info: grid size, planner knobs and the rendered map
//   - describe_cell: weight and passability of one cell
//   - list_scenarios: available scenarios
//   - start_search, advance_search, get_search, delete_search: step-driven
//     searches
//   - routing_instructions: the grid model and cost rules
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
