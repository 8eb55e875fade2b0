package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/shiproute/routing/planner"
	"github.com/wricardo/shiproute/routing/service"
)

// Largest grid rendered inline in tool results
const maxRenderSize = 64

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Ship Route Planner",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Ship Route Planner - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Cells are addressed by linear index (row*width + col) unless a tool says otherwise.

AVAILABLE TOOLS:
- find_route: Minimum-cost route between two cells of a scenario
- grid_info: Grid size, knobs and a rendered map of a scenario
- describe_cell: Weight and passability of a single cell
- list_scenarios: List available scenarios
- start_search: Start a step-driven search
- advance_search: Expand the next cells of a search
- get_search: Open set, visited cells and path of a search
- delete_search: Cancel and remove a search
- routing_instructions: Explain the grid model and cost rules`),
	)

	c.registerTools()
}

func scenarioProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Scenario ID (optional, defaults to the server default)",
	}
}

func indexProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Routing
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "find_route",
		Description: "Find the minimum-cost route between two cells",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": scenarioProperty(),
				"start":       indexProperty("Start cell index (optional, defaults to the scenario start)"),
				"end":         indexProperty("Goal cell index (optional, defaults to the scenario goal)"),
			},
		},
	}, c.handleFindRoute)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "grid_info",
		Description: "Get the grid dimensions, planner knobs and a rendered map of a scenario",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": scenarioProperty(),
			},
		},
	}, c.handleGridInfo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get the weight of a single cell and whether a route may pass through it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": scenarioProperty(),
				"row":         indexProperty("Row of the cell (0-based)"),
				"col":         indexProperty("Column of the cell (0-based)"),
			},
			Required: []string{"row", "col"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenarios",
		Description: "List available scenarios",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScenarios)

	// Step-driven searches
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_search",
		Description: "Start a search that is advanced one expansion at a time",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": scenarioProperty(),
				"start":       indexProperty("Start cell index (optional)"),
				"end":         indexProperty("Goal cell index (optional)"),
			},
		},
	}, c.handleStartSearch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance_search",
		Description: "Perform the next expansions of a search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"search_id": map[string]interface{}{
					"type":        "string",
					"description": "Search ID",
				},
				"steps": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Number of expansions (%d-%d, default 1)", service.MinAdvanceSteps, service.MaxAdvanceSteps),
				},
			},
			Required: []string{"search_id"},
		},
	}, c.handleAdvanceSearch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_search",
		Description: "Get the open set, visited cells and result of a search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"search_id": map[string]interface{}{
					"type":        "string",
					"description": "Search ID",
				},
			},
			Required: []string{"search_id"},
		},
	}, c.handleGetSearch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_search",
		Description: "Cancel and remove a search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"search_id": map[string]interface{}{
					"type":        "string",
					"description": "Search ID",
				},
			},
			Required: []string{"search_id"},
		},
	}, c.handleDeleteSearch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "routing_instructions",
		Description: "Explain the grid model, cost rules and search workflow",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRoutingInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads an integer argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func routeRequest(args map[string]interface{}) service.RouteRequest {
	var req service.RouteRequest
	if start, ok := intArg(args, "start"); ok {
		req.Start = &start
	}
	if end, ok := intArg(args, "end"); ok {
		req.End = &end
	}
	return req
}

func (c *Client) gridInfo(ctx context.Context, scenarioID string) (*service.GridInfo, error) {
	path := "/grid_info"
	if scenarioID != "" {
		path += "?scenario=" + url.QueryEscape(scenarioID)
	}
	var info service.GridInfo
	if err := c.apiCall(ctx, "GET", path, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Tool handlers

func (c *Client) handleFindRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenarioID, _ := args["scenario_id"].(string)
	req := routeRequest(args)

	path := "/api/scenarios/" + url.PathEscape(scenarioID) + "/route"
	if scenarioID == "" {
		// /find_route needs both endpoints
		if req.Start == nil || req.End == nil {
			info, err := c.gridInfo(ctx, "")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			scenarioID = info.Scenario
			path = "/api/scenarios/" + url.PathEscape(scenarioID) + "/route"
		} else {
			path = "/find_route"
		}
	}

	var result service.RouteResult
	if err := c.apiCall(ctx, "POST", path, req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRouteResult(&result)), nil
}

func (c *Client) handleGridInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenarioID, _ := args["scenario_id"].(string)

	info, err := c.gridInfo(ctx, scenarioID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGridInfo(info)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenarioID, _ := args["scenario_id"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required"), nil
	}

	info, err := c.gridInfo(ctx, scenarioID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if row < 0 || row >= info.Height || col < 0 || col >= info.Width {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d, %d) is out of bounds. Grid is %d rows x %d cols",
			row, col, info.Height, info.Width)), nil
	}

	cell := planner.Cell{Row: row, Col: col}
	weight := info.GridValues[row][col]
	kind := cellKind(info, cell)

	result := fmt.Sprintf(`Cell (%d, %d) of %s:
━━━━━━━━━━━━━━━━━━━━━━━━
Index: %d
Symbol: %c
Type: %s
Weight: %g
Passable: %v`,
		row, col, info.Scenario,
		planner.Index(cell, info.Width),
		cellSymbol(info, cell),
		kind,
		weight,
		weight > 0)

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var scenarios []service.ScenarioInfo
	if err := c.apiCall(ctx, "GET", "/api/scenarios", nil, &scenarios); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Available Scenarios (%d):\n\n", len(scenarios))
	for _, s := range scenarios {
		result += fmt.Sprintf("- %s: %s (%dx%d, %s, %s, %s)\n",
			s.ScenarioID, s.Name, s.Width, s.Height, s.Connectivity, s.CostPolicy, s.Heuristic)
		if s.Description != "" {
			result += fmt.Sprintf("  %s\n", s.Description)
		}
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleStartSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenarioID, _ := args["scenario_id"].(string)
	req := routeRequest(args)

	body := map[string]interface{}{"scenario_id": scenarioID}
	if req.Start != nil {
		body["start"] = *req.Start
	}
	if req.End != nil {
		body["end"] = *req.End
	}

	var info service.SearchInfo
	if err := c.apiCall(ctx, "POST", "/api/searches", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Started search: %s\nScenario: %s\nStart: %s\nGoal: %s\n",
		info.ID, info.ScenarioID, formatCell(info.Start), formatCell(info.Goal))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleAdvanceSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	searchID, _ := args["search_id"].(string)
	steps, ok := intArg(args, "steps")
	if !ok {
		steps = 1
	}

	var result service.AdvanceResult
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/searches/%s/advance", url.PathEscape(searchID)),
		map[string]int{"steps": steps}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAdvanceResult(&result)), nil
}

func (c *Client) handleGetSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	searchID, _ := args["search_id"].(string)

	var info service.SearchInfo
	if err := c.apiCall(ctx, "GET", "/api/searches/"+url.PathEscape(searchID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSearchInfo(&info)), nil
}

func (c *Client) handleDeleteSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	searchID, _ := args["search_id"].(string)

	if err := c.apiCall(ctx, "DELETE", "/api/searches/"+url.PathEscape(searchID), nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted search: %s", searchID)), nil
}

func (c *Client) handleRoutingInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Ship Route Planner - Instructions
═══════════════════════════════════

GRID MODEL:
Every scenario is a rectangular grid of weights in [0, 1].
- Weight 0 is land: no route may enter it, and it cannot be a start or goal.
- Weight 1 is open water. Lower weights are harder going.
- Cells are addressed by linear index: index = row*width + col.

MAP LEGEND (grid_info):
- '#' land
- '.' open water
- '~' shallow water
- '1'..'9' partially open water with weight n/10
- 'S' start, 'G' goal, '*' route

COST RULES:
- inverse_weight: entering a cell costs 1/weight, so the planner prefers open water.
- terrain_multiplier: a step costs 1, or 1.5 into shallow water, times √2 on a diagonal.

CONNECTIVITY:
- four: right, down, left, up.
- eight: the four above plus the diagonals.

ONE-SHOT ROUTES:
Call find_route with start and end indices. An unreachable goal reports "no path found".

STEP-DRIVEN SEARCHES:
1. start_search creates a search and returns its ID.
2. advance_search expands up to 500 cells per call.
3. get_search shows the open set, the visited cells and, once done, the path and cost.
4. delete_search cancels the search when you are finished.

Ties between equally promising cells are broken by the smaller heuristic, then the
smaller index, so the same request always yields the same route.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatCell(c planner.Cell) string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

func formatCells(cells []planner.Cell, limit int) string {
	parts := make([]string, 0, len(cells))
	for i, c := range cells {
		if i == limit {
			parts = append(parts, fmt.Sprintf("... %d more", len(cells)-limit))
			break
		}
		parts = append(parts, formatCell(c))
	}
	return strings.Join(parts, " ")
}

func formatRouteResult(result *service.RouteResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Route on %s\n", result.Scenario)
	fmt.Fprintf(&b, "Cells: %d\n", len(result.Path))
	fmt.Fprintf(&b, "Cost: %.3f\n", result.Cost)
	fmt.Fprintf(&b, "Expanded: %d\n", result.Expanded)

	indices := make([]string, len(result.Path))
	for i, idx := range result.Path {
		indices[i] = fmt.Sprintf("%d", idx)
	}
	fmt.Fprintf(&b, "Path: %s\n", strings.Join(indices, " → "))

	if len(result.GridValues) > 0 && len(result.GridValues) <= maxRenderSize && len(result.GridValues[0]) <= maxRenderSize {
		info := &service.GridInfo{
			Width:      len(result.GridValues[0]),
			Height:     len(result.GridValues),
			GridValues: result.GridValues,
		}
		b.WriteString("\n")
		b.WriteString(renderGrid(info, result.Cells))
	}
	return b.String()
}

func formatGridInfo(info *service.GridInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s (%s)\n", info.Scenario, info.Name)
	fmt.Fprintf(&b, "Size: %d rows x %d cols (%d cells)\n", info.Height, info.Width, info.Size)
	fmt.Fprintf(&b, "Connectivity: %s\n", info.Connectivity)
	fmt.Fprintf(&b, "Cost policy: %s\n", info.CostPolicy)
	fmt.Fprintf(&b, "Heuristic: %s\n", info.Heuristic)
	fmt.Fprintf(&b, "Default start: %s (index %d)\n", formatCell(info.Start), planner.Index(info.Start, info.Width))
	fmt.Fprintf(&b, "Default goal: %s (index %d)\n", formatCell(info.Goal), planner.Index(info.Goal, info.Width))

	if info.Width <= maxRenderSize && info.Height <= maxRenderSize {
		b.WriteString("\n")
		b.WriteString(renderGrid(info, nil))
	}
	return b.String()
}

func formatSearchInfo(info *service.SearchInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search %s on %s\n", info.ID, info.ScenarioID)
	fmt.Fprintf(&b, "Start: %s  Goal: %s\n", formatCell(info.Start), formatCell(info.Goal))
	fmt.Fprintf(&b, "Steps: %d\n", info.Steps)

	switch {
	case info.Found:
		fmt.Fprintf(&b, "🎯 Path found: %d cells, cost %.3f\n", len(info.Path), info.Cost)
		fmt.Fprintf(&b, "Path: %s\n", formatCells(info.Path, 50))
	case info.Done:
		fmt.Fprintf(&b, "✗ Search stopped: %s\n", info.Error)
	default:
		fmt.Fprintf(&b, "Open (%d): %s\n", len(info.Open), formatCells(info.Open, 20))
		fmt.Fprintf(&b, "Visited: %d\n", len(info.Visited))
	}
	return b.String()
}

func formatAdvanceResult(result *service.AdvanceResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Executed %d of %d requested steps\n", result.StepsExecuted, result.RequestedSteps)

	start := 0
	if len(result.Steps) > 10 {
		start = len(result.Steps) - 10
		fmt.Fprintf(&b, "... %d earlier steps\n", start)
	}
	for _, step := range result.Steps[start:] {
		discovered := 0
		for _, ev := range step.Events {
			if ev.Kind == planner.FrontierDiscovered {
				discovered++
			}
		}
		fmt.Fprintf(&b, "  %d. expanded %s, discovered %d\n", step.Step, formatCell(step.Current), discovered)
	}

	if result.Search != nil {
		b.WriteString("\n")
		b.WriteString(formatSearchInfo(result.Search))
	}
	return b.String()
}

// renderGrid draws the grid with the legend of routing_instructions
func renderGrid(info *service.GridInfo, path []planner.Cell) string {
	onPath := make(map[planner.Cell]bool, len(path))
	for _, c := range path {
		onPath[c] = true
	}

	var b strings.Builder
	for row := 0; row < info.Height; row++ {
		for col := 0; col < info.Width; col++ {
			c := planner.Cell{Row: row, Col: col}
			switch {
			case len(path) > 0 && c == path[0]:
				b.WriteByte('S')
			case len(path) > 0 && c == path[len(path)-1]:
				b.WriteByte('G')
			case onPath[c]:
				b.WriteByte('*')
			default:
				b.WriteRune(cellSymbol(info, c))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func isShallow(info *service.GridInfo, c planner.Cell) bool {
	for _, s := range info.Shallow {
		if s == c {
			return true
		}
	}
	return false
}

func cellSymbol(info *service.GridInfo, c planner.Cell) rune {
	w := info.GridValues[c.Row][c.Col]
	switch {
	case w <= 0:
		return planner.LandChar
	case isShallow(info, c):
		return planner.ShallowChar
	case w >= 1:
		return planner.OpenChar
	default:
		digit := int(w*10 + 0.5)
		if digit < 1 {
			digit = 1
		} else if digit > 9 {
			digit = 9
		}
		return rune('0' + digit)
	}
}

func cellKind(info *service.GridInfo, c planner.Cell) string {
	switch cellSymbol(info, c) {
	case planner.LandChar:
		return "Land - IMPASSABLE"
	case planner.ShallowChar:
		return "Shallow water"
	case planner.OpenChar:
		return "Open water"
	default:
		return "Partially open water"
	}
}
