package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/shiproute/routing/planner"
	"github.com/wricardo/shiproute/routing/service"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func testGridInfo() service.GridInfo {
	return service.GridInfo{
		Scenario: "harbour",
		Name:     "Harbour",
		Width:    3,
		Height:   2,
		Size:     6,
		GridValues: [][]float64{
			{1, 0, 0.3},
			{1, 1, 1},
		},
		Shallow:      []planner.Cell{{Row: 1, Col: 1}},
		Connectivity: planner.FourConnected,
		CostPolicy:   planner.InverseWeight,
		Heuristic:    planner.Manhattan,
		Start:        planner.Cell{Row: 0, Col: 0},
		Goal:         planner.Cell{Row: 1, Col: 2},
	}
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL + "/")

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/health", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", response["status"])
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable host", func(t *testing.T) {
		client := NewClient("http://invalid-url-that-does-not-exist:9999")
		if err := client.apiCall(context.Background(), "GET", "/health", nil, nil); err == nil {
			t.Error("Expected error for invalid URL")
		}
	})

	t.Run("error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"error": "no path found"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "POST", "/find_route", map[string]int{}, nil)
		if err == nil || err.Error() != "no path found" {
			t.Errorf("Expected 'no path found', got %v", err)
		}
	})

	t.Run("plain status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/health", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error") {
			t.Errorf("Expected 'API error', got %v", err)
		}
	})
}

func TestClient_handleFindRoute(t *testing.T) {
	var gotPath string
	var gotBody map[string]int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/grid_info" {
			json.NewEncoder(w).Encode(testGridInfo())
			return
		}
		gotPath = r.URL.Path
		gotBody = nil
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(service.RouteResult{
			Scenario:   "harbour",
			Path:       []int{0, 3, 4, 5},
			Cells:      []planner.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}},
			Cost:       3,
			Expanded:   5,
			GridValues: testGridInfo().GridValues,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	tests := []struct {
		name     string
		args     map[string]interface{}
		wantPath string
		wantBody map[string]int
	}{
		{
			name:     "both endpoints on default scenario",
			args:     map[string]interface{}{"start": float64(0), "end": float64(5)},
			wantPath: "/find_route",
			wantBody: map[string]int{"start": 0, "end": 5},
		},
		{
			name:     "default endpoints",
			args:     map[string]interface{}{},
			wantPath: "/api/scenarios/harbour/route",
			wantBody: map[string]int{},
		},
		{
			name:     "named scenario",
			args:     map[string]interface{}{"scenario_id": "east_coast", "end": float64(5)},
			wantPath: "/api/scenarios/east_coast/route",
			wantBody: map[string]int{"end": 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := client.handleFindRoute(ctx, callTool("find_route", tt.args))
			if err != nil {
				t.Fatalf("handleFindRoute failed: %v", err)
			}
			text := resultText(t, result)

			if gotPath != tt.wantPath {
				t.Errorf("Expected request to %s, got %s", tt.wantPath, gotPath)
			}
			if len(gotBody) != len(tt.wantBody) {
				t.Errorf("Expected body %v, got %v", tt.wantBody, gotBody)
			}
			for k, v := range tt.wantBody {
				if gotBody[k] != v {
					t.Errorf("Expected %s=%d, got %d", k, v, gotBody[k])
				}
			}

			for _, want := range []string{"Cost: 3.000", "Path: 0 → 3 → 4 → 5", "S#3\n**G\n"} {
				if !strings.Contains(text, want) {
					t.Errorf("Expected %q in result, got:\n%s", want, text)
				}
			}
		})
	}
}

func TestClient_handleFindRoute_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "no path found"})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleFindRoute(context.Background(),
		callTool("find_route", map[string]interface{}{"start": float64(0), "end": float64(8)}))
	if err != nil {
		t.Fatalf("handleFindRoute failed: %v", err)
	}
	if !result.IsError {
		t.Error("Expected an error result")
	}
	if text := resultText(t, result); !strings.Contains(text, "no path found") {
		t.Errorf("Expected 'no path found', got %s", text)
	}
}

func TestClient_handleGridInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("scenario"); got != "harbour" {
			t.Errorf("Expected scenario=harbour, got %q", got)
		}
		json.NewEncoder(w).Encode(testGridInfo())
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleGridInfo(context.Background(),
		callTool("grid_info", map[string]interface{}{"scenario_id": "harbour"}))
	if err != nil {
		t.Fatalf("handleGridInfo failed: %v", err)
	}
	text := resultText(t, result)

	expected := []string{
		"Scenario: harbour (Harbour)",
		"Size: 2 rows x 3 cols (6 cells)",
		"Connectivity: four",
		"Default goal: (1,2) (index 5)",
		".#3\n.~.\n",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got:\n%s", want, text)
		}
	}
}

func TestClient_handleDescribeCell(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(testGridInfo())
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]interface{}
		wantError bool
		want      []string
	}{
		{
			name: "land",
			args: map[string]interface{}{"row": float64(0), "col": float64(1)},
			want: []string{"Index: 1", "Symbol: #", "Passable: false"},
		},
		{
			name: "partial water",
			args: map[string]interface{}{"row": float64(0), "col": float64(2)},
			want: []string{"Weight: 0.3", "Type: Partially open water", "Passable: true"},
		},
		{
			name: "shallow",
			args: map[string]interface{}{"row": float64(1), "col": float64(1)},
			want: []string{"Symbol: ~", "Type: Shallow water"},
		},
		{
			name:      "out of bounds",
			args:      map[string]interface{}{"row": float64(2), "col": float64(0)},
			wantError: true,
			want:      []string{"out of bounds"},
		},
		{
			name:      "missing col",
			args:      map[string]interface{}{"row": float64(0)},
			wantError: true,
			want:      []string{"row and col are required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := client.handleDescribeCell(ctx, callTool("describe_cell", tt.args))
			if err != nil {
				t.Fatalf("handleDescribeCell failed: %v", err)
			}
			if result.IsError != tt.wantError {
				t.Errorf("Expected IsError=%v, got %v", tt.wantError, result.IsError)
			}
			text := resultText(t, result)
			for _, want := range tt.want {
				if !strings.Contains(text, want) {
					t.Errorf("Expected %q in result, got:\n%s", want, text)
				}
			}
		})
	}
}

func TestClient_handleListScenarios(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]service.ScenarioInfo{
			{ScenarioID: "classic", Name: "Classic", Width: 32, Height: 32, Connectivity: planner.FourConnected, CostPolicy: planner.InverseWeight, Heuristic: planner.Manhattan},
			{ScenarioID: "east_coast", Name: "East Coast", Description: "Shallow shelf", Width: 50, Height: 50},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleListScenarios(context.Background(), callTool("list_scenarios", nil))
	if err != nil {
		t.Fatalf("handleListScenarios failed: %v", err)
	}
	text := resultText(t, result)

	for _, want := range []string{"Available Scenarios (2)", "- classic: Classic (32x32, four, inverse_weight, manhattan)", "Shallow shelf"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got:\n%s", want, text)
		}
	}
}

func TestClient_SearchTools(t *testing.T) {
	var advanceBody map[string]int
	var deleted string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == "POST" && r.URL.Path == "/api/searches":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			if body["scenario_id"] != "harbour" || body["start"] != float64(3) {
				t.Errorf("Unexpected start body %v", body)
			}
			json.NewEncoder(w).Encode(service.SearchInfo{
				ID:         "search-42",
				ScenarioID: "harbour",
				Start:      planner.Cell{Row: 1, Col: 0},
				Goal:       planner.Cell{Row: 1, Col: 2},
			})
		case r.Method == "POST" && r.URL.Path == "/api/searches/search-42/advance":
			json.NewDecoder(r.Body).Decode(&advanceBody)
			json.NewEncoder(w).Encode(service.AdvanceResult{
				SearchID:       "search-42",
				RequestedSteps: advanceBody["steps"],
				StepsExecuted:  1,
				Steps: []planner.StepResult{{
					Step:    1,
					Current: planner.Cell{Row: 1, Col: 0},
					Events: []planner.Event{
						{Cell: planner.Cell{Row: 1, Col: 0}, Kind: planner.FrontierFinalized},
						{Cell: planner.Cell{Row: 1, Col: 1}, Kind: planner.FrontierDiscovered},
						{Cell: planner.Cell{Row: 0, Col: 0}, Kind: planner.FrontierDiscovered},
					},
				}},
				Search: &service.SearchInfo{
					ID:      "search-42",
					Steps:   1,
					Open:    []planner.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 1}},
					Visited: []planner.Cell{{Row: 1, Col: 0}},
				},
			})
		case r.Method == "GET" && r.URL.Path == "/api/searches/search-42":
			json.NewEncoder(w).Encode(service.SearchInfo{
				ID:    "search-42",
				Steps: 3,
				Done:  true,
				Found: true,
				Path:  []planner.Cell{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}},
				Cost:  2,
			})
		case r.Method == "DELETE":
			deleted = strings.TrimPrefix(r.URL.Path, "/api/searches/")
			json.NewEncoder(w).Encode(map[string]string{"message": "Search deleted successfully"})
		default:
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	result, err := client.handleStartSearch(ctx, callTool("start_search", map[string]interface{}{
		"scenario_id": "harbour",
		"start":       float64(3),
	}))
	if err != nil {
		t.Fatalf("handleStartSearch failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Started search: search-42") {
		t.Errorf("Expected search ID in result, got: %s", text)
	}

	result, err = client.handleAdvanceSearch(ctx, callTool("advance_search", map[string]interface{}{"search_id": "search-42"}))
	if err != nil {
		t.Fatalf("handleAdvanceSearch failed: %v", err)
	}
	if advanceBody["steps"] != 1 {
		t.Errorf("Expected default of 1 step, got %d", advanceBody["steps"])
	}
	text := resultText(t, result)
	for _, want := range []string{"Executed 1 of 1 requested steps", "1. expanded (1,0), discovered 2", "Open (2): (0,0) (1,1)"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got:\n%s", want, text)
		}
	}

	result, err = client.handleGetSearch(ctx, callTool("get_search", map[string]interface{}{"search_id": "search-42"}))
	if err != nil {
		t.Fatalf("handleGetSearch failed: %v", err)
	}
	text = resultText(t, result)
	if !strings.Contains(text, "Path found: 3 cells, cost 2.000") {
		t.Errorf("Expected found path in result, got:\n%s", text)
	}

	if _, err := client.handleDeleteSearch(ctx, callTool("delete_search", map[string]interface{}{"search_id": "search-42"})); err != nil {
		t.Fatalf("handleDeleteSearch failed: %v", err)
	}
	if deleted != "search-42" {
		t.Errorf("Expected search-42 to be deleted, got %q", deleted)
	}
}

func TestFormatSearchInfo_Stopped(t *testing.T) {
	info := &service.SearchInfo{ID: "s", Steps: 4, Done: true, Error: "no path found"}

	result := formatSearchInfo(info)

	if !strings.Contains(result, "✗ Search stopped: no path found") {
		t.Errorf("Expected stop reason in result, got: %s", result)
	}
}

func TestClient_handleRoutingInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleRoutingInstructions(context.Background(), callTool("routing_instructions", nil))
	if err != nil {
		t.Fatalf("handleRoutingInstructions failed: %v", err)
	}
	text := resultText(t, result)

	expectedContent := []string{
		"Ship Route Planner - Instructions",
		"GRID MODEL:",
		"MAP LEGEND",
		"COST RULES:",
		"CONNECTIVITY:",
		"STEP-DRIVEN SEARCHES:",
	}
	for _, content := range expectedContent {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions, got: %s", content, text)
		}
	}
}
