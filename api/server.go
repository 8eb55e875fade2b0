package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wricardo/shiproute/routing/config"
	"github.com/wricardo/shiproute/routing/planner"
	"github.com/wricardo/shiproute/routing/service"
	"github.com/wricardo/shiproute/routing/session"
	"github.com/wricardo/shiproute/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.RouteService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case search
// steps are not streamed.
func NewServer(routeService service.RouteService, hub *websocket.Hub) *Server {
	s := &Server{
		service: routeService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(corsMiddleware)

	// Original routing contract on the default scenario
	s.router.HandleFunc("/", s.handleRoot).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/find_route", s.handleFindRoute).Methods("POST", "OPTIONS")
	s.router.HandleFunc("/grid_info", s.handleGridInfo).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Scenarios
	api.HandleFunc("/scenarios", s.handleListScenarios).Methods("GET")
	api.HandleFunc("/scenarios", s.handleSaveScenario).Methods("POST", "OPTIONS")
	api.HandleFunc("/scenarios/{name}", s.handleGetScenario).Methods("GET")
	api.HandleFunc("/scenarios/{name}/grid", s.handleScenarioGrid).Methods("GET")
	api.HandleFunc("/scenarios/{name}/route", s.handleScenarioRoute).Methods("POST", "OPTIONS")

	// Step-driven searches
	api.HandleFunc("/searches", s.handleStartSearch).Methods("POST", "OPTIONS")
	api.HandleFunc("/searches", s.handleListSearches).Methods("GET")
	api.HandleFunc("/searches/{id}", s.handleGetSearch).Methods("GET")
	api.HandleFunc("/searches/{id}", s.handleDeleteSearch).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/searches/{id}/advance", s.handleAdvanceSearch).Methods("POST", "OPTIONS")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// corsMiddleware allows every origin and answers preflight requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a service error to its HTTP status
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planner.ErrUnreachable):
		respondError(w, http.StatusUnprocessableEntity, planner.ErrUnreachable.Error())
	case errors.Is(err, planner.ErrOutOfBounds),
		errors.Is(err, planner.ErrImpassableEndpoint),
		errors.Is(err, planner.ErrInvalidScenario),
		errors.Is(err, config.ErrInvalidScenario),
		errors.Is(err, service.ErrInvalidSteps):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, config.ErrScenarioNotFound),
		errors.Is(err, session.ErrSearchNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody decodes an optional JSON body; an empty body leaves v untouched
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

// General Handlers

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Ship Routing API is running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// handleFindRoute routes on the default scenario; both indices are required
func (s *Server) handleFindRoute(w http.ResponseWriter, r *http.Request) {
	var req service.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Start == nil || req.End == nil {
		respondError(w, http.StatusBadRequest, "start and end are required")
		return
	}

	result, err := s.service.FindRoute(r.Context(), "", req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGridInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GridInfo(r.Context(), r.URL.Query().Get("scenario"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// Scenario Handlers

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.service.ListScenarios(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if scenarios == nil {
		scenarios = []*service.ScenarioInfo{}
	}
	respondJSON(w, http.StatusOK, scenarios)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	scenario, err := s.service.LoadScenario(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, scenario)
}

func (s *Server) handleSaveScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
		planner.Scenario
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := req.ScenarioID
	if id == "" {
		id = scenarioFileName(req.Name)
	}
	if id == "" {
		respondError(w, http.StatusBadRequest, "Scenario name is required")
		return
	}

	if err := s.service.SaveScenario(r.Context(), id, &req.Scenario); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Scenario saved successfully",
		"scenario_id": id,
	})
}

func (s *Server) handleScenarioGrid(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GridInfo(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleScenarioRoute(w http.ResponseWriter, r *http.Request) {
	var req service.RouteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.FindRoute(r.Context(), mux.Vars(r)["name"], req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Search Handlers

func (s *Server) handleStartSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
		service.RouteRequest
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.service.StartSearch(r.Context(), req.ScenarioID, req.RouteRequest)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := s.service.ListSearches(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"searches": searches,
		"total":    len(searches),
	})
}

func (s *Server) handleGetSearch(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSearch(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSearch(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSearch(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := s.service.DeleteSearch(r.Context(), info.ID); err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(info.ID, websocket.EventSearchDeleted, nil)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Search deleted successfully",
	})
}

func (s *Server) handleAdvanceSearch(w http.ResponseWriter, r *http.Request) {
	searchID := mux.Vars(r)["id"]

	req := struct {
		Steps int `json:"steps"`
	}{Steps: 1}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.AdvanceSearch(r.Context(), searchID, req.Steps)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		for _, step := range result.Steps {
			s.hub.BroadcastStep(result.SearchID, step)
		}
	}

	respondJSON(w, http.StatusOK, result)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	searchID := r.URL.Query().Get("search")
	if searchID == "" {
		http.Error(w, "search parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}

	info, err := s.service.GetSearch(r.Context(), searchID)
	if err != nil {
		http.Error(w, "Invalid search", http.StatusNotFound)
		return
	}

	// hub clients are keyed by the stored ID
	s.hub.ServeWS(w, r, info.ID)
}

// scenarioFileName turns a display name into a file identifier
func scenarioFileName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
}
