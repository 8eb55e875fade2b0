package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/shiproute/routing/planner"
)

// routeServiceImpl implements the RouteService interface
type routeServiceImpl struct {
	searches SearchManager
	configs  ScenarioManager

	planners map[string]*compiledScenario
	mu       sync.RWMutex
}

// compiledScenario is a scenario together with the planner built from it
type compiledScenario struct {
	scenario *planner.Scenario
	planner  *planner.Planner
}

// NewRouteService creates a new route service instance
func NewRouteService(searches SearchManager, configs ScenarioManager) RouteService {
	return &routeServiceImpl{
		searches: searches,
		configs:  configs,
		planners: make(map[string]*compiledScenario),
	}
}

// FindRoute runs a search to completion on the scenario grid
func (s *routeServiceImpl) FindRoute(ctx context.Context, scenarioID string, req RouteRequest) (*RouteResult, error) {
	id, compiled, err := s.resolve(scenarioID)
	if err != nil {
		return nil, err
	}

	start, goal, err := endpoints(compiled, req)
	if err != nil {
		return nil, err
	}

	result, err := compiled.planner.FindPath(ctx, start, goal)
	if err != nil {
		log.Printf("[ROUTE] %s %v -> %v: %v", id, start, goal, err)
		return nil, err
	}

	grid := compiled.planner.Grid()
	path := make([]int, len(result.Path))
	for i, c := range result.Path {
		path[i] = planner.Index(c, grid.Width())
	}

	log.Printf("[ROUTE] %s %v -> %v: %d cells, cost %.3f, %d expanded", id, start, goal, len(path), result.Cost, result.Expanded)

	return &RouteResult{
		Scenario:   id,
		Path:       path,
		Cells:      result.Path,
		Cost:       result.Cost,
		Expanded:   result.Expanded,
		GridValues: planner.Values(grid),
	}, nil
}

// GridInfo returns the grid values and knobs of a scenario
func (s *routeServiceImpl) GridInfo(ctx context.Context, scenarioID string) (*GridInfo, error) {
	id, compiled, err := s.resolve(scenarioID)
	if err != nil {
		return nil, err
	}

	grid := compiled.planner.Grid()
	opts := compiled.planner.Options()
	start, goal := compiled.scenario.DefaultEndpoints()

	info := &GridInfo{
		Scenario:     id,
		Name:         compiled.scenario.Name,
		Width:        grid.Width(),
		Height:       grid.Height(),
		Size:         grid.Width() * grid.Height(),
		GridValues:   planner.Values(grid),
		Connectivity: opts.Connectivity,
		CostPolicy:   opts.CostPolicy,
		Heuristic:    opts.Heuristic,
		Start:        start,
		Goal:         goal,
	}
	if terrain, ok := grid.(*planner.TerrainGrid); ok {
		info.Shallow = terrain.ShallowCells()
	}
	return info, nil
}

// StartSearch creates a step-driven search. The search outlives the request
// and is cancelled when it is deleted or expires.
func (s *routeServiceImpl) StartSearch(ctx context.Context, scenarioID string, req RouteRequest) (*SearchInfo, error) {
	id, compiled, err := s.resolve(scenarioID)
	if err != nil {
		return nil, err
	}

	start, goal, err := endpoints(compiled, req)
	if err != nil {
		return nil, err
	}

	searchCtx, cancel := context.WithCancel(context.Background())
	search, err := compiled.planner.NewSearch(searchCtx, start, goal)
	if err != nil {
		cancel()
		return nil, err
	}

	session, err := s.searches.Create(id, search, cancel)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create search: %w", err)
	}

	log.Printf("[SEARCH] %s started on %s: %v -> %v", session.ID, id, start, goal)

	session.Lock()
	defer session.Unlock()
	return snapshot(session), nil
}

// AdvanceSearch performs up to steps expansions, stopping early once the
// search is done
func (s *routeServiceImpl) AdvanceSearch(ctx context.Context, searchID string, steps int) (*AdvanceResult, error) {
	if steps < MinAdvanceSteps || steps > MaxAdvanceSteps {
		return nil, fmt.Errorf("%w: steps must be between %d and %d, got %d", ErrInvalidSteps, MinAdvanceSteps, MaxAdvanceSteps, steps)
	}

	session, err := s.searches.Get(searchID)
	if err != nil {
		return nil, err
	}
	_ = s.searches.UpdateLastAccessed(searchID)

	session.Lock()
	defer session.Unlock()

	result := &AdvanceResult{
		SearchID:       session.ID,
		RequestedSteps: steps,
		Steps:          make([]planner.StepResult, 0, steps),
	}

	wasDone := session.Search.Done()
	for i := 0; i < steps && !session.Search.Done(); i++ {
		if ctx.Err() != nil {
			break
		}
		// a failed search is done; the error is reported through the snapshot
		step, _ := session.Search.Advance()
		result.Steps = append(result.Steps, step)
	}
	result.StepsExecuted = len(result.Steps)
	result.Search = snapshot(session)

	if !wasDone && session.Search.Done() {
		if err := session.Search.Err(); err != nil {
			log.Printf("[SEARCH] %s stopped after %d steps: %v", session.ID, session.Search.Steps(), err)
		} else {
			log.Printf("[SEARCH] %s found a path after %d steps, cost %.3f", session.ID, session.Search.Steps(), result.Search.Cost)
		}
	}

	return result, nil
}

// GetSearch returns a snapshot of a search
func (s *routeServiceImpl) GetSearch(ctx context.Context, searchID string) (*SearchInfo, error) {
	session, err := s.searches.Get(searchID)
	if err != nil {
		return nil, err
	}
	_ = s.searches.UpdateLastAccessed(searchID)

	session.Lock()
	defer session.Unlock()
	return snapshot(session), nil
}

// ListSearches returns snapshots of all searches, oldest first
func (s *routeServiceImpl) ListSearches(ctx context.Context) ([]*SearchInfo, error) {
	sessions := s.searches.List()
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	infos := make([]*SearchInfo, 0, len(sessions))
	for _, session := range sessions {
		session.Lock()
		infos = append(infos, snapshot(session))
		session.Unlock()
	}
	return infos, nil
}

// DeleteSearch removes a search and cancels it
func (s *routeServiceImpl) DeleteSearch(ctx context.Context, searchID string) error {
	if err := s.searches.Delete(searchID); err != nil {
		return err
	}
	log.Printf("[SEARCH] %s deleted", searchID)
	return nil
}

// ListScenarios returns all available scenarios
func (s *routeServiceImpl) ListScenarios(ctx context.Context) ([]*ScenarioInfo, error) {
	return s.configs.ListScenarios()
}

// LoadScenario loads a scenario by name; an empty name is the default scenario
func (s *routeServiceImpl) LoadScenario(ctx context.Context, name string) (*planner.Scenario, error) {
	name = scenarioKey(name)
	if name == "" || name == s.configs.DefaultName() {
		return s.configs.GetDefault(), nil
	}
	return s.configs.LoadScenario(name)
}

// SaveScenario saves a scenario and drops any planner built from the old one
func (s *routeServiceImpl) SaveScenario(ctx context.Context, name string, scenario *planner.Scenario) error {
	if err := s.configs.SaveScenario(name, scenario); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.planners, scenarioKey(name))
	s.mu.Unlock()
	return nil
}

// scenarioKey is the scenario ID with any .json extension removed, matching
// the names the scenario manager stores files under
func scenarioKey(id string) string {
	return strings.TrimSuffix(id, ".json")
}

// resolve returns the scenario ID and compiled planner for a scenario,
// building and caching the planner on first use
func (s *routeServiceImpl) resolve(scenarioID string) (string, *compiledScenario, error) {
	scenarioID = scenarioKey(scenarioID)
	if scenarioID == "" {
		scenarioID = s.configs.DefaultName()
	}

	s.mu.RLock()
	compiled, exists := s.planners[scenarioID]
	s.mu.RUnlock()
	if exists {
		return scenarioID, compiled, nil
	}

	scenario, err := s.LoadScenario(context.Background(), scenarioID)
	if err != nil {
		return "", nil, err
	}
	p, err := planner.NewPlannerFor(scenario)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build planner for %s: %w", scenarioID, err)
	}

	compiled = &compiledScenario{scenario: scenario, planner: p}
	s.mu.Lock()
	s.planners[scenarioID] = compiled
	s.mu.Unlock()
	return scenarioID, compiled, nil
}

// endpoints converts the requested linear indices to cells, falling back to
// the scenario defaults
func endpoints(compiled *compiledScenario, req RouteRequest) (planner.Cell, planner.Cell, error) {
	start, goal := compiled.scenario.DefaultEndpoints()
	grid := compiled.planner.Grid()
	size := grid.Width() * grid.Height()

	if req.Start != nil {
		if *req.Start < 0 || *req.Start >= size {
			return start, goal, fmt.Errorf("%w: start index %d (grid has %d cells)", planner.ErrOutOfBounds, *req.Start, size)
		}
		start = planner.CellAt(*req.Start, grid.Width())
	}
	if req.End != nil {
		if *req.End < 0 || *req.End >= size {
			return start, goal, fmt.Errorf("%w: end index %d (grid has %d cells)", planner.ErrOutOfBounds, *req.End, size)
		}
		goal = planner.CellAt(*req.End, grid.Width())
	}
	return start, goal, nil
}

// snapshot builds a SearchInfo; the caller holds the session lock
func snapshot(session *Session) *SearchInfo {
	search := session.Search
	info := &SearchInfo{
		ID:             session.ID,
		ScenarioID:     session.ScenarioID,
		Start:          search.Start(),
		Goal:           search.Goal(),
		Steps:          search.Steps(),
		Done:           search.Done(),
		Open:           search.Open(),
		Visited:        search.Visited(),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
	}
	if info.Done {
		last := search.Last()
		info.Found = last.Found
		info.Path = last.Path
		info.Cost = last.Cost
	}
	if err := search.Err(); err != nil {
		info.Error = err.Error()
	}
	return info
}
