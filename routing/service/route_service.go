package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/shiproute/routing/planner"
)

// RouteService defines all routing operations
type RouteService interface {
	// One-shot routing
	FindRoute(ctx context.Context, scenarioID string, req RouteRequest) (*RouteResult, error)
	GridInfo(ctx context.Context, scenarioID string) (*GridInfo, error)

	// Step-driven searches
	StartSearch(ctx context.Context, scenarioID string, req RouteRequest) (*SearchInfo, error)
	AdvanceSearch(ctx context.Context, searchID string, steps int) (*AdvanceResult, error)
	GetSearch(ctx context.Context, searchID string) (*SearchInfo, error)
	ListSearches(ctx context.Context) ([]*SearchInfo, error)
	DeleteSearch(ctx context.Context, searchID string) error

	// Scenarios
	ListScenarios(ctx context.Context) ([]*ScenarioInfo, error)
	LoadScenario(ctx context.Context, name string) (*planner.Scenario, error)
	SaveScenario(ctx context.Context, name string, scenario *planner.Scenario) error
}

// SearchManager defines search session storage operations
type SearchManager interface {
	Create(scenarioID string, search *planner.Search, cancel context.CancelFunc) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ScenarioManager handles scenario loading
type ScenarioManager interface {
	LoadScenario(name string) (*planner.Scenario, error)
	ListScenarios() ([]*ScenarioInfo, error)
	GetDefault() *planner.Scenario
	DefaultName() string
	SaveScenario(name string, scenario *planner.Scenario) error
}

// Session is a step-driven search kept between calls. The embedded mutex
// guards Search and LastAccessedAt.
type Session struct {
	sync.Mutex

	ID             string
	ScenarioID     string
	Search         *planner.Search
	CreatedAt      time.Time
	LastAccessedAt time.Time

	// Cancel stops the search; it is called when the session is removed
	Cancel context.CancelFunc
}
