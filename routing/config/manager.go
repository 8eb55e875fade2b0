package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/shiproute/routing/planner"
	"github.com/wricardo/shiproute/routing/service"
)

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrInvalidScenario  = errors.New("invalid scenario")
)

// DefaultScenario is loaded as the default when present
const DefaultScenario = "classic"

// minimalName identifies the built-in scenario used when no file is usable
const minimalName = "default"

// Manager handles scenario loading and caching
type Manager struct {
	configDir       string
	defaultName     string
	defaultScenario *planner.Scenario
	scenarios       map[string]*planner.Scenario
	mu              sync.RWMutex
}

// NewManager creates a new scenario manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		scenarios: make(map[string]*planner.Scenario),
	}

	m.loadDefaultScenario()
	return m, nil
}

// LoadScenario loads a scenario by name
func (m *Manager) LoadScenario(name string) (*planner.Scenario, error) {
	name = strings.TrimSuffix(name, ".json")

	m.mu.RLock()
	// Check cache first
	if scenario, exists := m.scenarios[name]; exists {
		m.mu.RUnlock()
		return scenario, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if scenario, exists := m.scenarios[name]; exists {
		return scenario, nil
	}

	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrScenarioNotFound, name)
	}

	data, err := os.ReadFile(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
		}
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario planner.Scenario
	if err := json.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidScenario, name, err)
	}

	if err := planner.ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	m.scenarios[name] = &scenario
	return &scenario, nil
}

// ListScenarios returns information about all valid scenario files
func (m *Manager) ListScenarios() ([]*service.ScenarioInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var scenarios []*service.ScenarioInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")

		scenario, err := m.LoadScenario(name)
		if err != nil {
			// Skip invalid scenarios
			continue
		}

		opts := scenario.PlannerOptions()
		scenarios = append(scenarios, &service.ScenarioInfo{
			Filename:     entry.Name(),
			ScenarioID:   name,
			Name:         scenario.Name,
			Description:  scenario.Description,
			Width:        scenario.Width,
			Height:       scenario.Height,
			Connectivity: opts.Connectivity,
			CostPolicy:   opts.CostPolicy,
			Heuristic:    opts.Heuristic,
		})
	}

	return scenarios, nil
}

// GetDefault returns the default scenario
func (m *Manager) GetDefault() *planner.Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultScenario
}

// DefaultName returns the ID of the default scenario
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefault sets the default scenario by name
func (m *Manager) SetDefault(name string) error {
	scenario, err := m.LoadScenario(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = strings.TrimSuffix(name, ".json")
	m.defaultScenario = scenario
	return nil
}

// RefreshCache drops all cached scenarios and reloads the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.scenarios = make(map[string]*planner.Scenario)
	m.mu.Unlock()

	m.loadDefaultScenario()
}

// SaveScenario validates a scenario and writes it to disk
func (m *Manager) SaveScenario(name string, scenario *planner.Scenario) error {
	if err := planner.ValidateScenario(scenario); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: invalid file name %q", ErrInvalidScenario, name)
	}

	data, err := json.MarshalIndent(scenario, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	if err := os.WriteFile(m.path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	m.mu.Lock()
	m.scenarios[name] = scenario
	if name == m.defaultName {
		m.defaultScenario = scenario
	}
	m.mu.Unlock()

	return nil
}

// loadDefaultScenario picks classic, else the first valid file, else the
// built-in minimal scenario
func (m *Manager) loadDefaultScenario() {
	name := DefaultScenario
	scenario, err := m.LoadScenario(name)
	if err != nil {
		scenarios, listErr := m.ListScenarios()
		if listErr != nil || len(scenarios) == 0 {
			name, scenario = minimalName, createMinimalScenario()
		} else {
			name = scenarios[0].ScenarioID
			scenario, err = m.LoadScenario(name)
			if err != nil {
				name, scenario = minimalName, createMinimalScenario()
			}
		}
	}

	m.mu.Lock()
	m.defaultName = name
	m.defaultScenario = scenario
	m.mu.Unlock()
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.configDir, name+".json")
}

// createMinimalScenario creates a minimal valid scenario
func createMinimalScenario() *planner.Scenario {
	return &planner.Scenario{
		Name:        "default",
		Description: "Default minimal scenario",
		Width:       5,
		Height:      5,
		Layout: []string{
			".....",
			".###.",
			"...#.",
			".#...",
			".....",
		},
		Connectivity: planner.FourConnected,
		CostPolicy:   planner.InverseWeight,
		Heuristic:    planner.Manhattan,
		Start:        &planner.Cell{Row: 0, Col: 0},
		Goal:         &planner.Cell{Row: 4, Col: 4},
	}
}
