package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/shiproute/routing/planner"
)

func createTestSearch(t *testing.T, ctx context.Context) *planner.Search {
	t.Helper()
	grid, err := planner.NewUniformWeightGrid(4, 4, 1)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}
	p, err := planner.NewPlanner(grid)
	if err != nil {
		t.Fatalf("Failed to create planner: %v", err)
	}
	search, err := p.NewSearch(ctx, planner.Cell{Row: 0, Col: 0}, planner.Cell{Row: 3, Col: 3})
	if err != nil {
		t.Fatalf("Failed to create search: %v", err)
	}
	return search
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()

	t.Run("assigns unique IDs", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			s, err := manager.Create("classic", createTestSearch(t, context.Background()), nil)
			if err != nil {
				t.Fatalf("Failed to create search: %v", err)
			}
			if len(s.ID) != 36 {
				t.Errorf("Expected a UUID, got %q", s.ID)
			}
			if seen[s.ID] {
				t.Fatalf("Duplicate ID %s", s.ID)
			}
			seen[s.ID] = true
		}
		if manager.Count() != 20 {
			t.Errorf("Expected 20 searches, got %d", manager.Count())
		}
	})

	t.Run("records metadata", func(t *testing.T) {
		s, err := manager.Create("east_coast", createTestSearch(t, context.Background()), nil)
		if err != nil {
			t.Fatalf("Failed to create search: %v", err)
		}
		if s.ScenarioID != "east_coast" {
			t.Errorf("Expected scenario 'east_coast', got '%s'", s.ScenarioID)
		}
		if s.CreatedAt.IsZero() || s.LastAccessedAt.IsZero() {
			t.Error("Expected timestamps to be set")
		}
	})

	t.Run("nil search", func(t *testing.T) {
		if _, err := manager.Create("classic", nil, nil); !errors.Is(err, ErrInvalidSearch) {
			t.Errorf("Expected ErrInvalidSearch, got %v", err)
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, err := manager.Create("classic", createTestSearch(t, context.Background()), nil)
	if err != nil {
		t.Fatalf("Failed to create search: %v", err)
	}

	t.Run("existing search", func(t *testing.T) {
		s, err := manager.Get(created.ID)
		if err != nil {
			t.Fatalf("Failed to get search: %v", err)
		}
		if s != created {
			t.Error("Expected the same session")
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		if _, err := manager.Get(strings.ToUpper(created.ID)); err != nil {
			t.Errorf("Expected lookup to ignore case, got %v", err)
		}
	})

	t.Run("missing search", func(t *testing.T) {
		if _, err := manager.Get("does-not-exist"); err != ErrSearchNotFound {
			t.Errorf("Expected ErrSearchNotFound, got %v", err)
		}
	})
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	s, err := manager.Create("classic", createTestSearch(t, ctx), cancel)
	if err != nil {
		t.Fatalf("Failed to create search: %v", err)
	}

	if err := manager.Delete(s.ID); err != nil {
		t.Fatalf("Failed to delete search: %v", err)
	}
	if ctx.Err() == nil {
		t.Error("Expected the search context to be cancelled")
	}
	if _, err := s.Search.Advance(); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected deleted search to report cancellation, got %v", err)
	}
	if _, err := manager.Get(s.ID); err != ErrSearchNotFound {
		t.Errorf("Expected ErrSearchNotFound after delete, got %v", err)
	}
	if err := manager.Delete(s.ID); err != ErrSearchNotFound {
		t.Errorf("Expected ErrSearchNotFound on second delete, got %v", err)
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()

	activeCtx, activeCancel := context.WithCancel(context.Background())
	defer activeCancel()
	expiredCtx, expiredCancel := context.WithCancel(context.Background())

	active, _ := manager.Create("classic", createTestSearch(t, activeCtx), activeCancel)
	expired, _ := manager.Create("classic", createTestSearch(t, expiredCtx), expiredCancel)

	// Simulate an idle search
	expired.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	active.LastAccessedAt = time.Now()

	deleted := manager.CleanupExpiredSessions(1 * time.Hour)
	if deleted != 1 {
		t.Errorf("Expected 1 search to be deleted, got %d", deleted)
	}

	if _, err := manager.Get(expired.ID); err != ErrSearchNotFound {
		t.Error("Expected expired search to be deleted")
	}
	if expiredCtx.Err() == nil {
		t.Error("Expected expired search to be cancelled")
	}
	if _, err := manager.Get(active.ID); err != nil {
		t.Error("Expected active search to still exist")
	}
	if activeCtx.Err() != nil {
		t.Error("Active search should not be cancelled")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	s, _ := manager.Create("classic", createTestSearch(t, context.Background()), nil)
	s.LastAccessedAt = time.Now().Add(-time.Minute)
	originalTime := s.LastAccessedAt

	if err := manager.UpdateLastAccessed(s.ID); err != nil {
		t.Fatalf("Failed to update last accessed: %v", err)
	}
	if !s.LastAccessedAt.After(originalTime) {
		t.Error("Expected LastAccessedAt to be updated")
	}
	if err := manager.UpdateLastAccessed("missing"); err != ErrSearchNotFound {
		t.Errorf("Expected ErrSearchNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	var wg sync.WaitGroup

	searches := make([]*planner.Search, 10)
	for i := range searches {
		searches[i] = createTestSearch(t, context.Background())
	}

	for _, search := range searches {
		wg.Add(1)
		go func(search *planner.Search) {
			defer wg.Done()
			s, err := manager.Create("classic", search, nil)
			if err != nil {
				t.Errorf("Failed to create search: %v", err)
				return
			}
			_, _ = manager.Get(s.ID)
			_ = manager.UpdateLastAccessed(s.ID)
			_ = manager.List()
		}(search)
	}
	wg.Wait()

	if manager.Count() != 10 {
		t.Errorf("Expected 10 searches, got %d", manager.Count())
	}
	if len(manager.List()) != 10 {
		t.Errorf("Expected List to return 10 searches, got %d", len(manager.List()))
	}
}
