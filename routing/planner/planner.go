package planner

import (
	"context"
	"fmt"
)

// Planner finds minimum-cost paths over a read-only grid
type Planner struct {
	grid      GridSource
	opts      Options
	heuristic Heuristic
}

// NewPlanner creates a planner for the grid with the provided options
func NewPlanner(grid GridSource, options ...Option) (*Planner, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: grid cannot be nil", ErrInvalidGrid)
	}
	if err := validateDimensions(grid.Width(), grid.Height()); err != nil {
		return nil, err
	}

	opts := DefaultOptions()
	for _, option := range options {
		option(&opts)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	heuristic, err := HeuristicFor(opts.Heuristic)
	if err != nil {
		return nil, err
	}

	return &Planner{grid: grid, opts: opts, heuristic: heuristic}, nil
}

// Grid returns the grid the planner reads from
func (p *Planner) Grid() GridSource {
	return p.grid
}

// Options returns the configured knobs
func (p *Planner) Options() Options {
	return p.opts
}

// NewSearch validates the endpoints and returns a search that is driven one
// expansion at a time with Advance. Out-of-bounds or impassable endpoints are
// rejected before any cell is explored.
func (p *Planner) NewSearch(ctx context.Context, start, goal Cell) (*Search, error) {
	if err := p.checkEndpoint("start", start); err != nil {
		return nil, err
	}
	if err := p.checkEndpoint("goal", goal); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return newSearch(ctx, p.grid, p.opts, p.heuristic, start, goal), nil
}

// FindPath runs a search to completion
func (p *Planner) FindPath(ctx context.Context, start, goal Cell) (*Result, error) {
	search, err := p.NewSearch(ctx, start, goal)
	if err != nil {
		return nil, err
	}
	return search.Run()
}

// FindPathIndex is FindPath for callers that address cells by linear index
// (row*width+col). The path is returned as linear indices.
func (p *Planner) FindPathIndex(ctx context.Context, start, goal int) ([]int, float64, error) {
	size := p.grid.Width() * p.grid.Height()
	if start < 0 || start >= size {
		return nil, 0, fmt.Errorf("%w: start index %d (grid has %d cells)", ErrOutOfBounds, start, size)
	}
	if goal < 0 || goal >= size {
		return nil, 0, fmt.Errorf("%w: goal index %d (grid has %d cells)", ErrOutOfBounds, goal, size)
	}

	width := p.grid.Width()
	result, err := p.FindPath(ctx, CellAt(start, width), CellAt(goal, width))
	if err != nil {
		return nil, 0, err
	}

	indices := make([]int, len(result.Path))
	for i, c := range result.Path {
		indices[i] = Index(c, width)
	}
	return indices, result.Cost, nil
}

func (p *Planner) checkEndpoint(name string, c Cell) error {
	if !InBounds(p.grid, c) {
		return fmt.Errorf("%w: %s (%d,%d) outside %dx%d grid", ErrOutOfBounds, name, c.Row, c.Col, p.grid.Height(), p.grid.Width())
	}
	if p.grid.Weight(c.Row, c.Col) == 0 {
		return fmt.Errorf("%w: %s (%d,%d)", ErrImpassableEndpoint, name, c.Row, c.Col)
	}
	return nil
}
