package planner

import (
	"container/heap"
	"context"
	"sort"
)

// Search is the state of a single A* search. It is not safe for concurrent
// use; all of its state is discarded with it.
type Search struct {
	ctx       context.Context
	grid      GridSource
	opts      Options
	heuristic Heuristic
	start     Cell
	goal      Cell

	open    openSet
	nodes   map[Cell]*node
	closed  map[Cell]bool
	visited map[Cell]bool

	steps int
	done  bool
	last  StepResult
	err   error
}

func newSearch(ctx context.Context, grid GridSource, opts Options, heuristic Heuristic, start, goal Cell) *Search {
	s := &Search{
		ctx:       ctx,
		grid:      grid,
		opts:      opts,
		heuristic: heuristic,
		start:     start,
		goal:      goal,
		open:      make(openSet, 0),
		nodes:     make(map[Cell]*node),
		closed:    make(map[Cell]bool),
		visited:   make(map[Cell]bool),
	}

	h := heuristic(start, goal)
	startNode := &node{
		cell:      start,
		index:     Index(start, grid.Width()),
		h:         h,
		f:         h,
		heapIndex: -1,
	}
	s.nodes[start] = startNode
	heap.Push(&s.open, startNode)

	return s
}

// Advance performs one expansion. Once the search is done every further call
// returns the final step again. The error is ErrUnreachable when the open set
// is exhausted and the context error when the search was cancelled.
func (s *Search) Advance() (StepResult, error) {
	if s.done {
		return s.last, s.err
	}
	if err := s.ctx.Err(); err != nil {
		return s.finish(StepResult{Step: s.steps, Done: true}, err)
	}
	if s.open.Len() == 0 {
		return s.finish(StepResult{Step: s.steps, Done: true}, ErrUnreachable)
	}

	s.steps++
	current := heap.Pop(&s.open).(*node)
	s.visited[current.cell] = true
	step := StepResult{Step: s.steps, Current: current.cell}

	if current.cell == s.goal {
		step.Done = true
		step.Found = true
		step.Path = s.reconstructPath(current)
		step.Cost = current.g
		for _, c := range step.Path {
			s.emit(&step, Event{Cell: c, Kind: PathMember})
		}
		return s.finish(step, nil)
	}

	if s.opts.Connectivity == EightConnected {
		s.closed[current.cell] = true
	}
	s.emit(&step, Event{Cell: current.cell, Kind: FrontierFinalized})

	for _, off := range neighborOffsets(s.opts.Connectivity) {
		next := Cell{Row: current.cell.Row + off.dr, Col: current.cell.Col + off.dc}
		if !Passable(s.grid, next) || s.closed[next] {
			continue
		}

		tentativeG := current.g + EdgeCost(s.grid, s.opts.CostPolicy, current.cell, next)
		n, seen := s.nodes[next]
		if seen && tentativeG >= n.g {
			continue
		}
		if !seen {
			n = &node{
				cell:      next,
				index:     Index(next, s.grid.Width()),
				h:         s.heuristic(next, s.goal),
				heapIndex: -1,
			}
			s.nodes[next] = n
		}

		n.g = tentativeG
		n.f = tentativeG + n.h
		n.parent = current.cell
		n.hasParent = true

		if n.heapIndex >= 0 {
			heap.Fix(&s.open, n.heapIndex)
		} else {
			heap.Push(&s.open, n)
			s.emit(&step, Event{Cell: next, Kind: FrontierDiscovered})
		}
	}

	return step, nil
}

// Run advances the search until it finds the goal or fails
func (s *Search) Run() (*Result, error) {
	for {
		step, err := s.Advance()
		if err != nil {
			return nil, err
		}
		if step.Done {
			return &Result{Path: step.Path, Cost: step.Cost, Expanded: step.Step}, nil
		}
	}
}

func (s *Search) Start() Cell { return s.start }
func (s *Search) Goal() Cell  { return s.goal }
func (s *Search) Steps() int  { return s.steps }
func (s *Search) Done() bool  { return s.done }
func (s *Search) Err() error  { return s.err }

// Last returns the most recent step
func (s *Search) Last() StepResult { return s.last }

// Open returns the cells currently in the open set, sorted by linear index
func (s *Search) Open() []Cell {
	cells := make([]Cell, 0, s.open.Len())
	for _, n := range s.open {
		cells = append(cells, n.cell)
	}
	return s.sortCells(cells)
}

// Visited returns every cell expanded so far, sorted by linear index
func (s *Search) Visited() []Cell {
	cells := make([]Cell, 0, len(s.visited))
	for c := range s.visited {
		cells = append(cells, c)
	}
	return s.sortCells(cells)
}

func (s *Search) sortCells(cells []Cell) []Cell {
	width := s.grid.Width()
	sort.Slice(cells, func(i, j int) bool {
		return Index(cells[i], width) < Index(cells[j], width)
	})
	return cells
}

func (s *Search) finish(step StepResult, err error) (StepResult, error) {
	s.done = true
	s.last = step
	s.err = err
	return step, err
}

func (s *Search) emit(step *StepResult, ev Event) {
	step.Events = append(step.Events, ev)
	if s.opts.Observer != nil {
		s.opts.Observer(ev)
	}
}

// reconstructPath follows back-pointers from the goal to the start
func (s *Search) reconstructPath(goal *node) []Cell {
	path := []Cell{goal.cell}
	current := goal
	for current.hasParent {
		current = s.nodes[current.parent]
		path = append(path, current.cell)
	}
	// reverse path
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
