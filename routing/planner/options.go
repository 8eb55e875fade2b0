package planner

import "fmt"

// Options holds the planner knobs
type Options struct {
	Connectivity Connectivity
	CostPolicy   CostPolicy
	Heuristic    HeuristicKind

	// Observer, when set, receives every expansion event in order
	Observer Observer
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions is 4-connected, inverse weight, Manhattan
func DefaultOptions() Options {
	return Options{
		Connectivity: FourConnected,
		CostPolicy:   InverseWeight,
		Heuristic:    Manhattan,
	}
}

func WithConnectivity(c Connectivity) Option {
	return func(o *Options) { o.Connectivity = c }
}

func WithCostPolicy(p CostPolicy) Option {
	return func(o *Options) { o.CostPolicy = p }
}

func WithHeuristic(h HeuristicKind) Option {
	return func(o *Options) { o.Heuristic = h }
}

// WithObserver registers a callback for expansion events. Events never
// affect the outcome of the search.
func WithObserver(fn Observer) Option {
	return func(o *Options) { o.Observer = fn }
}

// Validate checks that every knob has a known value
func (o Options) Validate() error {
	switch o.Connectivity {
	case FourConnected, EightConnected:
	default:
		return fmt.Errorf("%w: unknown connectivity %q", ErrInvalidOption, o.Connectivity)
	}
	switch o.CostPolicy {
	case InverseWeight, TerrainMultiplier:
	default:
		return fmt.Errorf("%w: unknown cost policy %q", ErrInvalidOption, o.CostPolicy)
	}
	if _, err := HeuristicFor(o.Heuristic); err != nil {
		return err
	}
	return nil
}
