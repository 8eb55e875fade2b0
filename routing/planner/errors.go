package planner

import "errors"

var (
	ErrOutOfBounds        = errors.New("cell out of bounds")
	ErrImpassableEndpoint = errors.New("endpoint is impassable")
	ErrUnreachable        = errors.New("no path found")

	ErrInvalidGrid     = errors.New("invalid grid")
	ErrInvalidOption   = errors.New("invalid planner option")
	ErrInvalidScenario = errors.New("invalid scenario")
)
