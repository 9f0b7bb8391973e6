package qualityloop

import "errors"

// Construction-time errors. Anything wrong with the rubric or config is
// permanent and surfaces before a single attempt runs; generator failures
// during Run are transient and propagate to the caller untouched.
var (
	ErrInvalidRubric         = errors.New("invalid rubric")
	ErrInvalidConfig         = errors.New("invalid loop config")
	ErrUnknownFloorCriterion = errors.New("floor references unknown criterion")
)
