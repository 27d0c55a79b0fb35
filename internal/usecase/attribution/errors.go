package attribution

import "errors"

var (
	// ErrInvalidParams is returned when an engine is built with unusable thresholds.
	ErrInvalidParams = errors.New("invalid attribution params")
	// ErrCoverageViolation means a label of the filtered transcript was left without a name.
	// It signals a defect in the engine and is never expected at runtime.
	ErrCoverageViolation = errors.New("label left unmapped after consolidation")
)
