package mab

import "errors"

var (
	// ErrInvalidConfiguration signals that a hyperparameter combination is
	// structurally invalid for the underlying model. Arms turn it into a
	// Penalty reward instead of failing the run.
	ErrInvalidConfiguration = errors.New("invalid hyperparameter configuration")

	// ErrParamLength is returned by Build when the parameter vector does not
	// match the generator's space.
	ErrParamLength = errors.New("parameter vector length mismatch")

	// ErrInvalidSpec is returned for malformed hyperparameter bounds.
	ErrInvalidSpec = errors.New("invalid hyperparameter definition")

	// ErrNoArms is returned when an engine is created without arms.
	ErrNoArms = errors.New("no arms configured")

	// ErrDuplicateArm is returned when two arms share a name.
	ErrDuplicateArm = errors.New("duplicate arm name")

	// ErrInvalidPolicy is returned for unknown policies or out-of-range
	// policy coefficients.
	ErrInvalidPolicy = errors.New("invalid selection policy")

	// ErrEngineUsed is returned when Fit is called twice on the same engine.
	ErrEngineUsed = errors.New("engine already used")
)
