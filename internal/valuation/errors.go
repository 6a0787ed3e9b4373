package valuation

import "github.com/rotisserie/eris"

// Error kinds surfaced by the engine. Callers classify with eris.Is.
var (
	// ErrValidation marks malformed or out-of-range property input.
	// Requests failing with it are rejected outright.
	ErrValidation = eris.New("invalid property input")

	// ErrPredictionUnavailable marks a missing or broken model resource.
	// The engine recovers from it internally via the closed-form fallback;
	// it only escapes if the fallback itself cannot run.
	ErrPredictionUnavailable = eris.New("prediction unavailable")
)
