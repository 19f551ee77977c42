package ports

import "context"

// VariableStore mirrors the equipment's Measured array into the shared
// external store. Persistence and replication of that store are someone
// else's problem; this port only needs slot writes and the resize-on-init
// semantics.
type VariableStore interface {
	// EnsureMeasured creates the Measured array sized n when absent, or
	// resizes an existing one preserving values (growth zero-fills,
	// shrinkage truncates).
	EnsureMeasured(ctx context.Context, n int) error

	// SetMeasured overwrites one slot with the latest reading.
	SetMeasured(ctx context.Context, index int, value float64) error

	// Measured returns the current array, mostly for tooling.
	Measured(ctx context.Context) ([]float64, error)
}
