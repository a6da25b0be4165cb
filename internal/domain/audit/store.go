package audit

import "context"

// Store persists audit records. Interface owned by the domain per
// hexagonal architecture; implementations handle buffering and rotation.
type Store interface {
	// Append stores audit records.
	Append(ctx context.Context, records ...Record) error

	// Flush forces pending records to storage. Called during shutdown.
	Flush(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// NopStore discards all records. Used when auditing is disabled.
type NopStore struct{}

func (NopStore) Append(context.Context, ...Record) error { return nil }
func (NopStore) Flush(context.Context) error             { return nil }
func (NopStore) Close() error                            { return nil }
