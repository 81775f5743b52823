package words

import "context"

// Store persists the watched keyword set. Names are exact strings;
// uniqueness of the name is the only invariant.
//
// Put and Delete are conditional single-shot mutations: they are the
// concurrency control point for racing commands, so implementations
// must not decompose them into separate read and write steps.
type Store interface {
	// Put inserts name, failing with ErrExists when it is already
	// present.
	Put(ctx context.Context, name string) error
	// Delete removes name, failing with ErrNotFound when it is
	// absent.
	Delete(ctx context.Context, name string) error
	// List returns every stored name, in no particular order.
	List(ctx context.Context) ([]string, error)
}
