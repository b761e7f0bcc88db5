// internal/storage/archive/interface.go
package archive

import "context"

// Storage is a flat blob store addressed by slash separated keys such as
// reports/BTCUSDT/1h/x.json.
type Storage interface {
	Write(ctx context.Context, key string, data []byte) error

	Read(ctx context.Context, key string) ([]byte, error)

	// List returns every key under prefix. A prefix with nothing under it
	// yields an empty list, not an error.
	List(ctx context.Context, prefix string) ([]string, error)

	Exists(ctx context.Context, key string) (bool, error)
}
