// Package metadata stores the title and description shown as alt and title
// text for media files.
package metadata

import (
	"context"
	"fmt"

	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
)

// Store reads and writes image metadata keyed by root-relative path. Get
// returns nil without an error when nothing is stored for a path.
type Store interface {
	Get(ctx context.Context, path string) (*imagetext.Metadata, error)
	Set(ctx context.Context, path string, meta imagetext.Metadata) error
}

// Open returns the store named by driver. dsn is the database file for
// "sqlite" and the project root for "sidecar".
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(dsn)
	case "sidecar":
		return NewSidecar(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported metadata driver: %s", driver)
	}
}
