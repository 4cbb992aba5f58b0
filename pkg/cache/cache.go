// Package cache stores rendered artifacts so repeated exports of an
// unchanged diagram skip painting and rasterization.
//
// Backends:
//   - FileCache: one JSON file per key under a directory, for the CLI
//   - RedisCache: shared cache for several API instances
//   - MongoCache: document store with a TTL index
//   - NullCache: caching disabled
//
// Keys come from a [Keyer]; wrap a Keyer with [NewScopedKeyer] to give a
// tenant its own namespace. [Instrument] reports hits and misses to the
// observability hooks.
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long an exported artifact stays cached.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. The bool is false on a miss; an
	// expired entry is a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// ArtifactKeyOpts are the export settings that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Engine     string  `json:"engine,omitempty"`
	Scale      float64 `json:"scale"`
	Border     float64 `json:"border"`
	Crisp      bool    `json:"crisp"`
	Foreign    bool    `json:"foreign"`
	Background string  `json:"background,omitempty"`
	Quality    int     `json:"quality,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey returns the key of one exported format of a diagram whose
	// canonical JSON hashes to diagramHash.
	ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unscoped keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", diagramHash, opts)
}
