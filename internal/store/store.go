// Package store holds the persistent key/value store backing sessions and
// cached profiles. Keys are flat strings namespaced by the "mira:" prefix.
// Nothing outside the token service is allowed to read or write it.
package store

import "context"

const Prefix = "mira:"

// KV is a flat string key/value store. There is no schema versioning; values
// are JSON-encoded blobs and the last writer wins.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}
