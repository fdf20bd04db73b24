// Package cache stores rendered QR images keyed by a fingerprint of the
// render request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Key fingerprints parts into a hex SHA-256 digest. Each part is length
// prefixed so ("ab", "c") and ("a", "bc") differ.
func Key(parts ...[]byte) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, string, []byte) error         { return nil }
func (NopCache) Close() error                                      { return nil }
