package template

import (
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fingerprint-id/engine/internal/models"
)

// DecodeCache wraps Decode with a bounded LRU keyed by an FNV-1a hash of
// the raw string, avoiding repeat gzip+JSON decode cost when the same
// stored templates are matched against many probes within one
// identification sweep. A hit is served only when the raw string stored in
// the entry equals the input, so a hash collision can never return another
// template's features: the cache only ever serves a previously
// successfully decoded FeatureSet back for the exact string that produced
// it. A hit does not call Classify again.
type DecodeCache struct {
	cache *lru.Cache[uint64, cacheEntry]
}

type cacheEntry struct {
	raw string
	fs  *models.FeatureSet
}

func NewDecodeCache(size int) (*DecodeCache, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[uint64, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &DecodeCache{cache: c}, nil
}

// DecodeCached decodes raw, serving a cached result when available.
func (d *DecodeCache) DecodeCached(raw string) (*models.FeatureSet, error) {
	key := hashKey(raw)
	if entry, ok := d.cache.Get(key); ok && entry.raw == raw {
		return entry.fs, nil
	}

	fs, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	d.cache.Add(key, cacheEntry{raw: raw, fs: fs})
	return fs, nil
}

func hashKey(raw string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(raw))
	return h.Sum64()
}
