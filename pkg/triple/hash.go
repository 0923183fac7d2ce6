package triple

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/orneryd/muninn/pkg/entity"
)

// DefaultHashCacheEntries is the capacity of the package-level hash cache.
const DefaultHashCacheEntries = 16384

// hashKey is the exact 12-lane canonical form of a triple: subject's four
// lanes, then the predicate's, then the object's. Comparable, so it keys the
// memo cache directly.
type hashKey [12]uint64

type hashResult struct {
	hex string
	e   entity.E
}

// HashCache memoizes triple content hashes by their exact 12-lane tuple.
//
// The memoized function is pure, so a cache hit is bit-identical to a fresh
// computation. The underlying LRU is safe for concurrent use.
type HashCache struct {
	cache *lru.Cache[hashKey, hashResult]
}

// NewHashCache creates a bounded hash cache. A non-positive capacity selects
// DefaultHashCacheEntries.
func NewHashCache(capacity int) *HashCache {
	if capacity <= 0 {
		capacity = DefaultHashCacheEntries
	}
	cache, _ := lru.New[hashKey, hashResult](capacity)
	return &HashCache{cache: cache}
}

func keyOf(r *Record) hashKey {
	return hashKey{
		r.Subject.High(), r.Subject.HighMid(), r.Subject.LowMid(), r.Subject.Low(),
		r.Predicate.High(), r.Predicate.HighMid(), r.Predicate.LowMid(), r.Predicate.Low(),
		r.Object.High(), r.Object.HighMid(), r.Object.LowMid(), r.Object.Low(),
	}
}

// computeHash packs the 12 lanes as 96 bytes big-endian and SHA-256s them.
func computeHash(key hashKey) hashResult {
	var buf [96]byte
	for i, lane := range key {
		binary.BigEndian.PutUint64(buf[i*8:], lane)
	}
	sum := sha256.Sum256(buf[:])
	e, _ := entity.FromBytes(sum[:])
	return hashResult{hex: hex.EncodeToString(sum[:]), e: e}
}

// Hash returns the content hash of a record as a 64-character hex digest and
// as the digest reinterpreted as a 256-bit entity identifier.
func (c *HashCache) Hash(r *Record) (string, entity.E) {
	key := keyOf(r)
	if res, ok := c.cache.Get(key); ok {
		return res.hex, res.e
	}
	res := computeHash(key)
	c.cache.Add(key, res)
	return res.hex, res.e
}

// Len returns the number of memoized hashes.
func (c *HashCache) Len() int {
	return c.cache.Len()
}

var defaultHashCache = NewHashCache(DefaultHashCacheEntries)

// Hash computes the cached content hash of a record using the package-level
// cache. See HashCache.Hash.
func Hash(r *Record) (string, entity.E) {
	return defaultHashCache.Hash(r)
}
