// Package determinism provides primitives for guaranteeing deterministic rating output.
// Identical input and identical tables must produce byte-identical results, so quote IDs,
// clocks and rounding all come from here.
package determinism

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContentHash is a SHA-256 hash for content integrity
type ContentHash [32]byte

// ComputeHash computes a content hash from bytes
func ComputeHash(data []byte) ContentHash {
	return sha256.Sum256(data)
}

// HashJSON hashes the canonical JSON encoding of v.
// Map keys are encoded in sorted order so the hash is stable.
func HashJSON(v interface{}) (ContentHash, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return ContentHash{}, err
	}
	return ComputeHash(data), nil
}

// Hex returns the hash as a hex string
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements Stringer
func (h ContentHash) String() string {
	return h.Hex()[:16] + "..."
}

// Short returns the first 12 hex characters, used as a table version tag
func (h ContentHash) Short() string {
	return h.Hex()[:12]
}

// quoteNamespace scopes quote IDs to this rating engine
var quoteNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:auto-rating:quote"))

// QuoteID derives a name-based (v5) UUID from a content hash.
// The same input hash always yields the same quote ID.
func QuoteID(h ContentHash) string {
	return uuid.NewSHA1(quoteNamespace, h[:]).String()
}

// Clock supplies the rating evaluation date
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant
func (c FixedClock) Now() time.Time {
	return c.At
}

// cents is the presentation precision for money
const cents = 2

// RoundMoney rounds a monetary amount to cents, half away from zero
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(cents)
}

// SortedKeys returns the keys of m in sorted string order
func SortedKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	return keys
}
