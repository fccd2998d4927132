// Package id provides centralized ID generation for the backend.
//
// Two ID families are used:
//   - Profile IDs: random UUIDs, stable for the life of a profile and
//     stored in profiles.json
//   - Request, export and operation IDs: prefixed ULIDs, lexicographically
//     sortable so log lines and archives order by creation time
//
// Design Principles:
//   - K-sortable: Timeline queries without timestamps
//   - Debuggable: Prefixes make logs readable (req_*, exp_*, op_*)
//   - Type safety: Separate types prevent ID misuse
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// ProfileID identifies a profile independently of its (renamable) name
type ProfileID string

// RequestID identifies an API request
type RequestID string

// ExportID identifies a profile export archive
type ExportID string

// OperationID correlates the log lines of one lifecycle operation
type OperationID string

// ============================================================================
// ID Prefixes (for debugging and type identification)
// ============================================================================

const (
	RequestPrefix   = "req"
	ExportPrefix    = "exp"
	OperationPrefix = "op"
)

// ============================================================================
// ULID Generator (Primary)
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewProfileID generates a new profile ID
func NewProfileID() ProfileID {
	return ProfileID(uuid.NewString())
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewExportID generates a new export archive ID
func NewExportID() ExportID {
	return ExportID(Default().GenerateWithPrefix(ExportPrefix))
}

// NewOperationID generates a new operation correlation ID
func NewOperationID() OperationID {
	return OperationID(Default().GenerateWithPrefix(OperationPrefix))
}

func (id ProfileID) String() string   { return string(id) }
func (id RequestID) String() string   { return string(id) }
func (id ExportID) String() string    { return string(id) }
func (id OperationID) String() string { return string(id) }

// ============================================================================
// Validation
// ============================================================================

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// IsValidPrefixed checks a "prefix_ULID" string
func IsValidPrefixed(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"_")
	return ok && IsValid(rest)
}

// IsValidProfileID checks if id parses as a UUID
func IsValidProfileID(id string) bool {
	return uuid.Validate(id) == nil
}
