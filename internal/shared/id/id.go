// Package id generates the string identifiers remote consumers use to refer
// to tracker entries.
//
// Identifiers are prefixed, monotonic ULIDs:
//   - Sortable: entries created later compare greater
//   - Prefixed: the entry kind is readable in logs (app_*, win_*, view_*)
//   - Stable: an entry keeps its id for its whole lifetime, including
//     across hibernation of the window it belongs to
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EntryID identifies one entry of the tracker model.
type EntryID string

// ClientID identifies a notification stream subscriber.
type ClientID string

// Entry id prefixes.
const (
	DesktopPrefix = "desk"
	AppPrefix     = "app"
	WindowPrefix  = "win"
	ViewPrefix    = "view"
	ClientPrefix  = "cli"
)

// Generator generates monotonic ULIDs with optional prefixes.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator with cryptographically secure entropy.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewEntryID generates an entry id with the given kind prefix.
func NewEntryID(prefix string) EntryID {
	return EntryID(Default().GenerateWithPrefix(prefix))
}

// NewClientID generates a subscriber id.
func NewClientID() ClientID {
	return ClientID(Default().GenerateWithPrefix(ClientPrefix))
}

func (id EntryID) String() string  { return string(id) }
func (id ClientID) String() string { return string(id) }

// Prefix returns the kind prefix of an entry id, or "" when it has none.
func (id EntryID) Prefix() string {
	prefix, _, ok := strings.Cut(string(id), "_")
	if !ok {
		return ""
	}
	return prefix
}

// IsValid reports whether s is a prefixed ULID produced by this package.
func IsValid(s string) bool {
	_, raw, ok := strings.Cut(s, "_")
	if !ok {
		return false
	}
	_, err := ulid.Parse(raw)
	return err == nil
}

// Timestamp extracts the creation time of a prefixed id.
func Timestamp(s string) (time.Time, error) {
	_, raw, ok := strings.Cut(s, "_")
	if !ok {
		return time.Time{}, fmt.Errorf("id %q has no prefix", s)
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
