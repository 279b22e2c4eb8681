package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Default TTLs per entry kind. Zero means entries never expire on their own.
const (
	TTLGraph  time.Duration = 0
	TTLRender               = 7 * 24 * time.Hour
)

// Keyer derives cache keys.
type Keyer interface {
	// GraphKey returns the key of the graph artifact for a source file.
	// absPath must be absolute so the same file maps to one key from any
	// working directory.
	GraphKey(absPath string) string
	// RenderKey returns the key of a rendered hierarchy of the graph
	// identified by graphHash.
	RenderKey(graphHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts are the rendering parameters that change the output.
type RenderKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
	Leaves   bool   `json:"leaves,omitempty"`
}

// DefaultKeyer hashes key material into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(absPath string) string {
	return hashKey("graph", absPath)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return hashKey("render", graphHash, opts)
}

// hashKey returns "prefix:<sha256 of the JSON-encoded parts>".
func hashKey(prefix string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		panic("cache: unencodable key part: " + err.Error())
	}
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 digest of data (64 characters).
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
