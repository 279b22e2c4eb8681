// Package config loads netlistdb settings from TOML files.
//
// # Search Order
//
// [Load] uses the first file that exists:
//
//  1. the explicit path (--config), which must exist
//  2. ./netlistdb.toml
//  3. ./.netlistdb.toml
//  4. $XDG_CONFIG_HOME/netlistdb/config.toml (~/.config/netlistdb/config.toml)
//
// Without any file, [Default] applies. Keys missing from a file keep their
// default values; unknown keys are rejected.
//
// # Example
//
//	[parse]
//	workers = 4
//	library_cells = ["AND2", "OR2", "INV"]
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://cache.internal:6379/0"
//
//	[write]
//	order = "name"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/netlistdb/pkg/errors"
	"github.com/matzehuels/netlistdb/pkg/netlist/writer"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Backends lists the valid cache backends.
var Backends = []string{BackendFile, BackendRedis, BackendMongo, BackendNone}

// Config is the top-level configuration.
type Config struct {
	Parse ParseConfig `toml:"parse"`
	Cache CacheConfig `toml:"cache"`
	Write WriteConfig `toml:"write"`
	Serve ServeConfig `toml:"serve"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// ParseConfig holds parser settings.
type ParseConfig struct {
	Workers      int      `toml:"workers"`
	Top          string   `toml:"top"`
	LibraryCells []string `toml:"library_cells"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	TTL             string `toml:"ttl"`
	RedisURL        string `toml:"redis_url"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// WriteConfig holds netlist writer settings.
type WriteConfig struct {
	Indent int    `toml:"indent"`
	Order  string `toml:"order"`
	Banner bool   `toml:"banner"`
}

// ServeConfig holds HTTP server settings.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Parse: ParseConfig{
			Workers:      1,
			LibraryCells: []string{"AND2", "OR2", "INV", "BUF"},
		},
		Cache: CacheConfig{
			Backend:         BackendFile,
			RedisURL:        "redis://localhost:6379/0",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "netlistdb",
			MongoCollection: "artifacts",
		},
		Write: WriteConfig{
			Indent: writer.DefaultIndent,
			Order:  writer.OrderSource.String(),
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// SearchPaths returns the implicit config locations in lookup order.
func SearchPaths() []string {
	paths := []string{"netlistdb.toml", ".netlistdb.toml"}
	if dir := configHome(); dir != "" {
		paths = append(paths, filepath.Join(dir, "netlistdb", "config.toml"))
	}
	return paths
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config")
	}
	return ""
}

// Load reads the configuration. A non-empty explicit path must exist;
// otherwise the search paths are tried and Default is returned when none
// exists. The result is validated.
func Load(explicit string) (*Config, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", explicit)
		}
		return LoadFile(explicit)
	}
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return Default(), nil
}

// LoadFile reads one TOML file over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs errors.List
	bad := func(format string, args ...any) {
		errs.Add(errors.New(errors.ErrCodeInvalidConfig, format, args...))
	}

	if c.Parse.Workers < 0 {
		bad("parse.workers must not be negative, got %d", c.Parse.Workers)
	}
	for _, cell := range c.Parse.LibraryCells {
		if err := errors.ValidateIdentifier(cell); err != nil {
			bad("parse.library_cells: %q is not a valid identifier", cell)
		}
	}
	if !slices.Contains(Backends, c.Cache.Backend) {
		bad("cache.backend must be one of %s, got %q", strings.Join(Backends, ", "), c.Cache.Backend)
	}
	if _, err := c.CacheTTL(); err != nil {
		bad("cache.ttl: %v", err)
	}
	if c.Write.Indent < 0 {
		bad("write.indent must not be negative, got %d", c.Write.Indent)
	}
	if _, err := writer.ParseOrder(c.Write.Order); err != nil {
		bad("write.order must be source or name, got %q", c.Write.Order)
	}
	if c.Serve.Addr == "" {
		bad("serve.addr must not be empty")
	}
	return errs.Err()
}

// CacheTTL parses cache.ttl. Empty means no expiry.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "negative duration %s", c.Cache.TTL)
	}
	return d, nil
}

// CacheDir returns cache.dir, defaulting to $XDG_CACHE_HOME/netlistdb.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		var err error
		if base, err = os.UserCacheDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(base, "netlistdb"), nil
}

// WriterOptions converts the write section. banner is used only when
// write.banner is set.
func (c *Config) WriterOptions(banner string) writer.Options {
	order, _ := writer.ParseOrder(c.Write.Order)
	opts := writer.Options{Indent: c.Write.Indent, Order: order}
	if c.Write.Banner {
		opts.Banner = banner
	}
	return opts
}
