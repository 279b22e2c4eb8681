package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/netlistdb/pkg/errors"
	"github.com/matzehuels/netlistdb/pkg/netlist/writer"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadFile_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "netlistdb.toml", `
[parse]
workers = 4
library_cells = ["NAND2", "DFF"]

[cache]
backend = "redis"
ttl = "36h"

[write]
order = "name"
banner = true
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.Path = path
	want.Parse.Workers = 4
	want.Parse.LibraryCells = []string{"NAND2", "DFF"}
	want.Cache.Backend = BackendRedis
	want.Cache.TTL = "36h"
	want.Write.Order = "name"
	want.Write.Banner = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadFile() mismatch (-want +got):\n%s", diff)
	}

	if ttl, _ := cfg.CacheTTL(); ttl != 36*time.Hour {
		t.Errorf("CacheTTL() = %v", ttl)
	}
	opts := cfg.WriterOptions("generated")
	if opts.Order != writer.OrderName || opts.Banner != "generated" || opts.Indent != writer.DefaultIndent {
		t.Errorf("WriterOptions() = %+v", opts)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"syntax", "[parse\nworkers = 1", errors.ErrCodeInvalidConfig},
		{"unknown key", "[parse]\nthreads = 2", errors.ErrCodeInvalidConfig},
		{"unknown section", "[render]\nformat = \"svg\"", errors.ErrCodeInvalidConfig},
		{"negative workers", "[parse]\nworkers = -1", errors.ErrCodeInvalidConfig},
		{"bad backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidConfig},
		{"bad ttl", "[cache]\nttl = \"soon\"", errors.ErrCodeInvalidConfig},
		{"negative ttl", "[cache]\nttl = \"-1h\"", errors.ErrCodeInvalidConfig},
		{"bad order", "[write]\norder = \"random\"", errors.ErrCodeInvalidConfig},
		{"negative indent", "[write]\nindent = -2", errors.ErrCodeInvalidConfig},
		{"bad cell name", "[parse]\nlibrary_cells = [\"1bad\"]", errors.ErrCodeInvalidConfig},
		{"wrong type", "[parse]\nworkers = \"many\"", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "c.toml", tt.body)
			if _, err := LoadFile(path); !errors.Is(err, tt.code) {
				t.Errorf("LoadFile() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoad_SearchOrder(t *testing.T) {
	work := t.TempDir()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(work)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" {
		t.Errorf("Load() without files used %q", cfg.Path)
	}

	user := writeConfig(t, xdg, filepath.Join("netlistdb", "config.toml"), "[parse]\nworkers = 3")
	if cfg, _ = Load(""); cfg.Path != user || cfg.Parse.Workers != 3 {
		t.Errorf("Load() = %q workers %d, want user config", cfg.Path, cfg.Parse.Workers)
	}

	writeConfig(t, work, ".netlistdb.toml", "[parse]\nworkers = 5")
	if cfg, _ = Load(""); cfg.Parse.Workers != 5 {
		t.Errorf("hidden project config not preferred: workers %d", cfg.Parse.Workers)
	}

	writeConfig(t, work, "netlistdb.toml", "[parse]\nworkers = 7")
	if cfg, _ = Load(""); cfg.Parse.Workers != 7 {
		t.Errorf("project config not preferred: workers %d", cfg.Parse.Workers)
	}

	explicit := writeConfig(t, t.TempDir(), "x.toml", "[parse]\nworkers = 9")
	if cfg, _ = Load(explicit); cfg.Parse.Workers != 9 {
		t.Errorf("explicit config not used: workers %d", cfg.Parse.Workers)
	}
	if _, err := Load(filepath.Join(work, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	cfg := Default()
	if dir, _ := cfg.CacheDir(); dir != filepath.Join("/tmp/xdg-cache", "netlistdb") {
		t.Errorf("CacheDir() = %q", dir)
	}
	cfg.Cache.Dir = "/srv/cache"
	if dir, _ := cfg.CacheDir(); dir != "/srv/cache" {
		t.Errorf("CacheDir() = %q", dir)
	}
}
