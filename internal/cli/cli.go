// Package cli implements the netlistdb command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netlistdb/pkg/buildinfo"
	"github.com/matzehuels/netlistdb/pkg/cache"
	"github.com/matzehuels/netlistdb/pkg/config"
	"github.com/matzehuels/netlistdb/pkg/errors"
	"github.com/matzehuels/netlistdb/pkg/netlist/parser"
	"github.com/matzehuels/netlistdb/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "netlistdb"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
	verbose    bool
	noCache    bool
	refresh    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "netlistdb reads, writes and inspects structural Verilog netlists",
		Long: `netlistdb parses gate-level structural Verilog into a resolved module
hierarchy, caches the result keyed by source content, and writes it back as
canonical Verilog or renders the hierarchy as a diagram.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			if cfg.Path != "" {
				c.Logger.Debug("loaded config", "path", cfg.Path)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configPath, "config", "", "config file (default: netlistdb.toml, then $XDG_CONFIG_HOME/netlistdb/config.toml)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the graph cache")
	flags.BoolVar(&c.refresh, "refresh", false, "ignore cached graphs and re-parse")

	root.AddCommand(c.readCommand())
	root.AddCommand(c.writeCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.menuCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// FormatError renders a command error for the terminal, one line per
// netlist problem.
func FormatError(err error) string {
	return errors.Format(err)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use from the loaded config.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	ttl, err := c.Config.CacheTTL()
	if err != nil {
		return nil, err
	}

	r := pipeline.NewRunner(ch, nil, c.Logger)
	r.Parse = parser.Options{
		LibraryCells: c.Config.Parse.LibraryCells,
		Top:          c.Config.Parse.Top,
		Workers:      c.Config.Parse.Workers,
	}
	r.Refresh = c.refresh
	r.TTL = ttl
	return r, nil
}

// newCache opens the configured cache backend.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	cfg := c.Config.Cache
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cfg.RedisURL, "")
	case config.BackendMongo:
		return cache.NewMongoCache(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case config.BackendFile:
		dir, err := c.Config.CacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Backend)
}

// bannerText is the comment header written when banners are enabled.
func bannerText() string {
	return fmt.Sprintf("Generated by %s %s", appName, buildinfo.Version)
}
