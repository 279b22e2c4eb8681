package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netlistdb/pkg/netlist"
	"github.com/matzehuels/netlistdb/pkg/pipeline"
)

// readCommand creates the read command for loading and summarizing a netlist.
func (c *CLI) readCommand() *cobra.Command {
	var showTable bool

	cmd := &cobra.Command{
		Use:   "read <netlist.v>",
		Short: "Parse a netlist and summarize its module hierarchy",
		Long: `Read loads a structural Verilog netlist, resolving every instance against
the modules it defines and the configured library cells.

A parsed netlist is cached keyed by its file content; reading it again
reuses the cached graph until the file or the parse options change.`,
		Example: `  netlistdb read adder.v
  netlistdb read --table --refresh adder.v`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			g, info, err := c.load(ctx, cmd, runner, args[0])
			if err != nil {
				return err
			}
			c.printSummary(cmd, g, info, showTable)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTable, "table", false, "list every module")
	return cmd
}

// load runs Runner.Load behind a spinner and reports how the graph was obtained.
func (c *CLI) load(ctx context.Context, cmd *cobra.Command, runner *pipeline.Runner, path string) (*netlist.Graph, pipeline.LoadInfo, error) {
	errw := cmd.ErrOrStderr()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	spin := newSpinner(ctx, errw, fmt.Sprintf("Reading %s...", path))
	spin.Start()
	g, info, err := runner.Load(ctx, path)
	spin.Stop()
	if err != nil {
		return nil, info, err
	}

	switch {
	case info.Corrupt:
		printWarning(errw, "Discarded unreadable cache entry for %s", path)
	case info.Stale:
		logger.Debug("cached graph was stale", "path", path)
	}
	if info.CacheHit {
		logger.Debug("loaded cached graph", "path", path, "hash", info.GraphHash[:12], "artifact", info.Meta.ID)
	} else {
		prog.done("Parsed " + plural(g.Len(), "module"))
	}
	return g, info, nil
}

func (c *CLI) printSummary(cmd *cobra.Command, g *netlist.Graph, info pipeline.LoadInfo, showTable bool) {
	w := cmd.OutOrStdout()
	st := g.Stats()

	printSuccess(w, "Read %s", info.Source.Path)
	printStats(w, st, info.CacheHit)
	if top, ok := g.Top(); ok {
		printKeyValue(w, "top", top.Name)
	}
	printKeyValue(w, "ports", fmt.Sprint(st.Ports))
	printKeyValue(w, "signals", fmt.Sprint(st.Signals))
	printKeyValue(w, "leaf cells", fmt.Sprintf("%d (%d instances)", st.LeafCells, st.LeafInstances))
	if info.Meta.ID != "" {
		printKeyValue(w, "artifact", info.Meta.ID)
	}

	if showTable {
		fmt.Fprintln(w, moduleTable(g))
		return
	}
	fmt.Fprintln(w)
	printNextStep(w, "Write canonical Verilog", "netlistdb write "+info.Source.Path)
}
