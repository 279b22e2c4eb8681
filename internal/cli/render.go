package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netlistdb/pkg/pipeline"
)

// renderCommand creates the render command for drawing the module hierarchy.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output string
		opts   pipeline.RenderOptions
	)

	cmd := &cobra.Command{
		Use:   "render <netlist.v>",
		Short: "Render the module hierarchy as DOT or SVG",
		Long: `Render draws one node per module and one edge per instantiated module,
labelled with the instance count. With --leaves, library cells are drawn as
well; with --detailed, nodes list their sizes and edges their instance names.

When -o ends in .svg or .dot and --format is not given, the format follows
the file extension.`,
		Example: `  netlistdb render adder.v > adder.dot
  netlistdb render adder.v -o adder.svg --leaves`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("format") {
				if ext := strings.TrimPrefix(filepath.Ext(output), "."); pipeline.ValidFormats[ext] {
					opts.Format = ext
				}
			}
			if err := pipeline.ValidateFormat(opts.Format); err != nil {
				return err
			}

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			g, info, err := c.load(ctx, cmd, runner, args[0])
			if err != nil {
				return err
			}
			data, cached, err := runner.Render(ctx, g, info.GraphHash, opts)
			if err != nil {
				return err
			}
			loggerFromContext(ctx).Debug("rendered hierarchy", "format", opts.Format, "bytes", len(data), "cached", cached)

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Rendered %s", strings.ToUpper(opts.Format))
			printFile(cmd.ErrOrStderr(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", pipeline.FormatDOT, "output format: dot or svg")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show module sizes and instance names")
	cmd.Flags().BoolVar(&opts.Leaves, "leaves", false, "include library cells")
	return cmd
}
