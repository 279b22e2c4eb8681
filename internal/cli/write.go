package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netlistdb/pkg/netlist/writer"
)

// writeCommand creates the write command for emitting canonical Verilog.
func (c *CLI) writeCommand() *cobra.Command {
	var (
		output string
		order  string
		indent int
		banner bool
	)

	cmd := &cobra.Command{
		Use:   "write <netlist.v>",
		Short: "Write a netlist back as canonical structural Verilog",
		Long: `Write loads a netlist (from the cache when possible) and emits it as
structural Verilog with ANSI-style module headers.

Writing the output again through read and write yields identical text.`,
		Example: `  netlistdb write adder.v
  netlistdb write adder.v -o adder.out.v --order name --indent 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := c.Config.WriterOptions(bannerText())
			if cmd.Flags().Changed("order") {
				o, err := writer.ParseOrder(order)
				if err != nil {
					return err
				}
				opts.Order = o
			}
			if cmd.Flags().Changed("indent") {
				opts.Indent = indent
			}
			if cmd.Flags().Changed("banner") {
				opts.Banner = ""
				if banner {
					opts.Banner = bannerText()
				}
			}

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			g, _, err := c.load(ctx, cmd, runner, args[0])
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return runner.Write(ctx, cmd.OutOrStdout(), g, opts)
			}
			if err := writeFile(output, func(w io.Writer) error {
				return runner.Write(ctx, w, g, opts)
			}); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Wrote %d modules", g.Len())
			printFile(cmd.ErrOrStderr(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&order, "order", "", "module order: source or name (default from config)")
	cmd.Flags().IntVar(&indent, "indent", writer.DefaultIndent, "spaces per indentation level")
	cmd.Flags().BoolVar(&banner, "banner", false, "prefix the output with a generated-by comment")
	return cmd
}

// writeFile creates path and streams into it, removing the file when fn fails.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
