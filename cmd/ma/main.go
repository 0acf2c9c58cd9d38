// Command ma renders Mermaid sequence, flowchart, and ER diagrams as
// monospaced ASCII/Unicode art for terminals.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mermaid-ascii/ma/pkg/config"
	"github.com/mermaid-ascii/ma/pkg/ma"
	"github.com/mermaid-ascii/ma/pkg/render"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var (
		maxWidth    int
		ascii       bool
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:           "ma [file]",
		Short:         "Render a Mermaid diagram as monospaced text art",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}

			cfg := config.Default()
			if maxWidth > 0 {
				var err error
				cfg, err = cfg.WithMaxWidth(maxWidth)
				if err != nil {
					return ma.IOErrorf(err, "%v", err)
				}
			}
			if ascii {
				var err error
				cfg, err = cfg.WithGlyphSet(string(config.GlyphSetASCII))
				if err != nil {
					return ma.IOErrorf(err, "%v", err)
				}
			}

			var source []byte
			var err error
			if len(args) == 0 || args[0] == "-" {
				source, err = io.ReadAll(stdin)
			} else {
				source, err = os.ReadFile(args[0])
			}
			if err != nil {
				return ma.IOErrorf(err, "reading input: %v", err)
			}

			out, err := render.Render(string(source), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().IntVarP(&maxWidth, "width", "w", 0, "maximum output width in display columns (0 = unbounded)")
	cmd.Flags().BoolVar(&ascii, "ascii", false, "use plain ASCII glyphs instead of Unicode box-drawing")
	cmd.Flags().BoolVarP(&showVersion, "version", "V", false, "print the version number and exit")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "ma: %v\n", err)
		var merr *ma.Error
		if errors.As(err, &merr) {
			return merr.Kind.ExitCode()
		}
		return 64
	}
	return 0
}
