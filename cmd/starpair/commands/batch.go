package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"starpair/pkg/measure"
)

func batchCmd() *cobra.Command {
	var outFile string
	var summary bool

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Measure every image in a directory and write a CSV",
		Long: `batch sweeps a directory of plate-solved frames, measuring each in
parallel, and writes one CSV row per successful measurement. A file
that fails is reported and skipped; it never halts its siblings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := pipeline.Batch(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outFile != "" && outFile != "-" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("create %s: %v", outFile, err)
				}
				defer f.Close()
				out = f
			}
			if err := measure.WriteCSV(out, entries); err != nil {
				return err
			}

			if summary {
				renderSummary(entries)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "CSV output file (default stdout)")
	cmd.Flags().BoolVar(&summary, "summary", true, "print a per-file summary table to stderr")
	return cmd
}

// renderSummary prints a human-oriented table of the sweep to stderr,
// keeping stdout clean for the CSV.
func renderSummary(entries []measure.BatchEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stderr)
	t.AppendHeader(table.Row{"#", "File", "Sep (\")", "PA (deg)", "Dmag", "Status"})

	ok := 0
	for _, e := range entries {
		if e.Err != nil {
			t.AppendRow(table.Row{e.Index, e.Path, "", "", "", e.Err.Error()})
			continue
		}
		ok++
		r := e.Result
		t.AppendRow(table.Row{
			e.Index, e.Path,
			fmt.Sprintf("%.2f", r.SeparationArcsec),
			fmt.Sprintf("%.2f", r.PositionAngleDeg),
			fmt.Sprintf("%.2f", r.DeltaMag),
			"ok",
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d/%d measured", ok, len(entries)), "", "", "", ""})

	if isatty.IsTerminal(os.Stderr.Fd()) {
		t.SetStyle(table.StyleLight)
	} else {
		t.SetStyle(table.StyleDefault)
	}
	t.Render()
}
