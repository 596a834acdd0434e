package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errBothHintCoords = errors.New("--hint-ra and --hint-dec must be given together")

func measureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "measure <image>...",
		Short: "Measure one or more plate-solved images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var firstErr error
			for _, path := range args {
				res, err := pipeline.Analyze(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Record())
			}
			return firstErr
		},
	}
}
