package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"starpair/pkg/measure"
	"starpair/pkg/starfield"
)

func inspectCmd() *cobra.Command {
	var pngFile string

	cmd := &cobra.Command{
		Use:   "inspect <image>",
		Short: "Measure one image with full diagnostics and an overlay PNG",
		Long: `inspect runs the same measurement as 'measure' but also reports the
per-stage numbers (candidate census, background estimate, raw vs
refined centroids, pixel histogram) and renders a false-color image
with the apertures overlaid, for chasing down suspect values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out := cmd.OutOrStdout()

			img, err := measure.Load(path)
			if err != nil {
				return err
			}

			hist := starfield.PixelHistogram(img.Grid)
			fmt.Fprintf(out, "frame: %s %s\n", path, img.Grid.Stats())
			if !img.Epoch.IsZero() {
				fmt.Fprintf(out, "epoch: %s\n", img.Epoch.Format("2006-01-02T15:04:05"))
			}
			fmt.Fprint(out, starfield.HistogramSummary(hist, pipeline.Cfg.SaturationADU))

			res, err := pipeline.AnalyzeImage(img)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "candidates: %d  %s  scale: %.3f\"/px\n",
				res.Diag.CandidateCount, res.Diag.Background, res.Diag.PixelScaleAsec)
			printStar(out, "primary", res.Primary)
			printStar(out, "secondary", res.Secondary)
			fmt.Fprintf(out, "separation: %.3f\"  angle: %.3f deg  dmag: %.3f\n",
				res.SeparationArcsec, res.PositionAngleDeg, res.DeltaMag)

			if pngFile == "" {
				pngFile = strings.TrimSuffix(path, filepath.Ext(path)) + ".diag.png"
			}
			markers := []starfield.Marker{
				starMarker(res.Primary, "A", pipeline.Cfg),
				starMarker(res.Secondary, "B", pipeline.Cfg),
			}
			if err := starfield.RenderDiagnostic(img.Grid, markers, pngFile); err != nil {
				return err
			}
			fmt.Fprintf(out, "overlay: %s\n", pngFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&pngFile, "png", "", "overlay image path (default <image>.diag.png)")
	return cmd
}

func printStar(out io.Writer, name string, s measure.StarMeasurement) {
	fmt.Fprintf(out, "%s: raw (%.2f,%.2f) -> refined (%.3f,%.3f)  sky %s  %s\n",
		name, s.RawX, s.RawY, s.X, s.Y, s.Sky, s.Phot)
}

func starMarker(s measure.StarMeasurement, label string, cfg measure.Config) starfield.Marker {
	return starfield.Marker{
		X: s.X, Y: s.Y,
		ApertureR:    cfg.ApertureRadius,
		AnnulusInner: cfg.AnnulusInner,
		AnnulusOuter: cfg.AnnulusOuter,
		Label:        label,
	}
}
