package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"starpair/pkg/measure"
)

var (
	cfgFile string
	verbose bool

	fSigma      float64
	fAperture   float64
	fAnnulusIn  float64
	fAnnulusOut float64
	fHintRA     float64
	fHintDec    float64
	fHintRadius float64
	fJobs       int

	pipeline *measure.Pipeline
)

func Execute() error {
	root := &cobra.Command{
		Use:   "starpair",
		Short: "Measure visual double stars on plate-solved images",
		Long: `starpair measures a visual double star on a plate-solved image:
angular separation (arcsec), position angle (degrees N through E) and
instrumental magnitude difference between the two components.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(log)

			cfg := measure.NewConfig()
			if cfgFile != "" {
				var err error
				if cfg, err = measure.LoadConfig(cfgFile); err != nil {
					return err
				}
			}

			// Command-line flags override the config file, but only
			// when actually given.
			flags := cmd.Flags()
			if flags.Changed("sigma") {
				cfg.DetectionSigma = fSigma
			}
			if flags.Changed("aperture") {
				cfg.ApertureRadius = fAperture
			}
			if flags.Changed("annulus-inner") {
				cfg.AnnulusInner = fAnnulusIn
			}
			if flags.Changed("annulus-outer") {
				cfg.AnnulusOuter = fAnnulusOut
			}
			if flags.Changed("hint-radius") {
				cfg.MaxHintRadius = fHintRadius
			}
			if flags.Changed("jobs") {
				cfg.Jobs = fJobs
			}
			if flags.Changed("hint-ra") != flags.Changed("hint-dec") {
				return errBothHintCoords
			}
			if flags.Changed("hint-ra") {
				cfg.Hint = &measure.SkyHint{RA: fHintRA, Dec: fHintDec}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log.Debug("configuration", "yaml", cfg.AsYaml())
			pipeline = measure.NewPipeline(cfg, log)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-stage diagnostics")
	root.PersistentFlags().Float64Var(&fSigma, "sigma", 5.0, "detection threshold in noise sigmas")
	root.PersistentFlags().Float64Var(&fAperture, "aperture", 4.0, "photometry aperture radius, pixels")
	root.PersistentFlags().Float64Var(&fAnnulusIn, "annulus-inner", 8.0, "sky annulus inner radius, pixels")
	root.PersistentFlags().Float64Var(&fAnnulusOut, "annulus-outer", 12.0, "sky annulus outer radius, pixels")
	root.PersistentFlags().Float64Var(&fHintRA, "hint-ra", 0, "expected target RA, degrees")
	root.PersistentFlags().Float64Var(&fHintDec, "hint-dec", 0, "expected target Dec, degrees")
	root.PersistentFlags().Float64Var(&fHintRadius, "hint-radius", 50, "companion search radius around hint, pixels")
	root.PersistentFlags().IntVar(&fJobs, "jobs", 0, "parallel workers for batch mode (0 = all CPUs)")

	root.AddCommand(measureCmd(), batchCmd(), inspectCmd())
	return root.Execute()
}
