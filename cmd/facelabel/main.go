package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philipparndt/facelabel/internal/config"
	"github.com/philipparndt/facelabel/internal/logging"
	"github.com/philipparndt/facelabel/version"
)

var (
	configPath string
	verbose    bool

	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "facelabel",
	Short: "Label the faces of STL and STEP models with manufacturing features",
	Long: `facelabel loads STL, STEP and OpenSCAD models, splits them into faces and
lets you label faces as holes, slots, pockets and other manufacturing
features. The result is written as a STEP file whose face entities carry
the labels as names.`,
	Version:           version.GetFullVersion(),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.facelabel/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// interactive commands keep stderr free for the screen
func interactive(cmd *cobra.Command) bool {
	return cmd == tuiCmd || cmd == guiCmd
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	logger, err = logging.New(logging.Options{
		Verbose: verbose,
		File:    cfg.Log.File,
		Quiet:   interactive(cmd),
	})
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded",
		zap.String("path", configPath),
		zap.Float64("feature_angle", cfg.Mesh.FeatureAngle),
		zap.Duration("click_threshold", cfg.Input.ClickThreshold.Std()))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
