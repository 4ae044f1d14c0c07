package main

import (
	"github.com/spf13/cobra"

	"github.com/philipparndt/facelabel/internal/tui"
	"github.com/philipparndt/facelabel/pkg/watcher"
)

var tuiWatch bool

var tuiCmd = &cobra.Command{
	Use:   "tui [files...]",
	Short: "Label faces in the terminal",
	Long: `Open one tab per model with its face list. Space selects the face under
the cursor, ctrl+d deselects, l opens the label chooser, e exports,
tab switches models and esc clears the selection.`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVarP(&tuiWatch, "watch", "W", false, "reload models when their files change")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ws, err := newWorkspace(nil)
	if err != nil {
		return err
	}
	if err := openAll(cmd.Context(), ws, args); err != nil {
		return err
	}

	fw, err := startWatcher(tuiWatch)
	if err != nil {
		return err
	}
	if fw != nil {
		defer fw.Close()
	}

	return tui.Run(tui.Options{
		Workspace:      ws,
		ClickThreshold: cfg.Input.ClickThreshold.Std(),
		Watcher:        fw,
		Logger:         logger,
	})
}

// startWatcher returns nil unless watching is enabled by flag or config
func startWatcher(flag bool) (*watcher.FileWatcher, error) {
	if !flag && !cfg.Watch.Enabled {
		return nil, nil
	}
	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce.Std(), logger)
	if err != nil {
		return nil, err
	}
	fw.Start()
	return fw, nil
}
