package main

import (
	"github.com/spf13/cobra"

	"github.com/philipparndt/facelabel/internal/gui"
)

var guiWatch bool

var guiCmd = &cobra.Command{
	Use:   "gui [files...]",
	Short: "Label faces in a 3D viewer",
	Long: `Open a window showing the model. Click a face to select it, ctrl+click to
deselect, drag to rotate and scroll to zoom. Holding the button longer than
the click threshold is treated as a camera move and selects nothing.`,
	RunE: runGUI,
}

func init() {
	guiCmd.Flags().BoolVarP(&guiWatch, "watch", "W", false, "reload models when their files change")
	rootCmd.AddCommand(guiCmd)
}

func runGUI(cmd *cobra.Command, args []string) error {
	scenes := gui.NewScenes()
	ws, err := newWorkspace(scenes.Highlighter)
	if err != nil {
		return err
	}
	if err := openAll(cmd.Context(), ws, args); err != nil {
		return err
	}

	fw, err := startWatcher(guiWatch)
	if err != nil {
		return err
	}
	if fw != nil {
		defer fw.Close()
	}

	gui.Run(gui.Options{
		Workspace:      ws,
		Scenes:         scenes,
		ClickThreshold: cfg.Input.ClickThreshold.Std(),
		Watcher:        fw,
		Logger:         logger,
	})
	return nil
}
