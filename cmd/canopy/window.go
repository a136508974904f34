package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/internal/demo"
)

// windowCmd represents the window command
var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Open the demo scene in a window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}
		d, err := demo.New(cfg, logger, canopy.EbitenInput{})
		if err != nil {
			return err
		}
		defer func() { _ = d.Close(cmd.Context()) }()

		game := canopy.NewGame(d.SM, demo.Renderer())
		game.ScreenshotDir, _ = cmd.Flags().GetString("screenshot-dir")
		d.Input.OnAction.Connect(func(ev *canopy.InputEvent) {
			if ev.IsActionJustPressed("screenshot") {
				game.Screenshot("canopy")
			}
		})
		return canopy.RunGame(game, canopy.RunConfig{
			Title:     cfg.Title,
			Width:     cfg.Width,
			Height:    cfg.Height,
			Resizable: true,
		})
	},
}

func init() {
	rootCmd.AddCommand(windowCmd)
	windowCmd.Flags().String("screenshot-dir", canopy.DefaultScreenshotDir, "directory for F12 screenshots")
}
