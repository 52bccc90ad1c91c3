package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"travelapp/cmd/travel/ui"
	"travelapp/internal/logging"
)

// runInteractive starts the full-screen UI.
func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	styles := ui.NewStyles(ui.DetectTheme(cfg.UI.DarkMode))
	p := tea.NewProgram(ui.New(ctx, a.uiDeps(), styles), tea.WithAltScreen(), tea.WithContext(ctx))
	logging.For(logging.CategoryUI).Info("interactive session started")
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}
