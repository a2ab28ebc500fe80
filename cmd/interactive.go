// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"grimm.is/netman/internal/tui"
)

// RunInteractive starts the terminal frontend. The registry polls in the
// background for the lifetime of the session.
func RunInteractive(configPath string) error {
	app, err := NewApp(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.Registry.Start(ctx, app.Config.PollInterval())
	defer app.Registry.Stop()

	model := tui.NewModel(NewBackend(app))
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
