package app

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/backend/fake"
	"github.com/sshdeck/sshdeck/internal/backend/sshd"
	"github.com/sshdeck/sshdeck/internal/logging/events"
	"github.com/sshdeck/sshdeck/internal/profile"
	"github.com/sshdeck/sshdeck/internal/ui"
)

// Config describes user-provided application options.
type Config struct {
	ConfigDir  string
	Demo       bool
	Width      int
	Height     int
	ShowFooter bool
	Verbose    bool
}

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg Config) error {
	dir := cfg.ConfigDir
	if dir == "" {
		resolved, err := profile.DefaultDir()
		if err != nil {
			return fmt.Errorf("resolve config dir: %w", err)
		}
		dir = resolved
	}
	store, err := profile.Open(dir)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}

	var b backend.Backend
	if cfg.Demo {
		demo := fake.New()
		demo.Simulate = true
		b = demo
		events.App.BackendReady("demo")
	} else {
		b = sshd.New(store, nil)
		events.App.BackendReady("sshd")
	}

	model := ui.NewModel(store, b, cfg.Width, cfg.Height, cfg.ShowFooter, cfg.Verbose)
	defer model.Teardown()
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
