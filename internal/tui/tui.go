package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunStatusTUI runs the status screen until the user quits
func RunStatusTUI(load Loader, trigger Trigger, loc *time.Location) error {
	p := tea.NewProgram(NewStatusModel(load, trigger, loc), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	// The alt screen is gone now; leave the last outcome in the scrollback
	if m, ok := finalModel.(StatusModel); ok && m.LastOutcome() != "" {
		fmt.Println(m.LastOutcome())
	}
	return nil
}
