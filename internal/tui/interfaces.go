// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"grimm.is/netman/internal/netstate"
)

// InterfacesModel is the live interface dashboard.
type InterfacesModel struct {
	Backend     Backend
	Table       table.Model
	LastUpdated time.Time
}

type interfacesMsg []netstate.Interface

func NewInterfacesModel(backend Backend) InterfacesModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 12},
			{Title: "Kind", Width: 10},
			{Title: "State", Width: 10},
			{Title: "Addresses", Width: 32},
			{Title: "RX", Width: 10},
			{Title: "TX", Width: 10},
		}),
		table.WithFocused(true),
	)
	return InterfacesModel{Backend: backend, Table: t}
}

func (m InterfacesModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

func (m InterfacesModel) tick() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m InterfacesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ifaces, err := m.Backend.Interfaces()
		if err != nil {
			return BackendError{Err: err}
		}
		return interfacesMsg(ifaces)
	}
}

func (m InterfacesModel) Update(msg tea.Msg) (InterfacesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case interfacesMsg:
		rows := make([]table.Row, 0, len(msg))
		for _, iface := range msg {
			rows = append(rows, table.Row{
				iface.Name,
				string(iface.Kind),
				operState(iface),
				strings.Join(iface.Addresses, ", "),
				FormatBytes(iface.Stats.RxBytes),
				FormatBytes(iface.Stats.TxBytes),
			})
		}
		m.Table.SetRows(rows)
	case TickMsg:
		m.LastUpdated = time.Time(msg)
		return m, tea.Batch(m.refresh(), m.tick())
	case tea.KeyMsg:
		if msg.String() == "r" {
			return m, m.refresh()
		}
		var cmd tea.Cmd
		m.Table, cmd = m.Table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Resize adapts the table to the terminal.
func (m *InterfacesModel) Resize(w, h int) {
	if h > 8 {
		m.Table.SetHeight(h - 8)
	}
}

func (m InterfacesModel) View() string {
	return m.Table.View()
}

// Selected returns the name of the highlighted interface.
func (m InterfacesModel) Selected() string {
	row := m.Table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func operState(i netstate.Interface) string {
	if !i.AdminUp {
		return "down"
	}
	return i.OperState
}

// FormatBytes renders a counter with a binary unit suffix.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
