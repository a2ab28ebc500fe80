// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package tui is the interactive terminal frontend. It renders registry
// snapshots and drives wifi and tunnel operations through a Backend
// interface so the views stay testable without a kernel.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"grimm.is/netman/internal/netstate"
	"grimm.is/netman/internal/tunnel"
	"grimm.is/netman/internal/wifi"
)

// View represents the currently active screen.
type View int

const (
	ViewInterfaces View = iota
	ViewWifi
	ViewTunnels
)

// Backend defines the interface for data retrieval and actions.
type Backend interface {
	Interfaces() ([]netstate.Interface, error)
	ScanNetworks(iface string) ([]wifi.Network, error)
	WifiState(iface string) wifi.State
	ConnectNetwork(iface, ssid, passphrase string) error
	DisconnectNetwork(iface string) error
	TunnelNames() []string
	TunnelStatus(name string) (*tunnel.Status, error)
}

// BackendError reports a failed backend call.
type BackendError struct{ Err error }

// TickMsg drives the periodic refresh.
type TickMsg time.Time

// Model is the main application state.
type Model struct {
	Backend Backend

	ActiveView View
	Width      int
	Height     int
	LastError  string

	Interfaces InterfacesModel
	Wifi       WifiModel
	Tunnels    TunnelsModel
}

// NewModel creates the initial model.
func NewModel(backend Backend) Model {
	return Model{
		Backend:    backend,
		ActiveView: ViewInterfaces,
		Interfaces: NewInterfacesModel(backend),
		Wifi:       NewWifiModel(backend),
		Tunnels:    NewTunnelsModel(backend),
	}
}

// Init initializes the application.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Interfaces.Init(),
		m.Tunnels.Init(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case BackendError:
		m.LastError = msg.Err.Error()
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Interfaces.Resize(msg.Width, msg.Height)
		m.Wifi.Resize(msg.Width, msg.Height)
		m.Tunnels.Resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.ActiveView = (m.ActiveView + 1) % 3
			return m, nil
		case "1":
			m.ActiveView = ViewInterfaces
			return m, nil
		case "2":
			m.ActiveView = ViewWifi
			return m, nil
		case "3":
			m.ActiveView = ViewTunnels
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.ActiveView {
	case ViewInterfaces:
		m.Interfaces, cmd = m.Interfaces.Update(msg)
	case ViewWifi:
		m.Wifi, cmd = m.Wifi.Update(msg)
	case ViewTunnels:
		m.Tunnels, cmd = m.Tunnels.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	tabStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("241"))
	activeTab  = lipgloss.NewStyle().Padding(0, 1).Bold(true).
			Foreground(lipgloss.Color("15")).Background(lipgloss.Color("57"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the interface.
func (m Model) View() string {
	tabs := ""
	for i, name := range []string{"1:interfaces", "2:wifi", "3:tunnels"} {
		if View(i) == m.ActiveView {
			tabs += activeTab.Render(name)
		} else {
			tabs += tabStyle.Render(name)
		}
	}

	var body string
	switch m.ActiveView {
	case ViewInterfaces:
		body = m.Interfaces.View()
	case ViewWifi:
		body = m.Wifi.View()
	case ViewTunnels:
		body = m.Tunnels.View()
	}

	out := titleStyle.Render("netman") + "  " + tabs + "\n\n" + body
	if m.LastError != "" {
		out += "\n" + errorStyle.Render("error: "+m.LastError)
	}
	out += "\n" + helpStyle.Render("tab: switch  r: refresh  q: quit")
	return out
}
