// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"grimm.is/netman/internal/wifi"
)

// WifiModel lists scanned networks and drives connect/disconnect.
type WifiModel struct {
	Backend Backend
	Iface   string
	Table   table.Model
	// Entering is set while the passphrase prompt is active.
	Entering   bool
	Passphrase textinput.Model
	Networks   []wifi.Network
	Status     string
}

type scanMsg []wifi.Network
type connectedMsg struct{ ssid string }

func NewWifiModel(backend Backend) WifiModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "SSID", Width: 24},
			{Title: "Signal", Width: 8},
			{Title: "Security", Width: 12},
			{Title: "Channel", Width: 8},
		}),
		table.WithFocused(true),
	)
	in := textinput.New()
	in.Placeholder = "passphrase"
	in.EchoMode = textinput.EchoPassword
	return WifiModel{Backend: backend, Iface: "wlan0", Table: t, Passphrase: in}
}

func (m WifiModel) scan() tea.Cmd {
	return func() tea.Msg {
		networks, err := m.Backend.ScanNetworks(m.Iface)
		if err != nil {
			return BackendError{Err: err}
		}
		return scanMsg(networks)
	}
}

func (m WifiModel) connect(ssid, passphrase string) tea.Cmd {
	return func() tea.Msg {
		if err := m.Backend.ConnectNetwork(m.Iface, ssid, passphrase); err != nil {
			return BackendError{Err: err}
		}
		return connectedMsg{ssid: ssid}
	}
}

func (m WifiModel) Update(msg tea.Msg) (WifiModel, tea.Cmd) {
	switch msg := msg.(type) {
	case scanMsg:
		m.Networks = msg
		rows := make([]table.Row, 0, len(msg))
		for _, n := range msg {
			rows = append(rows, table.Row{
				n.SSID,
				fmt.Sprintf("%d dBm", n.Signal),
				string(n.Security.Class),
				fmt.Sprintf("%d", n.Channel),
			})
		}
		m.Table.SetRows(rows)
		m.Status = fmt.Sprintf("%d networks", len(msg))
		return m, nil

	case connectedMsg:
		m.Status = "connected to " + msg.ssid
		return m, nil

	case tea.KeyMsg:
		if m.Entering {
			switch msg.String() {
			case "enter":
				m.Entering = false
				ssid := m.selectedSSID()
				pass := m.Passphrase.Value()
				m.Passphrase.Reset()
				m.Status = "connecting to " + ssid
				return m, m.connect(ssid, pass)
			case "esc":
				m.Entering = false
				m.Passphrase.Reset()
				return m, nil
			}
			var cmd tea.Cmd
			m.Passphrase, cmd = m.Passphrase.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "s", "r":
			m.Status = "scanning " + m.Iface
			return m, m.scan()
		case "enter":
			if len(m.Networks) == 0 {
				return m, nil
			}
			if m.selectedOpen() {
				ssid := m.selectedSSID()
				m.Status = "connecting to " + ssid
				return m, m.connect(ssid, "")
			}
			m.Entering = true
			return m, m.Passphrase.Focus()
		case "d":
			return m, func() tea.Msg {
				if err := m.Backend.DisconnectNetwork(m.Iface); err != nil {
					return BackendError{Err: err}
				}
				return scanMsg(nil)
			}
		}
		var cmd tea.Cmd
		m.Table, cmd = m.Table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WifiModel) selectedSSID() string {
	row := m.Table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (m WifiModel) selectedOpen() bool {
	ssid := m.selectedSSID()
	for _, n := range m.Networks {
		if n.SSID == ssid {
			return n.Security.Class == wifi.SecurityOpen
		}
	}
	return false
}

// Resize adapts the table to the terminal.
func (m *WifiModel) Resize(w, h int) {
	if h > 10 {
		m.Table.SetHeight(h - 10)
	}
}

func (m WifiModel) View() string {
	out := m.Table.View()
	if m.Entering {
		out += "\n" + m.Passphrase.View()
	}
	state := m.Backend.WifiState(m.Iface)
	out += "\n" + helpStyle.Render(fmt.Sprintf("state: %s  %s", state, m.Status))
	out += "\n" + helpStyle.Render("s: scan  enter: connect  d: disconnect")
	return out
}
