// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"grimm.is/netman/internal/tunnel"
)

// TunnelsModel lists configured tunnels with live peer state.
type TunnelsModel struct {
	Backend     Backend
	Table       table.Model
	LastUpdated time.Time
}

type tunnelsMsg []*tunnel.Status

func NewTunnelsModel(backend Backend) TunnelsModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Tunnel", Width: 10},
			{Title: "Peer", Width: 16},
			{Title: "Endpoint", Width: 24},
			{Title: "Handshake", Width: 12},
			{Title: "RX", Width: 10},
			{Title: "TX", Width: 10},
		}),
		table.WithFocused(true),
	)
	return TunnelsModel{Backend: backend, Table: t}
}

func (m TunnelsModel) Init() tea.Cmd {
	return m.refresh()
}

func (m TunnelsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		var out []*tunnel.Status
		for _, name := range m.Backend.TunnelNames() {
			s, err := m.Backend.TunnelStatus(name)
			if err != nil {
				return BackendError{Err: err}
			}
			out = append(out, s)
		}
		return tunnelsMsg(out)
	}
}

func (m TunnelsModel) Update(msg tea.Msg) (TunnelsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tunnelsMsg:
		m.LastUpdated = time.Now()
		var rows []table.Row
		for _, s := range msg {
			for _, p := range s.Peers {
				rows = append(rows, table.Row{
					s.Name,
					abbreviateKey(p.PublicKey),
					p.Endpoint,
					handshakeAge(p, time.Now()),
					FormatBytes(uint64(p.RxBytes)),
					FormatBytes(uint64(p.TxBytes)),
				})
			}
		}
		m.Table.SetRows(rows)
		return m, nil
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
func (m *TunnelsModel) Resize(w, h int) {
	if h > 8 {
		m.Table.SetHeight(h - 8)
	}
}

func (m TunnelsModel) View() string {
	return m.Table.View()
}

func abbreviateKey(key string) string {
	if len(key) <= 12 {
		return key
	}
	return key[:8] + strings.Repeat(".", 3)
}

func handshakeAge(p tunnel.PeerStatus, now time.Time) string {
	age, ok := p.HandshakeAge(now)
	if !ok {
		return "never"
	}
	return fmt.Sprintf("%ds ago", int(age.Seconds()))
}
