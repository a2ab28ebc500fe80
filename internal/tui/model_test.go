// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/netman/internal/netstate"
	"grimm.is/netman/internal/tunnel"
	"grimm.is/netman/internal/wifi"
)

type mockBackend struct {
	ifaces    []netstate.Interface
	networks  []wifi.Network
	wifiState wifi.State
	connected []string
	tunnels   map[string]*tunnel.Status
}

func (b *mockBackend) Interfaces() ([]netstate.Interface, error) { return b.ifaces, nil }
func (b *mockBackend) ScanNetworks(iface string) ([]wifi.Network, error) {
	return b.networks, nil
}
func (b *mockBackend) WifiState(iface string) wifi.State { return b.wifiState }
func (b *mockBackend) ConnectNetwork(iface, ssid, passphrase string) error {
	b.connected = append(b.connected, ssid)
	return nil
}
func (b *mockBackend) DisconnectNetwork(iface string) error { return nil }
func (b *mockBackend) TunnelNames() []string {
	var names []string
	for n := range b.tunnels {
		names = append(names, n)
	}
	return names
}
func (b *mockBackend) TunnelStatus(name string) (*tunnel.Status, error) {
	return b.tunnels[name], nil
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		ifaces: []netstate.Interface{
			{Name: "eth0", Kind: netstate.KindWired, AdminUp: true, OperState: "routable",
				Addresses: []string{"192.168.1.100/24"}},
		},
		networks: []wifi.Network{
			{SSID: "Home", Signal: -48, Channel: 6, Security: wifi.Security{Class: wifi.SecurityPSK}},
		},
		wifiState: wifi.StateIdle,
		tunnels:   map[string]*tunnel.Status{},
	}
}

func TestViewSwitching(t *testing.T) {
	m := NewModel(newMockBackend())
	assert.Equal(t, ViewInterfaces, m.ActiveView)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, ViewWifi, m.ActiveView)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	m = updated.(Model)
	assert.Equal(t, ViewTunnels, m.ActiveView)
}

func TestInterfacesRefreshPopulatesTable(t *testing.T) {
	backend := newMockBackend()
	m := NewInterfacesModel(backend)

	cmd := m.refresh()
	msg := cmd()
	ifaces, ok := msg.(interfacesMsg)
	require.True(t, ok)

	m, _ = m.Update(ifaces)
	require.Len(t, m.Table.Rows(), 1)
	assert.Equal(t, "eth0", m.Table.Rows()[0][0])
	assert.Equal(t, "routable", m.Table.Rows()[0][2])
}

func TestWifiScanPopulatesTable(t *testing.T) {
	backend := newMockBackend()
	m := NewWifiModel(backend)

	msg := m.scan()()
	networks, ok := msg.(scanMsg)
	require.True(t, ok)

	m, _ = m.Update(networks)
	require.Len(t, m.Table.Rows(), 1)
	assert.Equal(t, "Home", m.Table.Rows()[0][0])
	assert.Equal(t, "-48 dBm", m.Table.Rows()[0][1])
}

func TestBackendErrorShown(t *testing.T) {
	m := NewModel(newMockBackend())
	updated, _ := m.Update(BackendError{Err: assert.AnError})
	m = updated.(Model)
	assert.NotEmpty(t, m.LastError)
	assert.Contains(t, m.View(), "error:")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "1.5 MiB", FormatBytes(1536*1024))
	assert.Equal(t, "2.0 GiB", FormatBytes(2*1024*1024*1024))
}
