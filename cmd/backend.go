// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"context"

	"grimm.is/netman/internal/netstate"
	"grimm.is/netman/internal/tui"
	"grimm.is/netman/internal/tunnel"
	"grimm.is/netman/internal/wifi"
)

// LiveBackend adapts the assembled application to the TUI's Backend
// interface.
type LiveBackend struct {
	app *App
}

var _ tui.Backend = (*LiveBackend)(nil)

// NewBackend wraps an App for the TUI.
func NewBackend(app *App) *LiveBackend {
	return &LiveBackend{app: app}
}

// Interfaces returns the current snapshot; the background poller keeps
// it fresh.
func (b *LiveBackend) Interfaces() ([]netstate.Interface, error) {
	snap := b.app.Registry.Snapshot()
	if len(snap.Interfaces) == 0 {
		refreshed, err := b.app.Registry.Refresh(context.Background())
		if err != nil {
			return refreshed.Interfaces, err
		}
		snap = refreshed
	}
	return snap.Interfaces, nil
}

func (b *LiveBackend) ScanNetworks(iface string) ([]wifi.Network, error) {
	return b.app.WifiController(iface).Scan(context.Background())
}

func (b *LiveBackend) WifiState(iface string) wifi.State {
	return b.app.WifiController(iface).State()
}

// ConnectNetwork selects a scanned network. A stored auto-connect
// credential associates directly; otherwise the given passphrase is used
// and remembered on success.
func (b *LiveBackend) ConnectNetwork(iface, ssid, passphrase string) error {
	ctx := context.Background()
	c := b.app.WifiController(iface)

	auto, err := c.Select(ctx, ssid)
	if err != nil || auto {
		return err
	}

	class := wifi.SecurityPSK
	for _, n := range c.Networks() {
		if n.SSID == ssid {
			class = n.Security.Class
			break
		}
	}
	cred := wifi.Credential{
		SSID:        ssid,
		Security:    wifi.Security{Class: class},
		Passphrase:  passphrase,
		AutoConnect: true,
	}
	return c.Connect(ctx, cred, true)
}

func (b *LiveBackend) DisconnectNetwork(iface string) error {
	return b.app.WifiController(iface).Disconnect(context.Background())
}

func (b *LiveBackend) TunnelNames() []string {
	return b.app.TunnelNames()
}

func (b *LiveBackend) TunnelStatus(name string) (*tunnel.Status, error) {
	return tunnel.QueryStatus(context.Background(), b.app.Runner, name)
}
