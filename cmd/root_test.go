// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"grimm.is/netman/internal/netstate"
)

func capturePrinter(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Printer.Out
	Printer.Out = &buf
	t.Cleanup(func() { Printer.Out = old })
	return &buf
}

func TestMainHelp(t *testing.T) {
	buf := capturePrinter(t)
	code := Main([]string{"--help"})
	assert.Equal(t, 0, code)
	assert.Contains(t, buf.String(), "Usage:")
	assert.Contains(t, buf.String(), "netman list")
}

func TestMainVersion(t *testing.T) {
	buf := capturePrinter(t)
	code := Main([]string{"--version"})
	assert.Equal(t, 0, code)
	assert.Contains(t, buf.String(), Version)
}

func TestMainUnknownCommand(t *testing.T) {
	code := Main([]string{"frobnicate"})
	assert.Equal(t, 2, code)
}

func TestMainAddrBadArity(t *testing.T) {
	code := Main([]string{"addr", "add", "eth0"})
	assert.Equal(t, 2, code)
}

func TestMainConfigMissingPath(t *testing.T) {
	code := Main([]string{"--config"})
	assert.Equal(t, 2, code)
}

func TestFormatInterfaceList(t *testing.T) {
	snap := netstate.Snapshot{Interfaces: []netstate.Interface{
		{Name: "eth0", Kind: netstate.KindWired, AdminUp: true, OperState: "routable",
			Addresses: []string{"192.168.1.100/24"},
			Stats:     netstate.Stats{RxBytes: 2048, TxBytes: 512}},
		{Name: "wlan0", Kind: netstate.KindWireless, AdminUp: false, OperState: "off"},
	}}

	out := FormatInterfaceList(snap)
	assert.Contains(t, out, "eth0")
	assert.Contains(t, out, "routable")
	assert.Contains(t, out, "192.168.1.100/24")
	assert.Contains(t, out, "2.0 KiB")
	// Administratively down wins over oper state in the listing.
	assert.Contains(t, out, "down")
}

func TestFormatInterfaceListStale(t *testing.T) {
	out := FormatInterfaceList(netstate.Snapshot{Stale: true})
	assert.Contains(t, out, "last known state")
}
