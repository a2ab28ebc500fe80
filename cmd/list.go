// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"context"
	"fmt"
	"strings"

	"grimm.is/netman/internal/netstate"
	"grimm.is/netman/internal/tui"
)

// RunList prints every interface with its state, addresses and counters.
func RunList(configPath string) error {
	app, err := NewApp(configPath)
	if err != nil {
		return err
	}

	snap, err := app.Registry.Refresh(context.Background())
	if err != nil && len(snap.Interfaces) == 0 {
		return err
	}
	Printer.Printf("%s", FormatInterfaceList(snap))
	return nil
}

// FormatInterfaceList renders a snapshot as an aligned text table.
func FormatInterfaceList(snap netstate.Snapshot) string {
	var b strings.Builder
	if snap.Stale {
		b.WriteString("(state query failed, showing last known state)\n")
	}
	fmt.Fprintf(&b, "%-14s %-10s %-10s %-34s %-10s %-10s\n",
		"NAME", "KIND", "STATE", "ADDRESSES", "RX", "TX")
	for _, iface := range snap.Interfaces {
		state := iface.OperState
		if !iface.AdminUp {
			state = "down"
		}
		fmt.Fprintf(&b, "%-14s %-10s %-10s %-34s %-10s %-10s\n",
			iface.Name,
			string(iface.Kind),
			state,
			strings.Join(iface.Addresses, ","),
			tui.FormatBytes(iface.Stats.RxBytes),
			tui.FormatBytes(iface.Stats.TxBytes),
		)
	}
	return b.String()
}
