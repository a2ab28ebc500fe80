// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package netstate observes live kernel interface state and exposes it as
// consistent, atomically replaced snapshots. It is strictly read-only.
package netstate

import (
	"time"
)

// Kind classifies an interface by its backing device type.
type Kind string

const (
	KindWired     Kind = "wired"
	KindWireless  Kind = "wireless"
	KindWireGuard Kind = "wireguard"
	KindBridge    Kind = "bridge"
	KindBond      Kind = "bond"
	KindLoopback  Kind = "loopback"
	KindUnknown   Kind = "unknown"
)

// Stats carries interface byte/packet/error counters. Counters are
// non-decreasing between snapshots of the same interface.
type Stats struct {
	RxBytes   uint64
	TxBytes   uint64
	RxPackets uint64
	TxPackets uint64
	RxErrors  uint64
	TxErrors  uint64
}

// Interface is a point-in-time view of one kernel interface. Interfaces
// are only ever constructed from kernel observations, never synthesized.
type Interface struct {
	Name      string
	Kind      Kind
	MAC       string
	MTU       int
	Driver    string
	AdminUp   bool
	OperState string
	// Addresses in CIDR notation; IPv6 link-local addresses excluded.
	Addresses []string
	Gateway4  string
	Gateway6  string
	DNS       []string
	Stats     Stats
}

// HasAddress reports whether the interface has at least one address.
func (i Interface) HasAddress() bool { return len(i.Addresses) > 0 }

// Snapshot is an immutable, name-ordered view of all interfaces.
type Snapshot struct {
	Taken time.Time
	// Stale is set when the most recent query failed and this snapshot is
	// the last known-good state.
	Stale      bool
	Interfaces []Interface
}

// Lookup returns the named interface from the snapshot.
func (s Snapshot) Lookup(name string) (Interface, bool) {
	for _, iface := range s.Interfaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}
