// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package units

import "fmt"

// Role determines the priority prefix of a unit file. Lower prefixes win
// when multiple units match the same interface, so each role gets its own
// band and stale units from other roles must be removed on apply.
type Role string

const (
	RoleWired     Role = "wired"
	RoleWireless  Role = "wireless"
	RoleWireGuard Role = "wireguard"
)

// prefixes by role, matching the systemd-networkd convention of ordering
// unit files lexically.
const (
	prefixWired     = "10"
	prefixWireless  = "25"
	prefixWireGuard = "50"
)

func rolePrefix(r Role) string {
	switch r {
	case RoleWireless:
		return prefixWireless
	case RoleWireGuard:
		return prefixWireGuard
	default:
		return prefixWired
	}
}

// NetworkUnitName returns the .network file name for an interface under a
// role.
func NetworkUnitName(role Role, iface string) string {
	return fmt.Sprintf("%s-%s.network", rolePrefix(role), iface)
}

// NetdevUnitName returns the .netdev file name for a virtual device. Only
// WireGuard devices are created this way.
func NetdevUnitName(iface string) string {
	return fmt.Sprintf("%s-%s.netdev", prefixWireGuard, iface)
}

// ConflictingUnitNames lists every unit file that would compete with the
// given role's unit for the same interface. Applying a configuration must
// remove these so exactly one unit matches.
func ConflictingUnitNames(role Role, iface string) []string {
	var names []string
	for _, r := range []Role{RoleWired, RoleWireless, RoleWireGuard} {
		if r == role {
			continue
		}
		names = append(names, NetworkUnitName(r, iface))
	}
	return names
}
