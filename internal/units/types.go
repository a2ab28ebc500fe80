// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package units translates desired interface configuration into the
// declarative unit text consumed by systemd-networkd, and back. Rendering
// is pure: validation happens first and no I/O is performed here.
package units

// AddrMode selects how one protocol family gets its addressing. The two
// families are independently configurable; DHCP and static assignment are
// mutually exclusive within a family.
type AddrMode string

const (
	ModeOff    AddrMode = ""
	ModeDHCP   AddrMode = "dhcp"
	ModeStatic AddrMode = "static"
)

// FamilyConfig is the per-family half of a desired configuration.
type FamilyConfig struct {
	Mode AddrMode
	// Addresses in CIDR notation, only valid with ModeStatic.
	Addresses []string
	Gateway   string
}

// DesiredConfig is the full desired state for one interface. It is owned
// by the editing layer until handed to the reconciler, and treated as
// immutable for the duration of an apply cycle.
type DesiredConfig struct {
	// Name is the kernel interface name the unit matches.
	Name string
	V4   FamilyConfig
	V6   FamilyConfig
	DNS  []string
	// MTU in bytes; zero leaves the kernel default.
	MTU int
	// RequiredForOnline marks the interface as required for the
	// network-online target.
	RequiredForOnline bool

	// AcceptRA and PrivacyExtensions are IPv6 link behaviors; nil omits
	// the directive and keeps the daemon default.
	AcceptRA          *bool
	PrivacyExtensions *bool
}

// Equal reports whether two desired configurations are equivalent.
func (c DesiredConfig) Equal(o DesiredConfig) bool {
	if c.Name != o.Name || c.MTU != o.MTU || c.RequiredForOnline != o.RequiredForOnline {
		return false
	}
	if !c.V4.equal(o.V4) || !c.V6.equal(o.V6) {
		return false
	}
	if !stringsEqual(c.DNS, o.DNS) {
		return false
	}
	if !boolPtrEqual(c.AcceptRA, o.AcceptRA) || !boolPtrEqual(c.PrivacyExtensions, o.PrivacyExtensions) {
		return false
	}
	return true
}

func (f FamilyConfig) equal(o FamilyConfig) bool {
	return f.Mode == o.Mode && f.Gateway == o.Gateway && stringsEqual(f.Addresses, o.Addresses)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Bool returns a pointer to b, for the optional directives.
func Bool(b bool) *bool { return &b }
