// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package reconcile drives desired interface configuration into the
// network daemon. Planning is pure and testable; Apply performs the
// writes and tool calls a plan describes.
package reconcile

import (
	"net/netip"

	"grimm.is/netman/internal/netstate"
	"grimm.is/netman/internal/units"
)

// ActionKind identifies one step of a reconciliation plan.
type ActionKind string

const (
	ActionWriteUnit       ActionKind = "write_unit"
	ActionRemoveUnit      ActionKind = "remove_unit"
	ActionReloadDaemon    ActionKind = "reload_daemon"
	ActionReconfigureLink ActionKind = "reconfigure_link"
)

// Action is one step of a plan. Plans are executed in order; a failed
// step aborts the remainder.
type Action struct {
	Kind     ActionKind
	UnitName string
	// Contents is set for ActionWriteUnit only.
	Contents string
	Iface    string
}

// Plan compares desired configuration against the persisted unit text and
// the live interface, and returns the steps needed to make them agree. An
// empty plan means the system already matches. conflicts names units
// persisted for the same interface under other roles; they are removed
// even when the primary unit is unchanged. live may be nil when the
// interface is not currently visible.
func Plan(role units.Role, desired units.DesiredConfig, persisted string, conflicts []string, live *netstate.Interface) ([]Action, error) {
	rendered, err := units.Render(desired)
	if err != nil {
		return nil, err
	}

	if rendered == persisted && len(conflicts) == 0 && live != nil && Converged(desired, *live) {
		return nil, nil
	}

	var actions []Action
	if rendered != persisted {
		actions = append(actions, Action{
			Kind:     ActionWriteUnit,
			UnitName: units.NetworkUnitName(role, desired.Name),
			Contents: rendered,
			Iface:    desired.Name,
		})
	}
	for _, stale := range conflicts {
		actions = append(actions, Action{
			Kind:     ActionRemoveUnit,
			UnitName: stale,
			Iface:    desired.Name,
		})
	}
	actions = append(actions,
		Action{Kind: ActionReloadDaemon},
		Action{Kind: ActionReconfigureLink, Iface: desired.Name},
	)
	return actions, nil
}

// Converged reports whether the live interface satisfies the desired
// configuration: operational, carrying every static address, and holding
// a lease for each DHCP family.
func Converged(desired units.DesiredConfig, live netstate.Interface) bool {
	if !live.AdminUp {
		return false
	}
	switch live.OperState {
	case "up", "routable", "carrier":
	default:
		return false
	}

	if !familyConverged(desired.V4, live, true) {
		return false
	}
	if !familyConverged(desired.V6, live, false) {
		return false
	}
	return true
}

func familyConverged(f units.FamilyConfig, live netstate.Interface, v4 bool) bool {
	switch f.Mode {
	case units.ModeStatic:
		for _, want := range f.Addresses {
			if !hasAddress(live.Addresses, want) {
				return false
			}
		}
	case units.ModeDHCP:
		if !hasFamilyAddress(live.Addresses, v4) {
			return false
		}
	}
	return true
}

func hasAddress(addrs []string, want string) bool {
	wp, err := netip.ParsePrefix(want)
	if err != nil {
		return false
	}
	for _, a := range addrs {
		p, err := netip.ParsePrefix(a)
		if err != nil {
			continue
		}
		if p == wp {
			return true
		}
	}
	return false
}

func hasFamilyAddress(addrs []string, v4 bool) bool {
	for _, a := range addrs {
		p, err := netip.ParsePrefix(a)
		if err != nil {
			continue
		}
		if p.Addr().Is4() == v4 {
			return true
		}
	}
	return false
}
