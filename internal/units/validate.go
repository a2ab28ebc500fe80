// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package units

import (
	"net/netip"
	"regexp"

	"grimm.is/netman/internal/errors"
)

var ifaceNameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,15}$`)

// ValidateInterfaceName checks a kernel interface name.
func ValidateInterfaceName(name string) error {
	if name == "" {
		return errors.Validation("name", "interface name is empty")
	}
	if !ifaceNameRe.MatchString(name) {
		return errors.Validation("name", "interface name %q is not a valid kernel name", name)
	}
	return nil
}

// Validate checks the configuration invariants. It runs before any
// rendering or external call; a failure here guarantees no side effects
// have happened.
func (c DesiredConfig) Validate() error {
	if err := ValidateInterfaceName(c.Name); err != nil {
		return err
	}

	if c.V4.Mode == ModeOff && c.V6.Mode == ModeOff {
		return errors.Validation("mode", "at least one protocol family must have an addressing mode")
	}

	if err := c.V4.validate("ipv4", true); err != nil {
		return err
	}
	if err := c.V6.validate("ipv6", false); err != nil {
		return err
	}

	for _, dns := range c.DNS {
		if _, err := netip.ParseAddr(dns); err != nil {
			return errors.Validation("dns", "DNS server %q is not an IP address", dns)
		}
	}

	if c.MTU != 0 && (c.MTU < 576 || c.MTU > 65535) {
		return errors.Validation("mtu", "MTU %d is out of range 576-65535", c.MTU)
	}
	if c.MTU != 0 && c.V6.Mode != ModeOff && c.MTU < 1280 {
		return errors.Validation("mtu", "MTU %d is below the IPv6 minimum of 1280", c.MTU)
	}

	return nil
}

func (f FamilyConfig) validate(family string, v4 bool) error {
	switch f.Mode {
	case ModeOff:
		if len(f.Addresses) > 0 {
			return errors.Validation(family+".addresses",
				"%s addresses given but %s addressing mode is off", family, family)
		}
		if f.Gateway != "" {
			return errors.Validation(family+".gateway",
				"%s gateway given but %s addressing mode is off", family, family)
		}
	case ModeDHCP:
		// DHCP and static assignment are mutually exclusive per family.
		if len(f.Addresses) > 0 {
			return errors.Validation(family+".addresses",
				"%s static addresses conflict with DHCP mode", family)
		}
	case ModeStatic:
		if len(f.Addresses) == 0 {
			return errors.Validation(family+".addresses",
				"%s static mode requires at least one address", family)
		}
	default:
		return errors.Validation(family+".mode", "unknown addressing mode %q", string(f.Mode))
	}

	for _, a := range f.Addresses {
		p, err := netip.ParsePrefix(a)
		if err != nil {
			return errors.Validation(family+".addresses", "address %q is not CIDR notation", a)
		}
		if p.Addr().Is4() != v4 {
			return errors.Validation(family+".addresses",
				"address %q does not belong to family %s", a, family)
		}
	}

	if f.Gateway != "" {
		gw, err := netip.ParseAddr(f.Gateway)
		if err != nil {
			return errors.Validation(family+".gateway", "gateway %q is not an IP address", f.Gateway)
		}
		if gw.Is4() != v4 {
			return errors.Validation(family+".gateway",
				"gateway %q does not belong to family %s", f.Gateway, family)
		}
	}

	return nil
}
