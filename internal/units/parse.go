// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package units

import (
	"net/netip"
	"strconv"
	"strings"

	"grimm.is/netman/internal/errors"
)

// Parse reads networkd unit text back into a desired configuration. It is
// the inverse of Render for every directive Render emits; unrecognized
// directives are ignored rather than rejected, since units may carry
// daemon options netman does not manage.
func Parse(text string) (DesiredConfig, error) {
	var c DesiredConfig
	section := ""

	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return DesiredConfig{}, errors.Errorf(errors.KindValidation,
				"unit line %d is not a directive: %q", lineNo+1, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch section {
		case "Match":
			if key == "Name" {
				c.Name = value
			}
		case "Network":
			if err := parseNetworkDirective(&c, key, value); err != nil {
				return DesiredConfig{}, err
			}
		case "Link":
			switch key {
			case "RequiredForOnline":
				c.RequiredForOnline = isYes(value)
			case "MTUBytes":
				mtu, err := strconv.Atoi(value)
				if err != nil {
					return DesiredConfig{}, errors.Validation("mtu", "MTUBytes %q is not a number", value)
				}
				c.MTU = mtu
			}
		}
	}

	// Addresses imply static mode for their family unless DHCP already
	// claimed it; a unit with both is rejected by Validate downstream.
	if c.V4.Mode == ModeOff && len(c.V4.Addresses) > 0 {
		c.V4.Mode = ModeStatic
	}
	if c.V6.Mode == ModeOff && len(c.V6.Addresses) > 0 {
		c.V6.Mode = ModeStatic
	}

	return c, nil
}

func parseNetworkDirective(c *DesiredConfig, key, value string) error {
	switch key {
	case "DHCP":
		switch value {
		case "yes", "true":
			c.V4.Mode = ModeDHCP
			c.V6.Mode = ModeDHCP
		case "ipv4":
			c.V4.Mode = ModeDHCP
		case "ipv6":
			c.V6.Mode = ModeDHCP
		case "no", "false":
		default:
			return errors.Validation("mode", "unknown DHCP directive value %q", value)
		}
	case "Address":
		p, err := netip.ParsePrefix(value)
		if err != nil {
			return errors.Validation("addresses", "Address %q is not CIDR notation", value)
		}
		if p.Addr().Is4() {
			c.V4.Addresses = append(c.V4.Addresses, value)
		} else {
			c.V6.Addresses = append(c.V6.Addresses, value)
		}
	case "Gateway":
		a, err := netip.ParseAddr(value)
		if err != nil {
			return errors.Validation("gateway", "Gateway %q is not an IP address", value)
		}
		if a.Is4() {
			c.V4.Gateway = value
		} else {
			c.V6.Gateway = value
		}
	case "DNS":
		c.DNS = append(c.DNS, value)
	case "IPv6AcceptRA":
		c.AcceptRA = Bool(isYes(value))
	case "IPv6PrivacyExtensions":
		c.PrivacyExtensions = Bool(isYes(value))
	}
	return nil
}

func isYes(v string) bool {
	switch strings.ToLower(v) {
	case "yes", "true", "1", "on":
		return true
	}
	return false
}
