// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package units

import (
	"fmt"
	"strings"
)

// Render converts a desired configuration into networkd unit text. The
// configuration is validated first; invalid input renders nothing.
func Render(c DesiredConfig) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Match]\nName=%s\n\n", c.Name)
	b.WriteString("[Network]\n")

	if dhcp := dhcpDirective(c); dhcp != "" {
		fmt.Fprintf(&b, "DHCP=%s\n", dhcp)
	}
	for _, a := range c.V4.Addresses {
		fmt.Fprintf(&b, "Address=%s\n", a)
	}
	for _, a := range c.V6.Addresses {
		fmt.Fprintf(&b, "Address=%s\n", a)
	}
	if c.V4.Gateway != "" {
		fmt.Fprintf(&b, "Gateway=%s\n", c.V4.Gateway)
	}
	if c.V6.Gateway != "" {
		fmt.Fprintf(&b, "Gateway=%s\n", c.V6.Gateway)
	}
	for _, dns := range c.DNS {
		fmt.Fprintf(&b, "DNS=%s\n", dns)
	}
	if c.AcceptRA != nil {
		fmt.Fprintf(&b, "IPv6AcceptRA=%s\n", yesNo(*c.AcceptRA))
	}
	if c.PrivacyExtensions != nil {
		fmt.Fprintf(&b, "IPv6PrivacyExtensions=%s\n", yesNo(*c.PrivacyExtensions))
	}

	b.WriteString("\n[Link]\n")
	fmt.Fprintf(&b, "RequiredForOnline=%s\n", yesNo(c.RequiredForOnline))
	if c.MTU != 0 {
		fmt.Fprintf(&b, "MTUBytes=%d\n", c.MTU)
	}

	return b.String(), nil
}

// dhcpDirective maps the per-family modes onto networkd's combined DHCP=
// directive.
func dhcpDirective(c DesiredConfig) string {
	v4 := c.V4.Mode == ModeDHCP
	v6 := c.V6.Mode == ModeDHCP
	switch {
	case v4 && v6:
		return "yes"
	case v4:
		return "ipv4"
	case v6:
		return "ipv6"
	default:
		return ""
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
