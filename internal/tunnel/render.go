// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import (
	"fmt"
	"net/netip"
	"strings"

	"grimm.is/netman/internal/units"
)

// RenderNetdev produces the .netdev unit carrying the private key. The
// file must be persisted owner-read only.
func RenderNetdev(c Config) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("[NetDev]\n")
	fmt.Fprintf(&b, "Name=%s\n", c.Name)
	b.WriteString("Kind=wireguard\n")
	if c.MTU != 0 {
		fmt.Fprintf(&b, "MTUBytes=%d\n", c.MTU)
	}

	b.WriteString("\n[WireGuard]\n")
	fmt.Fprintf(&b, "PrivateKey=%s\n", c.PrivateKey)
	if c.ListenPort != 0 {
		fmt.Fprintf(&b, "ListenPort=%d\n", c.ListenPort)
	}

	for _, p := range c.Peers {
		b.WriteString("\n[WireGuardPeer]\n")
		fmt.Fprintf(&b, "PublicKey=%s\n", p.PublicKey)
		if p.PresharedKey != "" {
			fmt.Fprintf(&b, "PresharedKey=%s\n", p.PresharedKey)
		}
		fmt.Fprintf(&b, "AllowedIPs=%s\n", strings.Join(p.AllowedIPs, ","))
		if p.Endpoint != "" {
			fmt.Fprintf(&b, "Endpoint=%s\n", p.Endpoint)
		}
		if p.PersistentKeepalive != 0 {
			fmt.Fprintf(&b, "PersistentKeepalive=%d\n", p.PersistentKeepalive)
		}
	}
	return b.String(), nil
}

// NetworkConfig translates the tunnel's addressing into the desired
// configuration its .network unit renders from.
func NetworkConfig(c Config) units.DesiredConfig {
	d := units.DesiredConfig{Name: c.Name, DNS: c.DNS, MTU: c.MTU}
	for _, a := range c.Addresses {
		p, err := netip.ParsePrefix(a)
		if err != nil {
			continue
		}
		if p.Addr().Is4() {
			d.V4.Mode = units.ModeStatic
			d.V4.Addresses = append(d.V4.Addresses, a)
		} else {
			d.V6.Mode = units.ModeStatic
			d.V6.Addresses = append(d.V6.Addresses, a)
		}
	}
	return d
}
