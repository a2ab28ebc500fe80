// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package hotspot turns a wireless interface into an access point with a
// DHCP server and NAT towards the uplink. hostapd and dnsmasq do the
// heavy lifting; this package renders their configuration and owns the
// lifecycle.
package hotspot

import (
	"fmt"
	"net/netip"
	"strings"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/units"
)

// valid5GHzChannels are the non-DFS channels usable without radar
// detection.
var valid5GHzChannels = map[int]bool{
	36: true, 40: true, 44: true, 48: true,
	149: true, 153: true, 157: true, 161: true, 165: true,
}

// Config describes one access point.
type Config struct {
	Interface string
	SSID      string
	// Password is the WPA2 passphrase, minimum 8 characters.
	Password string
	// Channel 1-11 selects 2.4GHz, a valid 5GHz channel selects 5GHz.
	Channel int
	// Gateway is the IPv4 address the hotspot interface takes; DHCP
	// leases come from its /24.
	Gateway string
}

// Validate checks every precondition. It runs before any process call so
// a bad configuration has zero side effects.
func (c Config) Validate() error {
	if err := units.ValidateInterfaceName(c.Interface); err != nil {
		return err
	}
	if c.SSID == "" {
		return errors.Validation("ssid", "hotspot SSID is empty")
	}
	if len(c.SSID) > 32 {
		return errors.Validation("ssid", "hotspot SSID exceeds 32 bytes")
	}
	if len(c.Password) < 8 || len(c.Password) > 63 {
		return errors.Validation("password", "hotspot password must be 8-63 characters")
	}
	if !(c.Channel >= 1 && c.Channel <= 11) && !valid5GHzChannels[c.Channel] {
		return errors.Validation("channel", "channel %d is not a valid 2.4GHz (1-11) or 5GHz channel", c.Channel)
	}

	gw, err := netip.ParseAddr(c.Gateway)
	if err != nil || !gw.Is4() {
		return errors.Validation("gateway", "gateway %q is not an IPv4 address", c.Gateway)
	}
	return nil
}

// hwMode maps the channel onto hostapd's band selector.
func (c Config) hwMode() string {
	if c.Channel >= 1 && c.Channel <= 11 {
		return "g"
	}
	return "a"
}

// network returns the first three octets of the gateway, the /24 the
// DHCP range lives in.
func (c Config) network() string {
	return c.Gateway[:strings.LastIndexByte(c.Gateway, '.')]
}

// RenderHostapd produces the hostapd configuration.
func RenderHostapd(c Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "interface=%s\n", c.Interface)
	b.WriteString("driver=nl80211\n")
	fmt.Fprintf(&b, "ssid=%s\n", c.SSID)
	fmt.Fprintf(&b, "hw_mode=%s\n", c.hwMode())
	fmt.Fprintf(&b, "channel=%d\n", c.Channel)
	b.WriteString("wmm_enabled=1\n")
	b.WriteString("macaddr_acl=0\n")
	b.WriteString("auth_algs=1\n")
	b.WriteString("ignore_broadcast_ssid=0\n")
	b.WriteString("wpa=2\n")
	fmt.Fprintf(&b, "wpa_passphrase=%s\n", c.Password)
	b.WriteString("wpa_key_mgmt=WPA-PSK\n")
	b.WriteString("rsn_pairwise=CCMP\n")
	return b.String()
}

// RenderDnsmasq produces the dnsmasq DHCP configuration. Leases come from
// .10 through .50 of the gateway's /24.
func RenderDnsmasq(c Config) string {
	net := c.network()
	var b strings.Builder
	fmt.Fprintf(&b, "interface=%s\n", c.Interface)
	b.WriteString("bind-interfaces\n")
	fmt.Fprintf(&b, "listen-address=%s\n", c.Gateway)
	fmt.Fprintf(&b, "dhcp-range=%s.10,%s.50,255.255.255.0,24h\n", net, net)
	fmt.Fprintf(&b, "dhcp-option=3,%s\n", c.Gateway)
	b.WriteString("dhcp-option=6,8.8.8.8,8.8.4.4\n")
	b.WriteString("server=8.8.8.8\n")
	return b.String()
}
