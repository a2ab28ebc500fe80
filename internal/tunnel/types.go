// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package tunnel manages WireGuard tunnels: key generation, declarative
// configuration through networkd netdev units, live status and teardown.
// The cryptography lives in the kernel and the wg tool; this package
// never sees plaintext traffic and never logs key material.
package tunnel

import (
	"fmt"
	"net/netip"
	"strings"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/units"
)

// Peer is one remote endpoint of a tunnel.
type Peer struct {
	PublicKey    string
	PresharedKey string
	// Endpoint is host:port; empty for peers that only dial in.
	Endpoint string
	// AllowedIPs are the CIDR ranges routed into the tunnel for this peer.
	AllowedIPs []string
	// PersistentKeepalive in seconds; zero disables it.
	PersistentKeepalive int
}

// Config is the full desired state of one tunnel.
type Config struct {
	Name       string
	PrivateKey string
	ListenPort int
	// Addresses the tunnel interface takes, CIDR notation.
	Addresses []string
	DNS       []string
	MTU       int
	Peers     []Peer
}

// String renders the configuration for logs with all key material
// redacted.
func (c Config) String() string {
	return fmt.Sprintf("tunnel{name:%s port:%d addrs:%v peers:%d key:redacted}",
		c.Name, c.ListenPort, c.Addresses, len(c.Peers))
}

// Validate checks the configuration before anything is rendered. Keys
// must parse as curve25519 keys and every allowed-IP range must be
// well-formed CIDR.
func (c Config) Validate() error {
	if err := units.ValidateInterfaceName(c.Name); err != nil {
		return err
	}
	if _, err := wgtypes.ParseKey(c.PrivateKey); err != nil {
		return errors.Validation("private_key", "private key does not parse")
	}
	if c.ListenPort < 0 || c.ListenPort > 65535 {
		return errors.Validation("listen_port", "listen port %d out of range", c.ListenPort)
	}
	if len(c.Addresses) == 0 {
		return errors.Validation("addresses", "tunnel needs at least one address")
	}
	for _, a := range c.Addresses {
		if _, err := netip.ParsePrefix(a); err != nil {
			return errors.Validation("addresses", "address %q is not CIDR notation", a)
		}
	}
	for _, dns := range c.DNS {
		if _, err := netip.ParseAddr(dns); err != nil {
			return errors.Validation("dns", "DNS server %q is not an IP address", dns)
		}
	}
	if len(c.Peers) == 0 {
		return errors.Validation("peers", "tunnel needs at least one peer")
	}
	for i, p := range c.Peers {
		if err := p.validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (p Peer) validate(i int) error {
	field := fmt.Sprintf("peers[%d]", i)
	if _, err := wgtypes.ParseKey(p.PublicKey); err != nil {
		return errors.Validation(field+".public_key", "peer %d public key does not parse", i)
	}
	if p.PresharedKey != "" {
		if _, err := wgtypes.ParseKey(p.PresharedKey); err != nil {
			return errors.Validation(field+".preshared_key", "peer %d preshared key does not parse", i)
		}
	}
	if len(p.AllowedIPs) == 0 {
		return errors.Validation(field+".allowed_ips", "peer %d has no allowed IPs", i)
	}
	for _, cidr := range p.AllowedIPs {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			return errors.Validation(field+".allowed_ips",
				"peer %d allowed IP %q is not CIDR notation", i, cidr)
		}
	}
	if p.Endpoint != "" && !strings.Contains(p.Endpoint, ":") {
		return errors.Validation(field+".endpoint", "peer %d endpoint %q has no port", i, p.Endpoint)
	}
	if p.PersistentKeepalive < 0 || p.PersistentKeepalive > 65535 {
		return errors.Validation(field+".persistent_keepalive",
			"peer %d keepalive %d out of range", i, p.PersistentKeepalive)
	}
	return nil
}
