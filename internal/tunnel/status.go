// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.zx2c4.com/wireguard/wgctrl"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/tools"
)

// PeerStatus is the live view of one peer.
type PeerStatus struct {
	PublicKey     string
	Endpoint      string
	AllowedIPs    []string
	LastHandshake time.Time
	RxBytes       int64
	TxBytes       int64
	// KeepaliveSeconds is zero when persistent keepalive is off.
	KeepaliveSeconds int
}

// Status is the live view of one tunnel.
type Status struct {
	Name       string
	PublicKey  string
	ListenPort int
	Peers      []PeerStatus
}

// QueryStatus reads live tunnel state. The wgctrl kernel interface is
// tried first; when unavailable (userspace implementations, restricted
// containers) it falls back to parsing `wg show <name> dump` through the
// gateway.
func QueryStatus(ctx context.Context, runner tools.Runner, name string) (*Status, error) {
	if s, err := queryWgctrl(name); err == nil {
		return s, nil
	}

	out, err := runner.Run(ctx, "wg", "show", name, "dump")
	if err != nil {
		return nil, err
	}
	return ParseDump(name, out.Stdout)
}

func queryWgctrl(name string) (*Status, error) {
	c, err := wgctrl.New()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	d, err := c.Device(name)
	if err != nil {
		return nil, err
	}

	s := &Status{
		Name:       d.Name,
		PublicKey:  d.PublicKey.String(),
		ListenPort: d.ListenPort,
	}
	for _, p := range d.Peers {
		ps := PeerStatus{
			PublicKey:        p.PublicKey.String(),
			LastHandshake:    p.LastHandshakeTime,
			RxBytes:          p.ReceiveBytes,
			TxBytes:          p.TransmitBytes,
			KeepaliveSeconds: int(p.PersistentKeepaliveInterval / time.Second),
		}
		if p.Endpoint != nil {
			ps.Endpoint = p.Endpoint.String()
		}
		for _, ip := range p.AllowedIPs {
			ps.AllowedIPs = append(ps.AllowedIPs, ip.String())
		}
		s.Peers = append(s.Peers, ps)
	}
	return s, nil
}

// ParseDump reads the tab-separated `wg show <name> dump` format: one
// device line (private key, public key, listen port, fwmark) followed by
// one line per peer (public key, preshared key, endpoint, allowed IPs,
// handshake epoch, rx, tx, keepalive).
func ParseDump(name, out string) (*Status, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, errors.Errorf(errors.KindExternalTool, "wg dump for %s is empty", name)
	}

	head := strings.Split(lines[0], "\t")
	if len(head) < 3 {
		return nil, errors.Errorf(errors.KindExternalTool, "wg dump device line has %d fields", len(head))
	}

	s := &Status{Name: name, PublicKey: head[1]}
	if port, err := strconv.Atoi(head[2]); err == nil {
		s.ListenPort = port
	}

	for _, line := range lines[1:] {
		f := strings.Split(line, "\t")
		if len(f) < 8 {
			continue
		}
		p := PeerStatus{PublicKey: f[0]}
		if f[2] != "(none)" {
			p.Endpoint = f[2]
		}
		if f[3] != "(none)" {
			p.AllowedIPs = strings.Split(f[3], ",")
		}
		if epoch, err := strconv.ParseInt(f[4], 10, 64); err == nil && epoch > 0 {
			p.LastHandshake = time.Unix(epoch, 0)
		}
		p.RxBytes, _ = strconv.ParseInt(f[5], 10, 64)
		p.TxBytes, _ = strconv.ParseInt(f[6], 10, 64)
		if f[7] != "off" {
			p.KeepaliveSeconds, _ = strconv.Atoi(f[7])
		}
		s.Peers = append(s.Peers, p)
	}
	return s, nil
}

// HandshakeAge returns how long ago the peer last completed a handshake,
// or false when it never has.
func (p PeerStatus) HandshakeAge(now time.Time) (time.Duration, bool) {
	if p.LastHandshake.IsZero() {
		return 0, false
	}
	return now.Sub(p.LastHandshake), true
}
