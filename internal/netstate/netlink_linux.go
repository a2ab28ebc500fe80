// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

package netstate

import (
	"context"
	"net"
	"os"
	"strings"

	"github.com/safchain/ethtool"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/tools"
)

// NetlinkQuerier reads interface state from the kernel via netlink, with
// driver names from ethtool and DNS servers from resolvectl. ethtool and
// resolvectl are best-effort: their absence degrades the snapshot, it
// does not fail it.
type NetlinkQuerier struct {
	runner tools.Runner
	sysfs  string
}

// NewNetlinkQuerier creates the production querier. runner may be nil, in
// which case DNS servers are not collected.
func NewNetlinkQuerier(runner tools.Runner) *NetlinkQuerier {
	return &NetlinkQuerier{runner: runner, sysfs: "/sys/class/net"}
}

// Query implements Querier.
func (q *NetlinkQuerier) Query(ctx context.Context) ([]Interface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, errors.Wrap(err, errors.KindExternalTool, "listing links via netlink")
	}

	var et *ethtool.Ethtool
	if e, err := ethtool.NewEthtool(); err == nil {
		et = e
		defer et.Close()
	}

	dns := q.dnsServers(ctx)

	var out []Interface
	for _, link := range links {
		attrs := link.Attrs()
		if attrs.Name == "lo" {
			continue
		}
		iface := Interface{
			Name:      attrs.Name,
			Kind:      q.classify(link),
			MAC:       attrs.HardwareAddr.String(),
			MTU:       attrs.MTU,
			AdminUp:   attrs.RawFlags&unix.IFF_UP != 0,
			OperState: attrs.OperState.String(),
			DNS:       dns,
		}

		if et != nil {
			if driver, err := et.DriverName(attrs.Name); err == nil {
				iface.Driver = driver
			}
		}

		if attrs.Statistics != nil {
			iface.Stats = Stats{
				RxBytes:   attrs.Statistics.RxBytes,
				TxBytes:   attrs.Statistics.TxBytes,
				RxPackets: attrs.Statistics.RxPackets,
				TxPackets: attrs.Statistics.TxPackets,
				RxErrors:  attrs.Statistics.RxErrors,
				TxErrors:  attrs.Statistics.TxErrors,
			}
		}

		addrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
		if err == nil {
			for _, a := range addrs {
				if a.IPNet == nil {
					continue
				}
				if a.IP.To4() == nil && a.IP.IsLinkLocalUnicast() {
					continue
				}
				iface.Addresses = append(iface.Addresses, a.IPNet.String())
			}
		}

		iface.Gateway4 = defaultGateway(link, unix.AF_INET)
		iface.Gateway6 = defaultGateway(link, unix.AF_INET6)

		out = append(out, iface)
	}
	return out, nil
}

func defaultGateway(link netlink.Link, family int) string {
	routes, err := netlink.RouteList(link, family)
	if err != nil {
		return ""
	}
	for _, rt := range routes {
		if rt.Dst == nil && rt.Gw != nil {
			return rt.Gw.String()
		}
	}
	return ""
}

func (q *NetlinkQuerier) classify(link netlink.Link) Kind {
	switch link.Type() {
	case "wireguard":
		return KindWireGuard
	case "bridge":
		return KindBridge
	case "bond":
		return KindBond
	}
	name := link.Attrs().Name
	if q.isWireless(name) {
		return KindWireless
	}
	if link.Attrs().Flags&net.FlagLoopback != 0 {
		return KindLoopback
	}
	if link.Type() == "device" || link.Type() == "" {
		return KindWired
	}
	return KindUnknown
}

// isWireless checks for the sysfs wireless directory, the same signal the
// kernel exposes to iw and friends.
func (q *NetlinkQuerier) isWireless(name string) bool {
	_, err := os.Stat(q.sysfs + "/" + name + "/wireless")
	return err == nil
}

// dnsServers asks systemd-resolved for the global DNS server list.
func (q *NetlinkQuerier) dnsServers(ctx context.Context) []string {
	if q.runner == nil {
		return nil
	}
	out, err := q.runner.Run(ctx, "resolvectl", "status")
	if err != nil {
		return nil
	}
	return ParseResolvectlStatus(out.Stdout)
}

// ParseResolvectlStatus extracts the global DNS servers from resolvectl
// status output. Servers appear on the "DNS Servers:" line and on bare
// continuation lines below it.
func ParseResolvectlStatus(text string) []string {
	var servers []string
	inGlobal := false
	collecting := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Global"):
			inGlobal = true
			collecting = false
		case strings.HasPrefix(trimmed, "Link") && strings.Contains(trimmed, "("):
			inGlobal = false
			collecting = false
		case inGlobal && strings.HasPrefix(trimmed, "DNS Servers:"):
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "DNS Servers:"))
			for _, s := range strings.Fields(rest) {
				if net.ParseIP(s) != nil {
					servers = append(servers, s)
				}
			}
			collecting = true
		case inGlobal && collecting:
			if net.ParseIP(trimmed) != nil {
				servers = append(servers, trimmed)
			} else if trimmed != "" {
				collecting = false
			}
		}
	}
	return servers
}
