// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package hotspot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/logging"
	"grimm.is/netman/internal/reconcile"
	"grimm.is/netman/internal/tools"
	"grimm.is/netman/internal/units"
)

// NATTable is the subset of iptables operations the hotspot needs. The
// production implementation is coreos/go-iptables; tests inject a fake.
type NATTable interface {
	AppendUnique(table, chain string, rulespec ...string) error
	DeleteIfExists(table, chain string, rulespec ...string) error
}

// Pinger checks reachability of a host. Used as a best-effort uplink
// probe before sharing a connection.
type Pinger interface {
	Check(ctx context.Context, host string) error
}

// ProbePinger pings with ICMP through pro-bing.
type ProbePinger struct{}

// Check sends one echo request and waits up to three seconds.
func (ProbePinger) Check(ctx context.Context, host string) error {
	p, err := probing.NewPinger(host)
	if err != nil {
		return errors.Wrapf(err, errors.KindExternalTool, "resolving %s", host)
	}
	p.SetPrivileged(true)
	p.Count = 1
	p.Timeout = 3 * time.Second
	if err := p.RunWithContext(ctx); err != nil {
		return errors.Wrapf(err, errors.KindExternalTool, "pinging %s", host)
	}
	if p.Statistics().PacketsRecv == 0 {
		return errors.Errorf(errors.KindTimeout, "no reply from %s", host)
	}
	return nil
}

// connectivityProbeHost is pinged before sharing the uplink. Failure only
// warns; a hotspot without internet is still useful locally.
const connectivityProbeHost = "8.8.8.8"

type active struct {
	cfg    Config
	uplink string
}

// Manager owns hotspot lifecycles. One hotspot runs per interface;
// starting a second stops the first.
type Manager struct {
	runner     tools.Runner
	state      reconcile.StateSource
	nat        NATTable
	pinger     Pinger
	unitDir    string
	runtimeDir string
	logger     *logging.Logger

	mu     sync.Mutex
	active map[string]active
}

// NewManager wires a hotspot manager.
func NewManager(runner tools.Runner, state reconcile.StateSource, nat NATTable, pinger Pinger, unitDir, runtimeDir string, logger *logging.Logger) *Manager {
	return &Manager{
		runner:     runner,
		state:      state,
		nat:        nat,
		pinger:     pinger,
		unitDir:    unitDir,
		runtimeDir: runtimeDir,
		logger:     logger.WithComponent("hotspot"),
		active:     make(map[string]active),
	}
}

// Active reports whether a hotspot runs on the interface.
func (m *Manager) Active(iface string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[iface]
	return ok
}

func (m *Manager) hostapdConf(iface string) string {
	return filepath.Join(m.runtimeDir, fmt.Sprintf("hostapd-%s.conf", iface))
}

func (m *Manager) dnsmasqConf(iface string) string {
	return filepath.Join(m.runtimeDir, fmt.Sprintf("dnsmasq-%s.conf", iface))
}

// Start brings up an access point. Every precondition is checked before
// the first process call: an invalid configuration or a role conflict
// leaves the system untouched.
func (m *Manager) Start(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := m.checkConflict(cfg.Interface); err != nil {
		return err
	}

	m.mu.Lock()
	_, restarting := m.active[cfg.Interface]
	m.mu.Unlock()
	if restarting {
		if err := m.Stop(ctx, cfg.Interface); err != nil {
			return err
		}
	}

	log := m.logger.With("iface", cfg.Interface, "ssid", cfg.SSID)

	uplink := m.findUplink(ctx, cfg.Interface)
	if uplink == "" {
		log.Warn("no uplink with a default route, hotspot will be local-only")
	} else if err := m.pinger.Check(ctx, connectivityProbeHost); err != nil {
		log.Warn("uplink connectivity probe failed", "uplink", uplink, "error", err)
	}

	if err := os.MkdirAll(m.runtimeDir, 0755); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "creating %s", m.runtimeDir)
	}
	// hostapd config carries the passphrase.
	if err := os.WriteFile(m.hostapdConf(cfg.Interface), []byte(RenderHostapd(cfg)), 0600); err != nil {
		return errors.Wrap(err, errors.KindInternal, "writing hostapd config")
	}
	if err := os.WriteFile(m.dnsmasqConf(cfg.Interface), []byte(RenderDnsmasq(cfg)), 0644); err != nil {
		return errors.Wrap(err, errors.KindInternal, "writing dnsmasq config")
	}

	steps := [][]string{
		{"ip", "link", "set", cfg.Interface, "down"},
		{"ip", "addr", "flush", "dev", cfg.Interface},
		{"ip", "addr", "add", cfg.Gateway + "/24", "dev", cfg.Interface},
		{"ip", "link", "set", cfg.Interface, "up"},
		{"sysctl", "-w", "net.ipv4.ip_forward=1"},
	}
	for _, s := range steps {
		if _, err := m.runner.Run(ctx, s[0], s[1:]...); err != nil {
			return err
		}
	}

	if uplink != "" && m.nat != nil {
		if err := m.applyNAT(cfg.Interface, uplink); err != nil {
			return err
		}
	}

	if _, err := m.runner.Run(ctx, "hostapd", "-B", m.hostapdConf(cfg.Interface)); err != nil {
		return err
	}
	if _, err := m.runner.Run(ctx, "dnsmasq", "-C", m.dnsmasqConf(cfg.Interface)); err != nil {
		return err
	}

	m.mu.Lock()
	m.active[cfg.Interface] = active{cfg: cfg, uplink: uplink}
	m.mu.Unlock()
	log.Info("hotspot started", "channel", cfg.Channel, "uplink", uplink)
	return nil
}

// Stop tears the hotspot down and returns the interface to an
// unconfigured state.
func (m *Manager) Stop(ctx context.Context, iface string) error {
	m.mu.Lock()
	a, ok := m.active[iface]
	m.mu.Unlock()
	if !ok {
		return errors.Errorf(errors.KindNotFound, "no hotspot active on %s", iface)
	}

	// Kill by config path so only our instances die.
	if _, err := m.runner.Run(ctx, "pkill", "-f", m.hostapdConf(iface)); err != nil {
		m.logger.Warn("hostapd not terminated", "iface", iface, "error", err)
	}
	if _, err := m.runner.Run(ctx, "pkill", "-f", m.dnsmasqConf(iface)); err != nil {
		m.logger.Warn("dnsmasq not terminated", "iface", iface, "error", err)
	}

	if a.uplink != "" && m.nat != nil {
		if err := m.removeNAT(iface, a.uplink); err != nil {
			m.logger.Warn("NAT rules not fully removed", "iface", iface, "error", err)
		}
	}

	for _, s := range [][]string{
		{"ip", "addr", "flush", "dev", iface},
		{"ip", "link", "set", iface, "down"},
	} {
		if _, err := m.runner.Run(ctx, s[0], s[1:]...); err != nil {
			return err
		}
	}

	os.Remove(m.hostapdConf(iface))
	os.Remove(m.dnsmasqConf(iface))

	m.mu.Lock()
	delete(m.active, iface)
	m.mu.Unlock()
	m.logger.Info("hotspot stopped", "iface", iface)
	return nil
}

// checkConflict rejects interfaces already owned by another managed role.
func (m *Manager) checkConflict(iface string) error {
	for _, unit := range []string{
		units.NetworkUnitName(units.RoleWireless, iface),
		units.NetworkUnitName(units.RoleWireGuard, iface),
		units.NetdevUnitName(iface),
	} {
		if _, err := os.Stat(filepath.Join(m.unitDir, unit)); err == nil {
			return errors.Attr(errors.Errorf(errors.KindConflict,
				"%s is already managed via %s", iface, unit), "iface", iface)
		}
	}
	return nil
}

// findUplink returns the interface holding the default route, excluding
// the hotspot interface itself.
func (m *Manager) findUplink(ctx context.Context, exclude string) string {
	snap, err := m.state.Refresh(ctx)
	if err != nil {
		m.logger.Debug("uplink discovery on stale state", "error", err)
	}
	for _, iface := range snap.Interfaces {
		if iface.Name == exclude {
			continue
		}
		if iface.Gateway4 != "" || iface.Gateway6 != "" {
			return iface.Name
		}
	}
	return ""
}

func natRules(iface, uplink string) []struct {
	table, chain string
	spec         []string
} {
	return []struct {
		table, chain string
		spec         []string
	}{
		{"nat", "POSTROUTING", []string{"-o", uplink, "-j", "MASQUERADE"}},
		{"filter", "FORWARD", []string{"-i", iface, "-o", uplink, "-j", "ACCEPT"}},
		{"filter", "FORWARD", []string{"-i", uplink, "-o", iface,
			"-m", "state", "--state", "RELATED,ESTABLISHED", "-j", "ACCEPT"}},
	}
}

func (m *Manager) applyNAT(iface, uplink string) error {
	for _, r := range natRules(iface, uplink) {
		if err := m.nat.AppendUnique(r.table, r.chain, r.spec...); err != nil {
			return errors.Wrapf(err, errors.KindExternalTool,
				"adding %s/%s rule", r.table, r.chain)
		}
	}
	return nil
}

func (m *Manager) removeNAT(iface, uplink string) error {
	var firstErr error
	for _, r := range natRules(iface, uplink) {
		if err := m.nat.DeleteIfExists(r.table, r.chain, r.spec...); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, errors.KindExternalTool,
				"removing %s/%s rule", r.table, r.chain)
		}
	}
	return firstErr
}
