// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import (
	"context"
	"os"
	"path/filepath"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/link"
	"grimm.is/netman/internal/logging"
	"grimm.is/netman/internal/reconcile"
	"grimm.is/netman/internal/tools"
	"grimm.is/netman/internal/units"
)

// Manager owns WireGuard tunnel lifecycles.
type Manager struct {
	runner tools.Runner
	recon  *reconcile.Reconciler
	links  link.Ops
	logger *logging.Logger
}

// NewManager wires a tunnel manager.
func NewManager(runner tools.Runner, recon *reconcile.Reconciler, links link.Ops, logger *logging.Logger) *Manager {
	return &Manager{
		runner: runner,
		recon:  recon,
		links:  links,
		logger: logger.WithComponent("tunnel"),
	}
}

// Configure creates or updates a tunnel. The netdev unit carrying the
// private key is written owner-read only; the companion network unit goes
// through the normal apply path. Re-applying an identical configuration
// changes nothing and skips the daemon reload.
func (m *Manager) Configure(ctx context.Context, cfg Config) (*reconcile.Result, error) {
	netdev, err := RenderNetdev(cfg)
	if err != nil {
		return nil, err
	}

	if err := m.checkConflict(cfg.Name); err != nil {
		return nil, err
	}

	netdevName := units.NetdevUnitName(cfg.Name)
	existing, err := reconcile.ReadUnitFile(m.recon.UnitDir(), netdevName)
	if err != nil {
		return nil, err
	}
	netdevChanged := existing != netdev
	if netdevChanged {
		if err := reconcile.WriteUnitFile(m.recon.UnitDir(), netdevName, netdev, 0600); err != nil {
			return nil, err
		}
		// Unit name only; the contents hold the key.
		m.logger.Info("netdev unit written", "tunnel", cfg.Name, "unit", netdevName)
	}

	res, err := m.recon.Apply(ctx, units.RoleWireGuard, NetworkConfig(cfg))
	if err != nil {
		// A failed, unsubmitted apply rolled the network unit back; the
		// netdev must match. Submitted-unconfirmed keeps the new config.
		if netdevChanged && (res == nil || !res.Submitted) {
			m.restoreNetdev(netdevName, existing, cfg.Name)
		}
		return res, err
	}

	// A key or peer change with an unchanged network unit still needs the
	// daemon to re-read the netdev.
	if netdevChanged && !res.Submitted {
		if _, err := m.runner.Run(ctx, "networkctl", "reload"); err != nil {
			m.restoreNetdev(netdevName, existing, cfg.Name)
			return res, err
		}
	}

	if err := m.links.SetUp(cfg.Name); err != nil && errors.GetKind(err) != errors.KindNotFound {
		m.logger.Warn("tunnel link not brought up", "tunnel", cfg.Name, "error", err)
	}
	m.logger.Info("tunnel configured", "config", cfg.String())
	return res, nil
}

// Teardown removes a tunnel: link deleted, both unit files removed,
// daemon reloaded.
func (m *Manager) Teardown(ctx context.Context, name string) error {
	if err := units.ValidateInterfaceName(name); err != nil {
		return err
	}

	if err := m.links.SetDown(name); err != nil && errors.GetKind(err) != errors.KindNotFound {
		m.logger.Warn("tunnel link not brought down", "tunnel", name, "error", err)
	}
	if err := m.links.Delete(name); err != nil && errors.GetKind(err) != errors.KindNotFound {
		return err
	}

	if err := reconcile.RemoveUnitFile(m.recon.UnitDir(), units.NetdevUnitName(name)); err != nil {
		return err
	}
	if err := m.recon.Release(ctx, name); err != nil {
		return err
	}

	m.logger.Info("tunnel removed", "tunnel", name)
	return nil
}

// restoreNetdev puts the prior netdev unit back, byte-for-byte, after a
// failed configure. A tunnel without a predecessor is removed.
func (m *Manager) restoreNetdev(unitName, prior, name string) {
	var err error
	if prior == "" {
		err = reconcile.RemoveUnitFile(m.recon.UnitDir(), unitName)
	} else {
		err = reconcile.WriteUnitFile(m.recon.UnitDir(), unitName, prior, 0600)
	}
	if err != nil {
		m.logger.Error("netdev unit not restored", "tunnel", name, "error", err)
	}
}

// checkConflict rejects names owned by the wired or wireless roles.
func (m *Manager) checkConflict(name string) error {
	for _, unit := range []string{
		units.NetworkUnitName(units.RoleWired, name),
		units.NetworkUnitName(units.RoleWireless, name),
	} {
		if _, err := os.Stat(filepath.Join(m.recon.UnitDir(), unit)); err == nil {
			return errors.Attr(errors.Errorf(errors.KindConflict,
				"%s is already managed via %s", name, unit), "iface", name)
		}
	}
	return nil
}
