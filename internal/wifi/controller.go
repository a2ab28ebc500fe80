// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package wifi

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/logging"
	"grimm.is/netman/internal/reconcile"
	"grimm.is/netman/internal/tools"
	"grimm.is/netman/internal/units"
)

// Controller drives the connection lifecycle for wireless interfaces.
// One controller serves one interface; the state machine guarantees a
// single in-flight transition.
type Controller struct {
	iface         string
	runner        tools.Runner
	recon         *reconcile.Reconciler
	store         *Store
	supplicantDir string
	scanTimeout   time.Duration
	machine       *Machine
	logger        *logging.Logger

	// scanMu guards lastScan; the frontend reads results concurrently
	// with an in-flight scan.
	scanMu   sync.Mutex
	lastScan []Network
}

// NewController wires a controller for one wireless interface.
func NewController(iface string, runner tools.Runner, recon *reconcile.Reconciler, store *Store, supplicantDir string, scanTimeout time.Duration, logger *logging.Logger) *Controller {
	if scanTimeout <= 0 {
		scanTimeout = 20 * time.Second
	}
	return &Controller{
		iface:         iface,
		runner:        runner,
		recon:         recon,
		store:         store,
		supplicantDir: supplicantDir,
		scanTimeout:   scanTimeout,
		machine:       NewMachine(),
		logger:        logger.WithComponent("wifi").With("iface", iface),
	}
}

// State exposes the current lifecycle state.
func (c *Controller) State() State { return c.machine.State() }

// StateHistory exposes the transitions of the current lifecycle.
func (c *Controller) StateHistory() []State { return c.machine.History() }

// FailureReason returns the error behind a Failed state, or nil.
func (c *Controller) FailureReason() error { return c.machine.Reason() }

// Networks returns the results of the most recent scan.
func (c *Controller) Networks() []Network {
	c.scanMu.Lock()
	defer c.scanMu.Unlock()
	out := make([]Network, len(c.lastScan))
	copy(out, c.lastScan)
	return out
}

// Scan discovers nearby networks. The scan has its own timeout budget; on
// expiry the machine settles in Failed with a timeout error rather than
// hanging in Scanning.
func (c *Controller) Scan(ctx context.Context) ([]Network, error) {
	if err := c.machine.To(StateScanning); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, c.scanTimeout)
	defer cancel()

	out, err := c.runner.Run(sctx, "iw", "dev", c.iface, "scan")
	if err != nil {
		if sctx.Err() == context.DeadlineExceeded {
			err = errors.Wrapf(err, errors.KindTimeout, "scan on %s exceeded %s", c.iface, c.scanTimeout)
		}
		c.machine.Fail(err)
		return nil, err
	}

	networks := ParseScan(out.Stdout)
	c.scanMu.Lock()
	c.lastScan = networks
	c.scanMu.Unlock()

	if err := c.machine.To(StateNetworksListed); err != nil {
		return nil, err
	}
	c.logger.Info("scan complete", "networks", len(networks))
	return c.Networks(), nil
}

// Select picks a network from the last scan. When a stored credential
// with auto-connect exists the association proceeds immediately; otherwise
// the machine waits in Selecting for a credential via Connect.
func (c *Controller) Select(ctx context.Context, ssid string) (bool, error) {
	found := false
	for _, n := range c.Networks() {
		if n.SSID == ssid {
			found = true
			break
		}
	}
	if !found {
		return false, errors.Errorf(errors.KindNotFound, "network %q not in scan results", ssid)
	}

	if err := c.machine.To(StateSelecting); err != nil {
		return false, err
	}

	cred, ok := c.store.Lookup(ssid)
	if ok && cred.AutoConnect {
		return true, c.Connect(ctx, cred, false)
	}
	return false, nil
}

// Connect authenticates and associates with the credential's network.
// Hidden networks skip scanning entirely: Connect is valid from Idle and
// the rendered supplicant block probes for the SSID directly. remember
// persists the credential on success.
func (c *Controller) Connect(ctx context.Context, cred Credential, remember bool) error {
	if err := c.machine.To(StateAuthenticating); err != nil {
		return err
	}

	supplicantConf, err := RenderSupplicant(cred)
	if err != nil {
		c.machine.Fail(err)
		return err
	}

	confName := SupplicantFileName(c.iface)
	if err := writeSecret(c.supplicantDir, confName, supplicantConf); err != nil {
		c.machine.Fail(err)
		return err
	}

	if _, err := c.runner.Run(ctx, "systemctl", "restart", "wpa_supplicant@"+c.iface); err != nil {
		c.machine.Fail(err)
		return err
	}

	if err := c.machine.To(StateAssociating); err != nil {
		return err
	}

	// Association is confirmed the same way as any apply: the interface
	// must go operational with an address within the convergence budget.
	desired := units.DesiredConfig{
		Name: c.iface,
		V4:   units.FamilyConfig{Mode: units.ModeDHCP},
		V6:   units.FamilyConfig{Mode: units.ModeDHCP},
	}
	if _, err := c.recon.Apply(ctx, units.RoleWireless, desired); err != nil {
		c.machine.Fail(err)
		return err
	}

	if err := c.machine.To(StateConnected); err != nil {
		return err
	}
	c.logger.Info("connected", "ssid", cred.SSID)

	if remember {
		if err := c.store.Upsert(cred); err != nil {
			c.logger.Warn("credential not persisted", "ssid", cred.SSID, "error", err)
		}
	}
	return nil
}

// Diagnostics refreshes signal and bitrate figures for the active
// connection. Valid only in Connected and never changes state.
func (c *Controller) Diagnostics(ctx context.Context) (Diagnostics, error) {
	if s := c.machine.State(); s != StateConnected {
		return Diagnostics{}, errors.Errorf(errors.KindConflict, "diagnostics unavailable in state %s", s)
	}
	out, err := c.runner.Run(ctx, "iw", "dev", c.iface, "link")
	if err != nil {
		return Diagnostics{}, err
	}
	return ParseLinkDiagnostics(out.Stdout), nil
}

// Disconnect tears the connection down from any state and settles Idle.
// An in-flight scan or association observes the cancelled context and
// stops; the supplicant is always stopped so no external process leaks.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.logger.Info("disconnecting")

	if _, err := c.runner.Run(ctx, "systemctl", "stop", "wpa_supplicant@"+c.iface); err != nil {
		c.logger.Warn("supplicant stop failed", "error", err)
	}
	if err := c.recon.Release(ctx, c.iface); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(c.supplicantDir, SupplicantFileName(c.iface))); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("supplicant config not removed", "error", err)
	}

	c.machine.Reset()
	return nil
}

// Retry re-enters Scanning after a failure.
func (c *Controller) Retry(ctx context.Context) ([]Network, error) {
	if s := c.machine.State(); s != StateFailed {
		return nil, errors.Errorf(errors.KindConflict, "retry only valid from failed, not %s", s)
	}
	return c.Scan(ctx)
}

// writeSecret writes credential-bearing files owner-read only, atomically.
func writeSecret(dir, name, contents string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "creating %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, errors.KindInternal, "creating temp file for %s", name)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(contents); err != nil {
		tmp.Close()
		return errors.Wrapf(err, errors.KindInternal, "writing %s", name)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.Wrapf(err, errors.KindInternal, "restricting %s", name)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, errors.KindInternal, "syncing %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "closing %s", name)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "installing %s", name)
	}
	return nil
}
