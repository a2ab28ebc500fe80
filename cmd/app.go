// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"path/filepath"
	"strings"
	"sync"

	"grimm.is/netman/internal/config"
	"grimm.is/netman/internal/hotspot"
	"grimm.is/netman/internal/link"
	"grimm.is/netman/internal/logging"
	"grimm.is/netman/internal/netstate"
	"grimm.is/netman/internal/reconcile"
	"grimm.is/netman/internal/tools"
	"grimm.is/netman/internal/tunnel"
	"grimm.is/netman/internal/units"
	"grimm.is/netman/internal/wifi"
)

// requiredTools are probed once at startup. A missing tool is a fatal
// startup condition, reported before any operation runs.
var requiredTools = []string{"networkctl", "ip", "iw", "wg", "systemctl"}

// App wires every component for one process.
type App struct {
	Config   *config.Config
	Logger   *logging.Logger
	Runner   tools.Runner
	Registry *netstate.Registry
	Recon    *reconcile.Reconciler
	Store    *wifi.Store
	Hotspot  *hotspot.Manager
	Tunnels  *tunnel.Manager
	Links    link.Ops

	mu          sync.Mutex
	controllers map[string]*wifi.Controller
}

// NewApp loads configuration and assembles the component graph. Startup
// preconditions (privilege, required tools) fail here, once, so every
// later operation can assume its tools exist.
func NewApp(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LoggingLevel()
	if cfg.Syslog != nil {
		logCfg.Syslog = *cfg.Syslog
	}
	logger := logging.New(logCfg)
	logging.SetDefault(logger)

	if err := tools.CheckPrivilege(); err != nil {
		return nil, err
	}
	if err := tools.Probe(requiredTools...); err != nil {
		return nil, err
	}

	runner := tools.NewGateway(cfg.ToolTimeout(), logger)
	registry := netstate.NewRegistry(newQuerier(runner), cfg.ToolTimeout(), logger)
	recon := reconcile.NewReconciler(runner, registry, cfg.UnitDir,
		cfg.Convergence.Attempts, cfg.ConvergenceInterval(), logger)

	store, err := wifi.NewStore(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	nat, err := hotspot.NewNATTable()
	if err != nil {
		logger.Warn("iptables unavailable, hotspots will be local-only", "error", err)
	}

	links := newLinkOps()
	app := &App{
		Config:      cfg,
		Logger:      logger,
		Runner:      runner,
		Registry:    registry,
		Recon:       recon,
		Store:       store,
		Hotspot:     hotspot.NewManager(runner, registry, nat, hotspot.ProbePinger{}, cfg.UnitDir, cfg.RuntimeDir, logger),
		Tunnels:     tunnel.NewManager(runner, recon, links, logger),
		Links:       links,
		controllers: make(map[string]*wifi.Controller),
	}
	return app, nil
}

// WifiController returns the controller for an interface, creating it on
// first use. One controller exists per interface for the process
// lifetime, so its state machine serializes operations.
func (a *App) WifiController(iface string) *wifi.Controller {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.controllers[iface]
	if !ok {
		c = wifi.NewController(iface, a.Runner, a.Recon, a.Store,
			a.Config.SupplicantDir, a.Config.ScanTimeout(), a.Logger)
		a.controllers[iface] = c
	}
	return c
}

// TunnelNames lists configured tunnels by their netdev units.
func (a *App) TunnelNames() []string {
	matches, err := filepath.Glob(filepath.Join(a.Config.UnitDir, "50-*.netdev"))
	if err != nil {
		return nil
	}
	var names []string
	for _, m := range matches {
		base := filepath.Base(m)
		name := strings.TrimSuffix(strings.TrimPrefix(base, "50-"), ".netdev")
		if units.ValidateInterfaceName(name) == nil {
			names = append(names, name)
		}
	}
	return names
}
