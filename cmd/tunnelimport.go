// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"context"
	"os"

	"grimm.is/netman/internal/tunnel"
)

// RunImport reads a wg-quick configuration file and configures it as a
// managed tunnel. A file without a private key gets one derived path
// rejected by validation; key material never reaches stdout or logs.
func RunImport(configPath, name, file string) error {
	app, err := NewApp(configPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	cfg, err := tunnel.ParseWgQuick(name, string(data))
	if err != nil {
		return err
	}

	res, err := app.Tunnels.Configure(context.Background(), cfg)
	if err != nil {
		return err
	}
	if res.Converged {
		Printer.Printf("tunnel %s configured and up\n", name)
	} else {
		Printer.Printf("tunnel %s submitted, awaiting convergence\n", name)
	}
	return nil
}

// RunLinkState brings a link administratively up or down.
func RunLinkState(configPath, iface string, up bool) error {
	app, err := NewApp(configPath)
	if err != nil {
		return err
	}

	if up {
		err = app.Links.SetUp(iface)
	} else {
		err = app.Links.SetDown(iface)
	}
	if err != nil {
		return err
	}

	if up {
		Printer.Printf("%s up\n", iface)
	} else {
		Printer.Printf("%s down\n", iface)
	}
	return nil
}

// RunAddr adds or removes a single address on a link without touching
// persisted units. The daemon may overwrite it on the next reconfigure.
func RunAddr(configPath, iface, cidr string, add bool) error {
	app, err := NewApp(configPath)
	if err != nil {
		return err
	}

	if add {
		err = app.Links.AddAddress(iface, cidr)
	} else {
		err = app.Links.RemoveAddress(iface, cidr)
	}
	if err != nil {
		return err
	}

	if add {
		Printer.Printf("%s: added %s\n", iface, cidr)
	} else {
		Printer.Printf("%s: removed %s\n", iface, cidr)
	}
	return nil
}
