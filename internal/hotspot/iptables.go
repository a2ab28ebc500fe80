// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package hotspot

import (
	"github.com/coreos/go-iptables/iptables"

	"grimm.is/netman/internal/errors"
)

// NewNATTable returns the production iptables-backed rule table.
func NewNATTable() (NATTable, error) {
	ipt, err := iptables.New(iptables.IPFamily(iptables.ProtocolIPv4))
	if err != nil {
		return nil, errors.Wrap(err, errors.KindStartup, "initializing iptables")
	}
	return ipt, nil
}
