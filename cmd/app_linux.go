// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

package cmd

import (
	"grimm.is/netman/internal/link"
	"grimm.is/netman/internal/netstate"
	"grimm.is/netman/internal/tools"
)

func newQuerier(runner tools.Runner) netstate.Querier {
	return netstate.NewNetlinkQuerier(runner)
}

func newLinkOps() link.Ops {
	return link.Netlink{}
}
