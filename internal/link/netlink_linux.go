// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

package link

import (
	"github.com/vishvananda/netlink"

	"grimm.is/netman/internal/errors"
)

// Netlink is the production Ops.
type Netlink struct{}

var _ Ops = Netlink{}

func (Netlink) byName(name string) (netlink.Link, error) {
	l, err := netlink.LinkByName(name)
	if err != nil {
		if _, notFound := err.(netlink.LinkNotFoundError); notFound {
			return nil, errors.Errorf(errors.KindNotFound, "interface %s does not exist", name)
		}
		return nil, errors.Wrapf(err, errors.KindInternal, "looking up %s", name)
	}
	return l, nil
}

// SetUp brings the link administratively up.
func (n Netlink) SetUp(name string) error {
	l, err := n.byName(name)
	if err != nil {
		return err
	}
	if err := netlink.LinkSetUp(l); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "bringing %s up", name)
	}
	return nil
}

// SetDown brings the link administratively down.
func (n Netlink) SetDown(name string) error {
	l, err := n.byName(name)
	if err != nil {
		return err
	}
	if err := netlink.LinkSetDown(l); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "bringing %s down", name)
	}
	return nil
}

// Delete removes a virtual device. Physical devices cannot be deleted and
// return an error from the kernel.
func (n Netlink) Delete(name string) error {
	l, err := n.byName(name)
	if err != nil {
		return err
	}
	if err := netlink.LinkDel(l); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "deleting %s", name)
	}
	return nil
}

// AddAddress assigns a CIDR address directly, bypassing the daemon.
func (n Netlink) AddAddress(name, cidr string) error {
	l, err := n.byName(name)
	if err != nil {
		return err
	}
	addr, err := netlink.ParseAddr(cidr)
	if err != nil {
		return errors.Validation("address", "%q is not CIDR notation", cidr)
	}
	if err := netlink.AddrAdd(l, addr); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "adding %s to %s", cidr, name)
	}
	return nil
}

// RemoveAddress removes a directly assigned CIDR address.
func (n Netlink) RemoveAddress(name, cidr string) error {
	l, err := n.byName(name)
	if err != nil {
		return err
	}
	addr, err := netlink.ParseAddr(cidr)
	if err != nil {
		return errors.Validation("address", "%q is not CIDR notation", cidr)
	}
	if err := netlink.AddrDel(l, addr); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "removing %s from %s", cidr, name)
	}
	return nil
}
