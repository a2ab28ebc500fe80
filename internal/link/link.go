// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package link performs one-shot kernel link operations: administrative
// up/down, device deletion and direct address assignment. Persistent
// configuration goes through units and the reconciler; these calls are
// for imperative actions that bypass the daemon.
package link

// Ops manipulates kernel links. The production implementation talks
// netlink; tests inject a fake.
type Ops interface {
	SetUp(name string) error
	SetDown(name string) error
	Delete(name string) error
	AddAddress(name, cidr string) error
	RemoveAddress(name, cidr string) error
}
