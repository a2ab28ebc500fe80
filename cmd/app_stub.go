// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux

package cmd

import (
	"context"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/link"
	"grimm.is/netman/internal/netstate"
	"grimm.is/netman/internal/tools"
)

type stubQuerier struct{}

func (stubQuerier) Query(ctx context.Context) ([]netstate.Interface, error) {
	return nil, errors.New(errors.KindStartup, "netman only manages Linux interfaces")
}

func newQuerier(runner tools.Runner) netstate.Querier { return stubQuerier{} }

type stubLinks struct{}

func (stubLinks) SetUp(string) error              { return errStub() }
func (stubLinks) SetDown(string) error            { return errStub() }
func (stubLinks) Delete(string) error             { return errStub() }
func (stubLinks) AddAddress(string, string) error { return errStub() }
func (stubLinks) RemoveAddress(string, string) error {
	return errStub()
}

func errStub() error {
	return errors.New(errors.KindStartup, "netman only manages Linux interfaces")
}

func newLinkOps() link.Ops { return stubLinks{} }
