// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package hotspot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/logging"
	"grimm.is/netman/internal/netstate"
	"grimm.is/netman/internal/testutil"
)

type fakeNAT struct {
	added   []string
	deleted []string
	failAdd bool
}

func (f *fakeNAT) AppendUnique(table, chain string, spec ...string) error {
	if f.failAdd {
		return fmt.Errorf("iptables unavailable")
	}
	f.added = append(f.added, fmt.Sprintf("%s/%s %v", table, chain, spec))
	return nil
}

func (f *fakeNAT) DeleteIfExists(table, chain string, spec ...string) error {
	f.deleted = append(f.deleted, fmt.Sprintf("%s/%s %v", table, chain, spec))
	return nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Check(ctx context.Context, host string) error { return f.err }

type fixedState struct{ snap netstate.Snapshot }

func (f *fixedState) Refresh(ctx context.Context) (netstate.Snapshot, error) {
	return f.snap, nil
}

func uplinkSnapshot() netstate.Snapshot {
	return netstate.Snapshot{Interfaces: []netstate.Interface{
		{Name: "eth0", Gateway4: "192.168.1.1", AdminUp: true, OperState: "routable"},
		{Name: "wlan0", AdminUp: true, OperState: "down"},
	}}
}

func validConfig() Config {
	return Config{
		Interface: "wlan0",
		SSID:      "shared",
		Password:  "hotspot-pass",
		Channel:   6,
		Gateway:   "192.168.4.1",
	}
}

func newTestManager(t *testing.T, runner *testutil.ScriptedRunner, nat *fakeNAT, snap netstate.Snapshot) *Manager {
	t.Helper()
	logger := logging.New(logging.Config{Level: logging.LevelError})
	return NewManager(runner, &fixedState{snap: snap}, nat, &fakePinger{}, t.TempDir(), t.TempDir(), logger)
}

func TestStartRejectsInvalidConfigWithoutInvocation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty ssid", func(c *Config) { c.SSID = "" }},
		{"short password", func(c *Config) { c.Password = "short" }},
		{"channel zero", func(c *Config) { c.Channel = 0 }},
		{"channel 12", func(c *Config) { c.Channel = 12 }},
		{"bogus 5ghz channel", func(c *Config) { c.Channel = 37 }},
		{"bad gateway", func(c *Config) { c.Gateway = "not-an-ip" }},
		{"ipv6 gateway", func(c *Config) { c.Gateway = "fd00::1" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &testutil.ScriptedRunner{}
			m := newTestManager(t, runner, &fakeNAT{}, uplinkSnapshot())

			cfg := validConfig()
			tc.mutate(&cfg)
			err := m.Start(context.Background(), cfg)
			require.Error(t, err)
			assert.Equal(t, errors.KindValidation, errors.GetKind(err))
			assert.Empty(t, runner.Calls, "no process may run for an invalid config")
		})
	}
}

func TestStartBringsUpAccessPoint(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	nat := &fakeNAT{}
	m := newTestManager(t, runner, nat, uplinkSnapshot())

	require.NoError(t, m.Start(context.Background(), validConfig()))
	assert.True(t, m.Active("wlan0"))

	assert.True(t, runner.CalledWith("ip addr add 192.168.4.1/24 dev wlan0"))
	assert.True(t, runner.CalledWith("sysctl -w net.ipv4.ip_forward=1"))
	assert.True(t, runner.CalledWith("hostapd -B"))
	assert.True(t, runner.CalledWith("dnsmasq -C"))
	assert.Len(t, nat.added, 3, "masquerade and both forward rules")

	data, err := os.ReadFile(m.hostapdConf("wlan0"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ssid=shared")
	assert.Contains(t, string(data), "channel=6")
	assert.Contains(t, string(data), "hw_mode=g")
}

func TestStartFiveGHz(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	m := newTestManager(t, runner, &fakeNAT{}, uplinkSnapshot())

	cfg := validConfig()
	cfg.Channel = 149
	require.NoError(t, m.Start(context.Background(), cfg))

	data, err := os.ReadFile(m.hostapdConf("wlan0"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hw_mode=a")
	assert.Contains(t, string(data), "channel=149")
}

func TestStartConflictWithManagedRole(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	m := newTestManager(t, runner, &fakeNAT{}, uplinkSnapshot())

	// Interface already owned by the wifi client role.
	require.NoError(t, os.WriteFile(filepath.Join(m.unitDir, "25-wlan0.network"), []byte("x"), 0644))

	err := m.Start(context.Background(), validConfig())
	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.GetKind(err))
	assert.Empty(t, runner.Calls)
}

func TestStartWithoutUplinkSkipsNAT(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	nat := &fakeNAT{}
	noUplink := netstate.Snapshot{Interfaces: []netstate.Interface{{Name: "wlan0", AdminUp: true}}}
	m := newTestManager(t, runner, nat, noUplink)

	require.NoError(t, m.Start(context.Background(), validConfig()))
	assert.Empty(t, nat.added)
	assert.True(t, runner.CalledWith("hostapd -B"))
}

func TestStopTearsDown(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	nat := &fakeNAT{}
	m := newTestManager(t, runner, nat, uplinkSnapshot())

	require.NoError(t, m.Start(context.Background(), validConfig()))
	hostapdPath := m.hostapdConf("wlan0")

	require.NoError(t, m.Stop(context.Background(), "wlan0"))
	assert.False(t, m.Active("wlan0"))
	assert.True(t, runner.CalledWith("pkill -f "+hostapdPath))
	assert.True(t, runner.CalledWith("ip link set wlan0 down"))
	assert.Len(t, nat.deleted, 3)

	_, err := os.Stat(hostapdPath)
	assert.True(t, os.IsNotExist(err), "config files removed on stop")
}

func TestStopWithoutActiveHotspot(t *testing.T) {
	m := newTestManager(t, &testutil.ScriptedRunner{}, &fakeNAT{}, uplinkSnapshot())
	err := m.Stop(context.Background(), "wlan0")
	assert.Equal(t, errors.KindNotFound, errors.GetKind(err))
}

func TestStartTwiceRestarts(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	m := newTestManager(t, runner, &fakeNAT{}, uplinkSnapshot())

	require.NoError(t, m.Start(context.Background(), validConfig()))

	cfg := validConfig()
	cfg.SSID = "renamed"
	require.NoError(t, m.Start(context.Background(), cfg))

	assert.True(t, m.Active("wlan0"))
	assert.True(t, runner.CalledWith("pkill"), "existing hotspot stopped before restart")

	data, err := os.ReadFile(m.hostapdConf("wlan0"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ssid=renamed")
}

func TestRenderDnsmasqRange(t *testing.T) {
	conf := RenderDnsmasq(validConfig())
	assert.Contains(t, conf, "dhcp-range=192.168.4.10,192.168.4.50,255.255.255.0,24h")
	assert.Contains(t, conf, "dhcp-option=3,192.168.4.1")
	assert.Contains(t, conf, "listen-address=192.168.4.1")
}

func TestHostapdConfigPermissions(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	m := newTestManager(t, runner, &fakeNAT{}, uplinkSnapshot())
	require.NoError(t, m.Start(context.Background(), validConfig()))

	info, err := os.Stat(m.hostapdConf("wlan0"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "passphrase-bearing config is owner-read")
}
