// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package wifi

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/logging"
	"grimm.is/netman/internal/netstate"
	"grimm.is/netman/internal/reconcile"
	"grimm.is/netman/internal/testutil"
	"grimm.is/netman/internal/tools"
)

type fixedState struct {
	snap netstate.Snapshot
}

func (f *fixedState) Refresh(ctx context.Context) (netstate.Snapshot, error) {
	return f.snap, nil
}

func connectedWlan0() netstate.Snapshot {
	return netstate.Snapshot{Interfaces: []netstate.Interface{{
		Name:      "wlan0",
		Kind:      netstate.KindWireless,
		AdminUp:   true,
		OperState: "routable",
		Addresses: []string{"192.168.1.42/24"},
	}}}
}

func newTestController(t *testing.T, runner *testutil.ScriptedRunner, snap netstate.Snapshot) *Controller {
	t.Helper()
	logger := logging.New(logging.Config{Level: logging.LevelError})
	recon := reconcile.NewReconciler(runner, &fixedState{snap: snap}, t.TempDir(), 2, time.Millisecond, logger)
	store, err := NewStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	require.NoError(t, err)
	return NewController("wlan0", runner, recon, store, t.TempDir(), time.Second, logger)
}

func TestAutoConnectEndToEnd(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	runner.On("iw", "scan", tools.Output{Stdout: scanFixture}, nil)

	c := newTestController(t, runner, connectedWlan0())
	require.NoError(t, c.store.Upsert(Credential{
		SSID:        "Home",
		Security:    Security{Class: SecurityPSK},
		Passphrase:  "correcthorse",
		AutoConnect: true,
	}))

	networks, err := c.Scan(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, networks)

	auto, err := c.Select(context.Background(), "Home")
	require.NoError(t, err)
	assert.True(t, auto, "stored auto-connect credential must associate without input")

	assert.Equal(t, StateConnected, c.State())
	assert.Equal(t, []State{
		StateIdle, StateScanning, StateNetworksListed, StateSelecting,
		StateAuthenticating, StateAssociating, StateConnected,
	}, c.StateHistory())

	assert.True(t, runner.CalledWith("systemctl restart wpa_supplicant@wlan0"))
	assert.True(t, runner.CalledWith("networkctl reconfigure wlan0"))
}

func TestNetworksReadableDuringScan(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	runner.On("iw", "scan", tools.Output{Stdout: scanFixture}, nil)
	c := newTestController(t, runner, connectedWlan0())

	// The frontend polls results and state while a scan is in flight;
	// run under -race.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			c.Networks()
			c.State()
		}
	}()

	for i := 0; i < 20; i++ {
		_, err := c.Scan(context.Background())
		require.NoError(t, err)
	}
	<-done

	assert.NotEmpty(t, c.Networks())
}

func TestSelectWithoutCredentialWaits(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	runner.On("iw", "scan", tools.Output{Stdout: scanFixture}, nil)
	c := newTestController(t, runner, connectedWlan0())

	_, err := c.Scan(context.Background())
	require.NoError(t, err)

	auto, err := c.Select(context.Background(), "Home")
	require.NoError(t, err)
	assert.False(t, auto)
	assert.Equal(t, StateSelecting, c.State())

	err = c.Connect(context.Background(), Credential{
		SSID:       "Home",
		Security:   Security{Class: SecurityPSK},
		Passphrase: "correcthorse",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, StateConnected, c.State())
}

func TestScanFailureSettlesFailed(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	runner.On("iw", "scan", tools.Output{ExitCode: 1},
		errors.New(errors.KindExternalTool, "iw failed"))
	c := newTestController(t, runner, netstate.Snapshot{})

	_, err := c.Scan(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, c.State())
	assert.Error(t, c.FailureReason())

	// Failed allows re-entry to scanning.
	runner.Responses = nil
	runner.On("iw", "scan", tools.Output{Stdout: scanFixture}, nil)
	_, err = c.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateNetworksListed, c.State())
}

func TestConnectValidationFailureNoInvocation(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	c := newTestController(t, runner, netstate.Snapshot{})

	// Enterprise credential missing phase-2: rejected before any tool call.
	err := c.Connect(context.Background(), Credential{
		SSID: "Office",
		Security: Security{Class: SecurityEnterprise, Enterprise: &Enterprise{
			Method: EAPPeap, Identity: "alice",
		}},
	}, false)
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
	assert.Equal(t, StateFailed, c.State())
	assert.Empty(t, runner.Calls)
}

func TestHiddenNetworkDirectConnect(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	c := newTestController(t, runner, connectedWlan0())

	err := c.Connect(context.Background(), Credential{
		SSID:       "Stealth",
		Security:   Security{Class: SecurityPSK},
		Passphrase: "hiddenpass",
		Hidden:     true,
	}, false)
	require.NoError(t, err)
	assert.Equal(t, StateConnected, c.State())

	// The rendered supplicant config carries the active probe flag.
	data, err := os.ReadFile(filepath.Join(c.supplicantDir, SupplicantFileName("wlan0")))
	require.NoError(t, err)
	assert.Contains(t, string(data), "scan_ssid=1")
}

func TestDisconnectSettlesIdle(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	runner.On("iw", "scan", tools.Output{Stdout: scanFixture}, nil)
	c := newTestController(t, runner, connectedWlan0())

	_, err := c.Scan(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Disconnect(context.Background()))
	assert.Equal(t, StateIdle, c.State())
	assert.True(t, runner.CalledWith("systemctl stop wpa_supplicant@wlan0"))
}

func TestDiagnosticsOnlyWhenConnected(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	c := newTestController(t, runner, connectedWlan0())

	_, err := c.Diagnostics(context.Background())
	assert.Equal(t, errors.KindConflict, errors.GetKind(err))

	require.NoError(t, c.Connect(context.Background(), Credential{
		SSID: "Home", Security: Security{Class: SecurityPSK}, Passphrase: "correcthorse",
	}, false))

	runner.On("iw", "link", tools.Output{Stdout: "Connected to aa:bb:cc:dd:ee:01 (on wlan0)\n\tSSID: Home\n\tsignal: -47 dBm\n"}, nil)
	d, err := c.Diagnostics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Home", d.SSID)
	assert.Equal(t, StateConnected, c.State(), "diagnostics never changes state")
}

func TestSupplicantConfigPermissions(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	c := newTestController(t, runner, connectedWlan0())

	require.NoError(t, c.Connect(context.Background(), Credential{
		SSID: "Home", Security: Security{Class: SecurityPSK}, Passphrase: "correcthorse",
	}, false))

	info, err := os.Stat(filepath.Join(c.supplicantDir, SupplicantFileName("wlan0")))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
