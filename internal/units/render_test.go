// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderStaticV4(t *testing.T) {
	c := DesiredConfig{
		Name: "eth0",
		V4: FamilyConfig{
			Mode:      ModeStatic,
			Addresses: []string{"192.168.1.100/24"},
			Gateway:   "192.168.1.1",
		},
		DNS:               []string{"8.8.8.8"},
		RequiredForOnline: true,
	}

	text, err := Render(c)
	require.NoError(t, err)

	want := `[Match]
Name=eth0

[Network]
Address=192.168.1.100/24
Gateway=192.168.1.1
DNS=8.8.8.8

[Link]
RequiredForOnline=yes
`
	assert.Equal(t, want, text)
}

func TestRenderDHCPDirective(t *testing.T) {
	cases := []struct {
		name string
		v4   AddrMode
		v6   AddrMode
		want string
	}{
		{"both", ModeDHCP, ModeDHCP, "DHCP=yes\n"},
		{"v4 only", ModeDHCP, ModeOff, "DHCP=ipv4\n"},
		{"v6 only", ModeOff, ModeDHCP, "DHCP=ipv6\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := DesiredConfig{Name: "eth0", V4: FamilyConfig{Mode: tc.v4}, V6: FamilyConfig{Mode: tc.v6}}
			text, err := Render(c)
			require.NoError(t, err)
			assert.Contains(t, text, tc.want)
		})
	}
}

func TestRenderIPv6Options(t *testing.T) {
	c := DesiredConfig{
		Name:              "wlan0",
		V6:                FamilyConfig{Mode: ModeDHCP},
		AcceptRA:          Bool(true),
		PrivacyExtensions: Bool(false),
		MTU:               1500,
	}
	text, err := Render(c)
	require.NoError(t, err)

	assert.Contains(t, text, "IPv6AcceptRA=yes\n")
	assert.Contains(t, text, "IPv6PrivacyExtensions=no\n")
	assert.Contains(t, text, "MTUBytes=1500\n")
	assert.Contains(t, text, "RequiredForOnline=no\n")
}

func TestRenderRejectsInvalid(t *testing.T) {
	_, err := Render(DesiredConfig{Name: "eth0"})
	assert.Error(t, err)
}

func TestUnitNames(t *testing.T) {
	assert.Equal(t, "10-eth0.network", NetworkUnitName(RoleWired, "eth0"))
	assert.Equal(t, "25-wlan0.network", NetworkUnitName(RoleWireless, "wlan0"))
	assert.Equal(t, "50-wg0.network", NetworkUnitName(RoleWireGuard, "wg0"))
	assert.Equal(t, "50-wg0.netdev", NetdevUnitName("wg0"))
}

func TestConflictingUnitNames(t *testing.T) {
	names := ConflictingUnitNames(RoleWired, "eth0")
	assert.ElementsMatch(t, []string{"25-eth0.network", "50-eth0.network"}, names)
}
