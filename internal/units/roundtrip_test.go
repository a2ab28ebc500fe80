// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Re-parsing a rendered unit must reproduce an equivalent configuration.
func TestRenderParseRoundtrip(t *testing.T) {
	configs := []DesiredConfig{
		{
			Name: "eth0",
			V4: FamilyConfig{
				Mode:      ModeStatic,
				Addresses: []string{"192.168.1.100/24"},
				Gateway:   "192.168.1.1",
			},
			DNS:               []string{"8.8.8.8", "1.1.1.1"},
			RequiredForOnline: true,
		},
		{
			Name: "wlan0",
			V4:   FamilyConfig{Mode: ModeDHCP},
			V6:   FamilyConfig{Mode: ModeDHCP},
		},
		{
			Name: "eth1",
			V4:   FamilyConfig{Mode: ModeDHCP},
			V6: FamilyConfig{
				Mode:      ModeStatic,
				Addresses: []string{"fd00::2/64"},
				Gateway:   "fd00::1",
			},
			DNS:               []string{"2606:4700:4700::1111"},
			MTU:               1492,
			AcceptRA:          Bool(false),
			PrivacyExtensions: Bool(true),
		},
	}

	for _, c := range configs {
		t.Run(c.Name, func(t *testing.T) {
			text, err := Render(c)
			require.NoError(t, err)

			got, err := Parse(text)
			require.NoError(t, err)
			assert.True(t, c.Equal(got), "parsed config differs:\n%s", text)
		})
	}
}

func TestParseIgnoresForeignDirectives(t *testing.T) {
	text := `# managed by netman
[Match]
Name=eth0
Driver=e1000e

[Network]
DHCP=ipv4
LLDP=yes

[Link]
RequiredForOnline=yes
`
	c, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "eth0", c.Name)
	assert.Equal(t, ModeDHCP, c.V4.Mode)
	assert.True(t, c.RequiredForOnline)
}

func TestParseRejectsMalformedLine(t *testing.T) {
	_, err := Parse("[Network]\nthis is not a directive\n")
	assert.Error(t, err)
}

func TestParseAddressesImplyStatic(t *testing.T) {
	c, err := Parse("[Match]\nName=eth0\n\n[Network]\nAddress=10.0.0.2/24\n")
	require.NoError(t, err)
	assert.Equal(t, ModeStatic, c.V4.Mode)
	assert.Equal(t, ModeOff, c.V6.Mode)
}
