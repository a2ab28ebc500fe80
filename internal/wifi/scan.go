// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package wifi

import (
	"sort"
	"strconv"
	"strings"
)

// FrequencyToChannel maps a center frequency in MHz onto a channel
// number. Unknown bands map to 0.
func FrequencyToChannel(freq int) int {
	switch {
	case freq >= 2412 && freq <= 2484:
		return (freq-2412)/5 + 1
	case freq >= 5000 && freq <= 6000:
		return (freq - 5000) / 5
	default:
		return 0
	}
}

// ParseScan extracts networks from `iw dev <iface> scan` output. Entries
// with the same SSID and security class are merged: BSSIDs accumulate and
// the strongest signal wins. Results are sorted strongest first.
func ParseScan(output string) []Network {
	byKey := make(map[string]*Network)
	var order []string

	var cur *Network
	flush := func() {
		if cur == nil || cur.SSID == "" {
			cur = nil
			return
		}
		key := cur.Key()
		if existing, ok := byKey[key]; ok {
			existing.BSSIDs = append(existing.BSSIDs, cur.BSSIDs...)
			if cur.Signal > existing.Signal {
				existing.Signal = cur.Signal
				existing.Frequency = cur.Frequency
				existing.Channel = cur.Channel
			}
		} else {
			byKey[key] = cur
			order = append(order, key)
		}
		cur = nil
	}

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "BSS ") {
			flush()
			cur = &Network{Signal: -1000, Security: Security{Class: SecurityOpen}}
			// "BSS aa:bb:cc:dd:ee:ff(on wlan0)"
			bssid := strings.TrimPrefix(line, "BSS ")
			if i := strings.IndexAny(bssid, "( "); i > 0 {
				bssid = bssid[:i]
			}
			cur.BSSIDs = []string{bssid}
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "SSID: "):
			cur.SSID = strings.TrimSpace(strings.TrimPrefix(line, "SSID: "))
		case strings.HasPrefix(line, "signal: "):
			// "signal: -54.00 dBm"
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				if dbm, err := strconv.ParseFloat(fields[1], 64); err == nil {
					cur.Signal = int(dbm)
				}
			}
		case strings.HasPrefix(line, "freq: "):
			f := strings.TrimPrefix(line, "freq: ")
			// newer iw prints fractional MHz
			if i := strings.IndexByte(f, '.'); i > 0 {
				f = f[:i]
			}
			if mhz, err := strconv.Atoi(f); err == nil {
				cur.Frequency = mhz
				cur.Channel = FrequencyToChannel(mhz)
			}
		case strings.Contains(line, "Authentication suites:"):
			switch {
			case strings.Contains(line, "SAE"):
				cur.Security.Class = SecuritySAE
			case strings.Contains(line, "IEEE 802.1X") || strings.Contains(line, "802.1x"):
				cur.Security.Class = SecurityEnterprise
			case strings.Contains(line, "PSK"):
				if cur.Security.Class != SecuritySAE && cur.Security.Class != SecurityEnterprise {
					cur.Security.Class = SecurityPSK
				}
			}
		case strings.HasPrefix(line, "RSN:") || strings.HasPrefix(line, "WPA:"):
			if cur.Security.Class == SecurityOpen || cur.Security.Class == SecurityWEP {
				cur.Security.Class = SecurityPSK
			}
		case strings.Contains(line, "capability:") && strings.Contains(line, "Privacy"):
			if cur.Security.Class == SecurityOpen {
				cur.Security.Class = SecurityWEP
			}
		}
	}
	flush()

	networks := make([]Network, 0, len(order))
	for _, key := range order {
		networks = append(networks, *byKey[key])
	}
	sort.SliceStable(networks, func(i, j int) bool {
		return networks[i].Signal > networks[j].Signal
	})
	return networks
}

// ParseLinkDiagnostics reads `iw dev <iface> link` output into connection
// diagnostics. Missing fields stay zero.
func ParseLinkDiagnostics(output string) Diagnostics {
	var d Diagnostics
	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "signal: "):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				if dbm, err := strconv.ParseFloat(fields[1], 64); err == nil {
					d.Signal = int(dbm)
				}
			}
		case strings.HasPrefix(line, "tx bitrate: "):
			fields := strings.Fields(strings.TrimPrefix(line, "tx bitrate: "))
			if len(fields) >= 1 {
				if mbit, err := strconv.ParseFloat(fields[0], 64); err == nil {
					d.TxBitrateMbit = mbit
				}
			}
		case strings.HasPrefix(line, "rx bitrate: "):
			fields := strings.Fields(strings.TrimPrefix(line, "rx bitrate: "))
			if len(fields) >= 1 {
				if mbit, err := strconv.ParseFloat(fields[0], 64); err == nil {
					d.RxBitrateMbit = mbit
				}
			}
		case strings.HasPrefix(line, "freq: "):
			if mhz, err := strconv.Atoi(strings.TrimPrefix(line, "freq: ")); err == nil {
				d.Frequency = mhz
				d.Channel = FrequencyToChannel(mhz)
			}
		case strings.HasPrefix(line, "Connected to "):
			fields := strings.Fields(line)
			if len(fields) >= 3 {
				d.BSSID = fields[2]
			}
		case strings.HasPrefix(line, "SSID: "):
			d.SSID = strings.TrimSpace(strings.TrimPrefix(line, "SSID: "))
		}
	}
	return d
}

// Diagnostics is the refreshable view of an active connection.
type Diagnostics struct {
	SSID          string
	BSSID         string
	Signal        int
	Frequency     int
	Channel       int
	TxBitrateMbit float64
	RxBitrateMbit float64
}
