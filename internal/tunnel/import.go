// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import (
	"strconv"
	"strings"

	"grimm.is/netman/internal/errors"
)

// ParseWgQuick reads a wg-quick configuration file ([Interface] and
// [Peer] sections) into a Config named name. Directives wg-quick handles
// itself (PostUp, Table, SaveConfig) are ignored; key material and
// addressing carry over.
func ParseWgQuick(name, text string) (Config, error) {
	cfg := Config{Name: name}
	section := ""
	var peer *Peer

	flushPeer := func() {
		if peer != nil {
			cfg.Peers = append(cfg.Peers, *peer)
			peer = nil
		}
	}

	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flushPeer()
			section = strings.ToLower(line[1 : len(line)-1])
			if section == "peer" {
				peer = &Peer{}
			}
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return Config{}, errors.Errorf(errors.KindValidation,
				"line %d is not a directive: %q", lineNo+1, line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch section {
		case "interface":
			switch key {
			case "privatekey":
				cfg.PrivateKey = value
			case "address":
				cfg.Addresses = append(cfg.Addresses, splitList(value)...)
			case "listenport":
				port, err := strconv.Atoi(value)
				if err != nil {
					return Config{}, errors.Validation("listen_port", "ListenPort %q is not a number", value)
				}
				cfg.ListenPort = port
			case "dns":
				cfg.DNS = append(cfg.DNS, splitList(value)...)
			case "mtu":
				mtu, err := strconv.Atoi(value)
				if err != nil {
					return Config{}, errors.Validation("mtu", "MTU %q is not a number", value)
				}
				cfg.MTU = mtu
			}
		case "peer":
			if peer == nil {
				return Config{}, errors.Errorf(errors.KindValidation,
					"line %d: peer directive outside a [Peer] section", lineNo+1)
			}
			switch key {
			case "publickey":
				peer.PublicKey = value
			case "presharedkey":
				peer.PresharedKey = value
			case "endpoint":
				peer.Endpoint = value
			case "allowedips":
				peer.AllowedIPs = append(peer.AllowedIPs, splitList(value)...)
			case "persistentkeepalive":
				ka, err := strconv.Atoi(value)
				if err != nil {
					return Config{}, errors.Validation("persistent_keepalive",
						"PersistentKeepalive %q is not a number", value)
				}
				peer.PersistentKeepalive = ka
			}
		}
	}
	flushPeer()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
