// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package wifi manages wireless client connections: scanning, credential
// handling and the association state machine. Authentication itself is
// delegated to the supplicant; this package renders its configuration and
// observes the outcome.
package wifi

import (
	"fmt"

	"grimm.is/netman/internal/errors"
)

// SecurityClass is the authentication family a network requires.
type SecurityClass string

const (
	SecurityOpen       SecurityClass = "open"
	SecurityWEP        SecurityClass = "wep"
	SecurityPSK        SecurityClass = "psk"
	SecuritySAE        SecurityClass = "sae"
	SecurityEnterprise SecurityClass = "enterprise"
)

// EAPMethod selects the outer enterprise authentication method.
type EAPMethod string

const (
	EAPPeap EAPMethod = "PEAP"
	EAPTTLS EAPMethod = "TTLS"
	EAPTLS  EAPMethod = "TLS"
	EAPPWD  EAPMethod = "PWD"
	EAPLeap EAPMethod = "LEAP"
)

// Phase2Method is the inner authentication for tunneled EAP methods.
type Phase2Method string

const (
	Phase2MSCHAPV2 Phase2Method = "MSCHAPV2"
	Phase2PAP      Phase2Method = "PAP"
	Phase2GTC      Phase2Method = "GTC"
)

// Enterprise carries the fields 802.1X authentication needs. Which fields
// are required depends on the method; Validate enforces that before any
// supplicant invocation.
type Enterprise struct {
	Method             EAPMethod    `yaml:"method"`
	Identity           string       `yaml:"identity"`
	Password           string       `yaml:"password,omitempty"`
	Phase2             Phase2Method `yaml:"phase2,omitempty"`
	CACert             string       `yaml:"ca_cert,omitempty"`
	ClientCert         string       `yaml:"client_cert,omitempty"`
	PrivateKey         string       `yaml:"private_key,omitempty"`
	PrivateKeyPassword string       `yaml:"private_key_password,omitempty"`
}

// Security is the tagged security variant: the class plus, for enterprise
// networks only, the 802.1X configuration.
type Security struct {
	Class      SecurityClass `yaml:"class"`
	Enterprise *Enterprise   `yaml:"enterprise,omitempty"`
}

// Validate checks that the variant carries everything its class needs.
func (s Security) Validate() error {
	switch s.Class {
	case SecurityOpen, SecurityWEP, SecurityPSK, SecuritySAE:
		return nil
	case SecurityEnterprise:
	default:
		return errors.Validation("security", "unknown security class %q", string(s.Class))
	}

	e := s.Enterprise
	if e == nil {
		return errors.Validation("security.enterprise", "enterprise network without 802.1X configuration")
	}
	if e.Identity == "" {
		return errors.Validation("security.enterprise.identity", "enterprise authentication requires an identity")
	}

	switch e.Method {
	case EAPPeap, EAPTTLS:
		// Tunneled methods need an inner authentication.
		if e.Phase2 == "" {
			return errors.Validation("security.enterprise.phase2",
				"%s requires a phase-2 authentication method", e.Method)
		}
		if e.Password == "" {
			return errors.Validation("security.enterprise.password",
				"%s requires a password", e.Method)
		}
	case EAPTLS:
		if e.ClientCert == "" || e.PrivateKey == "" {
			return errors.Validation("security.enterprise.client_cert",
				"TLS requires a client certificate and private key")
		}
	case EAPPWD, EAPLeap:
		if e.Password == "" {
			return errors.Validation("security.enterprise.password",
				"%s requires a password", e.Method)
		}
	default:
		return errors.Validation("security.enterprise.method",
			"unknown EAP method %q", string(e.Method))
	}
	return nil
}

// Network is one scan result. Transient: rebuilt on every scan. Identity
// is SSID plus security class, never BSSID; one network may be served by
// several access points.
type Network struct {
	SSID string
	// BSSIDs of every access point seen advertising this network.
	BSSIDs []string
	// Signal of the strongest access point, in dBm.
	Signal    int
	Frequency int
	Channel   int
	Security  Security
	Hidden    bool
}

// Key is the network's identity for deduplication and credential lookup.
func (n Network) Key() string {
	return fmt.Sprintf("%s/%s", n.SSID, n.Security.Class)
}

// Credential is persisted secret material for one SSID. At most one
// credential exists per SSID.
type Credential struct {
	SSID       string   `yaml:"ssid"`
	Security   Security `yaml:"security"`
	Passphrase string   `yaml:"passphrase,omitempty"`
	// AutoConnect makes selection of a scanned network proceed to
	// association without further input.
	AutoConnect bool `yaml:"auto_connect"`
	// Hidden networks are probed directly; the SSID never appears in
	// scan results.
	Hidden bool `yaml:"hidden,omitempty"`
}

// Validate checks the credential before rendering supplicant config.
func (c Credential) Validate() error {
	if c.SSID == "" {
		return errors.Validation("ssid", "credential has no SSID")
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	switch c.Security.Class {
	case SecurityPSK, SecuritySAE:
		if len(c.Passphrase) < 8 || len(c.Passphrase) > 63 {
			return errors.Validation("passphrase", "WPA passphrase must be 8-63 characters")
		}
	case SecurityWEP:
		if c.Passphrase == "" {
			return errors.Validation("passphrase", "WEP key is empty")
		}
	}
	return nil
}
