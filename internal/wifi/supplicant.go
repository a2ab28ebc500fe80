// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package wifi

import (
	"fmt"
	"strings"
)

// RenderSupplicant produces a wpa_supplicant configuration for one
// credential. The credential is validated first; nothing is rendered for
// an incomplete enterprise configuration.
func RenderSupplicant(c Credential) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("ctrl_interface=/run/wpa_supplicant\n")
	b.WriteString("ctrl_interface_group=0\n\n")
	b.WriteString("network={\n")
	fmt.Fprintf(&b, "\tssid=%q\n", c.SSID)
	if c.Hidden {
		// Active probing; hidden SSIDs never appear in broadcast scans.
		b.WriteString("\tscan_ssid=1\n")
	}

	switch c.Security.Class {
	case SecurityOpen:
		b.WriteString("\tkey_mgmt=NONE\n")
	case SecurityWEP:
		b.WriteString("\tkey_mgmt=NONE\n")
		fmt.Fprintf(&b, "\twep_key0=%q\n", c.Passphrase)
		b.WriteString("\twep_tx_keyidx=0\n")
	case SecurityPSK:
		b.WriteString("\tkey_mgmt=WPA-PSK\n")
		fmt.Fprintf(&b, "\tpsk=%q\n", c.Passphrase)
	case SecuritySAE:
		b.WriteString("\tkey_mgmt=SAE\n")
		b.WriteString("\tieee80211w=2\n")
		fmt.Fprintf(&b, "\tsae_password=%q\n", c.Passphrase)
	case SecurityEnterprise:
		renderEnterprise(&b, c.Security.Enterprise)
	}

	b.WriteString("}\n")
	return b.String(), nil
}

func renderEnterprise(b *strings.Builder, e *Enterprise) {
	b.WriteString("\tkey_mgmt=WPA-EAP\n")
	fmt.Fprintf(b, "\teap=%s\n", e.Method)
	fmt.Fprintf(b, "\tidentity=%q\n", e.Identity)
	if e.Password != "" {
		fmt.Fprintf(b, "\tpassword=%q\n", e.Password)
	}
	if e.CACert != "" {
		fmt.Fprintf(b, "\tca_cert=%q\n", e.CACert)
	}

	switch e.Method {
	case EAPPeap:
		fmt.Fprintf(b, "\tphase2=%q\n", "auth="+string(e.Phase2))
	case EAPTTLS:
		fmt.Fprintf(b, "\tphase2=%q\n", "autheap="+string(e.Phase2))
	case EAPTLS:
		fmt.Fprintf(b, "\tclient_cert=%q\n", e.ClientCert)
		fmt.Fprintf(b, "\tprivate_key=%q\n", e.PrivateKey)
		if e.PrivateKeyPassword != "" {
			fmt.Fprintf(b, "\tprivate_key_passwd=%q\n", e.PrivateKeyPassword)
		}
	}
}

// SupplicantFileName is the per-interface configuration file consumed by
// the wpa_supplicant@<iface> service.
func SupplicantFileName(iface string) string {
	return fmt.Sprintf("wpa_supplicant-%s.conf", iface)
}
