// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import (
	"context"
	"strings"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/tools"
)

// Keypair holds one generated identity. The private key exists only in
// memory and in the final persisted unit; it never appears in argv or
// logs.
type Keypair struct {
	PrivateKey string
	PublicKey  string
}

// CreateKeypair generates a keypair with the wg tool. The private key is
// piped to `wg pubkey` on stdin, never passed as an argument.
func CreateKeypair(ctx context.Context, runner tools.Runner) (Keypair, error) {
	out, err := runner.Run(ctx, "wg", "genkey")
	if err != nil {
		return Keypair{}, err
	}
	priv := strings.TrimSpace(out.Stdout)
	if _, err := wgtypes.ParseKey(priv); err != nil {
		return Keypair{}, errors.Errorf(errors.KindExternalTool, "wg genkey produced an unparsable key")
	}

	pub, err := DerivePublicKey(ctx, runner, priv)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{PrivateKey: priv, PublicKey: pub}, nil
}

// DerivePublicKey computes the public key for a private key via the wg
// tool, the same one-way function the kernel uses.
func DerivePublicKey(ctx context.Context, runner tools.Runner, privateKey string) (string, error) {
	out, err := runner.RunStdin(ctx, privateKey+"\n", "wg", "pubkey")
	if err != nil {
		return "", err
	}
	pub := strings.TrimSpace(out.Stdout)
	if _, err := wgtypes.ParseKey(pub); err != nil {
		return "", errors.Errorf(errors.KindExternalTool, "wg pubkey produced an unparsable key")
	}
	return pub, nil
}
