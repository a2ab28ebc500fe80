// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package tools is the single chokepoint for invoking external processes:
// link state queries, WiFi scan/associate, tunnel key generation and the
// network daemon reload. Every invocation gets a bounded timeout and
// captured, truncated diagnostics.
package tools

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/logging"
)

// maxDiagnostic bounds how much stderr is attached to a tool error.
const maxDiagnostic = 400

// Output is the captured result of a tool invocation.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner invokes external tools. The concrete Gateway shells out;
// tests substitute a scripted implementation.
type Runner interface {
	// Run executes name with args under the gateway's timeout. A non-zero
	// exit, a timeout, or a failure to start all return a KindExternalTool
	// error; captured output is returned in every case.
	Run(ctx context.Context, name string, args ...string) (Output, error)

	// RunStdin is Run with data piped to the process's standard input.
	// Used for secret material that must not appear in argv.
	RunStdin(ctx context.Context, stdin string, name string, args ...string) (Output, error)
}

// Gateway is the production Runner.
type Gateway struct {
	timeout time.Duration
	logger  *logging.Logger
}

// NewGateway creates a gateway with the given per-invocation timeout.
func NewGateway(timeout time.Duration, logger *logging.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{timeout: timeout, logger: logger.WithComponent("tools")}
}

// Run implements Runner.
func (g *Gateway) Run(ctx context.Context, name string, args ...string) (Output, error) {
	return g.run(ctx, "", name, args...)
}

// RunStdin implements Runner.
func (g *Gateway) RunStdin(ctx context.Context, stdin string, name string, args ...string) (Output, error) {
	return g.run(ctx, stdin, name, args...)
}

func (g *Gateway) run(ctx context.Context, stdin, name string, args ...string) (Output, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	out := Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	g.logger.Debug("tool invocation", "tool", name, "args", strings.Join(args, " "),
		"exit", out.ExitCode, "elapsed", elapsed)

	if ctx.Err() == context.DeadlineExceeded {
		return out, errors.Attr(
			errors.Errorf(errors.KindExternalTool, "%s timed out after %s", name, g.timeout),
			"tool", name)
	}
	if err != nil {
		toolErr := errors.Wrapf(err, errors.KindExternalTool, "%s failed", name)
		toolErr = errors.Attr(toolErr, "tool", name)
		if diag := Truncate(out.Stderr, maxDiagnostic); diag != "" {
			toolErr = errors.Attr(toolErr, "stderr", diag)
		}
		return out, toolErr
	}
	return out, nil
}

// Truncate caps a diagnostic string, marking elision.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}

// Probe verifies that every named tool is resolvable on PATH. Missing
// tools produce a single startup error naming all of them, so the failure
// is reported once rather than per operation.
func Probe(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, err := exec.LookPath(n); err != nil {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return errors.Errorf(errors.KindStartup,
			"required tools not found on PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CheckPrivilege verifies the process can write kernel and daemon state.
func CheckPrivilege() error {
	if os.Geteuid() != 0 {
		return errors.New(errors.KindStartup, "netman needs root privileges to manage interfaces")
	}
	return nil
}
