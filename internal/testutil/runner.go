// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package testutil holds shared test doubles and helpers.
package testutil

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"grimm.is/netman/internal/tools"
)

// RequireVM skips the test unless the NETMAN_VM_TEST environment variable
// is set. Tests that touch real kernel state only run in that environment.
func RequireVM(t *testing.T) {
	t.Helper()
	if os.Getenv("NETMAN_VM_TEST") == "" {
		t.Skip("Skipping test: requires NETMAN_VM_TEST environment")
	}
}

// Call records a single tool invocation seen by the ScriptedRunner.
type Call struct {
	Name  string
	Args  []string
	Stdin string
}

// Line joins the invocation into a single matchable string.
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is a canned reply for invocations matching Tool and, when
// non-empty, the Contains substring of the full command line.
type Response struct {
	Tool     string
	Contains string
	Out      tools.Output
	Err      error
}

// ScriptedRunner is a tools.Runner that replays canned responses and
// records every call. Unmatched invocations succeed with empty output, so
// scripts only need to mention the calls a test cares about.
type ScriptedRunner struct {
	mu        sync.Mutex
	Responses []Response
	Calls     []Call
}

var _ tools.Runner = (*ScriptedRunner)(nil)

// On appends a canned response.
func (r *ScriptedRunner) On(tool, contains string, out tools.Output, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Responses = append(r.Responses, Response{Tool: tool, Contains: contains, Out: out, Err: err})
}

// Run implements tools.Runner.
func (r *ScriptedRunner) Run(ctx context.Context, name string, args ...string) (tools.Output, error) {
	return r.RunStdin(ctx, "", name, args...)
}

// RunStdin implements tools.Runner.
func (r *ScriptedRunner) RunStdin(ctx context.Context, stdin string, name string, args ...string) (tools.Output, error) {
	if err := ctx.Err(); err != nil {
		return tools.Output{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	call := Call{Name: name, Args: args, Stdin: stdin}
	r.Calls = append(r.Calls, call)

	line := call.Line()
	for _, resp := range r.Responses {
		if resp.Tool != name {
			continue
		}
		if resp.Contains != "" && !strings.Contains(line, resp.Contains) {
			continue
		}
		return resp.Out, resp.Err
	}
	return tools.Output{}, nil
}

// CallCount returns how many times the named tool was invoked.
func (r *ScriptedRunner) CallCount(tool string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Calls {
		if c.Name == tool {
			n++
		}
	}
	return n
}

// CalledWith reports whether any recorded invocation's command line
// contains the given substring.
func (r *ScriptedRunner) CalledWith(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Calls {
		if strings.Contains(c.Line(), substr) {
			return true
		}
	}
	return false
}
