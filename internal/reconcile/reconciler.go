// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/netman/internal/errors"
	"grimm.is/netman/internal/logging"
	"grimm.is/netman/internal/netstate"
	"grimm.is/netman/internal/tools"
	"grimm.is/netman/internal/units"
)

// StateSource provides live interface state for convergence checks. The
// netstate registry satisfies it; tests inject a fake.
type StateSource interface {
	Refresh(ctx context.Context) (netstate.Snapshot, error)
}

// Result describes one completed apply cycle.
type Result struct {
	// Cycle correlates the log lines of one apply.
	Cycle    string
	UnitName string
	// Diff is the unified diff between the previously persisted unit and
	// the new one. Empty when nothing changed.
	Diff string
	// Submitted means the unit was written and the daemon reloaded.
	Submitted bool
	// Converged means live state matched the desired configuration within
	// the confirmation budget.
	Converged bool
	Attempts  int
}

// Reconciler applies desired configuration: unit write, daemon reload and
// a bounded confirmation loop against live state. One apply runs per
// interface at a time; different interfaces proceed independently.
type Reconciler struct {
	runner   tools.Runner
	state    StateSource
	unitDir  string
	attempts int
	interval time.Duration
	logger   *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReconciler wires a reconciler. attempts and interval bound the
// post-apply confirmation loop.
func NewReconciler(runner tools.Runner, state StateSource, unitDir string, attempts int, interval time.Duration, logger *logging.Logger) *Reconciler {
	if attempts < 1 {
		attempts = 5
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Reconciler{
		runner:   runner,
		state:    state,
		unitDir:  unitDir,
		attempts: attempts,
		interval: interval,
		logger:   logger.WithComponent("reconcile"),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *Reconciler) ifaceLock(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	return l
}

// Apply drives one interface to the desired configuration. Validation and
// rendering failures abort before any write; a write or tool failure
// aborts and restores every unit the cycle already touched. Convergence
// exhaustion is not a rollback: the unit stays installed, Submitted is
// true and the error carries KindConvergence.
func (r *Reconciler) Apply(ctx context.Context, role units.Role, desired units.DesiredConfig) (*Result, error) {
	lock := r.ifaceLock(desired.Name)
	lock.Lock()
	defer lock.Unlock()

	res := &Result{
		Cycle:    uuid.NewString(),
		UnitName: units.NetworkUnitName(role, desired.Name),
	}
	log := r.logger.With("cycle", res.Cycle, "iface", desired.Name)

	rendered, err := units.Render(desired)
	if err != nil {
		return res, err
	}

	persisted, err := ReadUnitFile(r.unitDir, res.UnitName)
	if err != nil {
		return res, err
	}

	// Contents of conflicting units are kept so a failed apply can put
	// them back byte-for-byte.
	conflictContents := make(map[string]string)
	var conflicts []string
	for _, name := range units.ConflictingUnitNames(role, desired.Name) {
		contents, err := ReadUnitFile(r.unitDir, name)
		if err != nil {
			return res, err
		}
		if contents != "" {
			conflicts = append(conflicts, name)
			conflictContents[name] = contents
		}
	}

	snap, _ := r.state.Refresh(ctx)
	var live *netstate.Interface
	if iface, ok := snap.Lookup(desired.Name); ok {
		live = &iface
	}

	actions, err := Plan(role, desired, persisted, conflicts, live)
	if err != nil {
		return res, err
	}
	if len(actions) == 0 {
		log.Debug("already converged, nothing to do")
		res.Converged = true
		return res, nil
	}

	res.Diff = unifiedDiff(res.UnitName, persisted, rendered)

	// A failed action must leave the prior configuration untouched: undo
	// restores every unit mutated so far, byte-for-byte. Once the daemon
	// has reloaded, a best-effort second reload resyncs it to the restored
	// files.
	wrote := false
	reloaded := false
	removed := make(map[string]string)
	undo := func() {
		for name, contents := range removed {
			if err := WriteUnitFile(r.unitDir, name, contents, 0644); err != nil {
				log.Error("unit not restored", "unit", name, "error", err)
			}
		}
		if wrote {
			var err error
			if persisted == "" {
				err = RemoveUnitFile(r.unitDir, res.UnitName)
			} else {
				err = WriteUnitFile(r.unitDir, res.UnitName, persisted, 0644)
			}
			if err != nil {
				log.Error("unit not restored", "unit", res.UnitName, "error", err)
			}
		}
		if reloaded {
			if _, err := r.runner.Run(ctx, "networkctl", "reload"); err != nil {
				log.Warn("daemon not resynced after rollback", "error", err)
			}
		}
	}

	for _, a := range actions {
		switch a.Kind {
		case ActionWriteUnit:
			if err := WriteUnitFile(r.unitDir, a.UnitName, a.Contents, 0644); err != nil {
				return res, err
			}
			wrote = true
			log.Info("unit written", "unit", a.UnitName)
		case ActionRemoveUnit:
			if err := RemoveUnitFile(r.unitDir, a.UnitName); err != nil {
				undo()
				return res, err
			}
			removed[a.UnitName] = conflictContents[a.UnitName]
		case ActionReloadDaemon:
			if _, err := r.runner.Run(ctx, "networkctl", "reload"); err != nil {
				undo()
				return res, err
			}
			reloaded = true
		case ActionReconfigureLink:
			if _, err := r.runner.Run(ctx, "networkctl", "reconfigure", a.Iface); err != nil {
				undo()
				return res, err
			}
		}
	}
	res.Submitted = true

	converged, attempts, err := r.confirm(ctx, desired)
	res.Attempts = attempts
	res.Converged = converged
	if err != nil {
		return res, err
	}
	if !converged {
		log.Warn("configuration submitted but not confirmed", "attempts", attempts)
		return res, errors.Attr(
			errors.Errorf(errors.KindConvergence,
				"%s did not reach desired state within %d checks", desired.Name, attempts),
			"iface", desired.Name)
	}
	log.Info("converged", "attempts", attempts)
	return res, nil
}

// confirm polls live state until the interface matches the desired
// configuration or the budget is spent.
func (r *Reconciler) confirm(ctx context.Context, desired units.DesiredConfig) (bool, int, error) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		snap, _ := r.state.Refresh(ctx)
		if iface, ok := snap.Lookup(desired.Name); ok && Converged(desired, iface) {
			return true, attempt, nil
		}
		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return false, attempt, errors.Wrap(ctx.Err(), errors.KindTimeout, "apply cancelled while confirming")
		case <-time.After(r.interval):
		}
	}
	return false, r.attempts, nil
}

// Release removes every managed unit for an interface and reloads the
// daemon, returning the interface to unmanaged state.
func (r *Reconciler) Release(ctx context.Context, iface string) error {
	lock := r.ifaceLock(iface)
	lock.Lock()
	defer lock.Unlock()

	removed := false
	for _, role := range []units.Role{units.RoleWired, units.RoleWireless, units.RoleWireGuard} {
		name := units.NetworkUnitName(role, iface)
		existing, err := ReadUnitFile(r.unitDir, name)
		if err != nil {
			return err
		}
		if existing == "" {
			continue
		}
		if err := RemoveUnitFile(r.unitDir, name); err != nil {
			return err
		}
		removed = true
	}
	if !removed {
		return nil
	}

	r.logger.Info("interface released", "iface", iface)
	_, err := r.runner.Run(ctx, "networkctl", "reload")
	return err
}

// UnitDir exposes the managed unit directory for collaborators that write
// companion files (netdev units, supplicant configs).
func (r *Reconciler) UnitDir() string { return r.unitDir }

func unifiedDiff(name, old, new string) string {
	if old == new {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(new),
		FromFile: name,
		ToFile:   name,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
