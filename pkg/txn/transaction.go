package txn

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yaroslav/topoctl/internal/logging"
)

// UndoFunc reverses one remote creation.
type UndoFunc func(ctx context.Context) error

// State is the lifecycle state of a Transaction.
type State int

const (
	// StateOpen accepts registrations.
	StateOpen State = iota

	// StateRolledBack has replayed its ledger and accepts nothing further.
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type entry struct {
	description string
	undo        UndoFunc
}

// Transaction is an ordered ledger of undo actions.
//
// Provisioning is sequential, but the mutex keeps Register and Rollback
// safe when a signal handler triggers teardown from another goroutine.
type Transaction struct {
	mu      sync.Mutex
	entries []entry
	state   State
	logger  *zap.Logger
}

// New creates an open transaction. A nil logger disables logging.
func New(logger *zap.Logger) *Transaction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transaction{
		logger: logger.With(zap.String(logging.FieldComponent, "txn")),
	}
}

// Register appends an undo action to the ledger.
//
// Returns ErrClosed if the transaction has already been rolled back.
func (t *Transaction) Register(description string, undo UndoFunc) error {
	if undo == nil {
		return fmt.Errorf("register %q: nil undo action", description)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateOpen {
		return fmt.Errorf("register %q: %w", description, ErrClosed)
	}

	t.entries = append(t.entries, entry{description: description, undo: undo})
	t.logger.Debug("Registered undo action",
		zap.String(logging.FieldResource, description),
		zap.Int(logging.FieldIndex, len(t.entries)-1))

	return nil
}

// Len returns the number of registered undo actions.
func (t *Transaction) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Entries returns the descriptions of registered undo actions in
// registration order.
func (t *Transaction) Entries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.description
	}
	return out
}

// State returns the lifecycle state of the transaction.
func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Rollback invokes every registered undo action in reverse registration
// order. A failing action is logged and collected as a *RollbackActionError;
// it does not stop the remaining actions. The returned error combines all
// failures (see multierr.Errors) and is nil when every action succeeded.
//
// After Rollback the ledger is empty and the transaction is closed. Calling
// Rollback again returns ErrClosed without doing anything.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateOpen {
		t.mu.Unlock()
		return ErrClosed
	}
	entries := t.entries
	t.entries = nil
	t.state = StateRolledBack
	t.mu.Unlock()

	t.logger.Info("Rolling back transaction", zap.Int("actions", len(entries)))

	var errs error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := invoke(ctx, e.undo); err != nil {
			t.logger.Error("Undo action failed",
				zap.String(logging.FieldOperation, "rollback"),
				zap.String(logging.FieldResource, e.description),
				zap.Int(logging.FieldIndex, i),
				zap.Error(err))
			errs = multierr.Append(errs, &RollbackActionError{
				Index:       i,
				Description: e.description,
				Err:         err,
			})
			continue
		}
		t.logger.Info("Undid resource",
			zap.String(logging.FieldOperation, "rollback"),
			zap.String(logging.FieldResource, e.description),
			zap.Int(logging.FieldIndex, i))
	}

	failed := len(multierr.Errors(errs))
	t.logger.Info("Rollback finished",
		zap.Int("undone", len(entries)-failed),
		zap.Int("failed", failed))

	return errs
}

// invoke runs one undo action, turning a panic into an error.
func invoke(ctx context.Context, undo UndoFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return undo(ctx)
}
