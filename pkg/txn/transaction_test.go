package txn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recorder collects the order in which undo actions run.
type recorder struct {
	undone []string
}

func (r *recorder) undo(name string) UndoFunc {
	return func(context.Context) error {
		r.undone = append(r.undone, name)
		return nil
	}
}

func TestTransaction_RegisterKeepsOrder(t *testing.T) {
	tx := New(zap.NewNop())
	rec := &recorder{}

	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("res-%d", i)
		require.NoError(t, tx.Register(name, rec.undo(name)))
	}

	assert.Equal(t, 5, tx.Len())
	assert.Equal(t, []string{"res-0", "res-1", "res-2", "res-3", "res-4"}, tx.Entries())
	assert.Equal(t, StateOpen, tx.State())
}

func TestTransaction_RollbackReverseOrder(t *testing.T) {
	tx := New(nil)
	rec := &recorder{}

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, tx.Register(name, rec.undo(name)))
	}

	require.NoError(t, tx.Rollback(context.Background()))

	assert.Equal(t, []string{"C", "B", "A"}, rec.undone)
	assert.Equal(t, 0, tx.Len())
	assert.Equal(t, StateRolledBack, tx.State())
}

func TestTransaction_RollbackContinuesAfterFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tx := New(zap.New(core))
	rec := &recorder{}
	boom := errors.New("delete failed: 500")

	require.NoError(t, tx.Register("A", rec.undo("A")))
	require.NoError(t, tx.Register("B", func(context.Context) error { return boom }))
	require.NoError(t, tx.Register("C", rec.undo("C")))

	err := tx.Rollback(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"C", "A"}, rec.undone, "remaining actions must still run")
	assert.ErrorIs(t, err, boom)

	var actionErr *RollbackActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, 1, actionErr.Index)
	assert.Equal(t, "B", actionErr.Description)

	assert.Equal(t, 1, logs.FilterMessage("Undo action failed").Len())
}

func TestTransaction_RollbackCollectsEveryFailure(t *testing.T) {
	tx := New(nil)

	for i := 0; i < 3; i++ {
		i := i
		require.NoError(t, tx.Register(fmt.Sprintf("res-%d", i), func(context.Context) error {
			return fmt.Errorf("failure %d", i)
		}))
	}

	err := tx.Rollback(context.Background())
	errs := multierr.Errors(err)
	require.Len(t, errs, 3)

	// Failures are reported in execution order, which is reverse registration order.
	for i, e := range errs {
		var actionErr *RollbackActionError
		require.ErrorAs(t, e, &actionErr)
		assert.Equal(t, 2-i, actionErr.Index)
	}
}

func TestTransaction_RollbackRecoversPanic(t *testing.T) {
	tx := New(nil)
	rec := &recorder{}

	require.NoError(t, tx.Register("A", rec.undo("A")))
	require.NoError(t, tx.Register("B", func(context.Context) error { panic("nil client") }))

	err := tx.Rollback(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: nil client")
	assert.Equal(t, []string{"A"}, rec.undone)
}

func TestTransaction_ClosedAfterRollback(t *testing.T) {
	tx := New(nil)
	rec := &recorder{}
	require.NoError(t, tx.Register("A", rec.undo("A")))
	require.NoError(t, tx.Rollback(context.Background()))

	err := tx.Register("B", rec.undo("B"))
	assert.ErrorIs(t, err, ErrClosed)

	err = tx.Rollback(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, []string{"A"}, rec.undone, "second rollback must not replay anything")
}

func TestTransaction_EmptyRollback(t *testing.T) {
	tx := New(nil)
	assert.NoError(t, tx.Rollback(context.Background()))
	assert.Equal(t, StateRolledBack, tx.State())
}

func TestTransaction_RegisterNilUndo(t *testing.T) {
	tx := New(nil)
	assert.Error(t, tx.Register("A", nil))
	assert.Equal(t, 0, tx.Len())
}

func TestTransaction_PartialFailureLedger(t *testing.T) {
	// Creation k fails: only k-1 undo actions exist and exactly those run.
	const total, failAt = 6, 4
	tx := New(nil)
	rec := &recorder{}

	create := func(i int) error {
		if i == failAt {
			return errors.New("create rejected")
		}
		name := fmt.Sprintf("res-%d", i)
		return tx.Register(name, rec.undo(name))
	}

	var buildErr error
	for i := 1; i <= total; i++ {
		if buildErr = create(i); buildErr != nil {
			break
		}
	}
	require.Error(t, buildErr)
	require.Equal(t, failAt-1, tx.Len())

	require.NoError(t, tx.Rollback(context.Background()))
	assert.Equal(t, []string{"res-3", "res-2", "res-1"}, rec.undone)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "rolled_back", StateRolledBack.String())
	assert.Equal(t, "state(7)", State(7).String())
}
