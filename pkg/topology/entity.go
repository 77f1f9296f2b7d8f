package topology

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yaroslav/topoctl/internal/logging"
	"github.com/yaroslav/topoctl/models"
	"github.com/yaroslav/topoctl/pkg/txn"
)

// Entity is a declarative descriptor of one controller resource.
//
// The set of entities is closed: every implementation lives in this package.
type Entity interface {
	// Kind returns the controller resource kind.
	Kind() models.Kind

	// ID returns the controller identifier, or "" before realization.
	ID() string

	// Realized reports whether the entity holds a controller identifier.
	Realized() bool

	entity()
}

// resource carries the remote identity shared by all entities.
type resource struct {
	ref models.ResourceRef
}

func (r *resource) ID() string { return r.ref.ID }

func (r *resource) Realized() bool { return r.ref.ID != "" }

// Ref returns the reference of the realized resource.
func (r *resource) Ref() models.ResourceRef { return r.ref }

func (r *resource) entity() {}

// claim fails if the entity was already realized.
func (r *resource) claim(kind models.Kind, name string) error {
	if r.Realized() {
		return fmt.Errorf("%w: %s %q is %s", ErrAlreadyRealized, kind, name, r.ref.ID)
	}
	return nil
}

// realize creates payload and stores the resulting reference.
func (r *resource) realize(ctx context.Context, api API, tx *txn.Transaction, payload models.Resource) error {
	ref, err := create(ctx, api, tx, payload)
	if err != nil {
		return err
	}
	r.ref = ref
	return nil
}

// create performs one remote creation and registers its deletion with tx
// before returning, so the ledger order always equals creation order.
func create(ctx context.Context, api API, tx *txn.Transaction, payload models.Resource) (models.ResourceRef, error) {
	if tx.State() != txn.StateOpen {
		return models.ResourceRef{}, fmt.Errorf("create %s: %w", payload.Kind(), txn.ErrClosed)
	}

	ref, err := api.Create(ctx, payload)
	if err != nil {
		return models.ResourceRef{}, &RealizationError{Kind: payload.Kind(), Payload: payload, Err: err}
	}
	if ref.ID == "" {
		return models.ResourceRef{}, &RealizationError{Kind: payload.Kind(), Payload: payload, Err: ErrEmptyIdentifier}
	}

	undo := func(ctx context.Context) error {
		return api.Delete(ctx, ref)
	}
	if err := tx.Register(ref.String(), undo); err != nil {
		// Nothing will ever roll this resource back; remove it right away.
		return models.ResourceRef{}, multierr.Append(err, undo(ctx))
	}

	logging.FromContext(ctx).Info("Created resource",
		zap.String(logging.FieldKind, string(ref.Kind)),
		zap.String(logging.FieldResourceID, ref.ID))

	return ref, nil
}

// requireRealized fails if a referenced entity has no identifier yet.
func requireRealized(e Entity, role string) error {
	if e == nil || !e.Realized() {
		return fmt.Errorf("%w: %s", ErrNotRealized, role)
	}
	return nil
}
