package topology

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaroslav/topoctl/models"
)

var errInjected = errors.New("injected failure")

// op is one call observed by fakeAPI.
type op struct {
	create  bool
	ref     models.ResourceRef
	payload models.Resource
}

// fakeAPI assigns sequential identifiers and records every call.
type fakeAPI struct {
	ops     []op
	live    map[string]models.ResourceRef
	counts  map[models.Kind]int
	failOn  func(r models.Resource, nth int) error
	delErrs map[string]error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		live:    make(map[string]models.ResourceRef),
		counts:  make(map[models.Kind]int),
		delErrs: make(map[string]error),
	}
}

// failNth makes the nth creation (1-based) of kind fail.
func (f *fakeAPI) failNth(kind models.Kind, nth int) {
	f.failOn = func(r models.Resource, n int) error {
		if r.Kind() == kind && n == nth {
			return fmt.Errorf("%w: %s #%d", errInjected, kind, nth)
		}
		return nil
	}
}

func (f *fakeAPI) Create(_ context.Context, r models.Resource) (models.ResourceRef, error) {
	f.counts[r.Kind()]++
	if f.failOn != nil {
		if err := f.failOn(r, f.counts[r.Kind()]); err != nil {
			return models.ResourceRef{}, err
		}
	}
	id := fmt.Sprintf("%s-%d", r.Kind(), f.counts[r.Kind()])
	switch p := r.(type) {
	case models.TunnelZoneHost:
		id = p.HostID
	case models.HostBinding:
		id = p.PortID
	case models.PortLink:
		id = p.PortID
	}
	ref := models.RefFor(r, id)
	f.live[ref.Path] = ref
	f.ops = append(f.ops, op{create: true, ref: ref, payload: r})
	return ref, nil
}

func (f *fakeAPI) Delete(_ context.Context, ref models.ResourceRef) error {
	f.ops = append(f.ops, op{ref: ref})
	if err := f.delErrs[ref.Path]; err != nil {
		return err
	}
	if _, ok := f.live[ref.Path]; !ok {
		return models.ErrNotFound
	}
	delete(f.live, ref.Path)
	return nil
}

func (f *fakeAPI) created() []models.ResourceRef {
	var refs []models.ResourceRef
	for _, o := range f.ops {
		if o.create {
			refs = append(refs, o.ref)
		}
	}
	return refs
}

func (f *fakeAPI) deleted() []models.ResourceRef {
	var refs []models.ResourceRef
	for _, o := range f.ops {
		if !o.create {
			refs = append(refs, o.ref)
		}
	}
	return refs
}

func (f *fakeAPI) payloads(kind models.Kind) []models.Resource {
	var out []models.Resource
	for _, o := range f.ops {
		if o.create && o.ref.Kind == kind {
			out = append(out, o.payload)
		}
	}
	return out
}

func reversed(refs []models.ResourceRef) []models.ResourceRef {
	out := make([]models.ResourceRef, len(refs))
	for i, ref := range refs {
		out[len(refs)-1-i] = ref
	}
	return out
}

// fakeDirectory serves a fixed set of tenants and hosts.
type fakeDirectory struct {
	tenants map[string]string
	hosts   map[string]bool
	err     error
}

func (d *fakeDirectory) Tenant(_ context.Context, name string) (*models.Tenant, error) {
	if d.err != nil {
		return nil, d.err
	}
	id, ok := d.tenants[name]
	if !ok {
		return nil, nil
	}
	return &models.Tenant{ID: id, Name: name}, nil
}

func (d *fakeDirectory) Host(_ context.Context, id string) (*models.Host, error) {
	if d.err != nil {
		return nil, d.err
	}
	alive, ok := d.hosts[id]
	if !ok {
		return nil, nil
	}
	return &models.Host{ID: id, Alive: alive}, nil
}
