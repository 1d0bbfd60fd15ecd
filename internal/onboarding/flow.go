package onboarding

import (
	"context"

	"eventhub/internal/models"
	"eventhub/internal/objectstore"
)

// Flow drives the active run of an identity by uid.
type Flow struct {
	runs *Registry
}

// NewFlow wraps a registry.
func NewFlow(runs *Registry) *Flow {
	return &Flow{runs: runs}
}

// State returns the state of the active run, starting one if needed.
func (f *Flow) State(ctx context.Context, uid string) (State, error) {
	m, err := f.runs.Current(ctx, uid)
	if err != nil {
		return State{}, err
	}
	return m.State(), nil
}

// Restart begins a fresh run at RoleAndBrand.
func (f *Flow) Restart(ctx context.Context, uid string) (State, error) {
	m, err := f.runs.Restart(ctx, uid)
	if err != nil {
		return State{}, err
	}
	return m.State(), nil
}

func (f *Flow) SubmitRoleAndBrand(ctx context.Context, uid string, in RoleAndBrandInput) (State, error) {
	m, err := f.runs.Current(ctx, uid)
	if err != nil {
		return State{}, err
	}
	return m.SubmitRoleAndBrand(ctx, in)
}

func (f *Flow) SubmitAssets(ctx context.Context, uid string, in AssetsInput) (State, error) {
	m, err := f.runs.Current(ctx, uid)
	if err != nil {
		return State{}, err
	}
	return m.SubmitAssets(ctx, in)
}

func (f *Flow) SubmitServices(ctx context.Context, uid string, offerings []models.ServiceOffering) (State, error) {
	m, err := f.runs.Current(ctx, uid)
	if err != nil {
		return State{}, err
	}
	return m.SubmitServices(ctx, offerings)
}

func (f *Flow) SubmitLocation(ctx context.Context, uid string, loc models.Location) (State, error) {
	m, err := f.runs.Current(ctx, uid)
	if err != nil {
		return State{}, err
	}
	return m.SubmitLocation(ctx, loc)
}

func (f *Flow) SubmitVerification(ctx context.Context, uid string, docs []objectstore.File) (State, error) {
	m, err := f.runs.Current(ctx, uid)
	if err != nil {
		return State{}, err
	}
	st, err := m.SubmitVerification(ctx, docs)
	f.runs.Release(uid, m)
	return st, err
}

// Finish retries the completion effect of a run that reached Complete. Finished runs
// are released from the registry.
func (f *Flow) Finish(ctx context.Context, uid string) (State, error) {
	m, ok := f.runs.Lookup(uid)
	if !ok {
		return State{}, ErrNotComplete
	}
	st, err := m.Finish(ctx)
	f.runs.Release(uid, m)
	return st, err
}
