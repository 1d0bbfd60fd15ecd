package onboarding

import (
	"context"
	"sync"
)

// Registry holds the active run per identity. Runs live in memory only; a restart
// of the process means the next request begins a new run.
type Registry struct {
	wizard *Wizard

	mu   sync.Mutex
	runs map[string]*Machine
}

// NewRegistry returns an empty registry.
func NewRegistry(w *Wizard) *Registry {
	return &Registry{wizard: w, runs: make(map[string]*Machine)}
}

// Current returns the active run for uid, starting one if none exists. When two
// callers race to start a run, both get the run that was registered first.
func (r *Registry) Current(ctx context.Context, uid string) (*Machine, error) {
	if m, ok := r.Lookup(uid); ok {
		return m, nil
	}

	m, err := r.wizard.Begin(ctx, uid)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.runs[uid]; ok {
		return existing, nil
	}
	r.runs[uid] = m
	return m, nil
}

// Restart discards any active run for uid and begins a new one at RoleAndBrand.
func (r *Registry) Restart(ctx context.Context, uid string) (*Machine, error) {
	m, err := r.wizard.Begin(ctx, uid)
	if err != nil {
		r.Forget(uid)
		return nil, err
	}

	r.mu.Lock()
	r.runs[uid] = m
	r.mu.Unlock()
	return m, nil
}

// Lookup returns the active run without starting one.
func (r *Registry) Lookup(uid string) (*Machine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.runs[uid]
	return m, ok
}

// Forget drops the run for uid.
func (r *Registry) Forget(uid string) {
	r.mu.Lock()
	delete(r.runs, uid)
	r.mu.Unlock()
}

// Release drops m once its run is done. A newer run registered for uid is kept.
func (r *Registry) Release(uid string, m *Machine) {
	if !m.Done() {
		return
	}
	r.mu.Lock()
	if r.runs[uid] == m {
		delete(r.runs, uid)
	}
	r.mu.Unlock()
}
