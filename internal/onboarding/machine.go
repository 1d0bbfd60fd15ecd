// Package onboarding runs the one-time provider onboarding wizard.
//
// A run walks RoleAndBrand → UploadAssets → ServicesAndPricing → Location →
// Verification → Complete. Each step validates its input, persists it, and only then
// advances. The step reached is not persisted: a new run always starts at
// RoleAndBrand, while data saved by earlier runs stays on the account.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/events"
	"eventhub/internal/logging"
	"eventhub/internal/models"
	"eventhub/internal/objectstore"
)

// Step names a wizard stage.
type Step string

const (
	StepRoleAndBrand       Step = "role_and_brand"
	StepUploadAssets       Step = "upload_assets"
	StepServicesAndPricing Step = "services_and_pricing"
	StepLocation           Step = "location"
	StepVerification       Step = "verification"
	StepComplete           Step = "complete"
)

// Steps lists the stages in order.
var Steps = []Step{
	StepRoleAndBrand,
	StepUploadAssets,
	StepServicesAndPricing,
	StepLocation,
	StepVerification,
	StepComplete,
}

func (s Step) next() Step {
	for i, step := range Steps {
		if step == s && i+1 < len(Steps) {
			return Steps[i+1]
		}
	}
	return StepComplete
}

// Index returns the zero-based position of s, for progress indicators.
func (s Step) Index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

var (
	// ErrWrongStep is returned when a step is submitted out of order.
	ErrWrongStep = errors.New("onboarding: step is not the current step")
	// ErrAlreadyCompleted is returned when a completed account starts a new run.
	ErrAlreadyCompleted = errors.New("onboarding: already completed")
	// ErrNotComplete is returned by Finish before the verification step succeeded.
	ErrNotComplete = errors.New("onboarding: verification not submitted")
)

// DashboardPath is where the client goes once onboarding is done.
const DashboardPath = "/dashboard"

// Store persists wizard steps.
type Store interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	UpdateRoleAndBrand(ctx context.Context, uid string, role models.Role, brandName, brandDescription string) error
	UpdateAssets(ctx context.Context, uid, logoURL string, photos []string) error
	UpdateServices(ctx context.Context, uid string, pricing []models.ServiceOffering) error
	UpdateLocation(ctx context.Context, uid string, loc models.Location) error
	CompleteOnboarding(ctx context.Context, uid string) (bool, error)
}

// Options configures a Wizard. Zero values get defaults.
type Options struct {
	Events        events.Publisher
	RedirectAfter time.Duration
	NewID         func() string
	Now           func() time.Time
}

// Wizard starts onboarding runs.
type Wizard struct {
	store         Store
	objects       objectstore.Store
	events        events.Publisher
	redirectAfter time.Duration
	newID         func() string
	now           func() time.Time
}

// NewWizard builds a Wizard.
func NewWizard(store Store, objects objectstore.Store, opts Options) *Wizard {
	w := &Wizard{
		store:         store,
		objects:       objects,
		events:        opts.Events,
		redirectAfter: opts.RedirectAfter,
		newID:         opts.NewID,
		now:           opts.Now,
	}
	if w.events == nil {
		w.events = events.Noop{}
	}
	if w.redirectAfter <= 0 {
		w.redirectAfter = 2 * time.Second
	}
	if w.newID == nil {
		w.newID = uuid.NewString
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// Begin starts a run for uid at RoleAndBrand, whatever the account already holds.
func (w *Wizard) Begin(ctx context.Context, uid string) (*Machine, error) {
	account, err := w.store.GetAccount(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if account.HasCompleted {
		return nil, ErrAlreadyCompleted
	}
	return &Machine{w: w, uid: uid, step: StepRoleAndBrand, role: account.Role}, nil
}

// Machine is one wizard run. Methods are safe for concurrent use; submissions are
// applied one at a time.
type Machine struct {
	w   *Wizard
	uid string

	mu   sync.Mutex
	step Step
	role models.Role
	done bool
}

// State is a snapshot of a run.
type State struct {
	Step          Step          `json:"step"`
	StepIndex     int           `json:"step_index"`
	Done          bool          `json:"done"`
	Role          models.Role   `json:"role,omitempty"`
	Redirect      string        `json:"redirect,omitempty"`
	RedirectAfter time.Duration `json:"-"`
	RedirectMS    int64         `json:"redirect_after_ms,omitempty"`
}

// UID returns the identity the run belongs to.
func (m *Machine) UID() string { return m.uid }

// Current returns the current step.
func (m *Machine) Current() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// Done reports whether the completion effect has run.
func (m *Machine) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// State returns a snapshot.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Machine) stateLocked() State {
	s := State{Step: m.step, StepIndex: m.step.Index(), Done: m.done, Role: m.role}
	if m.done {
		s.Redirect = DashboardPath
		s.RedirectAfter = m.w.redirectAfter
		s.RedirectMS = m.w.redirectAfter.Milliseconds()
	}
	return s
}

// expect must be called with mu held.
func (m *Machine) expect(step Step) error {
	if m.step != step {
		return fmt.Errorf("%w: submitted %s, current %s", ErrWrongStep, step, m.step)
	}
	return nil
}

// Finish retries the completion effect after a failed completion write.
func (m *Machine) Finish(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != StepComplete {
		return m.stateLocked(), ErrNotComplete
	}
	if err := m.completeLocked(ctx); err != nil {
		return m.stateLocked(), err
	}
	return m.stateLocked(), nil
}

// completeLocked sets the completion flag once and announces it.
func (m *Machine) completeLocked(ctx context.Context) error {
	if m.done {
		return nil
	}

	changed, err := m.w.store.CompleteOnboarding(ctx, m.uid)
	if err != nil {
		return fmt.Errorf("mark onboarding complete: %w", err)
	}
	m.done = true

	if changed {
		events.PublishBestEffort(ctx, m.w.events, events.OnboardingCompleted, events.OnboardingCompletedEvent{
			UID:         m.uid,
			Role:        string(m.role),
			CompletedAt: m.w.now().UTC(),
		})
		logging.WithContext(ctx).Info().Str("role", string(m.role)).Msg("Onboarding completed")
	}
	return nil
}
