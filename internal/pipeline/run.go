package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/layername/internal/host"
	"github.com/dgallion1/layername/internal/names"
	"github.com/dgallion1/layername/internal/reconcile"
	"github.com/google/uuid"
)

// State is a step of a renaming run.
type State string

const (
	StateIdle              State = "idle"
	StateSelectionCaptured State = "selection_captured"
	StateSerialized        State = "serialized"
	StateRequestSent       State = "request_sent"
	StateResponseReceived  State = "response_received"
	StateParsed            State = "parsed"
	StateReconciling       State = "reconciling"
	StateDone              State = "done"
	StateError             State = "error"
)

// transitions lists the legal successors of each state. Done and Error are
// terminal. Error is reachable from every other state so that host and
// configuration failures also end a run.
var transitions = map[State][]State{
	StateIdle:              {StateSelectionCaptured, StateError},
	StateSelectionCaptured: {StateSerialized, StateDone, StateError},
	StateSerialized:        {StateRequestSent, StateError},
	StateRequestSent:       {StateResponseReceived, StateError},
	StateResponseReceived:  {StateParsed, StateError},
	StateParsed:            {StateReconciling, StateError},
	StateReconciling:       {StateDone, StateError},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateError
}

// CanTransition reports whether from → to is legal.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Options are the per-run choices made by the caller. Empty fields fall back
// to the stored settings and then to the service config.
type Options struct {
	Form      names.Form `json:"format"`
	UseVision bool       `json:"vision"`
	Context   string     `json:"context,omitempty"`
	Model     string     `json:"model,omitempty"`
}

// Run tracks one rename request against one document.
type Run struct {
	mu sync.Mutex

	ID      string  `json:"run_id"`
	DocID   string  `json:"doc_id"`
	Options Options `json:"options"`

	State     State     `json:"state"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	provider    host.Provider
	model       string
	errKind     string
	errMsg      string
	unused      []string
	assignments []reconcile.Assignment
}

// Progress counts the work a run has done so far.
type Progress struct {
	Selected         int `json:"selected"`
	Layers           int `json:"layers"`
	Previews         int `json:"previews"`
	Entries          int `json:"entries"`
	Dropped          int `json:"dropped"`
	Assigned         int `json:"assigned"`
	Renamed          int `json:"renamed"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// NewRun creates an idle run against provider.
func NewRun(docID string, provider host.Provider, opts Options) *Run {
	now := time.Now()
	if opts.Form == "" {
		opts.Form = names.FormAuto
	}
	return &Run{
		ID:        uuid.NewString(),
		DocID:     docID,
		Options:   opts,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
		provider:  provider,
	}
}

// Transition moves the run to state to, rejecting illegal moves.
func (r *Run) Transition(to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !CanTransition(r.State, to) {
		return fmt.Errorf("run %s: illegal transition %s -> %s", r.ID, r.State, to)
	}
	r.State = to
	r.UpdatedAt = time.Now()
	return nil
}

// Fail moves the run to Error and records why. A run that is already
// terminal is left alone.
func (r *Run) Fail(kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State.Terminal() {
		return
	}
	r.State = StateError
	r.errKind = kind
	r.errMsg = msg
	r.UpdatedAt = time.Now()
}

// Update applies fn to the progress counters.
func (r *Run) Update(fn func(p *Progress)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.Progress)
	r.UpdatedAt = time.Now()
}

// SetModel records which model served the run.
func (r *Run) SetModel(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = model
}

// SetResult records the reconciliation outcome.
func (r *Run) SetResult(res *reconcile.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments = append([]reconcile.Assignment(nil), res.Assignments...)
	r.unused = append([]string(nil), res.Unused...)
	r.Progress.Assigned = len(res.Assignments)
	r.UpdatedAt = time.Now()
}

// Provider returns the document the run renames.
func (r *Run) Provider() host.Provider {
	return r.provider
}

// CurrentState returns the state under the run's lock.
func (r *Run) CurrentState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.State
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID          string                 `json:"run_id"`
	DocID       string                 `json:"doc_id"`
	Options     Options                `json:"options"`
	State       State                  `json:"state"`
	Model       string                 `json:"model,omitempty"`
	Progress    Progress               `json:"progress"`
	ErrorKind   string                 `json:"error_kind,omitempty"`
	Error       string                 `json:"error,omitempty"`
	UnusedNames []string               `json:"unused_names"`
	Assignments []reconcile.Assignment `json:"assignments"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	unused := append([]string{}, r.unused...)
	assignments := append([]reconcile.Assignment{}, r.assignments...)
	return RunSnapshot{
		ID:          r.ID,
		DocID:       r.DocID,
		Options:     r.Options,
		State:       r.State,
		Model:       r.model,
		Progress:    r.Progress,
		ErrorKind:   r.errKind,
		Error:       r.errMsg,
		UnusedNames: unused,
		Assignments: assignments,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Active returns the non-terminal run for docID, if any.
func (s *RunStore) Active(docID string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(docID)
}

// PutIfNoActive stores run unless its document already has a non-terminal
// run, which is returned instead.
func (s *RunStore) PutIfNoActive(run *Run) (*Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active := s.activeLocked(run.DocID); active != nil {
		return active, false
	}
	s.runs[run.ID] = run
	return run, true
}

func (s *RunStore) activeLocked(docID string) *Run {
	for _, run := range s.runs {
		if run.DocID == docID && !run.CurrentState().Terminal() {
			return run
		}
	}
	return nil
}

// Cleanup removes terminal runs idle longer than the TTL and returns their IDs.
func (s *RunStore) Cleanup() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var removed []string
	for id, run := range s.runs {
		snap := run.Snapshot()
		if snap.State.Terminal() && now.Sub(snap.UpdatedAt) > s.ttl {
			delete(s.runs, id)
			removed = append(removed, id)
		}
	}
	return removed
}
