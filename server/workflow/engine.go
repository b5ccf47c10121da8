package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sentinelcare/sentinel/plugin/ai"
	"github.com/sentinelcare/sentinel/plugin/vitals"
	"github.com/sentinelcare/sentinel/server/memory"
	"github.com/sentinelcare/sentinel/store"
)

// Options tunes an engine. Zero values fall back to defaults.
type Options struct {
	Thresholds  vitals.Thresholds
	Policy      vitals.Policy
	ReportDir   string
	LLMTimeout  time.Duration
	MaxParallel int
}

// Engine is the finite-state controller for patient sessions. It is safe
// to run sessions for different patients concurrently; a single session
// advances sequentially.
type Engine struct {
	memory   *memory.Service
	provider ai.CompletionProvider
	renderer DocumentRenderer

	thresholds  vitals.Thresholds
	policy      vitals.Policy
	llmTimeout  time.Duration
	maxParallel int
}

// NewEngine wires an engine from its collaborators. The provider and
// renderer may be nil; the affected phases degrade instead of failing.
func NewEngine(memoryService *memory.Service, provider ai.CompletionProvider, renderer DocumentRenderer, opts Options) *Engine {
	if opts.Thresholds == (vitals.Thresholds{}) {
		opts.Thresholds = vitals.DefaultThresholds()
	}
	if opts.Policy == (vitals.Policy{}) {
		opts.Policy = vitals.SpanPolicy(15 * time.Minute)
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = 60 * time.Second
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 4
	}
	if renderer == nil && opts.ReportDir != "" {
		renderer = NewMarkdownRenderer(opts.ReportDir)
	}
	return &Engine{
		memory:      memoryService,
		provider:    provider,
		renderer:    renderer,
		thresholds:  opts.Thresholds,
		policy:      opts.Policy,
		llmTimeout:  opts.LLMTimeout,
		maxParallel: opts.MaxParallel,
	}
}

// StartSession creates a fresh IDLE session for a known patient. Unknown
// patients fail fast with memory.ErrPatientNotFound.
func (e *Engine) StartSession(ctx context.Context, patientID string) (*State, error) {
	summary, err := e.memory.GetPatientSummary(ctx, patientID)
	if err != nil {
		return nil, err
	}
	state := NewState(patientID)
	state.PatientContext = summary
	slog.Info("session started", "session", state.SessionID, "patient", patientID)
	return state, nil
}

// NextSession creates a new session following a completed one. The
// completed state is never reopened.
func (e *Engine) NextSession(ctx context.Context, completed *State) (*State, error) {
	if completed.Phase != PhaseCompleted {
		return nil, errors.Errorf("cannot chain from phase %s", completed.Phase)
	}
	return e.StartSession(ctx, completed.PatientID)
}

// nodeFor returns the node that produces the given phase.
func (e *Engine) nodeFor(phase Phase) PhaseNode {
	switch phase {
	case PhaseNight:
		return &NightNode{memory: e.memory, thresholds: e.thresholds, policy: e.policy}
	case PhaseRap1:
		return &Rap1Node{memory: e.memory, provider: e.provider, renderer: e.renderer, timeout: e.llmTimeout}
	case PhaseDay:
		return &DayNode{memory: e.memory}
	case PhaseRap2:
		return &Rap2Node{memory: e.memory, provider: e.provider, renderer: e.renderer, timeout: e.llmTimeout}
	}
	return nil
}

// nextPhase is the linear phase order.
func nextPhase(current Phase) (Phase, bool) {
	switch current {
	case PhaseIdle:
		return PhaseNight, true
	case PhaseNight:
		return PhaseRap1, true
	case PhaseRap1:
		return PhaseDay, true
	case PhaseDay:
		return PhaseRap2, true
	case PhaseRap2:
		return PhaseCompleted, true
	}
	return current, false
}

// Advance runs the next phase node and moves the session forward.
// Cancellation is honored between phases only: a cancelled context aborts
// the session before the node runs, so no partial phase output is
// persisted. Store failures are fatal and abort the session.
func (e *Engine) Advance(ctx context.Context, state *State, input *SessionInput) error {
	if state.Terminal() {
		return errors.Wrapf(ErrSessionCompleted, "session %s", state.SessionID)
	}
	if input == nil {
		// Nodes treat absent inputs as warn-and-default.
		input = &SessionInput{}
	}

	next, ok := nextPhase(state.Phase)
	if !ok {
		return errors.Errorf("no next phase from %s", state.Phase)
	}

	if err := ctx.Err(); err != nil {
		e.abort(state, fmt.Sprintf("cancelled before %s: %v", next, err))
		return err
	}

	if next == PhaseCompleted {
		if err := state.TransitionTo(PhaseCompleted); err != nil {
			return err
		}
		slog.Info("session completed", "session", state.SessionID, "patient", state.PatientID,
			"errors", len(state.Errors), "warnings", len(state.Warnings))
		return nil
	}

	node := e.nodeFor(next)
	if err := state.TransitionTo(next); err != nil {
		return err
	}

	slog.Debug("phase executing", "session", state.SessionID, "phase", next)
	if err := node.Execute(ctx, state, input); err != nil {
		if errors.Is(err, store.ErrStoreIO) {
			e.abort(state, fmt.Sprintf("%s: memory unavailable: %v", node.Name(), err))
			return err
		}
		if errors.Is(err, memory.ErrPatientNotFound) {
			e.abort(state, fmt.Sprintf("%s: %v", node.Name(), err))
			return err
		}
		// Anything else is isolated to the node.
		state.AddError(fmt.Sprintf("%s: %v", node.Name(), err))
	}
	return nil
}

// RunSession drives a session from its current phase to completion.
func (e *Engine) RunSession(ctx context.Context, state *State, input *SessionInput) error {
	for !state.Terminal() {
		if err := e.Advance(ctx, state, input); err != nil {
			return err
		}
	}
	if state.Phase == PhaseAborted {
		return errors.Errorf("session %s aborted", state.SessionID)
	}
	return nil
}

// RunSessions executes one full session per input concurrently, bounded
// by MaxParallel. Each patient's session is independent; one failing
// session does not cancel the others' stores, but the first error is
// returned after all sessions finish or fail.
func (e *Engine) RunSessions(ctx context.Context, inputs []*SessionInput) ([]*State, error) {
	states := make([]*State, len(inputs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.maxParallel)
	for i, input := range inputs {
		group.Go(func() error {
			state, err := e.StartSession(groupCtx, input.PatientID)
			if err != nil {
				return errors.Wrapf(err, "patient %s", input.PatientID)
			}
			states[i] = state
			return e.RunSession(groupCtx, state, input)
		})
	}
	return states, group.Wait()
}

func (e *Engine) abort(state *State, reason string) {
	state.AddError(reason)
	state.SetMetric("aborted", 1)
	// TransitionTo allows ABORTED from every non-terminal phase.
	_ = state.TransitionTo(PhaseAborted)
	slog.Warn("session aborted", "session", state.SessionID, "reason", reason)
}
