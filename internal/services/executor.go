package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pandeptwidyaop/sndctl/internal/config"
	"github.com/pandeptwidyaop/sndctl/internal/macro"
	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/validation"
)

var (
	// ErrExecutionNotFound indicates no execution with the given id is tracked.
	ErrExecutionNotFound = errors.New("execution not found")
	// ErrExecutionFinished indicates the execution completed before it could be cancelled.
	ErrExecutionFinished = errors.New("execution already finished")
)

// Dispatcher sends a single primitive command to the speaker command server.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd models.PrimitiveCommand) (*models.CommandResponse, error)
}

type execution struct {
	result *models.ExecutionResult
	cancel context.CancelFunc
}

// ExecutorService expands macros and dispatches their steps in order.
type ExecutorService struct {
	macros     *MacroService
	dispatcher Dispatcher
	cfg        *config.Config
	executions map[string]*execution
	streams    map[string][]chan string
	order      []string
	mu         sync.Mutex
	streamsMu  sync.RWMutex
}

// NewExecutorService creates an executor that resolves macros from macros and
// sends their steps through dispatcher.
func NewExecutorService(macros *MacroService, dispatcher Dispatcher, cfg *config.Config) *ExecutorService {
	return &ExecutorService{
		macros:     macros,
		dispatcher: dispatcher,
		cfg:        cfg,
		executions: make(map[string]*execution),
		streams:    make(map[string][]chan string),
	}
}

// Execute runs the macro called name to completion and returns the result.
// Unknown macros, invalid arguments and missing arguments are returned as
// errors before any step runs; failing steps are reported in the result.
// Cancelling ctx stops the run at the next step boundary.
func (s *ExecutorService) Execute(ctx context.Context, name string, args []string) (*models.ExecutionResult, error) {
	plan, err := s.prepare(name, args)
	if err != nil {
		return nil, err
	}

	result := s.track(name, args, len(plan), nil)
	s.run(ctx, result, plan)
	return s.snapshot(result), nil
}

// Start runs the macro in the background and returns the initial result.
// The run can be stopped with Cancel.
func (s *ExecutorService) Start(name string, args []string) (*models.ExecutionResult, error) {
	plan, err := s.prepare(name, args)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	result := s.track(name, args, len(plan), cancel)
	snapshot := s.snapshot(result)

	go func() {
		defer cancel()
		s.run(ctx, result, plan)
	}()

	return snapshot, nil
}

// Cancel stops a running execution before its next step.
func (s *ExecutorService) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec, ok := s.executions[id]
	if !ok {
		return ErrExecutionNotFound
	}
	if exec.result.Done() {
		return ErrExecutionFinished
	}
	if exec.cancel == nil {
		return fmt.Errorf("execution %s cannot be cancelled", id)
	}
	exec.cancel()
	log.Printf("[Executor] Cancel requested for execution %s", id)
	return nil
}

// Get returns a snapshot of an execution from the in-memory history.
func (s *ExecutorService) Get(id string) (*models.ExecutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec, ok := s.executions[id]
	if !ok {
		return nil, ErrExecutionNotFound
	}
	return exec.result.Snapshot(), nil
}

func (s *ExecutorService) snapshot(result *models.ExecutionResult) *models.ExecutionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return result.Snapshot()
}

// History returns snapshots of the retained executions, newest first.
func (s *ExecutorService) History() []*models.ExecutionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.ExecutionResult, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.executions[s.order[i]].result.Snapshot())
	}
	return out
}

func (s *ExecutorService) prepare(name string, args []string) ([]models.PrimitiveCommand, error) {
	if err := validation.ValidateArguments(args, s.cfg.Execution.MaxArguments); err != nil {
		return nil, fmt.Errorf("%w: arguments: %v", macro.ErrValidation, err)
	}

	m, err := s.macros.Get(name)
	if err != nil {
		return nil, err
	}

	return macro.Expand(m, args)
}

func (s *ExecutorService) track(name string, args []string, steps int, cancel context.CancelFunc) *models.ExecutionResult {
	result := &models.ExecutionResult{
		ID:         uuid.New().String(),
		MacroName:  name,
		Arguments:  append([]string{}, args...),
		Status:     models.StatusRunning,
		Steps:      make([]models.StepResult, 0, steps),
		TotalSteps: steps,
		StartedAt:  time.Now(),
	}

	s.mu.Lock()
	s.executions[result.ID] = &execution{result: result, cancel: cancel}
	s.order = append(s.order, result.ID)
	s.evict()
	s.mu.Unlock()

	return result
}

// evict drops the oldest finished executions beyond the history size.
// Callers hold s.mu.
func (s *ExecutorService) evict() {
	limit := s.cfg.Execution.HistorySize
	if limit <= 0 {
		limit = 1
	}
	for len(s.order) > limit {
		victim := -1
		for i, id := range s.order {
			if s.executions[id].result.Done() {
				victim = i
				break
			}
		}
		if victim < 0 {
			return
		}
		delete(s.executions, s.order[victim])
		s.order = append(s.order[:victim], s.order[victim+1:]...)
	}
}

// run dispatches every step in order, continuing past failures. ctx is only
// consulted between steps.
func (s *ExecutorService) run(ctx context.Context, result *models.ExecutionResult, plan []models.PrimitiveCommand) {
	log.Printf("[Executor] Starting execution %s (macro %s, %d steps)", result.ID, result.MacroName, len(plan))

	cancelled := false
	for i, cmd := range plan {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		step := s.dispatch(ctx, i, cmd)
		if step.Failed() {
			log.Printf("[Executor] Step %d (%s %s) failed with exit_code=%d (execution %s)",
				i, cmd.Device, cmd.Action, step.ExitCode, result.ID)
		}

		s.mu.Lock()
		result.Steps = append(result.Steps, step)
		if step.Failed() && result.FirstFailedStep == nil {
			idx := i
			result.FirstFailedStep = &idx
		}
		s.mu.Unlock()

		s.broadcastStep(result.ID, step)
	}

	s.mu.Lock()
	now := time.Now()
	result.FinishedAt = &now
	result.Cancelled = cancelled
	switch {
	case cancelled:
		result.Status = models.StatusCancelled
	case result.FirstFailedStep != nil:
		result.Status = models.StatusFailed
	default:
		result.Status = models.StatusSuccess
	}
	result.Success = result.Status == models.StatusSuccess
	status := result.Status
	completed := len(result.Steps)
	s.mu.Unlock()

	s.broadcastComplete(result.ID, status)

	log.Printf("[Executor] Finished execution %s with status=%s, steps=%d/%d", result.ID, status, completed, len(plan))
}

// dispatch sends one command. The call is detached from ctx cancellation so
// a step that has been sent always completes; it is bounded by the dispatch
// timeout instead.
func (s *ExecutorService) dispatch(ctx context.Context, index int, cmd models.PrimitiveCommand) models.StepResult {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SocoCLI.GetTimeout())
	defer cancel()

	started := time.Now()
	resp, err := s.dispatcher.Dispatch(dctx, cmd)
	step := models.StepResult{
		Command:  cmd,
		Index:    index,
		Duration: time.Since(started),
	}
	if err != nil {
		step.ExitCode = -1
		step.Stderr = err.Error()
		return step
	}

	step.ExitCode = resp.ExitCode
	step.Stdout = resp.Result
	step.Stderr = resp.ErrorMsg
	return step
}

// Subscribe returns a channel receiving "step:" and "complete:" events for the
// execution. Callers must release it with Unsubscribe.
func (s *ExecutorService) Subscribe(executionID string) chan string {
	ch := make(chan string, 100)

	s.streamsMu.Lock()
	s.streams[executionID] = append(s.streams[executionID], ch)
	s.streamsMu.Unlock()

	return ch
}

// Unsubscribe detaches and closes ch.
func (s *ExecutorService) Unsubscribe(executionID string, ch chan string) {
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()

	channels := s.streams[executionID]
	for i, c := range channels {
		if c == ch {
			s.streams[executionID] = append(channels[:i], channels[i+1:]...)
			close(ch)
			break
		}
	}

	if len(s.streams[executionID]) == 0 {
		delete(s.streams, executionID)
	}
}

func (s *ExecutorService) broadcastStep(executionID string, step models.StepResult) {
	data, err := json.Marshal(step)
	if err != nil {
		return
	}

	s.streamsMu.RLock()
	defer s.streamsMu.RUnlock()

	for _, ch := range s.streams[executionID] {
		select {
		case ch <- "step:" + string(data):
		default:
		}
	}
}

func (s *ExecutorService) broadcastComplete(executionID string, status models.ExecutionStatus) {
	s.streamsMu.RLock()
	defer s.streamsMu.RUnlock()

	for _, ch := range s.streams[executionID] {
		select {
		case ch <- "complete:" + string(status):
		default:
		}
	}
}
