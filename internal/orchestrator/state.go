package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/sdkmatrix/internal/driver"
)

// State is a point in an environment's lifecycle.
type State string

const (
	StateCreated  State = "created"
	StateBuilt    State = "built"
	StateRunning  State = "running"
	StatePassed   State = "passed"
	StateFailed   State = "failed"
	StateTornDown State = "torn_down"
)

// Step names reported in StepError.
const (
	StepBuild  = "build"
	StepStart  = "start"
	StepSettle = "settle"
	StepExec   = "exec"
	StepStop   = "stop"
)

// StepError reports a failed lifecycle step. It matches ErrBuild for the
// build step and ErrRun for every later step.
type StepError struct {
	Step     string
	ExitCode int
	Kind     error
	Err      error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s step: %v: %v", e.Step, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s step: %v: exit code %d", e.Step, e.Kind, e.ExitCode)
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Result is the outcome of one environment.
type Result struct {
	Name string
	// Status is StatePassed or StateFailed.
	Status State
	// States lists every state the environment went through, in order,
	// ending with StateTornDown.
	States []State
	// Output is the captured output of the test entrypoint, or of the step
	// that failed before it.
	Output   driver.Output
	Err      error
	Duration time.Duration
}

// Passed reports whether the environment passed.
func (r Result) Passed() bool {
	return r.Status == StatePassed
}

// Summary aggregates the results of one orchestrator invocation.
type Summary struct {
	RunID   string
	Results []Result
	Total   int
	Passed  int
	Failed  int
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	s.Total++
	if r.Passed() {
		s.Passed++
	} else {
		s.Failed++
	}
}

// Rate returns the pass rate in percent, 0 when nothing ran.
func (s Summary) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) * 100 / float64(s.Total)
}

// OK reports whether every executed environment passed.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// Lookup returns the result recorded for an environment.
func (s Summary) Lookup(name string) (Result, bool) {
	for _, r := range s.Results {
		if r.Name == name {
			return r, true
		}
	}
	return Result{}, false
}

// Err joins the errors of failed environments, or returns nil.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}
