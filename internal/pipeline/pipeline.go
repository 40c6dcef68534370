// Package pipeline sequences one ingest run: extract raw records, validate
// them against the rule document, and write the new subset through the
// insert engine. Runs are tracked by id so operational tooling can trigger
// them asynchronously and inspect results later.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/normapipe/normapipe/internal/ingest"
	"github.com/normapipe/normapipe/internal/metrics"
	"github.com/normapipe/normapipe/internal/record"
	"github.com/normapipe/normapipe/internal/rules"
	"github.com/normapipe/normapipe/internal/validate"
)

// Extractor produces the raw batch for a run. Implemented by the listing
// scraper; tests substitute fixtures.
type Extractor interface {
	Extract(ctx context.Context, pages int) (record.Frame, error)
}

// Options configures the service.
type Options struct {
	RulesPath  string
	Entity     string
	PagesMax   int
	RunTimeout time.Duration
}

// Service orchestrates pipeline runs.
type Service struct {
	extractor Extractor
	engine    *ingest.Engine
	opts      Options
	metrics   *metrics.Metrics
	log       *slog.Logger

	mu   sync.RWMutex
	runs map[string]*run
}

type run struct {
	status RunStatus
	result *RunResult
	done   chan struct{}
	cancel context.CancelFunc
}

// RunStatus is the lifecycle state of an asynchronous run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// RunParams are the per-run knobs supplied by the caller.
type RunParams struct {
	Pages int `json:"pages"`
}

// RunResult is the structured outcome of one run. Fatal errors land in
// Error; partial results computed before the failure (e.g. the validation
// report) stay inspectable.
type RunResult struct {
	RunID     string          `json:"run_id"`
	Entity    string          `json:"entity"`
	Extracted int             `json:"extracted"`
	Report    validate.Report `json:"report"`
	Write     ingest.Result   `json:"write"`
	Duration  time.Duration   `json:"duration_ns"`
	Error     string          `json:"error,omitempty"`
}

// RunSnapshot is what status lookups return.
type RunSnapshot struct {
	RunID  string     `json:"run_id"`
	Status RunStatus  `json:"status"`
	Result *RunResult `json:"result,omitempty"`
}

// New creates a pipeline service. metrics may be nil (tests).
func New(extractor Extractor, engine *ingest.Engine, opts Options, m *metrics.Metrics, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 10 * time.Minute
	}
	if opts.PagesMax <= 0 {
		opts.PagesMax = 25
	}
	return &Service{
		extractor: extractor,
		engine:    engine,
		opts:      opts,
		metrics:   m,
		log:       log,
		runs:      make(map[string]*run),
	}
}

// StartRun launches a run in the background and returns its id.
func (s *Service) StartRun(params RunParams) (string, error) {
	if err := s.checkParams(&params); err != nil {
		return "", err
	}

	runID := uuid.New().String()
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.RunTimeout)

	r := &run{status: StatusRunning, done: make(chan struct{}), cancel: cancel}
	s.mu.Lock()
	s.runs[runID] = r
	s.mu.Unlock()

	go func() {
		defer cancel()
		result := s.execute(ctx, runID, params)

		s.mu.Lock()
		r.result = result
		if result.Error == "" {
			r.status = StatusSucceeded
		} else {
			r.status = StatusFailed
		}
		s.mu.Unlock()
		close(r.done)
	}()

	return runID, nil
}

// RunOnce executes a run synchronously. Used by the one-shot CLI mode and
// the scheduler-facing entry point.
func (s *Service) RunOnce(ctx context.Context, params RunParams) (*RunResult, error) {
	if err := s.checkParams(&params); err != nil {
		return nil, err
	}
	result := s.execute(ctx, uuid.New().String(), params)
	if result.Error != "" {
		return result, fmt.Errorf("pipeline run: %s", result.Error)
	}
	return result, nil
}

// GetRun returns the current snapshot of a run.
func (s *Service) GetRun(runID string) (RunSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return RunSnapshot{}, false
	}
	return RunSnapshot{RunID: runID, Status: r.status, Result: r.result}, true
}

// WaitRun blocks until the run finishes or the context expires.
func (s *Service) WaitRun(ctx context.Context, runID string) (*RunResult, error) {
	s.mu.RLock()
	r, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown run: %s", runID)
	}

	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return r.result, nil
}

// ValidateOnly runs the validation engine over a caller-supplied batch
// without writing anything. The rule document is loaded fresh, matching
// the read-once-per-validation-call contract.
func (s *Service) ValidateOnly(frame record.Frame, entity string) (record.Frame, validate.Report, error) {
	rs, err := rules.Load(s.opts.RulesPath)
	if err != nil {
		return record.Frame{}, validate.Report{}, err
	}
	return validate.Validate(frame, entity, rs)
}

func (s *Service) checkParams(params *RunParams) error {
	if params.Pages <= 0 {
		params.Pages = 1
	}
	if params.Pages > s.opts.PagesMax {
		return fmt.Errorf("pages %d exceeds maximum %d", params.Pages, s.opts.PagesMax)
	}
	return nil
}

// execute runs the three pipeline stages. It never panics across the
// boundary; failures are folded into the result.
func (s *Service) execute(ctx context.Context, runID string, params RunParams) *RunResult {
	start := time.Now()
	log := s.log.With("run_id", runID, "entity", s.opts.Entity)
	result := &RunResult{RunID: runID, Entity: s.opts.Entity}

	if s.metrics != nil {
		s.metrics.RunsInFlight.Inc()
		defer s.metrics.RunsInFlight.Dec()
	}
	defer func() {
		result.Duration = time.Since(start)
		if s.metrics != nil {
			outcome := "succeeded"
			if result.Error != "" {
				outcome = "failed"
			}
			s.metrics.ObserveRun(outcome, result.Duration)
		}
	}()

	log.Info("run started", "pages", params.Pages)

	// The rule document is loaded per run, never cached process-wide.
	ruleSet, err := rules.Load(s.opts.RulesPath)
	if err != nil {
		result.Error = err.Error()
		log.Error("rule load failed", "error", err)
		return result
	}

	frame, err := s.extractor.Extract(ctx, params.Pages)
	if err != nil {
		result.Error = fmt.Sprintf("extraction: %v", err)
		log.Error("extraction failed", "error", err)
		return result
	}
	result.Extracted = frame.Len()
	log.Info("extraction finished", "rows", frame.Len())

	clean, report, err := validate.Validate(frame, s.opts.Entity, ruleSet)
	if err != nil {
		result.Error = fmt.Sprintf("validation: %v", err)
		log.Error("validation failed", "error", err)
		return result
	}
	result.Report = report
	if s.metrics != nil {
		s.metrics.ObserveValidation(report.TotalInputRows, report.TotalValidRows, report.TotalDroppedRows)
	}
	log.Info("validation finished",
		"input", report.TotalInputRows,
		"valid", report.TotalValidRows,
		"dropped", report.TotalDroppedRows,
	)

	writeRes, err := s.engine.Write(ctx, record.RegulationsFromFrame(clean), s.opts.Entity)
	result.Write = writeRes
	if err != nil {
		result.Error = fmt.Sprintf("write: %v", err)
		log.Error("write failed", "error", err)
		return result
	}
	if s.metrics != nil {
		s.metrics.ObserveWrite(writeRes.Inserted, writeRes.DuplicateExisting, writeRes.DuplicateInternal)
	}

	log.Info("run finished",
		"inserted", writeRes.Inserted,
		"duplicates_existing", writeRes.DuplicateExisting,
		"duplicates_internal", writeRes.DuplicateInternal,
		"message", writeRes.Message,
	)
	return result
}
