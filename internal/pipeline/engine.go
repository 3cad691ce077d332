// Package pipeline orchestrates batch evaluation runs: it fans a
// character and scenario matrix out over a worker pool, generating a
// conversation and judging it for every combination, and persists
// everything under a session.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"charbench/internal/characters"
	"charbench/internal/conversation"
	"charbench/internal/domain"
	"charbench/internal/evaluation"
	"charbench/internal/ports"
	"charbench/internal/results"
	"charbench/internal/scenarios"
)

// DefaultWorkers is the worker pool size when a run does not set one.
const DefaultWorkers = 4

// ClientProvider resolves provider specs like "claude" or
// "gpt/gpt-4o" into model clients.
type ClientProvider interface {
	GetClient(spec string) (ports.ModelClient, error)
}

// Status classifies one job's outcome.
type Status string

const (
	// StatusCompleted means the conversation was generated, judged, and
	// stored.
	StatusCompleted Status = "completed"

	// StatusEvaluationFailed means the conversation was generated and
	// stored but no judge produced a usable evaluation.
	StatusEvaluationFailed Status = "evaluation_failed"

	// StatusFailed means the job failed before evaluation.
	StatusFailed Status = "failed"
)

// JobResult is the outcome of one character and scenario combination.
type JobResult struct {
	CharacterID    string                    `json:"character_id"`
	ScenarioID     string                    `json:"scenario_id"`
	ConversationID string                    `json:"conversation_id,omitempty"`
	Provider       string                    `json:"provider"`
	Status         Status                    `json:"status"`
	Error          string                    `json:"error,omitempty"`
	OverallScore   float64                   `json:"overall_score,omitempty"`
	EvaluatorCount int                       `json:"evaluator_count,omitempty"`
	Consensus      *domain.ConsensusAnalysis `json:"consensus,omitempty"`
	ExecutionTime  time.Duration             `json:"execution_time"`
}

// Completed reports whether the job ran through evaluation.
func (r JobResult) Completed() bool { return r.Status == StatusCompleted }

// RunReport is the outcome of a whole batch run.
type RunReport struct {
	SessionID string                 `json:"session_id"`
	Results   []JobResult            `json:"results"`
	Summary   results.SessionSummary `json:"summary"`
}

// AllFailed reports whether the run attempted jobs and none completed.
// Callers use this to surface a fully-failed run as a hard failure.
func (r *RunReport) AllFailed() bool {
	return r.Summary.TotalEvaluations > 0 && r.Summary.SuccessfulEvaluations == 0
}

// ProgressFunc is invoked after every finished job with the running
// completion count.
type ProgressFunc func(completed, total int, result JobResult)

// Engine wires the generator, judge panel, consensus engine, and
// results store into a batch pipeline.
type Engine struct {
	characters *characters.Manager
	scenarios  *scenarios.Catalog
	generator  *conversation.Generator
	judges     *evaluation.Orchestrator
	consensus  *domain.ConsensusEngine
	store      *results.Store
	clients    ClientProvider
	metrics    ports.MetricsCollector
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMetrics attaches a metrics collector recording per-job outcomes.
func WithMetrics(m ports.MetricsCollector) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine assembles a pipeline engine from its components.
func NewEngine(
	chars *characters.Manager,
	catalog *scenarios.Catalog,
	generator *conversation.Generator,
	judges *evaluation.Orchestrator,
	store *results.Store,
	clients ClientProvider,
	logger *slog.Logger,
	opts ...EngineOption,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		characters: chars,
		scenarios:  catalog,
		generator:  generator,
		judges:     judges,
		consensus:  domain.NewConsensusEngine(),
		store:      store,
		clients:    clients,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evaluates every requested character against every requested
// scenario. Empty character or scenario lists mean all loaded ones.
// Job failures are captured in the report, not returned as errors.
func (e *Engine) Run(ctx context.Context, cfg RunConfig, progress ProgressFunc) (*RunReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	charIDs := cfg.Characters
	if len(charIDs) == 0 {
		charIDs = e.characters.IDs()
	}
	scenarioIDs := cfg.Scenarios
	if len(scenarioIDs) == 0 {
		scenarioIDs = e.scenarios.IDs()
	}

	session, err := e.store.StartSession(cfg.SessionID,
		fmt.Sprintf("Evaluation: %d characters, %d scenarios", len(charIDs), len(scenarioIDs)),
		results.SessionParameters{
			Characters: charIDs,
			Scenarios:  scenarioIDs,
			Provider:   cfg.Provider,
			Judges:     cfg.Judges,
			Workers:    cfg.Workers,
		})
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}

	type job struct{ characterID, scenarioID string }
	var jobs []job
	for _, c := range charIDs {
		for _, s := range scenarioIDs {
			jobs = append(jobs, job{c, s})
		}
	}

	var mu sync.Mutex
	report := &RunReport{SessionID: session.ID}
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for _, j := range jobs {
		j := j
		g.Go(func() error {
			result := e.evaluateOne(gctx, session.ID, j.characterID, j.scenarioID, cfg)

			mu.Lock()
			report.Results = append(report.Results, result)
			completed++
			done := completed
			mu.Unlock()

			e.recordJobMetrics(result)
			if progress != nil {
				progress(done, len(jobs), result)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Summary = summarize(report.Results)
	if err := e.store.CompleteSession(session.ID, &report.Summary); err != nil {
		e.logger.Warn("completing session failed", "session", session.ID, "error", err)
	}
	return report, nil
}

// evaluateOne runs the full generate, judge, and store cycle for one
// character and scenario combination.
func (e *Engine) evaluateOne(
	ctx context.Context, sessionID, characterID, scenarioID string, cfg RunConfig,
) JobResult {
	start := time.Now()
	result := JobResult{
		CharacterID: characterID,
		ScenarioID:  scenarioID,
		Provider:    cfg.Provider,
	}
	fail := func(status Status, err error) JobResult {
		result.Status = status
		result.Error = err.Error()
		result.ExecutionTime = time.Since(start)
		e.logger.Warn("evaluation job failed",
			"character", characterID,
			"scenario", scenarioID,
			"status", status,
			"error", err)
		return result
	}

	character, ok := e.characters.Get(characterID)
	if !ok {
		return fail(StatusFailed, fmt.Errorf("unknown character %q", characterID))
	}
	scenario, ok := e.scenarios.Get(scenarioID)
	if !ok {
		return fail(StatusFailed, fmt.Errorf("unknown scenario %q", scenarioID))
	}

	chatClient, err := e.clients.GetClient(cfg.Provider)
	if err != nil {
		return fail(StatusFailed, fmt.Errorf("resolving chat provider: %w", err))
	}

	transcript, err := e.generator.Generate(ctx, character, scenario, chatClient, cfg.Provider)
	if err != nil {
		return fail(StatusFailed, fmt.Errorf("generating conversation: %w", err))
	}
	transcript.ID = fmt.Sprintf("%s_%s_%s_%s", sessionID, characterID, scenarioID, cfg.Provider)
	result.ConversationID = transcript.ID

	if _, err := e.store.SaveConversation(transcript); err != nil {
		return fail(StatusFailed, fmt.Errorf("storing conversation: %w", err))
	}

	judges, err := e.buildJudges(cfg.Judges)
	if err != nil {
		return fail(StatusFailed, err)
	}

	records, err := e.judges.Evaluate(ctx, transcript, character, scenario, judges)
	if err != nil {
		return fail(StatusEvaluationFailed, fmt.Errorf("evaluating conversation: %w", err))
	}
	if len(records) == 0 {
		return fail(StatusEvaluationFailed, fmt.Errorf("no evaluation results received"))
	}

	consensus, err := e.consensus.Analyze(records)
	if err != nil {
		return fail(StatusEvaluationFailed, fmt.Errorf("computing consensus: %w", err))
	}

	if _, err := e.store.SaveEvaluation(transcript.ID, records, consensus); err != nil {
		return fail(StatusEvaluationFailed, fmt.Errorf("storing evaluation: %w", err))
	}

	result.Status = StatusCompleted
	result.OverallScore = consensus.OverallConsensus
	result.EvaluatorCount = len(records)
	result.Consensus = consensus
	result.ExecutionTime = time.Since(start)

	e.logger.Info("evaluation job completed",
		"character", characterID,
		"scenario", scenarioID,
		"score", consensus.OverallConsensus,
		"judges", len(records),
		"elapsed", result.ExecutionTime)
	return result
}

func (e *Engine) buildJudges(specs []string) ([]evaluation.Judge, error) {
	judges := make([]evaluation.Judge, 0, len(specs))
	for _, spec := range specs {
		client, err := e.clients.GetClient(spec)
		if err != nil {
			return nil, fmt.Errorf("resolving judge %q: %w", spec, err)
		}
		judges = append(judges, evaluation.Judge{Name: spec, Client: client})
	}
	return judges, nil
}

func (e *Engine) recordJobMetrics(result JobResult) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordCounter("evaluation_jobs", 1, map[string]string{
		"status": string(result.Status),
	})
	e.metrics.RecordLatency("evaluation_job", result.ExecutionTime, map[string]string{
		"provider": result.Provider,
		"status":   string(result.Status),
	})
}

func summarize(jobs []JobResult) results.SessionSummary {
	summary := results.SessionSummary{TotalEvaluations: len(jobs)}

	var scoreSum float64
	for _, r := range jobs {
		summary.TotalTime += r.ExecutionTime
		if r.Completed() {
			summary.SuccessfulEvaluations++
			scoreSum += r.OverallScore
		}
	}
	summary.FailedEvaluations = summary.TotalEvaluations - summary.SuccessfulEvaluations
	if summary.SuccessfulEvaluations > 0 {
		summary.AverageScore = scoreSum / float64(summary.SuccessfulEvaluations)
	}
	if summary.TotalEvaluations > 0 {
		summary.AverageTime = summary.TotalTime / time.Duration(summary.TotalEvaluations)
	}
	return summary
}
