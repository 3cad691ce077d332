package evaluation

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"charbench/internal/characters"
	"charbench/internal/domain"
	"charbench/internal/ports"
	"charbench/internal/scenarios"
)

// DefaultJudgeConcurrency bounds how many judges are queried at once.
const DefaultJudgeConcurrency = 4

// Judge pairs an evaluator name with the model client that backs it.
type Judge struct {
	// Name identifies the judge in results, typically the provider key.
	Name string

	// Client performs the model call.
	Client ports.ModelClient

	// Options are extra request options forwarded to the client, such
	// as a thinking budget.
	Options map[string]any
}

// Orchestrator fans a transcript out to a judge panel and collects the
// evaluations that parse cleanly. Judges that error or return
// malformed output are logged and dropped rather than failing the
// whole panel.
type Orchestrator struct {
	normalizer  *Normalizer
	logger      *slog.Logger
	concurrency int
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithConcurrency sets the maximum number of concurrent judge calls.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithNormalizer replaces the default normalizer, allowing per-judge
// response hooks to be installed.
func WithNormalizer(n *Normalizer) OrchestratorOption {
	return func(o *Orchestrator) {
		if n != nil {
			o.normalizer = n
		}
	}
}

// NewOrchestrator creates an orchestrator with default concurrency.
func NewOrchestrator(logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		normalizer:  NewNormalizer(),
		logger:      logger,
		concurrency: DefaultJudgeConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Evaluate renders the judge prompt once and queries every judge
// concurrently, returning the records keyed by judge name. Only judges
// whose responses normalized successfully appear in the result; an
// empty map with a nil error means every judge failed.
func (o *Orchestrator) Evaluate(
	ctx context.Context,
	transcript *domain.Transcript,
	character characters.Character,
	scenario scenarios.Scenario,
	judges []Judge,
) (map[string]*domain.EvaluationRecord, error) {
	prompt := BuildEvaluationPrompt(transcript, character, scenario)

	var mu sync.Mutex
	records := make(map[string]*domain.EvaluationRecord, len(judges))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, judge := range judges {
		judge := judge
		g.Go(func() error {
			record, err := o.evaluateOne(gctx, judge, prompt)
			if err != nil {
				o.logger.Warn("judge evaluation failed",
					"judge", judge.Name,
					"conversation", transcript.ID,
					"error", err)
				return nil
			}

			mu.Lock()
			records[judge.Name] = record
			mu.Unlock()

			o.logger.Info("judge evaluation completed",
				"judge", judge.Name,
				"conversation", transcript.ID,
				"overall", record.OverallScore)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (o *Orchestrator) evaluateOne(
	ctx context.Context, judge Judge, prompt string,
) (*domain.EvaluationRecord, error) {
	content, provenance, err := judge.Client.Complete(ctx, JudgeSystemPrompt, prompt, judge.Options)
	if err != nil {
		return nil, err
	}

	record, err := o.normalizer.Normalize(judge.Name, content)
	if err != nil {
		return nil, err
	}

	record.Provenance = &provenance
	return record, nil
}
