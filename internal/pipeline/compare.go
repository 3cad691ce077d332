package pipeline

import (
	"context"
	"fmt"
	"strings"

	"charbench/internal/results"
)

// SignificantScoreDifference is the overall-score gap between the best
// and worst provider above which a comparison is flagged significant.
const SignificantScoreDifference = 0.5

// ProviderComparison reports how different chat providers performed on
// the same character and scenario.
type ProviderComparison struct {
	CharacterID           string               `json:"character_id"`
	ScenarioID            string               `json:"scenario_id"`
	ProvidersCompared     []string             `json:"providers_compared"`
	Scores                map[string]float64   `json:"scores,omitempty"`
	BestProvider          string               `json:"best_provider,omitempty"`
	ScoreDifference       float64              `json:"score_difference"`
	SignificantDifference bool                 `json:"significant_difference"`
	Results               map[string]JobResult `json:"individual_results"`
}

// CompareProviders evaluates the same character and scenario once per
// provider and ranks the outcomes. At least two providers must
// complete for the ranking fields to be populated; otherwise an error
// is returned alongside the partial results.
func (e *Engine) CompareProviders(
	ctx context.Context,
	characterID, scenarioID string,
	providers []string,
	cfg RunConfig,
) (*ProviderComparison, error) {
	comparison := &ProviderComparison{
		CharacterID:       characterID,
		ScenarioID:        scenarioID,
		ProvidersCompared: providers,
		Results:           make(map[string]JobResult, len(providers)),
	}

	session, err := e.store.StartSession(cfg.SessionID,
		fmt.Sprintf("Provider comparison: %s/%s", characterID, scenarioID),
		results.SessionParameters{
			Characters: []string{characterID},
			Scenarios:  []string{scenarioID},
			Provider:   strings.Join(providers, ","),
			Judges:     cfg.Judges,
			Workers:    1,
		})
	if err != nil {
		return nil, fmt.Errorf("starting comparison session: %w", err)
	}

	scores := make(map[string]float64)
	for _, provider := range providers {
		providerCfg := cfg
		providerCfg.Provider = provider

		result := e.evaluateOne(ctx, session.ID, characterID, scenarioID, providerCfg.withDefaults())
		comparison.Results[provider] = result
		if result.Completed() {
			scores[provider] = result.OverallScore
		}
	}

	jobs := make([]JobResult, 0, len(comparison.Results))
	for _, r := range comparison.Results {
		jobs = append(jobs, r)
	}
	summary := summarize(jobs)
	if err := e.store.CompleteSession(session.ID, &summary); err != nil {
		e.logger.Warn("completing comparison session failed", "session", session.ID, "error", err)
	}

	if len(scores) < 2 {
		return comparison, fmt.Errorf("insufficient successful evaluations for comparison: %d", len(scores))
	}

	comparison.Scores = scores
	var best string
	var min, max float64
	first := true
	for provider, score := range scores {
		if first {
			best, min, max = provider, score, score
			first = false
			continue
		}
		if score > max {
			max = score
			best = provider
		}
		if score < min {
			min = score
		}
	}
	comparison.BestProvider = best
	comparison.ScoreDifference = max - min
	comparison.SignificantDifference = comparison.ScoreDifference > SignificantScoreDifference

	e.logger.Info("provider comparison completed",
		"character", characterID,
		"scenario", scenarioID,
		"best", best,
		"difference", comparison.ScoreDifference)
	return comparison, nil
}
