package domain

import (
	"fmt"
	"sort"
)

// AgreementThreshold is the maximum per-criterion score spread (and
// per-evaluator divergence from consensus) treated as agreement.
// Spreads beyond it are recorded as disagreements, and evaluators
// diverging beyond it on most criteria are flagged as outliers.
const AgreementThreshold = 2.0

// Disagreement records a criterion whose score spread across evaluators
// exceeded the agreement threshold.
type Disagreement struct {
	Criterion Criterion `json:"criterion"`
	Range     float64   `json:"range"`
}

// String renders the disagreement in the form used by insights and
// persisted reports, for example "character_immersion (range: 3.0)".
func (d Disagreement) String() string {
	return fmt.Sprintf("%s (range: %.1f)", d.Criterion, d.Range)
}

// ConsensusAnalysis is the aggregate verdict across all judges that
// evaluated one conversation.
type ConsensusAnalysis struct {
	// ConsensusScores holds the per-criterion median across evaluators.
	ConsensusScores map[Criterion]float64 `json:"consensus_scores"`

	// OverallConsensus is the mean of the per-criterion medians.
	OverallConsensus float64 `json:"overall_consensus"`

	// AgreementLevel is the average pairwise agreement across all
	// criteria, in [0, 1]. 1.0 means every pair of evaluators scored
	// every criterion identically.
	AgreementLevel float64 `json:"agreement_level"`

	// Disagreements lists criteria whose score spread exceeded the
	// agreement threshold, in canonical criterion order.
	Disagreements []Disagreement `json:"disagreements"`

	// Outliers lists evaluators that diverged from consensus beyond the
	// threshold on more than half the criteria, sorted by name.
	Outliers []string `json:"outliers"`

	// ConfidenceLevel is the mean confidence across all records.
	ConfidenceLevel float64 `json:"confidence_level"`

	// Insights holds the generated human-readable findings.
	Insights []string `json:"insights"`
}

// ConsensusEngine aggregates independent evaluation records into a
// single consensus analysis using per-criterion medians. The engine is
// stateless and safe for concurrent use.
type ConsensusEngine struct {
	threshold float64
}

// NewConsensusEngine returns an engine using the default agreement
// threshold.
func NewConsensusEngine() *ConsensusEngine {
	return &ConsensusEngine{threshold: AgreementThreshold}
}

// Analyze computes the consensus across the given records, keyed by
// evaluator ID. Every record must be sealed. It returns
// ErrNoEvaluations when the record set is empty. A single record yields
// a degenerate analysis: its scores taken as consensus, full agreement,
// and no insights.
func (e *ConsensusEngine) Analyze(records map[string]*EvaluationRecord) (*ConsensusAnalysis, error) {
	if len(records) == 0 {
		return nil, ErrNoEvaluations
	}

	if len(records) == 1 {
		return e.single(records), nil
	}

	evaluators := sortedEvaluators(records)

	consensus := make(map[Criterion]float64, len(criteria))
	var disagreements []Disagreement
	var agreementSum float64

	for _, c := range criteria {
		scores := make([]float64, 0, len(evaluators))
		for _, name := range evaluators {
			scores = append(scores, float64(records[name].Scores[c]))
		}

		consensus[c] = median(scores)

		if spread := scoreRange(scores); spread > e.threshold {
			disagreements = append(disagreements, Disagreement{Criterion: c, Range: spread})
		}

		agreementSum += pairwiseAgreement(scores, e.threshold)
	}

	var overall float64
	for _, c := range criteria {
		overall += consensus[c]
	}
	overall /= float64(len(criteria))

	var confidence float64
	for _, name := range evaluators {
		confidence += records[name].Confidence
	}
	confidence /= float64(len(evaluators))

	analysis := &ConsensusAnalysis{
		ConsensusScores:  consensus,
		OverallConsensus: overall,
		AgreementLevel:   agreementSum / float64(len(criteria)),
		Disagreements:    disagreements,
		Outliers:         e.findOutliers(records, evaluators, consensus),
		ConfidenceLevel:  confidence,
	}
	analysis.Insights = GenerateInsights(consensus, disagreements)
	return analysis, nil
}

// single produces the degenerate analysis for a lone evaluator: its
// scores become the consensus verbatim and agreement is trivially full.
func (e *ConsensusEngine) single(records map[string]*EvaluationRecord) *ConsensusAnalysis {
	var rec *EvaluationRecord
	for _, r := range records {
		rec = r
	}

	consensus := make(map[Criterion]float64, len(rec.Scores))
	for c, s := range rec.Scores {
		consensus[c] = float64(s)
	}

	return &ConsensusAnalysis{
		ConsensusScores:  consensus,
		OverallConsensus: rec.OverallScore,
		AgreementLevel:   1.0,
		Disagreements:    nil,
		Outliers:         nil,
		ConfidenceLevel:  rec.Confidence,
		Insights:         nil,
	}
}

// findOutliers flags evaluators whose scores diverge from consensus
// beyond the threshold on more than half the criteria.
func (e *ConsensusEngine) findOutliers(
	records map[string]*EvaluationRecord,
	evaluators []string,
	consensus map[Criterion]float64,
) []string {
	var outliers []string
	for _, name := range evaluators {
		divergent := 0
		for _, c := range criteria {
			diff := float64(records[name].Scores[c]) - consensus[c]
			if diff < 0 {
				diff = -diff
			}
			if diff > e.threshold {
				divergent++
			}
		}
		if divergent > len(criteria)/2 {
			outliers = append(outliers, name)
		}
	}
	return outliers
}

// pairwiseAgreement averages the agreement metric over every evaluator
// pair for one criterion. Each pair contributes max(0, 1 - diff/threshold).
func pairwiseAgreement(scores []float64, threshold float64) float64 {
	if len(scores) < 2 {
		return 1.0
	}

	var sum float64
	var pairs int
	for i := 0; i < len(scores); i++ {
		for j := i + 1; j < len(scores); j++ {
			diff := scores[i] - scores[j]
			if diff < 0 {
				diff = -diff
			}
			agreement := 1.0 - diff/threshold
			if agreement < 0 {
				agreement = 0
			}
			sum += agreement
			pairs++
		}
	}
	return sum / float64(pairs)
}

// median returns the middle value of the scores, averaging the two
// central values for even-sized inputs. The input slice is not modified.
func median(scores []float64) float64 {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// scoreRange returns max minus min of the scores.
func scoreRange(scores []float64) float64 {
	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return max - min
}

func sortedEvaluators(records map[string]*EvaluationRecord) []string {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
