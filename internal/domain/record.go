package domain

import (
	"fmt"
	"time"
)

// TokenUsage captures the token accounting reported by a provider for a
// single judge call.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Total returns the combined input and output token count.
func (u TokenUsage) Total() int { return u.Input + u.Output }

// Provenance describes where an evaluation record came from: the model
// and provider that produced it, the latency and token cost of the call,
// and any reasoning or thinking content the model emitted alongside its
// answer. All fields are optional.
type Provenance struct {
	Provider         string        `json:"provider,omitempty"`
	Model            string        `json:"model,omitempty"`
	ResponseTime     time.Duration `json:"response_time,omitempty"`
	Usage            TokenUsage    `json:"usage,omitempty"`
	ReasoningContent string        `json:"reasoning_content,omitempty"`
	ThinkingContent  string        `json:"thinking_content,omitempty"`
}

// EvaluationRecord is one judge's normalized verdict on a conversation:
// a score and reasoning per criterion plus the optional qualitative
// fields the judge chose to include. OverallScore and Confidence are
// derived; call Seal after populating the record to compute them.
type EvaluationRecord struct {
	// Evaluator identifies the judge that produced this record,
	// for example "claude" or "deepseek".
	Evaluator string `json:"evaluator"`

	// Scores holds one score per criterion. All six criteria must be
	// present for the record to seal. Values outside the documented
	// 1-10 range are preserved as reported.
	Scores map[Criterion]int `json:"scores"`

	// Reasoning holds the judge's per-criterion justification. Entries
	// may be missing; completeness only affects Confidence.
	Reasoning map[Criterion]string `json:"reasoning"`

	OverallAssessment          string   `json:"overall_assessment,omitempty"`
	KeyStrengths               []string `json:"key_strengths,omitempty"`
	KeyWeaknesses              []string `json:"key_weaknesses,omitempty"`
	ImprovementRecommendations []string `json:"improvement_recommendations,omitempty"`

	// OverallScore is the mean of the six criterion scores.
	OverallScore float64 `json:"overall_score"`

	// Confidence is a completeness heuristic in [0.5, 1.0] reflecting
	// how much supporting detail the judge provided.
	Confidence float64 `json:"confidence"`

	// RawResponse is the judge's unprocessed output, kept for debugging.
	// Persistence replaces it with its length.
	RawResponse string `json:"-"`

	Provenance *Provenance `json:"provenance,omitempty"`
}

// Confidence heuristic thresholds. Longer per-criterion reasoning and
// populated qualitative lists each raise confidence above the base.
const (
	baseConfidence          = 0.5
	reasoningDetailedChars  = 100
	reasoningAdequateChars  = 50
	reasoningDetailedBonus  = 0.2
	reasoningAdequateBonus  = 0.1
	qualitativeSectionBonus = 0.1
	maxConfidence           = 1.0
)

// Seal validates that the record covers the full criterion set and
// computes the derived OverallScore and Confidence fields. It returns
// an error naming the first missing criterion in canonical order.
func (r *EvaluationRecord) Seal() error {
	for _, c := range criteria {
		if _, ok := r.Scores[c]; !ok {
			return fmt.Errorf("%w: %s", ErrIncompleteRecord, c)
		}
	}

	var sum float64
	for _, c := range criteria {
		sum += float64(r.Scores[c])
	}
	r.OverallScore = sum / float64(len(criteria))
	r.Confidence = r.computeConfidence()
	return nil
}

// computeConfidence scores the record's completeness: base 0.5, a bonus
// for reasoning depth, and a bonus per non-empty qualitative section.
func (r *EvaluationRecord) computeConfidence() float64 {
	confidence := baseConfidence

	if len(r.Reasoning) > 0 {
		var total int
		for _, text := range r.Reasoning {
			total += len(text)
		}
		avg := float64(total) / float64(len(r.Reasoning))
		switch {
		case avg > reasoningDetailedChars:
			confidence += reasoningDetailedBonus
		case avg > reasoningAdequateChars:
			confidence += reasoningAdequateBonus
		}
	}

	if len(r.KeyStrengths) > 0 {
		confidence += qualitativeSectionBonus
	}
	if len(r.KeyWeaknesses) > 0 {
		confidence += qualitativeSectionBonus
	}
	if len(r.ImprovementRecommendations) > 0 {
		confidence += qualitativeSectionBonus
	}

	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return confidence
}
