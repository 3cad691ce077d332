package evaluation

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"charbench/internal/domain"
)

// suggestionDistance is the maximum edit distance between a misspelled
// score key and a criterion name for the key to be suggested in a
// parse error.
const suggestionDistance = 2

// ParseError reports why a judge response could not be normalized into
// an evaluation record.
type ParseError struct {
	// Evaluator is the judge whose response failed to parse.
	Evaluator string

	// Reason is a short human-readable description of the failure.
	Reason string

	// MissingCriteria lists required criteria absent from the scores
	// section, in canonical order.
	MissingCriteria []domain.Criterion

	// Suggestions maps missing criterion names to near-miss keys that
	// were present in the response, for diagnosing model misspellings.
	Suggestions map[domain.Criterion]string

	// Err is the underlying error, if any.
	Err error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parsing %s evaluation: %s", e.Evaluator, e.Reason)
	if len(e.MissingCriteria) > 0 {
		names := make([]string, len(e.MissingCriteria))
		for i, c := range e.MissingCriteria {
			names[i] = string(c)
		}
		msg += ": missing " + strings.Join(names, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResponseHook rewrites a raw judge response before JSON extraction.
// Hooks are registered per judge to repair provider-specific quirks.
type ResponseHook func(raw string) string

// rawEvaluation mirrors the JSON structure judges are instructed to
// return. Scores arrive as float64 to tolerate models that emit "8.0".
type rawEvaluation struct {
	Scores                     map[string]float64 `json:"scores"`
	Reasoning                  map[string]string  `json:"reasoning"`
	OverallAssessment          string             `json:"overall_assessment"`
	KeyStrengths               []string           `json:"key_strengths"`
	KeyWeaknesses              []string           `json:"key_weaknesses"`
	ImprovementRecommendations []string           `json:"improvement_recommendations"`
}

// Normalizer converts raw judge output into sealed evaluation records.
type Normalizer struct {
	hooks map[string]ResponseHook
}

// NewNormalizer creates a normalizer with no per-judge hooks.
func NewNormalizer() *Normalizer {
	return &Normalizer{hooks: make(map[string]ResponseHook)}
}

// RegisterHook installs a response hook for the named judge, replacing
// any existing hook.
func (n *Normalizer) RegisterHook(evaluator string, hook ResponseHook) {
	n.hooks[evaluator] = hook
}

// Normalize parses a raw judge response into a sealed evaluation
// record. The raw response is preserved on the record for debugging.
func (n *Normalizer) Normalize(evaluator, raw string) (*domain.EvaluationRecord, error) {
	if hook, ok := n.hooks[evaluator]; ok {
		raw = hook(raw)
	}

	jsonContent := extractJSON(raw)
	if jsonContent == "" {
		return nil, &ParseError{Evaluator: evaluator, Reason: "no JSON object found in response"}
	}

	var parsed rawEvaluation
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		repaired := repairTruncatedJSON(jsonContent)
		if repairErr := json.Unmarshal([]byte(repaired), &parsed); repairErr != nil {
			return nil, &ParseError{Evaluator: evaluator, Reason: "invalid JSON", Err: err}
		}
	}

	if parsed.Scores == nil || parsed.Reasoning == nil {
		return nil, &ParseError{Evaluator: evaluator, Reason: "missing scores or reasoning section"}
	}

	if missing := missingCriteria(parsed.Scores); len(missing) > 0 {
		return nil, &ParseError{
			Evaluator:       evaluator,
			Reason:          "incomplete scores",
			MissingCriteria: missing,
			Suggestions:     suggestKeys(missing, parsed.Scores),
		}
	}

	record := &domain.EvaluationRecord{
		Evaluator:                  evaluator,
		Scores:                     make(map[domain.Criterion]int, len(parsed.Scores)),
		Reasoning:                  make(map[domain.Criterion]string, len(parsed.Reasoning)),
		OverallAssessment:          parsed.OverallAssessment,
		KeyStrengths:               parsed.KeyStrengths,
		KeyWeaknesses:              parsed.KeyWeaknesses,
		ImprovementRecommendations: parsed.ImprovementRecommendations,
		RawResponse:                raw,
	}
	for key, score := range parsed.Scores {
		criterion := domain.Criterion(key)
		if !criterion.Valid() {
			continue
		}
		record.Scores[criterion] = int(math.Round(score))
	}
	for key, reasoning := range parsed.Reasoning {
		criterion := domain.Criterion(key)
		if !criterion.Valid() {
			continue
		}
		record.Reasoning[criterion] = reasoning
	}

	if err := record.Seal(); err != nil {
		return nil, &ParseError{Evaluator: evaluator, Reason: "incomplete record", Err: err}
	}
	return record, nil
}

// extractJSON pulls the JSON object out of a model response, trying a
// ```json fence, then a generic fence, then brace matching over the
// whole response.
func extractJSON(response string) string {
	if start := strings.Index(response, "```json"); start != -1 {
		content := response[start+len("```json"):]
		if end := strings.Index(content, "```"); end != -1 {
			return strings.TrimSpace(content[:end])
		}
	}

	if start := strings.Index(response, "```"); start != -1 {
		content := response[start+len("```"):]
		if end := strings.Index(content, "```"); end != -1 {
			candidate := strings.TrimSpace(content[:end])
			// Drop a language identifier line if present.
			if idx := strings.Index(candidate, "\n"); idx != -1 && !strings.HasPrefix(candidate, "{") {
				candidate = strings.TrimSpace(candidate[idx+1:])
			}
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		ch := response[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '{':
			depth++
		case !inString && ch == '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}

	// Unbalanced braces: return the fragment so truncation repair can
	// have a go at it.
	return response[start:]
}

// repairTruncatedJSON patches a JSON fragment that was cut off
// mid-stream: it trims a dangling partial member after the last
// complete value and closes any unbalanced braces.
func repairTruncatedJSON(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || !strings.HasPrefix(fragment, "{") {
		return fragment
	}

	depth := 0
	inString := false
	escaped := false
	lastComplete := -1
	for i := 0; i < len(fragment); i++ {
		ch := fragment[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '{':
			depth++
		case !inString && ch == '}':
			depth--
			if depth == 0 {
				return fragment[:i+1]
			}
			lastComplete = i
		case !inString && ch == ',':
			lastComplete = i - 1
		}
	}

	if lastComplete == -1 {
		// Nothing safely recoverable; just close what is open.
		return fragment + strings.Repeat("}", max(depth, 0))
	}

	repaired := strings.TrimRight(fragment[:lastComplete+1], ", \n\t")
	depth = 0
	inString = false
	escaped = false
	for i := 0; i < len(repaired); i++ {
		ch := repaired[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '{':
			depth++
		case !inString && ch == '}':
			depth--
		}
	}
	return repaired + strings.Repeat("}", max(depth, 0))
}

func missingCriteria(scores map[string]float64) []domain.Criterion {
	var missing []domain.Criterion
	for _, criterion := range domain.Criteria() {
		if _, ok := scores[string(criterion)]; !ok {
			missing = append(missing, criterion)
		}
	}
	return missing
}

// suggestKeys matches each missing criterion against the keys that
// were present, surfacing likely misspellings.
func suggestKeys(missing []domain.Criterion, scores map[string]float64) map[domain.Criterion]string {
	present := make([]string, 0, len(scores))
	for key := range scores {
		if !domain.Criterion(key).Valid() {
			present = append(present, key)
		}
	}
	sort.Strings(present)

	suggestions := make(map[domain.Criterion]string)
	for _, criterion := range missing {
		for _, key := range present {
			if levenshtein.ComputeDistance(string(criterion), key) <= suggestionDistance {
				suggestions[criterion] = key
				break
			}
		}
	}
	return suggestions
}
