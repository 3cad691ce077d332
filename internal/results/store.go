// Package results persists conversations, evaluations, and session
// records as JSON files under a base directory, and exports evaluation
// data to CSV.
package results

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"charbench/internal/domain"
)

// ErrNotFound is returned when a requested conversation, evaluation,
// or session does not exist.
var ErrNotFound = errors.New("results: not found")

// Store lays out its base directory as conversations/, evaluations/,
// sessions/, and exports/. Conversation and evaluation writes are
// independent files and safe to issue concurrently; session updates
// are serialized internally.
type Store struct {
	baseDir          string
	conversationsDir string
	evaluationsDir   string
	sessionsDir      string
	exportsDir       string
	logger           *slog.Logger

	sessionMu sync.Mutex
}

// NewStore creates the directory layout under baseDir.
func NewStore(baseDir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		baseDir:          baseDir,
		conversationsDir: filepath.Join(baseDir, "conversations"),
		evaluationsDir:   filepath.Join(baseDir, "evaluations"),
		sessionsDir:      filepath.Join(baseDir, "sessions"),
		exportsDir:       filepath.Join(baseDir, "exports"),
		logger:           logger,
	}

	for _, dir := range []string{s.conversationsDir, s.evaluationsDir, s.sessionsDir, s.exportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating results directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// BaseDir returns the root of the results layout.
func (s *Store) BaseDir() string { return s.baseDir }

// ExportsDir returns the directory CSV exports are written to.
func (s *Store) ExportsDir() string { return s.exportsDir }

// StoredConversation is the persisted form of a transcript.
type StoredConversation struct {
	ConversationID string                 `json:"conversation_id"`
	CharacterID    string                 `json:"character_id"`
	ScenarioID     string                 `json:"scenario_id"`
	Provider       string                 `json:"provider"`
	Timestamp      time.Time              `json:"timestamp"`
	Messages       []domain.Message       `json:"messages"`
	Stats          domain.TranscriptStats `json:"stats"`
}

// StoredRecord is the persisted form of one judge's evaluation. The
// raw response is replaced by its length.
type StoredRecord struct {
	Evaluator                  string                      `json:"evaluator"`
	Scores                     map[domain.Criterion]int    `json:"scores"`
	Reasoning                  map[domain.Criterion]string `json:"reasoning"`
	OverallAssessment          string                      `json:"overall_assessment,omitempty"`
	KeyStrengths               []string                    `json:"key_strengths,omitempty"`
	KeyWeaknesses              []string                    `json:"key_weaknesses,omitempty"`
	ImprovementRecommendations []string                    `json:"improvement_recommendations,omitempty"`
	OverallScore               float64                     `json:"overall_score"`
	Confidence                 float64                     `json:"confidence"`
	RawResponseLength          int                         `json:"raw_response_length"`
	Provenance                 *domain.Provenance          `json:"provenance,omitempty"`
}

// StoredEvaluation bundles all judge records and the consensus for one
// conversation.
type StoredEvaluation struct {
	EvaluationID   string                    `json:"evaluation_id"`
	ConversationID string                    `json:"conversation_id"`
	Timestamp      time.Time                 `json:"timestamp"`
	Evaluations    map[string]StoredRecord   `json:"evaluations"`
	Consensus      *domain.ConsensusAnalysis `json:"consensus"`
	Meta           EvaluationMeta            `json:"meta"`
}

// EvaluationMeta summarizes the stored evaluation.
type EvaluationMeta struct {
	EvaluatorCount    int      `json:"evaluator_count"`
	CriteriaEvaluated []string `json:"criteria_evaluated"`
}

// SaveConversation persists a transcript and returns the file path.
func (s *Store) SaveConversation(t *domain.Transcript) (string, error) {
	stored := StoredConversation{
		ConversationID: t.ID,
		CharacterID:    t.CharacterID,
		ScenarioID:     t.ScenarioID,
		Provider:       t.Provider,
		Timestamp:      time.Now().UTC(),
		Messages:       t.Messages,
		Stats:          t.Stats(),
	}

	path := filepath.Join(s.conversationsDir, t.ID+".json")
	if err := writeJSON(path, stored); err != nil {
		return "", err
	}

	s.logger.Info("stored conversation",
		"conversation", t.ID,
		"character", t.CharacterID,
		"scenario", t.ScenarioID)
	return path, nil
}

// SaveEvaluation persists the judge records and consensus for a
// conversation and returns the file path.
func (s *Store) SaveEvaluation(
	conversationID string,
	records map[string]*domain.EvaluationRecord,
	consensus *domain.ConsensusAnalysis,
) (string, error) {
	evaluations := make(map[string]StoredRecord, len(records))
	for name, rec := range records {
		evaluations[name] = StoredRecord{
			Evaluator:                  rec.Evaluator,
			Scores:                     rec.Scores,
			Reasoning:                  rec.Reasoning,
			OverallAssessment:          rec.OverallAssessment,
			KeyStrengths:               rec.KeyStrengths,
			KeyWeaknesses:              rec.KeyWeaknesses,
			ImprovementRecommendations: rec.ImprovementRecommendations,
			OverallScore:               rec.OverallScore,
			Confidence:                 rec.Confidence,
			RawResponseLength:          len(rec.RawResponse),
			Provenance:                 rec.Provenance,
		}
	}

	criteriaEvaluated := make([]string, 0, len(consensus.ConsensusScores))
	for _, c := range domain.Criteria() {
		if _, ok := consensus.ConsensusScores[c]; ok {
			criteriaEvaluated = append(criteriaEvaluated, string(c))
		}
	}

	stored := StoredEvaluation{
		EvaluationID:   conversationID + "_eval",
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC(),
		Evaluations:    evaluations,
		Consensus:      consensus,
		Meta: EvaluationMeta{
			EvaluatorCount:    len(records),
			CriteriaEvaluated: criteriaEvaluated,
		},
	}

	path := filepath.Join(s.evaluationsDir, conversationID+"_eval.json")
	if err := writeJSON(path, stored); err != nil {
		return "", err
	}

	s.logger.Info("stored evaluation",
		"conversation", conversationID,
		"evaluators", len(records),
		"consensus", consensus.OverallConsensus)
	return path, nil
}

// LoadConversation loads a stored conversation by ID.
func (s *Store) LoadConversation(conversationID string) (*StoredConversation, error) {
	var stored StoredConversation
	if err := readJSON(filepath.Join(s.conversationsDir, conversationID+".json"), &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// LoadEvaluation loads stored evaluation results by conversation ID.
func (s *Store) LoadEvaluation(conversationID string) (*StoredEvaluation, error) {
	var stored StoredEvaluation
	if err := readJSON(filepath.Join(s.evaluationsDir, conversationID+"_eval.json"), &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Filter narrows ListConversations. Zero-value fields match anything.
type Filter struct {
	CharacterID string
	ScenarioID  string
	Provider    string
}

// ListConversations returns stored conversation IDs matching the
// filter, sorted alphabetically.
func (s *Store) ListConversations(filter Filter) ([]string, error) {
	entries, err := os.ReadDir(s.conversationsDir)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")

		if filter == (Filter{}) {
			ids = append(ids, id)
			continue
		}

		conv, err := s.LoadConversation(id)
		if err != nil {
			s.logger.Warn("skipping unreadable conversation", "conversation", id, "error", err)
			continue
		}
		if filter.CharacterID != "" && conv.CharacterID != filter.CharacterID {
			continue
		}
		if filter.ScenarioID != "" && conv.ScenarioID != filter.ScenarioID {
			continue
		}
		if filter.Provider != "" && conv.Provider != filter.Provider {
			continue
		}
		ids = append(ids, id)
	}

	sort.Strings(ids)
	return ids, nil
}

// ScoreStats summarizes a score series.
type ScoreStats struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"std_dev"`
}

// CharacterSummary aggregates a character's performance across all its
// evaluated conversations.
type CharacterSummary struct {
	CharacterID         string                          `json:"character_id"`
	ConversationCount   int                             `json:"conversation_count"`
	EvaluationCount     int                             `json:"evaluation_count"`
	ScenariosTested     []string                        `json:"scenarios_tested"`
	ProvidersUsed       []string                        `json:"providers_used"`
	Overall             ScoreStats                      `json:"overall"`
	CriteriaPerformance map[domain.Criterion]ScoreStats `json:"criteria_performance"`
	AverageAgreement    float64                         `json:"average_agreement"`
	CommonInsights      []string                        `json:"common_insights"`
}

// Summarize computes the performance summary for a character. It
// returns ErrNotFound when the character has no evaluated
// conversations.
func (s *Store) Summarize(characterID string) (*CharacterSummary, error) {
	ids, err := s.ListConversations(Filter{CharacterID: characterID})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no conversations for character %s", ErrNotFound, characterID)
	}

	summary := &CharacterSummary{
		CharacterID:         characterID,
		ConversationCount:   len(ids),
		CriteriaPerformance: make(map[domain.Criterion]ScoreStats),
	}

	scenarioSet := make(map[string]struct{})
	providerSet := make(map[string]struct{})
	insightSet := make(map[string]struct{})
	var overallScores, agreements []float64
	criterionScores := make(map[domain.Criterion][]float64)

	for _, id := range ids {
		eval, err := s.LoadEvaluation(id)
		if err != nil {
			continue
		}
		conv, err := s.LoadConversation(id)
		if err == nil {
			scenarioSet[conv.ScenarioID] = struct{}{}
			providerSet[conv.Provider] = struct{}{}
		}

		summary.EvaluationCount++
		overallScores = append(overallScores, eval.Consensus.OverallConsensus)
		agreements = append(agreements, eval.Consensus.AgreementLevel)
		for c, score := range eval.Consensus.ConsensusScores {
			criterionScores[c] = append(criterionScores[c], score)
		}
		for _, insight := range eval.Consensus.Insights {
			insightSet[insight] = struct{}{}
		}
	}

	if summary.EvaluationCount == 0 {
		return nil, fmt.Errorf("%w: no evaluations for character %s", ErrNotFound, characterID)
	}

	summary.ScenariosTested = sortedKeys(scenarioSet)
	summary.ProvidersUsed = sortedKeys(providerSet)
	summary.CommonInsights = sortedKeys(insightSet)
	summary.Overall = computeStats(overallScores)
	summary.AverageAgreement = mean(agreements)
	for c, scores := range criterionScores {
		summary.CriteriaPerformance[c] = computeStats(scores)
	}
	return summary, nil
}

// ExportCSV writes one row per evaluated conversation to a CSV file in
// the exports directory and returns its path. Conversations without
// evaluations are skipped.
func (s *Store) ExportCSV(filename string) (string, error) {
	ids, err := s.ListConversations(Filter{})
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: no conversations to export", ErrNotFound)
	}

	path := filepath.Join(s.exportsDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"conversation_id", "character_id", "scenario_id", "provider",
		"timestamp", "message_count", "overall_consensus",
		"agreement_level", "confidence_level",
	}
	for _, c := range domain.Criteria() {
		header = append(header, "score_"+string(c))
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing CSV header: %w", err)
	}

	exported := 0
	for _, id := range ids {
		conv, err := s.LoadConversation(id)
		if err != nil {
			continue
		}
		eval, err := s.LoadEvaluation(id)
		if err != nil {
			continue
		}

		row := []string{
			id,
			conv.CharacterID,
			conv.ScenarioID,
			conv.Provider,
			conv.Timestamp.Format(time.RFC3339),
			strconv.Itoa(conv.Stats.MessageCount),
			formatFloat(eval.Consensus.OverallConsensus),
			formatFloat(eval.Consensus.AgreementLevel),
			formatFloat(eval.Consensus.ConfidenceLevel),
		}
		for _, c := range domain.Criteria() {
			row = append(row, formatFloat(eval.Consensus.ConsensusScores[c]))
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing CSV row: %w", err)
		}
		exported++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing CSV: %w", err)
	}

	s.logger.Info("exported evaluations", "path", path, "rows", exported)
	return path, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func computeStats(values []float64) ScoreStats {
	if len(values) == 0 {
		return ScoreStats{}
	}
	stats := ScoreStats{Average: mean(values), Min: values[0], Max: values[0]}
	for _, v := range values[1:] {
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.StdDev = stdDev(values, stats.Average)
	return stats
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the sample standard deviation, zero for fewer than two
// values.
func stdDev(values []float64, avg float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
