package results

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charbench/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), testLogger)
	require.NoError(t, err)
	return s
}

func testTranscript(id, characterID, scenarioID, provider string) *domain.Transcript {
	tr := &domain.Transcript{
		ID:          id,
		CharacterID: characterID,
		ScenarioID:  scenarioID,
		Provider:    provider,
	}
	tr.Append(domain.RoleUser, "Hello there.")
	tr.Append(domain.RoleAssistant, "*Luna inclines her head.* \"Welcome.\"")
	return tr
}

func testRecord(evaluator string, score int) *domain.EvaluationRecord {
	rec := &domain.EvaluationRecord{
		Evaluator:    evaluator,
		Scores:       make(map[domain.Criterion]int),
		Reasoning:    make(map[domain.Criterion]string),
		KeyStrengths: []string{"voice"},
		RawResponse:  "{... raw judge output ...}",
	}
	for _, c := range domain.Criteria() {
		rec.Scores[c] = score
		rec.Reasoning[c] = "Concise justification grounded in the transcript text."
	}
	if err := rec.Seal(); err != nil {
		panic(err)
	}
	return rec
}

func storeEvaluated(t *testing.T, s *Store, id, characterID, scenarioID, provider string, score int) {
	t.Helper()
	_, err := s.SaveConversation(testTranscript(id, characterID, scenarioID, provider))
	require.NoError(t, err)

	records := map[string]*domain.EvaluationRecord{"deepseek": testRecord("deepseek", score)}
	consensus, err := domain.NewConsensusEngine().Analyze(records)
	require.NoError(t, err)

	_, err = s.SaveEvaluation(id, records, consensus)
	require.NoError(t, err)
}

func TestNewStoreCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	_, err := NewStore(dir, testLogger)
	require.NoError(t, err)

	for _, sub := range []string{"conversations", "evaluations", "sessions", "exports"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSaveAndLoadConversation(t *testing.T) {
	s := newTestStore(t)
	tr := testTranscript("conv-1", "luna", "seeking_guidance", "claude")

	path, err := s.SaveConversation(tr)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := s.LoadConversation("conv-1")
	require.NoError(t, err)
	assert.Equal(t, "luna", loaded.CharacterID)
	assert.Equal(t, "seeking_guidance", loaded.ScenarioID)
	assert.Equal(t, "claude", loaded.Provider)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, domain.RoleUser, loaded.Messages[0].Role)
	assert.Equal(t, 2, loaded.Stats.MessageCount)
	assert.Equal(t, 1, loaded.Stats.UserMessages)
}

func TestLoadConversationNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LoadConversation("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAndLoadEvaluation(t *testing.T) {
	s := newTestStore(t)
	records := map[string]*domain.EvaluationRecord{
		"deepseek": testRecord("deepseek", 8),
		"claude":   testRecord("claude", 7),
	}
	consensus, err := domain.NewConsensusEngine().Analyze(records)
	require.NoError(t, err)

	path, err := s.SaveEvaluation("conv-1", records, consensus)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := s.LoadEvaluation("conv-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1_eval", loaded.EvaluationID)
	assert.Equal(t, 2, loaded.Meta.EvaluatorCount)
	assert.Len(t, loaded.Meta.CriteriaEvaluated, 6)

	// Raw responses persist only as a length.
	stored := loaded.Evaluations["deepseek"]
	assert.Equal(t, len("{... raw judge output ...}"), stored.RawResponseLength)
	assert.Equal(t, 8, stored.Scores[domain.CriterionCharacterImmersion])
	assert.InDelta(t, 7.5, loaded.Consensus.ConsensusScores[domain.CriterionStoryProgression], 0.001)
}

func TestListConversationsFilters(t *testing.T) {
	s := newTestStore(t)
	storeEvaluated(t, s, "a", "luna", "seeking_guidance", "claude", 8)
	storeEvaluated(t, s, "b", "luna", "crisis_response", "gpt", 6)
	storeEvaluated(t, s, "c", "marcus", "seeking_guidance", "claude", 7)

	all, err := s.ListConversations(Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, all)

	luna, err := s.ListConversations(Filter{CharacterID: "luna"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, luna)

	guidance, err := s.ListConversations(Filter{ScenarioID: "seeking_guidance"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, guidance)

	combined, err := s.ListConversations(Filter{CharacterID: "luna", Provider: "gpt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, combined)
}

func TestSummarize(t *testing.T) {
	s := newTestStore(t)
	storeEvaluated(t, s, "a", "luna", "seeking_guidance", "claude", 8)
	storeEvaluated(t, s, "b", "luna", "crisis_response", "gpt", 6)

	summary, err := s.Summarize("luna")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ConversationCount)
	assert.Equal(t, 2, summary.EvaluationCount)
	assert.Equal(t, []string{"crisis_response", "seeking_guidance"}, summary.ScenariosTested)
	assert.Equal(t, []string{"claude", "gpt"}, summary.ProvidersUsed)

	assert.InDelta(t, 7.0, summary.Overall.Average, 0.001)
	assert.InDelta(t, 6.0, summary.Overall.Min, 0.001)
	assert.InDelta(t, 8.0, summary.Overall.Max, 0.001)
	// Sample standard deviation of {6, 8}.
	assert.InDelta(t, 1.4142, summary.Overall.StdDev, 0.001)

	immersion := summary.CriteriaPerformance[domain.CriterionCharacterImmersion]
	assert.InDelta(t, 7.0, immersion.Average, 0.001)
	assert.InDelta(t, 1.0, summary.AverageAgreement, 0.001)
}

func TestSummarizeNoConversations(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Summarize("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportCSV(t *testing.T) {
	s := newTestStore(t)
	storeEvaluated(t, s, "a", "luna", "seeking_guidance", "claude", 8)
	storeEvaluated(t, s, "b", "marcus", "crisis_response", "gpt", 6)

	// A conversation without an evaluation is skipped.
	_, err := s.SaveConversation(testTranscript("c", "luna", "emotional_support", "claude"))
	require.NoError(t, err)

	path, err := s.ExportCSV("results.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.ExportsDir(), "results.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"conversation_id", "character_id", "scenario_id", "provider",
		"timestamp", "message_count", "overall_consensus",
		"agreement_level", "confidence_level",
		"score_character_immersion", "score_story_progression",
		"score_interactive_agency", "score_emotional_journey",
		"score_fantasy_fulfillment", "score_character_authenticity",
	}, rows[0])

	assert.Equal(t, "a", rows[1][0])
	assert.Equal(t, "luna", rows[1][1])
	assert.Equal(t, "2", rows[1][5])
	score, err := strconv.ParseFloat(rows[1][6], 64)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, score, 0.001)
}

func TestExportCSVEmpty(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ExportCSV("empty.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)

	session, err := s.StartSession("run-1", "smoke run", SessionParameters{
		Characters: []string{"luna"},
		Scenarios:  []string{"seeking_guidance"},
		Provider:   "claude",
		Workers:    4,
	})
	require.NoError(t, err)
	assert.Equal(t, SessionActive, session.Status)

	require.NoError(t, s.CompleteSession("run-1", &SessionSummary{
		TotalEvaluations:      1,
		SuccessfulEvaluations: 1,
		AverageScore:          8.0,
	}))

	loaded, err := s.LoadSession("run-1")
	require.NoError(t, err)
	assert.Equal(t, SessionCompleted, loaded.Status)
	require.NotNil(t, loaded.Completed)
	require.NotNil(t, loaded.Summary)
	assert.Equal(t, 1, loaded.Summary.SuccessfulEvaluations)
}

func TestStartSessionGeneratesID(t *testing.T) {
	s := newTestStore(t)
	session, err := s.StartSession("", "auto", SessionParameters{})
	require.NoError(t, err)
	assert.Contains(t, session.ID, "eval_")
}

func TestListSessions(t *testing.T) {
	s := newTestStore(t)
	_, err := s.StartSession("older", "first", SessionParameters{})
	require.NoError(t, err)
	_, err = s.StartSession("newer", "second", SessionParameters{})
	require.NoError(t, err)

	sessions, err := s.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.False(t, sessions[0].Created.Before(sessions[1].Created))
}

func TestCompleteSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.CompleteSession("missing", &SessionSummary{})
	assert.ErrorIs(t, err, ErrNotFound)
}
