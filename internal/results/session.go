package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SessionStatus tracks a session's lifecycle.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// SessionParameters records what a session was asked to evaluate.
type SessionParameters struct {
	Characters []string `json:"characters"`
	Scenarios  []string `json:"scenarios"`
	Provider   string   `json:"provider"`
	Judges     []string `json:"judges,omitempty"`
	Workers    int      `json:"workers"`
}

// SessionSummary aggregates a finished session's outcomes.
type SessionSummary struct {
	TotalEvaluations      int           `json:"total_evaluations"`
	SuccessfulEvaluations int           `json:"successful_evaluations"`
	FailedEvaluations     int           `json:"failed_evaluations"`
	AverageScore          float64       `json:"average_score"`
	TotalTime             time.Duration `json:"total_time"`
	AverageTime           time.Duration `json:"average_time_per_evaluation"`
}

// Session groups the conversations and evaluations of one batch run.
type Session struct {
	ID          string            `json:"session_id"`
	Description string            `json:"description"`
	Parameters  SessionParameters `json:"parameters"`
	Status      SessionStatus     `json:"status"`
	Created     time.Time         `json:"created"`
	Completed   *time.Time        `json:"completed,omitempty"`
	Summary     *SessionSummary   `json:"summary,omitempty"`
}

// StartSession creates and persists a new active session. An empty id
// gets an eval_<timestamp> identifier.
func (s *Store) StartSession(id, description string, params SessionParameters) (*Session, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if id == "" {
		id = "eval_" + time.Now().Format("20060102_150405")
	}

	session := &Session{
		ID:          id,
		Description: description,
		Parameters:  params,
		Status:      SessionActive,
		Created:     time.Now().UTC(),
	}
	if err := writeJSON(s.sessionPath(id), session); err != nil {
		return nil, err
	}

	s.logger.Info("started session", "session", id, "description", description)
	return session, nil
}

// CompleteSession marks a session completed and attaches its summary.
func (s *Store) CompleteSession(id string, summary *SessionSummary) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	var session Session
	if err := readJSON(s.sessionPath(id), &session); err != nil {
		return err
	}

	session.Status = SessionCompleted
	now := time.Now().UTC()
	session.Completed = &now
	session.Summary = summary
	if err := writeJSON(s.sessionPath(id), &session); err != nil {
		return err
	}

	s.logger.Info("completed session",
		"session", id,
		"evaluations", summary.TotalEvaluations,
		"successful", summary.SuccessfulEvaluations)
	return nil
}

// LoadSession loads a session by ID.
func (s *Store) LoadSession(id string) (*Session, error) {
	var session Session
	if err := readJSON(s.sessionPath(id), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns all stored sessions, newest first.
func (s *Store) ListSessions() ([]*Session, error) {
	entries, err := readDirJSON(s.sessionsDir)
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(entries))
	for _, name := range entries {
		var session Session
		if err := readJSON(filepath.Join(s.sessionsDir, name), &session); err != nil {
			s.logger.Warn("skipping unreadable session", "file", name, "error", err)
			continue
		}
		sessions = append(sessions, &session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Created.After(sessions[j].Created)
	})
	return sessions, nil
}

func (s *Store) sessionPath(id string) string {
	return filepath.Join(s.sessionsDir, id+".json")
}

func readDirJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
