package coverage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run records one analysis of a repository branch.
type Run struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Repo      string    `json:"repo"`
	Branch    string    `json:"branch"`
	Total     int       `json:"total"`
	Tested    int       `json:"tested"`
	CreatedAt time.Time `json:"created_at"`
}

// RunStore persists analysis runs so the dashboard can chart coverage over
// time.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a run store.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Record saves the outcome of one analysis and returns its id.
func (s *RunStore) Record(owner, repo, branch string, report *Report) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO analysis_runs (id, owner, repo, branch, total_libs, tested_libs)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, owner, repo, branch, report.Total, report.Tested)
	if err != nil {
		return "", fmt.Errorf("failed to record analysis run: %w", err)
	}
	return id, nil
}

// History returns the most recent runs for a repository, newest first.
func (s *RunStore) History(owner, repo string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, owner, repo, branch, total_libs, tested_libs, created_at
		FROM analysis_runs
		WHERE owner = ? AND repo = ?
		ORDER BY created_at DESC, id
		LIMIT ?`, owner, repo, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &run.Owner, &run.Repo, &run.Branch,
			&run.Total, &run.Tested, &createdAt); err != nil {
			return nil, err
		}
		run.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
