// Package history persists per-account point tallies between runs.
package history

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"go.uber.org/zap"
)

const (
	csvSuffix          = "_points_history.csv"
	previousPointsFile = "previous_points.json"
)

// Record is one row of an account's points history file.
type Record struct {
	Date   string `csv:"Date"`
	Points int64  `csv:"Earned Points"`
	Delta  int64  `csv:"Points Difference"`
}

// Store writes history files under a single directory, one CSV per account
// plus a shared snapshot of each account's last known balance.
type Store struct {
	logger *zap.Logger
	dir    string
}

func NewStore(logger *zap.Logger, dir string) *Store {
	return &Store{logger: logger.Named("history"), dir: dir}
}

// Append adds one row to the account's history CSV, creating the file with a
// header row on first use.
func (s *Store) Append(account string, rec Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	path := filepath.Join(s.dir, account+csvSuffix)
	exists := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		exists = false
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	enc.AutoHeader = !exists
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("writing history row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// PreviousPoints loads the balance snapshot from the last run. A missing file
// is a first run, not an error.
func (s *Store) PreviousPoints() (map[string]int64, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, previousPointsFile))
	if os.IsNotExist(err) {
		return map[string]int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading previous points: %w", err)
	}
	points := map[string]int64{}
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("decoding previous points: %w", err)
	}
	return points, nil
}

func (s *Store) SavePreviousPoints(points map[string]int64) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	raw, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding previous points: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, previousPointsFile), raw, 0o644)
}
