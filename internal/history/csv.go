// Package history loads prior-period corrected merchant records from CSV
// files laid out in period-named directories:
//
//	<root>/2025-01/expenses.csv
//	<root>/2025-01/income.csv
//	<root>/2025-02/expenses.csv
//
// Each file needs a header row with "description" and "merchant" columns.
// Malformed rows are skipped and counted, never fatal.
package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/halcyonfi/namewise/internal/service"
)

var periodDir = regexp.MustCompile(`^\d{4}-\d{2}$`)

// CSVSource reads historical records from a directory tree of period CSVs.
type CSVSource struct {
	root string

	mu      sync.Mutex
	defects int
}

// NewCSVSource creates a source rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{root: dir}
}

// Records walks the period directories in lexical order and returns every
// well-formed record. The defect counter is reset on each call.
func (s *CSVSource) Records(ctx context.Context) ([]service.HistoryRecord, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read history root: %w", err)
	}

	s.mu.Lock()
	s.defects = 0
	s.mu.Unlock()

	var periods []string
	for _, entry := range entries {
		if entry.IsDir() && periodDir.MatchString(entry.Name()) {
			periods = append(periods, entry.Name())
		}
	}
	sort.Strings(periods)

	var records []service.HistoryRecord
	for _, period := range periods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		files, err := filepath.Glob(filepath.Join(s.root, period, "*.csv"))
		if err != nil {
			return nil, fmt.Errorf("failed to list period %s: %w", period, err)
		}
		sort.Strings(files)

		for _, file := range files {
			fileRecords, defects, err := s.readFile(file, period)
			if err != nil {
				return nil, err
			}
			records = append(records, fileRecords...)
			s.addDefects(defects)
		}
	}

	return records, nil
}

// Defects returns the number of malformed rows skipped by the last Records
// call.
func (s *CSVSource) Defects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defects
}

func (s *CSVSource) addDefects(n int) {
	if n == 0 {
		return
	}
	s.mu.Lock()
	s.defects += n
	s.mu.Unlock()
}

// readFile parses one CSV file, returning its records and malformed-row
// count.
func (s *CSVSource) readFile(path, period string) ([]service.HistoryRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	descIdx, nameIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "description":
			descIdx = i
		case "merchant", "canonical_name", "name":
			nameIdx = i
		}
	}
	if descIdx < 0 || nameIdx < 0 {
		slog.Warn("history file missing required columns, skipping",
			"file", path)
		return nil, 1, nil
	}

	var records []service.HistoryRecord
	defects := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Quoting errors affect a single row.
			defects++
			continue
		}

		if len(row) <= descIdx || len(row) <= nameIdx {
			defects++
			continue
		}
		description := strings.TrimSpace(row[descIdx])
		name := strings.TrimSpace(row[nameIdx])
		if description == "" || name == "" {
			defects++
			continue
		}

		records = append(records, service.HistoryRecord{
			RawKey:        description,
			CanonicalName: name,
			PeriodKey:     period,
		})
	}

	return records, defects, nil
}
