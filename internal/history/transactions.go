package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/halcyonfi/namewise/internal/common"
	"github.com/halcyonfi/namewise/internal/model"
)

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006"}

// LoadTransactions reads raw statement lines from a CSV file with date,
// description, and amount columns. When periodKey is empty, each
// transaction's period is derived from its date (YYYY-MM). Malformed rows
// are skipped; the second return is their count.
func LoadTransactions(path, periodKey string) ([]model.RawTransaction, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: transactions file %s", common.ErrNotFound, path)
		}
		return nil, 0, fmt.Errorf("failed to open transactions file: %w", err)
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
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}

	dateIdx, descIdx, amountIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "date":
			dateIdx = i
		case "description":
			descIdx = i
		case "amount":
			amountIdx = i
		}
	}
	if descIdx < 0 {
		return nil, 0, fmt.Errorf("transactions file %s has no description column", path)
	}

	var txs []model.RawTransaction
	defects := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			defects++
			continue
		}
		if len(row) <= descIdx {
			defects++
			continue
		}

		description := strings.TrimSpace(row[descIdx])
		if description == "" {
			defects++
			continue
		}

		tx := model.RawTransaction{
			Description: description,
			PeriodKey:   periodKey,
		}

		if dateIdx >= 0 && len(row) > dateIdx {
			tx.Date = parseDate(row[dateIdx])
		}
		if amountIdx >= 0 && len(row) > amountIdx {
			if amount, err := strconv.ParseFloat(strings.TrimSpace(row[amountIdx]), 64); err == nil {
				tx.Amount = amount
			}
		}

		if tx.PeriodKey == "" {
			if tx.Date.IsZero() {
				defects++
				continue
			}
			tx.PeriodKey = tx.Date.Format("2006-01")
		}

		txs = append(txs, tx)
	}

	return txs, defects, nil
}

func parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
