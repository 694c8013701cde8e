package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonfi/namewise/internal/common"
)

func writeTransactionsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTransactions(t *testing.T) {
	path := writeTransactionsFile(t,
		"date,description,amount\n"+
			"2025-06-03,NETFLIX.COM,15.49\n"+
			"06/14/2025,CUB FOODS #1598 MOORHEAD MN,82.11\n")

	txs, defects, err := LoadTransactions(path, "")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Zero(t, defects)

	assert.Equal(t, "NETFLIX.COM", txs[0].Description)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), txs[0].Date)
	assert.InDelta(t, 15.49, txs[0].Amount, 1e-9)
	assert.Equal(t, "2025-06", txs[0].PeriodKey)

	assert.Equal(t, "2025-06", txs[1].PeriodKey, "slash dates parse too")
}

func TestLoadTransactions_ExplicitPeriodOverridesDates(t *testing.T) {
	path := writeTransactionsFile(t,
		"date,description,amount\n"+
			"2025-05-30,NETFLIX.COM,15.49\n")

	txs, _, err := LoadTransactions(path, "2025-06")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "2025-06", txs[0].PeriodKey)
}

func TestLoadTransactions_MalformedRows(t *testing.T) {
	path := writeTransactionsFile(t,
		"date,description,amount\n"+
			"2025-06-03,,15.49\n"+ // empty description
			"not-a-date,ACME,9.99\n"+ // unparseable date, no period to derive
			"2025-06-04,STEAM PURCHASE,29.99\n")

	txs, defects, err := LoadTransactions(path, "")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "STEAM PURCHASE", txs[0].Description)
	assert.Equal(t, 2, defects)
}

func TestLoadTransactions_NoDescriptionColumn(t *testing.T) {
	path := writeTransactionsFile(t, "a,b\n1,2\n")

	_, _, err := LoadTransactions(path, "")
	assert.Error(t, err)
}

func TestLoadTransactions_MissingFile(t *testing.T) {
	_, _, err := LoadTransactions(filepath.Join(t.TempDir(), "nope.csv"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
