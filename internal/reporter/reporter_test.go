package reporter

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"accounting-reconciliation-service/internal/models"
	"accounting-reconciliation-service/internal/recon"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResults(t *testing.T) []recon.Result {
	t.Helper()

	date, err := time.Parse("2006-01-02", "2024-01-01")
	require.NoError(t, err)
	opts := recon.DefaultOptions(date.AddDate(0, 3, 0))

	schedule := []models.LedgerEntry{
		{ID: "PRE-1", Date: date, Amount: decimal.NewFromInt(1200)},
		{ID: "PRE-2", Date: date, Amount: decimal.NewFromInt(600), Description: "Annual license", Party: "VEND-1"},
	}
	gl := []models.LedgerEntry{
		{ID: "PRE-1", Date: date, Amount: decimal.NewFromInt(1200)},
		{ID: "PRE-3", Date: date, Amount: decimal.NewFromInt(300)},
	}

	return []recon.Result{recon.ReconcilePrepaid(schedule, gl, opts)}
}

func TestGenerateConsoleReport(t *testing.T) {
	generator, err := NewReportGenerator(DefaultReportConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReport(testResults(t), &buf))

	output := buf.String()
	assert.Contains(t, output, "RECONCILIATION REPORT")
	assert.Contains(t, output, "Domains reconciled: 0 of 1")
	assert.Contains(t, output, "prepaid_expenses")
	assert.Contains(t, output, "=== Prepaid Expense Reconciliation ===")
}

func TestGenerateJSONReport(t *testing.T) {
	generator, err := NewReportGenerator(&ReportConfig{Format: FormatJSON})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReport(testResults(t), &buf))

	var report struct {
		GeneratedAt string                     `json:"generated_at"`
		Summary     ReportSummary              `json:"summary"`
		Results     map[string]json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))

	assert.NotEmpty(t, report.GeneratedAt)
	assert.Equal(t, 1, report.Summary.TotalDomains)
	assert.Equal(t, 0, report.Summary.ReconciledDomains)
	assert.Contains(t, report.Results, "prepaid_expenses")
}

func TestCSVExportRoundTrip(t *testing.T) {
	generator, err := NewReportGenerator(&ReportConfig{
		Format:       FormatCSV,
		CSVDelimiter: ',',
		CSVHeaders:   true,
	})
	require.NoError(t, err)

	results := testResults(t)
	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReport(results, &buf))

	rows, err := ReadUnmatchedCSV(&buf)
	require.NoError(t, err)

	provider := results[0].(recon.UnmatchedProvider)
	subledger, gl := provider.UnmatchedEntries()
	require.Len(t, rows, len(subledger)+len(gl))

	bySide := map[string][]models.LedgerEntry{}
	for _, row := range rows {
		assert.Equal(t, "prepaid_expenses", row.Domain)
		bySide[row.Side] = append(bySide[row.Side], row.Entry)
	}

	require.Len(t, bySide[SideSubledger], 1)
	original := subledger[0]
	restored := bySide[SideSubledger][0]
	assert.Equal(t, original.ID, restored.ID)
	assert.True(t, original.Amount.Equal(restored.Amount))
	assert.True(t, original.Date.Equal(restored.Date))
	assert.Equal(t, original.Description, restored.Description)
	assert.Equal(t, original.Party, restored.Party)

	require.Len(t, bySide[SideGL], 1)
	assert.Equal(t, "PRE-3", bySide[SideGL][0].ID)
}

func TestInvalidFormat(t *testing.T) {
	_, err := NewReportGenerator(&ReportConfig{Format: "xml"})
	assert.Error(t, err)
}

func TestEmptyResults(t *testing.T) {
	generator, err := NewReportGenerator(DefaultReportConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, generator.GenerateReport(nil, &buf))
}
