package reporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"accounting-reconciliation-service/internal/models"
	"accounting-reconciliation-service/internal/recon"
)

// Sides of an unmatched entry in the CSV export.
const (
	SideSubledger = "subledger"
	SideGL        = "gl"
)

var exportHeaders = []string{"domain", "side", "id", "date", "amount", "type", "description", "party"}

// UnmatchedRow is one unmatched ledger entry in the CSV export.
type UnmatchedRow struct {
	Domain string
	Side   string
	Entry  models.LedgerEntry
}

// generateCSVReport writes the unmatched entries of every ledger-shaped
// domain. Domains without ledger-shaped unmatched entries are skipped.
func (rg *ReportGenerator) generateCSVReport(results []recon.Result, writer io.Writer) error {
	var rows []UnmatchedRow
	for _, result := range results {
		provider, ok := result.(recon.UnmatchedProvider)
		if !ok {
			continue
		}
		subledger, gl := provider.UnmatchedEntries()
		for _, entry := range subledger {
			rows = append(rows, UnmatchedRow{Domain: result.Domain(), Side: SideSubledger, Entry: entry})
		}
		for _, entry := range gl {
			rows = append(rows, UnmatchedRow{Domain: result.Domain(), Side: SideGL, Entry: entry})
		}
	}
	return rg.WriteUnmatchedCSV(rows, writer)
}

// WriteUnmatchedCSV writes unmatched rows as CSV.
func (rg *ReportGenerator) WriteUnmatchedCSV(rows []UnmatchedRow, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(exportHeaders); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, row := range rows {
		record := []string{
			row.Domain,
			row.Side,
			row.Entry.ID,
			row.Entry.Date.Format("2006-01-02"),
			row.Entry.Amount.String(),
			row.Entry.Type,
			row.Entry.Description,
			row.Entry.Party,
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write unmatched entry record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// ReadUnmatchedCSV reads rows previously written by WriteUnmatchedCSV. The
// first row must be the header.
func ReadUnmatchedCSV(reader io.Reader) ([]UnmatchedRow, error) {
	csvReader := csv.NewReader(reader)

	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) != len(exportHeaders) {
		return nil, fmt.Errorf("unexpected CSV header count: got %d, want %d", len(headers), len(exportHeaders))
	}

	var rows []UnmatchedRow
	line := 1
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++

		entry := models.LedgerEntry{
			ID:          record[2],
			Type:        record[5],
			Description: record[6],
			Party:       record[7],
		}
		entry.Date, err = models.ParseDateWithFormats(record[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entry.Amount, err = models.ParseDecimalFromString(record[4])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rows = append(rows, UnmatchedRow{Domain: record[0], Side: record[1], Entry: entry})
	}
	return rows, nil
}
