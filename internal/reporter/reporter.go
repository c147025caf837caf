// Package reporter renders reconciliation results for people and machines.
//
// Three output formats are supported: console text for terminal review, JSON
// for programmatic consumption, and CSV listing the unmatched entries of
// every domain for spreadsheet follow-up.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"accounting-reconciliation-service/internal/recon"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid reports whether the format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:       FormatConsole,
		CSVDelimiter: ',',
		CSVHeaders:   true,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// DomainStatus is one line of the report summary.
type DomainStatus struct {
	Domain     string `json:"domain"`
	Reconciled bool   `json:"reconciled"`
}

// ReportSummary totals the per-domain outcomes.
type ReportSummary struct {
	TotalDomains      int            `json:"total_domains"`
	ReconciledDomains int            `json:"reconciled_domains"`
	Domains           []DomainStatus `json:"domains"`
}

func buildSummary(results []recon.Result) ReportSummary {
	summary := ReportSummary{TotalDomains: len(results)}
	for _, result := range results {
		status := DomainStatus{Domain: result.Domain(), Reconciled: result.IsReconciled()}
		if status.Reconciled {
			summary.ReconciledDomains++
		}
		summary.Domains = append(summary.Domains, status)
	}
	return summary
}

// ReportGenerator renders reconciliation results in the configured format.
type ReportGenerator struct {
	config *ReportConfig
	now    func() time.Time
}

// NewReportGenerator creates a report generator with the given configuration.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config, now: time.Now}, nil
}

// GenerateReport renders the results to the writer in the configured format.
func (rg *ReportGenerator) GenerateReport(results []recon.Result, writer io.Writer) error {
	if len(results) == 0 {
		return fmt.Errorf("no reconciliation results to report")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(results, writer)
	case FormatJSON:
		return rg.generateJSONReport(results, writer)
	case FormatCSV:
		return rg.generateCSVReport(results, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(results []recon.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "RECONCILIATION REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n\n", rg.now().Format(time.RFC3339))

	summary := buildSummary(results)
	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "Domains reconciled: %d of %d\n", summary.ReconciledDomains, summary.TotalDomains)
	for _, status := range summary.Domains {
		marker := "FAIL"
		if status.Reconciled {
			marker = "OK"
		}
		fmt.Fprintf(writer, "  %-22s %s\n", status.Domain, marker)
	}
	fmt.Fprintln(writer)

	for _, result := range results {
		result.WriteText(writer)
		fmt.Fprintln(writer)
	}
	return nil
}

func (rg *ReportGenerator) generateJSONReport(results []recon.Result, writer io.Writer) error {
	byDomain := make(map[string]recon.Result, len(results))
	for _, result := range results {
		byDomain[result.Domain()] = result
	}

	output := map[string]interface{}{
		"generated_at": rg.now().Format(time.RFC3339),
		"summary":      buildSummary(results),
		"results":      byDomain,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
