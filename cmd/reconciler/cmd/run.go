package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"accounting-reconciliation-service/cmd/reconciler/config"
	"accounting-reconciliation-service/internal/recon"
	"accounting-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the run command
var (
	dataDir          string
	domains          []string
	asOfDate         string
	startDate        string
	endDate          string
	outputFormat     string
	outputFile       string
	outlierThreshold float64
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run period-end reconciliations over a data directory",
	Long: `Run executes the selected reconciliation domains against the CSV
datasets in the data directory. Every domain loads its subledger and general
ledger files, matches them on their natural keys, and reports unmatched
items, anomalies, and balance differences.

The data directory must contain the standard dataset files for each selected
domain (for example accounts_receivable.csv and gl_accounts_receivable.csv).
File names can be overridden per dataset in the config file under the
"files" section.

Examples:
  # Reconcile everything for a quarter
  reconciler run --data-dir ./close/2024-q1 --as-of 2024-03-31

  # Only bank and inventory, JSON output to a file
  reconciler run --data-dir ./data --domains bank,inventory \
    --output-format json --output-file report.json

  # Export unmatched entries for spreadsheet follow-up
  reconciler run --data-dir ./data --output-format csv --output-file unmatched.csv

  # Custom period and a stricter outlier threshold
  reconciler run --data-dir ./data --as-of 2024-03-31 \
    --start-date 2024-01-01 --end-date 2024-03-31 --outlier-threshold 2.5`,

	PreRunE: validateRunFlags,
	RunE:    runReconciliation,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Required flags
	runCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "", "directory containing the dataset CSV files (required)")

	// Domain selection
	runCmd.Flags().StringSliceVar(&domains, "domains", nil,
		fmt.Sprintf("comma-separated domains to reconcile (default: all of %s)", strings.Join(recon.AllDomains, ",")))

	// Period flags
	runCmd.Flags().StringVar(&asOfDate, "as-of", "", "reporting date (YYYY-MM-DD, default: today)")
	runCmd.Flags().StringVar(&startDate, "start-date", "", "period start (YYYY-MM-DD, default: quarter before as-of)")
	runCmd.Flags().StringVar(&endDate, "end-date", "", "period end (YYYY-MM-DD, default: as-of)")

	// Output flags
	runCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	runCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Analysis flags
	runCmd.Flags().Float64Var(&outlierThreshold, "outlier-threshold", recon.DefaultOutlierThreshold,
		"z-score threshold for amount outlier detection")
	runCmd.Flags().Bool("progress", false, "log progress after every domain")

	runCmd.MarkFlagRequired("data-dir")

	// Bind flags to viper
	viper.BindPFlag("data-dir", runCmd.Flags().Lookup("data-dir"))
	viper.BindPFlag("domains", runCmd.Flags().Lookup("domains"))
	viper.BindPFlag("as-of", runCmd.Flags().Lookup("as-of"))
	viper.BindPFlag("start-date", runCmd.Flags().Lookup("start-date"))
	viper.BindPFlag("end-date", runCmd.Flags().Lookup("end-date"))
	viper.BindPFlag("output-format", runCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", runCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("outlier-threshold", runCmd.Flags().Lookup("outlier-threshold"))
	viper.BindPFlag("progress", runCmd.Flags().Lookup("progress"))
}

func validateRunFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	dataDir = viper.GetString("data-dir")
	domains = viper.GetStringSlice("domains")
	asOfDate = viper.GetString("as-of")
	startDate = viper.GetString("start-date")
	endDate = viper.GetString("end-date")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	outlierThreshold = viper.GetFloat64("outlier-threshold")

	if dataDir == "" {
		return fmt.Errorf("data-dir is required")
	}
	info, err := os.Stat(dataDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("data directory does not exist: %s", dataDir)
	}
	if err != nil {
		return fmt.Errorf("error accessing data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data-dir is not a directory: %s", dataDir)
	}

	// Validate domain names
	known := make(map[string]bool, len(recon.AllDomains))
	for _, domain := range recon.AllDomains {
		known[domain] = true
	}
	for _, domain := range domains {
		if !known[domain] {
			return fmt.Errorf("unknown domain '%s'. Valid domains: %s",
				domain, strings.Join(recon.AllDomains, ", "))
		}
	}

	// Validate output format
	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	// Validate dates
	for flag, value := range map[string]string{
		"as-of":      asOfDate,
		"start-date": startDate,
		"end-date":   endDate,
	} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return fmt.Errorf("invalid %s format. Use YYYY-MM-DD: %w", flag, err)
		}
	}
	if startDate != "" && endDate != "" {
		start, _ := time.Parse("2006-01-02", startDate)
		end, _ := time.Parse("2006-01-02", endDate)
		if start.After(end) {
			return fmt.Errorf("start date cannot be after end date")
		}
	}

	// Validate outlier threshold
	if outlierThreshold <= 0 {
		return fmt.Errorf("outlier threshold must be positive")
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func runReconciliation(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	opts, err := config.CreateOptions(asOfDate, startDate, endDate, outlierThreshold)
	if err != nil {
		return fmt.Errorf("failed to build run options: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Data directory: %s\n", dataDir)
		fmt.Fprintf(os.Stderr, "As of: %s, period: %s to %s\n",
			opts.AsOf.Format("2006-01-02"),
			opts.StartDate.Format("2006-01-02"),
			opts.EndDate.Format("2006-01-02"))
		if len(domains) > 0 {
			fmt.Fprintf(os.Stderr, "Domains: %s\n", strings.Join(domains, ", "))
		}
	}

	runner := recon.NewRunner(dataDir, config.CreateRunnerFiles(), opts)
	if viper.GetBool("progress") {
		runner.EnableProgress()
	}
	results, err := runner.Run(ctx, domains)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	reportGenerator, err := reporter.NewReportGenerator(config.CreateReportConfig(outputFormat))
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportGenerator.GenerateReport(results, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		reconciled := 0
		for _, result := range results {
			if result.IsReconciled() {
				reconciled++
			}
		}
		fmt.Fprintf(os.Stderr, "\nReconciliation completed: %d of %d domains reconciled.\n",
			reconciled, len(results))
	}

	return nil
}
