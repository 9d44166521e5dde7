package main

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doi-enrich/internal/csvio"
	"github.com/pdiddy/doi-enrich/internal/enrich"
	"github.com/pdiddy/doi-enrich/internal/store"
	"github.com/pdiddy/doi-enrich/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultSleep     = 1 * time.Second
	defaultRetries   = 3
	defaultBackoff   = 100 * time.Millisecond
	defaultUserAgent = "doi-enrich/0.1"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fetch metadata and/or resolve URLs for each DOI in a CSV",
	Long: `Enrich reads the input CSV (header row with a doi column required), runs
the enabled operations for each row, and appends one result row per DOI to the
output CSV as it goes. At least one of --retrieve or --resolve is required.

The --sleep pause between rows applies only when no API key is set;
authenticated requests are assumed to have higher quota.`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringP("input", "i", "", "path to input CSV file (required)")
	enrichCmd.Flags().StringP("output", "o", "", "path to output CSV file (required)")
	enrichCmd.Flags().StringP("apikey", "k", "", "CrossRef Plus API token (default: .secrets/crossref-plus-api-token)")
	enrichCmd.Flags().StringP("user-agent", "u", "", "User-Agent string sent with requests")
	enrichCmd.Flags().IntP("sample-size", "s", 0, "process only a random sample of this many rows")
	enrichCmd.Flags().Bool("retrieve", false, "fetch CrossRef metadata for each DOI")
	enrichCmd.Flags().Bool("resolve", false, "resolve each DOI to its landing-page URL")
	enrichCmd.Flags().Duration("sleep", defaultSleep, "pause between rows (skipped when an API key is set)")
	enrichCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	enrichCmd.Flags().Int("max-retries", defaultRetries, "retries after a transient HTTP failure")
	enrichCmd.Flags().Duration("backoff", defaultBackoff, "base delay for exponential retry backoff")
	enrichCmd.Flags().String("db", "", "also record results in a SQLite database at this path")
	enrichCmd.Flags().String("manifest", "", "write a YAML run summary to this path")

	enrichCmd.MarkFlagRequired("input")
	enrichCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	retrieve, _ := cmd.Flags().GetBool("retrieve")
	resolve, _ := cmd.Flags().GetBool("resolve")
	if !retrieve && !resolve {
		return fmt.Errorf("at least one of --retrieve or --resolve must be specified")
	}

	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	apiKey, _ := cmd.Flags().GetString("apikey")
	userAgent, _ := cmd.Flags().GetString("user-agent")
	sampleSize, _ := cmd.Flags().GetInt("sample-size")
	sleep, _ := cmd.Flags().GetDuration("sleep")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	backoff, _ := cmd.Flags().GetDuration("backoff")
	dbPath, _ := cmd.Flags().GetString("db")
	manifestPath, _ := cmd.Flags().GetString("manifest")

	if userAgent == "" {
		userAgent = viper.GetString("user_agent")
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if !cmd.Flags().Changed("sleep") && viper.IsSet("sleep") {
		sleep = viper.GetDuration("sleep")
	}

	cfg := types.EnrichConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: userAgent,
		},
		Retrieve:       retrieve,
		Resolve:        resolve,
		APIKey:         secretDefault("crossref-plus-api-token", apiKey),
		RequestDelay:   sleep,
		SampleSize:     sampleSize,
		MaxRetries:     maxRetries,
		RetryBaseDelay: backoff,
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	rows, err := csvio.ReadRows(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}
	rows = enrich.Sample(rows, cfg.SampleSize, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer out.Close()

	writer, err := csvio.NewWriter(out, cfg.Retrieve, cfg.Resolve)
	if err != nil {
		return err
	}
	sinks := []enrich.RowSink{writer}

	if dbPath != "" {
		db, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	result, err := enrich.Run(cmd.Context(), client, rows, cfg, sinks, os.Stdout)
	if err != nil {
		return err
	}

	if manifestPath != "" {
		if err := enrich.WriteRunFile(manifestPath, cfg, result); err != nil {
			return err
		}
	}
	return nil
}
