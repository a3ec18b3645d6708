package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/penwyp/go-cloud-cost-explorer/internal/analyzer"
	"github.com/penwyp/go-cloud-cost-explorer/internal/config"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Configuration and data source
	configFile  string
	profile     string
	sourceKind  string
	sourceURL   string
	sourceFiles []string
	batchSize   int

	// Filtering
	queryString string
	provider    string
	service     string
	region      string
	account     string
	startDate   string
	endDate     string

	// Output related
	outputFormat string
	groupBy      string
	series       string
	limit        int

	rootCmd = &cobra.Command{
		Use:   "cost-explorer [flags]",
		Short: "Cloud cost record explorer",
		Long: `cost-explorer fetches billing records for AWS, Azure and GCP, filters them and
reports totals, grouped sums and trends.

Records come from the cost API (--source http), local billing exports
(--source file) or AWS Cost Explorer (--source aws). Filters can be given as a
shareable query string, as produced at the end of every table report, and
individual filter flags override the query.

Examples:
  cost-explorer                                          # All providers from the cost API
  cost-explorer --file ./exports                         # Read aws_*/azure_*/gcp_* exports
  cost-explorer --query "provider=AWS&start_date=2025-01-01"
  cost-explorer --profile aws --service AmazonEC2 -o csv
  cost-explorer --group-by service --output summary
  cost-explorer --group-by date --output chart           # Daily stacked chart by provider
  cost-explorer --limit 2                                # First two batches of records`,
		SilenceUsage: true,
		RunE:         runReport,
	}
)

const defaultLogFile = "~/.go-cloud-cost-explorer/logs/app.log"

func init() {
	// Configuration and source
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "unified",
		"View profile (unified, aws, azure, gcp)")
	rootCmd.PersistentFlags().StringVar(&sourceKind, "source", "http",
		"Record source (http, file, aws)")
	rootCmd.PersistentFlags().StringVar(&sourceURL, "url", "",
		"Cost API base URL")
	rootCmd.PersistentFlags().StringSliceVar(&sourceFiles, "file", nil,
		"Billing export file or directory (repeatable, implies --source file)")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", model.DefaultBatchSize,
		"Records revealed per batch")

	// Filters
	rootCmd.PersistentFlags().StringVarP(&queryString, "query", "q", "",
		"Shareable query string, e.g. provider=AWS&service=AmazonEC2")
	rootCmd.Flags().StringVar(&provider, "provider", "",
		"Provider filter (AWS, Azure, GCP)")
	rootCmd.Flags().StringVar(&service, "service", "",
		"Service filter")
	rootCmd.Flags().StringVar(&region, "region", "",
		"Region filter")
	rootCmd.Flags().StringVar(&account, "account", "",
		"Account ID filter")
	rootCmd.Flags().StringVar(&startDate, "start-date", "",
		"First day to include (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&endDate, "end-date", "",
		"Last day to include (YYYY-MM-DD)")

	// Output
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv, summary, chart)")
	rootCmd.Flags().StringVar(&groupBy, "group-by", "",
		"Group by dimension or composite (service, provider, region, account, usage_type, date, service,provider)")
	rootCmd.Flags().StringVar(&series, "series", "",
		"Secondary dimension for chart series (default provider on the unified view)")
	rootCmd.Flags().IntVar(&limit, "limit", 0,
		"Batches of records to show (0 = all)")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	overrides, err := filterOverrides()
	if err != nil {
		return err
	}

	caps, err := cfg.Capabilities()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := source.Open(ctx, cfg.SourceSpec(), caps)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	a, err := analyzer.New(&analyzer.Config{
		Capabilities: caps,
		Query:        cfg.View.Query,
		Overrides:    overrides,
		OutputFormat: outputFormat,
		GroupBy:      groupBy,
		Series:       series,
		Limit:        limit,
		BatchSize:    cfg.View.BatchSize,
	}, src)
	if err != nil {
		return err
	}
	return a.Run(ctx, cmd.OutOrStdout())
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// loadConfig layers changed flags over the config file and environment,
// then starts logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := initLogging(cfg); err != nil {
		return nil, err
	}
	util.LogDebug("Configuration loaded",
		util.F("profile", cfg.Profile),
		util.F("source", cfg.Source.Kind),
		util.F("batch_size", cfg.View.BatchSize))
	return cfg, nil
}

// applyFlags copies explicitly set persistent flags into cfg
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("profile") {
		cfg.Profile = strings.ToLower(profile)
	}
	if flags.Changed("url") {
		cfg.Source.URL = sourceURL
		cfg.Source.Kind = string(source.KindHTTP)
	}
	if flags.Changed("file") {
		cfg.Source.Paths = sourceFiles
		cfg.Source.Kind = string(source.KindFile)
	}
	if flags.Changed("source") {
		cfg.Source.Kind = strings.ToLower(sourceKind)
	}
	if flags.Changed("batch-size") {
		cfg.View.BatchSize = batchSize
	}
	if flags.Changed("query") {
		cfg.View.Query = queryString
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
}

// filterOverrides parses the individual filter flags. Unlike a query
// string, a malformed flag is an error.
func filterOverrides() (model.FilterCriteria, error) {
	c := model.FilterCriteria{
		Service:   strings.TrimSpace(service),
		Region:    strings.TrimSpace(region),
		AccountID: strings.TrimSpace(account),
	}
	if provider != "" {
		p, ok := model.ParseProvider(provider)
		if !ok {
			return c, fmt.Errorf("unknown provider %q", provider)
		}
		c.Provider = p
	}
	if startDate != "" {
		d, err := model.ParseDate(startDate)
		if err != nil {
			return c, fmt.Errorf("invalid --start-date: %w", err)
		}
		c.StartDate = d
	}
	if endDate != "" {
		d, err := model.ParseDate(endDate)
		if err != nil {
			return c, fmt.Errorf("invalid --end-date: %w", err)
		}
		c.EndDate = d
	}
	return c, nil
}

func initLogging(cfg *config.Config) error {
	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = defaultLogFile
	}
	logFile = util.ExpandPath(logFile)
	if err := util.EnsureDir(filepath.Dir(logFile)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return util.InitLogger(cfg.Logging.Level, logFile, debug, util.LogFormat(cfg.Logging.Format))
}
