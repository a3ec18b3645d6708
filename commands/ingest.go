package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/penwyp/go-cloud-cost-explorer/internal/config"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
	"github.com/penwyp/go-cloud-cost-explorer/internal/ingestion"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"github.com/spf13/cobra"
)

var (
	ingestStart   string
	ingestEnd     string
	ingestDataDir string
)

// newCostExplorerClient is swapped in tests
var newCostExplorerClient = func(ctx context.Context) (source.CostExplorerAPI, error) {
	return source.NewCostExplorerClient(ctx)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Pull AWS costs into the data directory",
	Long: `Fetches daily unblended cost per service from AWS Cost Explorer for an
inclusive date range and stores it as aws_<year>.csv in the data directory,
where serve and the file source read it. Rows already stored for the range
are replaced; rows outside it are kept.`,
	Example: `  cost-explorer ingest --start 2025-01-01 --end 2025-06-30
  cost-explorer ingest --start 2025-06-01 --end 2025-06-30 --data-dir ./exports`,
	SilenceUsage: true,
	RunE:         runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestStart, "start", "",
		"First day to ingest (YYYY-MM-DD)")
	ingestCmd.Flags().StringVar(&ingestEnd, "end", "",
		"Last day to ingest (YYYY-MM-DD)")
	ingestCmd.Flags().StringVar(&ingestDataDir, "data-dir", "",
		"Directory to write exports to (defaults to the server data directory)")
	_ = ingestCmd.MarkFlagRequired("start")
	_ = ingestCmd.MarkFlagRequired("end")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var req ingestion.Request
	if req.Start, err = model.ParseDate(ingestStart); err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	if req.End, err = model.ParseDate(ingestEnd); err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.Server.DataDir = ingestDataDir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := newAWSIngester(ctx, cfg)
	if err != nil {
		return err
	}
	res, err := in.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d %s cost records (%d dropped)\n", res.Count, res.Provider, res.Dropped)
	for _, f := range res.Files {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
	}
	return nil
}

// newAWSIngester wires Cost Explorer to the configured data directory
func newAWSIngester(ctx context.Context, cfg *config.Config) (*ingestion.Ingester, error) {
	client, err := newCostExplorerClient(ctx)
	if err != nil {
		return nil, err
	}
	src := source.NewAWSSource(client, cfg.Source.AWSGroupBy, cfg.Source.Timeout)
	return ingestion.New(src, model.ProviderAWS, util.ExpandPath(cfg.Server.DataDir))
}
