package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/config"
	"github.com/penwyp/go-cloud-cost-explorer/internal/server"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"github.com/spf13/cobra"
)

var (
	serveHost    string
	servePort    int
	serveDataDir string
	serveIngest  bool
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve billing exports over the cost API",
	Long: `Serves the billing exports in a data directory (aws_*, azure_* and gcp_* CSV or
JSON files) over the cost API consumed by the http source:

  GET /api/v1/costs               all providers, sorted by date
  GET /api/v1/costs/aws|azure|gcp one provider
  GET /api/v1/info                service description
  GET /healthz                    liveness
  GET /metrics                    prometheus metrics
  POST /api/v1/ingestion          pull AWS costs into the data directory
                                  (with --ingestion)

The cost routes accept provider (unified route only), service, region,
account_id, start_date and end_date, and answer 404 when nothing matches.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1",
		"Address to listen on")
	serveCmd.Flags().IntVar(&servePort, "port", 8000,
		"Port to listen on")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "",
		"Directory holding the billing exports")
	serveCmd.Flags().BoolVar(&serveIngest, "ingestion", false,
		"Enable POST /api/v1/ingestion using AWS Cost Explorer credentials")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Serving cost API on http://%s\n", srv.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}

// newServer builds the server from the config and any changed serve flags
func newServer(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*server.Server, error) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("data-dir") {
		cfg.Server.DataDir = serveDataDir
	}
	if flags.Changed("ingestion") {
		cfg.Server.Ingestion = serveIngest
	}

	opts := []server.Option{
		server.WithHost(cfg.Server.Host),
		server.WithPort(cfg.Server.Port),
	}
	if cfg.Server.Ingestion {
		in, err := newAWSIngester(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to enable ingestion: %w", err)
		}
		opts = append(opts, server.WithIngester(in))
	}
	return server.New(util.ExpandPath(cfg.Server.DataDir), opts...), nil
}
