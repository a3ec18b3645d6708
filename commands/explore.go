package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/application/explore"
	"github.com/penwyp/go-cloud-cost-explorer/internal/config"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
	"github.com/penwyp/go-cloud-cost-explorer/internal/presentation/display"
	"github.com/spf13/cobra"
)

var (
	exploreRefreshPerSecond float64
	exploreWatch            bool
	exploreMinWait          time.Duration
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse cost records interactively",
	Long: `Shows the filtered cost records of one view in the terminal, together with the
summary, a per-service breakdown and the shareable query of the current filters.

Records are revealed in batches: scrolling to the end of the revealed table
reveals the next batch. Filter changes that the source applies itself trigger
a refetch; when several fetches overlap only the last one started is shown.
File sources are watched and refetched when an export changes.

Press 'h' inside the explorer for the key bindings.`,
	SilenceUsage: true,
	RunE:         runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)

	exploreCmd.Flags().Float64Var(&exploreRefreshPerSecond, "refresh-per-second", 1.0,
		"Display refresh rate (0.1-20 Hz)")
	exploreCmd.Flags().BoolVar(&exploreWatch, "watch", true,
		"Refetch file sources when an export changes")
	exploreCmd.Flags().DurationVar(&exploreMinWait, "min-wait", 2*time.Second,
		"Minimum time between refetches triggered by file changes")
}

func runExplore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exploreConfig, err := buildExploreConfig(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := source.Open(ctx, exploreConfig.Source, exploreConfig.Capabilities)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	orchestrator, err := explore.NewOrchestrator(exploreConfig, src, display.NewTerminalDisplay())
	if err != nil {
		return err
	}
	return orchestrator.Run(ctx)
}

// buildExploreConfig merges the explore flags into the loaded configuration
func buildExploreConfig(cmd *cobra.Command, cfg *config.Config) (*explore.ExploreConfig, error) {
	flags := cmd.Flags()
	if flags.Changed("refresh-per-second") {
		cfg.Explore.UIRefreshRate = exploreRefreshPerSecond
	}
	if flags.Changed("watch") {
		cfg.Explore.Watch = exploreWatch
	}
	if flags.Changed("min-wait") {
		cfg.Explore.RefreshMinWait = exploreMinWait
	}

	if cfg.Explore.UIRefreshRate < 0.1 || cfg.Explore.UIRefreshRate > 20 {
		return nil, fmt.Errorf("refresh-per-second must be between 0.1 and 20")
	}

	caps, err := cfg.Capabilities()
	if err != nil {
		return nil, err
	}

	exploreConfig := &explore.ExploreConfig{
		Capabilities:   caps,
		Source:         cfg.SourceSpec(),
		Query:          cfg.View.Query,
		BatchSize:      cfg.View.BatchSize,
		UIRefreshRate:  cfg.Explore.UIRefreshRate,
		Watch:          cfg.Explore.Watch,
		RefreshMinWait: cfg.Explore.RefreshMinWait,
	}
	if err := exploreConfig.Validate(); err != nil {
		return nil, err
	}
	return exploreConfig, nil
}
