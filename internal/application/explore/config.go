package explore

import (
	"fmt"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
)

// ExploreConfig contains configuration for the explore command
type ExploreConfig struct {
	Capabilities model.Capabilities
	Source       source.Spec

	// Initial criteria as a shareable query string
	Query     string
	BatchSize int

	// Refresh settings
	UIRefreshRate  float64
	Watch          bool
	RefreshMinWait time.Duration
}

// Validate fills defaults and rejects unusable settings
func (c *ExploreConfig) Validate() error {
	if c.Capabilities.Profile == "" {
		caps, err := model.CapabilitiesFor(model.ProfileUnified)
		if err != nil {
			return err
		}
		c.Capabilities = caps
	}
	if c.Source.Kind == "" {
		return fmt.Errorf("source kind is required")
	}
	if c.BatchSize <= 0 {
		c.BatchSize = model.DefaultBatchSize
	}
	if c.UIRefreshRate <= 0 {
		c.UIRefreshRate = 1.0
	}
	if c.RefreshMinWait <= 0 {
		c.RefreshMinWait = 2 * time.Second
	}
	if c.Watch && c.Source.Kind != source.KindFile {
		c.Watch = false
	}
	return nil
}
