package collector

import (
	"fmt"

	"github.com/qepting91/reddit-grid/internal/config"
	"github.com/qepting91/reddit-grid/internal/domain"
)

// NewCollector selects the correct implementation based on the mode.
func NewCollector(cfg config.CollectorConfig) (domain.Collector, error) {
	switch cfg.Mode {
	case config.ModeAPI:
		return NewAPIClient(
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Username,
			cfg.Password,
			cfg.UserAgent,
			cfg.Timeout,
			cfg.MinInterval,
		)
	case config.ModePublic, "":
		if cfg.UserAgent == "" {
			return nil, fmt.Errorf("REDDIT_USER_AGENT is required for public mode")
		}
		return NewPublicClient(cfg.BaseURL, cfg.UserAgent, cfg.Timeout, cfg.MinInterval), nil
	case config.ModeMock:
		return NewMockClient(cfg.MockListingPath), nil
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'api', 'public', or 'mock')", cfg.Mode)
	}
}
