package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/tabwatch/tabwatch/internal/config"
	"github.com/tabwatch/tabwatch/internal/store"
)

// openGateway dials the store the tracking service persists into. The
// CLI reads and writes the same keys directly, so anything it changes
// while the service is running may be overwritten on the next save.
func openGateway(ctx context.Context) (*store.RedisGateway, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	gateway, err := store.NewRedisGateway(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}
	return gateway, nil
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
