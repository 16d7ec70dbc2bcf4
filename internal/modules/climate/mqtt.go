package climate

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"surfsup-server/internal/modules/climate/types"
)

// Publisher sends a JSON document to the dataset topic.
type Publisher interface {
	PublishJSON(ctx context.Context, v any) error
}

// SummaryProvider builds the dataset summary.
type SummaryProvider interface {
	Summary(ctx context.Context) (types.DatasetSummary, error)
}

// AnnounceDataset publishes the dataset summary stamped with the current time.
func AnnounceDataset(ctx context.Context, publisher Publisher, summaries SummaryProvider, clock clockwork.Clock, logger *slog.Logger) error {
	summary, err := summaries.Summary(ctx)
	if err != nil {
		logger.Error("dataset announcement: summary failed", "error", err)
		return err
	}
	summary.PublishedAt = clock.Now().UTC()

	if err := publisher.PublishJSON(ctx, summary); err != nil {
		logger.Error("dataset announcement: publish failed", "error", err)
		return err
	}

	logger.Debug("dataset announced",
		"oldest_date", summary.OldestDate,
		"latest_date", summary.LatestDate,
		"stations", summary.StationCount,
	)
	return nil
}
