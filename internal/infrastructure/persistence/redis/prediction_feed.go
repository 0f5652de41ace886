package redis

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainservice "github.com/sentrasec/sentra/internal/domain/service"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/logger"
)

// predictionFeed propagates prediction change markers over Redis pub/sub.
// Markers carry only the changed row's identifier; subscribers re-read the
// database, which stays the single source of truth. Pub/sub delivery is
// at-most-once and that is acceptable here: a missed marker delays a
// dashboard refresh, it never loses data.
type predictionFeed struct {
	client *redis.Client
	logger logger.Logger
}

// NewPredictionFeed creates the pub/sub backed prediction change feed.
func NewPredictionFeed(client *redis.Client, log logger.Logger) domainservice.PredictionFeed {
	return &predictionFeed{client: client, logger: log}
}

func (f *predictionFeed) NotifyChanged(ctx context.Context, predictionID uuid.UUID) error {
	if err := f.client.Publish(ctx, constants.PredictionChangeChannel, predictionID.String()).Err(); err != nil {
		f.logger.Warn(ctx, "Failed to publish prediction change marker",
			logger.String("prediction_id", predictionID.String()),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// Subscribe blocks delivering markers until ctx is done. Malformed payloads
// are logged and skipped; they never stop the subscription.
func (f *predictionFeed) Subscribe(ctx context.Context, onChange func(predictionID uuid.UUID)) error {
	sub := f.client.Subscribe(ctx, constants.PredictionChangeChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			id, err := uuid.Parse(msg.Payload)
			if err != nil {
				f.logger.Warn(ctx, "Ignoring malformed prediction change marker",
					logger.String("payload", msg.Payload),
				)
				continue
			}
			onChange(id)
		}
	}
}
