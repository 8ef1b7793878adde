package consumer

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

type ProductEvictor interface {
	EvictProduct(ctx context.Context, id string) error
}

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Consumer keeps this instance's product cache in line with product events.
type Consumer struct {
	productSvc ProductEvictor
}

func NewConsumer(productSvc ProductEvictor) *Consumer {
	return &Consumer{productSvc: productSvc}
}

// StartKafkaConsumer reads product events until ctx is cancelled.
func (c *Consumer) StartKafkaConsumer(ctx context.Context, reader MessageReader) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Info().Msg("Product consumer stopped")
				return
			}
			log.Error().Err(err).Msg("Error reading message")
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage handles keys of the form "product-<event>-<productID>".
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	key := string(msg.Key)
	listKey := strings.SplitN(key, "-", 3)
	if len(listKey) != 3 || listKey[0] != "product" || listKey[2] == "" {
		log.Error().Msgf("Unexpected product event key: %s", key)
		return
	}
	eventType, productID := listKey[1], listKey[2]

	switch eventType {
	case "updated", "deleted":
		if err := c.productSvc.EvictProduct(ctx, productID); err != nil {
			log.Error().Err(err).Msgf("Error evicting product %s", productID)
		}
	default:
		log.Warn().Msgf("Unknown product event: %s", eventType)
	}
}
