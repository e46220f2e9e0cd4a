// Package intake consumes alert-creation events from the producers' Kafka
// topic and inserts them into the store. How alerts are generated is the
// producers' business; this side only validates, deduplicates and persists.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	service "github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/service/alert"
	apierrors "github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/errors"
)

const (
	maxWait        = 500 * time.Millisecond
	commitInterval = time.Second
)

// messageReader is the subset of kafka.Reader the consumer uses; tests
// inject a fake.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// DedupChecker reports whether an alert id was already ingested. A nil
// checker disables deduplication.
type DedupChecker interface {
	Seen(ctx context.Context, id int64) (bool, error)
}

type Consumer struct {
	reader messageReader
	svc    *service.Service
	dedup  DedupChecker
	logger *slog.Logger
}

// NewConsumer joins the alert topic as a consumer group member, configured
// for at-least-once delivery. brokers is a comma-separated list.
func NewConsumer(brokers, topic, groupID string, svc *service.Service, dedup DedupChecker, logger *slog.Logger) (*Consumer, error) {
	if brokers == "" {
		return nil, fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("groupID cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokerList,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        maxWait,
		CommitInterval: commitInterval,
		StartOffset:    kafka.FirstOffset,
	})
	logger.Info("alert intake consumer configured",
		slog.Any("brokers", brokerList), slog.String("topic", topic), slog.String("group_id", groupID))
	return newConsumer(reader, svc, dedup, logger), nil
}

func newConsumer(reader messageReader, svc *service.Service, dedup DedupChecker, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{reader: reader, svc: svc, dedup: dedup, logger: logger}
}

// Run reads and processes events until ctx is cancelled. Malformed or
// duplicate events are logged and dropped so a poison message cannot wedge
// the partition; store-availability errors abort the loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("read alert event: %w", err)
		}
		if err := c.process(ctx, msg.Value); err != nil {
			if errors.Is(err, apierrors.ErrStoreUnavailable) {
				return err
			}
			c.logger.Warn("alert event dropped",
				slog.String("err", err.Error()),
				slog.Int64("offset", msg.Offset),
				slog.Int("partition", msg.Partition))
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
