package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/nexrad-data-etl/internal/config"
	"github.com/couchcryptid/nexrad-data-etl/internal/radar"
)

// Writer produces scan summaries to a Kafka topic.
// It implements pipeline.SummaryPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one scan summary to the sink topic. The site is the
// message key so one site's scans stay ordered within a partition.
func (w *Writer) Publish(ctx context.Context, summary radar.ScanSummary) error {
	msg, err := serializeToMessage(summary)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ScanSummary into a Kafka message.
func serializeToMessage(summary radar.ScanSummary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize scan summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(summary.Site),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "vcp", Value: []byte(fmt.Sprintf("%d", summary.CoveragePatternNumber))},
			{Key: "volume_start", Value: []byte(summary.VolumeStart.Format(time.RFC3339))},
		},
	}, nil
}
