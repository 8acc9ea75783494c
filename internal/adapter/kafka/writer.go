package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/neo-approach-service/internal/config"
	"github.com/couchcryptid/neo-approach-service/internal/report"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by ReportWriter.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ReportWriter produces ranked reports to a Kafka topic, one message per
// ranked object. It implements pipeline.ReportPublisher.
type ReportWriter struct {
	writer messageWriter
	logger *slog.Logger
}

// NewReportWriter creates a Kafka producer for the configured report topic.
func NewReportWriter(cfg *config.Config, logger *slog.Logger) *ReportWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &ReportWriter{writer: w, logger: logger}
}

// Publish writes every entry of r in a single WriteMessages call. An empty
// report produces no messages.
func (w *ReportWriter) Publish(ctx context.Context, r report.Report) error {
	if len(r.Entries) == 0 {
		w.logger.Info("report empty, nothing to publish", "scan_id", r.ScanID)
		return nil
	}
	msgs := make([]kafkago.Message, len(r.Entries))
	for i := range r.Entries {
		msg, err := serializeToMessage(r, r.Entries[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write report messages: %w", err)
	}
	w.logger.Info("report published", "scan_id", r.ScanID, "messages", len(msgs))
	return nil
}

func (w *ReportWriter) Close() error {
	return w.writer.Close()
}

// reportMessage is the value of one published message.
type reportMessage struct {
	ScanID      string       `json:"scan_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	WindowStart string       `json:"window_start"`
	WindowEnd   string       `json:"window_end"`
	Entry       report.Entry `json:"entry"`
}

// serializeToMessage marshals one ranked entry into a Kafka message keyed by
// object ID, so every report for the same object lands on one partition.
func serializeToMessage(r report.Report, e report.Entry) (kafkago.Message, error) {
	data, err := json.Marshal(reportMessage{
		ScanID:      r.ScanID,
		GeneratedAt: r.GeneratedAt,
		WindowStart: r.WindowStart,
		WindowEnd:   r.WindowEnd,
		Entry:       e,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report entry: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(e.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "scan_id", Value: []byte(r.ScanID)},
			{Key: "rank", Value: []byte(strconv.Itoa(e.Rank))},
			{Key: "potentially_hazardous", Value: []byte(strconv.FormatBool(e.PotentiallyHazardous))},
			{Key: "generated_at", Value: []byte(r.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
