package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-checkin/internal/logger"
	"ms-checkin/internal/models"
)

// Producer streams accepted admissions to the scan topic. One writer is
// created at startup and shared by all handlers.
type Producer struct {
	Writer *kafka.Writer
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer, Logger: log}
}

// PublishScanAccepted streams an accepted scan or sale. The ticket
// number keys the message so all scans of one ticket land on the same
// partition, in order.
func (p *Producer) PublishScanAccepted(record models.ScanRecord) error {
	msgBytes, err := json.Marshal(record)
	if err != nil {
		return err
	}

	if p.Logger != nil {
		p.Logger.LogKafka("PUBLISH", p.Writer.Topic, string(msgBytes))
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(record.TicketNumber),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
