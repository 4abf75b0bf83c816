package services

import (
	"context"
	"encoding/json"
	"time"

	"tctc-backend/logger"

	"github.com/segmentio/kafka-go"
)

// emailEvent is the payload shape published to the emails topic
type emailEvent struct {
	Event     string `json:"event"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// StartEmailConsumer drains the emails topic and hands each event to the
// SMTP sender. Runs until ctx is cancelled. No-op when Kafka is disabled.
func StartEmailConsumer(ctx context.Context) {
	brokers := brokerList()
	if len(brokers) == 0 {
		return
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          "emails",
		GroupID:        "tctc-backend-consumer-group",
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		MaxBytes:       10e6,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
	})

	go func() {
		defer reader.Close()
		logger.Info("Kafka email consumer started. Brokers=%v", brokers)

		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Info("Kafka email consumer stopped")
					return
				}
				logger.Warn("Kafka email consumer read error: %v", err)
				continue
			}

			var evt emailEvent
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				logger.Warn("Skipping malformed email event: %v", err)
				continue
			}
			if evt.Event != "email.send" || evt.Recipient == "" {
				continue
			}

			if err := SendEmailDirect(evt.Recipient, evt.Subject, evt.Body); err != nil {
				logger.Error("Failed to deliver queued email to %s: %v", evt.Recipient, err)
			}
		}
	}()
}
