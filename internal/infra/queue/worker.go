package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// CRMSyncer mirrors leads into an external CRM (Kommo).
type CRMSyncer interface {
	SyncLead(ctx context.Context, event LeadEvent) error
}

type Worker struct {
	Channel *amqp.Channel
	CRM     CRMSyncer
	Logger  *zap.Logger
}

func NewWorker(ch *amqp.Channel, crm CRMSyncer, logger *zap.Logger) *Worker {
	return &Worker{
		Channel: ch,
		CRM:     crm,
		Logger:  logger,
	}
}

// Start consumes queueName until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.ConsumeWithContext(ctx,
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer on %s: %w", queueName, err)
	}

	w.Logger.Info("lead sync worker started", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("lead sync worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", queueName)
			}
			w.handleDelivery(ctx, d)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var event LeadEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		// Malformed message: dead-letter it instead of blocking the queue.
		w.Logger.Warn("invalid lead event", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := w.processMessage(ctx, event); err != nil {
		w.Logger.Error("lead sync failed",
			zap.String("event", string(event.Type)),
			zap.String("lead_id", event.LeadID),
			zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func (w *Worker) processMessage(ctx context.Context, event LeadEvent) error {
	switch event.Type {
	case EventLeadCreated:
		return w.CRM.SyncLead(ctx, event)

	case EventLeadUpdated, EventLeadDeleted:
		// Kommo keeps its own pipeline after the first sync.
		w.Logger.Debug("lead event not mirrored",
			zap.String("event", string(event.Type)),
			zap.String("lead_id", event.LeadID))
		return nil

	default:
		w.Logger.Warn("unknown lead event", zap.String("event", string(event.Type)))
		return nil
	}
}
