package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/config"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/kafka"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/logger"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/crm"
)

func main() {
	logger.Init()
	cfg := config.Load()

	client := crm.NewMondayClient(cfg.MondayAPIKey, cfg.MondayAPIURL, cfg.MondayBoardID, cfg.MondayGroupID, cfg.WriteTimeout)
	consumer := kafka.NewConsumer(cfg.LeadEventTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Shutting down CRM worker...")
		cancel()
	}()

	logger.Log.WithField("topic", cfg.LeadEventTopic).Info("CRM worker consuming lead events")
	err := consumer.Consume(ctx, func(ctx context.Context, event models.Event) error {
		lead, err := decodeLead(event)
		if err != nil {
			// Malformed events are logged and skipped, not retried.
			logger.Log.WithError(err).WithField("event_id", event.ID).Error("Failed to decode lead event")
			return nil
		}

		itemID, err := client.PushLead(ctx, lead.Profile)
		if err != nil {
			logger.Log.WithError(err).WithField("lead_id", lead.ID).Error("Failed to push lead to CRM board")
			return err
		}
		logger.Log.WithField("lead_id", lead.ID).WithField("item_id", itemID).Info("Lead pushed to CRM board")
		return nil
	})
	if err != nil && err != context.Canceled {
		logger.Log.WithError(err).Error("Consumer stopped with error")
	}
	logger.Log.Info("CRM worker stopped")
}

func decodeLead(event models.Event) (models.Lead, error) {
	var lead models.Lead
	raw, ok := event.Data["lead"]
	if !ok {
		return lead, fmt.Errorf("event %s has no lead payload", event.ID)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return lead, err
	}
	if err := json.Unmarshal(encoded, &lead); err != nil {
		return lead, err
	}
	return lead, nil
}
