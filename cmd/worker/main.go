// Worker consumes flow events from Kafka and pushes them to Loki.
// Set KAFKA_BROKERS, FLOW_EVENTS_KAFKA_TOPIC, KAFKA_GROUP_ID and LOKI_URL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"phone-verification/internal/config"
	"phone-verification/internal/telemetry/loki"
)

func main() {
	cfg, err := config.LoadUnchecked()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.FlowEventsKafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.LokiURL == "" {
		log.Fatal("worker: LOKI_URL is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.FlowEventsKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()
	lokiClient := loki.NewClient(cfg.LokiURL)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("worker: consuming from %s (group %s), pushing to %s", cfg.FlowEventsKafkaTopic, cfg.KafkaGroupID, cfg.LokiURL)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("worker: stopped")
				return
			}
			log.Printf("worker: kafka read error: %v", err)
			continue
		}

		pushCtx, pushCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := lokiClient.PushFlowEventJSON(pushCtx, msg.Value); err != nil {
			log.Printf("worker: loki push failed for flow %s: %v", msg.Key, err)
		}
		pushCancel()
	}
}
