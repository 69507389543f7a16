package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vibecheck/internal/config"
	"vibecheck/internal/metrics"
	"vibecheck/internal/queue"
	"vibecheck/internal/scan"
	"vibecheck/internal/store"
)

// Worker consumes scan feedback from the queue and fans the narration line
// out to capture stations over the Redis narration channel. Stations are
// expected to speak the line aloud at the gate.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis not reachable at %s; narration fan-out will fail until it is", cfg.RedisAddr)
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "vibecheck:scans")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("narration worker started, waiting for scans...")
	for msg := range messages {
		if msg.Type != queue.TypeScan {
			continue
		}

		var fb scan.Feedback
		if err := json.Unmarshal(msg.Body, &fb); err != nil {
			log.Printf("bad scan message: %v", err)
			continue
		}
		if fb.Narration == "" {
			continue
		}

		if err := redisClient.PublishNarration(ctx, cfg.NarrationChannel, fb.Narration); err != nil {
			log.Printf("narration publish failed: %v", err)
			continue
		}
		metrics.NarrationsTotal.Inc()
		log.Printf("narrated [%s] %s", fb.Kind, fb.Narration)
	}

	log.Println("worker stopped")
}
