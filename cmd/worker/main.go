package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"classroll/internal/attendance"
	"classroll/internal/config"
	"classroll/internal/directory"
	"classroll/internal/queue"
	"classroll/internal/store"
)

// Worker consumes mark events and refreshes the per-student summary cache in
// redis, keeping summary reads cheap for the API.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using environment variables")
	}
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classroll:marks")
	}

	svc := attendance.NewService(attendance.NewPostgresStore(db.Client), directory.NewPostgres(db.Client))

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "mark" || msg.StudentID == "" {
			continue
		}

		to := time.Now().UTC()
		from := to.AddDate(0, 0, -cfg.SummaryWindow)
		sum, err := svc.Summary(ctx, msg.StudentID, from, to)
		if err != nil {
			log.Printf("summary for %s failed: %v", msg.StudentID, err)
			continue
		}

		payload, err := json.Marshal(sum)
		if err != nil {
			continue
		}
		key := "classroll:summary:" + msg.StudentID
		if err := redisClient.Client.Set(ctx, key, payload, cfg.SummaryCacheTTL).Err(); err != nil {
			log.Printf("summary cache write for %s failed: %v", msg.StudentID, err)
			continue
		}
		log.Printf("summary cached for %s (%d days, %d%%)", msg.StudentID, sum.TotalDays, sum.Percentage)
	}

	log.Println("worker stopped")
}
